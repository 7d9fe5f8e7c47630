/**
 * Copyright 2026 Adobe. All rights reserved.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License. You may obtain a copy
 * of the License at http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software distributed under
 * the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR REPRESENTATIONS
 * OF ANY KIND, either express or implied. See the License for the specific language
 * governing permissions and limitations under the License.
 */

// Author: Sergei Parshev (@sparshev)

package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const goTestStream = `{"Time":"2024-05-01T10:00:00Z","Action":"start","Package":"example.com/webtests"}
{"Time":"2024-05-01T10:00:00.1Z","Action":"run","Package":"example.com/webtests","Test":"Test_login"}
{"Time":"2024-05-01T10:00:01Z","Action":"pass","Package":"example.com/webtests","Test":"Test_login","Elapsed":0.9}
{"Time":"2024-05-01T10:00:01Z","Action":"run","Package":"example.com/webtests","Test":"Test_search"}
{"Time":"2024-05-01T10:00:01Z","Action":"run","Package":"example.com/webtests","Test":"Test_search/by_name"}
{"Time":"2024-05-01T10:00:02Z","Action":"pass","Package":"example.com/webtests","Test":"Test_search/by_name","Elapsed":1}
{"Time":"2024-05-01T10:00:02Z","Action":"run","Package":"example.com/webtests","Test":"Test_search/by_id"}
{"Time":"2024-05-01T10:00:03Z","Action":"output","Package":"example.com/webtests","Test":"Test_search/by_id","Output":"    search_test.go:42: ERROR: no results\n"}
{"Time":"2024-05-01T10:00:03Z","Action":"fail","Package":"example.com/webtests","Test":"Test_search/by_id","Elapsed":1.5}
{"Time":"2024-05-01T10:00:03Z","Action":"fail","Package":"example.com/webtests","Test":"Test_search","Elapsed":2.5}
not a json line from the build
{"Time":"2024-05-01T10:00:03Z","Action":"skip","Package":"example.com/webtests","Test":"Test_upload","Elapsed":0}
{"Time":"2024-05-01T10:00:04Z","Action":"run","Package":"example.com/webtests","Test":"Test_hang"}
{"Time":"2024-05-01T10:01:40Z","Action":"output","Package":"example.com/webtests","Output":"panic: test timed out after 1m40s\n"}
{"Time":"2024-05-01T10:01:40Z","Action":"fail","Package":"example.com/webtests","Elapsed":100}
{"Time":"2024-05-01T10:01:40Z","Action":"run","Package":"example.com/other","Test":"Test_unfinished"}
`

func TestReadGoTest(t *testing.T) {
	defer goleak.VerifyNone(t, leakOptions...)

	stats := NewStats("Portal", "Go", "qa")
	n, err := ReadGoTest(strings.NewReader(goTestStream), stats)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	sum := stats.Finish()
	assert.Equal(t, 5, sum.Total)
	assert.Equal(t, 2, sum.Passed)
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 100*time.Second, sum.Duration)

	byName := make(map[string]TestResult)
	for _, res := range sum.Tests {
		byName[res.Name] = res
	}
	assert.NotContains(t, byName, "Test_search", "parents are represented by their subtests")
	assert.NotContains(t, byName, "Test_unfinished", "package did not fail")

	assert.Equal(t, StatusPassed, byName["Test_login"].Status)
	assert.Equal(t, 900*time.Millisecond, byName["Test_login"].Duration)
	assert.Equal(t, "example.com/webtests", byName["Test_login"].Suite)

	failed := byName["Test_search/by_id"]
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "search_test.go:42: ERROR: no results", failed.Error)

	assert.Equal(t, StatusSkipped, byName["Test_upload"].Status)
	assert.Equal(t, StatusTimedOut, byName["Test_hang"].Status)
}

func TestReadGoTest_Empty(t *testing.T) {
	stats := NewStats("Portal", "Go", "qa")
	n, err := ReadGoTest(strings.NewReader(""), stats)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, stats.Finish().Total)
}
