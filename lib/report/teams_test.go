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
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookURL = "https://hooks.example.com/webhookb2/abc"

func testSummary() *Summary {
	return &Summary{
		Project:     "Portal",
		Suite:       "Smoke",
		Environment: "qa",
		Duration:    time.Hour + 2*time.Minute + 3*time.Second,
		Total:       3,
		Passed:      2,
		Failed:      1,
	}
}

func TestTeamsMessage(t *testing.T) {
	sum := testSummary()
	assert.Equal(t,
		"**Playwright Operation: Tests Completed (With Failures)**<br>"+
			"**ProjectName:** Portal; **Environment:** qa<br>"+
			"**SuiteName:** Smoke<br>"+
			"**Counts: Total:** 3; **Passed:** 2; **Skipped:** 0; **Failed:** 1<br>"+
			"**Time:** 1:02:03<br>",
		TeamsMessage(sum))

	sum.Failed, sum.Skipped = 0, 1
	assert.Contains(t, TeamsMessage(sum), "**Playwright Operation: Tests Completed (All Succeeded)**<br>")
	assert.Contains(t, TeamsMessage(sum), "**Skipped:** 1; **Failed:** 0")
}

func TestTeams_Publish(t *testing.T) {
	teams := NewTeams(webhookURL, 5*time.Second)
	assert.Equal(t, "teams", teams.Name())

	defer apitest.NewMock().
		HttpClient(teams.client).
		Post(webhookURL).
		Header("Content-Type", "application/json").
		RespondWith().
		Status(http.StatusOK).
		Body("1").
		EndStandalone()()

	require.NoError(t, teams.Publish(context.Background(), testSummary()))
}

func TestTeams_PublishRejected(t *testing.T) {
	teams := NewTeams(webhookURL, 5*time.Second)

	defer apitest.NewMock().
		HttpClient(teams.client).
		Post(webhookURL).
		RespondWith().
		Status(http.StatusBadRequest).
		Body("Text is required").
		EndStandalone()()

	err := teams.Publish(context.Background(), testSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answered 400")
	assert.Contains(t, err.Error(), "Text is required")
}
