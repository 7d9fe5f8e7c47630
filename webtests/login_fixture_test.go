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

package tests

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/webpilot/lib/fixture"
	"github.com/adobe/webpilot/lib/webaction"
	hp "github.com/adobe/webpilot/webtests/helper"
)

// Test_login_fixture signs in through the login precondition and checks the teardown screenshots
// WARNING: Needs playwright browsers installed
func Test_login_fixture(t *testing.T) {
	t.Parallel()

	site := hp.NewSite(t)
	wp := hp.NewPlaywright(t, t.TempDir())
	wp.SetTarget(hp.URL(site, "/"), "user@example.com", "secret")

	f, err := fixture.New(wp.Browser(), wp.Config())
	require.NoError(t, err)

	require.NoError(t, f.Open())
	require.NoError(t, f.Login())
	require.NoError(t, f.Verifier.Verify("#logo", webaction.AssertDisplayed, nil, nil))
	assert.NoError(t, f.Verifier.Verify("#welcome", webaction.AssertEqualCheck, "Welcome", nil))
	assert.Contains(t, f.Page.URL(), "user=user%40example.com")

	paths, err := f.Teardown("TC01 - Login", true)
	require.NoError(t, err)
	require.Len(t, paths, 1)

	name := filepath.Base(paths[0])
	assert.True(t, strings.HasPrefix(name, "TC01 - Login 0_Passed_webtest_"), name)
	assert.Equal(t, wp.Config().ScreenshotsDir, filepath.Dir(paths[0]))
	info, err := os.Stat(paths[0])
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

// Test_login_fixture_no_account makes sure the login is not attempted without credentials
// WARNING: Needs playwright browsers installed
func Test_login_fixture_no_account(t *testing.T) {
	t.Parallel()

	site := hp.NewSite(t)
	wp := hp.NewPlaywright(t, t.TempDir())
	f := wp.Fixture(t, hp.URL(site, "/"), "", "")

	assert.ErrorIs(t, f.Login(), fixture.ErrNoCredentials)
	assert.NoError(t, f.Verifier.Verify("#logo", webaction.AssertNotExist, nil, nil))
}
