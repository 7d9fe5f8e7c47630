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

// Package helper allows to run webpilot dispatchers against a real browser
package helper

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/adobe/webpilot/lib/browser"
	"github.com/adobe/webpilot/lib/config"
	"github.com/adobe/webpilot/lib/fixture"
	"github.com/adobe/webpilot/lib/util"
)

// WPPlaywright keeps the browser shared by the subtests of one test
type WPPlaywright struct {
	browser *browser.Browser
	cfg     *config.Config

	captureDir string

	// Automatic tests screenshoting
	stepMu sync.Mutex
	step   int
}

// TestConfig returns the config used by the web tests: short waits, no slow motion and
// BROWSER/HEADFUL taken from the environment
func TestConfig(workspace string) *config.Config {
	cfg := config.Default()
	cfg.ApplyEnv(os.Getenv)

	cfg.Browser.SlowMo = 0
	cfg.Browser.IgnoreHTTPSErrors = true
	cfg.Browser.RecordVideo = true
	cfg.Browser.VideoDir = filepath.Join(workspace, "playwright", "video")

	cfg.Timeouts = config.Timeouts{
		Attach:     util.Duration(2 * time.Second),
		Visible:    util.Duration(2 * time.Second),
		Hidden:     util.Duration(2 * time.Second),
		Absent:     util.Duration(time.Second),
		Action:     util.Duration(2 * time.Second),
		Navigation: util.Duration(5 * time.Second),
		Test:       util.Duration(30 * time.Second),
	}

	cfg.ScreenshotsDir = filepath.Join(workspace, "playwright", "teardown")
	cfg.DataDir = filepath.Join(workspace, "data")
	cfg.DownloadDir = filepath.Join(workspace, "data", "download")

	return cfg
}

// NewPlaywright launches the browser, it's closed when the test is completed
func NewPlaywright(tb testing.TB, workspace string) *WPPlaywright {
	tb.Helper()

	wp := &WPPlaywright{
		cfg:        TestConfig(workspace),
		captureDir: filepath.Join(workspace, "playwright"),
	}

	var err error
	if wp.browser, err = browser.Launch(context.Background(), wp.cfg); err != nil {
		tb.Fatalf("ERROR: Could not launch browser: %v", err)
	}

	tb.Cleanup(func() {
		if err := wp.browser.Close(); err != nil {
			tb.Errorf("ERROR: Could not close browser: %v", err)
		}
		wp.Cleanup(tb)
	})

	return wp
}

// Config is shared by all the fixtures of the helper, change it before Fixture is called
func (wp *WPPlaywright) Config() *config.Config {
	return wp.cfg
}

// Browser is the factory of the browser contexts
func (wp *WPPlaywright) Browser() *browser.Browser {
	return wp.browser
}

// SetTarget makes baseURL the only environment of the config
func (wp *WPPlaywright) SetTarget(baseURL, username, password string) {
	wp.cfg.Env = "webtest"
	wp.cfg.Environments = map[string]config.Environment{
		wp.cfg.Env: {BaseURL: baseURL, Username: username, Password: password},
	}
}

// Fixture points the config to baseURL and opens it in a fresh context. The context is
// torn down with screenshots when the test is completed.
func (wp *WPPlaywright) Fixture(tb testing.TB, baseURL, username, password string) *fixture.Fixture {
	tb.Helper()

	wp.SetTarget(baseURL, username, password)

	f, err := fixture.New(wp.browser, wp.cfg)
	if err != nil {
		tb.Fatalf("ERROR: Could not create fixture: %v", err)
	}
	tb.Cleanup(func() {
		if _, err := f.Teardown(path.Base(tb.Name()), !tb.Failed()); err != nil {
			tb.Errorf("ERROR: Could not tear down fixture: %v", err)
		}
	})

	if err = f.Open(); err != nil {
		tb.Fatalf("ERROR: Could not open %s: %v", baseURL, err)
	}

	return f
}

// Run executes the subtest with screenshots of the page at its start and end
func (wp *WPPlaywright) Run(t *testing.T, page playwright.Page, name string, fn func(t *testing.T)) {
	t.Helper()

	t.Run(name, func(t *testing.T) {
		wp.Screenshot(t, page, "start")
		defer wp.Screenshot(t, page, "end")

		fn(t)
	})
}

// Screenshot takes a screenshot with automatic naming
func (wp *WPPlaywright) Screenshot(t *testing.T, page playwright.Page, phase string) {
	wp.stepMu.Lock()
	defer wp.stepMu.Unlock()

	wp.step++
	filename := fmt.Sprintf("%02d-%s-%s.png", wp.step, path.Base(t.Name()), phase)

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(wp.CaptureDir("screenshots", filename)),
	}); err != nil {
		t.Logf("WARNING: Could not take screenshot %s: %v", filename, err)
	}
}

// CaptureDir returns dir where to store all the test data
func (wp *WPPlaywright) CaptureDir(path ...string) string {
	paths := append([]string{wp.captureDir}, path...)
	out := filepath.Join(paths...)
	os.MkdirAll(filepath.Dir(out), 0o755)
	return out
}

// Cleanup removes the captures unless the test failed
func (wp *WPPlaywright) Cleanup(tb testing.TB) {
	tb.Helper()
	tb.Log("INFO: Cleaning up playwright:", wp.browser.Name())

	if tb.Failed() {
		tb.Log("INFO: Keeping captures for checking:", wp.captureDir)
		return
	}
	os.RemoveAll(wp.captureDir)
}
