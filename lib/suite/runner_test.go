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

package suite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/webpilot/lib/config"
	"github.com/adobe/webpilot/lib/report"
	"github.com/adobe/webpilot/lib/util"
)

// domElement is a node of the fake application page
type domElement struct {
	text    string
	value   string
	hidden  bool
	onClick func(d *fakeDOM)
}

type fakeDOM struct {
	elements map[string]*domElement
	visited  []string
}

type fakePage struct {
	playwright.Page

	dom    *fakeDOM
	closed bool
}

func (p *fakePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.dom.visited = append(p.dom.visited, url)
	return nil, nil
}

func (p *fakePage) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return &fakeLocator{dom: p.dom, selector: selector}
}

func (p *fakePage) IsClosed() bool {
	return p.closed
}

func (p *fakePage) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	return nil, os.WriteFile(*options[0].Path, []byte("png"), 0o644)
}

// pwLocator keeps the embedded interface from shadowing its own Locator method
type pwLocator interface{ playwright.Locator }

var _ playwright.Locator = (*fakeLocator)(nil)

type fakeLocator struct {
	pwLocator

	dom      *fakeDOM
	selector string
}

func (l *fakeLocator) el() (*domElement, error) {
	el, ok := l.dom.elements[l.selector]
	if !ok {
		return nil, fmt.Errorf("no element %s", l.selector)
	}
	return el, nil
}

func (l *fakeLocator) First() playwright.Locator {
	return l
}

func (l *fakeLocator) WaitFor(options ...playwright.LocatorWaitForOptions) error {
	el, ok := l.dom.elements[l.selector]
	state := *playwright.WaitForSelectorStateAttached
	if len(options) > 0 && options[0].State != nil {
		state = *options[0].State
	}
	var reached bool
	switch state {
	case *playwright.WaitForSelectorStateVisible:
		reached = ok && !el.hidden
	case *playwright.WaitForSelectorStateHidden:
		reached = !ok || el.hidden
	default:
		reached = ok
	}
	if !reached {
		return fmt.Errorf("waiting for %s to be %s: %w", l.selector, state, playwright.ErrTimeout)
	}
	return nil
}

func (l *fakeLocator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	el, err := l.el()
	if err != nil {
		return err
	}
	el.value = value
	return nil
}

func (l *fakeLocator) Click(options ...playwright.LocatorClickOptions) error {
	el, err := l.el()
	if err != nil {
		return err
	}
	if el.onClick != nil {
		el.onClick(l.dom)
	}
	return nil
}

func (l *fakeLocator) TextContent(options ...playwright.LocatorTextContentOptions) (string, error) {
	el, err := l.el()
	if err != nil {
		return "", err
	}
	return el.text, nil
}

func (l *fakeLocator) InputValue(options ...playwright.LocatorInputValueOptions) (string, error) {
	el, err := l.el()
	if err != nil {
		return "", err
	}
	return el.value, nil
}

type fakeContext struct {
	playwright.BrowserContext

	dom    *fakeDOM
	pages  []playwright.Page
	closed bool
}

func (c *fakeContext) NewPage() (playwright.Page, error) {
	page := &fakePage{dom: c.dom}
	c.pages = append(c.pages, page)
	return page, nil
}

func (c *fakeContext) Pages() []playwright.Page {
	return c.pages
}

func (c *fakeContext) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.closed = true
	return nil
}

// fakeBrowser hands out contexts sharing a fresh application DOM each
type fakeBrowser struct {
	contexts []*fakeContext
	err      error
}

func (b *fakeBrowser) NewContext() (playwright.BrowserContext, error) {
	if b.err != nil {
		return nil, b.err
	}
	ctx := &fakeContext{dom: newApp()}
	b.contexts = append(b.contexts, ctx)
	return ctx, nil
}

func newApp() *fakeDOM {
	cfg := config.Default()
	d := &fakeDOM{elements: map[string]*domElement{
		cfg.Login.UsernameSelector: {},
		cfg.Login.PasswordSelector: {},
		"#search":                  {},
		"#result":                  {hidden: true},
	}}
	d.elements[cfg.Login.SubmitSelector] = &domElement{onClick: func(d *fakeDOM) {
		d.elements["#logo"] = &domElement{text: "Portal"}
	}}
	d.elements["#slow"] = &domElement{onClick: func(*fakeDOM) {
		time.Sleep(50 * time.Millisecond)
	}}
	d.elements["#go"] = &domElement{onClick: func(d *fakeDOM) {
		d.elements["#result"].hidden = false
		d.elements["#result"].text = "Found " + d.elements["#search"].value
	}}
	return d
}

func runnerConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Environments["qa"] = config.Environment{
		BaseURL:  "https://qa.example.com",
		Username: "tester@example.com",
		Password: "secret",
	}
	cfg.ScreenshotsDir = filepath.Join(t.TempDir(), "Screenshots")
	return cfg
}

func appSuite() *Suite {
	return &Suite{
		Name: "Smoke",
		Tests: []Test{
			{
				Name:  "TC01 - Search",
				Login: playwright.Bool(true),
				Steps: []Step{
					{Verify: "DISPLAYED", Selector: "#logo"},
					{Action: "SETTEXT", Selector: "#search", Value: "policy 42"},
					{Action: "CLICK", Selector: "#go"},
					{Verify: "EQUALCHECK", Selector: "#result", Expected: "Found policy 42"},
				},
			},
			{
				Name: "TC02 - Logo without login",
				Steps: []Step{
					{Verify: "DISPLAYED", Selector: "#logo"},
				},
			},
			{
				Name: "TC03 - Upload",
				Skip: true,
			},
		},
	}
}

func TestRunner_Run(t *testing.T) {
	cfg := runnerConfig(t)
	browser := &fakeBrowser{}
	stats := report.NewStats("Portal", "Smoke", "qa")

	require.NoError(t, NewRunner(cfg, browser, nil, stats).Run(context.Background(), appSuite()))

	sum := stats.Finish()
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Passed)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Skipped)

	assert.Equal(t, report.StatusPassed, sum.Tests[0].Status)
	assert.Equal(t, report.StatusFailed, sum.Tests[1].Status)
	assert.Contains(t, sum.Tests[1].Error, `step #0 verify DISPLAYED "#logo"`)
	assert.Equal(t, report.StatusSkipped, sum.Tests[2].Status)
	assert.Equal(t, "Smoke", sum.Tests[2].Suite)

	// One isolated context per executed test, opened on the base url and closed at the end
	require.Len(t, browser.contexts, 2)
	for _, bctx := range browser.contexts {
		assert.True(t, bctx.closed)
		assert.Equal(t, []string{"https://qa.example.com"}, bctx.dom.visited)
	}
	assert.Equal(t, "tester@example.com", browser.contexts[0].dom.elements[cfg.Login.UsernameSelector].value)
	assert.Empty(t, browser.contexts[1].dom.elements[cfg.Login.UsernameSelector].value)

	entries, err := os.ReadDir(cfg.ScreenshotsDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.True(t, strings.HasPrefix(names[0], "TC01 - Search 0_Passed_qa_"), names[0])
	assert.True(t, strings.HasPrefix(names[1], "TC02 - Logo without login 0_Failed_qa_"), names[1])
}

func TestRunner_Canceled(t *testing.T) {
	stats := report.NewStats("Portal", "Smoke", "qa")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	browser := &fakeBrowser{}
	err := NewRunner(runnerConfig(t), browser, nil, stats).Run(ctx, appSuite())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, browser.contexts)
	assert.Zero(t, stats.Finish().Total)
}

func TestRunner_TestTimeout(t *testing.T) {
	cfg := runnerConfig(t)
	cfg.Timeouts.Test = util.Duration(10 * time.Millisecond)
	stats := report.NewStats("Portal", "Smoke", "qa")

	s := &Suite{Name: "Smoke", Tests: []Test{{
		Name:  "TC01",
		Steps: []Step{
			{Action: "CLICK", Selector: "#slow"},
			{Action: "CLICK", Selector: "#go"},
		},
	}}}
	require.NoError(t, NewRunner(cfg, &fakeBrowser{}, nil, stats).Run(context.Background(), s))

	sum := stats.Finish()
	require.Len(t, sum.Tests, 1)
	assert.Equal(t, report.StatusTimedOut, sum.Tests[0].Status)
	assert.Contains(t, sum.Tests[0].Error, "Stopped before step #1")
	assert.Equal(t, 1, sum.Failed)
}

func TestRunner_BrowserFailure(t *testing.T) {
	stats := report.NewStats("Portal", "Smoke", "qa")
	browser := &fakeBrowser{err: errors.New("browser has been closed")}

	s := &Suite{Name: "Smoke", Tests: []Test{{Name: "TC01"}}}
	require.NoError(t, NewRunner(runnerConfig(t), browser, nil, stats).Run(context.Background(), s))

	sum := stats.Finish()
	assert.Equal(t, report.StatusFailed, sum.Tests[0].Status)
	assert.Equal(t, "browser has been closed", sum.Tests[0].Error)
}
