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

// Package fixture wires a browser page with the action and verification dispatchers for a test
package fixture

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/adobe/webpilot/lib/config"
	"github.com/adobe/webpilot/lib/log"
	"github.com/adobe/webpilot/lib/screenshot"
	"github.com/adobe/webpilot/lib/webaction"
)

// ErrNoCredentials is returned by Login when the environment has no account
var ErrNoCredentials = errors.New("fixture: no credentials configured")

// ContextFactory hands out fresh isolated browser contexts
type ContextFactory interface {
	NewContext() (playwright.BrowserContext, error)
}

// Fixture is the state of one running test
type Fixture struct {
	Context  playwright.BrowserContext
	Page     playwright.Page
	Actions  *webaction.Actions
	Verifier *webaction.Verifier

	cfg  *config.Config
	env  config.Environment
	sink *screenshot.Sink
}

// New creates the context and the page of a test
func New(factory ContextFactory, cfg *config.Config) (*Fixture, error) {
	bctx, err := factory.NewContext()
	if err != nil {
		return nil, err
	}
	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		return nil, fmt.Errorf("Fixture: Could not create page: %w", err)
	}

	f := &Fixture{
		Context: bctx,
		Page:    page,
		cfg:     cfg,
		env:     cfg.Environment(),
		sink:    screenshot.New(cfg.ScreenshotsDir, cfg.Env),
	}
	f.Actions, f.Verifier = Dispatchers(webaction.PageScope(page), cfg)

	return f, nil
}

// Timeouts converts the configured waits into the resolver ones
func Timeouts(t config.Timeouts) webaction.Timeouts {
	return webaction.Timeouts{
		Attach:  t.Attach.Std(),
		Visible: t.Visible.Std(),
		Hidden:  t.Hidden.Std(),
		Absent:  t.Absent.Std(),
	}
}

// Dispatchers builds the action and verification dispatchers on the scope
func Dispatchers(scope webaction.Scope, cfg *config.Config) (*webaction.Actions, *webaction.Verifier) {
	resolver := webaction.NewResolver(scope, webaction.WithTimeouts(Timeouts(cfg.Timeouts)))
	return webaction.NewActions(resolver, webaction.WithDataDir(cfg.DataDir)), webaction.NewVerifier(resolver)
}

// Open navigates the page to the base URL of the environment
func (f *Fixture) Open() error {
	log.WithFunc("fixture", "Open").Debug("Navigating", "url", f.env.BaseURL)
	if _, err := f.Page.Goto(f.env.BaseURL); err != nil {
		return fmt.Errorf("Fixture: Unable to open %q: %w", f.env.BaseURL, err)
	}
	return nil
}

// Login fills the login form with the account of the environment
func (f *Fixture) Login() error {
	return Login(f.Actions, f.cfg.Login, f.env.Username, f.env.Password)
}

// Login performs the username, password and submit steps through the dispatcher
func Login(actions *webaction.Actions, login config.Login, username, password string) error {
	logger := log.WithFunc("fixture", "Login")
	if username == "" {
		return ErrNoCredentials
	}

	steps := []struct {
		id       webaction.ActionID
		selector string
		value    string
	}{
		{webaction.ActionSetText, login.UsernameSelector, username},
		{webaction.ActionSetText, login.PasswordSelector, password},
		{webaction.ActionClick, login.SubmitSelector, ""},
	}
	for _, step := range steps {
		if _, err := actions.Perform(step.id, step.selector, step.value, login.Frames); err != nil {
			logger.Error("Login step failed", "action", step.id, "selector", step.selector, "err", err)
			return fmt.Errorf("Fixture: Login failed: %w", err)
		}
	}

	logger.Debug("Logged in", "user", username)
	return nil
}

// Teardown captures every open page and closes the context
func (f *Fixture) Teardown(label string, passed bool) ([]string, error) {
	logger := log.WithFunc("fixture", "Teardown")
	logger.Info("Taking screenshots", "test", label, "status", screenshot.Status(passed))

	paths, shotErr := f.sink.CaptureAll(f.Context.Pages(), label, passed)
	if shotErr != nil {
		logger.Warn("Some screenshots were not taken", "err", shotErr)
	}
	if err := f.Context.Close(); err != nil {
		return paths, errors.Join(shotErr, fmt.Errorf("Fixture: Could not close context: %w", err))
	}
	return paths, shotErr
}
