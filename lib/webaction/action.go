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

package webaction

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/adobe/webpilot/lib/log"
)

const (
	jsClick    = "el => el.click()"
	jsSetValue = "(el, value) => { el.value = value }"
)

// Result of the action, only GETTEXT and RETURNELEMENT fill it
type Result struct {
	Text    string
	Locator playwright.Locator
}

// Actions performs a single browser operation per call
type Actions struct {
	resolver *Resolver
	dataDir  string
}

// ActionsOption changes the Actions defaults
type ActionsOption func(*Actions)

// WithDataDir sets the directory relative UPLOADFILE names are taken from
func WithDataDir(dir string) ActionsOption {
	return func(a *Actions) {
		a.dataDir = dir
	}
}

// NewActions creates the action dispatcher on top of the resolver
func NewActions(resolver *Resolver, opts ...ActionsOption) *Actions {
	a := &Actions{
		resolver: resolver,
		dataDir:  "Data",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Perform resolves the element and runs the operation identified by id on it.
// Identifier and payload are checked before anything is resolved, so on those errors the
// page is not touched.
func (a *Actions) Perform(id ActionID, selector, payload string, frames []string) (Result, error) {
	logger := log.WithFunc("webaction", "Perform").With("action", string(id), "selector", selector)

	if !slices.Contains(actionIDs, id) {
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidAction, id)
	}
	if id.NeedsPayload() && payload == "" {
		return Result{}, fmt.Errorf("%w: %s needs a value", ErrMissingPayload, id)
	}

	loc, err := a.resolver.Resolve(selector, frames)
	if err != nil {
		logger.Debug("Unable to resolve element", "err", err)
		return Result{}, err
	}

	var res Result
	switch id {
	case ActionClick:
		err = loc.Click()
	case ActionClickViaJS:
		_, err = loc.First().Evaluate(jsClick, nil)
	case ActionDoubleClick:
		err = loc.Dblclick()
	case ActionHover:
		err = loc.Hover()
	case ActionSetText:
		err = loc.Fill(payload)
	case ActionClearText:
		err = loc.Clear()
	case ActionCheck:
		err = loc.Check()
	case ActionUncheck:
		err = loc.Uncheck()
	case ActionSetDropdown:
		_, err = loc.SelectOption(playwright.SelectOptionValues{Labels: playwright.StringSlice(payload)})
	case ActionSetDropdownViaValue:
		_, err = loc.SelectOption(playwright.SelectOptionValues{Values: playwright.StringSlice(payload)})
	case ActionUploadFile:
		err = loc.SetInputFiles(a.dataPath(payload))
	case ActionSetAttribute:
		_, err = loc.Evaluate(jsSetValue, payload)
	case ActionGetText:
		var text string
		text, err = loc.TextContent()
		res.Text = strings.TrimSpace(text)
	case ActionReturnElement:
		res.Locator = loc
	case ActionScrollIntoView:
		err = loc.ScrollIntoViewIfNeeded()
	case ActionKeyPress:
		err = loc.Press(payload)
	case ActionFocus:
		err = loc.Focus()
	case ActionWaitElement:
		// Resolve already waited for the element
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrInvalidAction, id)
	}
	if err != nil {
		logger.Debug("Action failed", "err", err)
		return Result{}, fmt.Errorf("webaction: %s on %q: %w", id, selector, err)
	}

	logger.Debug("Action done")
	return res, nil
}

func (a *Actions) dataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(a.dataDir, name)
}

// Click clicks the element
func (a *Actions) Click(selector string, frames []string) error {
	_, err := a.Perform(ActionClick, selector, "", frames)
	return err
}

// SetText fills the input with text, empty text clears it
func (a *Actions) SetText(selector, text string, frames []string) error {
	_, err := a.Perform(ActionSetText, selector, text, frames)
	return err
}

// Text returns the trimmed text content of the element
func (a *Actions) Text(selector string, frames []string) (string, error) {
	res, err := a.Perform(ActionGetText, selector, "", frames)
	return res.Text, err
}

// Element returns the resolved locator
func (a *Actions) Element(selector string, frames []string) (playwright.Locator, error) {
	res, err := a.Perform(ActionReturnElement, selector, "", frames)
	return res.Locator, err
}
