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
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/adobe/webpilot/lib/log"
)

const (
	jsAttribute = "(el, name) => el.hasAttribute(name) ? el.getAttribute(name) : null"
	jsCSSValue  = "(el, prop) => window.getComputedStyle(el).getPropertyValue(prop)"
)

// Attribute is the expected value of PROPERTYCHECK and ATTRIBUTENOTEXIST.
// Empty Value only checks that the attribute is present.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CSSValue is the expected value of CSSVALUECHECK
type CSSValue struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// Verifier checks a single condition per call
type Verifier struct {
	resolver *Resolver
}

// NewVerifier creates the assertion dispatcher on top of the resolver
func NewVerifier(resolver *Resolver) *Verifier {
	return &Verifier{resolver: resolver}
}

// Verify checks the condition identified by id on the element, nil means it holds.
// The comparison is done once the element is resolved, without retries.
func (v *Verifier) Verify(selector string, id AssertionID, expected any, frames []string) error {
	logger := log.WithFunc("webaction", "Verify").With("assertion", string(id), "selector", selector)

	if !slices.Contains(assertionIDs, id) {
		return fmt.Errorf("%w: %q", ErrInvalidAssertion, id)
	}

	var err error
	switch id {
	case AssertEqualCheck, AssertContainText, AssertTextStartsWith, AssertTextEndsWith:
		err = v.verifyText(selector, id, expected, frames)
	case AssertDisplayed:
		err = v.verifyDisplayed(selector, frames)
	case AssertNotDisplayed, AssertIsHidden:
		err = v.verifyHidden(selector, id, frames)
	case AssertEnabled, AssertDisabled, AssertElementChecked, AssertElementNotChecked:
		err = v.verifyState(selector, id, frames)
	case AssertNotExist, AssertTableDataExists, AssertCountMatch:
		err = v.verifyCount(selector, id, expected, frames)
	case AssertPropertyCheck, AssertAttributeNotExist, AssertPlaceholderValue:
		err = v.verifyAttribute(selector, id, expected, frames)
	case AssertCSSValueCheck, AssertHaveClass, AssertHaveClassPattern:
		err = v.verifyStyle(selector, id, expected, frames)
	default:
		err = fmt.Errorf("%w: %q", ErrInvalidAssertion, id)
	}

	if err != nil {
		logger.Debug("Verification failed", "err", err)
		return err
	}
	logger.Debug("Verification passed")
	return nil
}

func (v *Verifier) verifyText(selector string, id AssertionID, expected any, frames []string) error {
	want, err := expectString(id, expected)
	if err != nil {
		return err
	}
	loc, err := v.resolver.Resolve(selector, frames)
	if err != nil {
		return err
	}
	got, err := readText(loc)
	if err != nil {
		return fmt.Errorf("webaction: reading text of %q: %w", selector, err)
	}

	var ok bool
	switch id {
	case AssertEqualCheck:
		ok = got == want
	case AssertContainText:
		ok = strings.Contains(got, want)
	case AssertTextStartsWith:
		ok = strings.HasPrefix(got, want)
	case AssertTextEndsWith:
		ok = strings.HasSuffix(got, want)
	}
	if !ok {
		return &AssertionError{Selector: selector, Assertion: id, Expected: want, Actual: got}
	}
	return nil
}

// readText returns trimmed text content, or the input value for form controls without text
func readText(loc playwright.Locator) (string, error) {
	text, err := loc.TextContent()
	if err != nil {
		return "", err
	}
	if text == "" {
		// Not every element has a value, nothing to fall back to then
		if value, err := loc.InputValue(); err == nil {
			text = value
		}
	}
	return strings.TrimSpace(text), nil
}

func (v *Verifier) verifyDisplayed(selector string, frames []string) error {
	loc, err := v.resolver.Locate(selector, frames)
	if err != nil {
		return err
	}
	return waitState(loc, selector, frames, playwright.WaitForSelectorStateVisible, v.resolver.timeouts.Visible)
}

func (v *Verifier) verifyHidden(selector string, id AssertionID, frames []string) error {
	loc, err := v.resolver.Locate(selector, frames)
	if err != nil {
		return err
	}
	timeout := v.resolver.timeouts.Absent
	if id == AssertIsHidden {
		timeout = v.resolver.timeouts.Hidden
	}
	// Every match needs to be hidden, so wait for the visible ones to go away
	visible := loc.Filter(playwright.LocatorFilterOptions{Visible: playwright.Bool(true)})
	err = waitState(visible, selector, frames, playwright.WaitForSelectorStateDetached, timeout)
	if errors.Is(err, ErrTimeout) {
		return &AssertionError{Selector: selector, Assertion: id, Expected: "hidden", Actual: "visible", Err: err}
	}
	return err
}

func (v *Verifier) verifyState(selector string, id AssertionID, frames []string) error {
	loc, err := v.resolver.Resolve(selector, frames)
	if err != nil {
		return err
	}

	var state, want bool
	switch id {
	case AssertEnabled, AssertDisabled:
		state, err = loc.IsEnabled()
		want = id == AssertEnabled
	case AssertElementChecked, AssertElementNotChecked:
		state, err = loc.IsChecked()
		want = id == AssertElementChecked
	}
	if err != nil {
		return fmt.Errorf("webaction: reading state of %q: %w", selector, err)
	}
	if state != want {
		return &AssertionError{Selector: selector, Assertion: id, Expected: want, Actual: state}
	}
	return nil
}

func (v *Verifier) verifyCount(selector string, id AssertionID, expected any, frames []string) error {
	var want int
	var err error
	if id == AssertCountMatch {
		if want, err = expectInt(id, expected); err != nil {
			return err
		}
	}

	loc, err := v.resolver.Locate(selector, frames)
	if err != nil {
		return err
	}
	if id == AssertTableDataExists || (id == AssertCountMatch && want > 0) {
		// Give the elements a chance to show up, the count decides the outcome
		if werr := waitState(loc, selector, frames, playwright.WaitForSelectorStateAttached, v.resolver.timeouts.Attach); werr != nil && !errors.Is(werr, ErrTimeout) {
			return werr
		}
	}

	count, err := loc.Count()
	if err != nil {
		return fmt.Errorf("webaction: counting %q: %w", selector, err)
	}

	switch id {
	case AssertNotExist:
		if count != 0 {
			return &AssertionError{Selector: selector, Assertion: id, Expected: 0, Actual: count}
		}
	case AssertTableDataExists:
		if count == 0 {
			return &AssertionError{Selector: selector, Assertion: id, Expected: "> 0", Actual: count}
		}
	case AssertCountMatch:
		if count != want {
			return &AssertionError{Selector: selector, Assertion: id, Expected: want, Actual: count}
		}
	}
	return nil
}

func (v *Verifier) verifyAttribute(selector string, id AssertionID, expected any, frames []string) error {
	var attr Attribute
	var err error
	switch id {
	case AssertPropertyCheck:
		attr, err = expectAttribute(id, expected)
	case AssertAttributeNotExist:
		attr, err = expectAttribute(id, expected)
		attr.Value = ""
	case AssertPlaceholderValue:
		attr.Name = "placeholder"
		attr.Value, err = expectString(id, expected)
	}
	if err != nil {
		return err
	}

	loc, err := v.resolver.Resolve(selector, frames)
	if err != nil {
		return err
	}
	value, present, err := readAttribute(loc, attr.Name)
	if err != nil {
		return fmt.Errorf("webaction: reading attribute %q of %q: %w", attr.Name, selector, err)
	}

	switch id {
	case AssertAttributeNotExist:
		if present {
			return &AssertionError{Selector: selector, Assertion: id, Expected: "no " + attr.Name, Actual: attr.Name + "=" + value}
		}
	case AssertPlaceholderValue:
		if !present || value != attr.Value {
			return &AssertionError{Selector: selector, Assertion: id, Expected: attr.Value, Actual: attributeActual(value, present)}
		}
	default:
		if !present || (attr.Value != "" && value != attr.Value) {
			return &AssertionError{Selector: selector, Assertion: id, Expected: attr, Actual: attributeActual(value, present)}
		}
	}
	return nil
}

func readAttribute(loc playwright.Locator, name string) (string, bool, error) {
	res, err := loc.Evaluate(jsAttribute, name)
	if err != nil {
		return "", false, err
	}
	if res == nil {
		return "", false, nil
	}
	value, ok := res.(string)
	if !ok {
		return fmt.Sprint(res), true, nil
	}
	return value, true, nil
}

func attributeActual(value string, present bool) any {
	if !present {
		return "<absent>"
	}
	return value
}

func (v *Verifier) verifyStyle(selector string, id AssertionID, expected any, frames []string) error {
	var css CSSValue
	var want string
	var re *regexp.Regexp
	var err error
	switch id {
	case AssertCSSValueCheck:
		css, err = expectCSSValue(id, expected)
	case AssertHaveClass:
		want, err = expectString(id, expected)
		want = strings.Join(strings.Fields(want), " ")
	case AssertHaveClassPattern:
		if want, err = expectString(id, expected); err == nil {
			if re, err = regexp.Compile(want); err != nil {
				err = fmt.Errorf("%w: %s pattern %q: %v", ErrInvalidExpected, id, want, err)
			}
		}
	}
	if err != nil {
		return err
	}

	loc, err := v.resolver.Resolve(selector, frames)
	if err != nil {
		return err
	}

	if id == AssertCSSValueCheck {
		res, err := loc.Evaluate(jsCSSValue, css.Property)
		if err != nil {
			return fmt.Errorf("webaction: reading css %q of %q: %w", css.Property, selector, err)
		}
		got := strings.TrimSpace(fmt.Sprint(res))
		if got != css.Value {
			return &AssertionError{Selector: selector, Assertion: id, Expected: css, Actual: got}
		}
		return nil
	}

	class, _, err := readAttribute(loc, "class")
	if err != nil {
		return fmt.Errorf("webaction: reading class of %q: %w", selector, err)
	}
	class = strings.Join(strings.Fields(class), " ")
	if (re != nil && !re.MatchString(class)) || (re == nil && class != want) {
		return &AssertionError{Selector: selector, Assertion: id, Expected: want, Actual: class}
	}
	return nil
}

// Displayed checks the element becomes visible
func (v *Verifier) Displayed(selector string, frames []string) error {
	return v.Verify(selector, AssertDisplayed, nil, frames)
}

// EqualText checks the trimmed text of the element equals text
func (v *Verifier) EqualText(selector, text string, frames []string) error {
	return v.Verify(selector, AssertEqualCheck, text, frames)
}

// Count checks the number of elements matching the selector
func (v *Verifier) Count(selector string, count int, frames []string) error {
	return v.Verify(selector, AssertCountMatch, count, frames)
}

func expectString(id AssertionID, expected any) (string, error) {
	switch val := expected.(type) {
	case string:
		return val, nil
	case int, int64, float64, bool:
		return fmt.Sprint(val), nil
	case fmt.Stringer:
		return val.String(), nil
	}
	return "", fmt.Errorf("%w: %s needs a string, got %T", ErrInvalidExpected, id, expected)
}

func expectInt(id AssertionID, expected any) (int, error) {
	switch val := expected.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float64:
		if val == float64(int(val)) {
			return int(val), nil
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: %s needs an integer, got %v (%T)", ErrInvalidExpected, id, expected, expected)
}

func expectAttribute(id AssertionID, expected any) (Attribute, error) {
	var attr Attribute
	switch val := expected.(type) {
	case Attribute:
		attr = val
	case *Attribute:
		if val != nil {
			attr = *val
		}
	case string:
		attr.Name, attr.Value, _ = strings.Cut(val, "=")
	case map[string]any:
		attr.Name, _ = val["name"].(string)
		if value, ok := val["value"]; ok && value != nil {
			attr.Value = fmt.Sprint(value)
		}
	case map[string]string:
		attr.Name, attr.Value = val["name"], val["value"]
	}
	attr.Name = strings.TrimSpace(attr.Name)
	if attr.Name == "" {
		return attr, fmt.Errorf("%w: %s needs an attribute name, got %v (%T)", ErrInvalidExpected, id, expected, expected)
	}
	return attr, nil
}

func expectCSSValue(id AssertionID, expected any) (CSSValue, error) {
	var css CSSValue
	switch val := expected.(type) {
	case CSSValue:
		css = val
	case *CSSValue:
		if val != nil {
			css = *val
		}
	case string:
		css.Property, css.Value, _ = strings.Cut(val, ":")
	case map[string]any:
		css.Property, _ = val["property"].(string)
		if value, ok := val["value"]; ok && value != nil {
			css.Value = fmt.Sprint(value)
		}
	case map[string]string:
		css.Property, css.Value = val["property"], val["value"]
	}
	css.Property = strings.TrimSpace(css.Property)
	css.Value = strings.TrimSpace(css.Value)
	if css.Property == "" {
		return css, fmt.Errorf("%w: %s needs a css property, got %v (%T)", ErrInvalidExpected, id, expected, expected)
	}
	return css, nil
}
