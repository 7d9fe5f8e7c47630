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
	"strings"
)

// ActionID identifies one browser operation performed by Actions.Perform
type ActionID string

const (
	ActionClick               ActionID = "CLICK"
	ActionClickViaJS          ActionID = "CLICKVIAJS"
	ActionDoubleClick         ActionID = "DOUBLECLICK"
	ActionHover               ActionID = "HOVER"
	ActionSetText             ActionID = "SETTEXT"
	ActionClearText           ActionID = "CLEARTEXT"
	ActionCheck               ActionID = "CHECK"
	ActionUncheck             ActionID = "UNCHECK"
	ActionSetDropdown         ActionID = "SETDROPDOWN"
	ActionSetDropdownViaValue ActionID = "SETDROPDOWNVIAVALUE"
	ActionUploadFile          ActionID = "UPLOADFILE"
	ActionSetAttribute        ActionID = "SETATTRIBUTE"
	ActionGetText             ActionID = "GETTEXT"
	ActionReturnElement       ActionID = "RETURNELEMENT"
	ActionScrollIntoView      ActionID = "SCROLLINTOVIEW"
	ActionKeyPress            ActionID = "KEYPRESS"
	ActionFocus               ActionID = "FOCUS"
	ActionWaitElement         ActionID = "WAITELEMENT"
)

var actionIDs = []ActionID{
	ActionClick, ActionClickViaJS, ActionDoubleClick, ActionHover,
	ActionSetText, ActionClearText,
	ActionCheck, ActionUncheck,
	ActionSetDropdown, ActionSetDropdownViaValue,
	ActionUploadFile, ActionSetAttribute,
	ActionGetText, ActionReturnElement,
	ActionScrollIntoView, ActionKeyPress,
	ActionFocus, ActionWaitElement,
}

// Names used by older suites
var actionAliases = map[string]ActionID{
	"DROPDOWN":         ActionSetDropdown,
	"DROPDOWNVIAVALUE": ActionSetDropdownViaValue,
	"GETELEMENT":       ActionReturnElement,
}

// ActionIDs returns the supported action identifiers in display order
func ActionIDs() []ActionID {
	return append([]ActionID(nil), actionIDs...)
}

// ParseActionID returns the action for the name, case is ignored
func ParseActionID(name string) (ActionID, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	for _, id := range actionIDs {
		if string(id) == key {
			return id, nil
		}
	}
	if id, ok := actionAliases[key]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, name)
}

// NeedsPayload reports whether the action can't run without a value
func (id ActionID) NeedsPayload() bool {
	switch id {
	case ActionSetDropdown, ActionSetDropdownViaValue, ActionUploadFile, ActionSetAttribute, ActionKeyPress:
		return true
	}
	return false
}

// AssertionID identifies one check performed by Verifier.Verify
type AssertionID string

const (
	AssertEqualCheck        AssertionID = "EQUALCHECK"
	AssertContainText       AssertionID = "CONTAINTEXT"
	AssertTextStartsWith    AssertionID = "TEXTSTARTSWITH"
	AssertTextEndsWith      AssertionID = "TEXTENDSWITH"
	AssertDisplayed         AssertionID = "DISPLAYED"
	AssertNotDisplayed      AssertionID = "NOTDISPLAYED"
	AssertIsHidden          AssertionID = "ISHIDDEN"
	AssertEnabled           AssertionID = "ENABLED"
	AssertDisabled          AssertionID = "DISABLED"
	AssertNotExist          AssertionID = "NOTEXIST"
	AssertTableDataExists   AssertionID = "TABLEDATAEXISTS"
	AssertPropertyCheck     AssertionID = "PROPERTYCHECK"
	AssertAttributeNotExist AssertionID = "ATTRIBUTENOTEXIST"
	AssertPlaceholderValue  AssertionID = "PLACEHOLDERVALUE"
	AssertCSSValueCheck     AssertionID = "CSSVALUECHECK"
	AssertHaveClass         AssertionID = "VERIFYHAVECLASS"
	AssertHaveClassPattern  AssertionID = "VERIFYHAVECLASSPATTERN"
	AssertElementChecked    AssertionID = "VERIFYELEMENTCHECKED"
	AssertElementNotChecked AssertionID = "VERIFYELEMENTNOTCHECKED"
	AssertCountMatch        AssertionID = "COUNTMATCH"
)

var assertionIDs = []AssertionID{
	AssertEqualCheck, AssertContainText, AssertTextStartsWith, AssertTextEndsWith,
	AssertDisplayed, AssertNotDisplayed, AssertIsHidden,
	AssertEnabled, AssertDisabled,
	AssertNotExist, AssertTableDataExists,
	AssertPropertyCheck, AssertAttributeNotExist, AssertPlaceholderValue,
	AssertCSSValueCheck, AssertHaveClass, AssertHaveClassPattern,
	AssertElementChecked, AssertElementNotChecked,
	AssertCountMatch,
}

var assertionAliases = map[string]AssertionID{
	"HAVECLASS":        AssertHaveClass,
	"HAVECLASSPATTERN": AssertHaveClassPattern,
	"CHECKED":          AssertElementChecked,
}

// AssertionIDs returns the supported assertion identifiers in display order
func AssertionIDs() []AssertionID {
	return append([]AssertionID(nil), assertionIDs...)
}

// ParseAssertionID returns the assertion for the name, case is ignored
func ParseAssertionID(name string) (AssertionID, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	for _, id := range assertionIDs {
		if string(id) == key {
			return id, nil
		}
	}
	if id, ok := assertionAliases[key]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAssertion, name)
}
