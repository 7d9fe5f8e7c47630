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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionID(t *testing.T) {
	cases := map[string]ActionID{
		"CLICK":            ActionClick,
		"click":            ActionClick,
		" setText ":        ActionSetText,
		"doubleclick":      ActionDoubleClick,
		"dropDown":         ActionSetDropdown,
		"dropDownViaValue": ActionSetDropdownViaValue,
		"getElement":       ActionReturnElement,
		"waitElement":      ActionWaitElement,
	}
	for name, want := range cases {
		got, err := ParseActionID(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseActionID("frameClick")
	require.ErrorIs(t, err, ErrInvalidAction)
}

func TestParseAssertionID(t *testing.T) {
	cases := map[string]AssertionID{
		"EQUALCHECK":       AssertEqualCheck,
		"containText":      AssertContainText,
		"haveClass":        AssertHaveClass,
		"haveClassPattern": AssertHaveClassPattern,
		"checked":          AssertElementChecked,
		"countMatch":       AssertCountMatch,
	}
	for name, want := range cases {
		got, err := ParseAssertionID(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseAssertionID("isselected")
	require.ErrorIs(t, err, ErrInvalidAssertion)
}

func TestIDLists(t *testing.T) {
	assert.Len(t, ActionIDs(), 18)
	assert.Len(t, AssertionIDs(), 20)

	// Callers can't change the dispatch set through the returned slice
	ids := ActionIDs()
	ids[0] = "BROKEN"
	assert.Equal(t, ActionClick, ActionIDs()[0])

	for _, id := range ActionIDs() {
		parsed, err := ParseActionID(string(id))
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}
