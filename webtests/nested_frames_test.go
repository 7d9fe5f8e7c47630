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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/webpilot/lib/webaction"
	hp "github.com/adobe/webpilot/webtests/helper"
)

// Test_nested_frames makes sure the frame path is walked from the outermost frame
// WARNING: Needs playwright browsers installed
func Test_nested_frames(t *testing.T) {
	t.Parallel()

	site := hp.NewSite(t)
	wp := hp.NewPlaywright(t, t.TempDir())
	f := wp.Fixture(t, hp.URL(site, "/frames"), "", "")

	frames := []string{"#f1", "#f2"}

	wp.Run(t, f.Page, "click_inner_frame", func(t *testing.T) {
		_, err := f.Actions.Perform(webaction.ActionClick, "#hit", "", frames)
		require.NoError(t, err)

		assert.NoError(t, f.Verifier.Verify("#out", webaction.AssertEqualCheck, "inner clicked", frames))
		// Same selectors in the upper documents are left untouched
		assert.NoError(t, f.Verifier.Verify("#out", webaction.AssertEqualCheck, "outer", frames[:1]))
		assert.NoError(t, f.Verifier.Verify("#out", webaction.AssertEqualCheck, "", nil))
	})

	wp.Run(t, f.Page, "click_top_document", func(t *testing.T) {
		_, err := f.Actions.Perform(webaction.ActionClick, "#hit", "", nil)
		require.NoError(t, err)
		assert.NoError(t, f.Verifier.Verify("#out", webaction.AssertEqualCheck, "top", nil))
	})

	wp.Run(t, f.Page, "count_in_frame", func(t *testing.T) {
		assert.NoError(t, f.Verifier.Verify("#hit", webaction.AssertCountMatch, 1, frames))
		assert.NoError(t, f.Verifier.Verify("#f2", webaction.AssertCountMatch, 1, frames[:1]))
		assert.NoError(t, f.Verifier.Verify("#f2", webaction.AssertCountMatch, 0, nil))
	})

	wp.Run(t, f.Page, "missing_frame", func(t *testing.T) {
		_, err := f.Actions.Perform(webaction.ActionClick, "#hit", "", []string{"#f1", "#nope"})
		require.ErrorIs(t, err, webaction.ErrFrameNotFound)

		var ferr *webaction.FrameError
		require.True(t, errors.As(err, &ferr))
		assert.Equal(t, 1, ferr.Index)
	})

	wp.Run(t, f.Page, "first_of_several_frame_hosts", func(t *testing.T) {
		_, err := f.Page.Goto(hp.URL(site, "/twins"))
		require.NoError(t, err)

		twins := []string{"iframe.twin"}
		_, err = f.Actions.Perform(webaction.ActionClick, "#hit", "", twins)
		require.NoError(t, err)
		assert.NoError(t, f.Verifier.Verify("#out", webaction.AssertEqualCheck, "inner clicked", twins))
		assert.NoError(t, f.Verifier.Verify("#out", webaction.AssertEqualCheck, "", []string{"iframe.twin >> nth=1"}))
	})
}
