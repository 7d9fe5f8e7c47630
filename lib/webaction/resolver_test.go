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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_NestedFrames(t *testing.T) {
	page := newFakePage()
	outer := page.addFrame("#outer", "f1")
	inner := outer.addFrame("#inner", "f2")

	top := &fakeElement{text: "top"}
	mid := &fakeElement{text: "middle"}
	deep := &fakeElement{text: "deep"}
	page.add("#target", top)
	outer.add("#target", mid)
	inner.add("#target", deep)

	actions, verifier := newFakeDispatchers(page)

	frames := []string{"#outer", "#inner"}
	require.NoError(t, actions.Click("#target", frames))
	assert.Equal(t, 1, deep.clicks)
	assert.Zero(t, mid.clicks)
	assert.Zero(t, top.clicks)

	require.NoError(t, verifier.EqualText("#target", "middle", []string{"#outer"}))
	require.NoError(t, verifier.EqualText("#target", "top", nil))
	require.NoError(t, verifier.EqualText("#target", "top", []string{}))

	assert.Equal(t, []string{"#outer", "#inner"}, frames, "frame path must stay untouched")
}

func TestResolver_FrameOrderMatters(t *testing.T) {
	page := newFakePage()
	outer := page.addFrame("#outer", "f1")
	outer.addFrame("#inner", "f2").add("#target", &fakeElement{})

	r := NewResolver(page)
	_, err := r.Resolve("#target", []string{"#inner", "#outer"})
	require.ErrorIs(t, err, ErrFrameNotFound)

	var ferr *FrameError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, 0, ferr.Index)
	assert.Contains(t, err.Error(), "#inner")
}

func TestResolver_MissingNestedFrame(t *testing.T) {
	page := newFakePage()
	page.addFrame("#outer", "f1")

	_, err := NewResolver(page).Locate("#target", []string{"#outer", "#inner"})
	require.ErrorIs(t, err, ErrFrameNotFound)
	assert.NotErrorIs(t, err, ErrTimeout)

	var ferr *FrameError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, 1, ferr.Index)
}

func TestResolver_FrameScope(t *testing.T) {
	page := newFakePage()
	inner := page.addFrame("#outer", "f1").addFrame("#inner", "f2")

	scope, err := NewResolver(page).Frame([]string{"#outer", "#inner"})
	require.NoError(t, err)
	assert.Same(t, inner, scope)

	scope, err = NewResolver(page).Frame(nil)
	require.NoError(t, err)
	assert.Same(t, page, scope)
}

func TestResolver_ResolveWaitsForAttach(t *testing.T) {
	page := newFakePage()
	page.add("#late", &fakeElement{hidden: true})

	r := NewResolver(page, WithAttachTimeout(0))
	loc, err := r.Resolve("#late", nil)
	require.NoError(t, err, "hidden elements are attached")
	require.NotNil(t, loc)

	require.Len(t, *page.waits, 1)
	assert.Equal(t, DefaultTimeouts().Attach, (*page.waits)[0].timeout)

	_, err = r.Resolve("#never", nil)
	var terr *TimeoutError
	require.True(t, errors.As(err, &terr))
	assert.Nil(t, terr.Frames)
}
