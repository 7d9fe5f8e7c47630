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

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pwFrameLocator interface{ playwright.FrameLocator }

// recordFrameLocator remembers the chain of frame selectors it was built from
type recordFrameLocator struct {
	pwFrameLocator

	path  string
	first bool
}

func (f *recordFrameLocator) First() playwright.FrameLocator {
	return &recordFrameLocator{path: f.path, first: true}
}

func (f *recordFrameLocator) FrameLocator(selector string) playwright.FrameLocator {
	return &recordFrameLocator{path: f.path + " > " + selector}
}

type framePage struct {
	playwright.Page
}

func (framePage) FrameLocator(selector string) playwright.FrameLocator {
	return &recordFrameLocator{path: selector}
}

func TestScope_FrameDescendsIntoFirstHost(t *testing.T) {
	outer := PageScope(framePage{}).Frame("iframe.widget")
	fl, ok := outer.(frameScope).frame.(*recordFrameLocator)
	require.True(t, ok)
	assert.Equal(t, "iframe.widget", fl.path)
	assert.True(t, fl.first, "several hosts could match the frame selector")

	inner := outer.Frame("#f2")
	fl, ok = inner.(frameScope).frame.(*recordFrameLocator)
	require.True(t, ok)
	assert.Equal(t, "iframe.widget > #f2", fl.path)
	assert.True(t, fl.first)
}
