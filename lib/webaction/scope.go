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

// Package webaction maps symbolic action and assertion identifiers to playwright operations
// on elements addressed by a selector and an optional path of nested frames
package webaction

import (
	"github.com/playwright-community/playwright-go"
)

// Scope is a document where selectors are evaluated: the page itself or a frame inside it
type Scope interface {
	// Locator returns a lazy locator for the selector inside the scope
	Locator(selector string) playwright.Locator
	// Frame returns the scope of the frame hosted by the first element matching selector
	Frame(selector string) Scope
}

type pageScope struct {
	page playwright.Page
}

// PageScope returns the top document scope of the page
func PageScope(page playwright.Page) Scope {
	return pageScope{page: page}
}

func (s pageScope) Locator(selector string) playwright.Locator {
	return s.page.Locator(selector)
}

func (s pageScope) Frame(selector string) Scope {
	return frameScope{frame: s.page.FrameLocator(selector).First()}
}

type frameScope struct {
	frame playwright.FrameLocator
}

// FrameScope wraps an already built frame locator
func FrameScope(frame playwright.FrameLocator) Scope {
	return frameScope{frame: frame}
}

func (s frameScope) Locator(selector string) playwright.Locator {
	return s.frame.Locator(selector)
}

func (s frameScope) Frame(selector string) Scope {
	return frameScope{frame: s.frame.FrameLocator(selector).First()}
}
