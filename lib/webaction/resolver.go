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
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/adobe/webpilot/lib/log"
)

// Timeouts bound every wait done by the resolver and the verifier
type Timeouts struct {
	Attach  time.Duration // Element or frame host is in the DOM
	Visible time.Duration // DISPLAYED
	Hidden  time.Duration // ISHIDDEN
	Absent  time.Duration // NOTDISPLAYED
}

// DefaultTimeouts returns the waits used when nothing else is configured
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Attach:  20 * time.Second,
		Visible: 20 * time.Second,
		Hidden:  100 * time.Second,
		Absent:  10 * time.Second,
	}
}

// Resolver turns a selector and a frame path into a locator
type Resolver struct {
	scope    Scope
	timeouts Timeouts
}

// ResolverOption changes the resolver defaults
type ResolverOption func(*Resolver)

// WithAttachTimeout sets how long Resolve waits for elements and frame hosts to attach
func WithAttachTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeouts.Attach = d
		}
	}
}

// WithTimeouts overrides the non-zero timeouts
func WithTimeouts(t Timeouts) ResolverOption {
	return func(r *Resolver) {
		if t.Attach > 0 {
			r.timeouts.Attach = t.Attach
		}
		if t.Visible > 0 {
			r.timeouts.Visible = t.Visible
		}
		if t.Hidden > 0 {
			r.timeouts.Hidden = t.Hidden
		}
		if t.Absent > 0 {
			r.timeouts.Absent = t.Absent
		}
	}
}

// NewResolver creates resolver over the top document scope
func NewResolver(scope Scope, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		scope:    scope,
		timeouts: DefaultTimeouts(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Timeouts returns the effective waits of the resolver
func (r *Resolver) Timeouts() Timeouts {
	return r.timeouts
}

// Frame walks the frame path from the outermost frame and returns the innermost scope.
// Every frame host element needs to be attached in its parent scope to descend into it.
func (r *Resolver) Frame(frames []string) (Scope, error) {
	scope := r.scope
	for i := 0; i < len(frames); i++ {
		host := scope.Locator(frames[i]).First()
		err := host.WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: playwright.Float(float64(r.timeouts.Attach.Milliseconds())),
		})
		if err != nil {
			log.WithFunc("webaction", "Frame").Debug("Frame host is not attached", "frame", frames[i], "level", i, "err", err)
			return nil, &FrameError{Frames: frames, Index: i, Err: err}
		}
		scope = scope.Frame(frames[i])
	}
	return scope, nil
}

// Locate returns the locator for selector inside the frame path without waiting for it
func (r *Resolver) Locate(selector string, frames []string) (playwright.Locator, error) {
	scope, err := r.Frame(frames)
	if err != nil {
		return nil, err
	}
	return scope.Locator(selector), nil
}

// Resolve returns the locator for selector inside the frame path once its first match is attached
func (r *Resolver) Resolve(selector string, frames []string) (playwright.Locator, error) {
	loc, err := r.Locate(selector, frames)
	if err != nil {
		return nil, err
	}
	if err := waitState(loc, selector, frames, playwright.WaitForSelectorStateAttached, r.timeouts.Attach); err != nil {
		return nil, err
	}
	return loc, nil
}

// waitState waits for the first match of the locator to reach the state
func waitState(loc playwright.Locator, selector string, frames []string, state *playwright.WaitForSelectorState, timeout time.Duration) error {
	err := loc.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   state,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return &TimeoutError{Selector: selector, Frames: frames, State: string(*state), Timeout: timeout, Err: err}
	}
	return fmt.Errorf("webaction: waiting for %q to be %s: %w", selector, *state, err)
}
