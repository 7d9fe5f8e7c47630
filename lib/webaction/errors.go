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
	"strings"
	"time"
)

var (
	// ErrInvalidAction is returned when the action identifier is not in the supported set
	ErrInvalidAction = errors.New("invalid action")
	// ErrInvalidAssertion is returned when the assertion identifier is not in the supported set
	ErrInvalidAssertion = errors.New("invalid assertion")
	// ErrMissingPayload is returned when the action requires a value and none was provided
	ErrMissingPayload = errors.New("missing payload")
	// ErrInvalidExpected is returned when the expected value can't be used by the assertion
	ErrInvalidExpected = errors.New("invalid expected value")
	// ErrTimeout matches any TimeoutError
	ErrTimeout = errors.New("element wait timed out")
	// ErrFrameNotFound matches any FrameError
	ErrFrameNotFound = errors.New("frame not found")
	// ErrAssertionFailed matches any AssertionError
	ErrAssertionFailed = errors.New("assertion failed")
)

// TimeoutError is returned when the element did not reach the awaited state in time
type TimeoutError struct {
	Selector string
	Frames   []string
	State    string
	Timeout  time.Duration

	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %q%s did not become %s in %s: %v",
		ErrTimeout, e.Selector, framesSuffix(e.Frames), e.State, e.Timeout, e.Err)
}

func (*TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// FrameError is returned when one of the frame path elements could not be resolved
type FrameError struct {
	Frames []string
	Index  int

	Err error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s: %q (level %d of %d): %v", ErrFrameNotFound, e.Frames[e.Index], e.Index+1, len(e.Frames), e.Err)
}

func (*FrameError) Is(target error) bool {
	return target == ErrFrameNotFound
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

// AssertionError describes a failed comparison, Err is set when the failure came from a wait
type AssertionError struct {
	Selector  string
	Assertion AssertionID
	Expected  any
	Actual    any

	Err error
}

func (e *AssertionError) Error() string {
	msg := fmt.Sprintf("%s: %s on %q: expected %v, got %v", ErrAssertionFailed, e.Assertion, e.Selector, e.Expected, e.Actual)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (*AssertionError) Is(target error) bool {
	return target == ErrAssertionFailed
}

func (e *AssertionError) Unwrap() error {
	return e.Err
}

func framesSuffix(frames []string) string {
	if len(frames) == 0 {
		return ""
	}
	return " in frames [" + strings.Join(frames, " > ") + "]"
}
