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

// Package suite loads the YAML test suites and runs them step by step through the dispatchers
package suite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adobe/webpilot/lib/webaction"
)

// Suite is a named list of test cases
type Suite struct {
	Name  string `yaml:"name"`
	Login bool   `yaml:"login,omitempty"` // Default of the test cases
	Tests []Test `yaml:"tests"`
}

// Test is one case executed in a fresh browser context
type Test struct {
	Name  string `yaml:"name"`
	Login *bool  `yaml:"login,omitempty"`
	Skip  bool   `yaml:"skip,omitempty"`
	Steps []Step `yaml:"steps"`
}

// NeedsLogin reports whether the login precondition runs before the steps
func (t *Test) NeedsLogin(s *Suite) bool {
	if t.Login != nil {
		return *t.Login
	}
	return s.Login
}

// Step is either an action or a verification
type Step struct {
	Action   string   `yaml:"action,omitempty"`
	Verify   string   `yaml:"verify,omitempty"`
	Selector string   `yaml:"selector"`
	Value    string   `yaml:"value,omitempty"`
	Expected any      `yaml:"expected,omitempty"`
	Frames   []string `yaml:"frames,omitempty"`
}

// Kind is "action" or "verify"
func (s *Step) Kind() string {
	if s.Action != "" {
		return "action"
	}
	return "verify"
}

// ID is the symbolic identifier of the step
func (s *Step) ID() string {
	if s.Action != "" {
		return s.Action
	}
	return s.Verify
}

func (s *Step) String() string {
	out := fmt.Sprintf("%s %s %q", s.Kind(), s.ID(), s.Selector)
	if len(s.Frames) > 0 {
		out += " in " + strings.Join(s.Frames, " > ")
	}
	return out
}

// Run performs the step through the dispatchers
func (s *Step) Run(actions *webaction.Actions, verifier *webaction.Verifier) (webaction.Result, error) {
	if s.Action != "" {
		id, err := webaction.ParseActionID(s.Action)
		if err != nil {
			return webaction.Result{}, err
		}
		return actions.Perform(id, s.Selector, s.Value, s.Frames)
	}
	id, err := webaction.ParseAssertionID(s.Verify)
	if err != nil {
		return webaction.Result{}, err
	}
	return webaction.Result{}, verifier.Verify(s.Selector, id, s.Expected, s.Frames)
}

// Validate checks the suite before anything is started
func (s *Suite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("Suite: name is required")
	}
	if len(s.Tests) == 0 {
		return fmt.Errorf("Suite %q: no tests", s.Name)
	}

	var errs []error
	seen := make(map[string]bool, len(s.Tests))
	for i, t := range s.Tests {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("test #%d: name is required", i))
			continue
		}
		if seen[t.Name] {
			errs = append(errs, fmt.Errorf("test %q: duplicated name", t.Name))
		}
		seen[t.Name] = true

		for j, step := range t.Steps {
			if err := step.validate(); err != nil {
				errs = append(errs, fmt.Errorf("test %q step #%d: %w", t.Name, j, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("Suite %q: %w", s.Name, errors.Join(errs...))
	}
	return nil
}

func (s *Step) validate() error {
	switch {
	case s.Action != "" && s.Verify != "":
		return fmt.Errorf("action and verify are exclusive")
	case s.Action == "" && s.Verify == "":
		return fmt.Errorf("action or verify is required")
	case s.Selector == "":
		return fmt.Errorf("selector is required")
	}
	if s.Action != "" {
		id, err := webaction.ParseActionID(s.Action)
		if err != nil {
			return err
		}
		if id.NeedsPayload() && s.Value == "" {
			return fmt.Errorf("%w: %s needs a value", webaction.ErrMissingPayload, id)
		}
		return nil
	}
	_, err := webaction.ParseAssertionID(s.Verify)
	return err
}

// Parse decodes and validates a suite, unknown keys are errors
func Parse(r io.Reader) (*Suite, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Suite
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("Suite: empty document")
		}
		return nil, fmt.Errorf("Suite: Unable to parse: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads the suite file
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Suite: Unable to read %s: %w", path, err)
	}
	s, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
