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

// Package report accumulates the run statistics and publishes them to Teams, SharePoint and JUnit
package report

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adobe/webpilot/lib/util"
)

// Status of a finished test
type Status string

const (
	StatusPassed   Status = "passed"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timedOut"
	StatusSkipped  Status = "skipped"
)

// Failed reports whether the status counts as a failure
func (s Status) Failed() bool {
	return s == StatusFailed || s == StatusTimedOut
}

// ParseStatus converts the runner status words, unknown ones are failures
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "passed", "pass", "ok":
		return StatusPassed
	case "skipped", "skip":
		return StatusSkipped
	case "timedout", "timeout":
		return StatusTimedOut
	}
	return StatusFailed
}

// TestResult is one finished test
type TestResult struct {
	Name     string        `json:"name"`
	Suite    string        `json:"suite,omitempty"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Summary is the immutable outcome of a run
type Summary struct {
	RunID       uuid.UUID     `json:"run_id"`
	Project     string        `json:"project"`
	Suite       string        `json:"suite"`
	Environment string        `json:"environment"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration"`

	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`

	Tests []TestResult `json:"tests"`
}

// AllPassed is true when no test failed
func (s *Summary) AllPassed() bool {
	return s.Failed == 0
}

// PassPercentage is passed / (passed + failed) * 100, skipped tests are not part of it
func (s *Summary) PassPercentage() float64 {
	executed := s.Passed + s.Failed
	if executed == 0 {
		return 0
	}
	return float64(s.Passed) / float64(executed) * 100
}

// HumanDuration of the run as H:MM:SS
func (s *Summary) HumanDuration() string {
	return util.HumanDuration(s.Duration)
}

// Stats accumulates the results of one run, Finish closes it
type Stats struct {
	mu sync.Mutex

	runID   uuid.UUID
	project string
	suite   string
	env     string
	started time.Time
	ended   time.Time
	results []TestResult

	finished *Summary
	now      func() time.Time
}

// NewStats starts the accumulator of a run
func NewStats(project, suite, env string) *Stats {
	s := &Stats{
		runID:   uuid.New(),
		project: project,
		suite:   suite,
		env:     env,
		now:     time.Now,
	}
	s.started = s.now()
	return s
}

// RunID identifies the run in the reports and the telemetry
func (s *Stats) RunID() uuid.UUID {
	return s.runID
}

// SetWindow overrides the run boundaries, used when the results come from another runner
func (s *Stats) SetWindow(started, ended time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished != nil || started.IsZero() || ended.Before(started) {
		return
	}
	s.started, s.ended = started, ended
}

// Record one finished test, results after Finish are ignored
func (s *Stats) Record(res TestResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished != nil {
		return
	}
	if res.Suite == "" {
		res.Suite = s.suite
	}
	s.results = append(s.results, res)
}

// Finish closes the run and returns its summary, next calls return the same summary
func (s *Stats) Finish() *Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished != nil {
		return s.finished
	}

	ended := s.ended
	if ended.IsZero() {
		ended = s.now()
	}
	sum := &Summary{
		RunID:       s.runID,
		Project:     s.project,
		Suite:       s.suite,
		Environment: s.env,
		Started:     s.started,
		Duration:    ended.Sub(s.started),
		Total:       len(s.results),
		Tests:       slices.Clone(s.results),
	}
	for _, res := range s.results {
		switch {
		case res.Status == StatusSkipped:
			sum.Skipped++
		case res.Status.Failed():
			sum.Failed++
		default:
			sum.Passed++
		}
	}
	s.finished = sum
	return sum
}
