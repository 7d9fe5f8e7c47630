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

package suite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/adobe/webpilot/lib/config"
	"github.com/adobe/webpilot/lib/fixture"
	"github.com/adobe/webpilot/lib/log"
	"github.com/adobe/webpilot/lib/monitoring"
	"github.com/adobe/webpilot/lib/report"
	"github.com/adobe/webpilot/lib/screenshot"
)

// Runner executes the suites one test at a time
type Runner struct {
	cfg     *config.Config
	factory fixture.ContextFactory
	monitor *monitoring.Monitor
	stats   *report.Stats
}

// NewRunner records every finished test into stats, monitor could be nil
func NewRunner(cfg *config.Config, factory fixture.ContextFactory, monitor *monitoring.Monitor, stats *report.Stats) *Runner {
	return &Runner{
		cfg:     cfg,
		factory: factory,
		monitor: monitor,
		stats:   stats,
	}
}

// Run executes the tests of the suite in order. Cancelling ctx stops the run after the
// current step, the interrupted test is recorded as failed and the rest is not executed.
func (r *Runner) Run(ctx context.Context, s *Suite) error {
	logger := log.WithFunc("suite", "Run").With("suite", s.Name)
	logger.Info("Starting the run", "tests", len(s.Tests))

	ctx, span := r.monitor.StartSpan(ctx, "suite.run", oteltrace.WithAttributes(
		attribute.String("suite", s.Name),
		attribute.String("run_id", r.stats.RunID().String()),
	))
	defer span.End()

	for i := range s.Tests {
		if err := ctx.Err(); err != nil {
			logger.Warn("Run interrupted", "remaining", len(s.Tests)-i)
			return err
		}
		res := r.runTest(ctx, s, &s.Tests[i])
		r.stats.Record(res)
		r.monitor.Metrics().RecordTest(ctx, s.Name, string(res.Status), res.Duration)
	}
	return ctx.Err()
}

func (r *Runner) runTest(ctx context.Context, s *Suite, t *Test) report.TestResult {
	logger := log.WithFunc("suite", "runTest").With("test", t.Name)
	res := report.TestResult{Name: t.Name, Suite: s.Name}

	if t.Skip {
		logger.Info("Skipping test")
		res.Status = report.StatusSkipped
		return res
	}

	ctx, span := r.monitor.StartSpan(ctx, "suite.test", oteltrace.WithAttributes(attribute.String("test", t.Name)))
	defer span.End()

	start := time.Now()
	logger.Info("Starting test")
	err := r.execute(ctx, s, t)
	res.Duration = time.Since(start)

	switch {
	case err == nil:
		res.Status = report.StatusPassed
	case errors.Is(err, context.DeadlineExceeded):
		res.Status = report.StatusTimedOut
	default:
		res.Status = report.StatusFailed
	}
	if err != nil {
		res.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Test failed", "status", res.Status, "err", err)
	} else {
		logger.Info("Test passed", "duration", res.Duration)
	}
	span.SetAttributes(attribute.String("status", string(res.Status)))

	return res
}

// execute runs the test in its own fixture, the teardown is done whatever the outcome
func (r *Runner) execute(ctx context.Context, s *Suite, t *Test) (err error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeouts.Test.Std())
	defer cancel()

	f, err := fixture.New(r.factory, r.cfg)
	if err != nil {
		return err
	}
	defer func() {
		paths, terr := f.Teardown(t.Name, err == nil)
		for range paths {
			r.monitor.Metrics().RecordScreenshot(ctx, screenshot.Status(err == nil))
		}
		if terr != nil {
			log.WithFunc("suite", "execute").Warn("Teardown was not clean", "test", t.Name, "err", terr)
		}
	}()

	if err = f.Open(); err != nil {
		return err
	}
	if t.NeedsLogin(s) {
		if err = f.Login(); err != nil {
			return err
		}
	}

	for i := range t.Steps {
		if err = ctx.Err(); err != nil {
			return fmt.Errorf("Suite: Stopped before step #%d: %w", i, err)
		}
		if err = r.step(ctx, i, &t.Steps[i], f); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) step(ctx context.Context, i int, step *Step, f *fixture.Fixture) error {
	logger := log.WithFunc("suite", "step")

	_, span := r.monitor.StartSpan(ctx, "suite.step", oteltrace.WithAttributes(
		attribute.String("kind", step.Kind()),
		attribute.String("id", step.ID()),
		attribute.String("selector", step.Selector),
	))
	defer span.End()

	start := time.Now()
	res, err := step.Run(f.Actions, f.Verifier)
	r.monitor.Metrics().RecordStep(ctx, step.Kind(), step.ID(), err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("step #%d %s: %w", i, step, err)
	}

	if res.Text != "" {
		logger.Info("Text read", "step", i, "selector", step.Selector, "text", res.Text)
	} else {
		logger.Debug("Step done", "step", i, "name", step.String())
	}
	return nil
}
