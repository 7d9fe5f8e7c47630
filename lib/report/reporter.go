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

package report

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
)

// Publisher delivers the run summary to one destination
type Publisher interface {
	Name() string
	Publish(ctx context.Context, sum *Summary) error
}

// Reporter publishes the summary to every configured destination
type Reporter struct {
	junit      string
	publishers []Publisher
	monitor    *monitoring.Monitor
}

// New creates the reporter of the config. formBrowser is only used by the browser form mode
// and could be nil when the form is disabled or posted over http.
func New(cfg *config.Config, formBrowser fixture.ContextFactory, monitor *monitoring.Monitor) (*Reporter, error) {
	r := &Reporter{
		junit:   cfg.Report.JUnit,
		monitor: monitor,
	}

	if cfg.Report.Teams.Enabled {
		r.Add(NewTeams(cfg.Report.Teams.WebhookURL, cfg.Report.Teams.Timeout.Std()))
	}
	if cfg.Report.Form.Enabled {
		switch cfg.Report.Form.Mode {
		case config.FormModeHTTP:
			r.Add(NewHTTPForm(cfg.Report.Form))
		default:
			if formBrowser == nil {
				return nil, fmt.Errorf("Report: Browser form mode needs a browser")
			}
			r.Add(NewBrowserForm(formBrowser, cfg))
		}
	}

	return r, nil
}

// Add one more destination
func (r *Reporter) Add(p Publisher) {
	r.publishers = append(r.publishers, p)
}

// Publishers returns the names of the configured destinations
func (r *Reporter) Publishers() []string {
	names := make([]string, 0, len(r.publishers))
	for _, p := range r.publishers {
		names = append(names, p.Name())
	}
	return names
}

// Publish writes the JUnit file and sends the summary everywhere, one failed destination
// does not prevent the others
func (r *Reporter) Publish(ctx context.Context, sum *Summary) error {
	logger := log.WithFunc("report", "Publish")
	logger.Info("Run finished", "run_id", sum.RunID, "total", sum.Total, "passed", sum.Passed,
		"failed", sum.Failed, "skipped", sum.Skipped, "time", sum.HumanDuration())

	var errs []error
	if r.junit != "" {
		errs = append(errs, r.publish(ctx, "junit", sum, func(context.Context, *Summary) error {
			return WriteJUnit(r.junit, sum)
		}))
	}
	for _, p := range r.publishers {
		errs = append(errs, r.publish(ctx, p.Name(), sum, p.Publish))
	}

	return errors.Join(errs...)
}

func (r *Reporter) publish(ctx context.Context, name string, sum *Summary, fn func(context.Context, *Summary) error) error {
	logger := log.WithFunc("report", "publish").With("target", name)

	ctx, span := r.monitor.StartSpan(ctx, "report."+name, oteltrace.WithAttributes(
		attribute.String("run_id", sum.RunID.String()),
	))
	defer span.End()

	start := time.Now()
	err := fn(ctx, sum)
	r.monitor.Metrics().RecordReport(ctx, name, err, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Unable to publish report", "err", err)
		return err
	}
	logger.Debug("Report published")
	return nil
}
