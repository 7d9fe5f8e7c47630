/**
 * Copyright 2025-2026 Adobe. All rights reserved.
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

package monitoring

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/adobe/webpilot/lib/log"
)

// Metrics holds the instruments of a webpilot run, nil Metrics records nothing
type Metrics struct {
	// Run metrics
	tests         metric.Int64Counter
	testDuration  metric.Float64Histogram
	steps         metric.Int64Counter
	stepDuration  metric.Float64Histogram
	screenshots   metric.Int64Counter
	reports       metric.Int64Counter
	reportLatency metric.Float64Histogram

	// Host metrics, the browser shares the machine with the harness
	cpuUsage    metric.Float64Gauge
	memoryUsage metric.Float64Gauge
	goroutines  metric.Int64Gauge
	heapAlloc   metric.Int64Gauge

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMetrics creates the instruments on the meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{stopCh: make(chan struct{})}

	var err error
	if m.tests, err = meter.Int64Counter("webpilot_tests_total",
		metric.WithDescription("Finished tests by status")); err != nil {
		return nil, fmt.Errorf("failed to create tests metric: %w", err)
	}
	if m.testDuration, err = meter.Float64Histogram("webpilot_test_duration_seconds",
		metric.WithDescription("Test duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create test_duration metric: %w", err)
	}
	if m.steps, err = meter.Int64Counter("webpilot_steps_total",
		metric.WithDescription("Executed actions and verifications by outcome")); err != nil {
		return nil, fmt.Errorf("failed to create steps metric: %w", err)
	}
	if m.stepDuration, err = meter.Float64Histogram("webpilot_step_duration_seconds",
		metric.WithDescription("Action or verification duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create step_duration metric: %w", err)
	}
	if m.screenshots, err = meter.Int64Counter("webpilot_screenshots_total",
		metric.WithDescription("Stored teardown screenshots")); err != nil {
		return nil, fmt.Errorf("failed to create screenshots metric: %w", err)
	}
	if m.reports, err = meter.Int64Counter("webpilot_report_submissions_total",
		metric.WithDescription("Report submissions by target and outcome")); err != nil {
		return nil, fmt.Errorf("failed to create report_submissions metric: %w", err)
	}
	if m.reportLatency, err = meter.Float64Histogram("webpilot_report_submission_seconds",
		metric.WithDescription("Report submission duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create report_submission metric: %w", err)
	}

	if m.cpuUsage, err = meter.Float64Gauge("webpilot_host_cpu_usage_percent"); err != nil {
		return nil, fmt.Errorf("failed to create cpu_usage metric: %w", err)
	}
	if m.memoryUsage, err = meter.Float64Gauge("webpilot_host_memory_usage_percent"); err != nil {
		return nil, fmt.Errorf("failed to create memory_usage metric: %w", err)
	}
	if m.goroutines, err = meter.Int64Gauge("webpilot_go_goroutines"); err != nil {
		return nil, fmt.Errorf("failed to create goroutines metric: %w", err)
	}
	if m.heapAlloc, err = meter.Int64Gauge("webpilot_go_heap_alloc_bytes"); err != nil {
		return nil, fmt.Errorf("failed to create heap_alloc metric: %w", err)
	}

	return m, nil
}

// StartCollection starts periodic host metrics collection
func (m *Metrics) StartCollection(ctx context.Context, interval time.Duration) {
	if m == nil || interval <= 0 {
		return
	}
	m.wg.Add(1)
	go m.collectLoop(ctx, interval)
}

// StopCollection stops host metrics collection and waits for the loop to exit
func (m *Metrics) StopCollection() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

func (m *Metrics) collectLoop(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.CollectHostMetrics(ctx)
		}
	}
}

// CollectHostMetrics records cpu, memory and go runtime usage once
func (m *Metrics) CollectHostMetrics(ctx context.Context) {
	if m == nil {
		return
	}
	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		m.cpuUsage.Record(ctx, cpuPercent[0])
	} else if err != nil {
		log.WithFunc("monitoring", "CollectHostMetrics").Debug("Unable to read cpu usage", "err", err)
	}
	if memInfo, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		m.memoryUsage.Record(ctx, memInfo.UsedPercent)
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	m.goroutines.Record(ctx, int64(runtime.NumGoroutine()))
	m.heapAlloc.Record(ctx, int64(stats.HeapAlloc))
}

// RecordTest records a finished test
func (m *Metrics) RecordTest(ctx context.Context, suite, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("suite", suite),
		attribute.String("status", status),
	)
	m.tests.Add(ctx, 1, attrs)
	m.testDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStep records an action or a verification, kind is "action" or "verify"
func (m *Metrics) RecordStep(ctx context.Context, kind, id string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("id", id),
		attribute.String("outcome", outcome),
	)
	m.steps.Add(ctx, 1, attrs)
	m.stepDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordScreenshot records a stored screenshot
func (m *Metrics) RecordScreenshot(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.screenshots.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordReport records a report submission to teams, form or junit
func (m *Metrics) RecordReport(ctx context.Context, target string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("target", target),
		attribute.String("outcome", outcome),
	)
	m.reports.Add(ctx, 1, attrs)
	m.reportLatency.Record(ctx, duration.Seconds(), attrs)
}
