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

// Package monitoring provides OpenTelemetry-based observability for webpilot runs
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	otellog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/adobe/webpilot/lib/build"
	"github.com/adobe/webpilot/lib/log"
	"github.com/adobe/webpilot/lib/util"
)

const serviceName = "webpilot"

// Config defines monitoring configuration
type Config struct {
	Enabled         bool          `json:"enabled"`          // Enable/disable monitoring
	OTLPEndpoint    string        `json:"otlp_endpoint"`    // OTLP gRPC endpoint for traces, metrics, logs
	PyroscopeURL    string        `json:"pyroscope_url"`    // Pyroscope URL for profiling
	ServiceName     string        `json:"service_name"`     // Service name for telemetry
	ServiceVersion  string        `json:"service_version"`  // Service version
	RunID           string        `json:"-"`                // Set for every run
	Environment     string        `json:"-"`                // Environment under test
	SampleRate      float64       `json:"sample_rate"`      // Trace sampling rate (0.0 to 1.0)
	MetricsInterval util.Duration `json:"metrics_interval"` // Metrics export & host collection interval
	EnableProfiling bool          `json:"enable_profiling"` // Enable profiling
	EnableTracing   bool          `json:"enable_tracing"`   // Enable tracing
	EnableMetrics   bool          `json:"enable_metrics"`   // Enable metrics
	EnableLogs      bool          `json:"enable_logs"`      // Enable logs
}

// DefaultConfig returns default monitoring configuration
func DefaultConfig() *Config {
	return &Config{
		Enabled:         false,
		OTLPEndpoint:    "localhost:4317",
		PyroscopeURL:    "http://localhost:4040",
		ServiceName:     serviceName,
		ServiceVersion:  build.Version,
		SampleRate:      1.0,
		MetricsInterval: util.Duration(15 * time.Second),
		EnableProfiling: false,
		EnableTracing:   true,
		EnableMetrics:   true,
		EnableLogs:      true,
	}
}

// Monitor represents the monitoring system, zero or disabled monitor does nothing
type Monitor struct {
	config    *Config
	conn      *grpc.ClientConn
	tracer    oteltrace.Tracer
	meter     otelmetric.Meter
	metrics   *Metrics
	pyroscope *pyroscope.Profiler

	shutdownFuncs []func(context.Context) error
}

// Initialize sets up OpenTelemetry monitoring
func Initialize(ctx context.Context, config *Config) (*Monitor, error) {
	logger := log.WithFunc("monitoring", "Initialize")
	if config == nil || !config.Enabled {
		logger.Debug("Monitoring: Disabled")
		return &Monitor{config: config}, nil
	}

	logger.Info("Monitoring: Initializing OpenTelemetry...", "endpoint", config.OTLPEndpoint)

	m := &Monitor{config: config}

	res, err := m.createResource()
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if config.EnableTracing || config.EnableMetrics || config.EnableLogs {
		// One connection serves all the exporters
		m.conn, err = grpc.NewClient(config.OTLPEndpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
		}
		m.shutdownFuncs = append(m.shutdownFuncs, func(context.Context) error {
			return m.conn.Close()
		})
	}

	if config.EnableTracing {
		if err := m.initTracing(ctx, res); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to initialize tracing: %w", err), m.Shutdown(ctx))
		}
		logger.Debug("Monitoring: Tracing initialized")
	}

	if config.EnableMetrics {
		if err := m.initMetrics(ctx, res); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to initialize metrics: %w", err), m.Shutdown(ctx))
		}
		logger.Debug("Monitoring: Metrics initialized")
	}

	if config.EnableLogs {
		if err := m.initLogging(ctx, res); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to initialize logging: %w", err), m.Shutdown(ctx))
		}
		logger.Debug("Monitoring: Logging initialized")
	}

	if config.EnableProfiling {
		if err := m.initProfiling(); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to initialize profiling: %w", err), m.Shutdown(ctx))
		}
		logger.Debug("Monitoring: Profiling initialized")
	}

	logger.Info("Monitoring: OpenTelemetry initialization complete")
	return m, nil
}

func (m *Monitor) createResource() (*resource.Resource, error) {
	return resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(m.config.ServiceName),
		semconv.ServiceVersion(m.config.ServiceVersion),
		attribute.String("webpilot.run_id", m.config.RunID),
		attribute.String("webpilot.environment", m.config.Environment),
	))
}

func (m *Monitor) initTracing(ctx context.Context, res *resource.Resource) error {
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(m.conn))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tracerProvider := trace.NewTracerProvider(
		trace.WithBatcher(traceExporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(m.config.SampleRate)),
	)

	// Profiles get labeled with the span IDs when pyroscope is on
	var provider oteltrace.TracerProvider = tracerProvider
	if m.config.EnableProfiling {
		provider = otelpyroscope.NewTracerProvider(tracerProvider)
	}
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	m.tracer = provider.Tracer(m.config.ServiceName)
	m.shutdownFuncs = append(m.shutdownFuncs, tracerProvider.Shutdown)

	return nil
}

func (m *Monitor) initMetrics(ctx context.Context, res *resource.Resource) error {
	metricExporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(m.conn))
	if err != nil {
		return fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metricExporter,
			metric.WithInterval(m.config.MetricsInterval.Std()))),
	)

	otel.SetMeterProvider(meterProvider)
	m.meter = meterProvider.Meter(m.config.ServiceName)
	m.shutdownFuncs = append(m.shutdownFuncs, meterProvider.Shutdown)

	if m.metrics, err = NewMetrics(m.meter); err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	m.metrics.StartCollection(ctx, m.config.MetricsInterval.Std())
	m.shutdownFuncs = append(m.shutdownFuncs, func(context.Context) error {
		m.metrics.StopCollection()
		return nil
	})

	return nil
}

func (m *Monitor) initLogging(ctx context.Context, res *resource.Resource) error {
	logExporter, err := otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(m.conn))
	if err != nil {
		return fmt.Errorf("failed to create log exporter: %w", err)
	}

	loggerProvider := otellog.NewLoggerProvider(
		otellog.WithProcessor(otellog.NewBatchProcessor(logExporter)),
		otellog.WithResource(res),
	)

	global.SetLoggerProvider(loggerProvider)
	m.shutdownFuncs = append(m.shutdownFuncs, loggerProvider.Shutdown)

	return log.SetupOtelIntegration()
}

func (m *Monitor) initProfiling() error {
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: m.config.ServiceName,
		ServerAddress:   m.config.PyroscopeURL,
		Tags: map[string]string{
			"run_id":      m.config.RunID,
			"environment": m.config.Environment,
			"version":     m.config.ServiceVersion,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start pyroscope: %w", err)
	}

	m.pyroscope = profiler
	m.shutdownFuncs = append(m.shutdownFuncs, func(context.Context) error {
		return profiler.Stop()
	})

	return nil
}

// Metrics returns the run metrics, nil when metrics are disabled
func (m *Monitor) Metrics() *Metrics {
	if m == nil {
		return nil
	}
	return m.metrics
}

// StartSpan starts a new span with the given name, noop span when tracing is disabled
func (m *Monitor) StartSpan(ctx context.Context, name string, opts ...oteltrace.SpanStartOption) (context.Context, oteltrace.Span) {
	if m == nil || m.tracer == nil {
		return ctx, oteltrace.SpanFromContext(ctx)
	}
	return m.tracer.Start(ctx, name, opts...)
}

// IsEnabled returns whether monitoring is enabled
func (m *Monitor) IsEnabled() bool {
	return m != nil && m.config != nil && m.config.Enabled
}

// Shutdown flushes and stops the exporters in reverse order of creation
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m == nil || len(m.shutdownFuncs) == 0 {
		return nil
	}
	logger := log.WithFunc("monitoring", "Shutdown")
	logger.Debug("Monitoring: Shutting down...")

	var errs []error
	for i := len(m.shutdownFuncs) - 1; i >= 0; i-- {
		if err := m.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	m.shutdownFuncs = nil

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	logger.Debug("Monitoring: Shutdown complete")
	return nil
}
