/**
 * Copyright 2023-2026 Adobe. All rights reserved.
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

// Package log provides structured logging with OpenTelemetry integration for webpilot
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

type Level = slog.Level

const (
	LevelDebug Level = slog.LevelDebug
	LevelInfo  Level = slog.LevelInfo
	LevelWarn  Level = slog.LevelWarn
	LevelError Level = slog.LevelError
)

var levels = []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}

// Global logger instance
var (
	loggerMu sync.RWMutex
	logger   *slog.Logger

	otelHandler *otelslog.Handler
)

func init() {
	_ = Initialize(DefaultConfig())
}

// Config of the logging
type Config struct {
	Level        string `json:"level"`         // Log level (debug, info, warn, error)
	Format       string `json:"format"`        // Output format (console, json)
	UseTimestamp bool   `json:"use_timestamp"` // Include timestamp in logs
	OtelEnabled  bool   `json:"otel_enabled"`  // Send records to OpenTelemetry logs too

	// Where to write the logs, stdout if not set
	Output io.Writer `json:"-"`
}

// DefaultConfig returns default logging configuration
func DefaultConfig() *Config {
	return &Config{
		Level:        "info",
		Format:       "console",
		UseTimestamp: true,
	}
}

// parseLevel converts string level to slog.Level
func parseLevel(levelStr string) (Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown level")
	}
}

// Initialize sets up the global logger with the given configuration
func Initialize(config *Config) error {
	level, err := parseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}

	var output io.Writer = os.Stdout
	if config.Output != nil {
		output = config.Output
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch config.Format {
	case "console", "":
		consoleHandler := NewConsoleHandler(output, opts)
		consoleHandler.SetUseTimestamp(config.UseTimestamp)
		handler = consoleHandler
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		return fmt.Errorf("invalid log format %q", config.Format)
	}

	loggerMu.Lock()
	logger = slog.New(handler)
	otelHandler = nil
	loggerMu.Unlock()

	if config.OtelEnabled {
		if err := SetupOtelIntegration(); err != nil {
			return fmt.Errorf("unable to setup otel for logging: %w", err)
		}
	}

	return nil
}

// SetupOtelIntegration tees the log records into the global OpenTelemetry logger provider
// Called by monitoring when the logs exporter is ready
func SetupOtelIntegration() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if otelHandler != nil {
		return nil
	}
	otelHandler = otelslog.NewHandler("webpilot")
	logger = slog.New(&multiHandler{
		handlers: []slog.Handler{logger.Handler(), otelHandler},
	})
	return nil
}

// multiHandler combines multiple slog.Handler implementations
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var lastErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: newHandlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	newHandlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		newHandlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: newHandlers}
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// GetLevel returns the lowest enabled logging level
func GetLevel() Level {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	for _, lvl := range levels {
		if logger.Handler().Enabled(context.Background(), lvl) {
			return lvl
		}
	}
	return LevelError
}

// Logger returns the current global logger
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// WithFunc provides a way to identify package and function executed
// Empty values fall back to "unknown" to keep the log line parseable
func WithFunc(pack, fun string) *slog.Logger {
	if pack == "" {
		pack = "unknown"
	}
	if fun == "" {
		fun = "unknown"
	}
	return Logger().With("pack", pack, "func", fun)
}

// Debug logs on debug level with global logger
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs on info level with global logger
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs on warn level with global logger
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs on error level with global logger
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}
