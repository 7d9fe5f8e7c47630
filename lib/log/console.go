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

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorGray   = "\033[90m"
	ColorRed    = "\033[91m"
	ColorYellow = "\033[93m"
	ColorBlue   = "\033[94m"
	ColorCyan   = "\033[96m"
	ColorWhite  = "\033[97m"
	ColorDim    = "\033[2m"
)

// Keys rendered as the "pack.func" location instead of key=value
const (
	keyPack = "pack"
	keyFunc = "func"
)

// ConsoleHandler renders records as a single human readable line:
//
//	[251016/134501+02] INF Step passed suite.Run test=Login step=3
type ConsoleHandler struct {
	opts   *slog.HandlerOptions
	writer io.Writer
	mu     *sync.Mutex

	useColor     bool
	useTimestamp bool
	isDebugLevel bool

	attrs  []slog.Attr
	groups []string
}

// NewConsoleHandler creates a new ConsoleHandler
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	return &ConsoleHandler{
		opts:         opts,
		writer:       w,
		mu:           &sync.Mutex{},
		useColor:     isTerminal(w),
		useTimestamp: true,
		isDebugLevel: opts.Level != nil && opts.Level.Level() <= slog.LevelDebug,
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// SetUseColor enables or disables color output
func (h *ConsoleHandler) SetUseColor(useColor bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.useColor = useColor
}

// SetUseTimestamp enables or disables the leading timestamp
func (h *ConsoleHandler) SetUseTimestamp(useTimestamp bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.useTimestamp = useTimestamp
}

// Enabled reports whether the handler handles records at the given level
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

// Handle handles the Record
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	if h.useTimestamp {
		layout := "060102/150405-07"
		if h.isDebugLevel {
			layout = "060102/150405.000-07"
		}
		buf.WriteString(h.colorize(ColorGray, "["+r.Time.Format(layout)+"]"))
		buf.WriteString(" ")
	}

	buf.WriteString(h.colorizeLevel(r.Level, formatLevel(r.Level)))
	buf.WriteString(" ")
	buf.WriteString(h.colorizeLevel(r.Level, r.Message))

	if pack, fun := h.location(r); pack != "" && fun != "" {
		buf.WriteString(" ")
		buf.WriteString(h.colorize(ColorDim, pack+"."+fun))
	}

	for _, attr := range h.attrs {
		h.appendAttr(&buf, "", attr)
	}
	prefix := h.groupPrefix()
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&buf, prefix, a)
		return true
	})

	buf.WriteString("\n")

	_, err := io.WriteString(h.writer, buf.String())
	return err
}

// location returns pack and func, record values override the handler ones
func (h *ConsoleHandler) location(r slog.Record) (pack, fun string) {
	pick := func(a slog.Attr) {
		switch a.Key {
		case keyPack:
			pack = a.Value.String()
		case keyFunc:
			fun = a.Value.String()
		}
	}
	for _, attr := range h.attrs {
		pick(attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		pick(a)
		return true
	})
	return pack, fun
}

// appendAttr writes " key=value", group attrs are flattened as "group.key=value"
func (h *ConsoleHandler) appendAttr(buf *strings.Builder, prefix string, attr slog.Attr) {
	if attr.Key == keyPack || attr.Key == keyFunc {
		return
	}
	if h.opts.ReplaceAttr != nil && attr.Value.Kind() != slog.KindGroup {
		attr = h.opts.ReplaceAttr(h.groups, attr)
		if attr.Key == "" {
			return
		}
	}

	if attr.Value.Kind() == slog.KindGroup {
		sub := prefix
		if attr.Key != "" {
			sub = prefix + attr.Key + "."
		}
		for _, a := range attr.Value.Group() {
			h.appendAttr(buf, sub, a)
		}
		return
	}

	buf.WriteString(" ")
	buf.WriteString(prefix)
	buf.WriteString(attr.Key)
	buf.WriteString("=")

	switch attr.Value.Kind() {
	case slog.KindString:
		s := attr.Value.String()
		if strings.ContainsAny(s, " \t\n\"") {
			s = fmt.Sprintf("%q", s)
		}
		buf.WriteString(s)
	case slog.KindTime:
		buf.WriteString(attr.Value.Time().Format(time.RFC3339))
	case slog.KindDuration:
		buf.WriteString(attr.Value.Duration().String())
	default:
		buf.WriteString(fmt.Sprintf("%v", attr.Value.Resolve().Any()))
	}
}

func (h *ConsoleHandler) groupPrefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

// formatLevel formats the log level as a 3-character string
func formatLevel(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "DBG"
	case level < slog.LevelWarn:
		return "INF"
	case level < slog.LevelError:
		return "WRN"
	default:
		return "ERR"
	}
}

func (h *ConsoleHandler) colorize(color, text string) string {
	if !h.useColor {
		return text
	}
	return color + text + ColorReset
}

func (h *ConsoleHandler) colorizeLevel(level slog.Level, text string) string {
	switch {
	case level < slog.LevelInfo:
		return h.colorize(ColorCyan, text)
	case level < slog.LevelWarn:
		return h.colorize(ColorBlue, text)
	case level < slog.LevelError:
		return h.colorize(ColorYellow, text)
	default:
		return h.colorize(ColorRed, text)
	}
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	return &ConsoleHandler{
		opts:         h.opts,
		writer:       h.writer,
		mu:           h.mu,
		useColor:     h.useColor,
		useTimestamp: h.useTimestamp,
		isDebugLevel: h.isDebugLevel,
		attrs:        h.attrs,
		groups:       h.groups,
	}
}

// WithAttrs returns a new ConsoleHandler with the given attributes
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	c.attrs = append([]slog.Attr{}, h.attrs...)
	prefix := h.groupPrefix()
	for _, a := range attrs {
		// Handler attrs are stored already qualified by the current groups
		if prefix != "" && a.Key != keyPack && a.Key != keyFunc {
			a = slog.Group(strings.TrimSuffix(prefix, "."), a)
		}
		c.attrs = append(c.attrs, a)
	}
	return c
}

// WithGroup returns a new ConsoleHandler with the given group
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.groups = append(append([]string{}, h.groups...), name)
	return c
}
