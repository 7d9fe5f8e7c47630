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

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestInitialize_Levels(t *testing.T) {
	defer Initialize(DefaultConfig())

	var buf bytes.Buffer
	if err := Initialize(&Config{Level: "warn", Format: "console", Output: &buf}); err != nil {
		t.Fatalf("ERROR: Unable to initialize logging: %v", err)
	}
	if GetLevel() != LevelWarn {
		t.Fatalf("ERROR: Expected warn level, got: %v", GetLevel())
	}

	Info("hidden message")
	Warn("visible message")
	if strings.Contains(buf.String(), "hidden message") {
		t.Fatalf("ERROR: Info should be filtered out: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "WRN visible message") {
		t.Fatalf("ERROR: Expected warn record, got: %s", buf.String())
	}
}

func TestInitialize_Invalid(t *testing.T) {
	defer Initialize(DefaultConfig())

	if err := Initialize(&Config{Level: "loud"}); err == nil {
		t.Fatalf("ERROR: Expected error for unknown level")
	}
	if err := Initialize(&Config{Level: "info", Format: "xml"}); err == nil {
		t.Fatalf("ERROR: Expected error for unknown format")
	}
}

func TestWithFunc_JSON(t *testing.T) {
	defer Initialize(DefaultConfig())

	var buf bytes.Buffer
	if err := Initialize(&Config{Level: "debug", Format: "json", Output: &buf}); err != nil {
		t.Fatalf("ERROR: Unable to initialize logging: %v", err)
	}

	WithFunc("report", "").Debug("Posting", "url", "http://localhost")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("ERROR: Unable to parse json record %q: %v", buf.String(), err)
	}
	if rec["pack"] != "report" || rec["func"] != "unknown" {
		t.Fatalf("ERROR: Unexpected location in record: %v", rec)
	}
	if rec["msg"] != "Posting" {
		t.Fatalf("ERROR: Unexpected message in record: %v", rec)
	}
}
