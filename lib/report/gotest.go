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
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/adobe/webpilot/lib/log"
)

// Lines of test output kept as the failure message
const maxFailureLines = 20

type goTestEntry struct {
	pkg     string
	name    string
	status  Status
	done    bool
	elapsed time.Duration
	output  []string
}

// ReadGoTest feeds the `go test -json` event stream into stats and returns the number of
// recorded tests. Only the leaf tests are recorded, a parent finishes with its subtests.
// Tests still running when their package failed are recorded as timed out.
func ReadGoTest(r io.Reader, stats *Stats) (int, error) {
	logger := log.WithFunc("report", "ReadGoTest")

	var order []string
	entries := make(map[string]*goTestEntry)
	failedPkgs := make(map[string]bool)
	var first, last time.Time

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !gjson.ValidBytes(line) {
			continue
		}
		ev := gjson.ParseBytes(line)
		if ts := ev.Get("Time"); ts.Exists() {
			at := ts.Time()
			if first.IsZero() || at.Before(first) {
				first = at
			}
			if at.After(last) {
				last = at
			}
		}
		pkg := ev.Get("Package").String()
		test := ev.Get("Test").String()
		action := ev.Get("Action").String()

		if test == "" {
			if action == "fail" {
				failedPkgs[pkg] = true
			}
			continue
		}

		key := pkg + "\x00" + test
		entry, ok := entries[key]
		if !ok {
			entry = &goTestEntry{pkg: pkg, name: test}
			entries[key] = entry
			order = append(order, key)
		}

		switch action {
		case "output":
			entry.output = append(entry.output, strings.TrimRight(ev.Get("Output").String(), "\n"))
			if len(entry.output) > maxFailureLines {
				entry.output = entry.output[len(entry.output)-maxFailureLines:]
			}
		case "pass", "fail", "skip":
			entry.status = ParseStatus(action)
			entry.done = true
			entry.elapsed = time.Duration(math.Round(ev.Get("Elapsed").Float() * float64(time.Second)))
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("Report: Unable to read test events: %w", err)
	}

	stats.SetWindow(first, last)

	recorded := 0
	for _, key := range order {
		entry := entries[key]
		if hasSubtests(entries, entry) {
			continue
		}
		if !entry.done {
			if !failedPkgs[entry.pkg] {
				continue
			}
			entry.status = StatusTimedOut
		}

		res := TestResult{
			Name:     entry.name,
			Suite:    entry.pkg,
			Status:   entry.status,
			Duration: entry.elapsed,
		}
		if res.Status.Failed() {
			res.Error = strings.TrimSpace(strings.Join(entry.output, "\n"))
		}
		stats.Record(res)
		recorded++
	}

	logger.Debug("Go test events processed", "tests", recorded)
	return recorded, nil
}

func hasSubtests(entries map[string]*goTestEntry, parent *goTestEntry) bool {
	prefix := parent.name + "/"
	for _, e := range entries {
		if e.pkg == parent.pkg && strings.HasPrefix(e.name, prefix) {
			return true
		}
	}
	return false
}
