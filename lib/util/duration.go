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

// Package util contains small helpers shared by the webpilot packages
package util

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Duration is a time.Duration which could be set in config as "20s", "1.5m" or "1d"
type Duration time.Duration

var unitMap = map[string]Duration{
	"d": 24,
	"D": 24,
	"w": 7 * 24,
	"W": 7 * 24,
}

var durationPartRe = regexp.MustCompile(`(\d*\.\d+|\d+)[^\d.]*`)

// NewDuration parses the string into Duration
func NewDuration(s string) (Duration, error) {
	var d Duration
	err := d.StoreStringDuration(s)
	return d, err
}

// Std returns the duration as time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Milliseconds is used to fill playwright timeout options which are float ms
func (d Duration) Milliseconds() float64 {
	return float64(time.Duration(d).Milliseconds())
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON represents Duration as JSON string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON parses JSON string or number of nanoseconds as Duration
func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		return d.StoreStringDuration(value)
	default:
		return fmt.Errorf("Duration: incorrect type %T", v)
	}
}

// StoreStringDuration parses a duration string into a duration
// Example: "20s", "1d12h" or "-1.5w"
// Added time units: d(D), w(W)
func (d *Duration) StoreStringDuration(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("Duration: empty value")
	}
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	parts := durationPartRe.FindAllString(s, -1)
	if len(parts) == 0 || strings.Join(parts, "") != s {
		return fmt.Errorf("Duration: unable to parse %q", s)
	}

	var sumDur Duration
	for _, str := range parts {
		var hours Duration = 1
		for unit, h := range unitMap {
			if strings.HasSuffix(str, unit) {
				str = strings.TrimSuffix(str, unit) + "h"
				hours = h
				break
			}
		}

		dur, err := time.ParseDuration(str)
		if err != nil {
			return fmt.Errorf("Duration: unable to parse %q: %w", s, err)
		}

		sumDur += Duration(dur) * hours
	}

	if neg {
		sumDur = -sumDur
	}

	*d = sumDur

	return nil
}

// HumanDuration formats duration as H:MM:SS the way it's shown in the run reports
func HumanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
