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
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Name     string       `xml:"name,attr"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Skipped  int          `xml:"skipped,attr"`
	Time     string       `xml:"time,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       string          `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []junitProperty `xml:"properties>property"`
	Cases      []junitCase     `xml:"testcase"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *struct{}     `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Text    string `xml:",chardata"`
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// JUnit renders the summary as JUnit XML, one testsuite per suite name
func JUnit(sum *Summary) ([]byte, error) {
	out := junitSuites{
		Name:     sum.Project,
		Tests:    sum.Total,
		Failures: sum.Failed,
		Skipped:  sum.Skipped,
		Time:     seconds(sum.Duration),
	}

	index := make(map[string]int)
	for _, res := range sum.Tests {
		i, ok := index[res.Suite]
		if !ok {
			i = len(out.Suites)
			index[res.Suite] = i
			out.Suites = append(out.Suites, junitSuite{
				Name:      res.Suite,
				Timestamp: sum.Started.UTC().Format(time.RFC3339),
				Properties: []junitProperty{
					{Name: "run_id", Value: sum.RunID.String()},
					{Name: "environment", Value: sum.Environment},
				},
			})
		}
		suite := &out.Suites[i]

		tc := junitCase{
			Name:      res.Name,
			Classname: res.Suite,
			Time:      seconds(res.Duration),
		}
		suite.Tests++
		switch {
		case res.Status == StatusSkipped:
			tc.Skipped = &struct{}{}
			suite.Skipped++
		case res.Status.Failed():
			tc.Failure = &junitFailure{Message: string(res.Status), Type: string(res.Status), Text: res.Error}
			suite.Failures++
		}
		suite.Cases = append(suite.Cases, tc)
	}
	for i := range out.Suites {
		var total time.Duration
		for _, res := range sum.Tests {
			if res.Suite == out.Suites[i].Name {
				total += res.Duration
			}
		}
		out.Suites[i].Time = seconds(total)
	}

	data, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("JUnit: Unable to encode: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// WriteJUnit stores the JUnit XML of the summary into path
func WriteJUnit(path string, sum *Summary) error {
	data, err := JUnit(sum)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("JUnit: Unable to create dir %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("JUnit: Unable to write %q: %w", path, err)
	}
	return nil
}
