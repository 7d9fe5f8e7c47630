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

package helper

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"
)

// Failer is an interface compatible with testing.T.
type Failer interface {
	Helper()
	Log(args ...any)
	FailNow()
}

// R is passed to the retried function to report the attempt failure
type R struct {
	fail   bool
	output []string
}

// Helper shows this struct as helper
func (*R) Helper() {}

var attemptFailed = struct{}{}

// FailNow stops the attempt
func (r *R) FailNow() {
	r.fail = true
	panic(attemptFailed)
}

// Fatal logs and stops the attempt
func (r *R) Fatal(args ...any) {
	r.log(fmt.Sprint(args...))
	r.FailNow()
}

// Fatalf logs and stops the attempt
func (r *R) Fatalf(format string, args ...any) {
	r.log(fmt.Sprintf(format, args...))
	r.FailNow()
}

// Errorf marks the attempt failed and continues it
func (r *R) Errorf(format string, args ...any) {
	r.log(fmt.Sprintf(format, args...))
	r.fail = true
}

// Check stops the attempt on error
func (r *R) Check(err error) {
	if err != nil {
		r.log(err.Error())
		r.FailNow()
	}
}

func (r *R) log(s string) {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		file, line = "???", 1
	}
	r.output = append(r.output, fmt.Sprintf("%s:%d: %s", file[strings.LastIndex(file, "/")+1:], line, s))
}

// Retryer decides whether one more attempt is made
type Retryer interface {
	Continue() bool
}

// Timer repeats the attempts until Timeout is reached, waiting between them
type Timer struct {
	Timeout time.Duration
	Wait    time.Duration

	stop time.Time
}

// Continue the timer
func (r *Timer) Continue() bool {
	if r.stop.IsZero() {
		r.stop = time.Now().Add(r.Timeout)
		return true
	}
	if time.Now().After(r.stop) {
		return false
	}
	time.Sleep(r.Wait)
	return true
}

// Retry runs f until it passes, the test fails with the last attempt output when retryer gives up
func Retry(retryer Retryer, t Failer, f func(r *R)) {
	t.Helper()

	rr := &R{}
	for retryer.Continue() {
		rr.fail = false
		rr.output = rr.output[:0]
		func() {
			defer func() {
				if p := recover(); p != nil && p != attemptFailed {
					panic(p)
				}
			}()
			f(rr)
		}()
		if !rr.fail {
			return
		}
	}

	if out := slices.Compact(rr.output); len(out) > 0 {
		t.Log(strings.Join(out, "\n"))
	}
	t.FailNow()
}
