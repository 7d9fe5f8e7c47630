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

// Package screenshot stores the teardown captures of the test pages
package screenshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/adobe/webpilot/lib/log"
	"github.com/adobe/webpilot/lib/util"
)

// TimeLayout of the capture moment in the file name
const TimeLayout = "2006_01_02 15_04_05"

var unsafeChars = regexp.MustCompile(`[<>:"/\\|?*]+`)

// Sink writes full page screenshots into one directory
type Sink struct {
	dir string
	env string
	now func() time.Time
}

// New sink storing the files of environment env in dir
func New(dir, env string) *Sink {
	return &Sink{
		dir: dir,
		env: env,
		now: time.Now,
	}
}

// Dir where the screenshots are stored
func (s *Sink) Dir() string {
	return s.dir
}

// Sanitize replaces the characters not allowed in file names with underscore
func Sanitize(label string) string {
	return unsafeChars.ReplaceAllString(label, "_")
}

// Status word used in the file name
func Status(passed bool) string {
	if passed {
		return "Passed"
	}
	return "Failed"
}

// Path of the screenshot file for the label captured right now
func (s *Sink) Path(label string, passed bool) string {
	name := fmt.Sprintf("%s_%s_%s_%s.png", Sanitize(label), Status(passed), s.env, s.now().Format(TimeLayout))
	return filepath.Join(s.dir, name)
}

// Capture stores the full page screenshot of one page and returns the file path
func (s *Sink) Capture(page playwright.Page, label string, passed bool) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("Screenshot: Unable to create dir %q: %w", s.dir, err)
	}

	out := s.Path(label, passed)
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(out),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return "", fmt.Errorf("Screenshot: Unable to capture %q: %w", label, err)
	}

	log.WithFunc("screenshot", "Capture").Debug("Screenshot stored", "path", out)
	return out, nil
}

// CaptureAll stores every open page labelled "<label> <index>", failures do not stop the others
func (s *Sink) CaptureAll(pages []playwright.Page, label string, passed bool) ([]string, error) {
	var paths []string
	var errs []error
	for i, page := range pages {
		if page.IsClosed() {
			continue
		}
		out, err := s.Capture(page, strings.TrimSpace(fmt.Sprintf("%s %d", label, i)), passed)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, out)
	}
	return paths, errors.Join(errs...)
}

// Clear empties the given directories, the missing ones are created
func Clear(dirs ...string) error {
	logger := log.WithFunc("screenshot", "Clear")
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := util.EmptyDir(dir); err != nil {
			return fmt.Errorf("Screenshot: Unable to clear %q: %w", dir, err)
		}
		logger.Info("Directory cleared", "dir", dir)
	}
	return nil
}
