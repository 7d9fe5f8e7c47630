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

// Package helper runs the webpilot executable for the end-to-end tests
package helper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// WPInstance saves state of the webpilot process for particular test
type WPInstance struct {
	workspace string
	kill      context.CancelFunc
	cmd       *exec.Cmd

	waitForLog   map[string]func(string, string) bool
	waitForLogMu sync.RWMutex

	outputMu sync.Mutex
	output   []string

	// Protects the process state
	processMu    sync.RWMutex
	running      bool
	processState *os.ProcessState
	done         chan struct{}
}

// NewWebpilot creates the workspace with config.yml in it, the process is not started
func NewWebpilot(tb testing.TB, cfg string) *WPInstance {
	tb.Helper()

	wi := &WPInstance{
		waitForLog: make(map[string]func(string, string) bool),
	}

	// Not using here tb.TempDir to have an ability to save on cleanup for investigation
	var err error
	if wi.workspace, err = os.MkdirTemp("", "webpilot"); err != nil {
		tb.Fatal("ERROR: Unable to create workspace:", err)
		return nil
	}
	tb.Log("INFO: Created workspace:", wi.workspace)

	tb.Cleanup(func() {
		wi.Cleanup(tb)
	})

	wi.WriteFile(tb, "config.yml", cfg)
	tb.Log("INFO: Stored config:", cfg)

	return wi
}

// Workspace will return the working directory of the process
func (wi *WPInstance) Workspace() string {
	return wi.workspace
}

// Path returns the workspace file path
func (wi *WPInstance) Path(name ...string) string {
	return filepath.Join(append([]string{wi.workspace}, name...)...)
}

// WriteFile stores the data in the workspace and returns its path
func (wi *WPInstance) WriteFile(tb testing.TB, name, data string) string {
	tb.Helper()

	path := wi.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("ERROR: Unable to create dir for %q: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		tb.Fatalf("ERROR: Unable to write %q: %v", name, err)
	}
	return path
}

// Output returns all the lines printed by the process so far
func (wi *WPInstance) Output() string {
	wi.outputMu.Lock()
	defer wi.outputMu.Unlock()
	return strings.Join(wi.output, "\n")
}

// IsRunning checks the process is still alive
func (wi *WPInstance) IsRunning() bool {
	wi.processMu.RLock()
	defer wi.processMu.RUnlock()
	return wi.running
}

// Run executes the command until it exits and returns its exit code
func (wi *WPInstance) Run(tb testing.TB, timeout time.Duration, args ...string) int {
	tb.Helper()

	wi.Start(tb, args...)
	return wi.Wait(tb, timeout)
}

// Wait for the process to exit, it's killed when timeout is reached
func (wi *WPInstance) Wait(tb testing.TB, timeout time.Duration) int {
	tb.Helper()

	select {
	case <-wi.done:
	case <-time.After(timeout):
		tb.Errorf("ERROR: webpilot is still running after %s, killing it", timeout)
		wi.kill()
		<-wi.done
	}

	wi.processMu.RLock()
	defer wi.processMu.RUnlock()
	if wi.processState == nil {
		return -1
	}
	if usage, ok := wi.processState.SysUsage().(*syscall.Rusage); ok {
		tb.Log("INFO: MaxRSS:", usage.Maxrss)
	}
	return wi.processState.ExitCode()
}

// Stop interrupts the process and waits for it to exit
func (wi *WPInstance) Stop(tb testing.TB) int {
	tb.Helper()

	wi.processMu.RLock()
	shouldStop := wi.cmd != nil && wi.running
	wi.processMu.RUnlock()
	if !shouldStop {
		return wi.exitCode()
	}

	wi.cmd.Process.Signal(os.Interrupt)

	tb.Log("INFO: Wait 30s for webpilot to stop:", wi.workspace)
	return wi.Wait(tb, 30*time.Second)
}

func (wi *WPInstance) exitCode() int {
	wi.processMu.RLock()
	defer wi.processMu.RUnlock()
	if wi.processState == nil {
		return -1
	}
	return wi.processState.ExitCode()
}

// PrintMemUsage logs the memory used by the running process
func (wi *WPInstance) PrintMemUsage(tb testing.TB) {
	tb.Helper()

	wi.processMu.RLock()
	cmd := wi.cmd
	isRunning := wi.running
	wi.processMu.RUnlock()

	if !isRunning || cmd == nil || cmd.Process == nil {
		tb.Log("ERROR: Process not running or not available for memory usage check")
		return
	}

	proc, err := process.NewProcess(int32(cmd.Process.Pid))
	if err != nil {
		tb.Log("ERROR: Unable to read process for PID", cmd.Process.Pid, err)
		return
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		tb.Log("ERROR: Unable to read process memory info for PID", cmd.Process.Pid, err)
		return
	}
	tb.Log("INFO: webpilot memory usage:", mem.String())
}

// WaitForLog calls the function for each output line containing substring until it returns true
func (wi *WPInstance) WaitForLog(substring string, call func(string, string) bool) {
	wi.waitForLogMu.Lock()
	defer wi.waitForLogMu.Unlock()
	wi.waitForLog[substring] = call
}

func (wi *WPInstance) scanLine(line string) {
	wi.waitForLogMu.RLock()
	var found []string
	for substring := range wi.waitForLog {
		if strings.Contains(line, substring) {
			found = append(found, substring)
		}
	}
	wi.waitForLogMu.RUnlock()

	for _, substring := range found {
		wi.waitForLogMu.RLock()
		call := wi.waitForLog[substring]
		wi.waitForLogMu.RUnlock()
		if call != nil && call(substring, line) {
			wi.waitForLogMu.Lock()
			delete(wi.waitForLog, substring)
			wi.waitForLogMu.Unlock()
		}
	}
}

// Start the webpilot command in background, the config of the workspace is always passed
func (wi *WPInstance) Start(tb testing.TB, args ...string) {
	tb.Helper()

	if wi.IsRunning() {
		tb.Fatalf("ERROR: webpilot can't be started since already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	wi.kill = cancel

	cmdArgs := append(append([]string{}, args...), "--verbosity", "debug", "--cfg", wi.Path("config.yml"))

	wi.cmd = exec.CommandContext(ctx, binaryPath(tb), cmdArgs...)
	wi.cmd.Dir = wi.workspace
	r, _ := wi.cmd.StdoutPipe()
	wi.cmd.Stderr = wi.cmd.Stdout

	// Detecting race conditions
	wi.WaitForLog("WARNING: DATA RACE", func(_ /*substring*/, _ /*line*/ string) bool {
		tb.Error("ERROR: Race condition detected!")
		return false
	})

	if err := wi.cmd.Start(); err != nil {
		cancel()
		tb.Fatalf("ERROR: Unable to start webpilot: %v", err)
		return
	}
	tb.Log("INFO: Started webpilot:", cmdArgs)

	wi.processMu.Lock()
	wi.running = true
	wi.processState = nil
	wi.done = make(chan struct{})
	wi.processMu.Unlock()

	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		scanner := bufio.NewScanner(r)
		// Increasing scanner line buffer from 64KB to 1MB
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			tb.Log("webpilot", line)

			wi.outputMu.Lock()
			wi.output = append(wi.output, line)
			wi.outputMu.Unlock()

			wi.scanLine(line)
		}
	}()

	go func() {
		// The pipe needs to be drained before Wait closes it
		<-scanDone
		err := wi.cmd.Wait()
		if err != nil {
			tb.Log("INFO: webpilot process exited:", err)
		}

		wi.processMu.Lock()
		wi.running = false
		wi.processState = wi.cmd.ProcessState
		wi.processMu.Unlock()
		close(wi.done)
	}()
}

// Cleanup after the test execution
// You don't need to call it if you use NewWebpilot()
func (wi *WPInstance) Cleanup(tb testing.TB) {
	tb.Helper()
	tb.Log("INFO: Cleaning up:", wi.workspace)
	wi.Stop(tb)

	if tb.Failed() {
		tb.Log("INFO: Keeping workspace for checking:", wi.workspace)
		return
	}
	os.RemoveAll(wi.workspace)
}

var (
	buildOnce sync.Once
	buildPath string
	buildErr  error
)

// detectProjectRoot finds the project root directory by walking up from the current file
func detectProjectRoot() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("unable to get current file path")
	}

	// Walk up from tests/helper/webpilot.go
	dir := filepath.Dir(filepath.Dir(filepath.Dir(currentFile)))
	if _, err := os.Stat(filepath.Join(dir, "go.mod")); err != nil {
		return "", fmt.Errorf("could not find project root (no go.mod found)")
	}

	return dir, nil
}

// findLatestBinary finds the most recent webpilot-*.<GOOS>_<GOARCH> binary in the project root
func findLatestBinary(root string) string {
	pattern := fmt.Sprintf("webpilot-*.%s_%s", runtime.GOOS, runtime.GOARCH)
	matches, _ := filepath.Glob(filepath.Join(root, pattern))

	result := ""
	var resultModTime time.Time
	for _, match := range matches {
		stat, err := os.Stat(match)
		if err != nil {
			continue
		}
		if result == "" || stat.ModTime().After(resultModTime) {
			result = match
			resultModTime = stat.ModTime()
		}
	}
	return result
}

// binaryPath takes WEBPILOT_PATH env var, then the prebuilt binary and builds one as the last resort
func binaryPath(tb testing.TB) string {
	tb.Helper()

	if envPath := os.Getenv("WEBPILOT_PATH"); envPath != "" {
		tb.Logf("Using webpilot binary from WEBPILOT_PATH: %s", envPath)
		return envPath
	}

	buildOnce.Do(func() {
		var root string
		if root, buildErr = detectProjectRoot(); buildErr != nil {
			return
		}
		if buildPath = findLatestBinary(root); buildPath != "" {
			return
		}

		buildPath = filepath.Join(os.TempDir(), fmt.Sprintf("webpilot-test-%d", os.Getpid()))
		cmd := exec.Command("go", "build", "-o", buildPath, ".")
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = errors.Join(err, errors.New(string(out)))
		}
	})
	if buildErr != nil {
		tb.Fatalf("ERROR: Unable to locate webpilot binary: %v", buildErr)
	}

	tb.Logf("Using webpilot binary: %s", buildPath)
	return buildPath
}
