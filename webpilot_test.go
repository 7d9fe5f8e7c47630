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

package main

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, extra string) (string, string) {
	dir := t.TempDir()
	path := filepath.Join(dir, "webpilot.yml")
	data := "screenshots_dir: " + filepath.Join(dir, "Screenshots") + "\n" +
		"download_dir: " + filepath.Join(dir, "Download") + "\n" +
		"report:\n  junit: " + filepath.Join(dir, "out", "results.xml") + "\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return dir, path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--verbosity", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestActionsCmd(t *testing.T) {
	out, err := execute(t, "", "actions")
	require.NoError(t, err)

	assert.Contains(t, out, "Actions:\n  CLICK\n")
	assert.Contains(t, out, "  KEYPRESS <value>\n")
	assert.Contains(t, out, "  SETATTRIBUTE <value>\n")
	assert.Contains(t, out, "Assertions:\n  EQUALCHECK\n")
	assert.Contains(t, out, "  COUNTMATCH\n")
}

func TestCleanCmd(t *testing.T) {
	dir, cfgPath := writeConfig(t, "")
	shots := filepath.Join(dir, "Screenshots")
	require.NoError(t, os.MkdirAll(shots, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(shots, "old_Passed_qa.png"), []byte("x"), 0o644))

	_, err := execute(t, "", "clean", "--cfg", cfgPath)
	require.NoError(t, err)

	entries, err := os.ReadDir(shots)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.DirExists(t, filepath.Join(dir, "Download"))
}

func TestCleanCmd_UnknownEnv(t *testing.T) {
	_, cfgPath := writeConfig(t, "")
	_, err := execute(t, "", "clean", "--cfg", cfgPath, "--env", "staging")
	assert.ErrorContains(t, err, `Unknown environment "staging"`)
}

const goTestEvents = `{"Time":"2024-05-01T10:00:00Z","Action":"run","Package":"example.com/webtests","Test":"Test_login"}
{"Time":"2024-05-01T10:00:02Z","Action":"pass","Package":"example.com/webtests","Test":"Test_login","Elapsed":2}
{"Time":"2024-05-01T10:00:02Z","Action":"run","Package":"example.com/webtests","Test":"Test_search"}
{"Time":"2024-05-01T10:00:05Z","Action":"fail","Package":"example.com/webtests","Test":"Test_search","Elapsed":3}
`

func TestReportCmd(t *testing.T) {
	dir, cfgPath := writeConfig(t, "  project_name: Portal\n")

	out, err := execute(t, goTestEvents, "report", "--cfg", cfgPath, "--suite-name", "Nightly")
	require.ErrorIs(t, err, errTestsFailed)

	assert.Contains(t, out, "(With Failures)")
	assert.Contains(t, out, "**ProjectName:** Portal; **Environment:** qa")
	assert.Contains(t, out, "**SuiteName:** Nightly")
	assert.Contains(t, out, "**Counts: Total:** 2; **Passed:** 1; **Skipped:** 0; **Failed:** 1")
	assert.Contains(t, out, "**Time:** 0:00:05")

	data, err := os.ReadFile(filepath.Join(dir, "out", "results.xml"))
	require.NoError(t, err)
	var junit struct {
		Tests    int `xml:"tests,attr"`
		Failures int `xml:"failures,attr"`
	}
	require.NoError(t, xml.Unmarshal(data, &junit))
	assert.Equal(t, 2, junit.Tests)
	assert.Equal(t, 1, junit.Failures)
}

func TestReportCmd_File(t *testing.T) {
	dir, cfgPath := writeConfig(t, "")
	input := filepath.Join(dir, "go-test.json")
	require.NoError(t, os.WriteFile(input, []byte(goTestEvents[:strings.Index(goTestEvents, "\n{\"Time\":\"2024-05-01T10:00:02Z\",\"Action\":\"run\"")]+"\n"), 0o644))

	out, err := execute(t, "", "report", input, "--cfg", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(All Succeeded)")
}

func TestRunCmd_Args(t *testing.T) {
	_, err := execute(t, "", "run")
	assert.Error(t, err)

	_, cfgPath := writeConfig(t, "")
	_, err = execute(t, "", "run", "--cfg", cfgPath, filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
