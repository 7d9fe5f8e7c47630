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

package browser

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adobe/webpilot/lib/config"
	"github.com/adobe/webpilot/lib/util"
)

func TestLaunchOptions_Defaults(t *testing.T) {
	cfg := config.Default().Browser

	opts := LaunchOptions(cfg)
	require.NotNil(t, opts.Headless)
	assert.True(t, *opts.Headless)
	require.NotNil(t, opts.SlowMo)
	assert.Equal(t, 1000.0, *opts.SlowMo)
	assert.Equal(t, []string{`--auth-server-allowlist="_"`}, opts.Args)
}

func TestLaunchOptions_NonChromium(t *testing.T) {
	cfg := config.Default().Browser
	cfg.Name = "firefox"
	cfg.Headless = false
	cfg.SlowMo = 0

	opts := LaunchOptions(cfg)
	assert.False(t, *opts.Headless)
	assert.Nil(t, opts.SlowMo)
	assert.Empty(t, opts.Args)
}

func TestLaunchOptions_ArgsCopied(t *testing.T) {
	cfg := config.Default().Browser
	opts := LaunchOptions(cfg)
	opts.Args[0] = "--changed"

	assert.Equal(t, `--auth-server-allowlist="_"`, cfg.Args[0])
}

func TestContextOptions(t *testing.T) {
	videos := filepath.Join(t.TempDir(), "vids")
	cfg := config.Default().Browser
	cfg.IgnoreHTTPSErrors = true
	cfg.HTTPCredentials = config.Credentials{Username: "user@example.com", Password: "secret"}
	cfg.RecordVideo = true
	cfg.VideoDir = videos
	cfg.SlowMo = util.Duration(time.Second)

	opts := ContextOptions(cfg)
	assert.True(t, *opts.AcceptDownloads)
	assert.True(t, *opts.IgnoreHttpsErrors)
	require.NotNil(t, opts.Viewport)
	assert.Equal(t, 1530, opts.Viewport.Width)
	assert.Equal(t, 722, opts.Viewport.Height)
	require.NotNil(t, opts.HttpCredentials)
	assert.Equal(t, "user@example.com", opts.HttpCredentials.Username)
	assert.Equal(t, "secret", opts.HttpCredentials.Password)
	require.NotNil(t, opts.RecordVideo)
	assert.Equal(t, videos, opts.RecordVideo.Dir)
	assert.DirExists(t, videos)
}

func TestContextOptions_Minimal(t *testing.T) {
	cfg := config.Browser{}

	opts := ContextOptions(cfg)
	assert.Nil(t, opts.Viewport)
	assert.Nil(t, opts.HttpCredentials)
	assert.Nil(t, opts.RecordVideo)
	assert.False(t, *opts.IgnoreHttpsErrors)
}
