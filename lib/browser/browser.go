/**
 * Copyright 2025-2026 Adobe. All rights reserved.
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

// Package browser starts Playwright and hands out configured browser contexts
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/adobe/webpilot/lib/config"
	"github.com/adobe/webpilot/lib/log"
)

const installTimeout = 10 * time.Minute

// Browser keeps the running Playwright driver and the launched browser
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser

	name     string
	cfg      config.Browser
	timeouts config.Timeouts

	closeOnce sync.Once
	closeErr  error
}

// Launch starts the driver and the browser described by the config
func Launch(ctx context.Context, cfg *config.Config) (*Browser, error) {
	logger := log.WithFunc("browser", "Launch")

	b := &Browser{
		name:     cfg.Browser.Name,
		cfg:      cfg.Browser,
		timeouts: cfg.Timeouts,
	}

	if cfg.Browser.Install {
		if err := install(ctx, b.name); err != nil {
			return nil, err
		}
	}

	var err error
	if b.pw, err = playwright.Run(); err != nil {
		return nil, fmt.Errorf("Browser: Could not start Playwright: %w", err)
	}

	browserType, err := b.browserType()
	if err != nil {
		b.pw.Stop()
		return nil, err
	}

	logger.Debug("Launching browser", "browser", b.name, "headless", b.cfg.Headless, "slow_mo", b.cfg.SlowMo)
	if b.browser, err = browserType.Launch(LaunchOptions(b.cfg)); err != nil {
		b.pw.Stop()
		return nil, fmt.Errorf("Browser: Could not launch %s: %w", b.name, err)
	}

	logger.Info("Browser launched", "browser", b.name, "version", b.browser.Version())
	return b, nil
}

// install downloads the driver and the browser binaries, it blocks so bounded by ctx
func install(ctx context.Context, name string) error {
	logger := log.WithFunc("browser", "install")
	logger.Info("Installing Playwright", "browser", name)

	ctx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- playwright.Install(&playwright.RunOptions{Browsers: []string{name}})
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("Browser: Could not install %s: %w", name, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("Browser: Install of %s interrupted: %w", name, ctx.Err())
	}
}

func (b *Browser) browserType() (playwright.BrowserType, error) {
	switch b.name {
	case "chromium":
		return b.pw.Chromium, nil
	case "firefox":
		return b.pw.Firefox, nil
	case "webkit":
		return b.pw.WebKit, nil
	}
	return nil, fmt.Errorf("Browser: Unsupported browser %q", b.name)
}

// Name of the launched browser
func (b *Browser) Name() string {
	return b.name
}

// NewContext creates a fresh isolated context with the configured defaults
func (b *Browser) NewContext() (playwright.BrowserContext, error) {
	bctx, err := b.browser.NewContext(ContextOptions(b.cfg))
	if err != nil {
		return nil, fmt.Errorf("Browser: Could not create new context: %w", err)
	}
	bctx.SetDefaultTimeout(b.timeouts.Action.Milliseconds())
	bctx.SetDefaultNavigationTimeout(b.timeouts.Navigation.Milliseconds())

	return bctx, nil
}

// Close the browser and stop the driver, safe to call multiple times
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		logger := log.WithFunc("browser", "Close")
		if err := b.browser.Close(); err != nil {
			logger.Warn("Could not close browser", "err", err)
			b.closeErr = err
		}
		if err := b.pw.Stop(); err != nil {
			logger.Warn("Could not stop Playwright", "err", err)
			if b.closeErr == nil {
				b.closeErr = err
			}
		}
	})
	return b.closeErr
}

// LaunchOptions converts the config into the playwright launch options
func LaunchOptions(cfg config.Browser) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.SlowMo > 0 {
		opts.SlowMo = playwright.Float(cfg.SlowMo.Milliseconds())
	}
	// Chromium specific switches make the other engines fail to start
	if len(cfg.Args) > 0 && cfg.Name == "chromium" {
		opts.Args = append([]string(nil), cfg.Args...)
	}
	return opts
}

// ContextOptions converts the config into the playwright context options
func ContextOptions(cfg config.Browser) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		AcceptDownloads:   playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(cfg.IgnoreHTTPSErrors),
	}
	if cfg.Viewport.Width > 0 && cfg.Viewport.Height > 0 {
		opts.Viewport = &playwright.Size{
			Width:  cfg.Viewport.Width,
			Height: cfg.Viewport.Height,
		}
	}
	if cfg.HTTPCredentials.IsSet() {
		opts.HttpCredentials = &playwright.HttpCredentials{
			Username: cfg.HTTPCredentials.Username,
			Password: cfg.HTTPCredentials.Password,
		}
	}
	if cfg.RecordVideo {
		dir := cfg.VideoDir
		if dir == "" {
			dir = "Videos"
		}
		os.MkdirAll(filepath.Clean(dir), 0o755)
		opts.RecordVideo = &playwright.RecordVideo{Dir: dir}
	}
	return opts
}
