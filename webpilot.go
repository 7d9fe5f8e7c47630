/**
 * Copyright 2021-2026 Adobe. All rights reserved.
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

// Starting point for webpilot cmd
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adobe/webpilot/lib/browser"
	"github.com/adobe/webpilot/lib/build"
	"github.com/adobe/webpilot/lib/config"
	"github.com/adobe/webpilot/lib/fixture"
	"github.com/adobe/webpilot/lib/log"
	"github.com/adobe/webpilot/lib/monitoring"
	"github.com/adobe/webpilot/lib/report"
	"github.com/adobe/webpilot/lib/screenshot"
	"github.com/adobe/webpilot/lib/suite"
	"github.com/adobe/webpilot/lib/webaction"
)

// errTestsFailed makes the process exit with non-zero code without the usage output
var errTestsFailed = errors.New("some tests failed")

type options struct {
	cfgPath      string
	env          string
	suiteName    string
	logVerbosity string
	logTimestamp bool
	noReport     bool
}

func main() {
	fmt.Printf("webpilot %s (%s)\n", build.Version, build.Time)

	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "webpilot",
		Short:        "Browser UI test automation",
		Long:         `Runs browser UI test suites through symbolic actions & assertions and reports the results`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ /*cmd*/ *cobra.Command, _ /*args*/ []string) error {
			logCfg := log.DefaultConfig()
			logCfg.Level = opts.logVerbosity
			logCfg.UseTimestamp = opts.logTimestamp
			return log.Initialize(logCfg)
		},
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.cfgPath, "cfg", "c", "", "yaml configuration file")
	flags.StringVarP(&opts.env, "env", "e", "", "environment to run against, overrides "+config.EnvEnvironment)
	flags.StringVarP(&opts.logVerbosity, "verbosity", "v", "info", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.logTimestamp, "timestamp", true, "prepend timestamps for each log line")
	flags.Lookup("timestamp").NoOptDefVal = "false"

	cmd.AddCommand(
		newRunCmd(opts),
		newReportCmd(opts),
		newCleanCmd(opts),
		newActionsCmd(),
	)
	return cmd
}

func loadConfig(opts *options) (*config.Config, error) {
	getenv := func(key string) string {
		switch {
		case key == config.EnvEnvironment && opts.env != "":
			return opts.env
		case key == config.EnvSuiteName && opts.suiteName != "":
			return opts.suiteName
		}
		return os.Getenv(key)
	}
	cfg, err := config.Load(opts.cfgPath, getenv)
	if err != nil {
		log.WithFunc("main", "loadConfig").Error("Unable to load config", "cfg_path", opts.cfgPath, "err", err)
		return nil, err
	}
	return cfg, nil
}

// initMonitoring is a noop monitor when monitoring is disabled
func initMonitoring(ctx context.Context, cfg *config.Config, stats *report.Stats) (*monitoring.Monitor, func()) {
	logger := log.WithFunc("main", "initMonitoring")

	monCfg := &cfg.Monitoring
	if monCfg.ServiceVersion == "" {
		monCfg.ServiceVersion = build.Version
	}
	monCfg.RunID = stats.RunID().String()
	monCfg.Environment = cfg.Env

	monitor, err := monitoring.Initialize(ctx, monCfg)
	if err != nil {
		// Telemetry is not worth failing the tests for
		logger.Error("Unable to initialize monitoring", "err", err)
		return nil, func() {}
	}
	return monitor, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := monitor.Shutdown(sctx); err != nil {
			logger.Error("Error shutting down monitoring", "err", err)
		}
	}
}

// publish sends the summary to the configured destinations, the form could need its own browser
func publish(ctx context.Context, cfg *config.Config, monitor *monitoring.Monitor, sum *report.Summary) error {
	logger := log.WithFunc("main", "publish")

	var formBrowser fixture.ContextFactory
	if cfg.Report.Form.Enabled && cfg.Report.Form.Mode == config.FormModeBrowser {
		formCfg := *cfg
		formCfg.Browser.HTTPCredentials = config.Credentials{
			Username: cfg.Report.Form.Username,
			Password: cfg.Report.Form.Password,
		}
		formCfg.Browser.RecordVideo = false

		b, err := browser.Launch(ctx, &formCfg)
		if err != nil {
			logger.Error("Unable to launch the form browser", "err", err)
			return err
		}
		defer b.Close()
		formBrowser = b
	}

	reporter, err := report.New(cfg, formBrowser, monitor)
	if err != nil {
		return err
	}
	return reporter.Publish(ctx, sum)
}

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <suite.yml>...",
		Short: "Run the test suites and publish the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ /*cmd*/ *cobra.Command, args []string) error {
			logger := log.WithFunc("main", "run")

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			// Everything is validated before the browser is started
			suites := make([]*suite.Suite, 0, len(args))
			for _, path := range args {
				s, err := suite.Load(path)
				if err != nil {
					logger.Error("Unable to load suite", "path", path, "err", err)
					return err
				}
				suites = append(suites, s)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stats := report.NewStats(cfg.Report.ProjectName, cfg.Report.SuiteName, cfg.Env)
			monitor, shutdown := initMonitoring(ctx, cfg, stats)
			defer shutdown()

			logger.Info("Run starting", "run_id", stats.RunID(), "env", cfg.Env, "browser", cfg.Browser.Name)
			b, err := browser.Launch(ctx, cfg)
			if err != nil {
				logger.Error("Unable to launch browser", "err", err)
				return err
			}

			runner := suite.NewRunner(cfg, b, monitor, stats)
			var runErr error
			for _, s := range suites {
				if runErr = runner.Run(ctx, s); runErr != nil {
					logger.Warn("Run interrupted, publishing partial results", "err", runErr)
					break
				}
			}
			if err := b.Close(); err != nil {
				logger.Warn("Browser was not closed cleanly", "err", err)
			}

			sum := stats.Finish()
			if !opts.noReport {
				// Partial results are published even when the run was interrupted
				if err := publish(context.WithoutCancel(ctx), cfg, monitor, sum); err != nil {
					logger.Error("Report was not fully published", "err", err)
				}
			}

			if runErr != nil {
				return runErr
			}
			if !sum.AllPassed() {
				return errTestsFailed
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.suiteName, "suite-name", "s", "", "suite name in the reports, overrides "+config.EnvSuiteName)
	flags.BoolVar(&opts.noReport, "no-report", false, "do not publish the results")

	return cmd
}

func newReportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [go-test.json]",
		Short: "Publish the results of `go test -json` (file or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.WithFunc("main", "report")

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("Report: Unable to open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}

			stats := report.NewStats(cfg.Report.ProjectName, cfg.Report.SuiteName, cfg.Env)
			n, err := report.ReadGoTest(in, stats)
			if err != nil {
				return err
			}
			if n == 0 {
				logger.Warn("No test results found in the input")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			monitor, shutdown := initMonitoring(ctx, cfg, stats)
			defer shutdown()

			sum := stats.Finish()
			fmt.Fprintln(cmd.OutOrStdout(), report.TeamsMessage(sum))
			if err := publish(ctx, cfg, monitor, sum); err != nil {
				return err
			}
			if !sum.AllPassed() {
				return errTestsFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.suiteName, "suite-name", "s", "", "suite name in the reports, overrides "+config.EnvSuiteName)

	return cmd
}

func newCleanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Empty the screenshots and downloads directories",
		Args:  cobra.NoArgs,
		RunE: func(_ /*cmd*/ *cobra.Command, _ /*args*/ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return screenshot.Clear(cfg.ScreenshotsDir, cfg.DownloadDir)
		},
	}
}

func newActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the supported action & assertion identifiers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ /*args*/ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Actions:")
			for _, id := range webaction.ActionIDs() {
				suffix := ""
				if id.NeedsPayload() {
					suffix = " <value>"
				}
				fmt.Fprintf(out, "  %s%s\n", id, suffix)
			}
			fmt.Fprintln(out, "Assertions:")
			for _, id := range webaction.AssertionIDs() {
				fmt.Fprintf(out, "  %s\n", id)
			}
		},
	}
}
