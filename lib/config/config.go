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

// Package config describes the webpilot run configuration and how it's loaded
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ghodss/yaml"

	"github.com/adobe/webpilot/lib/log"
	"github.com/adobe/webpilot/lib/monitoring"
	"github.com/adobe/webpilot/lib/util"
)

// Environment variables overriding the config file
const (
	EnvEnvironment     = "EnvName"
	EnvBrowser         = "BROWSER"
	EnvHeadful         = "HEADFUL"
	EnvOutlookUsername = "OUTLOOK_USERNAME"
	EnvOutlookPassword = "OUTLOOK_PASSWORD"
	EnvSuiteName       = "SUITE_NAME"
	EnvTeamsWebhookURL = "TEAMS_WEBHOOK_URL"
)

// Supported browser engines
var browserNames = []string{"chromium", "firefox", "webkit"}

// Form submission modes
const (
	FormModeBrowser = "browser"
	FormModeHTTP    = "http"
)

// Report form field keys
const (
	FieldUserID         = "user_id"
	FieldDate           = "date"
	FieldProject        = "project"
	FieldTotal          = "total"
	FieldPassed         = "passed"
	FieldFailed         = "failed"
	FieldSuite          = "suite"
	FieldSkipped        = "skipped"
	FieldExecutionTime  = "execution_time"
	FieldEnvironment    = "environment"
	FieldPassPercentage = "pass_percentage"
)

// FormFields lists the report form fields in the order they are filled
var FormFields = []string{
	FieldUserID, FieldDate, FieldProject, FieldTotal, FieldPassed, FieldFailed,
	FieldSuite, FieldSkipped, FieldExecutionTime, FieldEnvironment, FieldPassPercentage,
}

// Config of the webpilot run
type Config struct {
	Env          string                 `json:"env"`          // Key of Environments to run against
	Environments map[string]Environment `json:"environments"` // Target application per environment

	Browser  Browser  `json:"browser"`
	Timeouts Timeouts `json:"timeouts"`
	Login    Login    `json:"login"`
	Report   Report   `json:"report"`

	ScreenshotsDir string `json:"screenshots_dir"` // Where teardown screenshots are stored
	DataDir        string `json:"data_dir"`        // Base for relative upload file names
	DownloadDir    string `json:"download_dir"`    // Emptied by clean

	Monitoring monitoring.Config `json:"monitoring"`
}

// Environment is the application under test
type Environment struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Browser launch and context options
type Browser struct {
	Name              string        `json:"name"`     // chromium, firefox or webkit
	Headless          bool          `json:"headless"` // HEADFUL env var disables it
	SlowMo            util.Duration `json:"slow_mo"`
	Args              []string      `json:"args"`
	Viewport          Viewport      `json:"viewport"`
	HTTPCredentials   Credentials   `json:"http_credentials"`
	IgnoreHTTPSErrors bool          `json:"ignore_https_errors"`
	RecordVideo       bool          `json:"record_video"`
	VideoDir          string        `json:"video_dir"`
	Install           bool          `json:"install"` // Download the driver & browser before launch
}

// Viewport of the browser pages
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Credentials for basic/NTLM auth challenges
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// IsSet reports whether there is anything to send
func (c Credentials) IsSet() bool {
	return c.Username != "" || c.Password != ""
}

// Timeouts of the browser waits
type Timeouts struct {
	Attach     util.Duration `json:"attach"`     // Element & frame resolution
	Visible    util.Duration `json:"visible"`    // DISPLAYED
	Hidden     util.Duration `json:"hidden"`     // ISHIDDEN
	Absent     util.Duration `json:"absent"`     // NOTDISPLAYED
	Action     util.Duration `json:"action"`     // Default of every playwright operation
	Navigation util.Duration `json:"navigation"` // Page loads
	Test       util.Duration `json:"test"`       // Whole test case
}

// Login precondition locators
type Login struct {
	UsernameSelector string   `json:"username_selector"`
	PasswordSelector string   `json:"password_selector"`
	SubmitSelector   string   `json:"submit_selector"`
	Frames           []string `json:"frames"` // In case the login form is embedded
}

// Report destinations
type Report struct {
	ProjectName string `json:"project_name"`
	SuiteName   string `json:"suite_name"`
	JUnit       string `json:"junit"` // Path of the JUnit XML, empty disables it

	Teams Teams `json:"teams"`
	Form  Form  `json:"form"`
}

// Teams incoming webhook
type Teams struct {
	Enabled    bool          `json:"enabled"`
	WebhookURL string        `json:"webhook_url"`
	Timeout    util.Duration `json:"timeout"`
}

// Form is the SharePoint/MS Forms survey receiving the run stats
type Form struct {
	Enabled bool   `json:"enabled"`
	Mode    string `json:"mode"` // browser or http
	URL     string `json:"url"`

	Email    string `json:"email"`    // Account typed into the sign-in page
	Username string `json:"username"` // HTTP credentials of the form browser
	Password string `json:"password"`

	EmailSelector   string            `json:"email_selector"`
	NextSelector    string            `json:"next_selector"`
	SubmitSelector  string            `json:"submit_selector"`
	SuccessSelector string            `json:"success_selector"`
	Fields          map[string]string `json:"fields"` // Field key to selector (browser) or parameter name (http)

	SignInDelay util.Duration `json:"sign_in_delay"` // Pause after the email step
	Timeout     util.Duration `json:"timeout"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Env: "qa",
		Environments: map[string]Environment{
			"qa":   {BaseURL: "https://example.com"},
			"prod": {BaseURL: "https://example.com"},
		},
		Browser: Browser{
			Name:     "chromium",
			Headless: true,
			SlowMo:   util.Duration(time.Second),
			Args:     []string{`--auth-server-allowlist="_"`},
			Viewport: Viewport{Width: 1530, Height: 722},
			VideoDir: "Videos",
		},
		Timeouts: Timeouts{
			Attach:     util.Duration(20 * time.Second),
			Visible:    util.Duration(20 * time.Second),
			Hidden:     util.Duration(100 * time.Second),
			Absent:     util.Duration(10 * time.Second),
			Action:     util.Duration(10 * time.Second),
			Navigation: util.Duration(30 * time.Second),
			Test:       util.Duration(100 * time.Second),
		},
		Login: Login{
			UsernameSelector: "//input[@type='email']",
			PasswordSelector: "//input[@type='password']",
			SubmitSelector:   "//button[.//span[normalize-space()='sign in']]",
		},
		Report: Report{
			ProjectName: "webpilot",
			SuiteName:   "Smoke",
			JUnit:       "results.xml",
			Teams: Teams{
				Timeout: util.Duration(30 * time.Second),
			},
			Form: Form{
				Mode:            FormModeBrowser,
				EmailSelector:   "//input[@type='email']",
				NextSelector:    "//input[@type='submit']",
				SubmitSelector:  "//*[contains(text(),'Submit')]",
				SuccessSelector: "//span[contains(text(), 'Your response was submitted.')]",
				Fields:          defaultFormSelectors(),
				SignInDelay:     util.Duration(10 * time.Second),
				Timeout:         util.Duration(30 * time.Second),
			},
		},
		ScreenshotsDir: "Screenshots",
		DataDir:        "Data",
		DownloadDir:    filepath.Join("Data", "Download"),
		Monitoring:     *monitoring.DefaultConfig(),
	}
}

// The survey renders one text answer per question, in FormFields order
func defaultFormSelectors() map[string]string {
	fields := make(map[string]string, len(FormFields))
	for i, key := range FormFields {
		fields[key] = fmt.Sprintf("(//input[@placeholder='Enter your answer'])[%d]", i+1)
	}
	return fields
}

// ReadConfigFile merges the yaml file into the config, empty path does nothing
func (c *Config) ReadConfigFile(cfgPath string) error {
	if cfgPath == "" {
		return nil
	}

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return fmt.Errorf("Config: Unable to read %s: %w", cfgPath, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("Config: Unable to parse %s: %w", cfgPath, err)
	}

	return nil
}

// ApplyEnv overrides the config with the values of the environment variables
func (c *Config) ApplyEnv(getenv func(string) string) {
	logger := log.WithFunc("config", "ApplyEnv")
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := getenv(EnvEnvironment); v != "" {
		c.Env = strings.ToLower(v)
	}
	if v := getenv(EnvBrowser); v != "" {
		c.Browser.Name = strings.ToLower(v)
	}
	if v := getenv(EnvHeadful); v != "" && v != "0" && !strings.EqualFold(v, "false") {
		c.Browser.Headless = false
	}
	if v := getenv(EnvOutlookUsername); v != "" {
		c.Browser.HTTPCredentials.Username = v
		c.Report.Form.Username = v
	}
	if v := getenv(EnvOutlookPassword); v != "" {
		c.Browser.HTTPCredentials.Password = v
		c.Report.Form.Password = v
	}
	if v := getenv(EnvSuiteName); v != "" {
		c.Report.SuiteName = v
	}
	if v := getenv(EnvTeamsWebhookURL); v != "" {
		c.Report.Teams.WebhookURL = v
		c.Report.Teams.Enabled = true
	}

	logger.Debug("Environment applied", "env", c.Env, "browser", c.Browser.Name, "headless", c.Browser.Headless)
}

// Validate makes sure the config is usable and fills the values derived from the others
func (c *Config) Validate() error {
	c.Env = strings.ToLower(c.Env)
	env, ok := c.Environments[c.Env]
	if !ok {
		return fmt.Errorf("Config: Unknown environment %q", c.Env)
	}
	if env.BaseURL == "" {
		return fmt.Errorf("Config: Environment %q has no base_url", c.Env)
	}

	if !slices.Contains(browserNames, c.Browser.Name) {
		return fmt.Errorf("Config: Unsupported browser %q, use one of %v", c.Browser.Name, browserNames)
	}
	if !c.Browser.HTTPCredentials.IsSet() {
		// Same account is used for the application auth challenge
		c.Browser.HTTPCredentials = Credentials{Username: env.Username, Password: env.Password}
	}

	for name, d := range map[string]util.Duration{
		"attach": c.Timeouts.Attach, "visible": c.Timeouts.Visible, "hidden": c.Timeouts.Hidden,
		"absent": c.Timeouts.Absent, "action": c.Timeouts.Action, "navigation": c.Timeouts.Navigation,
		"test": c.Timeouts.Test,
	} {
		if d <= 0 {
			return fmt.Errorf("Config: Timeout %q needs to be positive, got %s", name, d)
		}
	}

	if c.Report.Teams.Enabled && c.Report.Teams.WebhookURL == "" {
		return fmt.Errorf("Config: Teams report is enabled without webhook_url")
	}
	if c.Report.Form.Enabled {
		if c.Report.Form.URL == "" {
			return fmt.Errorf("Config: Form report is enabled without url")
		}
		switch c.Report.Form.Mode {
		case FormModeBrowser, FormModeHTTP:
		case "":
			c.Report.Form.Mode = FormModeBrowser
		default:
			return fmt.Errorf("Config: Unknown form mode %q", c.Report.Form.Mode)
		}
		if c.Report.Form.Mode == FormModeHTTP {
			// Default selectors are meaningless for a plain POST, the field key is sent instead
			defaults := defaultFormSelectors()
			if c.Report.Form.Fields == nil {
				c.Report.Form.Fields = make(map[string]string, len(FormFields))
			}
			for _, key := range FormFields {
				if v, ok := c.Report.Form.Fields[key]; !ok || v == defaults[key] {
					c.Report.Form.Fields[key] = key
				}
			}
		}
	}

	return nil
}

// Environment returns the selected target, valid after Validate
func (c *Config) Environment() Environment {
	return c.Environments[c.Env]
}

// Load builds the config from defaults, the optional file and the environment variables
func Load(cfgPath string, getenv func(string) string) (*Config, error) {
	cfg := Default()
	if err := cfg.ReadConfigFile(cfgPath); err != nil {
		return nil, err
	}
	cfg.ApplyEnv(getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
