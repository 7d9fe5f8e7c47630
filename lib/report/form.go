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
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/adobe/webpilot/lib/config"
	"github.com/adobe/webpilot/lib/fixture"
	"github.com/adobe/webpilot/lib/log"
	"github.com/adobe/webpilot/lib/webaction"
)

// FormDateLayout is how the execution date is typed into the survey
const FormDateLayout = "1/2/2006"

// randomUserID is the survey respondent number, 0-8999
func randomUserID() int {
	return rand.IntN(9000)
}

// FormValues renders the summary into the survey answers keyed by the config field keys
func FormValues(sum *Summary, userID int, date time.Time) map[string]string {
	return map[string]string{
		config.FieldUserID:         strconv.Itoa(userID),
		config.FieldDate:           date.Format(FormDateLayout),
		config.FieldProject:        sum.Project,
		config.FieldTotal:          strconv.Itoa(sum.Total),
		config.FieldPassed:         strconv.Itoa(sum.Passed),
		config.FieldFailed:         strconv.Itoa(sum.Failed),
		config.FieldSuite:          sum.Suite,
		config.FieldSkipped:        strconv.Itoa(sum.Skipped),
		config.FieldExecutionTime:  sum.HumanDuration(),
		config.FieldEnvironment:    sum.Environment,
		config.FieldPassPercentage: strconv.FormatFloat(sum.PassPercentage(), 'f', 2, 64),
	}
}

// BrowserForm fills the survey page through the action dispatcher like a user would
type BrowserForm struct {
	factory fixture.ContextFactory
	cfg     *config.Config

	userID func() int
	now    func() time.Time
}

// NewBrowserForm uses the factory contexts, which carry the form account HTTP credentials
func NewBrowserForm(factory fixture.ContextFactory, cfg *config.Config) *BrowserForm {
	return &BrowserForm{
		factory: factory,
		cfg:     cfg,
		userID:  randomUserID,
		now:     time.Now,
	}
}

// Name of the target
func (*BrowserForm) Name() string {
	return "form"
}

// Publish opens the form in a fresh context and submits the summary
func (f *BrowserForm) Publish(ctx context.Context, sum *Summary) error {
	form := f.cfg.Report.Form

	bctx, err := f.factory.NewContext()
	if err != nil {
		return fmt.Errorf("Form: %w", err)
	}
	defer bctx.Close()

	page, err := bctx.NewPage()
	if err != nil {
		return fmt.Errorf("Form: Could not create page: %w", err)
	}
	if _, err := page.Goto(form.URL); err != nil {
		return fmt.Errorf("Form: Unable to open %q: %w", form.URL, err)
	}

	return f.fill(ctx, webaction.PageScope(page), FormValues(sum, f.userID(), f.now()))
}

func (f *BrowserForm) fill(ctx context.Context, scope webaction.Scope, values map[string]string) error {
	logger := log.WithFunc("report", "FormFill")
	form := f.cfg.Report.Form
	actions, verifier := fixture.Dispatchers(scope, f.cfg)

	email := form.Email
	if email == "" {
		email = form.Username
	}
	if email != "" && form.EmailSelector != "" {
		logger.Debug("Signing in", "email", email)
		if _, err := actions.Perform(webaction.ActionSetText, form.EmailSelector, email, nil); err != nil {
			return fmt.Errorf("Form: Unable to type email: %w", err)
		}
		if _, err := actions.Perform(webaction.ActionClick, form.NextSelector, "", nil); err != nil {
			return fmt.Errorf("Form: Unable to press next: %w", err)
		}
		if err := sleep(ctx, form.SignInDelay.Std()); err != nil {
			return fmt.Errorf("Form: Interrupted during sign in: %w", err)
		}
	}

	for _, key := range config.FormFields {
		selector := form.Fields[key]
		if selector == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("Form: Interrupted: %w", err)
		}
		if _, err := actions.Perform(webaction.ActionSetText, selector, values[key], nil); err != nil {
			return fmt.Errorf("Form: Unable to fill %q: %w", key, err)
		}
	}

	if _, err := actions.Perform(webaction.ActionClick, form.SubmitSelector, "", nil); err != nil {
		return fmt.Errorf("Form: Unable to submit: %w", err)
	}
	if err := verifier.Verify(form.SuccessSelector, webaction.AssertDisplayed, nil, nil); err != nil {
		return fmt.Errorf("Form: Submission was not confirmed: %w", err)
	}

	logger.Info("Report form submitted")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HTTPForm posts the answers directly, the hidden inputs of the form page are carried along
type HTTPForm struct {
	url      string
	fields   map[string]string
	username string
	password string
	client   *http.Client

	userID func() int
	now    func() time.Time
}

// NewHTTPForm creates the client posting into form.URL
func NewHTTPForm(form config.Form) *HTTPForm {
	return &HTTPForm{
		url:      form.URL,
		fields:   form.Fields,
		username: form.Username,
		password: form.Password,
		client:   newHTTPClient(form.Timeout.Std()),
		userID:   randomUserID,
		now:      time.Now,
	}
}

// Name of the target
func (*HTTPForm) Name() string {
	return "form"
}

// Publish scrapes the form page and posts the url-encoded answers to its action
func (f *HTTPForm) Publish(ctx context.Context, sum *Summary) error {
	logger := log.WithFunc("report", "FormPost")

	target, params, err := f.scrape(ctx)
	if err != nil {
		return err
	}

	values := FormValues(sum, f.userID(), f.now())
	for _, key := range config.FormFields {
		name := f.fields[key]
		if name == "" {
			name = key
		}
		params.Set(name, values[key])
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("Form: Unable to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	f.auth(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("Form: Unable to post answers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("Form: Post answered %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	io.Copy(io.Discard, resp.Body)

	logger.Info("Report form posted", "target", target, "fields", len(params))
	return nil
}

// scrape returns the form action and its hidden inputs, the page url is used when there is no form
func (f *HTTPForm) scrape(ctx context.Context) (string, url.Values, error) {
	base, err := url.Parse(f.url)
	if err != nil {
		return "", nil, fmt.Errorf("Form: Invalid url %q: %w", f.url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", nil, fmt.Errorf("Form: Unable to create request: %w", err)
	}
	f.auth(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("Form: Unable to load form page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("Form: Form page answered %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("Form: Unable to parse form page: %w", err)
	}

	params := url.Values{}
	target := base.String()
	form := doc.Find("form").First()
	if action, ok := form.Attr("action"); ok && strings.TrimSpace(action) != "" {
		ref, err := url.Parse(strings.TrimSpace(action))
		if err != nil {
			return "", nil, fmt.Errorf("Form: Invalid form action %q: %w", action, err)
		}
		target = base.ResolveReference(ref).String()
	}
	form.Find(`input[type="hidden"]`).Each(func(_ int, s *goquery.Selection) {
		if name, ok := s.Attr("name"); ok && name != "" {
			params.Set(name, s.AttrOr("value", ""))
		}
	})

	return target, params, nil
}

func (f *HTTPForm) auth(req *http.Request) {
	if f.username != "" || f.password != "" {
		req.SetBasicAuth(f.username, f.password)
	}
}
