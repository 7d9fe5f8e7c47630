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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/adobe/webpilot/lib/log"
)

const (
	teamsHeaderPassed = "**Playwright Operation: Tests Completed (All Succeeded)**"
	teamsHeaderFailed = "**Playwright Operation: Tests Completed (With Failures)**"

	// Part of the response body kept in the error
	maxErrorBody = 512
)

// newHTTPClient is traced through the global otel providers
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// TeamsMessage renders the run summary as the markdown posted to the channel
func TeamsMessage(sum *Summary) string {
	header := teamsHeaderPassed
	if !sum.AllPassed() {
		header = teamsHeaderFailed
	}

	lines := []string{
		header,
		fmt.Sprintf("**ProjectName:** %s; **Environment:** %s", sum.Project, sum.Environment),
		fmt.Sprintf("**SuiteName:** %s", sum.Suite),
		fmt.Sprintf("**Counts: Total:** %d; **Passed:** %d; **Skipped:** %d; **Failed:** %d",
			sum.Total, sum.Passed, sum.Skipped, sum.Failed),
		fmt.Sprintf("**Time:** %s", sum.HumanDuration()),
	}
	return strings.Join(lines, "<br>") + "<br>"
}

// Teams posts the summary into a channel incoming webhook
type Teams struct {
	url    string
	client *http.Client
}

// NewTeams creates the webhook client
func NewTeams(url string, timeout time.Duration) *Teams {
	return &Teams{
		url:    url,
		client: newHTTPClient(timeout),
	}
}

// Name of the target
func (*Teams) Name() string {
	return "teams"
}

// Publish sends the message, any non 2xx answer is an error
func (t *Teams) Publish(ctx context.Context, sum *Summary) error {
	logger := log.WithFunc("report", "TeamsPublish")

	body, err := json.Marshal(map[string]string{"text": TeamsMessage(sum)})
	if err != nil {
		return fmt.Errorf("Teams: Unable to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("Teams: Unable to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("Teams: Unable to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("Teams: Webhook answered %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	io.Copy(io.Discard, resp.Body)

	logger.Info("Teams message sent", "run_id", sum.RunID, "failed", sum.Failed)
	return nil
}
