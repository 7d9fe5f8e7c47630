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

package tests

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// receiver collects the requests sent by the reporters
type receiver struct {
	srv *httptest.Server

	mu     sync.Mutex
	teams  []string
	forms  []url.Values
	hidden string
}

// newReceiver serves a Teams webhook on /teams and a survey form on /form
func newReceiver(t *testing.T) *receiver {
	t.Helper()

	rc := &receiver{hidden: "e2e-token"}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /teams", func(w http.ResponseWriter, r *http.Request) {
		var msg struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rc.mu.Lock()
		rc.teams = append(rc.teams, msg.Text)
		rc.mu.Unlock()
		io.WriteString(w, "1")
	})
	mux.HandleFunc("GET /form", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<html><body><form action="/form/submit" method="post">`+
			`<input type="hidden" name="fbzx" value="`+rc.hidden+`"></form></body></html>`)
	})
	mux.HandleFunc("POST /form/submit", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rc.mu.Lock()
		rc.forms = append(rc.forms, r.PostForm)
		rc.mu.Unlock()
	})
	rc.srv = httptest.NewServer(mux)
	t.Cleanup(rc.srv.Close)

	return rc
}

func (rc *receiver) Teams() []string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]string(nil), rc.teams...)
}

func (rc *receiver) Forms() []url.Values {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]url.Values(nil), rc.forms...)
}
