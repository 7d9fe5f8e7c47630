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

package helper

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Site pages served by NewSite
const (
	LoginPage = `<!DOCTYPE html>
<html><head><title>Sign in</title></head><body>
<form action="/home" method="get">
  <input type="email" name="user">
  <input type="password" name="pass">
  <button type="submit"><span>sign in</span></button>
</form>
</body></html>`

	HomePage = `<!DOCTYPE html>
<html><head><title>Home</title></head><body>
<h1 id="welcome">Welcome</h1>
<div id="logo">Logo</div>
</body></html>`

	FramesPage = `<!DOCTYPE html>
<html><head><title>Frames</title></head><body>
<button id="hit" onclick="document.getElementById('out').textContent='top'">Top</button>
<span id="out"></span>
<iframe id="f1" src="/f1"></iframe>
</body></html>`

	TwinFramesPage = `<!DOCTYPE html>
<html><head><title>Twin frames</title></head><body>
<iframe class="twin" src="/f2"></iframe>
<iframe class="twin" src="/f2"></iframe>
</body></html>`

	OuterFramePage = `<!DOCTYPE html>
<html><body>
<span id="out">outer</span>
<iframe id="f2" src="/f2"></iframe>
</body></html>`

	InnerFramePage = `<!DOCTYPE html>
<html><body>
<button id="hit" onclick="document.getElementById('out').textContent='inner clicked'">Inner</button>
<span id="out"></span>
</body></html>`

	FormPage = `<!DOCTYPE html>
<html><head><title>Form</title>
<style>.hidden { display: none; } #name { color: rgb(255, 0, 0); }</style>
</head><body>
<input id="name" type="text" placeholder="Your name">
<input id="agree" type="checkbox">
<select id="color"><option value="r">Red</option><option value="g">Green</option></select>
<button class="item">One</button>
<button class="item">Two</button>
<button id="off" disabled>Off</button>
<div id="secret" class="hidden panel">Secret</div>
<input id="upload" type="file">
<span id="picked"></span>
<script>
document.getElementById('upload').addEventListener('change', function(e) {
  document.getElementById('picked').textContent = e.target.files[0].name;
});
</script>
</body></html>`
)

// NewSite serves the application under test, it's stopped when the test is completed
func NewSite(tb testing.TB) *httptest.Server {
	tb.Helper()

	pages := map[string]string{
		"/":       LoginPage,
		"/home":   HomePage,
		"/frames": FramesPage,
		"/twins":  TwinFramesPage,
		"/f1":     OuterFramePage,
		"/f2":     InnerFramePage,
		"/form":   FormPage,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	tb.Cleanup(srv.Close)

	return srv
}

// URL joins the site address with the page path
func URL(srv *httptest.Server, page string) string {
	return srv.URL + "/" + strings.TrimPrefix(page, "/")
}
