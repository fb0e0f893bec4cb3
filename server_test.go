// Copyright 2012 Arne Roomann-Kurrik
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func request(h http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader(body)))
	return w
}

func TestHandleCovers(t *testing.T) {
	app, _ := LoadSite(t)
	w := request(NewMux(app), http.MethodPost, "/covers", `{"cover_type":"content","posts":[2]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Bad status %v: %v", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Bad content type: %v", ct)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Errorf("Expected request id header")
	}
	var out struct {
		Attributes map[string]interface{}
		Covers     []map[string]interface{}
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Error: %v", err)
	}
	if out.Attributes["version"] != float64(2) {
		t.Errorf("Bad attributes: %v", out.Attributes)
	}
	if len(out.Covers) != 1 || out.Covers[0]["post_title"] != "Forests" {
		t.Errorf("Bad covers: %v", out.Covers)
	}
}

func TestHandleRender(t *testing.T) {
	app, _ := LoadSite(t)
	w := request(NewMux(app), http.MethodPost, "/render", `{"cover_type":"take-action"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Bad status %v: %v", w.Code, w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Bad content type: %v", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), `data-render="planet4-blocks/covers"`) {
		t.Errorf("Bad markup: %v", w.Body.String())
	}
}

func TestHandleBadRequests(t *testing.T) {
	app, _ := LoadSite(t)
	mux := NewMux(app)
	tests := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/covers", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/render", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/covers", `{"cover_type":`, http.StatusBadRequest},
		{http.MethodPost, "/render", `[1, 2]`, http.StatusBadRequest},
		{http.MethodPost, "/missing", `{}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := request(mux, tt.method, tt.path, tt.body); w.Code != tt.status {
			t.Errorf("%v %v: got status %v, want %v", tt.method, tt.path, w.Code, tt.status)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	app, _ := Setup()
	if w := request(NewMux(app), http.MethodGet, "/healthz", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected unavailable before load, got %v", w.Code)
	}
	app, _ = LoadSite(t)
	if w := request(NewMux(app), http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("Expected ok after load, got %v", w.Code)
	}
}
