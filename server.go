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
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/kurrik/covers/covers"
	"go.uber.org/zap"
)

// Largest attributes payload accepted.
const MaxRequestBytes = 1 << 20

type Handler struct {
	app *App
}

// Logs every request with an id and its duration.
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.New().String()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
		h.app.log.Info("Request",
			zap.String("id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// Decodes the attributes in the request body. Writes an error response and
// returns false if they could not be read.
func (h *Handler) readAttributes(w http.ResponseWriter, r *http.Request) (raw covers.Raw, ok bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw = covers.Raw{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes)).Decode(&raw); err != nil {
		http.Error(w, "invalid attributes: "+err.Error(), http.StatusBadRequest)
		return
	}
	if raw == nil {
		raw = covers.Raw{}
	}
	ok = true
	return
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
	h.app.log.Error("Could not render block", zap.Error(err))
	http.Error(w, "could not render block", http.StatusInternalServerError)
}

// Returns the normalized attributes and covers as JSON.
func (h *Handler) HandleCovers(w http.ResponseWriter, r *http.Request) {
	var (
		raw   covers.Raw
		ok    bool
		block *Block
		err   error
	)
	if raw, ok = h.readAttributes(w, r); !ok {
		return
	}
	if block, err = h.app.Render(r.Context(), raw); err != nil {
		h.renderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(block); err != nil {
		h.app.log.Warn("Could not write response", zap.Error(err))
	}
}

// Returns the block markup.
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	var (
		raw covers.Raw
		ok  bool
		out string
		err error
	)
	if raw, ok = h.readAttributes(w, r); !ok {
		return
	}
	if out, err = h.app.RenderMarkup(r.Context(), raw); err != nil {
		h.renderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(out))
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if h.app.Resolver() == nil {
		http.Error(w, "no site loaded", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok\n"))
}

// Returns the routes served for the given App.
func NewMux(app *App) http.Handler {
	handler := &Handler{app: app}
	mux := http.NewServeMux()
	mux.HandleFunc("/covers", handler.HandleCovers)
	mux.HandleFunc("/render", handler.HandleRender)
	mux.HandleFunc("/healthz", handler.HandleHealth)
	return handler.logRequests(mux)
}

// Serve the given App over HTTP until ctx is done.
func Serve(ctx context.Context, app *App) (err error) {
	server := &http.Server{
		Addr:           app.args.addr,
		Handler:        NewMux(app),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdown)
	}()
	app.log.Info("Serving", zap.String("addr", app.args.addr))
	if err = server.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return
}
