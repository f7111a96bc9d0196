// Copyright 2015 Google Inc. All rights reserved.
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

// Package server exposes an engine and its store over a small REST API.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/google/exograph/engine"
	exoerr "github.com/google/exograph/errors"
)

// APIKeyHeader is the header carrying the API key.
const APIKeyHeader = "X-API-Key"

// Config holds the HTTP server configuration.
type Config struct {
	Listen       string
	APIKey       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger of the server.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer serves the metrics of g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// Server wraps a chi router serving the REST API.
type Server struct {
	router   chi.Router
	cfg      Config
	engine   *engine.Engine
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// New creates a server answering with the provided engine.
func New(e *engine.Engine, cfg Config, opts ...Option) (*Server, error) {
	if cfg.Listen == "" {
		return nil, exoerr.New(exoerr.CodeConfigInvalidValue, "server.New: listen address is required")
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	s := &Server{
		cfg:    cfg,
		engine: e,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Get("/api/health", s.health)
	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/api/sparql", s.sparql)
		r.Get("/api/graph", s.graph)
		r.Post("/api/graph", s.updateGraph)
		r.Get("/api/stats", s.stats)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, exoerr.New(exoerr.CodeServerRequestInvalid, "no such endpoint"), http.StatusNotFound)
	})
	s.router = r
	return s, nil
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server and blocks until the context is cancelled,
// then shuts it down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return exoerr.Wrap(err, exoerr.CodeServerInternalFailure, "server.Start: failed to listen",
			exoerr.Field("listen", s.cfg.Listen))
	}
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("server started", "listen", ln.Addr().String(), "auth", s.cfg.APIKey != "")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return exoerr.Wrap(err, exoerr.CodeServerInternalFailure, "server.Start: server failed")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return exoerr.Wrap(err, exoerr.CodeServerInternalFailure, "server.Start: failed to shut down")
	}
	s.logger.Info("server stopped")
	return <-errCh
}

// authenticate rejects the requests without the configured API key. It lets
// every request through when no key is configured.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" {
			key := r.Header.Get(APIKeyHeader)
			if subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) != 1 {
				s.logger.Debug("request rejected", "path", r.URL.Path, "remote", r.RemoteAddr)
				s.writeError(w, exoerr.New(exoerr.CodeServerAuthUnauthorized, "missing or invalid API key"), 0)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// errorBody is the JSON body of every failed request.
type errorBody struct {
	Error  string         `json:"error"`
	Code   string         `json:"code,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// writeError reports err. A zero status is derived from the error code.
func (s *Server) writeError(w http.ResponseWriter, err error, status int) {
	if status == 0 {
		status = exoerr.HTTPStatus(err)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorBody{
		Error:  err.Error(),
		Code:   string(exoerr.CodeOf(err)),
		Fields: exoerr.FieldsOf(err),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

// decode reads the JSON body of the request into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return exoerr.Wrap(err, exoerr.CodeServerRequestInvalid, "invalid JSON body")
	}
	return nil
}
