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

package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/exograph/engine"
	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/metrics"
	"github.com/google/exograph/server"
	"github.com/google/exograph/storage/memory"
	"github.com/google/exograph/tools/testutil"
)

const apiKey = "secret"

func newTestServer(t *testing.T, key string) (*server.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.Add(testutil.KnowsGraph(t)...)
	col := metrics.New(store)
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(col))
	e := engine.New(store, engine.WithObserver(col), engine.WithPrefixes(map[string]string{"ex": testutil.EX}))
	srv, err := server.New(e, server.Config{Listen: "127.0.0.1:0", APIKey: key}, server.WithGatherer(reg))
	require.NoError(t, err)
	return srv, store
}

func do(t *testing.T, srv *server.Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(server.APIKeyHeader, apiKey)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	var res map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), "body: %s", w.Body.String())
	}
	return w, res
}

func TestNewRequiresListenAddress(t *testing.T) {
	_, err := server.New(engine.New(memory.NewStore()), server.Config{})
	require.Error(t, err)
	assert.Equal(t, exoerr.CodeConfigInvalidValue, exoerr.CodeOf(err))
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, apiKey)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok", "triples": 2}`, w.Body.String())
}

func TestAuthentication(t *testing.T) {
	srv, _ := newTestServer(t, apiKey)
	for _, key := range []string{"", "wrong"} {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		if key != "" {
			req.Header.Set(server.APIKeyHeader, key)
		}
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "key %q", key)
		assert.Contains(t, w.Body.String(), string(exoerr.CodeServerAuthUnauthorized))
	}

	open, _ := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	open.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSPARQLSelect(t *testing.T) {
	srv, _ := newTestServer(t, apiKey)
	w, res := do(t, srv, http.MethodPost, "/api/sparql", `{"query": "SELECT ?y WHERE { ex:a ex:knows ?y }"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SELECT", res["form"])
	assert.Equal(t, 1.0, res["count"])
	assert.Equal(t, map[string]any{"vars": []any{"y"}}, res["head"])
	bindings := res["results"].(map[string]any)["bindings"].([]any)
	require.Len(t, bindings, 1)
	assert.Equal(t, map[string]any{"y": map[string]any{"type": "uri", "value": testutil.EX + "b"}}, bindings[0])
}

func TestSPARQLAskAndConstruct(t *testing.T) {
	srv, _ := newTestServer(t, apiKey)
	_, res := do(t, srv, http.MethodPost, "/api/sparql", `{"query": "ASK { ex:c ex:knows ?x }"}`)
	assert.Equal(t, false, res["boolean"])
	assert.Equal(t, 0.0, res["count"])

	_, res = do(t, srv, http.MethodPost, "/api/sparql", `{"query": "CONSTRUCT { ?y ex:knownBy ?x } WHERE { ?x ex:knows ?y }"}`)
	assert.Equal(t, 2.0, res["count"])
	assert.Len(t, res["triples"], 2)

	_, res = do(t, srv, http.MethodPost, "/api/sparql", `{"query": "DESCRIBE ex:a", "format": "jsonld"}`)
	assert.Equal(t, 1.0, res["count"])
	graph := res["graph"].(map[string]any)
	assert.Equal(t, map[string]any{"ex": testutil.EX}, graph["@context"])
}

func TestSPARQLErrors(t *testing.T) {
	srv, _ := newTestServer(t, apiKey)
	tests := []struct {
		body   string
		status int
		code   exoerr.Code
	}{
		{`{"query": `, http.StatusBadRequest, exoerr.CodeServerRequestInvalid},
		{`{"query": ""}`, http.StatusBadRequest, exoerr.CodeServerRequestInvalid},
		{`{"query": "SELECT ?x WHERE {"}`, http.StatusBadRequest, exoerr.CodeQuerySyntax},
		{`{"query": "SELECT ?x WHERE { ?x ex:knows+ ?y }"}`, http.StatusBadRequest, exoerr.CodeQueryUnsupported},
	}
	for _, test := range tests {
		w, res := do(t, srv, http.MethodPost, "/api/sparql", test.body)
		assert.Equal(t, test.status, w.Code, test.body)
		assert.Equal(t, string(test.code), res["code"], test.body)
	}
}

func TestGraphEndpoints(t *testing.T) {
	srv, store := newTestServer(t, apiKey)

	w, res := do(t, srv, http.MethodPost, "/api/graph",
		`{"operation": "add", "subject": "ex:c", "predicate": "ex:name", "object": "Carol"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, res["success"])
	assert.Equal(t, 3, store.Size())

	_, res = do(t, srv, http.MethodPost, "/api/graph",
		`{"operation": "add", "subject": "<http://example.org/c>", "predicate": "a", "object": "ex:Person"}`)
	assert.Equal(t, 4.0, res["triples"])

	q := url.Values{"s": {"ex:c"}, "limit": {"1"}}
	w, res = do(t, srv, http.MethodGet, "/api/graph?"+q.Encode(), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1.0, res["count"])
	assert.Equal(t, 2.0, res["total"])

	q = url.Values{"p": {"ex:name"}, "o": {`"Carol"`}}
	_, res = do(t, srv, http.MethodGet, "/api/graph?"+q.Encode(), "")
	assert.Equal(t, []any{map[string]any{
		"subject":   "<http://example.org/c>",
		"predicate": "<http://example.org/name>",
		"object":    `"Carol"`,
	}}, res["triples"])

	_, res = do(t, srv, http.MethodPost, "/api/graph",
		`{"operation": "remove", "subject": "ex:c", "predicate": "ex:name", "object": "Carol"}`)
	assert.Equal(t, 3.0, res["triples"])

	for _, body := range []string{
		`{"operation": "update", "subject": "ex:a", "predicate": "ex:p", "object": "ex:b"}`,
		`{"operation": "add", "subject": "Alice", "predicate": "ex:p", "object": "ex:b"}`,
		`{"operation": "add", "subject": "ex:a", "predicate": "unknown:p", "object": "ex:b"}`,
	} {
		w, _ := do(t, srv, http.MethodPost, "/api/graph", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	w, _ = do(t, srv, http.MethodGet, "/api/graph?limit=-3", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, apiKey)
	_, res := do(t, srv, http.MethodPost, "/api/sparql", `{"query": "SELECT * WHERE { ?x ex:knows ?y }"}`)
	require.Equal(t, 2.0, res["count"])

	_, res = do(t, srv, http.MethodGet, "/api/stats", "")
	assert.Equal(t, 2.0, res["triples"])
	assert.Contains(t, res, "indexes")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "exograph_store_triples 2")
	assert.Contains(t, w.Body.String(), `exograph_engine_query_duration_seconds_count{form="SELECT"} 1`)
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t, apiKey)
	w, res := do(t, srv, http.MethodGet, "/api/nlp", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(exoerr.CodeServerRequestInvalid), res["code"])
}

func TestStart(t *testing.T) {
	srv, _ := newTestServer(t, apiKey)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
