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

package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/exograph/config"
	exoerr "github.com/google/exograph/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Store.CacheCapacity)
	assert.Equal(t, 30*time.Second, cfg.Query.Timeout)
	assert.Equal(t, 4, cfg.Query.Concurrency)
	assert.Equal(t, config.EstimatorBoundPositions, cfg.Query.Estimator)
	assert.Equal(t, "127.0.0.1:27124", cfg.Server.Listen)
	assert.Empty(t, cfg.Server.APIKey)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "exograph.yaml")

	content := `
server:
  listen: "0.0.0.0:9999"
  api_key: "secret"
query:
  timeout: 2s
  estimator: cardinality
prefixes:
  ex: "http://example.org/"
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Listen)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, 2*time.Second, cfg.Query.Timeout)
	assert.Equal(t, config.EstimatorCardinality, cfg.Query.Estimator)
	assert.Equal(t, "http://example.org/", cfg.Prefixes["ex"])
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("EXOGRAPH_SERVER_LISTEN", "10.0.0.1:8080")
	t.Setenv("EXOGRAPH_LOG_LEVEL", "debug")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:8080", cfg.Server.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, exoerr.CodeConfigLoadFailure, exoerr.CodeOf(err))
}

func TestLoad_ValidationCalledAtLoadTime(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "exograph.yaml")
	content := `
query:
  concurrency: 0
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	_, err := config.Load(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query.concurrency")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Store.CacheCapacity = -1
	cfg.Query.Estimator = "magic"
	cfg.Server.Listen = "nowhere"
	cfg.Log.Format = "xml"
	cfg.Log.Level = "loud"

	errs := cfg.Validate()
	require.Len(t, errs, 5)
	for _, err := range errs {
		assert.Equal(t, exoerr.CodeConfigInvalidValue, exoerr.CodeOf(err))
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := config.NewLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	l.Info("hidden")
	l.Warn("shown", "key", "value")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)

	buf.Reset()
	l = config.NewLogger(config.LogConfig{Level: "debug", Format: "text"}, &buf)
	l.Debug("detail")
	assert.True(t, strings.Contains(buf.String(), "msg=detail"))
}

func TestParseLevel(t *testing.T) {
	lvl, err := config.ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
	_, err = config.ParseLevel("verbose")
	assert.Error(t, err)
}
