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

// Package config loads the exograph configuration and builds the loggers
// derived from it.
package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	exoerr "github.com/google/exograph/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables overriding the
// configuration, e.g. EXOGRAPH_SERVER_LISTEN.
const EnvPrefix = "EXOGRAPH"

// Config is the top-level exograph configuration.
type Config struct {
	Store    StoreConfig       `mapstructure:"store"`
	Query    QueryConfig       `mapstructure:"query"`
	Server   ServerConfig      `mapstructure:"server"`
	Log      LogConfig         `mapstructure:"log"`
	Prefixes map[string]string `mapstructure:"prefixes"`
}

// StoreConfig controls the in memory store.
type StoreConfig struct {
	CacheCapacity int `mapstructure:"cache_capacity"`
}

// QueryConfig controls query evaluation.
type QueryConfig struct {
	// Timeout bounds the evaluation of a single query. Zero disables it.
	Timeout time.Duration `mapstructure:"timeout"`
	// Concurrency bounds the queries evaluated at once by a fan out.
	Concurrency int `mapstructure:"concurrency"`
	// Estimator selects the join ordering strategy.
	Estimator string `mapstructure:"estimator"`
	// Trace writes the per operator trace of every query to the log output.
	Trace bool `mapstructure:"trace"`
}

// ServerConfig controls the REST API.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
	APIKey string `mapstructure:"api_key"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Supported join ordering strategies.
const (
	EstimatorBoundPositions = "bound"
	EstimatorCardinality    = "cardinality"
)

// Default returns the configuration used when nothing is provided.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// The defaults always validate.
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.cache_capacity", 1000)
	v.SetDefault("query.timeout", "30s")
	v.SetDefault("query.concurrency", 4)
	v.SetDefault("query.estimator", EstimatorBoundPositions)
	v.SetDefault("query.trace", false)
	v.SetDefault("server.listen", "127.0.0.1:27124")
	v.SetDefault("server.api_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the configuration from the given path, or only the defaults if
// the path is empty, with environment variable overrides (prefix EXOGRAPH_).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, exoerr.Wrap(err, exoerr.CodeConfigLoadFailure, "reading config", exoerr.Field("path", path))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, exoerr.Wrap(err, exoerr.CodeConfigLoadFailure, "unmarshalling config")
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, exoerr.Errorf(exoerr.CodeConfigInvalidValue, "validating config: %w", errors.Join(errs...))
	}
	return &cfg, nil
}

func invalid(format string, args ...any) error {
	return exoerr.Errorf(exoerr.CodeConfigInvalidValue, "config: "+format, args...)
}

// Validate checks the configuration for logical errors. It reports every
// problem found instead of stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error
	if c.Store.CacheCapacity < 0 {
		errs = append(errs, invalid("store.cache_capacity must not be negative, got %d", c.Store.CacheCapacity))
	}
	errs = append(errs, c.validateQuery()...)
	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateLog()...)
	for p, ns := range c.Prefixes {
		if ns == "" {
			errs = append(errs, invalid("prefixes.%s must not be empty", p))
		}
	}
	return errs
}

func (c *Config) validateQuery() []error {
	var errs []error
	if c.Query.Timeout < 0 {
		errs = append(errs, invalid("query.timeout must not be negative, got %v", c.Query.Timeout))
	}
	if c.Query.Concurrency < 1 {
		errs = append(errs, invalid("query.concurrency must be at least 1, got %d", c.Query.Concurrency))
	}
	switch c.Query.Estimator {
	case EstimatorBoundPositions, EstimatorCardinality:
	default:
		errs = append(errs, invalid("query.estimator must be one of [%s, %s], got %q",
			EstimatorBoundPositions, EstimatorCardinality, c.Query.Estimator))
	}
	return errs
}

func (c *Config) validateServer() []error {
	if c.Server.Listen == "" {
		return []error{invalid("server.listen must not be empty")}
	}
	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		return []error{invalid("server.listen must be a valid host:port address, got %q: %v", c.Server.Listen, err)}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return []error{invalid("server.listen port must be a number, got %q", portStr)}
	}
	if port < 0 || port > 65535 {
		return []error{invalid("server.listen port must be between 0 and 65535, got %d", port)}
	}
	return nil
}

func (c *Config) validateLog() []error {
	var errs []error
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, invalid("log.format must be one of [text, json], got %q", c.Log.Format))
	}
	return errs
}
