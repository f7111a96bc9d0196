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

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/exograph/config"
	"github.com/google/exograph/engine"
	exoerr "github.com/google/exograph/errors"
	exoio "github.com/google/exograph/io"
	"github.com/google/exograph/io/jsonld"
	"github.com/google/exograph/metrics"
	"github.com/google/exograph/storage/memory"
	"github.com/spf13/cobra"
)

// Output formats accepted by the --format flag.
const (
	formatText   = "text"
	formatJSON   = "json"
	formatJSONLD = "jsonld"
	formatNT     = "nt"
)

var formats = []string{formatText, formatJSON, formatJSONLD, formatNT}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	ConfigPath string
	Data       []string
	Format     string
	Verbose    bool
}

// env is the runtime built from the configuration before any command runs.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *memory.Store
	engine  *engine.Engine
	metrics *metrics.Collector
}

// NewRootCommand returns the exograph root command with every subcommand
// registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	e := &env{}

	cmd := &cobra.Command{
		Use:   "exograph",
		Short: "Query RDF graphs with SPARQL",
		Long: `exograph loads N-Quads and JSON-LD files into an in memory graph and
evaluates SPARQL SELECT, CONSTRUCT, ASK, and DESCRIBE queries against it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			valid := false
			for _, f := range formats {
				if opts.Format == f {
					valid = true
					break
				}
			}
			if !valid {
				return exoerr.New(exoerr.CodeConfigInvalidValue, "invalid --format",
					exoerr.Field("format", opts.Format),
					exoerr.Field("allowed", strings.Join(formats, ", ")))
			}
			return e.setup(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML configuration file")
	cmd.PersistentFlags().StringArrayVarP(&opts.Data, "data", "d", nil, "N-Quads or JSON-LD file loaded before running the command (repeatable)")
	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", formatText, "output format: text, json, jsonld, or nt")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	// Please keep sorted.
	cmd.AddCommand(
		newAssertCommand(e),
		newBenchCommand(e),
		newExportCommand(e, opts),
		newGenerateCommand(),
		newLoadCommand(e),
		newQueryCommand(e, opts),
		newREPLCommand(e, opts),
		newRunCommand(e, opts),
		newServeCommand(e),
		newStatsCommand(e, opts),
		newVersionCommand(),
	)
	return cmd
}

// setup loads the configuration, builds the store and the engine, and loads
// the data files.
func (e *env) setup(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	e.cfg = cfg
	e.logger = config.NewLogger(cfg.Log, cmd.ErrOrStderr())
	e.store = memory.NewStore(
		memory.WithLogger(e.logger),
		memory.WithCacheCapacity(cfg.Store.CacheCapacity),
	)
	e.metrics = metrics.New(e.store)

	eopts := []engine.Option{
		engine.WithLogger(e.logger),
		engine.WithTimeout(cfg.Query.Timeout),
		engine.WithConcurrency(cfg.Query.Concurrency),
		engine.WithPrefixes(cfg.Prefixes),
		engine.WithObserver(e.metrics),
	}
	if cfg.Query.Estimator == config.EstimatorCardinality {
		eopts = append(eopts, engine.WithEstimator(engine.CardinalityEstimator(e.store)))
	}
	if cfg.Query.Trace {
		eopts = append(eopts, engine.WithTracer(cmd.ErrOrStderr()))
	}
	e.engine = engine.New(e.store, eopts...)

	for _, path := range opts.Data {
		if _, err := e.loadFile(cmd.Context(), path); err != nil {
			return err
		}
	}
	return nil
}

// loadFile adds the statements of the file to the store. Files ending in
// .jsonld or .json are read as JSON-LD, anything else as N-Quads.
func (e *env) loadFile(ctx context.Context, path string) (exoio.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := os.Open(path)
	if err != nil {
		return exoio.Report{}, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "opening data file", exoerr.Field("path", path))
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonld", ".json":
		ts, err := jsonld.Read(f)
		if err != nil {
			return exoio.Report{}, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "reading JSON-LD", exoerr.Field("path", path))
		}
		if err := e.store.BeginBatch(); err != nil {
			return exoio.Report{}, err
		}
		e.store.Add(ts...)
		if err := e.store.CommitBatch(); err != nil {
			return exoio.Report{}, err
		}
		e.logger.Info("loaded data file", "path", path, "read", len(ts))
		return exoio.Report{Read: len(ts)}, nil
	}
	rep, err := exoio.ReadNQuads(ctx, e.store, f, exoio.WithLogger(e.logger))
	if err != nil {
		return rep, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "reading N-Quads", exoerr.Field("path", path))
	}
	e.logger.Info("loaded data file", "path", path, "read", rep.Read, "duplicates", rep.Duplicates)
	return rep, nil
}
