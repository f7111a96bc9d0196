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

// Package engine is the query facade: it parses, translates, optimizes and
// evaluates queries against a store.
package engine

import (
	"context"
	"io"
	"log/slog"
	"time"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/algebra"
	"github.com/google/exograph/sparql/grammar"
	"github.com/google/exograph/sparql/optimizer"
	"github.com/google/exograph/sparql/planner"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/triple"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of queries QueryAll evaluates at once by
// default.
const DefaultConcurrency = 4

// Observer is notified of every evaluated query.
type Observer interface {
	ObserveQuery(form semantic.Form, d time.Duration, err error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine and its executor.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTimeout bounds the evaluation time of every query. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithConcurrency bounds the number of queries evaluated at once by
// QueryAll.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithEstimator sets the estimator ordering basic graph patterns.
func WithEstimator(est optimizer.Estimator) Option {
	return func(e *Engine) {
		e.estimator = est
	}
}

// WithTracer writes the per operator trace of every query to w.
func WithTracer(w io.Writer) Option {
	return func(e *Engine) {
		e.tracer = w
	}
}

// WithPrefixes sets the prefixes every query can use without declaring
// them.
func WithPrefixes(prefixes map[string]string) Option {
	return func(e *Engine) {
		e.prefixes = make(map[string]string, len(prefixes))
		for p, ns := range prefixes {
			e.prefixes[p] = ns
		}
	}
}

// WithObserver registers an observer of the evaluated queries.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// Engine evaluates queries against a store. It is safe for concurrent use.
type Engine struct {
	store       storage.Graph
	opt         *optimizer.Optimizer
	exec        *planner.Executor
	estimator   optimizer.Estimator
	timeout     time.Duration
	concurrency int
	tracer      io.Writer
	observers   []Observer
	prefixes    map[string]string
	logger      *slog.Logger
}

// New returns an engine querying the provided store.
func New(store storage.Graph, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		estimator:   optimizer.BoundPositions{},
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.opt = optimizer.New(optimizer.WithEstimator(e.estimator), optimizer.WithLogger(e.logger))
	e.exec = planner.New(store, planner.WithLogger(e.logger), planner.WithTracer(e.tracer))
	return e
}

// CardinalityEstimator returns the estimator using the store cardinalities
// if the store reports them, and the bound positions estimator otherwise.
func CardinalityEstimator(store storage.Graph) optimizer.Estimator {
	if src, ok := store.(optimizer.CardinalitySource); ok {
		return optimizer.Cardinality{Source: src}
	}
	return optimizer.BoundPositions{}
}

// Prefixes returns the prefixes queries can use without declaring them.
func (e *Engine) Prefixes() map[string]string {
	return e.prefixes
}

// Store returns the store queried by the engine.
func (e *Engine) Store() storage.Graph {
	return e.store
}

// Prepared is a parsed, translated and optimized query ready to be
// evaluated any number of times.
type Prepared struct {
	Text  string
	Form  semantic.Form
	Query *algebra.Query
}

// String returns the S-expression of the optimized operator tree.
func (p *Prepared) String() string {
	return p.Query.String()
}

// Prepare parses, translates and optimizes the query.
func (e *Engine) Prepare(q string) (*Prepared, error) {
	pq, err := grammar.ParsePrefixed(q, e.prefixes)
	if err != nil {
		return nil, err
	}
	aq, err := algebra.Translate(pq)
	if err != nil {
		return nil, err
	}
	return &Prepared{Text: q, Form: pq.Form, Query: e.opt.OptimizeQuery(aq)}, nil
}

// Execute evaluates a prepared query.
func (e *Engine) Execute(ctx context.Context, p *Prepared) (*planner.Result, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	start := time.Now()
	res, err := e.exec.Execute(ctx, p.Query)
	d := time.Since(start)
	for _, o := range e.observers {
		o.ObserveQuery(p.Form, d, err)
	}
	if err != nil {
		e.logger.Warn("query failed", "form", p.Form.String(), "duration", d, "error", err)
		return nil, err
	}
	e.logger.Debug("query evaluated", "form", p.Form.String(), "duration", d)
	return res, nil
}

// Query prepares and evaluates the query, whatever its form.
func (e *Engine) Query(ctx context.Context, q string) (*planner.Result, error) {
	p, err := e.Prepare(q)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, p)
}

// queryForm evaluates the query after checking it has the expected form.
func (e *Engine) queryForm(ctx context.Context, q string, want semantic.Form) (*planner.Result, error) {
	p, err := e.Prepare(q)
	if err != nil {
		return nil, err
	}
	if p.Form != want {
		return nil, exoerr.New(exoerr.CodeQueryFormMismatch, "query form does not match the expected result",
			exoerr.Field("form", p.Form.String()), exoerr.Field("expected", want.String()))
	}
	return e.Execute(ctx, p)
}

// Select evaluates a SELECT query and returns its solutions.
func (e *Engine) Select(ctx context.Context, q string) (*table.Table, error) {
	res, err := e.queryForm(ctx, q, semantic.Select)
	if err != nil {
		return nil, err
	}
	return res.Table, nil
}

// Construct evaluates a CONSTRUCT query and returns the built graph.
func (e *Engine) Construct(ctx context.Context, q string) ([]triple.Triple, error) {
	res, err := e.queryForm(ctx, q, semantic.Construct)
	if err != nil {
		return nil, err
	}
	return res.Triples, nil
}

// Ask evaluates an ASK query.
func (e *Engine) Ask(ctx context.Context, q string) (bool, error) {
	res, err := e.queryForm(ctx, q, semantic.Ask)
	if err != nil {
		return false, err
	}
	return res.Boolean, nil
}

// Describe evaluates a DESCRIBE query and returns the triples describing
// the resources.
func (e *Engine) Describe(ctx context.Context, q string) ([]triple.Triple, error) {
	res, err := e.queryForm(ctx, q, semantic.Describe)
	if err != nil {
		return nil, err
	}
	return res.Triples, nil
}

// QueryAll evaluates independent queries concurrently. Results keep the
// order of the queries. The first failure cancels the queries still running
// and is returned.
func (e *Engine) QueryAll(ctx context.Context, qs []string) ([]*planner.Result, error) {
	res := make([]*planner.Result, len(qs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, q := range qs {
		i, q := i, q
		g.Go(func() error {
			r, err := e.Query(gctx, q)
			if err != nil {
				return err
			}
			res[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
