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

// Package planner contains the machinery evaluating translated queries
// against a triple source.
package planner

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/algebra"
	"github.com/google/exograph/sparql/planner/filter"
	"github.com/google/exograph/sparql/planner/tracer"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/triple"
)

// Result holds the outcome of a query. Which fields are set depends on the
// query form: Vars and Table for SELECT, Triples for CONSTRUCT and DESCRIBE,
// and Boolean for ASK.
type Result struct {
	Form    semantic.Form
	Vars    []string
	Table   *table.Table
	Triples []triple.Triple
	Boolean bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithTracer sets the writer receiving the per operator trace.
func WithTracer(w io.Writer) Option {
	return func(e *Executor) {
		e.tracer = w
	}
}

// WithLogger sets the logger used by the executor.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithoutCache makes the executor use Match even if the source memoizes
// pattern results.
func WithoutCache() Option {
	return func(e *Executor) {
		e.fetch = e.source.Match
	}
}

// querier is implemented by sources memoizing pattern results.
type querier interface {
	Query(p storage.Pattern) []triple.Triple
}

// Executor evaluates algebra queries. It holds no per query state and can
// be shared by concurrent queries if the source allows concurrent reads.
type Executor struct {
	source storage.Matcher
	fetch  func(storage.Pattern) []triple.Triple
	tracer io.Writer
	logger *slog.Logger
}

// New returns an executor reading triples from the provided source. Sources
// implementing Query have their memoized results used.
func New(source storage.Matcher, opts ...Option) *Executor {
	e := &Executor{
		source: source,
		fetch:  source.Match,
		logger: slog.Default(),
	}
	if q, ok := source.(querier); ok {
		e.fetch = q.Query
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// interrupted returns an error if the context is done.
func interrupted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return exoerr.Wrap(err, exoerr.CodeQueryTimeout, "query evaluation interrupted")
	}
	return nil
}

// Execute evaluates the query and shapes the result for its form.
func (e *Executor) Execute(ctx context.Context, q *algebra.Query) (*Result, error) {
	rows, err := e.Eval(ctx, q.Op)
	if err != nil {
		return nil, err
	}
	res := &Result{Form: q.Form}
	switch q.Form {
	case semantic.Select:
		res.Vars = resultVars(q.Op)
		t, err := table.New(res.Vars)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			t.AddRow(r)
		}
		res.Table = t
	case semantic.Ask:
		res.Boolean = len(rows) > 0
	case semantic.Construct:
		res.Triples = construct(q.Template, rows)
	case semantic.Describe:
		res.Triples, err = e.describe(ctx, q.Describe, rows)
		if err != nil {
			return nil, err
		}
	default:
		return nil, exoerr.Errorf(exoerr.CodeQueryUnsupported, "unknown query form %v", q.Form)
	}
	return res, nil
}

// resultVars returns the variables reported by a SELECT query.
func resultVars(op algebra.Op) []string {
	for {
		switch o := op.(type) {
		case *algebra.Project:
			return o.Vars
		case *algebra.Slice:
			op = o.Child
		case *algebra.Distinct:
			op = o.Child
		default:
			var vs []string
			for _, v := range algebra.Vars(op) {
				if !strings.HasPrefix(v, ".") {
					vs = append(vs, v)
				}
			}
			return vs
		}
	}
}

// Eval returns the solutions of the operator tree.
func (e *Executor) Eval(ctx context.Context, op algebra.Op) ([]table.Row, error) {
	if err := interrupted(ctx); err != nil {
		return nil, err
	}
	if e.tracer == nil {
		return e.eval(ctx, op)
	}
	// Children add their output to the input count of their parent.
	parent, _ := ctx.Value(inputKey{}).(*int)
	in := 0
	start := time.Now()
	rows, err := e.eval(context.WithValue(ctx, inputKey{}, &in), op)
	if err != nil {
		return nil, err
	}
	if parent != nil {
		*parent += len(rows)
	}
	tracer.Trace(e.tracer, func() tracer.Event {
		return tracer.Event{Op: opName(op), In: in, Out: len(rows), Elapsed: time.Since(start)}
	})
	return rows, nil
}

type inputKey struct{}

func opName(op algebra.Op) string {
	s := op.String()
	if i := strings.IndexByte(s[1:], ' '); i >= 0 {
		return s[1 : i+1]
	}
	return strings.Trim(s, "()")
}

func (e *Executor) eval(ctx context.Context, op algebra.Op) ([]table.Row, error) {
	switch o := op.(type) {
	case *algebra.BGP:
		return e.bgp(ctx, o)
	case *algebra.Join:
		l, r, err := e.evalBoth(ctx, o.Left, o.Right)
		if err != nil {
			return nil, err
		}
		return join(l, r, sharedVars(o.Left, o.Right), nil, false), nil
	case *algebra.LeftJoin:
		l, r, err := e.evalBoth(ctx, o.Left, o.Right)
		if err != nil {
			return nil, err
		}
		return join(l, r, sharedVars(o.Left, o.Right), o.Expr, true), nil
	case *algebra.Union:
		l, r, err := e.evalBoth(ctx, o.Left, o.Right)
		if err != nil {
			return nil, err
		}
		return append(l, r...), nil
	case *algebra.Filter:
		rows, err := e.Eval(ctx, o.Child)
		if err != nil {
			return nil, err
		}
		kept, stats := filter.Apply(o.Expr, rows)
		if stats.Errors() > 0 {
			e.logger.Debug("filter dropped solutions on evaluation errors",
				"filter", o.Expr.String(), "unbound", stats.Unbound, "type_errors", stats.TypeErrors)
		}
		return kept, nil
	case *algebra.Extend:
		rows, err := e.Eval(ctx, o.Child)
		if err != nil {
			return nil, err
		}
		return extend(rows, o.Var, o.Expr), nil
	case *algebra.Project:
		rows, err := e.Eval(ctx, o.Child)
		if err != nil {
			return nil, err
		}
		return project(rows, o.Vars), nil
	case *algebra.OrderBy:
		rows, err := e.Eval(ctx, o.Child)
		if err != nil {
			return nil, err
		}
		return orderBy(rows, o.Conds), nil
	case *algebra.Slice:
		rows, err := e.Eval(ctx, o.Child)
		if err != nil {
			return nil, err
		}
		return slice(rows, o.Offset, o.Limit), nil
	case *algebra.Distinct:
		rows, err := e.Eval(ctx, o.Child)
		if err != nil {
			return nil, err
		}
		return distinct(rows, algebra.Vars(o.Child)), nil
	case *algebra.Group:
		rows, err := e.Eval(ctx, o.Child)
		if err != nil {
			return nil, err
		}
		return group(rows, o.Vars, o.Aggregates), nil
	}
	return nil, exoerr.Errorf(exoerr.CodeQueryUnsupported, "planner cannot evaluate operator %s", op)
}

func (e *Executor) evalBoth(ctx context.Context, l, r algebra.Op) ([]table.Row, []table.Row, error) {
	lrs, err := e.Eval(ctx, l)
	if err != nil {
		return nil, nil, err
	}
	rrs, err := e.Eval(ctx, r)
	if err != nil {
		return nil, nil, err
	}
	return lrs, rrs, nil
}

// bgp evaluates the patterns in order, extending every solution found so far
// with the triples matching the pattern once its bound variables are
// substituted.
func (e *Executor) bgp(ctx context.Context, b *algebra.BGP) ([]table.Row, error) {
	rows := []table.Row{{}}
	for _, p := range b.Patterns {
		if err := interrupted(ctx); err != nil {
			return nil, err
		}
		var next []table.Row
		for _, r := range rows {
			next = append(next, e.extendWith(p, r)...)
		}
		rows = next
		if len(rows) == 0 {
			break
		}
	}
	return rows, nil
}
