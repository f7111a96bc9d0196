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

// Package optimizer rewrites algebra trees into equivalent trees that are
// cheaper to evaluate.
package optimizer

import (
	"log/slog"

	"github.com/google/exograph/sparql/algebra"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/term"
)

// maxRounds bounds the number of rewriting rounds.
const maxRounds = 64

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithEstimator sets the estimator used to order basic graph patterns.
func WithEstimator(e Estimator) Option {
	return func(o *Optimizer) {
		if e != nil {
			o.est = e
		}
	}
}

// WithLogger sets the logger used to report the rewrites.
func WithLogger(l *slog.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// Optimizer applies constant folding, filter pushdown and join reordering
// until the tree no longer changes. It is safe for concurrent use.
type Optimizer struct {
	est    Estimator
	logger *slog.Logger
}

// New returns an optimizer ordering patterns by bound positions unless
// another estimator is provided.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{est: BoundPositions{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize returns the rewritten tree. The input tree is left untouched.
func (o *Optimizer) Optimize(op algebra.Op) algebra.Op {
	prev := op.String()
	for i := 0; i < maxRounds; i++ {
		op = o.round(op)
		cur := op.String()
		if cur == prev {
			return op
		}
		o.logger.Debug("optimizer rewrite", "round", i, "plan", cur)
		prev = cur
	}
	o.logger.Warn("optimizer did not reach a fixpoint", "rounds", maxRounds)
	return op
}

// OptimizeQuery optimizes the operator tree of a translated query.
func (o *Optimizer) OptimizeQuery(q *algebra.Query) *algebra.Query {
	res := *q
	res.Op = o.Optimize(q.Op)
	return &res
}

func (o *Optimizer) round(op algebra.Op) algebra.Op {
	op = rewrite(op, fold)
	op = rewrite(op, split)
	op = rewrite(op, pushdown)
	op = rewrite(op, mergeJoins)
	return rewrite(op, o.reorder)
}

// rewrite rebuilds the tree bottom-up applying fn to every node.
func rewrite(op algebra.Op, fn func(algebra.Op) algebra.Op) algebra.Op {
	switch o := op.(type) {
	case *algebra.Join:
		op = &algebra.Join{Left: rewrite(o.Left, fn), Right: rewrite(o.Right, fn)}
	case *algebra.LeftJoin:
		op = &algebra.LeftJoin{Left: rewrite(o.Left, fn), Right: rewrite(o.Right, fn), Expr: o.Expr}
	case *algebra.Union:
		op = &algebra.Union{Left: rewrite(o.Left, fn), Right: rewrite(o.Right, fn)}
	case *algebra.Filter:
		op = &algebra.Filter{Expr: o.Expr, Child: rewrite(o.Child, fn)}
	case *algebra.Extend:
		op = &algebra.Extend{Var: o.Var, Expr: o.Expr, Child: rewrite(o.Child, fn)}
	case *algebra.Project:
		op = &algebra.Project{Vars: o.Vars, Child: rewrite(o.Child, fn)}
	case *algebra.OrderBy:
		op = &algebra.OrderBy{Conds: o.Conds, Child: rewrite(o.Child, fn)}
	case *algebra.Slice:
		op = &algebra.Slice{Offset: o.Offset, Limit: o.Limit, Child: rewrite(o.Child, fn)}
	case *algebra.Distinct:
		op = &algebra.Distinct{Child: rewrite(o.Child, fn)}
	case *algebra.Group:
		op = &algebra.Group{Vars: o.Vars, Aggregates: o.Aggregates, Child: rewrite(o.Child, fn)}
	case *algebra.BGP:
		op = &algebra.BGP{Patterns: append([]storage.Pattern(nil), o.Patterns...)}
	}
	return fn(op)
}

// foldExpression replaces every variable free subexpression by its value.
// Subexpressions failing to evaluate are kept, so the error surfaces on
// every solution as it would have without folding.
func foldExpression(e semantic.Expression) semantic.Expression {
	if e == nil {
		return nil
	}
	return semantic.Transform(e, func(x semantic.Expression) semantic.Expression {
		if _, ok := x.(*semantic.Constant); ok || !semantic.IsConstant(x) {
			return x
		}
		v, err := x.Evaluate(nil)
		if err != nil {
			return x
		}
		return &semantic.Constant{Value: v}
	})
}

func fold(op algebra.Op) algebra.Op {
	switch o := op.(type) {
	case *algebra.Filter:
		e := foldExpression(o.Expr)
		if c, ok := e.(*semantic.Constant); ok {
			if b, err := semantic.EBV(c.Value); err == nil && b {
				return o.Child
			}
		}
		return &algebra.Filter{Expr: e, Child: o.Child}
	case *algebra.LeftJoin:
		e := foldExpression(o.Expr)
		if c, ok := e.(*semantic.Constant); ok {
			if b, err := semantic.EBV(c.Value); err == nil && b {
				e = nil
			}
		}
		return &algebra.LeftJoin{Left: o.Left, Right: o.Right, Expr: e}
	case *algebra.Extend:
		return &algebra.Extend{Var: o.Var, Expr: foldExpression(o.Expr), Child: o.Child}
	case *algebra.OrderBy:
		conds := make([]semantic.OrderCondition, len(o.Conds))
		for i, c := range o.Conds {
			conds[i] = semantic.OrderCondition{Expr: foldExpression(c.Expr), Desc: c.Desc}
		}
		return &algebra.OrderBy{Conds: conds, Child: o.Child}
	}
	return op
}

// split turns a filter on a conjunction into a chain of filters.
func split(op algebra.Op) algebra.Op {
	f, ok := op.(*algebra.Filter)
	if !ok {
		return op
	}
	b, ok := f.Expr.(*semantic.Binary)
	if !ok || b.Op != semantic.AND {
		return op
	}
	return split(&algebra.Filter{
		Expr:  b.Left,
		Child: split(&algebra.Filter{Expr: b.Right, Child: f.Child}),
	})
}

func contains(vs []string, v string) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}

// pushdown moves a filter below the operator it wraps when doing so keeps
// the same solutions.
func pushdown(op algebra.Op) algebra.Op {
	f, ok := op.(*algebra.Filter)
	if !ok {
		return op
	}
	vars := semantic.Variables(f.Expr)
	below := func(c algebra.Op) algebra.Op {
		return pushdown(&algebra.Filter{Expr: f.Expr, Child: c})
	}
	switch c := f.Child.(type) {
	case *algebra.Join:
		if algebra.ContainsAll(algebra.CertainVars(c.Left), vars) {
			return &algebra.Join{Left: below(c.Left), Right: c.Right}
		}
		if algebra.ContainsAll(algebra.CertainVars(c.Right), vars) {
			return &algebra.Join{Left: c.Left, Right: below(c.Right)}
		}
	case *algebra.LeftJoin:
		if algebra.ContainsAll(algebra.CertainVars(c.Left), vars) {
			return &algebra.LeftJoin{Left: below(c.Left), Right: c.Right, Expr: c.Expr}
		}
	case *algebra.Union:
		return &algebra.Union{Left: below(c.Left), Right: below(c.Right)}
	case *algebra.Extend:
		if !contains(vars, c.Var) {
			return &algebra.Extend{Var: c.Var, Expr: c.Expr, Child: below(c.Child)}
		}
	case *algebra.OrderBy:
		return &algebra.OrderBy{Conds: c.Conds, Child: below(c.Child)}
	case *algebra.Distinct:
		return &algebra.Distinct{Child: below(c.Child)}
	case *algebra.Project:
		for _, v := range vars {
			if !contains(c.Vars, v) {
				return op
			}
		}
		return &algebra.Project{Vars: c.Vars, Child: below(c.Child)}
	}
	return op
}

// mergeJoins merges joins of basic graph patterns and drops joins with the
// empty pattern.
func mergeJoins(op algebra.Op) algebra.Op {
	j, ok := op.(*algebra.Join)
	if !ok {
		return op
	}
	l, lok := j.Left.(*algebra.BGP)
	r, rok := j.Right.(*algebra.BGP)
	switch {
	case lok && rok:
		ps := make([]storage.Pattern, 0, len(l.Patterns)+len(r.Patterns))
		ps = append(ps, l.Patterns...)
		return &algebra.BGP{Patterns: append(ps, r.Patterns...)}
	case lok && len(l.Patterns) == 0:
		return j.Right
	case rok && len(r.Patterns) == 0:
		return j.Left
	}
	return op
}

// reorder sorts the patterns of a basic graph pattern greedily. Patterns
// sharing a variable with the already chosen ones are preferred over
// disconnected ones, then the estimator decides. Ties keep the source order.
func (o *Optimizer) reorder(op algebra.Op) algebra.Op {
	b, ok := op.(*algebra.BGP)
	if !ok || len(b.Patterns) < 2 {
		return op
	}
	rest := append([]storage.Pattern(nil), b.Patterns...)
	res := make([]storage.Pattern, 0, len(rest))
	bound := make(map[string]bool)
	for len(rest) > 0 {
		best := 0
		bestConn, bestScore := false, 0.0
		for i, p := range rest {
			conn := len(res) == 0 || connected(p, bound)
			score := o.est.Estimate(p, bound)
			if i == 0 || (conn && !bestConn) || (conn == bestConn && score < bestScore) {
				best, bestConn, bestScore = i, conn, score
			}
		}
		p := rest[best]
		res = append(res, p)
		rest = append(rest[:best], rest[best+1:]...)
		for _, v := range algebra.PatternVars(p) {
			bound[v] = true
		}
	}
	return &algebra.BGP{Patterns: res}
}

func connected(p storage.Pattern, bound map[string]bool) bool {
	for _, t := range [3]term.Term{p.S, p.P, p.O} {
		if t.IsVariable() && bound[t.Value()] {
			return true
		}
	}
	return false
}
