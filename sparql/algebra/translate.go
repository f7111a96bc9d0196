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

package algebra

import (
	"strconv"
	"strings"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/term"
)

func unsupported(construct, msg string) error {
	return exoerr.New(exoerr.CodeQueryUnsupported, msg, exoerr.Field("construct", construct))
}

// Unit returns the operator producing a single empty solution.
func Unit() Op {
	return &BGP{}
}

// Query is a translated query ready to be evaluated.
type Query struct {
	Form semantic.Form
	Op   Op
	// Template holds the CONSTRUCT triples. Blank nodes are kept as such and
	// renamed for every solution.
	Template []storage.Pattern
	// Describe holds the DESCRIBE targets, either resources or variables.
	Describe []term.Term
}

// String returns the S-expression of the query operator tree.
func (q *Query) String() string {
	return q.Op.String()
}

// Translate lowers a parsed query into an algebra query. The solution
// modifiers wrap the pattern in this order: group, having, select
// expressions, order by, project, distinct and slice.
func Translate(q *semantic.Query) (*Query, error) {
	op, err := TranslateOp(q)
	if err != nil {
		return nil, err
	}
	res := &Query{Form: q.Form, Op: op, Describe: q.Describe}
	if q.Form == semantic.Describe && q.Star {
		for _, v := range Vars(op) {
			if tv, err := term.NewVariable(v); err == nil {
				res.Describe = append(res.Describe, tv)
			}
		}
	}
	for _, tp := range q.Template {
		res.Template = append(res.Template, storage.Pattern{S: tp.S, P: tp.P, O: tp.O})
	}
	return res, nil
}

// TranslateOp returns the operator tree computing the solutions of q.
func TranslateOp(q *semantic.Query) (Op, error) {
	t := &translator{}
	var op Op = Unit()
	if q.Where != nil {
		var err error
		if op, err = t.group(q.Where); err != nil {
			return nil, err
		}
	}
	if q.Form == semantic.Select {
		return t.selectModifiers(q, op)
	}
	if q.HasAggregates() {
		return nil, unsupported("GROUP BY", "grouping is only supported by SELECT queries")
	}
	op, err := t.orderBy(q, op)
	if err != nil {
		return nil, err
	}
	return slice(q, op), nil
}

type translator struct {
	aggs []AggregateBinding
	// aggVars maps the String of an aggregate to its variable.
	aggVars map[string]string
}

func join(l, r Op) Op {
	if l == nil {
		return r
	}
	return &Join{Left: l, Right: r}
}

// group translates a group graph pattern. Adjacent triples, ignoring
// filters, become a single BGP; the filters of the group are placed once
// the whole group is translated.
func (t *translator) group(g *semantic.GroupPattern) (Op, error) {
	var (
		cur     Op
		last    *BGP
		filters []semantic.Expression
	)
	for _, el := range g.Elements {
		if f, ok := el.(*semantic.Filter); ok {
			if err := validate(f.Expr, false); err != nil {
				return nil, err
			}
			filters = append(filters, f.Expr)
			continue
		}
		if tb, ok := el.(*semantic.TriplesBlock); ok {
			ps, err := patterns(tb.Patterns)
			if err != nil {
				return nil, err
			}
			if last != nil {
				last.Patterns = append(last.Patterns, ps...)
				continue
			}
			last = &BGP{Patterns: ps}
			cur = join(cur, last)
			continue
		}
		last = nil
		switch e := el.(type) {
		case *semantic.GroupPattern:
			sub, err := t.group(e)
			if err != nil {
				return nil, err
			}
			cur = join(cur, sub)
		case *semantic.Union:
			var u Op
			for _, g := range e.Groups {
				sub, err := t.group(g)
				if err != nil {
					return nil, err
				}
				if u == nil {
					u = sub
				} else {
					u = &Union{Left: u, Right: sub}
				}
			}
			cur = join(cur, u)
		case *semantic.Optional:
			sub, err := t.group(e.Group)
			if err != nil {
				return nil, err
			}
			if cur == nil {
				cur = Unit()
			}
			lj := &LeftJoin{Left: cur, Right: sub}
			// The filters of the optional group constrain the pairing.
			if f, ok := sub.(*Filter); ok {
				lj.Right, lj.Expr = f.Child, f.Expr
			}
			cur = lj
		case *semantic.Bind:
			if err := validate(e.Expr, false); err != nil {
				return nil, err
			}
			if cur == nil {
				cur = Unit()
			}
			for _, v := range Vars(cur) {
				if v == e.Var {
					return nil, unsupported("BIND", "BIND cannot assign the variable ?"+e.Var+" which is already in scope")
				}
			}
			cur = &Extend{Var: e.Var, Expr: e.Expr, Child: cur}
		case *semantic.Unsupported:
			return nil, unsupported(e.Name, e.Name+" is not supported")
		default:
			return nil, unsupported("pattern", "unknown graph pattern")
		}
	}
	if cur == nil {
		cur = Unit()
	}
	for _, f := range filters {
		cur = PlaceFilter(cur, f)
	}
	return cur, nil
}

// PlaceFilter wraps the smallest subtree of op that certainly binds every
// variable of e with a filter on e. It only descends through the operands of
// a join and the left operand of a left join, where filtering earlier
// cannot change the result.
func PlaceFilter(op Op, e semantic.Expression) Op {
	return placeFilter(op, e, semantic.Variables(e))
}

func placeFilter(op Op, e semantic.Expression, vars []string) Op {
	switch o := op.(type) {
	case *Join:
		if ContainsAll(CertainVars(o.Left), vars) {
			return &Join{Left: placeFilter(o.Left, e, vars), Right: o.Right}
		}
		if ContainsAll(CertainVars(o.Right), vars) {
			return &Join{Left: o.Left, Right: placeFilter(o.Right, e, vars)}
		}
	case *LeftJoin:
		if ContainsAll(CertainVars(o.Left), vars) {
			return &LeftJoin{Left: placeFilter(o.Left, e, vars), Right: o.Right, Expr: o.Expr}
		}
	}
	return &Filter{Expr: e, Child: op}
}

// patterns converts triple patterns into storage patterns. Blank nodes become
// hidden variables.
func patterns(tps []semantic.TriplePattern) ([]storage.Pattern, error) {
	res := make([]storage.Pattern, 0, len(tps))
	for _, tp := range tps {
		if tp.Path != nil {
			return nil, unsupported("property path", "property paths are not supported: "+tp.Path.String())
		}
		res = append(res, storage.Pattern{S: hide(tp.S), P: hide(tp.P), O: hide(tp.O)})
	}
	return res, nil
}

func hide(t term.Term) term.Term {
	if t.IsBlank() {
		return term.NewHiddenVariable("b" + t.Value())
	}
	return t
}

// validate rejects expressions that cannot be evaluated. Aggregates are only
// accepted where grouping happens.
func validate(e semantic.Expression, aggregates bool) error {
	var err error
	semantic.Walk(e, func(x semantic.Expression) bool {
		if err != nil {
			return false
		}
		switch v := x.(type) {
		case *semantic.Exists:
			err = unsupported("EXISTS", "EXISTS is not supported")
		case *semantic.Aggregate:
			if !aggregates {
				err = unsupported(v.Func, "aggregates can only be used in SELECT, HAVING and ORDER BY")
			} else if semantic.HasAggregate(v.Arg) {
				err = unsupported(v.Func, "aggregates cannot be nested")
			}
		case *semantic.Call:
			err = semantic.ValidateCall(v)
		}
		return err == nil
	})
	return err
}

// replaceAggregates replaces every aggregate by a hidden variable bound by
// the group operator. Equal aggregates share the same variable.
func (t *translator) replaceAggregates(e semantic.Expression) semantic.Expression {
	if t.aggVars == nil {
		t.aggVars = make(map[string]string)
	}
	return semantic.Transform(e, func(x semantic.Expression) semantic.Expression {
		a, ok := x.(*semantic.Aggregate)
		if !ok {
			return x
		}
		key := a.String()
		v, ok := t.aggVars[key]
		if !ok {
			v = term.NewHiddenVariable("agg" + strconv.Itoa(len(t.aggs))).Value()
			t.aggVars[key] = v
			t.aggs = append(t.aggs, AggregateBinding{Var: v, Aggregate: a})
		}
		return &semantic.Variable{Name: v}
	})
}

func (t *translator) selectModifiers(q *semantic.Query, op Op) (Op, error) {
	var err error
	for _, p := range q.Projection {
		if p.Expr != nil {
			if err := validate(p.Expr, true); err != nil {
				return nil, err
			}
		}
	}
	for _, h := range q.Having {
		if err := validate(h, true); err != nil {
			return nil, err
		}
	}
	for _, o := range q.OrderBy {
		if err := validate(o.Expr, true); err != nil {
			return nil, err
		}
	}
	if q.HasAggregates() {
		if op, err = t.grouping(q, op); err != nil {
			return nil, err
		}
	} else {
		for _, p := range q.Projection {
			if p.Expr == nil {
				continue
			}
			for _, v := range Vars(op) {
				if v == p.Var {
					return nil, unsupported("AS", "the variable ?"+p.Var+" is already in scope")
				}
			}
			op = &Extend{Var: p.Var, Expr: p.Expr, Child: op}
		}
	}
	if op, err = t.orderBy(q, op); err != nil {
		return nil, err
	}
	var vars []string
	if q.Star {
		for _, v := range Vars(op) {
			if !strings.HasPrefix(v, ".") {
				vars = append(vars, v)
			}
		}
	} else {
		for _, p := range q.Projection {
			vars = append(vars, p.Var)
		}
	}
	op = &Project{Vars: vars, Child: op}
	if q.Distinct {
		op = &Distinct{Child: op}
	}
	return slice(q, op), nil
}

// grouping adds the group operator, the HAVING filter, and the extensions
// computing the projected expressions over the groups.
func (t *translator) grouping(q *semantic.Query, op Op) (Op, error) {
	if q.Star {
		return nil, unsupported("SELECT *", "SELECT * cannot be used with grouping")
	}
	var gvars []string
	for _, gc := range q.GroupBy {
		if v, ok := gc.Expr.(*semantic.Variable); ok && gc.Var == "" {
			gvars = append(gvars, v.Name)
			continue
		}
		if gc.Var == "" {
			return nil, unsupported("GROUP BY expression", "GROUP BY expressions must be bound with AS")
		}
		if err := validate(gc.Expr, false); err != nil {
			return nil, err
		}
		op = &Extend{Var: gc.Var, Expr: gc.Expr, Child: op}
		gvars = append(gvars, gc.Var)
	}
	grouped := make(map[string]bool)
	for _, v := range gvars {
		grouped[v] = true
	}
	var projected []*Extend
	for _, p := range q.Projection {
		if p.Expr == nil {
			if !grouped[p.Var] {
				return nil, unsupported("ungrouped variable", "the variable ?"+p.Var+" is neither grouped nor aggregated")
			}
			continue
		}
		e := t.replaceAggregates(p.Expr)
		projected = append(projected, &Extend{Var: p.Var, Expr: e})
		grouped[p.Var] = true
	}
	var having []semantic.Expression
	for _, h := range q.Having {
		having = append(having, t.replaceAggregates(h))
	}
	// Aggregates of the ORDER BY clause must be computed by the group too.
	for _, o := range q.OrderBy {
		t.replaceAggregates(o.Expr)
	}
	for _, a := range t.aggs {
		grouped[a.Var] = true
	}
	for _, e := range append(having, extendExprs(projected)...) {
		for _, v := range semantic.Variables(e) {
			if !grouped[v] {
				return nil, unsupported("ungrouped variable", "the variable ?"+v+" is neither grouped nor aggregated")
			}
		}
	}
	op = &Group{Vars: gvars, Aggregates: t.aggs, Child: op}
	for _, h := range having {
		op = &Filter{Expr: h, Child: op}
	}
	for _, p := range projected {
		p.Child = op
		op = p
	}
	return op, nil
}

func extendExprs(es []*Extend) []semantic.Expression {
	res := make([]semantic.Expression, len(es))
	for i, e := range es {
		res[i] = e.Expr
	}
	return res
}

func (t *translator) orderBy(q *semantic.Query, op Op) (Op, error) {
	if len(q.OrderBy) == 0 {
		return op, nil
	}
	conds := make([]semantic.OrderCondition, len(q.OrderBy))
	for i, o := range q.OrderBy {
		if err := validate(o.Expr, t.aggVars != nil); err != nil {
			return nil, err
		}
		e := o.Expr
		if t.aggVars != nil {
			e = t.replaceAggregates(e)
		}
		conds[i] = semantic.OrderCondition{Expr: e, Desc: o.Desc}
	}
	return &OrderBy{Conds: conds, Child: op}, nil
}

func slice(q *semantic.Query, op Op) Op {
	if q.Offset > 0 || q.Limit >= 0 {
		return &Slice{Offset: q.Offset, Limit: q.Limit, Child: op}
	}
	return op
}
