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

// Package algebra contains the SPARQL algebra operators evaluated by the
// planner and the translation of parsed queries into operator trees.
package algebra

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/term"
)

// Op is a node of the algebra tree. String returns the S-expression of the
// whole subtree; two trees are equivalent iff their S-expressions match.
type Op interface {
	fmt.Stringer
	isOp()
}

// BGP is a basic graph pattern. Positions holding variables are unbound.
// The empty BGP produces a single empty solution.
type BGP struct {
	Patterns []storage.Pattern
}

// Join produces the merge of every compatible pair of solutions.
type Join struct {
	Left, Right Op
}

// LeftJoin is a Join that also keeps the left solutions without compatible
// right solution. Expr, if present, is evaluated on compatible pairs only.
type LeftJoin struct {
	Left, Right Op
	Expr        semantic.Expression
}

// Union concatenates the solutions of both sides.
type Union struct {
	Left, Right Op
}

// Filter keeps the solutions for which Expr is true.
type Filter struct {
	Expr  semantic.Expression
	Child Op
}

// Extend binds Var to the value of Expr. Var is left unbound when the
// expression fails.
type Extend struct {
	Var   string
	Expr  semantic.Expression
	Child Op
}

// Project restricts the solutions to the provided variables.
type Project struct {
	Vars  []string
	Child Op
}

// OrderBy sorts the solutions. Sorting is stable.
type OrderBy struct {
	Conds []semantic.OrderCondition
	Child Op
}

// Slice skips Offset solutions and keeps at most Limit of the remaining ones.
// A negative Limit keeps them all.
type Slice struct {
	Offset, Limit int64
	Child         Op
}

// Distinct drops duplicated solutions.
type Distinct struct {
	Child Op
}

// AggregateBinding binds the value of an aggregate computed over a group to a
// variable.
type AggregateBinding struct {
	Var       string
	Aggregate *semantic.Aggregate
}

// Group partitions the solutions by the values of Vars and computes the
// aggregates of each partition.
type Group struct {
	Vars       []string
	Aggregates []AggregateBinding
	Child      Op
}

func (*BGP) isOp()      {}
func (*Join) isOp()     {}
func (*LeftJoin) isOp() {}
func (*Union) isOp()    {}
func (*Filter) isOp()   {}
func (*Extend) isOp()   {}
func (*Project) isOp()  {}
func (*OrderBy) isOp()  {}
func (*Slice) isOp()    {}
func (*Distinct) isOp() {}
func (*Group) isOp()    {}

func (b *BGP) String() string {
	var sb strings.Builder
	sb.WriteString("(bgp")
	for _, p := range b.Patterns {
		fmt.Fprintf(&sb, " (%s %s %s)", p.S, p.P, p.O)
	}
	sb.WriteString(")")
	return sb.String()
}

func (j *Join) String() string {
	return fmt.Sprintf("(join %s %s)", j.Left, j.Right)
}

func (l *LeftJoin) String() string {
	if l.Expr == nil {
		return fmt.Sprintf("(leftjoin %s %s)", l.Left, l.Right)
	}
	return fmt.Sprintf("(leftjoin %s %s %s)", l.Left, l.Right, l.Expr)
}

func (u *Union) String() string {
	return fmt.Sprintf("(union %s %s)", u.Left, u.Right)
}

func (f *Filter) String() string {
	return fmt.Sprintf("(filter %s %s)", f.Expr, f.Child)
}

func (e *Extend) String() string {
	return fmt.Sprintf("(extend (?%s %s) %s)", e.Var, e.Expr, e.Child)
}

func varList(vs []string) string {
	res := make([]string, len(vs))
	for i, v := range vs {
		res[i] = "?" + v
	}
	return "(" + strings.Join(res, " ") + ")"
}

func (p *Project) String() string {
	return fmt.Sprintf("(project %s %s)", varList(p.Vars), p.Child)
}

func (o *OrderBy) String() string {
	conds := make([]string, len(o.Conds))
	for i, c := range o.Conds {
		conds[i] = c.Expr.String()
		if c.Desc {
			conds[i] = "(desc " + conds[i] + ")"
		}
	}
	return fmt.Sprintf("(orderby (%s) %s)", strings.Join(conds, " "), o.Child)
}

func (s *Slice) String() string {
	limit := "_"
	if s.Limit >= 0 {
		limit = strconv.FormatInt(s.Limit, 10)
	}
	return fmt.Sprintf("(slice %d %s %s)", s.Offset, limit, s.Child)
}

func (d *Distinct) String() string {
	return fmt.Sprintf("(distinct %s)", d.Child)
}

func (g *Group) String() string {
	aggs := make([]string, len(g.Aggregates))
	for i, a := range g.Aggregates {
		aggs[i] = fmt.Sprintf("(?%s %s)", a.Var, a.Aggregate)
	}
	return fmt.Sprintf("(group %s (%s) %s)", varList(g.Vars), strings.Join(aggs, " "), g.Child)
}

// Children returns the direct operands of op.
func Children(op Op) []Op {
	switch o := op.(type) {
	case *Join:
		return []Op{o.Left, o.Right}
	case *LeftJoin:
		return []Op{o.Left, o.Right}
	case *Union:
		return []Op{o.Left, o.Right}
	case *Filter:
		return []Op{o.Child}
	case *Extend:
		return []Op{o.Child}
	case *Project:
		return []Op{o.Child}
	case *OrderBy:
		return []Op{o.Child}
	case *Slice:
		return []Op{o.Child}
	case *Distinct:
		return []Op{o.Child}
	case *Group:
		return []Op{o.Child}
	}
	return nil
}

// PatternVars returns the variables of a pattern in subject, predicate,
// object order.
func PatternVars(p storage.Pattern) []string {
	var res []string
	for _, t := range [3]term.Term{p.S, p.P, p.O} {
		if t.IsVariable() {
			res = append(res, t.Value())
		}
	}
	return res
}

// varSet is an insertion ordered set of variable names.
type varSet struct {
	order []string
	set   map[string]bool
}

func newVarSet() *varSet {
	return &varSet{set: make(map[string]bool)}
}

func (s *varSet) add(vs ...string) {
	for _, v := range vs {
		if !s.set[v] {
			s.set[v] = true
			s.order = append(s.order, v)
		}
	}
}

// CertainVars returns the variables bound in every solution produced by op.
func CertainVars(op Op) map[string]bool {
	res := make(map[string]bool)
	switch o := op.(type) {
	case *BGP:
		for _, p := range o.Patterns {
			for _, v := range PatternVars(p) {
				res[v] = true
			}
		}
	case *Join:
		for v := range CertainVars(o.Left) {
			res[v] = true
		}
		for v := range CertainVars(o.Right) {
			res[v] = true
		}
	case *LeftJoin:
		return CertainVars(o.Left)
	case *Union:
		r := CertainVars(o.Right)
		for v := range CertainVars(o.Left) {
			if r[v] {
				res[v] = true
			}
		}
	case *Project:
		c := CertainVars(o.Child)
		for _, v := range o.Vars {
			if c[v] {
				res[v] = true
			}
		}
	case *Group:
		c := CertainVars(o.Child)
		for _, v := range o.Vars {
			if c[v] {
				res[v] = true
			}
		}
	case *Filter:
		return CertainVars(o.Child)
	case *Extend:
		return CertainVars(o.Child)
	case *OrderBy:
		return CertainVars(o.Child)
	case *Slice:
		return CertainVars(o.Child)
	case *Distinct:
		return CertainVars(o.Child)
	}
	return res
}

// Vars returns every variable op may bind, in order of appearance.
func Vars(op Op) []string {
	s := newVarSet()
	collectVars(op, s)
	return s.order
}

func collectVars(op Op, s *varSet) {
	switch o := op.(type) {
	case *BGP:
		for _, p := range o.Patterns {
			s.add(PatternVars(p)...)
		}
	case *Extend:
		collectVars(o.Child, s)
		s.add(o.Var)
	case *Project:
		s.add(o.Vars...)
	case *Group:
		s.add(o.Vars...)
		for _, a := range o.Aggregates {
			s.add(a.Var)
		}
	default:
		for _, c := range Children(op) {
			collectVars(c, s)
		}
	}
}

// ContainsAll returns true if every variable in vs is in set.
func ContainsAll(set map[string]bool, vs []string) bool {
	for _, v := range vs {
		if !set[v] {
			return false
		}
	}
	return true
}
