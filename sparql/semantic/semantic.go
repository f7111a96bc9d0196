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

// Package semantic contains the abstract syntax tree built by the parser and
// the evaluation of the expressions it contains. It also provides the token
// conversions required to turn lexer tokens into exograph terms.
package semantic

import (
	"fmt"
	"strings"

	"github.com/google/exograph/term"
)

// Form describes the kind of query being represented.
type Form int8

const (
	// Select query.
	Select Form = iota
	// Construct query.
	Construct
	// Ask query.
	Ask
	// Describe query.
	Describe
)

// String provides a readable version of the Form.
func (f Form) String() string {
	switch f {
	case Select:
		return "SELECT"
	case Construct:
		return "CONSTRUCT"
	case Ask:
		return "ASK"
	case Describe:
		return "DESCRIBE"
	default:
		return "UNKNOWN"
	}
}

// Projection is one of the elements of a SELECT clause. Expr is nil for plain
// variables.
type Projection struct {
	Var  string
	Expr Expression
}

// OrderCondition is one of the elements of an ORDER BY clause.
type OrderCondition struct {
	Expr Expression
	Desc bool
}

// GroupCondition is one of the elements of a GROUP BY clause. Var is empty
// when the expression is not bound to a variable.
type GroupCondition struct {
	Expr Expression
	Var  string
}

// Query contains all the semantic information extracted while parsing a
// query.
type Query struct {
	Form     Form
	Base     string
	Prefixes map[string]string

	Distinct bool
	Reduced  bool
	// Star is set for SELECT * and DESCRIBE *.
	Star       bool
	Projection []Projection
	Template   []TriplePattern
	Describe   []term.Term

	// Where is nil only for DESCRIBE queries without a WHERE clause.
	Where *GroupPattern

	GroupBy []GroupCondition
	Having  []Expression
	OrderBy []OrderCondition
	// Limit is negative when no LIMIT clause was provided.
	Limit  int64
	Offset int64
}

// NewQuery returns an empty query of the provided form.
func NewQuery(f Form) *Query {
	return &Query{
		Form:     f,
		Prefixes: make(map[string]string),
		Limit:    -1,
	}
}

// HasAggregates returns true if the query groups its solutions, either
// explicitly or by using aggregates in its projection, HAVING or ORDER BY.
func (q *Query) HasAggregates() bool {
	if len(q.GroupBy) > 0 || len(q.Having) > 0 {
		return true
	}
	for _, p := range q.Projection {
		if p.Expr != nil && HasAggregate(p.Expr) {
			return true
		}
	}
	for _, o := range q.OrderBy {
		if HasAggregate(o.Expr) {
			return true
		}
	}
	return false
}

// TriplePattern is a triple whose positions may be variables. Path is set
// instead of P when the predicate is a property path.
type TriplePattern struct {
	S, P, O term.Term
	Path    *Path
}

// String returns a readable version of the pattern.
func (tp TriplePattern) String() string {
	p := tp.P.String()
	if tp.Path != nil {
		p = tp.Path.String()
	}
	return fmt.Sprintf("%s %s %s", tp.S, p, tp.O)
}

// PathOp describes the operator of a property path.
type PathOp int8

const (
	// PathLink is a plain predicate.
	PathLink PathOp = iota
	// PathSequence is p1/p2.
	PathSequence
	// PathAlternative is p1|p2.
	PathAlternative
	// PathInverse is ^p.
	PathInverse
	// PathZeroOrMore is p*.
	PathZeroOrMore
	// PathOneOrMore is p+.
	PathOneOrMore
	// PathZeroOrOne is p?.
	PathZeroOrOne
	// PathNegated is !p or !(p1|p2).
	PathNegated
)

var pathOpNames = map[PathOp]string{
	PathLink:        "link",
	PathSequence:    "seq",
	PathAlternative: "alt",
	PathInverse:     "inv",
	PathZeroOrMore:  "*",
	PathOneOrMore:   "+",
	PathZeroOrOne:   "?",
	PathNegated:     "!",
}

// Path is a property path expression.
type Path struct {
	Op   PathOp
	IRI  term.Term
	Args []*Path
}

// String returns the path as an S-expression.
func (p *Path) String() string {
	if p.Op == PathLink {
		return p.IRI.String()
	}
	parts := []string{pathOpNames[p.Op]}
	for _, a := range p.Args {
		parts = append(parts, a.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Element is one of the parts of a group graph pattern.
type Element interface {
	isElement()
}

// GroupPattern is the content of a pair of braces.
type GroupPattern struct {
	Elements []Element
}

// TriplesBlock is a run of adjacent triple patterns.
type TriplesBlock struct {
	Patterns []TriplePattern
}

// Optional is an OPTIONAL group.
type Optional struct {
	Group *GroupPattern
}

// Union is a list of alternative groups.
type Union struct {
	Groups []*GroupPattern
}

// Filter is a FILTER constraint. It applies to the whole enclosing group.
type Filter struct {
	Expr Expression
}

// Bind is a BIND(expr AS ?var) assignment.
type Bind struct {
	Expr Expression
	Var  string
}

// Unsupported is a graph pattern that is recognized by the parser but cannot
// be evaluated, such as MINUS, GRAPH or SERVICE.
type Unsupported struct {
	Name  string
	Group *GroupPattern
}

func (*GroupPattern) isElement() {}
func (*TriplesBlock) isElement() {}
func (*Optional) isElement()     {}
func (*Union) isElement()        {}
func (*Filter) isElement()       {}
func (*Bind) isElement()         {}
func (*Unsupported) isElement()  {}
