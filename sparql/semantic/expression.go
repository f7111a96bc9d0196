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

package semantic

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/term"
)

// Expression is a SPARQL expression. Evaluate computes its value against the
// provided solution; errors are either unbound variable or type errors, and
// the caller decides how to recover from them.
type Expression interface {
	fmt.Stringer
	Evaluate(r table.Row) (term.Term, error)
}

// OP represents one of the operators supported by expressions.
type OP int8

const (
	// OR logical operator.
	OR OP = iota
	// AND logical operator.
	AND
	// EQ equal operator.
	EQ
	// NEQ not equal operator.
	NEQ
	// LT less than operator.
	LT
	// GT greater than operator.
	GT
	// LTE less than or equal operator.
	LTE
	// GTE greater than or equal operator.
	GTE
	// ADD arithmetic operator.
	ADD
	// SUB arithmetic operator.
	SUB
	// MUL arithmetic operator.
	MUL
	// DIV arithmetic operator.
	DIV
	// NOT logical negation.
	NOT
	// NEG arithmetic negation.
	NEG
	// POS unary plus.
	POS
)

// String returns a readable string of the operator.
func (o OP) String() string {
	switch o {
	case OR:
		return "||"
	case AND:
		return "&&"
	case EQ:
		return "="
	case NEQ:
		return "!="
	case LT:
		return "<"
	case GT:
		return ">"
	case LTE:
		return "<="
	case GTE:
		return ">="
	case ADD, POS:
		return "+"
	case SUB, NEG:
		return "-"
	case MUL:
		return "*"
	case DIV:
		return "/"
	case NOT:
		return "!"
	default:
		return "@UNKNOWN@"
	}
}

// Constant is a fixed term.
type Constant struct {
	Value term.Term
}

// Variable references the value bound to a variable.
type Variable struct {
	Name string
}

// Unary applies NOT, NEG or POS to its argument.
type Unary struct {
	Op  OP
	Arg Expression
}

// Binary applies a logical, relational or arithmetic operator.
type Binary struct {
	Op          OP
	Left, Right Expression
}

// In is the IN and NOT IN operator.
type In struct {
	Arg     Expression
	List    []Expression
	Negated bool
}

// Call is a built-in function call or a function named by an IRI. Built-in
// names are upper cased.
type Call struct {
	Func string
	IRI  bool
	Args []Expression
}

// Aggregate is one of the set functions computed over a group. Arg is nil
// for COUNT(*).
type Aggregate struct {
	Func      string
	Distinct  bool
	Arg       Expression
	Separator string
}

// Exists is the EXISTS and NOT EXISTS filter.
type Exists struct {
	Group   *GroupPattern
	Negated bool
}

func (c *Constant) String() string { return c.Value.String() }

func (v *Variable) String() string { return "?" + v.Name }

func (u *Unary) String() string {
	return fmt.Sprintf("(%s %s)", u.Op, u.Arg)
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Op, b.Left, b.Right)
}

func (in *In) String() string {
	op := "in"
	if in.Negated {
		op = "notin"
	}
	return fmt.Sprintf("(%s %s%s)", op, in.Arg, joinExpressions(in.List))
}

func (c *Call) String() string {
	name := c.Func
	if c.IRI {
		name = "<" + c.Func + ">"
	}
	return fmt.Sprintf("(%s%s)", name, joinExpressions(c.Args))
}

func (a *Aggregate) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(strings.ToLower(a.Func))
	if a.Distinct {
		b.WriteString(" distinct")
	}
	if a.Arg == nil {
		b.WriteString(" *")
	} else {
		b.WriteString(" ")
		b.WriteString(a.Arg.String())
	}
	if a.Func == "GROUP_CONCAT" {
		b.WriteString(" separator=")
		b.WriteString(strconv.Quote(a.Separator))
	}
	b.WriteString(")")
	return b.String()
}

func (e *Exists) String() string {
	if e.Negated {
		return "(notexists {...})"
	}
	return "(exists {...})"
}

func joinExpressions(es []Expression) string {
	var b strings.Builder
	for _, e := range es {
		b.WriteString(" ")
		b.WriteString(e.String())
	}
	return b.String()
}

// Children returns the direct sub expressions of e.
func Children(e Expression) []Expression {
	switch v := e.(type) {
	case *Unary:
		return []Expression{v.Arg}
	case *Binary:
		return []Expression{v.Left, v.Right}
	case *In:
		return append([]Expression{v.Arg}, v.List...)
	case *Call:
		return v.Args
	case *Aggregate:
		if v.Arg != nil {
			return []Expression{v.Arg}
		}
	}
	return nil
}

// Walk visits e and its sub expressions in depth first order. Children of an
// expression are only visited if fn returns true.
func Walk(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, fn)
	}
}

// Transform rebuilds e bottom up, replacing every node by the result of fn.
// The original expression is never modified.
func Transform(e Expression, fn func(Expression) Expression) Expression {
	if e == nil {
		return nil
	}
	var res Expression
	switch v := e.(type) {
	case *Unary:
		res = &Unary{Op: v.Op, Arg: Transform(v.Arg, fn)}
	case *Binary:
		res = &Binary{Op: v.Op, Left: Transform(v.Left, fn), Right: Transform(v.Right, fn)}
	case *In:
		list := make([]Expression, len(v.List))
		for i, l := range v.List {
			list[i] = Transform(l, fn)
		}
		res = &In{Arg: Transform(v.Arg, fn), List: list, Negated: v.Negated}
	case *Call:
		args := make([]Expression, len(v.Args))
		for i, a := range v.Args {
			args[i] = Transform(a, fn)
		}
		res = &Call{Func: v.Func, IRI: v.IRI, Args: args}
	case *Aggregate:
		res = &Aggregate{Func: v.Func, Distinct: v.Distinct, Arg: Transform(v.Arg, fn), Separator: v.Separator}
	default:
		res = e
	}
	return fn(res)
}

// Variables returns the sorted names of the variables referenced by e.
func Variables(e Expression) []string {
	m := make(map[string]bool)
	Walk(e, func(x Expression) bool {
		if v, ok := x.(*Variable); ok {
			m[v.Name] = true
		}
		return true
	})
	res := make([]string, 0, len(m))
	for v := range m {
		res = append(res, v)
	}
	sort.Strings(res)
	return res
}

// HasAggregate returns true if e contains an aggregate.
func HasAggregate(e Expression) bool {
	found := false
	Walk(e, func(x Expression) bool {
		if _, ok := x.(*Aggregate); ok {
			found = true
		}
		return !found
	})
	return found
}

// IsConstant returns true if e can be evaluated without a solution. Such
// expressions always evaluate to the same value.
func IsConstant(e Expression) bool {
	constant := true
	Walk(e, func(x Expression) bool {
		switch x.(type) {
		case *Variable, *Aggregate, *Exists:
			constant = false
		}
		return constant
	})
	return constant
}
