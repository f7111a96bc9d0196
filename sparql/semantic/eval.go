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
	"math"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/term"
)

// Evaluation errors are recovered per solution by the executor, so they are
// shared values instead of being built for every failing row.
var (
	// ErrUnbound is returned when an expression references an unbound
	// variable.
	ErrUnbound = exoerr.New(exoerr.CodeQueryUnbound, "semantic: unbound variable")
	// ErrType is returned when an operator or function receives arguments
	// it cannot work with.
	ErrType = exoerr.New(exoerr.CodeQueryTypeError, "semantic: type error")
)

var (
	trueTerm  = term.NewBoolean(true)
	falseTerm = term.NewBoolean(false)
)

func boolTerm(b bool) term.Term {
	if b {
		return trueTerm
	}
	return falseTerm
}

// Eval evaluates e against r. A nil expression evaluates to true.
func Eval(e Expression, r table.Row) (term.Term, error) {
	if e == nil {
		return trueTerm, nil
	}
	return e.Evaluate(r)
}

// EvalBool evaluates e against r and returns its effective boolean value.
func EvalBool(e Expression, r table.Row) (bool, error) {
	if e == nil {
		return true, nil
	}
	t, err := e.Evaluate(r)
	if err != nil {
		return false, err
	}
	return EBV(t)
}

// EBV returns the effective boolean value of a term. Booleans are their own
// value, numbers are true when not zero or NaN, and string literals are true
// when not empty. Any other term is a type error.
func EBV(t term.Term) (bool, error) {
	if !t.IsLiteral() {
		return false, ErrType
	}
	if t.Datatype() == term.XSDBoolean {
		b, ok := t.Boolean()
		return ok && b, nil
	}
	if n, ok := t.Numeric(); ok {
		if n.Rank == term.RankInteger {
			return n.Int != 0, nil
		}
		return n.Float != 0 && !math.IsNaN(n.Float), nil
	}
	if t.IsStringLiteral() {
		return t.Value() != "", nil
	}
	return false, ErrType
}

// Evaluate returns the constant value.
func (c *Constant) Evaluate(table.Row) (term.Term, error) {
	return c.Value, nil
}

// Evaluate returns the value bound to the variable.
func (v *Variable) Evaluate(r table.Row) (term.Term, error) {
	t, ok := r[v.Name]
	if !ok {
		return term.Term{}, ErrUnbound
	}
	return t, nil
}

// Evaluate applies the unary operator.
func (u *Unary) Evaluate(r table.Row) (term.Term, error) {
	if u.Op == NOT {
		b, err := EvalBool(u.Arg, r)
		if err != nil {
			return term.Term{}, err
		}
		return boolTerm(!b), nil
	}
	t, err := u.Arg.Evaluate(r)
	if err != nil {
		return term.Term{}, err
	}
	n, ok := t.Numeric()
	if !ok {
		return term.Term{}, ErrType
	}
	switch u.Op {
	case POS:
		return n.Term(), nil
	case NEG:
		n.Int, n.Float = -n.Int, -n.Float
		return n.Term(), nil
	}
	return term.Term{}, ErrType
}

// Evaluate applies the binary operator. Logical operators follow the three
// valued logic: an error on one side is hidden if the other side alone
// decides the result.
func (b *Binary) Evaluate(r table.Row) (term.Term, error) {
	if b.Op == OR || b.Op == AND {
		return b.logical(r)
	}
	l, err := b.Left.Evaluate(r)
	if err != nil {
		return term.Term{}, err
	}
	rt, err := b.Right.Evaluate(r)
	if err != nil {
		return term.Term{}, err
	}
	switch b.Op {
	case EQ, NEQ:
		eq, err := Equal(l, rt)
		if err != nil {
			return term.Term{}, err
		}
		return boolTerm(eq == (b.Op == EQ)), nil
	case LT, GT, LTE, GTE:
		c, err := Compare(l, rt)
		if err != nil {
			return term.Term{}, err
		}
		switch b.Op {
		case LT:
			return boolTerm(c < 0), nil
		case GT:
			return boolTerm(c > 0), nil
		case LTE:
			return boolTerm(c <= 0), nil
		default:
			return boolTerm(c >= 0), nil
		}
	case ADD, SUB, MUL, DIV:
		return arithmetic(b.Op, l, rt)
	}
	return term.Term{}, ErrType
}

func (b *Binary) logical(r table.Row) (term.Term, error) {
	lb, lerr := EvalBool(b.Left, r)
	rb, rerr := EvalBool(b.Right, r)
	// The value that decides the result on its own.
	decisive := b.Op == OR
	switch {
	case lerr == nil && lb == decisive, rerr == nil && rb == decisive:
		return boolTerm(decisive), nil
	case lerr != nil:
		return term.Term{}, lerr
	case rerr != nil:
		return term.Term{}, rerr
	}
	return boolTerm(!decisive), nil
}

// Evaluate returns true if the argument is equal to one of the list members.
// Errors on list members are only reported if no member matches.
func (in *In) Evaluate(r table.Row) (term.Term, error) {
	t, err := in.Arg.Evaluate(r)
	if err != nil {
		return term.Term{}, err
	}
	var lastErr error
	for _, e := range in.List {
		v, err := e.Evaluate(r)
		if err == nil {
			var eq bool
			eq, err = Equal(t, v)
			if err == nil && eq {
				return boolTerm(!in.Negated), nil
			}
		}
		if err != nil {
			lastErr = err
		}
	}
	if lastErr != nil {
		return term.Term{}, lastErr
	}
	return boolTerm(in.Negated), nil
}

// Evaluate fails; aggregates are computed by the grouping operator, which
// replaces them with variables before evaluating the expressions using them.
func (a *Aggregate) Evaluate(table.Row) (term.Term, error) {
	return term.Term{}, ErrType
}

// Evaluate fails; EXISTS is rejected before evaluation.
func (e *Exists) Evaluate(table.Row) (term.Term, error) {
	return term.Term{}, ErrType
}

// Equal implements the = operator. Numbers compare by value, date times by
// instant, and string literals by lexical form and language. Any other pair
// of terms is equal only if the terms are identical.
func Equal(a, b term.Term) (bool, error) {
	if a == b {
		return true, nil
	}
	if !a.IsLiteral() || !b.IsLiteral() {
		return false, nil
	}
	if na, ok := a.Numeric(); ok {
		if nb, ok := b.Numeric(); ok {
			return na.Compare(nb) == 0, nil
		}
	}
	if ta, ok := a.Time(); ok {
		if tb, ok := b.Time(); ok {
			return ta.Equal(tb), nil
		}
	}
	if ba, ok := a.Boolean(); ok {
		if bb, ok := b.Boolean(); ok {
			return ba == bb, nil
		}
	}
	if a.IsStringLiteral() && b.IsStringLiteral() {
		return a.Value() == b.Value() && a.Lang() == b.Lang(), nil
	}
	return false, nil
}

// Compare implements the ordering operators. Only numbers, date times,
// booleans, and string literals sharing the same language can be ordered;
// any other pair is a type error.
func Compare(a, b term.Term) (int, error) {
	if na, ok := a.Numeric(); ok {
		if nb, ok := b.Numeric(); ok {
			return na.Compare(nb), nil
		}
		return 0, ErrType
	}
	if ta, ok := a.Time(); ok {
		if tb, ok := b.Time(); ok {
			return ta.Compare(tb), nil
		}
		return 0, ErrType
	}
	if ba, ok := a.Boolean(); ok {
		if bb, ok := b.Boolean(); ok {
			switch {
			case ba == bb:
				return 0, nil
			case !ba:
				return -1, nil
			}
			return 1, nil
		}
		return 0, ErrType
	}
	if a.IsStringLiteral() && b.IsStringLiteral() && a.Lang() == b.Lang() {
		switch {
		case a.Value() < b.Value():
			return -1, nil
		case a.Value() > b.Value():
			return 1, nil
		}
		return 0, nil
	}
	return 0, ErrType
}

// arithmetic applies op after promoting both numbers to the widest of their
// types. Dividing two integers produces a decimal.
func arithmetic(op OP, a, b term.Term) (term.Term, error) {
	na, ok := a.Numeric()
	if !ok {
		return term.Term{}, ErrType
	}
	nb, ok := b.Numeric()
	if !ok {
		return term.Term{}, ErrType
	}
	rank := max(na.Rank, nb.Rank)
	if op == DIV && rank == term.RankInteger {
		rank = term.RankDecimal
	}
	if rank == term.RankInteger {
		res := term.Number{Rank: rank}
		switch op {
		case ADD:
			res.Int = na.Int + nb.Int
		case SUB:
			res.Int = na.Int - nb.Int
		case MUL:
			res.Int = na.Int * nb.Int
		}
		res.Float = float64(res.Int)
		return res.Term(), nil
	}
	res := term.Number{Rank: rank}
	switch op {
	case ADD:
		res.Float = na.Float + nb.Float
	case SUB:
		res.Float = na.Float - nb.Float
	case MUL:
		res.Float = na.Float * nb.Float
	case DIV:
		if nb.Float == 0 && rank == term.RankDecimal {
			return term.Term{}, ErrType
		}
		res.Float = na.Float / nb.Float
	}
	return res.Term(), nil
}
