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

package planner

import (
	"sort"
	"strings"

	"github.com/google/exograph/sparql/algebra"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/term"
)

type partition struct {
	key  table.Row
	rows []table.Row
}

// group partitions the rows on the grouping variables, in first seen order,
// and computes the aggregates of every partition. Without grouping
// variables all the rows form a single partition, even when there are none.
func group(rows []table.Row, vars []string, aggs []algebra.AggregateBinding) []table.Row {
	var parts []*partition
	if len(vars) == 0 {
		parts = []*partition{{key: table.Row{}, rows: rows}}
	} else {
		idx := make(map[string]*partition)
		for _, r := range rows {
			k := r.Key(vars)
			p, ok := idx[k]
			if !ok {
				p = &partition{key: project([]table.Row{r}, vars)[0]}
				idx[k] = p
				parts = append(parts, p)
			}
			p.rows = append(p.rows, r)
		}
	}
	res := make([]table.Row, len(parts))
	for i, p := range parts {
		r := p.key.Clone()
		for _, a := range aggs {
			if v, err := aggregate(a.Aggregate, p.rows); err == nil {
				r[a.Var] = v
			}
		}
		res[i] = r
	}
	return res
}

// rowKey returns a canonical key for the whole row.
func rowKey(r table.Row) string {
	vs := make([]string, 0, len(r))
	for v := range r {
		vs = append(vs, v)
	}
	sort.Strings(vs)
	var b strings.Builder
	for _, v := range vs {
		b.WriteString(v)
		b.WriteByte(0)
	}
	return b.String() + r.Key(vs)
}

// values evaluates the aggregate argument on every row and returns the
// values along with the number of failed evaluations. DISTINCT keeps the
// first occurrence of every value.
func values(a *semantic.Aggregate, rows []table.Row) ([]term.Term, int) {
	var (
		res    []term.Term
		failed int
		seen   map[term.Term]bool
	)
	if a.Distinct {
		seen = make(map[term.Term]bool)
	}
	for _, r := range rows {
		v, err := a.Arg.Evaluate(r)
		if err != nil {
			failed++
			continue
		}
		if seen != nil {
			if seen[v] {
				continue
			}
			seen[v] = true
		}
		res = append(res, v)
	}
	return res, failed
}

func add(a, b term.Term) (term.Term, error) {
	return (&semantic.Binary{Op: semantic.ADD, Left: &semantic.Constant{Value: a}, Right: &semantic.Constant{Value: b}}).Evaluate(nil)
}

// aggregate computes a single aggregate over a partition. COUNT, MIN, MAX
// and SAMPLE ignore the rows where the argument fails; SUM, AVG and
// GROUP_CONCAT fail instead.
func aggregate(a *semantic.Aggregate, rows []table.Row) (term.Term, error) {
	if a.Arg == nil {
		if !a.Distinct {
			return term.NewInteger(int64(len(rows))), nil
		}
		seen := make(map[string]bool)
		for _, r := range rows {
			seen[rowKey(r)] = true
		}
		return term.NewInteger(int64(len(seen))), nil
	}
	vs, failed := values(a, rows)
	switch a.Func {
	case "COUNT":
		return term.NewInteger(int64(len(vs))), nil
	case "SAMPLE":
		if len(vs) == 0 {
			return term.Term{}, semantic.ErrUnbound
		}
		return vs[0], nil
	case "MIN", "MAX":
		if len(vs) == 0 {
			return term.Term{}, semantic.ErrUnbound
		}
		best := vs[0]
		for _, v := range vs[1:] {
			c := table.Compare(v, best)
			if (a.Func == "MIN" && c < 0) || (a.Func == "MAX" && c > 0) {
				best = v
			}
		}
		return best, nil
	}
	if failed > 0 {
		return term.Term{}, semantic.ErrType
	}
	switch a.Func {
	case "SUM", "AVG":
		sum := term.NewInteger(0)
		for _, v := range vs {
			var err error
			if sum, err = add(sum, v); err != nil {
				return term.Term{}, err
			}
		}
		if a.Func == "SUM" {
			return sum, nil
		}
		if len(vs) == 0 {
			return term.NewInteger(0), nil
		}
		return (&semantic.Binary{
			Op:    semantic.DIV,
			Left:  &semantic.Constant{Value: sum},
			Right: &semantic.Constant{Value: term.NewInteger(int64(len(vs)))},
		}).Evaluate(nil)
	case "GROUP_CONCAT":
		parts := make([]string, len(vs))
		for i, v := range vs {
			if !v.IsLiteral() {
				return term.Term{}, semantic.ErrType
			}
			parts[i] = v.Value()
		}
		return term.NewLiteral(strings.Join(parts, a.Separator)), nil
	}
	return term.Term{}, semantic.ErrType
}
