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
	"strconv"

	"github.com/google/exograph/sparql/algebra"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/sparql/table"
)

// sharedVars returns the sorted variables certainly bound on both sides.
func sharedVars(l, r algebra.Op) []string {
	rc := algebra.CertainVars(r)
	var res []string
	for v := range algebra.CertainVars(l) {
		if rc[v] {
			res = append(res, v)
		}
	}
	sort.Strings(res)
	return res
}

// join merges every compatible pair of rows, in left-major order. The right
// rows are hashed on the shared variables when there are any. A left join
// keeps the left rows without a compatible right row for which expr holds.
func join(l, r []table.Row, shared []string, expr semantic.Expression, left bool) []table.Row {
	candidates := func(table.Row) []table.Row { return r }
	if len(shared) > 0 {
		buckets := make(map[string][]table.Row)
		for _, rr := range r {
			k := rr.Key(shared)
			buckets[k] = append(buckets[k], rr)
		}
		candidates = func(lr table.Row) []table.Row { return buckets[lr.Key(shared)] }
	}
	var res []table.Row
	for _, lr := range l {
		matched := false
		for _, rr := range candidates(lr) {
			if !table.Compatible(lr, rr) {
				continue
			}
			m := table.MergeRows(lr, rr)
			if expr != nil {
				if ok, err := semantic.EvalBool(expr, m); err != nil || !ok {
					continue
				}
			}
			matched = true
			res = append(res, m)
		}
		if left && !matched {
			res = append(res, lr)
		}
	}
	return res
}

// extend binds v to the value of e on every row. Rows where e fails are
// kept with v unbound.
func extend(rows []table.Row, v string, e semantic.Expression) []table.Row {
	res := make([]table.Row, len(rows))
	for i, r := range rows {
		val, err := semantic.Eval(e, r)
		if err != nil {
			res[i] = r
			continue
		}
		nr := r.Clone()
		nr[v] = val
		res[i] = nr
	}
	return res
}

func project(rows []table.Row, vars []string) []table.Row {
	res := make([]table.Row, len(rows))
	for i, r := range rows {
		nr := make(table.Row, len(vars))
		for _, v := range vars {
			if t, ok := r[v]; ok {
				nr[v] = t
			}
		}
		res[i] = nr
	}
	return res
}

func tableOf(rows []table.Row, vars []string) *table.Table {
	t, _ := table.New(nil)
	t.AddBindings(vars)
	for _, r := range rows {
		t.AddRow(r)
	}
	return t
}

// orderBy evaluates the sort keys into hidden bindings, sorts the table on
// them and drops them again. Keys failing to evaluate sort as unbound.
func orderBy(rows []table.Row, conds []semantic.OrderCondition) []table.Row {
	cfg := make(table.SortConfig, len(conds))
	keyed := make([]table.Row, len(rows))
	for i := range conds {
		cfg[i] = table.SortKey{Binding: ".order" + strconv.Itoa(i), Desc: conds[i].Desc}
	}
	for i, r := range rows {
		nr := r.Clone()
		for j, c := range conds {
			if v, err := semantic.Eval(c.Expr, r); err == nil {
				nr[cfg[j].Binding] = v
			}
		}
		keyed[i] = nr
	}
	t := tableOf(keyed, nil)
	t.Sort(cfg)
	res := t.Rows()
	for _, r := range res {
		for _, k := range cfg {
			delete(r, k.Binding)
		}
	}
	return res
}

func slice(rows []table.Row, offset, limit int64) []table.Row {
	t := tableOf(rows, nil)
	t.Slice(offset, limit)
	return t.Rows()
}

func distinct(rows []table.Row, vars []string) []table.Row {
	t := tableOf(rows, vars)
	t.Distinct()
	return t.Rows()
}
