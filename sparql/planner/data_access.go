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
	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/term"
	"github.com/google/exograph/triple"
)

// substitute replaces the variables of the pattern bound by the row with
// their values.
func substitute(p storage.Pattern, r table.Row) storage.Pattern {
	bind := func(t term.Term) term.Term {
		if t.IsVariable() {
			if v, ok := r[t.Value()]; ok {
				return v
			}
		}
		return t
	}
	return storage.Pattern{S: bind(p.S), P: bind(p.P), O: bind(p.O)}
}

// extendWith returns the row extended with the bindings of every triple
// matching the pattern.
func (e *Executor) extendWith(p storage.Pattern, r table.Row) []table.Row {
	sp := substitute(p, r)
	var res []table.Row
	for _, t := range e.fetch(sp.Normalize()) {
		if nr, ok := tripleToRow(t, sp, r); ok {
			res = append(res, nr)
		}
	}
	return res
}

// tripleToRow binds the variables of the pattern to the matching positions
// of the triple on a copy of the row. It fails when a variable repeated in
// the pattern would be bound to different terms.
func tripleToRow(t triple.Triple, p storage.Pattern, r table.Row) (table.Row, bool) {
	nr := r
	cloned := false
	for _, pos := range [3][2]term.Term{{p.S, t.S()}, {p.P, t.P()}, {p.O, t.O()}} {
		v, val := pos[0], pos[1]
		if !v.IsVariable() {
			continue
		}
		if old, ok := nr[v.Value()]; ok {
			if old != val {
				return nil, false
			}
			continue
		}
		if !cloned {
			nr, cloned = r.Clone(), true
		}
		nr[v.Value()] = val
	}
	if !cloned {
		nr = r.Clone()
	}
	return nr, true
}
