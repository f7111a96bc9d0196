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
	"context"

	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/term"
	"github.com/google/exograph/triple"
)

// graph is a triple set keeping the insertion order.
type graph struct {
	seen map[triple.Triple]bool
	ts   []triple.Triple
}

func (g *graph) add(t triple.Triple) {
	if g.seen == nil {
		g.seen = make(map[triple.Triple]bool)
	}
	if !g.seen[t] {
		g.seen[t] = true
		g.ts = append(g.ts, t)
	}
}

// construct instantiates the template once per solution. Blank nodes of the
// template get fresh labels for every solution. Triples with unbound
// variables or invalid positions are skipped.
func construct(tmpl []storage.Pattern, rows []table.Row) []triple.Triple {
	g := &graph{}
	for _, r := range rows {
		blanks := make(map[string]term.Term)
		inst := func(t term.Term) (term.Term, bool) {
			switch {
			case t.IsVariable():
				v, ok := r[t.Value()]
				return v, ok
			case t.IsBlank():
				b, ok := blanks[t.Value()]
				if !ok {
					b = term.NewFreshBlankNode()
					blanks[t.Value()] = b
				}
				return b, true
			}
			return t, true
		}
		for _, p := range tmpl {
			s, sok := inst(p.S)
			pr, pok := inst(p.P)
			o, ook := inst(p.O)
			if !sok || !pok || !ook {
				continue
			}
			t, err := triple.New(s, pr, o)
			if err != nil {
				continue
			}
			g.add(t)
		}
	}
	if g.ts == nil {
		return []triple.Triple{}
	}
	return g.ts
}

// describe returns every triple whose subject is one of the described
// resources. Variables describe every value they take in the solutions.
func (e *Executor) describe(ctx context.Context, targets []term.Term, rows []table.Row) ([]triple.Triple, error) {
	var resources []term.Term
	seen := make(map[term.Term]bool)
	addResource := func(t term.Term) {
		if (t.IsIRI() || t.IsBlank()) && !seen[t] {
			seen[t] = true
			resources = append(resources, t)
		}
	}
	for _, t := range targets {
		if !t.IsVariable() {
			addResource(t)
			continue
		}
		for _, r := range rows {
			if v, ok := r[t.Value()]; ok {
				addResource(v)
			}
		}
	}
	g := &graph{}
	for _, res := range resources {
		if err := interrupted(ctx); err != nil {
			return nil, err
		}
		for _, t := range e.fetch(storage.Pattern{S: res}) {
			g.add(t)
		}
	}
	if g.ts == nil {
		return []triple.Triple{}, nil
	}
	return g.ts, nil
}
