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

package optimizer

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/google/exograph/sparql/algebra"
	"github.com/google/exograph/sparql/grammar"
	"github.com/google/exograph/sparql/planner"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/storage/memory"
	"github.com/google/exograph/tools/generator"
	"github.com/google/exograph/tools/testutil"
)

const prefix = "PREFIX ex: <http://example.org/>\n"

func mustTranslate(t *testing.T, q string) algebra.Op {
	t.Helper()
	pq, err := grammar.Parse(prefix + q)
	if err != nil {
		t.Fatalf("grammar.Parse(%q) failed with error %v", q, err)
	}
	op, err := algebra.TranslateOp(pq)
	if err != nil {
		t.Fatalf("algebra.TranslateOp(%q) failed with error %v", q, err)
	}
	return op
}

func TestOptimizeRewrites(t *testing.T) {
	table := []struct {
		q    string
		want string
	}{
		{
			// Folded to true and removed.
			q:    `SELECT ?s WHERE { ?s ?p ?o FILTER(1 < 2) }`,
			want: `(project (?s) (bgp (?s ?p ?o)))`,
		},
		{
			q:    `SELECT ?s WHERE { ?s ?p ?o FILTER(?o > 1 + 2) }`,
			want: `(project (?s) (filter (> ?o "3"^^<http://www.w3.org/2001/XMLSchema#integer>) (bgp (?s ?p ?o))))`,
		},
		{
			// Errors are kept for the executor to drop the rows.
			q:    `SELECT ?s WHERE { ?s ?p ?o FILTER(1 / 0 = ?o) }`,
			want: `(project (?s) (filter (= (/ "1"^^<http://www.w3.org/2001/XMLSchema#integer> "0"^^<http://www.w3.org/2001/XMLSchema#integer>) ?o) (bgp (?s ?p ?o))))`,
		},
		{
			q: `SELECT * WHERE { ?s <http://e/p> ?o { ?x <http://e/q> ?y } FILTER(?o = ?s && ?y = ?x) }`,
			want: `(project (?s ?o ?x ?y) (join (filter (= ?o ?s) (bgp (?s <http://e/p> ?o))) ` +
				`(filter (= ?y ?x) (bgp (?x <http://e/q> ?y)))))`,
		},
		{
			q: `SELECT * WHERE { { ?s <http://e/p> ?o } UNION { ?s <http://e/q> ?o } FILTER(?o != ?s) }`,
			want: `(project (?s ?o) (union (filter (!= ?o ?s) (bgp (?s <http://e/p> ?o))) ` +
				`(filter (!= ?o ?s) (bgp (?s <http://e/q> ?o)))))`,
		},
		{
			q: `SELECT * WHERE { ?s <http://e/p> ?o OPTIONAL { ?s <http://e/q> ?x } FILTER(?x = ?o) }`,
			want: `(project (?s ?o ?x) (filter (= ?x ?o) (leftjoin (bgp (?s <http://e/p> ?o)) ` +
				`(bgp (?s <http://e/q> ?x)))))`,
		},
		{
			q: `SELECT ?s ?d WHERE { ?s <http://e/p> ?o BIND(STR(?o) AS ?d) FILTER(?o != ?s) }`,
			want: `(project (?s ?d) (extend (?d (STR ?o)) (filter (!= ?o ?s) (bgp (?s <http://e/p> ?o)))))`,
		},
		{
			q: `SELECT ?s WHERE { ?s ?p ?o . ?s <http://e/p> <http://e/a> . ?o ?q ?r }`,
			want: `(project (?s) (bgp (?s <http://e/p> <http://e/a>) (?s ?p ?o) (?o ?q ?r)))`,
		},
		{
			q: `SELECT * WHERE { ?a ?b ?c { ?c <http://e/p> <http://e/x> } }`,
			want: `(project (?a ?b ?c) (bgp (?c <http://e/p> <http://e/x>) (?a ?b ?c)))`,
		},
		{
			q: `SELECT ?s WHERE { ?s ?p ?o } ORDER BY ?s LIMIT 1`,
			want: `(slice 0 1 (project (?s) (orderby (?s) (bgp (?s ?p ?o)))))`,
		},
	}
	o := New()
	for _, test := range table {
		got := o.Optimize(mustTranslate(t, test.q)).String()
		if got != test.want {
			t.Errorf("Optimize(%q) =\n%s\nwant\n%s", test.q, got, test.want)
		}
	}
}

func TestOptimizeIsIdempotent(t *testing.T) {
	queries := []string{
		`SELECT ?s WHERE { ?s ?p ?o FILTER(?o > 1 + 2 && ?s != ?o) }`,
		`SELECT * WHERE { ?a ?b ?c . ?c ex:p ?d . ?d ex:q ex:x OPTIONAL { ?a ex:r ?e } FILTER(?e != ?a) }`,
		`SELECT ?x (COUNT(?y) AS ?n) WHERE { { ?x ex:p ?y } UNION { ?y ex:p ?x } FILTER(?x != ?y) } GROUP BY ?x HAVING (COUNT(?y) > 1)`,
		`SELECT DISTINCT ?x WHERE { ?x ex:p ?y { ?y ex:q ?z } { ?z ex:r ?w } BIND(?w AS ?v) FILTER(BOUND(?v)) } ORDER BY ?x LIMIT 3`,
	}
	for _, est := range []Estimator{BoundPositions{}, Cardinality{Source: memory.NewStore()}} {
		o := New(WithEstimator(est))
		for _, q := range queries {
			once := o.Optimize(mustTranslate(t, q))
			twice := o.Optimize(once)
			if once.String() != twice.String() {
				t.Errorf("Optimize is not idempotent on %q:\n%s\n%s", q, once, twice)
			}
		}
	}
}

func TestCardinalityEstimator(t *testing.T) {
	s := memory.NewStore()
	s.Add(
		testutil.MustBuildTriple(t, "a", "rare", "b"),
		testutil.MustBuildTriple(t, "a", "common", "b"),
		testutil.MustBuildTriple(t, "b", "common", "c"),
		testutil.MustBuildTriple(t, "c", "common", "d"),
	)
	x, y := testutil.MustBuildVariable(t, "x"), testutil.MustBuildVariable(t, "y")
	common := storage.Pattern{S: x, P: testutil.MustBuildIRI(t, "common"), O: y}
	rare := storage.Pattern{S: x, P: testutil.MustBuildIRI(t, "rare"), O: y}
	o := New(WithEstimator(Cardinality{Source: s}))
	got := o.Optimize(&algebra.BGP{Patterns: []storage.Pattern{common, rare}})
	want := (&algebra.BGP{Patterns: []storage.Pattern{rare, common}}).String()
	if got.String() != want {
		t.Errorf("Optimize with cardinalities = %s; want %s", got, want)
	}
	// Bound positions cannot tell both patterns apart and keep the order.
	got = New().Optimize(&algebra.BGP{Patterns: []storage.Pattern{common, rare}})
	if want := (&algebra.BGP{Patterns: []storage.Pattern{common, rare}}).String(); got.String() != want {
		t.Errorf("Optimize with bound positions = %s; want %s", got, want)
	}
}

func rowsOf(t *testing.T, e *planner.Executor, op algebra.Op) []string {
	t.Helper()
	rows, err := e.Eval(context.Background(), op)
	if err != nil {
		t.Fatalf("Eval(%s) failed with error %v", op, err)
	}
	vars := algebra.Vars(op)
	res := make([]string, len(rows))
	for i, r := range rows {
		var b bytes.Buffer
		if err := r.ToTextLine(&b, vars, " "); err != nil {
			t.Fatal(err)
		}
		res[i] = b.String()
	}
	return res
}

func TestOptimizePreservesResults(t *testing.T) {
	g, err := generator.NewRandomGraph(12, 3, 1)
	if err != nil {
		t.Fatal(err)
	}
	ts, err := g.Generate(40)
	if err != nil {
		t.Fatal(err)
	}
	s := memory.NewStore()
	s.Add(ts...)
	queries := []string{
		`SELECT * WHERE { ?a ?p ?b . ?b ?q ?c FILTER(?a != ?c) }`,
		`SELECT * WHERE { ?a ?p ?b OPTIONAL { ?b ?q ?c } FILTER(!BOUND(?c) || ?a != ?c) }`,
		`SELECT * WHERE { { ?a ?p ?b } UNION { ?b ?p ?a } FILTER(STRLEN(STR(?a)) > 3 + 1) }`,
		`SELECT ?a (COUNT(?b) AS ?n) WHERE { ?a ?p ?b { ?b ?q ?c } } GROUP BY ?a`,
		`SELECT ?c ?l WHERE { ?a ?p ?b . ?b ?q ?c BIND(STRLEN(STR(?c)) AS ?l) FILTER(?l > 1 * 2) }`,
	}
	e := planner.New(s)
	for _, est := range []Estimator{BoundPositions{}, Cardinality{Source: s}} {
		o := New(WithEstimator(est))
		for _, q := range queries {
			op := mustTranslate(t, q)
			want, got := rowsOf(t, e, op), rowsOf(t, e, o.Optimize(op))
			sort.Strings(want)
			sort.Strings(got)
			if strings.Join(got, "\n") != strings.Join(want, "\n") {
				t.Errorf("Optimize changed the solutions of %q:\n%s\nwant\n%s", q, got, want)
			}
		}
	}
}
