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

package grammar

import (
	"testing"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/term"
)

func TestAcceptByParse(t *testing.T) {
	table := []string{
		// Basic forms.
		`SELECT ?s WHERE { ?s ?p ?o }`,
		`select * { ?s ?p ?o . }`,
		`PREFIX ex: <http://example.org/> SELECT ?x { ?x ex:knows ex:b }`,
		`BASE <http://example.org/> SELECT ?x { ?x <knows> <b> }`,
		`PREFIX : <http://example.org/> ASK { :a :knows :b }`,
		`PREFIX : <http://example.org/> DESCRIBE :a`,
		`DESCRIBE ?x WHERE { ?x a <http://example.org/Person> }`,
		`DESCRIBE *`,
		`PREFIX : <http://example.org/> CONSTRUCT { ?x :friendOf ?y } WHERE { ?x :knows ?y }`,
		`CONSTRUCT WHERE { ?s ?p ?o }`,
		`CONSTRUCT { } WHERE { ?s ?p ?o }`,
		// Abbreviations and terms.
		`PREFIX : <http://example.org/> SELECT * { ?s :p ?o ; :q ?r , ?t ; . }`,
		`PREFIX : <http://example.org/> SELECT * { [] :p ?o . [ :q ?r ] :p ?x . ?s :p [ :q 1 ] }`,
		`PREFIX : <http://example.org/> SELECT * { _:b :p "chat"@fr , "1"^^<http://www.w3.org/2001/XMLSchema#integer> , 1.5 , -2 , true }`,
		`SELECT * { ?s ?p 'single' , """long""" }`,
		// Graph patterns.
		`PREFIX : <http://example.org/> SELECT * { ?s :p ?o OPTIONAL { ?o :q ?r FILTER(?r > 1) } }`,
		`PREFIX : <http://example.org/> SELECT * { { ?s :p ?o } UNION { ?s :q ?o } UNION { ?s :r ?o } }`,
		`PREFIX : <http://example.org/> SELECT * { ?s :p ?o . FILTER regex(?o, "a", "i") }`,
		`PREFIX : <http://example.org/> SELECT * { ?s :p ?o BIND(?o * 2 AS ?d) }`,
		`PREFIX : <http://example.org/> SELECT * { ?s :p ?o MINUS { ?s :q ?o } }`,
		`PREFIX : <http://example.org/> SELECT * { GRAPH ?g { ?s :p ?o } }`,
		`PREFIX : <http://example.org/> SELECT * { SERVICE SILENT <http://remote/> { ?s :p ?o } }`,
		`PREFIX : <http://example.org/> SELECT * { ?s :p/:q|^:r ?o . ?s :p* ?x . ?s !(:a|^:b) ?y . ?s (:p)+ ?z }`,
		`PREFIX : <http://example.org/> SELECT * { ?s :p ?o FILTER NOT EXISTS { ?o :q ?s } }`,
		// Modifiers and expressions.
		`SELECT DISTINCT ?s { ?s ?p ?o } ORDER BY ?s DESC(?o) LIMIT 10 OFFSET 5`,
		`SELECT REDUCED ?s { ?s ?p ?o } OFFSET 5 LIMIT 10`,
		`SELECT ?p (COUNT(DISTINCT ?o) AS ?n) { ?s ?p ?o } GROUP BY ?p HAVING (COUNT(?o) > 1) ORDER BY DESC(?n)`,
		`SELECT (GROUP_CONCAT(?o ; SEPARATOR=", ") AS ?all) (SUM(?o) AS ?sum) (AVG(?o) AS ?avg) (MIN(?o) AS ?min) (MAX(?o) AS ?max) (SAMPLE(?o) AS ?any) { ?s ?p ?o }`,
		`SELECT * { ?s ?p ?o FILTER(?o IN (1, 2) || ?o NOT IN (3) && !BOUND(?x)) }`,
		`SELECT * { ?s ?p ?o FILTER(-?o + 2 * 3 / 4 - 1 >= +5) }`,
		`SELECT * { ?s ?p ?o FILTER(<http://www.w3.org/2001/XMLSchema#integer>(?o) = xsd:integer("1")) }`,
		`SELECT (STRLEN(CONCAT(?a, "b")) AS ?l) { ?s ?p ?a } ORDER BY STR(?a)`,
		"# comment\nSELECT ?s # trailing\n{ ?s ?p ?o }",
	}
	for _, input := range table {
		if _, err := Parse(input); err != nil {
			t.Errorf("Parse failed to accept valid query %q; %v", input, err)
		}
	}
}

func TestRejectByParse(t *testing.T) {
	table := []struct {
		input     string
		line, col int
	}{
		{``, 1, 1},
		{`SELECT`, 1, 7},
		{`SELECT ?s`, 1, 10},
		{`SELECT ?s { ?s ?p }`, 1, 19},
		{`SELECT ?s { ?s ?p ?o `, 1, 22},
		{"SELECT ?s {\n  ?s ?p ?o .\n  FILTER ?o\n}", 3, 10},
		{`SELECT ?s { ?s ex:p ?o }`, 1, 16},
		{`PREFIX ex:a <http://e/> SELECT * { ?s ?p ?o }`, 1, 8},
		{`SELECT ?s { ?s ?p ?o } LIMIT ?x`, 1, 30},
		{`SELECT (?o AS ?s) ?s { ?s ?p ?o }`, 1, 19},
		{`SELECT * { ?s ?p ?o } ORDER`, 1, 28},
		{`CONSTRUCT { ?s <http://e/p>/<http://e/q> ?o } WHERE { ?s ?p ?o }`, 1, 16},
		{`SELECT * { ?s ?p "open }`, 1, 18},
		{`SELECT * { ?s ?p ?o } garbage`, 1, 23},
	}
	for _, entry := range table {
		_, err := Parse(entry.input)
		if !exoerr.IsSyntax(err) {
			t.Errorf("Parse(%q) should have failed with a syntax error; got %v", entry.input, err)
			continue
		}
		fs := exoerr.FieldsOf(err)
		if fs["line"] != entry.line || fs["column"] != entry.col {
			t.Errorf("Parse(%q) error %v reported position %v:%v; want %d:%d", entry.input, err, fs["line"], fs["column"], entry.line, entry.col)
		}
	}
}

func TestUnsupportedByParse(t *testing.T) {
	for _, input := range []string{
		`SELECT * { { SELECT ?s { ?s ?p ?o } } }`,
		`SELECT * { ?s ?p ?o } VALUES ?s { <http://e/a> }`,
		`SELECT * { ?s ?p (1 2) }`,
	} {
		if _, err := Parse(input); !exoerr.IsTranslation(err) {
			t.Errorf("Parse(%q) should fail naming an unsupported construct; got %v", input, err)
		}
	}
}

func TestParseStructure(t *testing.T) {
	q, err := Parse(`PREFIX ex: <http://example.org/>
SELECT DISTINCT ?x (?n + 1 AS ?m)
WHERE {
  ?x ex:knows ?y ; ex:age ?n .
  OPTIONAL { ?y ex:name ?name }
  FILTER(?n > 18)
}
ORDER BY DESC(?n) ?x
LIMIT 3`)
	if err != nil {
		t.Fatalf("Parse failed with error %v", err)
	}
	if q.Form != semantic.Select || !q.Distinct || q.Limit != 3 || q.Offset != 0 {
		t.Errorf("Parse returned wrong query header %+v", q)
	}
	if len(q.Projection) != 2 || q.Projection[0].Var != "x" || q.Projection[1].Expr == nil {
		t.Errorf("Parse returned wrong projection %+v", q.Projection)
	}
	if got, want := q.Projection[1].Expr.String(), `(+ ?n "1"^^<http://www.w3.org/2001/XMLSchema#integer>)`; got != want {
		t.Errorf("projected expression = %s; want %s", got, want)
	}
	els := q.Where.Elements
	if len(els) != 3 {
		t.Fatalf("Parse returned %d elements; want 3", len(els))
	}
	tb, ok := els[0].(*semantic.TriplesBlock)
	if !ok || len(tb.Patterns) != 2 {
		t.Fatalf("first element should be a block of 2 patterns; got %#v", els[0])
	}
	knows, _ := term.NewIRI("http://example.org/knows")
	if tb.Patterns[0].P != knows || tb.Patterns[0].S != tb.Patterns[1].S {
		t.Errorf("Parse did not expand the ; abbreviation; got %v", tb.Patterns)
	}
	if _, ok := els[1].(*semantic.Optional); !ok {
		t.Errorf("second element should be OPTIONAL; got %#v", els[1])
	}
	if _, ok := els[2].(*semantic.Filter); !ok {
		t.Errorf("third element should be FILTER; got %#v", els[2])
	}
	if len(q.OrderBy) != 2 || !q.OrderBy[0].Desc || q.OrderBy[1].Desc {
		t.Errorf("Parse returned wrong order conditions %+v", q.OrderBy)
	}
}

func TestParsePaths(t *testing.T) {
	q, err := Parse(`PREFIX : <http://e/> SELECT * { ?s :p/^:q* ?o . ?s a ?t }`)
	if err != nil {
		t.Fatal(err)
	}
	tps := q.Where.Elements[0].(*semantic.TriplesBlock).Patterns
	if tps[0].Path == nil {
		t.Fatalf("first pattern should carry a path")
	}
	if got, want := tps[0].Path.String(), "(seq <http://e/p> (inv (* <http://e/q>)))"; got != want {
		t.Errorf("path = %s; want %s", got, want)
	}
	if tps[1].Path != nil || tps[1].P.Value() != term.RDFType {
		t.Errorf("'a' should be a plain rdf:type predicate; got %v", tps[1])
	}
}

func TestParseConstructShortForm(t *testing.T) {
	q, err := Parse(`CONSTRUCT WHERE { ?s <http://e/p> ?o }`)
	if err != nil {
		t.Fatal(err)
	}
	if q.Form != semantic.Construct || len(q.Template) != 1 || q.Where == nil {
		t.Errorf("CONSTRUCT WHERE should use the pattern as template; got %+v", q)
	}
}
