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

package triple

import (
	"testing"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/term"
)

func getTestData(t *testing.T) (term.Term, term.Term, term.Term) {
	s, err := term.NewIRI("http://example.org/a")
	if err != nil {
		t.Fatalf("Failed to create test subject: %v", err)
	}
	p, err := term.NewIRI("http://example.org/knows")
	if err != nil {
		t.Fatalf("Failed to create test predicate: %v", err)
	}
	o, err := term.NewIRI("http://example.org/b")
	if err != nil {
		t.Fatalf("Failed to create test object: %v", err)
	}
	return s, p, o
}

func TestInvalidTripleFail(t *testing.T) {
	s, p, o := getTestData(t)
	v, _ := term.NewVariable("x")
	b, _ := term.NewBlankNode("b1")
	lit := term.NewLiteral("v")
	table := []struct {
		s, p, o term.Term
	}{
		{term.Term{}, term.Term{}, term.Term{}},
		{s, term.Term{}, o},
		{v, p, o},
		{s, v, o},
		{s, p, v},
		{lit, p, o},
		{s, lit, o},
		{s, b, o},
	}
	for _, tc := range table {
		tr, err := New(tc.s, tc.p, tc.o)
		if err == nil {
			t.Errorf("triple.New should have never created the invalid triple %s", tr)
			continue
		}
		if !exoerr.HasCode(err, exoerr.CodeTripleInvalid) {
			t.Errorf("triple.New(%v, %v, %v) returned code %q; want %q", tc.s, tc.p, tc.o, exoerr.CodeOf(err), exoerr.CodeTripleInvalid)
		}
	}
}

func TestEquality(t *testing.T) {
	s, p, o := getTestData(t)
	t1, err := New(s, p, o)
	if err != nil {
		t.Fatal(err)
	}
	t2, err := New(s, p, o)
	if err != nil {
		t.Fatal(err)
	}
	if t1 != t2 {
		t.Errorf("structurally equal triples should compare equal; %v != %v", t1, t2)
	}
	set := map[Triple]bool{t1: true}
	if !set[t2] {
		t.Errorf("structurally equal triples should share set membership")
	}
}

func TestPrettyTriple(t *testing.T) {
	s, p, o := getTestData(t)
	tr, err := New(s, p, o)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := tr.String(), "<http://example.org/a> <http://example.org/knows> <http://example.org/b> ."; got != want {
		t.Errorf("triple.String() = %q; want %q", got, want)
	}
}

func TestParse(t *testing.T) {
	table := []string{
		`<http://example.org/a> <http://example.org/knows> <http://example.org/b> .`,
		`_:b1 <http://example.org/name> "Alice"@en .`,
		`_:b1 <http://example.org/age> "42"^^<http://www.w3.org/2001/XMLSchema#integer> .`,
		`<http://example.org/a> <http://example.org/note> "dots. and \"quotes\" inside" .`,
	}
	for _, line := range table {
		tr, err := Parse(line)
		if err != nil {
			t.Errorf("triple.Parse(%q) failed with error %v", line, err)
			continue
		}
		if got := tr.String(); got != line {
			t.Errorf("triple.Parse(%q).String() = %q; want the input back", line, got)
		}
	}
}

func TestParseWithoutSpaceBeforeDot(t *testing.T) {
	tr, err := Parse(`_:b1 <http://example.org/name> "Alice".`)
	if err != nil {
		t.Fatalf("triple.Parse failed with error %v", err)
	}
	if got, want := tr.O(), term.NewLiteral("Alice"); got != want {
		t.Errorf("triple.Parse returned object %v; want %v", got, want)
	}
}

func TestParseFails(t *testing.T) {
	table := []string{
		``,
		`<http://example.org/a> <http://example.org/knows>`,
		`"lit" <http://example.org/knows> <http://example.org/b> .`,
		`<http://example.org/a> <http://example.org/knows> <http://example.org/b> extra .`,
		`<http://example.org/a> <http://example.org/knows> "open`,
	}
	for _, line := range table {
		if tr, err := Parse(line); err == nil {
			t.Errorf("triple.Parse(%q) should have failed; got %v", line, tr)
		}
	}
}
