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

// Package testutil implements utility functions used in testing.
package testutil

import (
	"strings"
	"testing"

	"github.com/google/exograph/term"
	"github.com/google/exograph/triple"
)

// EX is the namespace used by test data.
const EX = "http://example.org/"

// MustBuildIRI builds an IRI in the EX namespace or makes the given test to
// fail. Absolute IRIs are kept as given.
func MustBuildIRI(t testing.TB, local string) term.Term {
	t.Helper()
	v := local
	if !strings.Contains(local, "://") {
		v = EX + local
	}
	i, err := term.NewIRI(v)
	if err != nil {
		t.Fatalf("could not build IRI %q, got error: %v", v, err)
	}
	return i
}

// MustBuildTerm builds a Term out of its N-Triples form or makes the given
// test to fail.
func MustBuildTerm(t testing.TB, s string) term.Term {
	t.Helper()
	tm, err := term.Parse(s)
	if err != nil {
		t.Fatalf("could not parse term %q, got error: %v", s, err)
	}
	return tm
}

// MustBuildVariable builds a query variable or makes the given test to fail.
func MustBuildVariable(t testing.TB, name string) term.Term {
	t.Helper()
	v, err := term.NewVariable(name)
	if err != nil {
		t.Fatalf("could not build variable %q, got error: %v", name, err)
	}
	return v
}

// MustBuildTriple builds a triple out of three EX local names or makes the
// given test to fail.
func MustBuildTriple(t testing.TB, s, p, o string) triple.Triple {
	t.Helper()
	tr, err := triple.New(MustBuildIRI(t, s), MustBuildIRI(t, p), MustBuildIRI(t, o))
	if err != nil {
		t.Fatalf("could not build triple <%s %s %s>, got error: %v", s, p, o, err)
	}
	return tr
}

// MustParseTriples parses N-Triples statements or makes the given test to
// fail. Empty lines and comments are skipped.
func MustParseTriples(t testing.TB, lines ...string) []triple.Triple {
	t.Helper()
	var ts []triple.Triple
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		tr, err := triple.Parse(l)
		if err != nil {
			t.Fatalf("could not parse triple %q, got error: %v", l, err)
		}
		ts = append(ts, tr)
	}
	return ts
}

// KnowsGraph returns the two triple graph a knows b, b knows c.
func KnowsGraph(t testing.TB) []triple.Triple {
	t.Helper()
	return []triple.Triple{
		MustBuildTriple(t, "a", "knows", "b"),
		MustBuildTriple(t, "b", "knows", "c"),
	}
}
