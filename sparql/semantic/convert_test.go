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
	"testing"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/lexer"
	"github.com/google/exograph/term"
)

func TestToIRI(t *testing.T) {
	q := NewQuery(Select)
	q.Prefixes["ex"] = "http://example.org/"
	q.Prefixes[""] = "http://default.org/"
	q.Base = "http://base.org/dir/"
	testTable := []struct {
		tkn  lexer.Token
		want string
	}{
		{lexer.Token{Type: lexer.ItemIRI, Text: "<http://example.org/a>"}, "http://example.org/a"},
		{lexer.Token{Type: lexer.ItemIRI, Text: "<b>"}, "http://base.org/dir/b"},
		{lexer.Token{Type: lexer.ItemPName, Text: "ex:a"}, "http://example.org/a"},
		{lexer.Token{Type: lexer.ItemPName, Text: ":a"}, "http://default.org/a"},
		{lexer.Token{Type: lexer.ItemPName, Text: "ex:"}, "http://example.org/"},
		{lexer.Token{Type: lexer.ItemPName, Text: `ex:a\.b`}, "http://example.org/a.b"},
		{lexer.Token{Type: lexer.ItemPName, Text: "xsd:int"}, term.XSDInt},
	}
	for _, entry := range testTable {
		got, err := ToIRI(&entry.tkn, q)
		if err != nil {
			t.Errorf("semantic.ToIRI(%q) failed with error %v", entry.tkn.Text, err)
			continue
		}
		if got.Value() != entry.want || !got.IsIRI() {
			t.Errorf("semantic.ToIRI(%q) = %v; want <%s>", entry.tkn.Text, got, entry.want)
		}
	}
}

func TestToIRIErrors(t *testing.T) {
	q := NewQuery(Select)
	for _, tkn := range []lexer.Token{
		{Type: lexer.ItemPName, Text: "nope:a", Line: 3, Col: 7},
		{Type: lexer.ItemVar, Text: "?x", Line: 3, Col: 7},
	} {
		_, err := ToIRI(&tkn, q)
		if !exoerr.IsSyntax(err) {
			t.Errorf("semantic.ToIRI(%q) should have failed with a syntax error; got %v", tkn.Text, err)
			continue
		}
		if fs := exoerr.FieldsOf(err); fs["line"] != 3 || fs["column"] != 7 {
			t.Errorf("semantic.ToIRI(%q) error should carry its position; got %v", tkn.Text, fs)
		}
	}
}

func TestToLiterals(t *testing.T) {
	n, err := ToNumber(&lexer.Token{Type: lexer.ItemDecimal, Text: "1.50"}, "-")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := n.String(), `"-1.50"^^<`+term.XSDDecimal+`>`; got != want {
		t.Errorf("semantic.ToNumber returned %s; want %s", got, want)
	}
	b, err := ToBoolean(&lexer.Token{Type: lexer.ItemBoolean, Text: "TRUE"})
	if err != nil || b != term.NewBoolean(true) {
		t.Errorf("semantic.ToBoolean(TRUE) = %v, %v", b, err)
	}
	s, err := ToString(&lexer.Token{Type: lexer.ItemString, Text: `"a\nb"`})
	if err != nil || s != "a\nb" {
		t.Errorf("semantic.ToString returned %q, %v", s, err)
	}
	v, err := ToVariable(&lexer.Token{Type: lexer.ItemVar, Text: "$x"})
	if err != nil || v != "x" {
		t.Errorf("semantic.ToVariable returned %q, %v", v, err)
	}
	if _, err := ToBlankNode(&lexer.Token{Type: lexer.ItemString, Text: `"x"`}); err == nil {
		t.Errorf("semantic.ToBlankNode should reject string tokens")
	}
}
