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

// Package term provides the RDF terms exograph is built from: IRIs, blank
// nodes, literals, and the query variables that only live inside queries.
//
// Term is a comparable value. Two terms are equal iff they are == to each
// other, so terms are used directly as map keys by the indexes and caches.
package term

import (
	"strings"
	"unicode"

	"github.com/pborman/uuid"

	exoerr "github.com/google/exograph/errors"
)

// Kind tags the variant held by a Term.
type Kind uint8

const (
	// Any is the kind of the zero Term. It acts as the wildcard in patterns
	// and can never be confused with a bound term.
	Any Kind = iota
	// IRI is the kind of the terms naming resources.
	IRI
	// Blank is the kind of the anonymous nodes scoped to a graph.
	Blank
	// Literal is the kind of the data values, with an optional language tag
	// or datatype.
	Literal
	// Variable is the kind of the query variables. Variables never appear in
	// stored triples.
	Variable
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case IRI:
		return "IRI"
	case Blank:
		return "BLANK"
	case Literal:
		return "LITERAL"
	case Variable:
		return "VARIABLE"
	default:
		return "ANY"
	}
}

// Term is an RDF term or a query variable.
type Term struct {
	kind     Kind
	value    string
	lang     string
	datatype string
}

// Kind returns the variant of the term.
func (t Term) Kind() Kind {
	return t.kind
}

// Value returns the IRI, the blank node id, the literal lexical form, or the
// variable name.
func (t Term) Value() string {
	return t.value
}

// Lang returns the lower cased language tag of a literal.
func (t Term) Lang() string {
	return t.lang
}

// Datatype returns the datatype IRI of a typed literal. Simple and language
// tagged literals return the empty string.
func (t Term) Datatype() string {
	return t.datatype
}

// IsAny returns true for the zero term, the pattern wildcard.
func (t Term) IsAny() bool { return t.kind == Any }

// IsIRI returns true if the term is an IRI.
func (t Term) IsIRI() bool { return t.kind == IRI }

// IsBlank returns true if the term is a blank node.
func (t Term) IsBlank() bool { return t.kind == Blank }

// IsLiteral returns true if the term is a literal.
func (t Term) IsLiteral() bool { return t.kind == Literal }

// IsVariable returns true if the term is a query variable.
func (t Term) IsVariable() bool { return t.kind == Variable }

// IsSimple returns true for literals without language tag and datatype.
func (t Term) IsSimple() bool {
	return t.kind == Literal && t.lang == "" && t.datatype == ""
}

// IsHidden returns true for variables generated by the query translation.
// Hidden variables never appear in SELECT * projections.
func (t Term) IsHidden() bool {
	return t.kind == Variable && strings.HasPrefix(t.value, ".")
}

// Equal returns true if both terms are structurally identical.
func (t Term) Equal(o Term) bool {
	return t == o
}

// String returns the canonical N-Triples representation of the term.
func (t Term) String() string {
	switch t.kind {
	case IRI:
		return "<" + t.value + ">"
	case Blank:
		return "_:" + t.value
	case Variable:
		return "?" + t.value
	case Literal:
		var b strings.Builder
		b.WriteByte('"')
		b.WriteString(Escape(t.value))
		b.WriteByte('"')
		switch {
		case t.lang != "":
			b.WriteByte('@')
			b.WriteString(t.lang)
		case t.datatype != "":
			b.WriteString("^^<")
			b.WriteString(t.datatype)
			b.WriteByte('>')
		}
		return b.String()
	default:
		return "*"
	}
}

// Escape escapes the characters that cannot appear verbatim inside a quoted
// literal.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\\\"\n\r\t") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NewIRI returns an IRI term. Empty IRIs and IRIs carrying characters that
// cannot be written between angle brackets are rejected.
func NewIRI(v string) (Term, error) {
	if v == "" {
		return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.NewIRI: empty IRI")
	}
	for _, r := range v {
		if r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r) {
			return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.NewIRI: invalid character in IRI",
				exoerr.Field("iri", v), exoerr.Field("char", string(r)))
		}
	}
	return Term{kind: IRI, value: v}, nil
}

// NewBlankNode returns a blank node with the provided local id.
func NewBlankNode(id string) (Term, error) {
	if id == "" {
		return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.NewBlankNode: empty blank node id")
	}
	for _, r := range id {
		if !isNameRune(r) && r != '-' && r != '.' {
			return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.NewBlankNode: invalid character in id",
				exoerr.Field("id", id), exoerr.Field("char", string(r)))
		}
	}
	return Term{kind: Blank, value: id}, nil
}

// NewFreshBlankNode returns a blank node whose id is guaranteed to be unique.
func NewFreshBlankNode() Term {
	return Term{kind: Blank, value: "b" + strings.ReplaceAll(uuid.NewRandom().String(), "-", "")}
}

// NewLiteral returns a simple literal.
func NewLiteral(v string) Term {
	return Term{kind: Literal, value: v}
}

// NewLangLiteral returns a language tagged literal. The tag is lower cased so
// language comparisons are case insensitive.
func NewLangLiteral(v, lang string) (Term, error) {
	if !validLang(lang) {
		return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.NewLangLiteral: invalid language tag",
			exoerr.Field("lang", lang))
	}
	return Term{kind: Literal, value: v, lang: strings.ToLower(lang)}, nil
}

// NewTypedLiteral returns a literal with the provided datatype IRI.
func NewTypedLiteral(v, datatype string) (Term, error) {
	if _, err := NewIRI(datatype); err != nil {
		return Term{}, exoerr.Wrap(err, exoerr.CodeTermInvalid, "term.NewTypedLiteral: invalid datatype")
	}
	if datatype == RDFLangString {
		return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.NewTypedLiteral: rdf:langString requires a language tag")
	}
	return Term{kind: Literal, value: v, datatype: datatype}, nil
}

// NewVariable returns a query variable. The name excludes the ?/$ sigil.
func NewVariable(name string) (Term, error) {
	if name == "" {
		return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.NewVariable: empty variable name")
	}
	for _, r := range name {
		if !isNameRune(r) {
			return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.NewVariable: invalid character in name",
				exoerr.Field("name", name), exoerr.Field("char", string(r)))
		}
	}
	return Term{kind: Variable, value: name}, nil
}

// NewHiddenVariable returns a variable that cannot clash with any variable
// written in a query.
func NewHiddenVariable(label string) Term {
	return Term{kind: Variable, value: "." + label}
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func validLang(l string) bool {
	if l == "" {
		return false
	}
	for i, part := range strings.Split(l, "-") {
		if part == "" || len(part) > 8 {
			return false
		}
		for _, r := range part {
			isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			isDigit := r >= '0' && r <= '9'
			if !isAlpha && !(i > 0 && isDigit) {
				return false
			}
		}
	}
	return true
}
