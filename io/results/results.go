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

// Package results renders query results using the SPARQL 1.1 query results
// JSON format.
package results

import (
	"encoding/json"
	"io"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/term"
)

// MIMEType is the media type of the documents written by this package.
const MIMEType = "application/sparql-results+json"

// Head lists the variables of the solutions.
type Head struct {
	Vars []string `json:"vars,omitempty"`
}

// Value is a single bound term.
type Value struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Bindings holds the solutions of a SELECT query.
type Bindings struct {
	Bindings []map[string]Value `json:"bindings"`
}

// Document is a SELECT or ASK result document. Exactly one of Results and
// Boolean is set.
type Document struct {
	Head    Head      `json:"head"`
	Results *Bindings `json:"results,omitempty"`
	Boolean *bool     `json:"boolean,omitempty"`
}

// NewValue converts a term. Only IRIs, blank nodes and literals have a
// representation.
func NewValue(t term.Term) (Value, bool) {
	switch t.Kind() {
	case term.IRI:
		return Value{Type: "uri", Value: t.Value()}, true
	case term.Blank:
		return Value{Type: "bnode", Value: t.Value()}, true
	case term.Literal:
		return Value{Type: "literal", Value: t.Value(), Lang: t.Lang(), Datatype: t.Datatype()}, true
	}
	return Value{}, false
}

// Select returns the document for the solutions of a SELECT query. Unbound
// variables are left out of each binding.
func Select(tbl *table.Table) *Document {
	vars := tbl.Bindings()
	bs := make([]map[string]Value, 0, tbl.NumRows())
	for _, r := range tbl.Rows() {
		b := make(map[string]Value, len(vars))
		for _, v := range vars {
			t, ok := r[v]
			if !ok {
				continue
			}
			if val, ok := NewValue(t); ok {
				b[v] = val
			}
		}
		bs = append(bs, b)
	}
	return &Document{
		Head:    Head{Vars: append([]string{}, vars...)},
		Results: &Bindings{Bindings: bs},
	}
}

// Ask returns the document for the answer of an ASK query.
func Ask(b bool) *Document {
	return &Document{Boolean: &b}
}

// Write encodes the document as JSON.
func Write(w io.Writer, d *Document) error {
	if err := json.NewEncoder(w).Encode(d); err != nil {
		return exoerr.Wrap(err, exoerr.CodeIOWriteFailure, "results.Write: failed to encode the document")
	}
	return nil
}

// Term converts a value back into a term.
func (v Value) Term() (term.Term, error) {
	switch v.Type {
	case "uri":
		return term.NewIRI(v.Value)
	case "bnode":
		return term.NewBlankNode(v.Value)
	case "literal", "typed-literal":
		switch {
		case v.Lang != "":
			return term.NewLangLiteral(v.Value, v.Lang)
		case v.Datatype != "":
			return term.NewTypedLiteral(v.Value, v.Datatype)
		}
		return term.NewLiteral(v.Value), nil
	}
	return term.Term{}, exoerr.New(exoerr.CodeIOInvalidFormat, "results: unknown value type", exoerr.Field("type", v.Type))
}

// Read decodes a result document. SELECT documents are converted back into
// a table.
func Read(r io.Reader) (*table.Table, *bool, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, nil, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "results.Read: invalid document")
	}
	if d.Boolean != nil {
		return nil, d.Boolean, nil
	}
	if d.Results == nil {
		return nil, nil, exoerr.New(exoerr.CodeIOInvalidFormat, "results.Read: document has neither results nor boolean")
	}
	tbl, err := table.New(d.Head.Vars)
	if err != nil {
		return nil, nil, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "results.Read: invalid head")
	}
	for _, b := range d.Results.Bindings {
		row := make(table.Row, len(b))
		for k, v := range b {
			t, err := v.Term()
			if err != nil {
				return nil, nil, err
			}
			row[k] = t
		}
		tbl.AddRow(row)
	}
	return tbl, nil, nil
}
