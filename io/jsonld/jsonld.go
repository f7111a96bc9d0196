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

// Package jsonld converts graphs to and from JSON-LD documents.
package jsonld

import (
	"encoding/json"
	"io"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/term"
	"github.com/google/exograph/triple"
)

// Document is a JSON-LD document with a context and a graph of node
// objects.
type Document map[string]any

// Options controls how documents are built.
type Options struct {
	// Prefixes is written as the document @context.
	Prefixes map[string]string
	// Compact shortens IRIs and keys using the prefixes.
	Compact bool
}

// Dataset returns the RDF dataset holding the triples in its default graph.
func Dataset(ts []triple.Triple) *ld.RDFDataset {
	ds := ld.NewRDFDataset()
	qs := make([]*ld.Quad, 0, len(ts))
	for _, t := range ts {
		qs = append(qs, ld.NewQuad(node(t.S()), node(t.P()), node(t.O()), "@default"))
	}
	ds.Graphs["@default"] = qs
	return ds
}

func node(t term.Term) ld.Node {
	switch t.Kind() {
	case term.IRI:
		return ld.NewIRI(t.Value())
	case term.Blank:
		return ld.NewBlankNode("_:" + t.Value())
	}
	switch {
	case t.Lang() != "":
		return ld.NewLiteral(t.Value(), term.RDFLangString, t.Lang())
	case t.Datatype() != "":
		return ld.NewLiteral(t.Value(), t.Datatype(), "")
	}
	return ld.NewLiteral(t.Value(), term.XSDString, "")
}

func context(prefixes map[string]string) map[string]any {
	ctx := make(map[string]any, len(prefixes))
	for p, ns := range prefixes {
		ctx[p] = ns
	}
	return ctx
}

// Build returns the document describing the triples. Every subject becomes
// a node object keyed by @id; IRI objects are written as {"@id": ...} and
// literals with @value plus @type or @language.
func Build(ts []triple.Triple, opts Options) (Document, error) {
	ldOpts := ld.NewJsonLdOptions("")
	expanded, err := ld.NewJsonLdApi().FromRDF(Dataset(ts), ldOpts)
	if err != nil {
		return nil, exoerr.Wrap(err, exoerr.CodeIOWriteFailure, "jsonld.Build: failed to convert the graph")
	}
	ctx := context(opts.Prefixes)
	if !opts.Compact {
		return Document{"@context": ctx, "@graph": expanded}, nil
	}
	compacted, err := ld.NewJsonLdProcessor().Compact(expanded, map[string]any{"@context": ctx}, ldOpts)
	if err != nil {
		return nil, exoerr.Wrap(err, exoerr.CodeIOWriteFailure, "jsonld.Build: failed to compact the graph")
	}
	doc := Document(compacted)
	if _, ok := doc["@graph"]; ok {
		return doc, nil
	}
	// A single node object is inlined by compaction.
	n := make(map[string]any)
	for k, v := range doc {
		if k != "@context" {
			n[k] = v
			delete(doc, k)
		}
	}
	doc["@context"] = ctx
	if len(n) == 0 {
		doc["@graph"] = []any{}
	} else {
		doc["@graph"] = []any{n}
	}
	return doc, nil
}

// Write builds the document and writes it as indented JSON.
func Write(w io.Writer, ts []triple.Triple, opts Options) error {
	doc, err := Build(ts, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return exoerr.Wrap(err, exoerr.CodeIOWriteFailure, "jsonld.Write: failed to encode the document")
	}
	return nil
}

// Read parses a JSON-LD document and returns the triples of every graph it
// contains, sorted. Remote contexts are not fetched.
func Read(r io.Reader) ([]triple.Triple, error) {
	doc, err := ld.DocumentFromReader(r)
	if err != nil {
		return nil, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "jsonld.Read: invalid document")
	}
	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = noRemote{}
	res, err := ld.NewJsonLdProcessor().ToRDF(doc, opts)
	if err != nil {
		return nil, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "jsonld.Read: failed to convert the document")
	}
	ds, ok := res.(*ld.RDFDataset)
	if !ok {
		return nil, exoerr.New(exoerr.CodeIOInvalidFormat, "jsonld.Read: unexpected conversion result")
	}
	names := make([]string, 0, len(ds.Graphs))
	for g := range ds.Graphs {
		names = append(names, g)
	}
	sort.Strings(names)
	seen := make(map[triple.Triple]bool)
	var ts []triple.Triple
	for _, g := range names {
		for _, q := range ds.Graphs[g] {
			t, err := fromQuad(q)
			if err != nil {
				return nil, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "jsonld.Read: invalid statement")
			}
			if !seen[t] {
				seen[t] = true
				ts = append(ts, t)
			}
		}
	}
	sort.Slice(ts, func(i, j int) bool {
		return ts[i].String() < ts[j].String()
	})
	return ts, nil
}

func fromQuad(q *ld.Quad) (triple.Triple, error) {
	s, err := fromNode(q.Subject)
	if err != nil {
		return triple.Triple{}, err
	}
	p, err := fromNode(q.Predicate)
	if err != nil {
		return triple.Triple{}, err
	}
	o, err := fromNode(q.Object)
	if err != nil {
		return triple.Triple{}, err
	}
	return triple.New(s, p, o)
}

func fromNode(n ld.Node) (term.Term, error) {
	switch n := n.(type) {
	case *ld.IRI:
		return term.NewIRI(n.Value)
	case *ld.BlankNode:
		return term.NewBlankNode(strings.TrimPrefix(n.Attribute, "_:"))
	case *ld.Literal:
		switch {
		case n.Language != "":
			return term.NewLangLiteral(n.Value, n.Language)
		case n.Datatype == "" || n.Datatype == term.XSDString:
			return term.NewLiteral(n.Value), nil
		}
		return term.NewTypedLiteral(n.Value, n.Datatype)
	}
	return term.Term{}, exoerr.New(exoerr.CodeIOInvalidFormat, "jsonld: unsupported node")
}

// noRemote refuses to load remote documents.
type noRemote struct{}

func (noRemote) LoadDocument(u string) (*ld.RemoteDocument, error) {
	return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, "remote documents are not loaded: "+u)
}
