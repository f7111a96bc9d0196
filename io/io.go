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

// Package io provides the tools to read graphs into a store and to write
// them back out using the N-Triples and N-Quads line formats.
package io

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"

	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/nquads"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/term"
	"github.com/google/exograph/triple"
)

// Option configures a read or a write.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger reporting dropped graph labels and duplicates.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Report summarizes a load.
type Report struct {
	// Read is the number of statements read from the input.
	Read int
	// Duplicates is the number of statements already read earlier in the
	// same input.
	Duplicates int
	// Labeled is the number of statements whose graph label was dropped.
	Labeled int
}

// Loader is the part of a store ReadNQuads needs.
type Loader interface {
	Add(ts ...triple.Triple)
	BeginBatch() error
	CommitBatch() error
	DiscardBatch() error
}

// ReadNQuads reads N-Triples or N-Quads statements from r and adds them to
// the store inside a single batch. Graph labels are dropped. If any
// statement fails to parse the batch is discarded and the store is left
// untouched. Repeated statements are not an error; they are counted and
// reported with a warning.
func ReadNQuads(ctx context.Context, g Loader, r io.Reader, opts ...Option) (Report, error) {
	o := newOptions(opts)
	ts, rep, err := Decode(ctx, r, opts...)
	if err != nil {
		return rep, err
	}
	if err := g.BeginBatch(); err != nil {
		return rep, err
	}
	g.Add(ts...)
	if err := ctx.Err(); err != nil {
		if derr := g.DiscardBatch(); derr != nil {
			o.logger.Error("failed to discard batch", "error", derr)
		}
		return rep, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "io.ReadNQuads: load interrupted")
	}
	if err := g.CommitBatch(); err != nil {
		return rep, err
	}
	if rep.Duplicates > 0 {
		o.logger.Warn("duplicate statements in input", "duplicates", rep.Duplicates, "read", rep.Read)
	}
	o.logger.Debug("statements loaded", "read", rep.Read, "added", len(ts))
	return rep, nil
}

// Decode parses every statement of r without touching any store. The
// returned triples are free of duplicates and keep the input order.
func Decode(ctx context.Context, r io.Reader, opts ...Option) ([]triple.Triple, Report, error) {
	o := newOptions(opts)
	qr := nquads.NewReader(r, true)
	defer qr.Close()
	var (
		rep  Report
		ts   []triple.Triple
		seen = make(map[triple.Triple]bool)
	)
	for {
		if rep.Read%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, rep, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "io.Decode: read interrupted")
			}
		}
		q, err := qr.ReadQuad()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rep, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "io.Decode: invalid statement",
				exoerr.Field("statement", rep.Read+1))
		}
		rep.Read++
		t, err := FromQuad(q)
		if err != nil {
			return nil, rep, exoerr.Wrap(err, exoerr.CodeIOInvalidFormat, "io.Decode: invalid statement",
				exoerr.Field("statement", rep.Read))
		}
		if q.Label != nil {
			rep.Labeled++
			o.logger.Debug("graph label dropped", "label", q.Label.String(), "statement", rep.Read)
		}
		if seen[t] {
			rep.Duplicates++
			continue
		}
		seen[t] = true
		ts = append(ts, t)
	}
	return ts, rep, nil
}

// WriteNQuads writes every triple matched by the pattern as one N-Triples
// line. Lines are sorted so the output of a store is stable. It returns the
// number of triples written.
func WriteNQuads(ctx context.Context, w io.Writer, m storage.Matcher, p storage.Pattern) (int, error) {
	ts := m.Match(p)
	sort.Slice(ts, func(i, j int) bool {
		return ts[i].String() < ts[j].String()
	})
	return Encode(ctx, w, ts)
}

// Encode writes the triples in the provided order.
func Encode(ctx context.Context, w io.Writer, ts []triple.Triple) (int, error) {
	qw := nquads.NewWriter(w)
	for i, t := range ts {
		if err := ctx.Err(); err != nil {
			return i, exoerr.Wrap(err, exoerr.CodeIOWriteFailure, "io.Encode: write interrupted")
		}
		if err := qw.WriteQuad(ToQuad(t)); err != nil {
			return i, exoerr.Wrap(err, exoerr.CodeIOWriteFailure, "io.Encode: failed to write triple",
				exoerr.Field("triple", t.String()))
		}
	}
	if err := qw.Close(); err != nil {
		return len(ts), exoerr.Wrap(err, exoerr.CodeIOWriteFailure, "io.Encode: failed to flush")
	}
	return len(ts), nil
}

// FromQuad converts a parsed statement into a triple. The graph label is
// ignored.
func FromQuad(q quad.Quad) (triple.Triple, error) {
	s, err := FromValue(q.Subject)
	if err != nil {
		return triple.Triple{}, err
	}
	p, err := FromValue(q.Predicate)
	if err != nil {
		return triple.Triple{}, err
	}
	o, err := FromValue(q.Object)
	if err != nil {
		return triple.Triple{}, err
	}
	return triple.New(s, p, o)
}

// FromValue converts a quad value into a term.
func FromValue(v quad.Value) (term.Term, error) {
	switch v := v.(type) {
	case quad.IRI:
		return term.NewIRI(string(v))
	case quad.BNode:
		return term.NewBlankNode(string(v))
	case quad.String:
		return term.NewLiteral(string(v)), nil
	case quad.LangString:
		return term.NewLangLiteral(string(v.Value), v.Lang)
	case quad.TypedString:
		return term.NewTypedLiteral(string(v.Value), string(v.Type))
	case nil:
		return term.Term{}, exoerr.New(exoerr.CodeIOInvalidFormat, "io.FromValue: missing value")
	}
	return term.Term{}, exoerr.New(exoerr.CodeIOInvalidFormat, "io.FromValue: unsupported value",
		exoerr.Field("value", v.String()))
}

// ToQuad converts a triple into a statement of the default graph.
func ToQuad(t triple.Triple) quad.Quad {
	return quad.Quad{
		Subject:   ToValue(t.S()),
		Predicate: ToValue(t.P()),
		Object:    ToValue(t.O()),
	}
}

// ToValue converts a term into a quad value. Wildcards and variables have no
// quad counterpart and convert to nil.
func ToValue(t term.Term) quad.Value {
	switch t.Kind() {
	case term.IRI:
		return quad.IRI(t.Value())
	case term.Blank:
		return quad.BNode(t.Value())
	case term.Literal:
		switch {
		case t.Lang() != "":
			return quad.LangString{Value: quad.String(t.Value()), Lang: t.Lang()}
		case t.Datatype() != "":
			return quad.TypedString{Value: quad.String(t.Value()), Type: quad.IRI(t.Datatype())}
		}
		return quad.String(t.Value())
	}
	return nil
}
