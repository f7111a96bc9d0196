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

package io

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/cayleygraph/quad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/storage/memory"
	"github.com/google/exograph/term"
	"github.com/google/exograph/tools/testutil"
)

const data = `# people
<http://example.org/john> <http://example.org/knows> <http://example.org/mary> .
<http://example.org/john> <http://example.org/name> "John" .
<http://example.org/mary> <http://example.org/name> "Marie"@fr <http://example.org/g1> .
<http://example.org/mary> <http://example.org/age> "31"^^<http://www.w3.org/2001/XMLSchema#integer> .
_:k1 <http://example.org/knows> <http://example.org/john> .
<http://example.org/john> <http://example.org/knows> <http://example.org/mary> .
`

func TestReadNQuads(t *testing.T) {
	s := memory.NewStore()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rep, err := ReadNQuads(context.Background(), s, strings.NewReader(data), WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, Report{Read: 6, Duplicates: 1, Labeled: 1}, rep)
	assert.Equal(t, 5, s.Size())
	assert.False(t, s.Batching())
	assert.Contains(t, logs.String(), "duplicate statements in input")
	assert.Contains(t, logs.String(), "graph label dropped")

	marie, err := term.NewLangLiteral("Marie", "fr")
	require.NoError(t, err)
	got := s.Match(storage.Pattern{S: testutil.MustBuildIRI(t, "mary"), P: testutil.MustBuildIRI(t, "name")})
	require.Len(t, got, 1)
	assert.Equal(t, marie, got[0].O())

	age := s.Match(storage.Pattern{P: testutil.MustBuildIRI(t, "age")})
	require.Len(t, age, 1)
	n, ok := age[0].O().Numeric()
	require.True(t, ok)
	assert.Equal(t, int64(31), n.Int)
}

func TestReadNQuadsLeavesStoreOnError(t *testing.T) {
	s := memory.NewStore()
	s.Add(testutil.KnowsGraph(t)...)
	in := "<http://example.org/x> <http://example.org/p> <http://example.org/y> .\nnot a statement\n"
	_, err := ReadNQuads(context.Background(), s, strings.NewReader(in))
	require.Error(t, err)
	assert.Equal(t, exoerr.CodeIOInvalidFormat, exoerr.CodeOf(err))
	assert.Equal(t, 2, s.Size())
	assert.False(t, s.Batching())
}

func TestReadNQuadsRejectsLiteralSubject(t *testing.T) {
	_, _, err := Decode(context.Background(), strings.NewReader(`"x" <http://example.org/p> <http://example.org/y> .`+"\n"))
	require.Error(t, err)
	assert.True(t, exoerr.IsInvalidInput(err) || exoerr.IsStructural(err), "unexpected error %v", err)
}

func TestWriteNQuads(t *testing.T) {
	s := memory.NewStore()
	_, err := ReadNQuads(context.Background(), s, strings.NewReader(data))
	require.NoError(t, err)

	var out bytes.Buffer
	cnt, err := WriteNQuads(context.Background(), &out, s, storage.Pattern{})
	require.NoError(t, err)
	assert.Equal(t, 5, cnt)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 5)
	assert.IsNonDecreasing(t, lines)

	// Writing then reading produces the same graph.
	s2 := memory.NewStore()
	_, err = ReadNQuads(context.Background(), s2, &out)
	require.NoError(t, err)
	assert.ElementsMatch(t, s.Match(storage.Pattern{}), s2.Match(storage.Pattern{}))
}

func TestValueConversion(t *testing.T) {
	tests := []struct {
		t term.Term
		v quad.Value
	}{
		{testutil.MustBuildIRI(t, "a"), quad.IRI(testutil.EX + "a")},
		{testutil.MustBuildTerm(t, "_:b0"), quad.BNode("b0")},
		{term.NewLiteral("plain"), quad.String("plain")},
		{testutil.MustBuildTerm(t, `"chat"@fr`), quad.LangString{Value: "chat", Lang: "fr"}},
		{term.NewInteger(7), quad.TypedString{Value: "7", Type: quad.IRI(term.XSDInteger)}},
	}
	for _, test := range tests {
		assert.Equal(t, test.v, ToValue(test.t), "ToValue(%s)", test.t)
		got, err := FromValue(test.v)
		require.NoError(t, err)
		assert.Equal(t, test.t, got, "FromValue(%v)", test.v)
	}
	assert.Nil(t, ToValue(term.Term{}))
	_, err := FromValue(quad.Int(3))
	assert.Equal(t, exoerr.CodeIOInvalidFormat, exoerr.CodeOf(err))
}
