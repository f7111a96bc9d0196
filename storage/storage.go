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

// Package storage provides the abstractions shared by the triple store and
// its consumers.
package storage

import (
	"fmt"
	"time"

	"github.com/google/exograph/term"
	"github.com/google/exograph/triple"
)

// Pattern is a triple pattern. Each position is either a bound term or the
// wildcard (the zero term.Term). Variables are treated as wildcards by
// Normalize.
//
// Pattern is comparable; the normalized pattern is used as cache key.
type Pattern struct {
	S, P, O term.Term
}

// Normalize returns the pattern with every variable replaced by the wildcard.
func (p Pattern) Normalize() Pattern {
	if p.S.IsVariable() {
		p.S = term.Term{}
	}
	if p.P.IsVariable() {
		p.P = term.Term{}
	}
	if p.O.IsVariable() {
		p.O = term.Term{}
	}
	return p
}

// Bound returns how many positions of the normalized pattern are bound.
func (p Pattern) Bound() int {
	n := 0
	for _, t := range []term.Term{p.S, p.P, p.O} {
		if !t.IsAny() && !t.IsVariable() {
			n++
		}
	}
	return n
}

// Matches returns true if the triple is consistent with the pattern.
func (p Pattern) Matches(t triple.Triple) bool {
	p = p.Normalize()
	return (p.S.IsAny() || p.S == t.S()) &&
		(p.P.IsAny() || p.P == t.P()) &&
		(p.O.IsAny() || p.O == t.O())
}

// String returns a readable representation of the pattern.
func (p Pattern) String() string {
	return fmt.Sprintf("(%s %s %s)", p.S, p.P, p.O)
}

// Matcher is the read interface the query executor evaluates patterns with.
type Matcher interface {
	// Match returns every stored triple consistent with the pattern.
	Match(p Pattern) []triple.Triple
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc func(p Pattern) []triple.Triple

// Match calls f(p).
func (f MatcherFunc) Match(p Pattern) []triple.Triple {
	return f(p)
}

// Graph describes the full contract of a triple store.
type Graph interface {
	Matcher

	// Add inserts the triples. Adding a triple that already exists is a
	// no-op.
	Add(ts ...triple.Triple)

	// Remove deletes the triples. Removing missing triples is a no-op.
	Remove(ts ...triple.Triple)

	// Query is the cached version of Match.
	Query(p Pattern) []triple.Triple

	// BeginBatch starts buffering additions until CommitBatch or DiscardBatch.
	BeginBatch() error

	// CommitBatch applies every buffered addition.
	CommitBatch() error

	// DiscardBatch drops the buffered additions.
	DiscardBatch() error

	// Size returns the number of committed triples.
	Size() int

	// Statistics returns the store statistics.
	Statistics() Statistics
}

// IndexStatistics describes one nested index.
type IndexStatistics struct {
	// Keys is the number of first level keys.
	Keys int `json:"keys"`
	// Pairs is the number of first and second level key pairs.
	Pairs int `json:"pairs"`
	// Entries is the number of leaf values.
	Entries int `json:"entries"`
}

// CacheStatistics describes the result cache and the query latency.
type CacheStatistics struct {
	Capacity       int           `json:"capacity"`
	Len            int           `json:"len"`
	Hits           uint64        `json:"hits"`
	Misses         uint64        `json:"misses"`
	HitRate        float64       `json:"hit_rate"`
	AverageLatency time.Duration `json:"average_latency_ns"`
}

// Statistics describes the content of a store.
type Statistics struct {
	Triples    int                        `json:"triples"`
	Subjects   int                        `json:"distinct_subjects"`
	Predicates int                        `json:"distinct_predicates"`
	Objects    int                        `json:"distinct_objects"`
	Indexes    map[string]IndexStatistics `json:"indexes"`
	Cache      CacheStatistics            `json:"cache"`
	Batching   bool                       `json:"batching"`
	Pending    int                        `json:"pending"`
}
