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

// Package memory provides a volatile memory-based implementation of the
// storage.Graph interface.
//
// The store keeps the canonical triple set plus three nested indexes over the
// subject-predicate-object, predicate-object-subject and
// object-subject-predicate rotations. Outside an open batch the three indexes
// are exact projections of the triple set.
package memory

import (
	"log/slog"
	"sync"
	"time"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/storage/memoization"
	"github.com/google/exograph/term"
	"github.com/google/exograph/triple"
)

// DefaultCacheCapacity is the number of memoized patterns kept by default.
const DefaultCacheCapacity = 1000

// latencyWeight is the weight given to the newest sample of the query
// latency moving average.
const latencyWeight = 0.2

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCacheCapacity sets the number of memoized patterns. Values lower than
// one disable the cache.
func WithCacheCapacity(n int) Option {
	return func(s *Store) {
		s.cache = memoization.New(n)
	}
}

// Store is the in memory triple store. It is safe for concurrent use: reads
// share a lock, mutations and batch commits hold it exclusively.
type Store struct {
	rwmu    sync.RWMutex
	triples map[triple.Triple]struct{}
	spo     index
	pos     index
	osp     index

	batching bool
	pending  map[triple.Triple]struct{}

	cache  *memoization.Cache
	logger *slog.Logger
	now    func() time.Time

	// Guarded by mmu since they are updated by readers.
	mmu     sync.Mutex
	hits    uint64
	misses  uint64
	latency float64
	sampled bool
	stats   *storage.Statistics
}

var _ storage.Graph = (*Store)(nil)

// NewStore creates a new empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		triples: make(map[triple.Triple]struct{}),
		spo:     make(index),
		pos:     make(index),
		osp:     make(index),
		cache:   memoization.New(DefaultCacheCapacity),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add inserts the triples into the set and the three indexes. When a batch is
// open the triples are buffered instead.
func (s *Store) Add(ts ...triple.Triple) {
	s.rwmu.Lock()
	defer s.rwmu.Unlock()
	if s.batching {
		for _, t := range ts {
			s.pending[t] = struct{}{}
		}
		return
	}
	changed := false
	for _, t := range ts {
		changed = s.insert(t) || changed
	}
	if changed {
		s.invalidate()
	}
}

// Remove deletes the triples from the set and the three indexes. When a batch
// is open only the pending buffer is affected.
func (s *Store) Remove(ts ...triple.Triple) {
	s.rwmu.Lock()
	defer s.rwmu.Unlock()
	if s.batching {
		for _, t := range ts {
			delete(s.pending, t)
		}
		return
	}
	changed := false
	for _, t := range ts {
		changed = s.delete(t) || changed
	}
	if changed {
		s.invalidate()
	}
}

func (s *Store) insert(t triple.Triple) bool {
	if _, ok := s.triples[t]; ok {
		return false
	}
	s.triples[t] = struct{}{}
	s.spo.add(t.S(), t.P(), t.O())
	s.pos.add(t.P(), t.O(), t.S())
	s.osp.add(t.O(), t.S(), t.P())
	return true
}

func (s *Store) delete(t triple.Triple) bool {
	if _, ok := s.triples[t]; !ok {
		return false
	}
	delete(s.triples, t)
	s.spo.remove(t.S(), t.P(), t.O())
	s.pos.remove(t.P(), t.O(), t.S())
	s.osp.remove(t.O(), t.S(), t.P())
	return true
}

// invalidate drops the memoized results and statistics. It must be called
// with the write lock held.
func (s *Store) invalidate() {
	s.cache.Reset()
	s.mmu.Lock()
	s.stats = nil
	s.mmu.Unlock()
}

// BeginBatch opens a batch. Until it is committed or discarded additions are
// buffered and invisible to readers.
func (s *Store) BeginBatch() error {
	s.rwmu.Lock()
	defer s.rwmu.Unlock()
	if s.batching {
		return exoerr.New(exoerr.CodeStoreBatchState, "memory.BeginBatch: a batch is already open")
	}
	s.batching = true
	s.pending = make(map[triple.Triple]struct{})
	s.logger.Debug("batch opened")
	return nil
}

// CommitBatch applies every buffered addition and closes the batch. Readers
// never observe a partially applied batch.
func (s *Store) CommitBatch() error {
	s.rwmu.Lock()
	defer s.rwmu.Unlock()
	if !s.batching {
		return exoerr.New(exoerr.CodeStoreBatchState, "memory.CommitBatch: no batch is open")
	}
	added := 0
	for t := range s.pending {
		if s.insert(t) {
			added++
		}
	}
	buffered := len(s.pending)
	s.batching, s.pending = false, nil
	s.invalidate()
	s.logger.Debug("batch committed", "buffered", buffered, "added", added, "triples", len(s.triples))
	return nil
}

// DiscardBatch drops the buffered additions and closes the batch. Committed
// state is never touched.
func (s *Store) DiscardBatch() error {
	s.rwmu.Lock()
	defer s.rwmu.Unlock()
	if !s.batching {
		return exoerr.New(exoerr.CodeStoreBatchState, "memory.DiscardBatch: no batch is open")
	}
	s.logger.Debug("batch discarded", "buffered", len(s.pending))
	s.batching, s.pending = false, nil
	return nil
}

// Batching returns true while a batch is open.
func (s *Store) Batching() bool {
	s.rwmu.RLock()
	defer s.rwmu.RUnlock()
	return s.batching
}

// Size returns the number of committed triples.
func (s *Store) Size() int {
	s.rwmu.RLock()
	defer s.rwmu.RUnlock()
	return len(s.triples)
}

// Match returns every committed triple consistent with the pattern.
func (s *Store) Match(p storage.Pattern) []triple.Triple {
	s.rwmu.RLock()
	defer s.rwmu.RUnlock()
	return s.match(p.Normalize())
}

// match descends the index whose rotation starts with the bound positions.
// Only the fully unbound pattern scans the triple set.
func (s *Store) match(p storage.Pattern) []triple.Triple {
	sb, pb, ob := !p.S.IsAny(), !p.P.IsAny(), !p.O.IsAny()
	var res []triple.Triple
	mk := func(sv, pv, ov term.Term) {
		res = append(res, triple.Assemble(sv, pv, ov))
	}
	switch {
	case sb && pb && ob:
		t := triple.Assemble(p.S, p.P, p.O)
		if _, ok := s.triples[t]; ok {
			res = append(res, t)
		}
	case sb && pb:
		for o := range s.spo[p.S][p.P] {
			mk(p.S, p.P, o)
		}
	case sb && ob:
		for pv := range s.osp[p.O][p.S] {
			mk(p.S, pv, p.O)
		}
	case pb && ob:
		for sv := range s.pos[p.P][p.O] {
			mk(sv, p.P, p.O)
		}
	case sb:
		for pv, os := range s.spo[p.S] {
			for o := range os {
				mk(p.S, pv, o)
			}
		}
	case pb:
		for o, ss := range s.pos[p.P] {
			for sv := range ss {
				mk(sv, p.P, o)
			}
		}
	case ob:
		for sv, ps := range s.osp[p.O] {
			for pv := range ps {
				mk(sv, pv, p.O)
			}
		}
	default:
		res = make([]triple.Triple, 0, len(s.triples))
		for t := range s.triples {
			res = append(res, t)
		}
	}
	return res
}

// Cardinality returns the number of triples matching the pattern without
// materializing them.
func (s *Store) Cardinality(p storage.Pattern) int {
	s.rwmu.RLock()
	defer s.rwmu.RUnlock()
	p = p.Normalize()
	sb, pb, ob := !p.S.IsAny(), !p.P.IsAny(), !p.O.IsAny()
	switch {
	case sb && pb && ob:
		if _, ok := s.triples[triple.Assemble(p.S, p.P, p.O)]; ok {
			return 1
		}
		return 0
	case sb && pb:
		return len(s.spo[p.S][p.P])
	case sb && ob:
		return len(s.osp[p.O][p.S])
	case pb && ob:
		return len(s.pos[p.P][p.O])
	case sb:
		return s.spo.count(p.S)
	case pb:
		return s.pos.count(p.P)
	case ob:
		return s.osp.count(p.O)
	default:
		return len(s.triples)
	}
}

// Query is the memoized version of Match. The returned slice is shared with
// later hits and must not be modified.
func (s *Store) Query(p storage.Pattern) []triple.Triple {
	start := s.now()
	s.rwmu.RLock()
	defer s.rwmu.RUnlock()
	if ts, ok := s.cache.Get(p); ok {
		s.record(true, s.now().Sub(start))
		return ts
	}
	ts := s.match(p.Normalize())
	s.cache.Put(p, ts)
	s.record(false, s.now().Sub(start))
	return ts
}

func (s *Store) record(hit bool, d time.Duration) {
	s.mmu.Lock()
	defer s.mmu.Unlock()
	if hit {
		s.hits++
	} else {
		s.misses++
	}
	s.latency, s.sampled = smooth(s.latency, s.sampled, d), true
}

// smooth folds a latency sample into the moving average. The first sample
// initializes the average.
func smooth(avg float64, sampled bool, d time.Duration) float64 {
	if !sampled {
		return float64(d)
	}
	return latencyWeight*float64(d) + (1-latencyWeight)*avg
}

// Optimize rebuilds the three indexes from the triple set.
func (s *Store) Optimize() {
	s.rwmu.Lock()
	defer s.rwmu.Unlock()
	s.spo, s.pos, s.osp = make(index), make(index), make(index)
	for t := range s.triples {
		s.spo.add(t.S(), t.P(), t.O())
		s.pos.add(t.P(), t.O(), t.S())
		s.osp.add(t.O(), t.S(), t.P())
	}
	s.invalidate()
	s.logger.Debug("indexes rebuilt", "triples", len(s.triples))
}

// Statistics returns the store statistics. Counts are computed on first use
// and kept until the next mutation; cache figures are always current.
func (s *Store) Statistics() storage.Statistics {
	s.rwmu.RLock()
	defer s.rwmu.RUnlock()
	s.mmu.Lock()
	defer s.mmu.Unlock()
	if s.stats == nil {
		s.stats = &storage.Statistics{
			Triples:    len(s.triples),
			Subjects:   len(s.spo),
			Predicates: len(s.pos),
			Objects:    len(s.osp),
			Indexes: map[string]storage.IndexStatistics{
				"spo": s.spo.statistics(),
				"pos": s.pos.statistics(),
				"osp": s.osp.statistics(),
			},
		}
	}
	st := *s.stats
	st.Indexes = make(map[string]storage.IndexStatistics, len(s.stats.Indexes))
	for k, v := range s.stats.Indexes {
		st.Indexes[k] = v
	}
	st.Batching, st.Pending = s.batching, len(s.pending)
	st.Cache = storage.CacheStatistics{
		Capacity:       s.cache.Capacity(),
		Len:            s.cache.Len(),
		Hits:           s.hits,
		Misses:         s.misses,
		AverageLatency: time.Duration(s.latency),
	}
	if total := s.hits + s.misses; total > 0 {
		st.Cache.HitRate = float64(s.hits) / float64(total)
	}
	return st
}

// Consistent checks that the three indexes are exact projections of the
// triple set.
func (s *Store) Consistent() bool {
	s.rwmu.RLock()
	defer s.rwmu.RUnlock()
	for _, ix := range []index{s.spo, s.pos, s.osp} {
		if ix.statistics().Entries != len(s.triples) {
			return false
		}
	}
	for t := range s.triples {
		if !s.spo.has(t.S(), t.P(), t.O()) || !s.pos.has(t.P(), t.O(), t.S()) || !s.osp.has(t.O(), t.S(), t.P()) {
			return false
		}
	}
	return true
}
