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

package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/storage/memory"
	exotest "github.com/google/exograph/tools/testutil"
)

func TestCollectStore(t *testing.T) {
	s := memory.NewStore()
	s.Add(exotest.KnowsGraph(t)...)
	s.Query(storage.Pattern{P: exotest.MustBuildIRI(t, "knows")})
	s.Query(storage.Pattern{P: exotest.MustBuildIRI(t, "knows")})
	c := New(s)

	expected := `
# HELP exograph_store_triples Number of committed triples.
# TYPE exograph_store_triples gauge
exograph_store_triples 2
# HELP exograph_store_distinct_terms Number of distinct terms per triple position.
# TYPE exograph_store_distinct_terms gauge
exograph_store_distinct_terms{position="object"} 2
exograph_store_distinct_terms{position="predicate"} 1
exograph_store_distinct_terms{position="subject"} 2
# HELP exograph_cache_hits_total Number of pattern queries served from the cache.
# TYPE exograph_cache_hits_total counter
exograph_cache_hits_total 1
# HELP exograph_cache_misses_total Number of pattern queries evaluated against the indexes.
# TYPE exograph_cache_misses_total counter
exograph_cache_misses_total 1
# HELP exograph_index_entries Number of leaf entries of an index.
# TYPE exograph_index_entries gauge
exograph_index_entries{index="osp"} 2
exograph_index_entries{index="pos"} 2
exograph_index_entries{index="spo"} 2
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"exograph_store_triples", "exograph_store_distinct_terms",
		"exograph_cache_hits_total", "exograph_cache_misses_total", "exograph_index_entries")
	assert.NoError(t, err)
}

func TestObserveQuery(t *testing.T) {
	c := New(memory.NewStore())
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	c.ObserveQuery(semantic.Select, 3*time.Millisecond, nil)
	c.ObserveQuery(semantic.Select, time.Millisecond, exoerr.New(exoerr.CodeQueryTimeout, "too slow"))
	c.ObserveQuery(semantic.Ask, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2, testutil.CollectAndCount(c, "exograph_engine_query_duration_seconds"))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failures.WithLabelValues("SELECT", string(exoerr.CodeQueryTimeout))))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failures.WithLabelValues("ASK", "unknown")))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Positive(t, n)
}
