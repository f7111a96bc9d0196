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

package generator

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/google/exograph/term"
	"github.com/google/exograph/triple"
)

// randomGraph generates a random graph over a fixed set of nodes and
// predicates.
type randomGraph struct {
	nodes      int
	predicates []term.Term
	rnd        *rand.Rand
}

// NewRandomGraph creates a new random graph generator over n nodes linked by
// the given number of predicates. The seed makes the output reproducible.
func NewRandomGraph(n, predicates int, seed int64) (Generator, error) {
	if n < 1 {
		return nil, fmt.Errorf("invalid number of nodes %d<1", n)
	}
	if predicates < 1 {
		return nil, fmt.Errorf("invalid number of predicates %d<1", predicates)
	}
	r := &randomGraph{nodes: n, rnd: rand.New(rand.NewSource(seed))}
	for i := 0; i < predicates; i++ {
		p, err := node("p", strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		r.predicates = append(r.predicates, p)
	}
	return r, nil
}

// Generate creates the required number of distinct triples.
func (r *randomGraph) Generate(n int) ([]triple.Triple, error) {
	maxEdges := r.nodes * r.nodes * len(r.predicates)
	if n > maxEdges {
		return nil, fmt.Errorf("current configuration only allow a max of %d triples (%d requested)", maxEdges, n)
	}
	var trpls []triple.Triple
	for _, idx := range r.rnd.Perm(maxEdges)[:n] {
		p := idx / (r.nodes * r.nodes)
		i, j := (idx/r.nodes)%r.nodes, idx%r.nodes
		s, err := node("gn", strconv.Itoa(i))
		if err != nil {
			return nil, err
		}
		o, err := node("gn", strconv.Itoa(j))
		if err != nil {
			return nil, err
		}
		t, err := triple.New(s, r.predicates[p], o)
		if err != nil {
			return nil, err
		}
		trpls = append(trpls, t)
	}
	return trpls, nil
}
