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

package memory

import (
	"github.com/google/exograph/storage"
	"github.com/google/exograph/term"
)

// index maps a first term to a second term to the set of third terms of one
// triple rotation. Empty inner maps are always pruned.
type index map[term.Term]map[term.Term]map[term.Term]struct{}

func (ix index) add(a, b, c term.Term) {
	l2, ok := ix[a]
	if !ok {
		l2 = make(map[term.Term]map[term.Term]struct{})
		ix[a] = l2
	}
	l3, ok := l2[b]
	if !ok {
		l3 = make(map[term.Term]struct{})
		l2[b] = l3
	}
	l3[c] = struct{}{}
}

func (ix index) remove(a, b, c term.Term) {
	l2, ok := ix[a]
	if !ok {
		return
	}
	l3, ok := l2[b]
	if !ok {
		return
	}
	delete(l3, c)
	if len(l3) == 0 {
		delete(l2, b)
	}
	if len(l2) == 0 {
		delete(ix, a)
	}
}

func (ix index) has(a, b, c term.Term) bool {
	_, ok := ix[a][b][c]
	return ok
}

// count returns the number of leaves under the first level key.
func (ix index) count(a term.Term) int {
	n := 0
	for _, l3 := range ix[a] {
		n += len(l3)
	}
	return n
}

func (ix index) statistics() storage.IndexStatistics {
	st := storage.IndexStatistics{Keys: len(ix)}
	for _, l2 := range ix {
		st.Pairs += len(l2)
		for _, l3 := range l2 {
			st.Entries += len(l3)
		}
	}
	return st
}
