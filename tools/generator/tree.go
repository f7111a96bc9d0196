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
	"strconv"

	"github.com/google/exograph/term"
	"github.com/google/exograph/triple"
)

// treeGenerator generates data modeled after a tree structure.
type treeGenerator struct {
	branch    int
	predicate term.Term
}

// NewTree creates a new tree generator. The triples are generated breadth
// first and all use the predicate parent_of.
func NewTree(branch int) (Generator, error) {
	if branch < 1 {
		return nil, fmt.Errorf("invalid branch factor %d", branch)
	}
	p, err := node("p", "parent_of")
	if err != nil {
		return nil, err
	}
	return &treeGenerator{branch: branch, predicate: p}, nil
}

// Generate creates the requested number of triples. Node i is the parent of
// nodes i*branch+1 to i*branch+branch.
func (t *treeGenerator) Generate(n int) ([]triple.Triple, error) {
	var trpls []triple.Triple
	for child := 1; child <= n; child++ {
		parent := (child - 1) / t.branch
		s, err := node("tn", strconv.Itoa(parent))
		if err != nil {
			return nil, err
		}
		o, err := node("tn", strconv.Itoa(child))
		if err != nil {
			return nil, err
		}
		trpl, err := triple.New(s, t.predicate, o)
		if err != nil {
			return nil, err
		}
		trpls = append(trpls, trpl)
	}
	return trpls, nil
}
