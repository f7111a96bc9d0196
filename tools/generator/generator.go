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

// Package generator contains the synthetic data generators used by the store
// property tests and the benchmarks.
package generator

import (
	"fmt"

	"github.com/google/exograph/term"
	"github.com/google/exograph/triple"
)

// Namespace is the IRI prefix of every generated node.
const Namespace = "http://exograph.test/"

// Generator produces synthetic triples.
type Generator interface {
	// Generate creates the requested number of triples.
	Generate(n int) ([]triple.Triple, error)
}

func node(kind string, id string) (term.Term, error) {
	return term.NewIRI(fmt.Sprintf("%s%s/%s", Namespace, kind, id))
}
