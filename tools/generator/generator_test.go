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
	"reflect"
	"testing"

	"github.com/google/exograph/triple"
)

func TestRandomGraph(t *testing.T) {
	if _, err := NewRandomGraph(0, 1, 1); err == nil {
		t.Errorf("NewRandomGraph should fail for zero nodes")
	}
	g, err := NewRandomGraph(10, 2, 42)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(201); err == nil {
		t.Errorf("Generate should fail when requesting more triples than possible edges")
	}
	ts, err := g.Generate(150)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[triple.Triple]bool)
	for _, tr := range ts {
		if seen[tr] {
			t.Fatalf("Generate returned duplicate triple %v", tr)
		}
		seen[tr] = true
	}
	if got, want := len(seen), 150; got != want {
		t.Errorf("Generate returned %d distinct triples; want %d", got, want)
	}
	g2, _ := NewRandomGraph(10, 2, 42)
	ts2, _ := g2.Generate(150)
	if !reflect.DeepEqual(ts, ts2) {
		t.Errorf("generators with the same seed should produce the same triples")
	}
}

func TestTree(t *testing.T) {
	g, err := NewTree(2)
	if err != nil {
		t.Fatal(err)
	}
	ts, err := g.Generate(6)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(ts), 6; got != want {
		t.Fatalf("Generate returned %d triples; want %d", got, want)
	}
	if got, want := ts[5].S().Value(), Namespace+"tn/2"; got != want {
		t.Errorf("parent of node 6 is %q; want %q", got, want)
	}
}
