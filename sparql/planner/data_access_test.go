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

package planner

import (
	"testing"

	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/tools/testutil"
)

func TestDataAccessSubstitute(t *testing.T) {
	x, y := testutil.MustBuildVariable(t, "x"), testutil.MustBuildVariable(t, "y")
	a, p := testutil.MustBuildIRI(t, "a"), testutil.MustBuildIRI(t, "p")
	got := substitute(storage.Pattern{S: x, P: p, O: y}, table.Row{"x": a})
	want := storage.Pattern{S: a, P: p, O: y}
	if got != want {
		t.Errorf("substitute returned %v; want %v", got, want)
	}
}

func TestDataAccessTripleToRow(t *testing.T) {
	x, y := testutil.MustBuildVariable(t, "x"), testutil.MustBuildVariable(t, "y")
	p := testutil.MustBuildIRI(t, "p")
	ab := testutil.MustBuildTriple(t, "a", "p", "b")
	aa := testutil.MustBuildTriple(t, "a", "p", "a")
	tests := []struct {
		pattern storage.Pattern
		in      table.Row
		want    table.Row
		ok      bool
	}{
		{
			pattern: storage.Pattern{S: x, P: p, O: y},
			in:      table.Row{},
			want:    table.Row{"x": ab.S(), "y": ab.O()},
			ok:      true,
		},
		{
			pattern: storage.Pattern{S: x, P: p, O: x},
			in:      table.Row{},
			ok:      false,
		},
		{
			pattern: storage.Pattern{S: x, P: p, O: y},
			in:      table.Row{"z": ab.P()},
			want:    table.Row{"x": ab.S(), "y": ab.O(), "z": ab.P()},
			ok:      true,
		},
	}
	for _, test := range tests {
		got, ok := tripleToRow(ab, test.pattern, test.in)
		if ok != test.ok {
			t.Errorf("tripleToRow(%s, %s) succeeded=%v; want %v", ab, test.pattern, ok, test.ok)
			continue
		}
		if !ok {
			continue
		}
		if len(got) != len(test.want) || !table.Compatible(got, test.want) {
			t.Errorf("tripleToRow(%s, %s) = %v; want %v", ab, test.pattern, got, test.want)
		}
	}
	got, ok := tripleToRow(aa, storage.Pattern{S: x, P: p, O: x}, table.Row{})
	if !ok || got["x"] != aa.S() {
		t.Errorf("tripleToRow(%s) should bind the repeated variable once; got %v", aa, got)
	}
	in := table.Row{}
	tripleToRow(ab, storage.Pattern{S: x, P: p, O: y}, in)
	if len(in) != 0 {
		t.Errorf("tripleToRow should not modify its input row; got %v", in)
	}
}
