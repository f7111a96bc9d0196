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

package table

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/google/exograph/term"
)

func iri(t *testing.T, v string) term.Term {
	t.Helper()
	res, err := term.NewIRI("http://example.org/" + v)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func blank(t *testing.T, v string) term.Term {
	t.Helper()
	res, err := term.NewBlankNode(v)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestNew(t *testing.T) {
	testTable := []struct {
		bs  []string
		err bool
	}{
		{[]string{}, false},
		{[]string{"foo"}, false},
		{[]string{"foo", "bar"}, false},
		{[]string{"foo", "bar", "foo", "bar"}, true},
	}
	for _, entry := range testTable {
		if _, err := New(entry.bs); (err == nil) == entry.err {
			t.Errorf("table.New failed; want %v for %v ", entry.err, entry.bs)
		}
	}
}

func TestBindings(t *testing.T) {
	tbl, err := New([]string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	tbl.AddBindings([]string{"b", "c"})
	if got, want := len(tbl.Bindings()), 3; got != want {
		t.Fatalf("tbl.AddBindings returned %v; want %d bindings", tbl.Bindings(), want)
	}
	if !tbl.HasBinding("c") || tbl.HasBinding("d") {
		t.Errorf("tbl.HasBinding returned wrong values for %v", tbl.Bindings())
	}
	tbl.AddRow(Row{"a": term.NewLiteral("1"), "c": term.NewLiteral("3")})
	tbl.ProjectBindings([]string{"c"})
	r, ok := tbl.Row(0)
	if !ok {
		t.Fatal("tbl.Row(0) should exist")
	}
	if _, ok := r["a"]; ok || len(r) != 1 {
		t.Errorf("tbl.ProjectBindings should drop non projected values; got %v", r)
	}
	if _, ok := tbl.Row(1); ok {
		t.Errorf("tbl.Row(1) should not exist")
	}
}

func TestCompatibleAndMerge(t *testing.T) {
	a, b := iri(t, "a"), iri(t, "b")
	r1 := Row{"x": a, "y": b}
	if !Compatible(r1, Row{"x": a, "z": b}) {
		t.Errorf("rows sharing equal values should be compatible")
	}
	if Compatible(r1, Row{"x": b}) {
		t.Errorf("rows with different values for ?x should not be compatible")
	}
	if !Compatible(r1, Row{}) {
		t.Errorf("the empty row is compatible with every row")
	}
	m := MergeRows(r1, Row{"z": a})
	if len(m) != 3 || m["z"] != a {
		t.Errorf("MergeRows returned %v", m)
	}
}

func TestKey(t *testing.T) {
	a := iri(t, "a")
	r1, r2 := Row{"x": a, "y": a}, Row{"x": a}
	if r1.Key([]string{"x"}) != r2.Key([]string{"x"}) {
		t.Errorf("rows agreeing on ?x should share the ?x key")
	}
	if r1.Key([]string{"x", "y"}) == r2.Key([]string{"x", "y"}) {
		t.Errorf("bound and unbound ?y should produce different keys")
	}
}

func TestSliceAndDistinct(t *testing.T) {
	tbl, _ := New([]string{"n"})
	for _, v := range []int64{1, 2, 2, 3, 1} {
		tbl.AddRow(Row{"n": term.NewInteger(v)})
	}
	tbl.Distinct()
	if got, want := tbl.NumRows(), 3; got != want {
		t.Fatalf("tbl.Distinct left %d rows; want %d", got, want)
	}
	tbl.Slice(1, 1)
	if got := tbl.Rows(); len(got) != 1 || got[0]["n"] != term.NewInteger(2) {
		t.Errorf("tbl.Slice(1, 1) returned %v", got)
	}
	tbl.Slice(5, -1)
	if tbl.NumRows() != 0 {
		t.Errorf("an offset beyond the table should leave it empty")
	}
}

func TestCompare(t *testing.T) {
	en, _ := term.NewLangLiteral("chat", "en")
	ordered := []term.Term{
		{},
		blank(t, "b1"),
		iri(t, "a"),
		iri(t, "b"),
		term.NewInteger(2),
		term.NewDecimal(2.5),
		term.NewInteger(10),
		term.NewLiteral("chat"),
		en,
	}
	for i := range ordered {
		for j := range ordered {
			got := Compare(ordered[i], ordered[j])
			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got != want {
				t.Errorf("Compare(%v, %v) = %d; want %d", ordered[i], ordered[j], got, want)
			}
		}
	}
}

func TestSort(t *testing.T) {
	tbl, _ := New([]string{"k", "v"})
	rows := []Row{
		{"k": term.NewInteger(2), "v": term.NewLiteral("first two")},
		{"k": term.NewInteger(1), "v": term.NewLiteral("one")},
		{"v": term.NewLiteral("unbound")},
		{"k": term.NewInteger(2), "v": term.NewLiteral("second two")},
	}
	for _, r := range rows {
		tbl.AddRow(r)
	}
	tbl.Sort(SortConfig{{Binding: "k"}})
	want := []string{"unbound", "one", "first two", "second two"}
	for i, r := range tbl.Rows() {
		if got := r["v"].Value(); got != want[i] {
			t.Errorf("ascending row %d = %q; want %q", i, got, want[i])
		}
	}
	tbl.Sort(SortConfig{{Binding: "k", Desc: true}})
	want = []string{"first two", "second two", "one", "unbound"}
	for i, r := range tbl.Rows() {
		if got := r["v"].Value(); got != want[i] {
			t.Errorf("descending row %d = %q; want %q", i, got, want[i])
		}
	}
}

func TestToText(t *testing.T) {
	tbl, _ := New([]string{"s", "o"})
	en, _ := term.NewLangLiteral("Hello", "EN")
	tbl.AddRow(Row{"s": iri(t, "a"), "o": en})
	tbl.AddRow(Row{"s": blank(t, "b1"), "o": term.NewInteger(42)})
	tbl.AddRow(Row{"s": iri(t, "c")})
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "table_text", []byte(tbl.String()))
}
