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

// Package table contains the solution tables produced while evaluating a
// SPARQL query.
package table

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/google/exograph/term"
)

// Unbound is the text used for variables without a value.
const Unbound = "<NULL>"

// Row is a solution mapping from variable names, without the ? sigil, to
// terms. Variables not present in the map are unbound.
type Row map[string]term.Term

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	res := make(Row, len(r))
	for k, v := range r {
		res[k] = v
	}
	return res
}

// Compatible returns true if both rows agree on every shared variable.
func Compatible(r1, r2 Row) bool {
	if len(r2) < len(r1) {
		r1, r2 = r2, r1
	}
	for k, v := range r1 {
		if o, ok := r2[k]; ok && o != v {
			return false
		}
	}
	return true
}

// MergeRows takes a list of rows and returns a new row containing all of
// their bindings. Later rows win on conflicts.
func MergeRows(ms ...Row) Row {
	n := 0
	for _, m := range ms {
		n += len(m)
	}
	res := make(Row, n)
	for _, om := range ms {
		for k, v := range om {
			res[k] = v
		}
	}
	return res
}

// Key returns a canonical string for the row restricted to the provided
// variables. Two rows have the same key iff they bind the same terms to the
// provided variables.
func (r Row) Key(vars []string) string {
	var b strings.Builder
	for _, v := range vars {
		if t, ok := r[v]; ok {
			b.WriteString(t.String())
		}
		b.WriteByte(0)
	}
	return b.String()
}

// ToTextLine converts a row into line of text. To do so, it requires the list
// of bindings of the table, and the separator you want to use. If the separator
// is empty tabs will be used.
func (r Row) ToTextLine(res *bytes.Buffer, bs []string, sep string) error {
	if sep == "" {
		sep = "\t"
	}
	for i, b := range bs {
		v := Unbound
		if c, ok := r[b]; ok {
			v = c.String()
		}
		if i > 0 {
			res.WriteString(sep)
		}
		if _, err := res.WriteString(v); err != nil {
			return err
		}
	}
	return nil
}

// Table contains the solutions of a query. This table implementation is not
// safe for concurrency. You should take appropriate precautions if you want
// to access it concurrently.
type Table struct {
	bs   []string
	mbs  map[string]bool
	data []Row
}

// New returns a new table that can hold data for the given bindings. The
// table creation will fail if there are repeated bindings.
func New(bs []string) (*Table, error) {
	m := make(map[string]bool)
	for _, b := range bs {
		m[b] = true
	}
	if len(m) != len(bs) {
		return nil, fmt.Errorf("table.New does not allow duplicated bindings in %s", bs)
	}
	return &Table{
		bs:  append([]string{}, bs...),
		mbs: m,
	}, nil
}

// AddRow adds a row to the end of a table. It does not check that the row
// only binds declared variables.
func (t *Table) AddRow(r Row) {
	t.data = append(t.data, r)
}

// NumRows returns the number of rows currently available on the table.
func (t *Table) NumRows() int {
	return len(t.data)
}

// Row returns the requested row. Rows start at 0. Also, if you request a row
// beyond it will return nil, and the ok boolean will be false.
func (t *Table) Row(i int) (Row, bool) {
	if i < 0 || i >= len(t.data) {
		return nil, false
	}
	return t.data[i], true
}

// Rows returns all the available rows.
func (t *Table) Rows() []Row {
	return t.data
}

// AddBindings add the new bindings provided to the table.
func (t *Table) AddBindings(bs []string) {
	for _, b := range bs {
		if _, ok := t.mbs[b]; !ok {
			t.mbs[b] = true
			t.bs = append(t.bs, b)
		}
	}
}

// ProjectBindings replaces the current bindings with the projected ones. The
// projection also drops the values of the variables no longer bound from
// every row.
func (t *Table) ProjectBindings(bs []string) {
	t.bs = []string{}
	t.mbs = make(map[string]bool)
	t.AddBindings(bs)
	for i, r := range t.data {
		nr := make(Row, len(t.bs))
		for _, b := range t.bs {
			if v, ok := r[b]; ok {
				nr[b] = v
			}
		}
		t.data[i] = nr
	}
}

// HasBinding returns true if the binding currently exist on the table.
func (t *Table) HasBinding(b string) bool {
	return t.mbs[b]
}

// Bindings returns the bindings contained on the tables.
func (t *Table) Bindings() []string {
	return t.bs
}

// AppendTable appends the rows of the provided table adding any binding
// missing on the receiver.
func (t *Table) AppendTable(t2 *Table) {
	t.AddBindings(t2.bs)
	t.data = append(t.data, t2.data...)
}

// DeleteRow removes the row at position i from the table.
func (t *Table) DeleteRow(i int) error {
	if i < 0 || i >= len(t.data) {
		return fmt.Errorf("cannot delete row %d from a table with %d rows", i, len(t.data))
	}
	t.data = append(t.data[:i], t.data[i+1:]...)
	return nil
}

// Truncate flushes all the data away. It still retains all set bindings.
func (t *Table) Truncate() {
	t.data = []Row{}
}

// Slice keeps at most limit rows after skipping offset rows. A negative
// limit keeps every remaining row.
func (t *Table) Slice(offset, limit int64) {
	if offset < 0 {
		offset = 0
	}
	if offset >= int64(len(t.data)) {
		t.data = []Row{}
		return
	}
	t.data = t.data[offset:]
	if limit >= 0 && limit < int64(len(t.data)) {
		t.data = t.data[:limit]
	}
}

// Distinct drops every row whose projected bindings were already seen,
// keeping the first occurrence.
func (t *Table) Distinct() {
	seen := make(map[string]bool, len(t.data))
	res := t.data[:0]
	for _, r := range t.data {
		k := r.Key(t.bs)
		if seen[k] {
			continue
		}
		seen[k] = true
		res = append(res, r)
	}
	t.data = res
}

// ToText convert the table into a readable text versions. It requires the
// separator to be used between cells.
func (t *Table) ToText(sep string) (*bytes.Buffer, error) {
	if sep == "" {
		sep = "\t"
	}
	res, row := &bytes.Buffer{}, &bytes.Buffer{}
	hs := make([]string, len(t.bs))
	for i, b := range t.bs {
		hs[i] = "?" + b
	}
	res.WriteString(strings.Join(hs, sep))
	res.WriteString("\n")
	for _, r := range t.data {
		if err := r.ToTextLine(row, t.bs, sep); err != nil {
			return nil, err
		}
		if _, err := res.Write(row.Bytes()); err != nil {
			return nil, err
		}
		if _, err := res.WriteString("\n"); err != nil {
			return nil, err
		}
		row.Reset()
	}
	return res, nil
}

// String attempts to force serialize the table into a string.
func (t *Table) String() string {
	b, err := t.ToText("\t")
	if err != nil {
		return fmt.Sprintf("Failed to serialize to text! Error: %s", err)
	}
	return b.String()
}

// SortKey is one of the bindings used to sort a table.
type SortKey struct {
	Binding string
	Desc    bool
}

// SortConfig contains the sorting information. Contains the binding order
// to use while sorting as well as the direction for each of them to use.
type SortConfig []SortKey

func rowLess(ri, rj Row, cfg SortConfig) bool {
	for _, c := range cfg {
		vi, oki := ri[c.Binding]
		vj, okj := rj[c.Binding]
		if !oki {
			vi = term.Term{}
		}
		if !okj {
			vj = term.Term{}
		}
		cmp := Compare(vi, vj)
		if c.Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp < 0
		}
	}
	return false
}

// Sort sorts the table given a sort configuration. Sorting is stable, so rows
// comparing equal keep their relative order.
func (t *Table) Sort(cfg SortConfig) {
	if len(cfg) == 0 {
		return
	}
	sort.SliceStable(t.data, func(i, j int) bool {
		return rowLess(t.data[i], t.data[j], cfg)
	})
}
