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
	"strings"

	"github.com/google/exograph/term"
)

func kindRank(t term.Term) int {
	switch t.Kind() {
	case term.Blank:
		return 1
	case term.IRI:
		return 2
	case term.Literal:
		return 3
	default:
		// Unbound values sort first.
		return 0
	}
}

// Compare returns the ORDER BY ordering between two terms: unbound values,
// then blank nodes, then IRIs, then literals. Numeric literals compare by
// value and date time literals by instant; any other pair of literals compares
// by lexical form, then language, then datatype.
func Compare(a, b term.Term) int {
	if ra, rb := kindRank(a), kindRank(b); ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if !a.IsLiteral() {
		return strings.Compare(a.Value(), b.Value())
	}
	if na, ok := a.Numeric(); ok {
		if nb, ok := b.Numeric(); ok {
			if c := na.Compare(nb); c != 0 {
				return c
			}
			return strings.Compare(a.String(), b.String())
		}
	}
	if ta, ok := a.Time(); ok {
		if tb, ok := b.Time(); ok {
			if c := ta.Compare(tb); c != 0 {
				return c
			}
			return strings.Compare(a.String(), b.String())
		}
	}
	if c := strings.Compare(a.Value(), b.Value()); c != 0 {
		return c
	}
	if c := strings.Compare(a.Lang(), b.Lang()); c != 0 {
		return c
	}
	return strings.Compare(a.Datatype(), b.Datatype())
}
