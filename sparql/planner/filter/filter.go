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

// Package filter isolates the FILTER evaluation over solution rows.
package filter

import (
	"fmt"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/sparql/table"
)

// Stats counts the rows a filter dropped because its expression failed.
type Stats struct {
	Unbound    int
	TypeErrors int
}

// Errors returns the number of rows dropped on evaluation errors.
func (s Stats) Errors() int {
	return s.Unbound + s.TypeErrors
}

// String returns the string representation of Stats.
func (s Stats) String() string {
	return fmt.Sprintf("unbound=%d type_errors=%d", s.Unbound, s.TypeErrors)
}

// Keep returns true if the expression holds on the row. Rows where the
// expression fails to evaluate are dropped; the error is returned to allow
// the caller to account for it.
func Keep(e semantic.Expression, r table.Row) (bool, error) {
	ok, err := semantic.EvalBool(e, r)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Apply returns the rows for which the expression holds, in their original
// order.
func Apply(e semantic.Expression, rows []table.Row) ([]table.Row, Stats) {
	var (
		res   []table.Row
		stats Stats
	)
	for _, r := range rows {
		ok, err := Keep(e, r)
		switch {
		case err == nil:
			if ok {
				res = append(res, r)
			}
		case exoerr.HasCode(err, exoerr.CodeQueryUnbound):
			stats.Unbound++
		default:
			stats.TypeErrors++
		}
	}
	return res, stats
}
