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

package optimizer

import (
	"github.com/google/exograph/storage"
	"github.com/google/exograph/term"
)

// Estimator scores triple patterns while ordering a basic graph pattern.
// Patterns with lower scores are evaluated first. bound holds the variables
// bound by the patterns already chosen.
type Estimator interface {
	Estimate(p storage.Pattern, bound map[string]bool) float64
}

// free returns the positions of p that remain unknown once bound variables
// are substituted.
func free(p storage.Pattern, bound map[string]bool) []term.Term {
	var res []term.Term
	for _, t := range [3]term.Term{p.S, p.P, p.O} {
		switch {
		case t.IsAny():
			res = append(res, t)
		case t.IsVariable() && !bound[t.Value()]:
			res = append(res, t)
		}
	}
	return res
}

// BoundPositions prefers the patterns with fewer free positions.
type BoundPositions struct{}

// Estimate returns the number of free positions of the pattern.
func (BoundPositions) Estimate(p storage.Pattern, bound map[string]bool) float64 {
	return float64(len(free(p, bound)))
}

// CardinalitySource reports how many stored triples match a pattern.
type CardinalitySource interface {
	Cardinality(p storage.Pattern) int
}

// joinSelectivity is the factor a variable bound by an earlier pattern is
// assumed to divide the matches of a pattern by.
const joinSelectivity = 10

// Cardinality prefers the patterns matching fewer stored triples.
type Cardinality struct {
	Source CardinalitySource
}

// Estimate returns the number of triples matching the constant positions of
// the pattern, reduced for every position bound by an earlier pattern.
func (c Cardinality) Estimate(p storage.Pattern, bound map[string]bool) float64 {
	n := float64(c.Source.Cardinality(p.Normalize()))
	for _, t := range [3]term.Term{p.S, p.P, p.O} {
		if t.IsVariable() && bound[t.Value()] {
			n /= joinSelectivity
		}
	}
	return n
}
