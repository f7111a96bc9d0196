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

// Package triple implements the subject predicate object facts stored by
// exograph.
package triple

import (
	"fmt"
	"strings"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/term"
)

// Triple describes a <subject predicate object> fact. Triples are comparable
// values and can be used directly as map keys.
type Triple struct {
	s term.Term
	p term.Term
	o term.Term
}

// New creates a new triple. The subject must be an IRI or a blank node, the
// predicate an IRI, and the object any term but a variable.
func New(s, p, o term.Term) (Triple, error) {
	if !s.IsIRI() && !s.IsBlank() {
		return Triple{}, exoerr.New(exoerr.CodeTripleInvalid, "triple.New: subject must be an IRI or a blank node",
			exoerr.Field("subject", s.String()))
	}
	if !p.IsIRI() {
		return Triple{}, exoerr.New(exoerr.CodeTripleInvalid, "triple.New: predicate must be an IRI",
			exoerr.Field("predicate", p.String()))
	}
	if !o.IsIRI() && !o.IsBlank() && !o.IsLiteral() {
		return Triple{}, exoerr.New(exoerr.CodeTripleInvalid, "triple.New: object must be an IRI, a blank node, or a literal",
			exoerr.Field("object", o.String()))
	}
	return Triple{s: s, p: p, o: o}, nil
}

// S returns the subject of the triple.
func (t Triple) S() term.Term {
	return t.s
}

// P returns the predicate of the triple.
func (t Triple) P() term.Term {
	return t.p
}

// O returns the object of the triple.
func (t Triple) O() term.Term {
	return t.o
}

// IsZero returns true for the zero Triple.
func (t Triple) IsZero() bool {
	return t == Triple{}
}

// String marshals the triple into an N-Triples statement.
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.s, t.p, t.o)
}

// Parse processes the provided text and tries to create a triple. It assumes
// the text contains a single N-Triples statement; the trailing dot is
// optional.
func Parse(line string) (Triple, error) {
	rest := strings.TrimSpace(line)
	var ts [3]term.Term
	for i := range ts {
		raw, r, err := next(rest)
		if err != nil {
			return Triple{}, exoerr.Wrap(err, exoerr.CodeTripleInvalid, "triple.Parse: could not split statement",
				exoerr.Field("line", line))
		}
		t, err := term.Parse(raw)
		if err != nil {
			return Triple{}, err
		}
		ts[i], rest = t, r
	}
	if rest != "" && rest != "." {
		return Triple{}, exoerr.New(exoerr.CodeTripleInvalid, "triple.Parse: unexpected trailing text",
			exoerr.Field("line", line), exoerr.Field("trailing", rest))
	}
	return New(ts[0], ts[1], ts[2])
}

// next splits the first term off s.
func next(s string) (string, string, error) {
	if s == "" {
		return "", "", fmt.Errorf("missing term")
	}
	end := -1
	switch s[0] {
	case '<':
		end = strings.IndexByte(s, '>') + 1
	case '"':
		for i := 1; i < len(s); i++ {
			if s[i] == '\\' {
				i++
				continue
			}
			if s[i] == '"' {
				end = i + 1
				break
			}
		}
		if end > 0 {
			if ws := strings.IndexAny(s[end:], " \t"); ws >= 0 {
				end += ws
			} else {
				end = len(s)
			}
		}
	default:
		end = strings.IndexAny(s, " \t")
		if end < 0 {
			end = len(s)
		}
	}
	if end <= 0 {
		return "", "", fmt.Errorf("unterminated term in %q", s)
	}
	raw := s[:end]
	// A statement may end with the dot attached to the last term.
	if raw[0] != '<' && strings.HasSuffix(raw, ".") && end == len(s) {
		raw, end = raw[:len(raw)-1], end-1
	}
	return raw, strings.TrimSpace(s[end:]), nil
}

// Assemble builds a triple without validating its terms. It is meant for
// terms taken from triples that were already validated by New.
func Assemble(s, p, o term.Term) Triple {
	return Triple{s: s, p: p, o: o}
}
