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

package term

import (
	"strings"

	exoerr "github.com/google/exograph/errors"
)

// Parse returns the term given its canonical N-Triples representation as
// produced by String.
func Parse(s string) (Term, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.Parse: empty input")
	}
	switch raw[0] {
	case '<':
		if !strings.HasSuffix(raw, ">") {
			return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.Parse: IRI should finish with '>'",
				exoerr.Field("input", raw))
		}
		return NewIRI(raw[1 : len(raw)-1])
	case '_':
		if !strings.HasPrefix(raw, "_:") {
			break
		}
		return NewBlankNode(raw[2:])
	case '?', '$':
		return NewVariable(raw[1:])
	case '"':
		return parseLiteral(raw)
	}
	return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.Parse: unknown term format",
		exoerr.Field("input", raw))
}

// parseLiteral parses a quoted literal with an optional language or datatype
// suffix.
func parseLiteral(raw string) (Term, error) {
	var (
		b   strings.Builder
		end = -1
	)
	for i := 1; i < len(raw); i++ {
		c := raw[i]
		if c == '"' {
			end = i
			break
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(raw) {
			break
		}
		r, ok := Unescape(raw[i])
		if !ok {
			return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.Parse: invalid escape sequence",
				exoerr.Field("input", raw), exoerr.Field("escape", string(raw[i])))
		}
		b.WriteByte(r)
	}
	if end < 0 {
		return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.Parse: unterminated literal",
			exoerr.Field("input", raw))
	}
	lex, rest := b.String(), raw[end+1:]
	switch {
	case rest == "":
		return NewLiteral(lex), nil
	case strings.HasPrefix(rest, "@"):
		return NewLangLiteral(lex, rest[1:])
	case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
		return NewTypedLiteral(lex, rest[3:len(rest)-1])
	}
	return Term{}, exoerr.New(exoerr.CodeTermInvalid, "term.Parse: invalid literal suffix",
		exoerr.Field("input", raw), exoerr.Field("suffix", rest))
}

// Unescape returns the byte represented by the escape sequence \c.
func Unescape(c byte) (byte, bool) {
	switch c {
	case 't':
		return '\t', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case '"', '\'', '\\':
		return c, true
	}
	return 0, false
}
