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

package grammar

import (
	"fmt"

	"github.com/google/exograph/sparql/lexer"
)

// LLk provide the basic lookahead mechanisms required to implement a recursive
// descent LLk parser.
type LLk struct {
	k    int
	pos  int
	tkns []lexer.Token
}

// NewLLk creates a LLk structure for the given string to parse and the
// indicated k lookahead. The whole input is lexed upfront, so the lexer never
// outlives a parser that stops early on an error.
func NewLLk(input string, k int) *LLk {
	l := &LLk{k: k}
	for t := range lexer.New(input, 2*k) {
		l.tkns = append(l.tkns, t)
	}
	if n := len(l.tkns); n == 0 || (l.tkns[n-1].Type != lexer.ItemEOF && l.tkns[n-1].Type != lexer.ItemError) {
		l.tkns = append(l.tkns, lexer.Token{Type: lexer.ItemEOF})
	}
	return l
}

// at returns the token i positions after the current one. Positions beyond
// the input return the last token, which is either EOF or an error.
func (l *LLk) at(i int) *lexer.Token {
	if p := l.pos + i; p < len(l.tkns) {
		return &l.tkns[p]
	}
	return &l.tkns[len(l.tkns)-1]
}

// Current returns the current token being processed.
func (l *LLk) Current() *lexer.Token {
	return l.at(0)
}

// Peek returns the token for the k look ahead. It will return nil and failed
// fail with an error if the provided k is bigger than the declared look ahead
// on creation.
func (l *LLk) Peek(k int) (*lexer.Token, error) {
	if k > l.k {
		return nil, fmt.Errorf("grammar.LLk: cannot look ahead %d beyond defined %d", k, l.k)
	}
	if k <= 0 {
		return nil, fmt.Errorf("grammar.LLk: invalid look ahead value %d", k)
	}
	return l.at(k), nil
}

// CanAccept returns true if the provided token matches the current on being
// processed, false otherwise.
func (l *LLk) CanAccept(tt lexer.TokenType) bool {
	return l.Current().Type == tt
}

// Consume will consume the current token and move to the next one if it matches
// the provided token, false otherwise.
func (l *LLk) Consume(tt lexer.TokenType) bool {
	if l.Current().Type != tt {
		return false
	}
	l.Next()
	return true
}

// Next returns the current token and moves to the next one. The last token is
// never consumed.
func (l *LLk) Next() *lexer.Token {
	t := l.Current()
	if l.pos < len(l.tkns)-1 {
		l.pos++
	}
	return t
}
