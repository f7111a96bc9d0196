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

// Package lexer implements the lexer used by the SPARQL query parser.
// The lexer is loosely written after the model described by Rob Pike
// in his presentation "Lexical Scanning in Go".
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// TokenType list all the possible tokens returned by a lexer.
type TokenType int

const (
	// ItemError contains information about an error triggered while scanning.
	ItemError TokenType = iota
	// ItemEOF indicates end of input to be scanned.
	ItemEOF

	// Keywords.
	ItemBase
	ItemPrefix
	ItemSelect
	ItemConstruct
	ItemAsk
	ItemDescribe
	ItemWhere
	ItemDistinct
	ItemReduced
	ItemOptional
	ItemUnion
	ItemMinus
	ItemGraph
	ItemService
	ItemFilter
	ItemBind
	ItemAs
	ItemOrder
	ItemGroup
	ItemBy
	ItemHaving
	ItemAsc
	ItemDesc
	ItemLimit
	ItemOffset
	ItemIn
	ItemNot
	ItemSeparator
	ItemCount
	ItemSum
	ItemAvg
	ItemMin
	ItemMax
	ItemGroupConcat
	ItemSample

	// ItemA is the 'a' shorthand for rdf:type.
	ItemA
	// ItemBoolean is either true or false.
	ItemBoolean

	// ItemIRI is a full <...> IRI reference.
	ItemIRI
	// ItemPName is a prefixed name such as ex:name, :name or ex:.
	ItemPName
	// ItemBlank is a _:label blank node.
	ItemBlank
	// ItemVar is a ?name or $name variable.
	ItemVar
	// ItemString is a quoted string, including its delimiters.
	ItemString
	// ItemLangTag is a language tag, including the leading @.
	ItemLangTag
	ItemInteger
	ItemDecimal
	ItemDouble
	// ItemName is a bare identifier, used by built-in function calls.
	ItemName

	// Punctuation and operators.
	ItemLBrace
	ItemRBrace
	ItemLPar
	ItemRPar
	ItemLBracket
	ItemRBracket
	ItemDot
	ItemSemicolon
	ItemComma
	ItemStar
	ItemPlus
	ItemMinusSign
	ItemSlash
	ItemEQ
	ItemNEQ
	ItemLT
	ItemGT
	ItemLTE
	ItemGTE
	ItemAnd
	ItemOr
	ItemBang
	ItemHatHat
	ItemHat
	ItemPipe
	ItemQuestion
)

var names = map[TokenType]string{
	ItemError:       "ERROR",
	ItemEOF:         "EOF",
	ItemBase:        "BASE",
	ItemPrefix:      "PREFIX",
	ItemSelect:      "SELECT",
	ItemConstruct:   "CONSTRUCT",
	ItemAsk:         "ASK",
	ItemDescribe:    "DESCRIBE",
	ItemWhere:       "WHERE",
	ItemDistinct:    "DISTINCT",
	ItemReduced:     "REDUCED",
	ItemOptional:    "OPTIONAL",
	ItemUnion:       "UNION",
	ItemMinus:       "MINUS",
	ItemGraph:       "GRAPH",
	ItemService:     "SERVICE",
	ItemFilter:      "FILTER",
	ItemBind:        "BIND",
	ItemAs:          "AS",
	ItemOrder:       "ORDER",
	ItemGroup:       "GROUP",
	ItemBy:          "BY",
	ItemHaving:      "HAVING",
	ItemAsc:         "ASC",
	ItemDesc:        "DESC",
	ItemLimit:       "LIMIT",
	ItemOffset:      "OFFSET",
	ItemIn:          "IN",
	ItemNot:         "NOT",
	ItemSeparator:   "SEPARATOR",
	ItemCount:       "COUNT",
	ItemSum:         "SUM",
	ItemAvg:         "AVG",
	ItemMin:         "MIN",
	ItemMax:         "MAX",
	ItemGroupConcat: "GROUP_CONCAT",
	ItemSample:      "SAMPLE",
	ItemA:           "A",
	ItemBoolean:     "BOOLEAN",
	ItemIRI:         "IRI",
	ItemPName:       "PNAME",
	ItemBlank:       "BLANK",
	ItemVar:         "VAR",
	ItemString:      "STRING",
	ItemLangTag:     "LANGTAG",
	ItemInteger:     "INTEGER",
	ItemDecimal:     "DECIMAL",
	ItemDouble:      "DOUBLE",
	ItemName:        "NAME",
	ItemLBrace:      "LBRACE",
	ItemRBrace:      "RBRACE",
	ItemLPar:        "LPAR",
	ItemRPar:        "RPAR",
	ItemLBracket:    "LBRACKET",
	ItemRBracket:    "RBRACKET",
	ItemDot:         "DOT",
	ItemSemicolon:   "SEMICOLON",
	ItemComma:       "COMMA",
	ItemStar:        "STAR",
	ItemPlus:        "PLUS",
	ItemMinusSign:   "MINUS_SIGN",
	ItemSlash:       "SLASH",
	ItemEQ:          "EQ",
	ItemNEQ:         "NEQ",
	ItemLT:          "LT",
	ItemGT:          "GT",
	ItemLTE:         "LTE",
	ItemGTE:         "GTE",
	ItemAnd:         "AND",
	ItemOr:          "OR",
	ItemBang:        "BANG",
	ItemHatHat:      "HATHAT",
	ItemHat:         "HAT",
	ItemPipe:        "PIPE",
	ItemQuestion:    "QUESTION",
}

func (tt TokenType) String() string {
	if n, ok := names[tt]; ok {
		return n
	}
	return "UNKNOWN"
}

// keywords maps the upper cased keyword text to its token.
var keywords = map[string]TokenType{
	"BASE":         ItemBase,
	"PREFIX":       ItemPrefix,
	"SELECT":       ItemSelect,
	"CONSTRUCT":    ItemConstruct,
	"ASK":          ItemAsk,
	"DESCRIBE":     ItemDescribe,
	"WHERE":        ItemWhere,
	"DISTINCT":     ItemDistinct,
	"REDUCED":      ItemReduced,
	"OPTIONAL":     ItemOptional,
	"UNION":        ItemUnion,
	"MINUS":        ItemMinus,
	"GRAPH":        ItemGraph,
	"SERVICE":      ItemService,
	"FILTER":       ItemFilter,
	"BIND":         ItemBind,
	"AS":           ItemAs,
	"ORDER":        ItemOrder,
	"GROUP":        ItemGroup,
	"BY":           ItemBy,
	"HAVING":       ItemHaving,
	"ASC":          ItemAsc,
	"DESC":         ItemDesc,
	"LIMIT":        ItemLimit,
	"OFFSET":       ItemOffset,
	"IN":           ItemIn,
	"NOT":          ItemNot,
	"SEPARATOR":    ItemSeparator,
	"COUNT":        ItemCount,
	"SUM":          ItemSum,
	"AVG":          ItemAvg,
	"MIN":          ItemMin,
	"MAX":          ItemMax,
	"GROUP_CONCAT": ItemGroupConcat,
	"SAMPLE":       ItemSample,
	"TRUE":         ItemBoolean,
	"FALSE":        ItemBoolean,
}

const eof = -1

// Token contains the type and text collected around the captured token, and
// the 1-based line and column where it starts.
type Token struct {
	Type         TokenType
	Text         string
	ErrorMessage string
	Line         int
	Col          int
}

func (t Token) String() string {
	if t.Type == ItemError {
		return t.ErrorMessage
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Text)
}

// stateFn represents the state of the scanner as a function that returns
// the next state.
type stateFn func(*lexer) stateFn

// lexer holds the state of the scanner.
type lexer struct {
	input     string     // the string being scanned.
	start     int        // start position of this item.
	pos       int        // current position in the input.
	width     int        // width of last rune read from input.
	line      int        // line of the next rune.
	col       int        // column of the next rune.
	lastLine  int        // line before the last next call.
	lastCol   int        // column before the last next call.
	startLine int        // line where the current item starts.
	startCol  int        // column where the current item starts.
	tokens    chan Token // channel of scanned items.
}

// New lexes the NFC normalized input and returns the channel the tokens are
// delivered on. The channel is closed after ItemEOF or the first ItemError.
func New(input string, capacity int) <-chan Token {
	if capacity < 0 {
		capacity = 0
	}
	l := &lexer{
		input:     norm.NFC.String(input),
		line:      1,
		col:       1,
		startLine: 1,
		startCol:  1,
		tokens:    make(chan Token, capacity),
	}
	go l.run()
	return l.tokens
}

// lexToken represents the initial state for token identification.
func lexToken(l *lexer) stateFn {
	for {
		r := l.peek()
		switch {
		case r == eof:
			l.emit(ItemEOF)
			return nil
		case unicode.IsSpace(r):
			l.next()
			l.ignore()
			continue
		case r == '#':
			for r := l.next(); r != '\n' && r != eof; r = l.next() {
			}
			l.ignore()
			continue
		case r == '?' || r == '$':
			return lexVariable
		case r == '<':
			return lexIRIOrLess
		case r == '"' || r == '\'':
			return lexString
		case r == '@':
			return lexLangTag
		case r == '_' && l.peekAt(1) == ':':
			return lexBlank
		case isDigit(r) || (r == '.' && isDigit(l.peekAt(1))):
			return lexNumber
		case r == ':' || unicode.IsLetter(r):
			return lexWord
		}
		return lexSymbol
	}
}

// lexVariable lexes ?name or $name. A lone question mark is a path modifier.
func lexVariable(l *lexer) stateFn {
	l.next()
	n := 0
	for isNameRune(l.peek()) {
		l.next()
		n++
	}
	if n == 0 {
		if strings.HasPrefix(l.input[l.start:], "$") {
			l.emitError("variable name expected after $")
			return nil
		}
		l.emit(ItemQuestion)
		return lexToken
	}
	l.emit(ItemVar)
	return lexToken
}

// lexIRIOrLess lexes a full IRI if the text up to the next > could be one,
// otherwise the less than operators.
func lexIRIOrLess(l *lexer) stateFn {
	rest := l.input[l.pos+1:]
	for i, r := range rest {
		if r == '>' {
			l.pos += i + 2
			l.col += utf8.RuneCountInString(rest[:i]) + 2
			l.emit(ItemIRI)
			return lexToken
		}
		if r <= 0x20 || strings.ContainsRune("<\"{}|^`\\", r) {
			break
		}
	}
	l.next()
	if l.accept('=') {
		l.emit(ItemLTE)
	} else {
		l.emit(ItemLT)
	}
	return lexToken
}

// lexString lexes short and long strings in both quote styles.
func lexString(l *lexer) stateFn {
	q := l.next()
	delim := string(q)
	if l.peek() == q && l.peekAt(1) == q {
		l.next()
		l.next()
		delim = strings.Repeat(delim, 3)
	}
	for {
		if strings.HasPrefix(l.input[l.pos:], delim) {
			for range delim {
				l.next()
			}
			l.emit(ItemString)
			return lexToken
		}
		switch r := l.next(); r {
		case eof:
			l.emitError("string is not properly terminated; missing closing " + delim)
			return nil
		case '\\':
			if l.next() == eof {
				l.emitError("string is not properly terminated; dangling escape")
				return nil
			}
		case '\n', '\r':
			if len(delim) == 1 {
				l.emitError("short strings cannot span multiple lines")
				return nil
			}
		}
	}
}

// lexLangTag lexes @tag.
func lexLangTag(l *lexer) stateFn {
	l.next()
	n := 0
	for r := l.peek(); isASCIILetter(r) || isDigit(r) || r == '-'; r = l.peek() {
		l.next()
		n++
	}
	if n == 0 {
		l.emitError("language tag expected after @")
		return nil
	}
	l.emit(ItemLangTag)
	return lexToken
}

// lexBlank lexes _:label.
func lexBlank(l *lexer) stateFn {
	l.next()
	l.next()
	n := 0
	for r := l.peek(); isNameRune(r) || r == '-' || (r == '.' && isNameRune(l.peekAt(1))); r = l.peek() {
		l.next()
		n++
	}
	if n == 0 {
		l.emitError("blank node label expected after _:")
		return nil
	}
	l.emit(ItemBlank)
	return lexToken
}

// lexNumber lexes integers, decimals and doubles. Signs are left to the
// parser.
func lexNumber(l *lexer) stateFn {
	tt := ItemInteger
	for isDigit(l.peek()) {
		l.next()
	}
	if l.peek() == '.' && isDigit(l.peekAt(1)) {
		tt = ItemDecimal
		l.next()
		for isDigit(l.peek()) {
			l.next()
		}
	}
	if r := l.peek(); r == 'e' || r == 'E' {
		off := 1
		if s := l.peekAt(1); s == '+' || s == '-' {
			off = 2
		}
		if isDigit(l.peekAt(off)) {
			tt = ItemDouble
			for i := 0; i < off; i++ {
				l.next()
			}
			for isDigit(l.peek()) {
				l.next()
			}
		}
	}
	l.emit(tt)
	return lexToken
}

// lexWord lexes keywords, prefixed names and function names.
func lexWord(l *lexer) stateFn {
	for r := l.peek(); isNameRune(r) || r == '-' || r == ':' || r == '.'; r = l.peek() {
		l.next()
	}
	// Prefixed names cannot end with a dot; it terminates the triple.
	for strings.HasSuffix(l.input[l.start:l.pos], ".") {
		l.pos--
		l.col--
	}
	word := l.input[l.start:l.pos]
	switch {
	case strings.Contains(word, ":"):
		l.emit(ItemPName)
	case word == "a":
		l.emit(ItemA)
	default:
		if tt, ok := keywords[strings.ToUpper(word)]; ok {
			l.emit(tt)
		} else {
			l.emit(ItemName)
		}
	}
	return lexToken
}

// lexSymbol lexes punctuation and operators.
func lexSymbol(l *lexer) stateFn {
	r := l.next()
	switch r {
	case '{':
		l.emit(ItemLBrace)
	case '}':
		l.emit(ItemRBrace)
	case '(':
		l.emit(ItemLPar)
	case ')':
		l.emit(ItemRPar)
	case '[':
		l.emit(ItemLBracket)
	case ']':
		l.emit(ItemRBracket)
	case '.':
		l.emit(ItemDot)
	case ';':
		l.emit(ItemSemicolon)
	case ',':
		l.emit(ItemComma)
	case '*':
		l.emit(ItemStar)
	case '+':
		l.emit(ItemPlus)
	case '-':
		l.emit(ItemMinusSign)
	case '/':
		l.emit(ItemSlash)
	case '=':
		l.emit(ItemEQ)
	case '!':
		if l.accept('=') {
			l.emit(ItemNEQ)
		} else {
			l.emit(ItemBang)
		}
	case '>':
		if l.accept('=') {
			l.emit(ItemGTE)
		} else {
			l.emit(ItemGT)
		}
	case '&':
		if !l.accept('&') {
			l.emitError("found unknown operator &; did you mean &&?")
			return nil
		}
		l.emit(ItemAnd)
	case '|':
		if l.accept('|') {
			l.emit(ItemOr)
		} else {
			l.emit(ItemPipe)
		}
	case '^':
		if l.accept('^') {
			l.emit(ItemHatHat)
		} else {
			l.emit(ItemHat)
		}
	default:
		l.emitError(fmt.Sprintf("found unexpected character %q", r))
		return nil
	}
	return lexToken
}

// run lexes the input by executing state functions until the state is nil.
func (l *lexer) run() {
	for state := lexToken(l); state != nil; {
		state = state(l)
	}
	close(l.tokens) // No more tokens will be delivered.
}

// emit passes an item back to the client.
func (l *lexer) emit(t TokenType) {
	l.tokens <- Token{
		Type: t,
		Text: l.input[l.start:l.pos],
		Line: l.startLine,
		Col:  l.startCol,
	}
	l.ignore()
}

// emitError passes an error to the client with proper error messaging.
func (l *lexer) emitError(msg string) {
	l.tokens <- Token{
		Type:         ItemError,
		Text:         l.input[l.start:l.pos],
		ErrorMessage: fmt.Sprintf("[lexer:%d:%d] %s", l.startLine, l.startCol, msg),
		Line:         l.startLine,
		Col:          l.startCol,
	}
	l.ignore()
}

// ignore skips over the pending input before this point.
func (l *lexer) ignore() {
	l.start = l.pos
	l.startLine, l.startCol = l.line, l.col
}

// backup steps back one rune. Can be called only once per call of next.
func (l *lexer) backup() {
	l.pos -= l.width
	l.col, l.line = l.lastCol, l.lastLine
}

// next returns the next rune in the input.
func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		l.lastCol, l.lastLine = l.col, l.line
		return eof
	}
	var r rune
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	l.lastCol, l.lastLine = l.col, l.line
	l.col++
	if r == '\n' {
		l.line++
		l.col = 1
	}
	return r
}

// peek returns but does not consume the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// peekAt returns the rune n runes after the next one without consuming
// anything.
func (l *lexer) peekAt(n int) rune {
	rest := l.input[l.pos:]
	for i := 0; i < n; i++ {
		_, w := utf8.DecodeRuneInString(rest)
		if w == 0 {
			return eof
		}
		rest = rest[w:]
	}
	if rest == "" {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return r
}

// accept consumes the next rune if it's equal to the one provided.
func (l *lexer) accept(r rune) bool {
	if l.next() == r {
		return true
	}
	l.backup()
	return false
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
