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

package lexer

import "testing"

// collect drains the lexer and strips positions, which are checked
// separately.
func collect(input string) []Token {
	var ts []Token
	for tkn := range New(input, 0) {
		tkn.Line, tkn.Col = 0, 0
		ts = append(ts, tkn)
	}
	return ts
}

func TestIndividualTokens(t *testing.T) {
	table := []struct {
		input  string
		tokens []Token
	}{
		{"", []Token{
			{Type: ItemEOF}}},
		{"{}()[].;,*+-/=!= < > <= >= &&||!^^^|", []Token{
			{Type: ItemLBrace, Text: "{"},
			{Type: ItemRBrace, Text: "}"},
			{Type: ItemLPar, Text: "("},
			{Type: ItemRPar, Text: ")"},
			{Type: ItemLBracket, Text: "["},
			{Type: ItemRBracket, Text: "]"},
			{Type: ItemDot, Text: "."},
			{Type: ItemSemicolon, Text: ";"},
			{Type: ItemComma, Text: ","},
			{Type: ItemStar, Text: "*"},
			{Type: ItemPlus, Text: "+"},
			{Type: ItemMinusSign, Text: "-"},
			{Type: ItemSlash, Text: "/"},
			{Type: ItemEQ, Text: "="},
			{Type: ItemNEQ, Text: "!="},
			{Type: ItemLT, Text: "<"},
			{Type: ItemGT, Text: ">"},
			{Type: ItemLTE, Text: "<="},
			{Type: ItemGTE, Text: ">="},
			{Type: ItemAnd, Text: "&&"},
			{Type: ItemOr, Text: "||"},
			{Type: ItemBang, Text: "!"},
			{Type: ItemHatHat, Text: "^^"},
			{Type: ItemHat, Text: "^"},
			{Type: ItemPipe, Text: "|"},
			{Type: ItemEOF}}},
		{"?foo $bar ?", []Token{
			{Type: ItemVar, Text: "?foo"},
			{Type: ItemVar, Text: "$bar"},
			{Type: ItemQuestion, Text: "?"},
			{Type: ItemEOF}}},
		{`SeLeCt CoNsTrUcT aSk DeScRiBe WhErE OpTiOnAl UnIoN FiLtEr BiNd As
		  OrDeR bY AsC DeSc LiMiT OfFsEt DiStInCt ReDuCeD GrOuP_CoNcAt a tRuE`,
			[]Token{
				{Type: ItemSelect, Text: "SeLeCt"},
				{Type: ItemConstruct, Text: "CoNsTrUcT"},
				{Type: ItemAsk, Text: "aSk"},
				{Type: ItemDescribe, Text: "DeScRiBe"},
				{Type: ItemWhere, Text: "WhErE"},
				{Type: ItemOptional, Text: "OpTiOnAl"},
				{Type: ItemUnion, Text: "UnIoN"},
				{Type: ItemFilter, Text: "FiLtEr"},
				{Type: ItemBind, Text: "BiNd"},
				{Type: ItemAs, Text: "As"},
				{Type: ItemOrder, Text: "OrDeR"},
				{Type: ItemBy, Text: "bY"},
				{Type: ItemAsc, Text: "AsC"},
				{Type: ItemDesc, Text: "DeSc"},
				{Type: ItemLimit, Text: "LiMiT"},
				{Type: ItemOffset, Text: "OfFsEt"},
				{Type: ItemDistinct, Text: "DiStInCt"},
				{Type: ItemReduced, Text: "ReDuCeD"},
				{Type: ItemGroupConcat, Text: "GrOuP_CoNcAt"},
				{Type: ItemA, Text: "a"},
				{Type: ItemBoolean, Text: "tRuE"},
				{Type: ItemEOF}}},
		{"<http://example.org/a> ex:b :c ex: _:b1 regex", []Token{
			{Type: ItemIRI, Text: "<http://example.org/a>"},
			{Type: ItemPName, Text: "ex:b"},
			{Type: ItemPName, Text: ":c"},
			{Type: ItemPName, Text: "ex:"},
			{Type: ItemBlank, Text: "_:b1"},
			{Type: ItemName, Text: "regex"},
			{Type: ItemEOF}}},
		{"?x ex:knows ex:b.", []Token{
			{Type: ItemVar, Text: "?x"},
			{Type: ItemPName, Text: "ex:knows"},
			{Type: ItemPName, Text: "ex:b"},
			{Type: ItemDot, Text: "."},
			{Type: ItemEOF}}},
		{"?a < ?b", []Token{
			{Type: ItemVar, Text: "?a"},
			{Type: ItemLT, Text: "<"},
			{Type: ItemVar, Text: "?b"},
			{Type: ItemEOF}}},
		{`"foo" 'bar' "a \"q\"" """long "quoted"
text""" "chat"@fr-BE "1"^^xsd:int`, []Token{
			{Type: ItemString, Text: `"foo"`},
			{Type: ItemString, Text: `'bar'`},
			{Type: ItemString, Text: `"a \"q\""`},
			{Type: ItemString, Text: "\"\"\"long \"quoted\"\ntext\"\"\""},
			{Type: ItemString, Text: `"chat"`},
			{Type: ItemLangTag, Text: "@fr-BE"},
			{Type: ItemString, Text: `"1"`},
			{Type: ItemHatHat, Text: "^^"},
			{Type: ItemPName, Text: "xsd:int"},
			{Type: ItemEOF}}},
		{"1 23 1.5 .5 1e3 2.5E-2 7.", []Token{
			{Type: ItemInteger, Text: "1"},
			{Type: ItemInteger, Text: "23"},
			{Type: ItemDecimal, Text: "1.5"},
			{Type: ItemDecimal, Text: ".5"},
			{Type: ItemDouble, Text: "1e3"},
			{Type: ItemDouble, Text: "2.5E-2"},
			{Type: ItemInteger, Text: "7"},
			{Type: ItemDot, Text: "."},
			{Type: ItemEOF}}},
		{"# a comment\n?x # another\n", []Token{
			{Type: ItemVar, Text: "?x"},
			{Type: ItemEOF}}},
	}
	for _, test := range table {
		got := collect(test.input)
		if len(got) != len(test.tokens) {
			t.Errorf("lexer.New(%q) returned %d tokens %v; want %d tokens %v", test.input, len(got), got, len(test.tokens), test.tokens)
			continue
		}
		for i := range got {
			if got[i] != test.tokens[i] {
				t.Errorf("lexer.New(%q) token %d = %v; want %v", test.input, i, got[i], test.tokens[i])
			}
		}
	}
}

func TestErrors(t *testing.T) {
	table := []struct {
		input string
		msg   string
	}{
		{`"open`, `[lexer:1:1] string is not properly terminated; missing closing "`},
		{"?x\n  \"a\nb\"", "[lexer:2:3] short strings cannot span multiple lines"},
		{"?x & ?y", "[lexer:1:4] found unknown operator &; did you mean &&?"},
		{"_:", "[lexer:1:1] blank node label expected after _:"},
		{"$", "[lexer:1:1] variable name expected after $"},
		{"\"x\"@", "[lexer:1:4] language tag expected after @"},
		{"~", "[lexer:1:1] found unexpected character '~'"},
	}
	for _, test := range table {
		got := collect(test.input)
		last := got[len(got)-1]
		if last.Type != ItemError {
			t.Errorf("lexer.New(%q) should have ended with an error; got %v", test.input, got)
			continue
		}
		if last.ErrorMessage != test.msg {
			t.Errorf("lexer.New(%q) error = %q; want %q", test.input, last.ErrorMessage, test.msg)
		}
	}
}

func TestPositions(t *testing.T) {
	var got [][2]int
	for tkn := range New("SELECT ?x\nWHERE {\n  ?x <http://e/p> \"\u00e9\" }", 0) {
		got = append(got, [2]int{tkn.Line, tkn.Col})
	}
	want := [][2]int{{1, 1}, {1, 8}, {2, 1}, {2, 7}, {3, 3}, {3, 6}, {3, 19}, {3, 23}, {3, 24}}
	if len(got) != len(want) {
		t.Fatalf("got %d positions %v; want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d at %v; want %v", i, got[i], want[i])
		}
	}
}

func TestNormalization(t *testing.T) {
	// e followed by a combining acute accent becomes a single rune.
	got := collect("\"e\u0301\"")
	if want := "\"\u00e9\""; got[0].Text != want {
		t.Errorf("lexer should NFC normalize its input; got %q, want %q", got[0].Text, want)
	}
}

func TestUnquote(t *testing.T) {
	table := []struct {
		in, want string
	}{
		{`"plain"`, "plain"},
		{`'single'`, "single"},
		{`"a\tb\nc\"d\\"`, "a\tb\nc\"d\\"},
		{`"é"`, "é"},
		{`"\U0001F600"`, "😀"},
		{"\"\"\"multi\nline\"\"\"", "multi\nline"},
		{`""`, ""},
	}
	for _, test := range table {
		got, err := Unquote(test.in)
		if err != nil {
			t.Errorf("Unquote(%q) failed with error %v", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("Unquote(%q) = %q; want %q", test.in, got, test.want)
		}
	}
	for _, bad := range []string{`"\q"`, `"\u12"`, `"`} {
		if _, err := Unquote(bad); err == nil {
			t.Errorf("Unquote(%q) should have failed", bad)
		}
	}
}
