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

package semantic

import (
	"net/url"
	"strings"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/lexer"
	"github.com/google/exograph/term"
)

// DefaultPrefixes are available to every query unless redeclared.
var DefaultPrefixes = map[string]string{
	"rdf":  term.RDF,
	"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
	"xsd":  term.XSD,
	"owl":  "http://www.w3.org/2002/07/owl#",
}

// SyntaxError returns a query.parse.syntax error located at tkn. The message
// of cause, if any, is appended to msg; cause is not wrapped so the error
// keeps the syntax code.
func SyntaxError(tkn *lexer.Token, msg string, cause error) error {
	fields := append(exoerr.FieldPosition(tkn.Line, tkn.Col), exoerr.Field("token", tkn.Text))
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return exoerr.New(exoerr.CodeQuerySyntax, msg, fields...)
}

// ResolveIRI resolves a possibly relative IRI against base.
func ResolveIRI(base, ref string) string {
	if base == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil || r.IsAbs() {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// ToIRI converts an IRI or prefixed name token into an IRI term. Prefixed
// names are expanded using the query prefixes first and DefaultPrefixes
// second.
func ToIRI(tkn *lexer.Token, q *Query) (term.Term, error) {
	var v string
	switch tkn.Type {
	case lexer.ItemIRI:
		v = ResolveIRI(q.Base, strings.TrimSuffix(strings.TrimPrefix(tkn.Text, "<"), ">"))
	case lexer.ItemPName:
		prefix, local, _ := strings.Cut(tkn.Text, ":")
		ns, ok := q.Prefixes[prefix]
		if !ok {
			ns, ok = DefaultPrefixes[prefix]
		}
		if !ok {
			return term.Term{}, SyntaxError(tkn, "undefined prefix "+prefix+":", nil)
		}
		v = ns + unescapeLocal(local)
	default:
		return term.Term{}, SyntaxError(tkn, "semantic.ToIRI cannot convert token type "+tkn.Type.String(), nil)
	}
	t, err := term.NewIRI(v)
	if err != nil {
		return term.Term{}, SyntaxError(tkn, "invalid IRI", err)
	}
	return t, nil
}

// unescapeLocal removes the backslashes allowed in the local part of a
// prefixed name.
func unescapeLocal(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ToVariable converts a variable token into its name without sigil.
func ToVariable(tkn *lexer.Token) (string, error) {
	if tkn.Type != lexer.ItemVar {
		return "", SyntaxError(tkn, "semantic.ToVariable cannot convert token type "+tkn.Type.String(), nil)
	}
	return tkn.Text[1:], nil
}

// ToBlankNode converts a blank node token into a blank node term.
func ToBlankNode(tkn *lexer.Token) (term.Term, error) {
	if tkn.Type != lexer.ItemBlank {
		return term.Term{}, SyntaxError(tkn, "semantic.ToBlankNode cannot convert token type "+tkn.Type.String(), nil)
	}
	t, err := term.NewBlankNode(strings.TrimPrefix(tkn.Text, "_:"))
	if err != nil {
		return term.Term{}, SyntaxError(tkn, "invalid blank node", err)
	}
	return t, nil
}

// ToString unquotes a string token.
func ToString(tkn *lexer.Token) (string, error) {
	if tkn.Type != lexer.ItemString {
		return "", SyntaxError(tkn, "semantic.ToString cannot convert token type "+tkn.Type.String(), nil)
	}
	s, err := lexer.Unquote(tkn.Text)
	if err != nil {
		return "", SyntaxError(tkn, "invalid string", err)
	}
	return s, nil
}

// ToNumber converts a numeric token into a literal keeping its lexical form.
// sign is either empty, "+" or "-".
func ToNumber(tkn *lexer.Token, sign string) (term.Term, error) {
	var dt string
	switch tkn.Type {
	case lexer.ItemInteger:
		dt = term.XSDInteger
	case lexer.ItemDecimal:
		dt = term.XSDDecimal
	case lexer.ItemDouble:
		dt = term.XSDDouble
	default:
		return term.Term{}, SyntaxError(tkn, "semantic.ToNumber cannot convert token type "+tkn.Type.String(), nil)
	}
	if sign == "+" {
		sign = ""
	}
	t, err := term.NewTypedLiteral(sign+tkn.Text, dt)
	if err != nil {
		return term.Term{}, SyntaxError(tkn, "invalid number", err)
	}
	return t, nil
}

// ToBoolean converts a true or false token into a boolean literal.
func ToBoolean(tkn *lexer.Token) (term.Term, error) {
	if tkn.Type != lexer.ItemBoolean {
		return term.Term{}, SyntaxError(tkn, "semantic.ToBoolean cannot convert token type "+tkn.Type.String(), nil)
	}
	return term.NewBoolean(strings.EqualFold(tkn.Text, "true")), nil
}
