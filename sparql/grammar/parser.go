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

// Package grammar implements the recursive descent parser that turns SPARQL
// query text into the abstract syntax tree defined by package semantic.
package grammar

import (
	"fmt"
	"strconv"
	"strings"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/lexer"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/term"
)

// lookahead is the number of tokens the parser may peek beyond the current
// one.
const lookahead = 1

// parser holds the state of a single parse.
type parser struct {
	llk *LLk
	q   *semantic.Query
}

// Parse parses the provided SPARQL query. Syntax errors carry the
// query.parse.syntax code and the line, column, and token where parsing
// stopped.
func Parse(input string) (*semantic.Query, error) {
	return ParsePrefixed(input, nil)
}

// ParsePrefixed parses the query as if the provided prefixes had been
// declared before it. PREFIX declarations in the query override them.
func ParsePrefixed(input string, prefixes map[string]string) (*semantic.Query, error) {
	p := &parser{
		llk: NewLLk(input, lookahead),
		q:   semantic.NewQuery(semantic.Select),
	}
	for name, ns := range prefixes {
		p.q.Prefixes[name] = ns
	}
	if err := p.query(); err != nil {
		return nil, err
	}
	return p.q, nil
}

func (p *parser) errorf(t *lexer.Token, format string, args ...any) error {
	fields := append(exoerr.FieldPosition(t.Line, t.Col), exoerr.Field("token", t.Text))
	msg := fmt.Sprintf("[parser:%d:%d] ", t.Line, t.Col) + fmt.Sprintf(format, args...)
	return exoerr.New(exoerr.CodeQuerySyntax, msg, fields...)
}

// unexpected reports the current token as not matching what was expected.
// Lexer errors are reported as they are.
func (p *parser) unexpected(want string) error {
	t := p.llk.Current()
	switch t.Type {
	case lexer.ItemError:
		fields := append(exoerr.FieldPosition(t.Line, t.Col), exoerr.Field("token", t.Text))
		return exoerr.New(exoerr.CodeQuerySyntax, t.ErrorMessage, fields...)
	case lexer.ItemEOF:
		return p.errorf(t, "expected %s, found end of query", want)
	}
	return p.errorf(t, "expected %s, found %q", want, t.Text)
}

func (p *parser) unsupported(construct string) error {
	t := p.llk.Current()
	return exoerr.New(exoerr.CodeQueryUnsupported, construct+" is not supported",
		exoerr.Field("construct", construct), exoerr.Field("line", t.Line), exoerr.Field("column", t.Col))
}

// expect consumes the current token if it has the provided type.
func (p *parser) expect(tt lexer.TokenType, want string) (*lexer.Token, error) {
	if !p.llk.CanAccept(tt) {
		return nil, p.unexpected(want)
	}
	return p.llk.Next(), nil
}

func (p *parser) is(tts ...lexer.TokenType) bool {
	c := p.llk.Current().Type
	for _, tt := range tts {
		if c == tt {
			return true
		}
	}
	return false
}

func (p *parser) isName(name string) bool {
	t := p.llk.Current()
	return t.Type == lexer.ItemName && strings.EqualFold(t.Text, name)
}

func (p *parser) query() error {
	if err := p.prologue(); err != nil {
		return err
	}
	var err error
	switch p.llk.Current().Type {
	case lexer.ItemSelect:
		err = p.selectQuery()
	case lexer.ItemConstruct:
		err = p.constructQuery()
	case lexer.ItemAsk:
		p.llk.Next()
		p.q.Form = semantic.Ask
		err = p.whereClause()
	case lexer.ItemDescribe:
		err = p.describeQuery()
	default:
		return p.unexpected("SELECT, CONSTRUCT, ASK or DESCRIBE")
	}
	if err != nil {
		return err
	}
	if err := p.solutionModifiers(); err != nil {
		return err
	}
	if p.isName("VALUES") {
		return p.unsupported("VALUES")
	}
	_, err = p.expect(lexer.ItemEOF, "end of query")
	return err
}

func trimIRI(t *lexer.Token) string {
	return strings.TrimSuffix(strings.TrimPrefix(t.Text, "<"), ">")
}

func (p *parser) prologue() error {
	for {
		switch {
		case p.llk.Consume(lexer.ItemBase):
			t, err := p.expect(lexer.ItemIRI, "base IRI")
			if err != nil {
				return err
			}
			p.q.Base = semantic.ResolveIRI(p.q.Base, trimIRI(t))
		case p.llk.Consume(lexer.ItemPrefix):
			t, err := p.expect(lexer.ItemPName, "prefix name")
			if err != nil {
				return err
			}
			name, local, _ := strings.Cut(t.Text, ":")
			if local != "" {
				return p.errorf(t, "prefix declaration %q must end with ':'", t.Text)
			}
			iri, err := p.expect(lexer.ItemIRI, "prefix IRI")
			if err != nil {
				return err
			}
			p.q.Prefixes[name] = semantic.ResolveIRI(p.q.Base, trimIRI(iri))
		default:
			return nil
		}
	}
}

func (p *parser) selectQuery() error {
	p.llk.Next()
	q := p.q
	q.Form = semantic.Select
	if p.llk.Consume(lexer.ItemDistinct) {
		q.Distinct = true
	} else if p.llk.Consume(lexer.ItemReduced) {
		q.Reduced = true
	}
	if p.llk.Consume(lexer.ItemStar) {
		q.Star = true
		return p.whereClause()
	}
	seen := make(map[string]bool)
	for p.is(lexer.ItemVar, lexer.ItemLPar) {
		if p.is(lexer.ItemVar) {
			vt := p.llk.Next()
			name, err := semantic.ToVariable(vt)
			if err != nil {
				return err
			}
			if seen[name] {
				return p.errorf(vt, "variable ?%s is already projected", name)
			}
			seen[name] = true
			q.Projection = append(q.Projection, semantic.Projection{Var: name})
			continue
		}
		p.llk.Next()
		e, err := p.expression()
		if err != nil {
			return err
		}
		if _, err := p.expect(lexer.ItemAs, "AS"); err != nil {
			return err
		}
		vt, err := p.expect(lexer.ItemVar, "a variable")
		if err != nil {
			return err
		}
		name, _ := semantic.ToVariable(vt)
		if seen[name] {
			return p.errorf(vt, "variable ?%s is already projected", name)
		}
		seen[name] = true
		if _, err := p.expect(lexer.ItemRPar, ")"); err != nil {
			return err
		}
		q.Projection = append(q.Projection, semantic.Projection{Var: name, Expr: e})
	}
	if len(q.Projection) == 0 {
		return p.unexpected("a variable, ( or *")
	}
	return p.whereClause()
}

func (p *parser) constructQuery() error {
	p.llk.Next()
	q := p.q
	q.Form = semantic.Construct
	if p.llk.Consume(lexer.ItemWhere) {
		// CONSTRUCT WHERE { ... } uses its pattern as template.
		if _, err := p.expect(lexer.ItemLBrace, "{"); err != nil {
			return err
		}
		tps, err := p.triplesTemplate()
		if err != nil {
			return err
		}
		if _, err := p.expect(lexer.ItemRBrace, "}"); err != nil {
			return err
		}
		q.Template = tps
		q.Where = &semantic.GroupPattern{Elements: []semantic.Element{&semantic.TriplesBlock{Patterns: tps}}}
		return nil
	}
	if _, err := p.expect(lexer.ItemLBrace, "{"); err != nil {
		return err
	}
	tps, err := p.triplesTemplate()
	if err != nil {
		return err
	}
	if _, err := p.expect(lexer.ItemRBrace, "}"); err != nil {
		return err
	}
	q.Template = tps
	return p.whereClause()
}

func (p *parser) triplesTemplate() ([]semantic.TriplePattern, error) {
	if p.is(lexer.ItemRBrace) {
		return nil, nil
	}
	return p.triplesBlock(false)
}

func (p *parser) describeQuery() error {
	p.llk.Next()
	q := p.q
	q.Form = semantic.Describe
	if p.llk.Consume(lexer.ItemStar) {
		q.Star = true
	} else {
		for p.is(lexer.ItemVar, lexer.ItemIRI, lexer.ItemPName) {
			t, err := p.varOrTerm()
			if err != nil {
				return err
			}
			q.Describe = append(q.Describe, t)
		}
		if len(q.Describe) == 0 {
			return p.unexpected("a variable, an IRI or *")
		}
	}
	if p.is(lexer.ItemWhere, lexer.ItemLBrace) {
		return p.whereClause()
	}
	return nil
}

// whereClause parses a group graph pattern optionally preceded by WHERE.
func (p *parser) whereClause() error {
	p.llk.Consume(lexer.ItemWhere)
	g, err := p.groupGraphPattern()
	if err != nil {
		return err
	}
	p.q.Where = g
	return nil
}

func (p *parser) integer() (int64, error) {
	t, err := p.expect(lexer.ItemInteger, "an integer")
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(t.Text, 10, 64)
	if err != nil {
		return 0, p.errorf(t, "invalid integer %q", t.Text)
	}
	return i, nil
}

func (p *parser) solutionModifiers() error {
	q := p.q
	if p.llk.Consume(lexer.ItemGroup) {
		if _, err := p.expect(lexer.ItemBy, "BY"); err != nil {
			return err
		}
		for p.is(lexer.ItemVar, lexer.ItemLPar, lexer.ItemName, lexer.ItemIRI, lexer.ItemPName) {
			gc, err := p.groupCondition()
			if err != nil {
				return err
			}
			q.GroupBy = append(q.GroupBy, gc)
		}
		if len(q.GroupBy) == 0 {
			return p.unexpected("a group condition")
		}
	}
	if p.llk.Consume(lexer.ItemHaving) {
		for p.is(lexer.ItemLPar, lexer.ItemName, lexer.ItemIRI, lexer.ItemPName) {
			e, err := p.constraint()
			if err != nil {
				return err
			}
			q.Having = append(q.Having, e)
		}
		if len(q.Having) == 0 {
			return p.unexpected("a HAVING constraint")
		}
	}
	if p.llk.Consume(lexer.ItemOrder) {
		if _, err := p.expect(lexer.ItemBy, "BY"); err != nil {
			return err
		}
		for p.is(lexer.ItemAsc, lexer.ItemDesc, lexer.ItemVar, lexer.ItemLPar, lexer.ItemName, lexer.ItemIRI, lexer.ItemPName) {
			oc, err := p.orderCondition()
			if err != nil {
				return err
			}
			q.OrderBy = append(q.OrderBy, oc)
		}
		if len(q.OrderBy) == 0 {
			return p.unexpected("an order condition")
		}
	}
	limit, offset := false, false
	for {
		switch {
		case !limit && p.llk.Consume(lexer.ItemLimit):
			l, err := p.integer()
			if err != nil {
				return err
			}
			q.Limit, limit = l, true
		case !offset && p.llk.Consume(lexer.ItemOffset):
			o, err := p.integer()
			if err != nil {
				return err
			}
			q.Offset, offset = o, true
		default:
			return nil
		}
	}
}

func (p *parser) groupCondition() (semantic.GroupCondition, error) {
	if p.is(lexer.ItemVar) {
		name, err := semantic.ToVariable(p.llk.Next())
		return semantic.GroupCondition{Expr: &semantic.Variable{Name: name}}, err
	}
	if !p.llk.Consume(lexer.ItemLPar) {
		e, err := p.primary()
		return semantic.GroupCondition{Expr: e}, err
	}
	e, err := p.expression()
	if err != nil {
		return semantic.GroupCondition{}, err
	}
	gc := semantic.GroupCondition{Expr: e}
	if p.llk.Consume(lexer.ItemAs) {
		vt, err := p.expect(lexer.ItemVar, "a variable")
		if err != nil {
			return gc, err
		}
		gc.Var, _ = semantic.ToVariable(vt)
	}
	_, err = p.expect(lexer.ItemRPar, ")")
	return gc, err
}

func (p *parser) orderCondition() (semantic.OrderCondition, error) {
	desc := p.is(lexer.ItemDesc)
	if p.llk.Consume(lexer.ItemAsc) || p.llk.Consume(lexer.ItemDesc) {
		if !p.is(lexer.ItemLPar) {
			return semantic.OrderCondition{}, p.unexpected("(")
		}
		e, err := p.primary()
		return semantic.OrderCondition{Expr: e, Desc: desc}, err
	}
	if p.is(lexer.ItemVar) {
		name, err := semantic.ToVariable(p.llk.Next())
		return semantic.OrderCondition{Expr: &semantic.Variable{Name: name}}, err
	}
	e, err := p.constraint()
	return semantic.OrderCondition{Expr: e}, err
}

// newVariable builds a variable term out of a variable token.
func newVariable(t *lexer.Token) (term.Term, error) {
	name, err := semantic.ToVariable(t)
	if err != nil {
		return term.Term{}, err
	}
	v, err := term.NewVariable(name)
	if err != nil {
		return term.Term{}, semantic.SyntaxError(t, "invalid variable", err)
	}
	return v, nil
}
