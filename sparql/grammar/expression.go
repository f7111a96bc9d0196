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
	"strings"

	"github.com/google/exograph/sparql/lexer"
	"github.com/google/exograph/sparql/semantic"
)

var relational = map[lexer.TokenType]semantic.OP{
	lexer.ItemEQ:  semantic.EQ,
	lexer.ItemNEQ: semantic.NEQ,
	lexer.ItemLT:  semantic.LT,
	lexer.ItemGT:  semantic.GT,
	lexer.ItemLTE: semantic.LTE,
	lexer.ItemGTE: semantic.GTE,
}

var aggregates = map[lexer.TokenType]bool{
	lexer.ItemCount:       true,
	lexer.ItemSum:         true,
	lexer.ItemMin:         true,
	lexer.ItemMax:         true,
	lexer.ItemAvg:         true,
	lexer.ItemSample:      true,
	lexer.ItemGroupConcat: true,
}

// constraint parses a FILTER, HAVING or ORDER BY constraint: a bracketed
// expression or a function call.
func (p *parser) constraint() (semantic.Expression, error) {
	if !p.is(lexer.ItemLPar, lexer.ItemName, lexer.ItemIRI, lexer.ItemPName, lexer.ItemNot) {
		return nil, p.unexpected("( or a function call")
	}
	return p.primary()
}

func (p *parser) expression() (semantic.Expression, error) {
	return p.conditionalOr()
}

func (p *parser) conditionalOr() (semantic.Expression, error) {
	l, err := p.conditionalAnd()
	if err != nil {
		return nil, err
	}
	for p.llk.Consume(lexer.ItemOr) {
		r, err := p.conditionalAnd()
		if err != nil {
			return nil, err
		}
		l = &semantic.Binary{Op: semantic.OR, Left: l, Right: r}
	}
	return l, nil
}

func (p *parser) conditionalAnd() (semantic.Expression, error) {
	l, err := p.relationalExpression()
	if err != nil {
		return nil, err
	}
	for p.llk.Consume(lexer.ItemAnd) {
		r, err := p.relationalExpression()
		if err != nil {
			return nil, err
		}
		l = &semantic.Binary{Op: semantic.AND, Left: l, Right: r}
	}
	return l, nil
}

func (p *parser) relationalExpression() (semantic.Expression, error) {
	l, err := p.additive()
	if err != nil {
		return nil, err
	}
	if op, ok := relational[p.llk.Current().Type]; ok {
		p.llk.Next()
		r, err := p.additive()
		if err != nil {
			return nil, err
		}
		return &semantic.Binary{Op: op, Left: l, Right: r}, nil
	}
	negated := false
	if p.is(lexer.ItemNot) {
		if nt, err := p.llk.Peek(1); err != nil || nt.Type != lexer.ItemIn {
			return l, nil
		}
		p.llk.Next()
		negated = true
	}
	if !p.llk.Consume(lexer.ItemIn) {
		return l, nil
	}
	list, err := p.argList()
	if err != nil {
		return nil, err
	}
	return &semantic.In{Arg: l, List: list, Negated: negated}, nil
}

func (p *parser) additive() (semantic.Expression, error) {
	l, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.is(lexer.ItemPlus, lexer.ItemMinusSign) {
		op := semantic.ADD
		if p.llk.Next().Type == lexer.ItemMinusSign {
			op = semantic.SUB
		}
		r, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		l = &semantic.Binary{Op: op, Left: l, Right: r}
	}
	return l, nil
}

func (p *parser) multiplicative() (semantic.Expression, error) {
	l, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.is(lexer.ItemStar, lexer.ItemSlash) {
		op := semantic.MUL
		if p.llk.Next().Type == lexer.ItemSlash {
			op = semantic.DIV
		}
		r, err := p.unary()
		if err != nil {
			return nil, err
		}
		l = &semantic.Binary{Op: op, Left: l, Right: r}
	}
	return l, nil
}

func (p *parser) unary() (semantic.Expression, error) {
	var op semantic.OP
	switch {
	case p.llk.Consume(lexer.ItemBang):
		op = semantic.NOT
	case p.llk.Consume(lexer.ItemPlus):
		op = semantic.POS
	case p.llk.Consume(lexer.ItemMinusSign):
		op = semantic.NEG
	default:
		return p.primary()
	}
	arg, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &semantic.Unary{Op: op, Arg: arg}, nil
}

func (p *parser) primary() (semantic.Expression, error) {
	t := p.llk.Current()
	switch {
	case t.Type == lexer.ItemLPar:
		p.llk.Next()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ItemRPar, ")"); err != nil {
			return nil, err
		}
		return e, nil
	case t.Type == lexer.ItemVar:
		name, err := semantic.ToVariable(p.llk.Next())
		if err != nil {
			return nil, err
		}
		return &semantic.Variable{Name: name}, nil
	case t.Type == lexer.ItemIRI || t.Type == lexer.ItemPName:
		iri, err := semantic.ToIRI(p.llk.Next(), p.q)
		if err != nil {
			return nil, err
		}
		if !p.is(lexer.ItemLPar) {
			return &semantic.Constant{Value: iri}, nil
		}
		args, err := p.argList()
		if err != nil {
			return nil, err
		}
		return &semantic.Call{Func: iri.Value(), IRI: true, Args: args}, nil
	case t.Type == lexer.ItemString, t.Type == lexer.ItemInteger, t.Type == lexer.ItemDecimal,
		t.Type == lexer.ItemDouble, t.Type == lexer.ItemBoolean:
		v, err := p.varOrTerm()
		if err != nil {
			return nil, err
		}
		return &semantic.Constant{Value: v}, nil
	case aggregates[t.Type]:
		return p.aggregate()
	case t.Type == lexer.ItemNot:
		p.llk.Next()
		if !p.isName("EXISTS") {
			return nil, p.unexpected("EXISTS")
		}
		p.llk.Next()
		g, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &semantic.Exists{Group: g, Negated: true}, nil
	case p.isName("EXISTS"):
		p.llk.Next()
		g, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		return &semantic.Exists{Group: g}, nil
	case t.Type == lexer.ItemName:
		name := strings.ToUpper(p.llk.Next().Text)
		if !p.is(lexer.ItemLPar) {
			return nil, p.unexpected("(")
		}
		args, err := p.argList()
		if err != nil {
			return nil, err
		}
		return &semantic.Call{Func: name, Args: args}, nil
	}
	return nil, p.unexpected("an expression")
}

// argList parses a parenthesized, comma separated list of expressions.
func (p *parser) argList() ([]semantic.Expression, error) {
	if _, err := p.expect(lexer.ItemLPar, "("); err != nil {
		return nil, err
	}
	if p.llk.Consume(lexer.ItemRPar) {
		return nil, nil
	}
	var res []semantic.Expression
	for {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		res = append(res, e)
		if !p.llk.Consume(lexer.ItemComma) {
			break
		}
	}
	if _, err := p.expect(lexer.ItemRPar, ")"); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *parser) aggregate() (semantic.Expression, error) {
	agg := &semantic.Aggregate{Func: strings.ToUpper(p.llk.Next().Text)}
	if _, err := p.expect(lexer.ItemLPar, "("); err != nil {
		return nil, err
	}
	agg.Distinct = p.llk.Consume(lexer.ItemDistinct)
	if !(agg.Func == "COUNT" && p.llk.Consume(lexer.ItemStar)) {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		agg.Arg = arg
	}
	if agg.Func == "GROUP_CONCAT" {
		agg.Separator = " "
		if p.llk.Consume(lexer.ItemSemicolon) {
			if _, err := p.expect(lexer.ItemSeparator, "SEPARATOR"); err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.ItemEQ, "="); err != nil {
				return nil, err
			}
			st, err := p.expect(lexer.ItemString, "a string")
			if err != nil {
				return nil, err
			}
			if agg.Separator, err = semantic.ToString(st); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(lexer.ItemRPar, ")"); err != nil {
		return nil, err
	}
	return agg, nil
}
