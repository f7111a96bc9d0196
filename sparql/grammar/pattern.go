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
	"github.com/google/exograph/sparql/lexer"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/term"
)

func (p *parser) groupGraphPattern() (*semantic.GroupPattern, error) {
	if _, err := p.expect(lexer.ItemLBrace, "{"); err != nil {
		return nil, err
	}
	if p.is(lexer.ItemSelect) {
		return nil, p.unsupported("subquery")
	}
	g := &semantic.GroupPattern{}
	for {
		var (
			elem semantic.Element
			err  error
		)
		switch t := p.llk.Current(); t.Type {
		case lexer.ItemRBrace:
			p.llk.Next()
			return g, nil
		case lexer.ItemDot:
			p.llk.Next()
			continue
		case lexer.ItemLBrace:
			elem, err = p.groupOrUnion()
		case lexer.ItemOptional:
			p.llk.Next()
			var sub *semantic.GroupPattern
			sub, err = p.groupGraphPattern()
			elem = &semantic.Optional{Group: sub}
		case lexer.ItemMinus:
			p.llk.Next()
			elem, err = p.unsupportedGroup("MINUS")
		case lexer.ItemGraph:
			p.llk.Next()
			if _, err := p.varOrIRI(); err != nil {
				return nil, err
			}
			elem, err = p.unsupportedGroup("GRAPH")
		case lexer.ItemService:
			p.llk.Next()
			if p.isName("SILENT") {
				p.llk.Next()
			}
			if _, err := p.varOrIRI(); err != nil {
				return nil, err
			}
			elem, err = p.unsupportedGroup("SERVICE")
		case lexer.ItemFilter:
			p.llk.Next()
			var e semantic.Expression
			e, err = p.constraint()
			elem = &semantic.Filter{Expr: e}
		case lexer.ItemBind:
			p.llk.Next()
			elem, err = p.bind()
		default:
			if p.isName("VALUES") {
				return nil, p.unsupported("VALUES")
			}
			if !p.startsTriple() {
				return nil, p.unexpected("a graph pattern or }")
			}
			var tps []semantic.TriplePattern
			tps, err = p.triplesBlock(true)
			elem = &semantic.TriplesBlock{Patterns: tps}
		}
		if err != nil {
			return nil, err
		}
		g.Elements = append(g.Elements, elem)
	}
}

func (p *parser) unsupportedGroup(name string) (semantic.Element, error) {
	sub, err := p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	return &semantic.Unsupported{Name: name, Group: sub}, nil
}

// groupOrUnion parses a nested group or a chain of groups joined by UNION.
func (p *parser) groupOrUnion() (semantic.Element, error) {
	g, err := p.groupGraphPattern()
	if err != nil {
		return nil, err
	}
	if !p.is(lexer.ItemUnion) {
		return g, nil
	}
	u := &semantic.Union{Groups: []*semantic.GroupPattern{g}}
	for p.llk.Consume(lexer.ItemUnion) {
		g, err := p.groupGraphPattern()
		if err != nil {
			return nil, err
		}
		u.Groups = append(u.Groups, g)
	}
	return u, nil
}

func (p *parser) bind() (semantic.Element, error) {
	if _, err := p.expect(lexer.ItemLPar, "("); err != nil {
		return nil, err
	}
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ItemAs, "AS"); err != nil {
		return nil, err
	}
	vt, err := p.expect(lexer.ItemVar, "a variable")
	if err != nil {
		return nil, err
	}
	name, _ := semantic.ToVariable(vt)
	if _, err := p.expect(lexer.ItemRPar, ")"); err != nil {
		return nil, err
	}
	return &semantic.Bind{Expr: e, Var: name}, nil
}

func (p *parser) startsTriple() bool {
	return p.is(lexer.ItemVar, lexer.ItemIRI, lexer.ItemPName, lexer.ItemBlank, lexer.ItemLBracket,
		lexer.ItemString, lexer.ItemInteger, lexer.ItemDecimal, lexer.ItemDouble, lexer.ItemBoolean, lexer.ItemLPar)
}

func (p *parser) startsVerb() bool {
	return p.is(lexer.ItemVar, lexer.ItemIRI, lexer.ItemPName, lexer.ItemA, lexer.ItemHat, lexer.ItemLPar, lexer.ItemBang)
}

// triplesBlock parses triple patterns separated by dots. Property paths are
// only accepted when allowPaths is set.
func (p *parser) triplesBlock(allowPaths bool) ([]semantic.TriplePattern, error) {
	var res []semantic.TriplePattern
	for {
		if err := p.triplesSameSubject(&res, allowPaths); err != nil {
			return nil, err
		}
		if !p.llk.Consume(lexer.ItemDot) || !p.startsTriple() {
			return res, nil
		}
	}
}

func (p *parser) triplesSameSubject(res *[]semantic.TriplePattern, allowPaths bool) error {
	if p.is(lexer.ItemLBracket) {
		s, err := p.blankNodePropertyList(res, allowPaths)
		if err != nil {
			return err
		}
		if !p.startsVerb() {
			return nil
		}
		return p.propertyList(s, res, allowPaths)
	}
	if p.is(lexer.ItemLPar) {
		return p.unsupported("collection")
	}
	s, err := p.varOrTerm()
	if err != nil {
		return err
	}
	return p.propertyList(s, res, allowPaths)
}

// propertyList parses the predicate object lists sharing subject s.
func (p *parser) propertyList(s term.Term, res *[]semantic.TriplePattern, allowPaths bool) error {
	for {
		pred, path, err := p.verb(allowPaths)
		if err != nil {
			return err
		}
		for {
			o, err := p.graphNode(res, allowPaths)
			if err != nil {
				return err
			}
			*res = append(*res, semantic.TriplePattern{S: s, P: pred, O: o, Path: path})
			if !p.llk.Consume(lexer.ItemComma) {
				break
			}
		}
		if !p.llk.Consume(lexer.ItemSemicolon) {
			return nil
		}
		for p.llk.Consume(lexer.ItemSemicolon) {
		}
		if !p.startsVerb() {
			return nil
		}
	}
}

// verb returns either a predicate term or, for anything but a plain IRI, a
// property path.
func (p *parser) verb(allowPaths bool) (term.Term, *semantic.Path, error) {
	if p.is(lexer.ItemVar) {
		v, err := newVariable(p.llk.Next())
		return v, nil, err
	}
	start := p.llk.Current()
	path, err := p.pathAlternative()
	if err != nil {
		return term.Term{}, nil, err
	}
	if path.Op == semantic.PathLink {
		return path.IRI, nil, nil
	}
	if !allowPaths {
		return term.Term{}, nil, p.errorf(start, "property paths are not allowed in templates")
	}
	return term.Term{}, path, nil
}

func (p *parser) pathAlternative() (*semantic.Path, error) {
	first, err := p.pathSequence()
	if err != nil || !p.is(lexer.ItemPipe) {
		return first, err
	}
	res := &semantic.Path{Op: semantic.PathAlternative, Args: []*semantic.Path{first}}
	for p.llk.Consume(lexer.ItemPipe) {
		next, err := p.pathSequence()
		if err != nil {
			return nil, err
		}
		res.Args = append(res.Args, next)
	}
	return res, nil
}

func (p *parser) pathSequence() (*semantic.Path, error) {
	first, err := p.pathEltOrInverse()
	if err != nil || !p.is(lexer.ItemSlash) {
		return first, err
	}
	res := &semantic.Path{Op: semantic.PathSequence, Args: []*semantic.Path{first}}
	for p.llk.Consume(lexer.ItemSlash) {
		next, err := p.pathEltOrInverse()
		if err != nil {
			return nil, err
		}
		res.Args = append(res.Args, next)
	}
	return res, nil
}

func (p *parser) pathEltOrInverse() (*semantic.Path, error) {
	inverse := p.llk.Consume(lexer.ItemHat)
	elt, err := p.pathElt()
	if err != nil || !inverse {
		return elt, err
	}
	return &semantic.Path{Op: semantic.PathInverse, Args: []*semantic.Path{elt}}, nil
}

func (p *parser) pathElt() (*semantic.Path, error) {
	prim, err := p.pathPrimary()
	if err != nil {
		return nil, err
	}
	var op semantic.PathOp
	switch {
	case p.llk.Consume(lexer.ItemStar):
		op = semantic.PathZeroOrMore
	case p.llk.Consume(lexer.ItemPlus):
		op = semantic.PathOneOrMore
	case p.llk.Consume(lexer.ItemQuestion):
		op = semantic.PathZeroOrOne
	default:
		return prim, nil
	}
	return &semantic.Path{Op: op, Args: []*semantic.Path{prim}}, nil
}

func (p *parser) pathPrimary() (*semantic.Path, error) {
	switch {
	case p.llk.Consume(lexer.ItemBang):
		neg := &semantic.Path{Op: semantic.PathNegated}
		if !p.llk.Consume(lexer.ItemLPar) {
			one, err := p.pathOneInPropertySet()
			if err != nil {
				return nil, err
			}
			neg.Args = append(neg.Args, one)
			return neg, nil
		}
		for {
			one, err := p.pathOneInPropertySet()
			if err != nil {
				return nil, err
			}
			neg.Args = append(neg.Args, one)
			if !p.llk.Consume(lexer.ItemPipe) {
				break
			}
		}
		if _, err := p.expect(lexer.ItemRPar, ")"); err != nil {
			return nil, err
		}
		return neg, nil
	case p.llk.Consume(lexer.ItemLPar):
		res, err := p.pathAlternative()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ItemRPar, ")"); err != nil {
			return nil, err
		}
		return res, nil
	}
	return p.pathLink()
}

func (p *parser) pathOneInPropertySet() (*semantic.Path, error) {
	if p.llk.Consume(lexer.ItemHat) {
		l, err := p.pathLink()
		if err != nil {
			return nil, err
		}
		return &semantic.Path{Op: semantic.PathInverse, Args: []*semantic.Path{l}}, nil
	}
	return p.pathLink()
}

func (p *parser) pathLink() (*semantic.Path, error) {
	if p.llk.Consume(lexer.ItemA) {
		return &semantic.Path{Op: semantic.PathLink, IRI: rdfType}, nil
	}
	if !p.is(lexer.ItemIRI, lexer.ItemPName) {
		return nil, p.unexpected("a predicate")
	}
	iri, err := semantic.ToIRI(p.llk.Next(), p.q)
	if err != nil {
		return nil, err
	}
	return &semantic.Path{Op: semantic.PathLink, IRI: iri}, nil
}

var rdfType, _ = term.NewIRI(term.RDFType)

// graphNode parses an object, which may be a blank node property list.
func (p *parser) graphNode(res *[]semantic.TriplePattern, allowPaths bool) (term.Term, error) {
	switch {
	case p.is(lexer.ItemLBracket):
		return p.blankNodePropertyList(res, allowPaths)
	case p.is(lexer.ItemLPar):
		return term.Term{}, p.unsupported("collection")
	}
	return p.varOrTerm()
}

// blankNodePropertyList parses [] and [ predicate object ... ] returning the
// fresh blank node standing for the brackets.
func (p *parser) blankNodePropertyList(res *[]semantic.TriplePattern, allowPaths bool) (term.Term, error) {
	p.llk.Next()
	b := term.NewFreshBlankNode()
	if p.llk.Consume(lexer.ItemRBracket) {
		return b, nil
	}
	if err := p.propertyList(b, res, allowPaths); err != nil {
		return term.Term{}, err
	}
	if _, err := p.expect(lexer.ItemRBracket, "]"); err != nil {
		return term.Term{}, err
	}
	return b, nil
}

func (p *parser) varOrIRI() (term.Term, error) {
	if !p.is(lexer.ItemVar, lexer.ItemIRI, lexer.ItemPName) {
		return term.Term{}, p.unexpected("a variable or an IRI")
	}
	return p.varOrTerm()
}

func (p *parser) varOrTerm() (term.Term, error) {
	t := p.llk.Current()
	switch t.Type {
	case lexer.ItemVar:
		return newVariable(p.llk.Next())
	case lexer.ItemIRI, lexer.ItemPName:
		return semantic.ToIRI(p.llk.Next(), p.q)
	case lexer.ItemBlank:
		return semantic.ToBlankNode(p.llk.Next())
	case lexer.ItemString:
		return p.rdfLiteral()
	case lexer.ItemInteger, lexer.ItemDecimal, lexer.ItemDouble:
		return semantic.ToNumber(p.llk.Next(), "")
	case lexer.ItemPlus, lexer.ItemMinusSign:
		sign := p.llk.Next().Text
		if !p.is(lexer.ItemInteger, lexer.ItemDecimal, lexer.ItemDouble) {
			return term.Term{}, p.unexpected("a number")
		}
		return semantic.ToNumber(p.llk.Next(), sign)
	case lexer.ItemBoolean:
		return semantic.ToBoolean(p.llk.Next())
	}
	return term.Term{}, p.unexpected("a variable or an RDF term")
}

// rdfLiteral parses a string with an optional language tag or datatype.
func (p *parser) rdfLiteral() (term.Term, error) {
	st := p.llk.Next()
	s, err := semantic.ToString(st)
	if err != nil {
		return term.Term{}, err
	}
	switch {
	case p.is(lexer.ItemLangTag):
		lt := p.llk.Next()
		res, err := term.NewLangLiteral(s, lt.Text[1:])
		if err != nil {
			return term.Term{}, semantic.SyntaxError(lt, "invalid language tag", err)
		}
		return res, nil
	case p.llk.Consume(lexer.ItemHatHat):
		if !p.is(lexer.ItemIRI, lexer.ItemPName) {
			return term.Term{}, p.unexpected("a datatype IRI")
		}
		dtt := p.llk.Current()
		dt, err := semantic.ToIRI(p.llk.Next(), p.q)
		if err != nil {
			return term.Term{}, err
		}
		res, err := term.NewTypedLiteral(s, dt.Value())
		if err != nil {
			return term.Term{}, semantic.SyntaxError(dtt, "invalid datatype", err)
		}
		return res, nil
	}
	return term.NewLiteral(s), nil
}
