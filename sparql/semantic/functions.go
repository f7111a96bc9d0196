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
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/term"
)

// builtin describes a function. Special forms receive their unevaluated
// arguments; every other function receives their values.
type builtin struct {
	min, max int
	special  func(args []Expression, r table.Row) (term.Term, error)
	fn       func(args []term.Term) (term.Term, error)
}

// builtins is populated on init since special forms evaluate expressions,
// which in turn look up builtins.
var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"BOUND":       {min: 1, max: 1, special: fnBound},
		"IF":          {min: 3, max: 3, special: fnIf},
		"COALESCE":    {min: 0, max: -1, special: fnCoalesce},
		"STR":         {min: 1, max: 1, fn: fnStr},
		"LANG":        {min: 1, max: 1, fn: fnLang},
		"DATATYPE":    {min: 1, max: 1, fn: fnDatatype},
		"IRI":         {min: 1, max: 1, fn: fnIRI},
		"URI":         {min: 1, max: 1, fn: fnIRI},
		"ISIRI":       {min: 1, max: 1, fn: kindTest(term.Term.IsIRI)},
		"ISURI":       {min: 1, max: 1, fn: kindTest(term.Term.IsIRI)},
		"ISBLANK":     {min: 1, max: 1, fn: kindTest(term.Term.IsBlank)},
		"ISLITERAL":   {min: 1, max: 1, fn: kindTest(term.Term.IsLiteral)},
		"ISNUMERIC":   {min: 1, max: 1, fn: kindTest(term.Term.IsNumeric)},
		"STRLEN":      {min: 1, max: 1, fn: fnStrlen},
		"UCASE":       {min: 1, max: 1, fn: caseFn(strings.ToUpper)},
		"LCASE":       {min: 1, max: 1, fn: caseFn(strings.ToLower)},
		"CONTAINS":    {min: 2, max: 2, fn: stringTest(strings.Contains)},
		"STRSTARTS":   {min: 2, max: 2, fn: stringTest(strings.HasPrefix)},
		"STRENDS":     {min: 2, max: 2, fn: stringTest(strings.HasSuffix)},
		"STRBEFORE":   {min: 2, max: 2, fn: fnStrBefore},
		"STRAFTER":    {min: 2, max: 2, fn: fnStrAfter},
		"SUBSTR":      {min: 2, max: 3, fn: fnSubstr},
		"CONCAT":      {min: 0, max: -1, fn: fnConcat},
		"REGEX":       {min: 2, max: 3, fn: fnRegex},
		"REPLACE":     {min: 3, max: 4, fn: fnReplace},
		"LANGMATCHES": {min: 2, max: 2, fn: fnLangMatches},
		"SAMETERM":    {min: 2, max: 2, fn: fnSameTerm},
		"ABS":         {min: 1, max: 1, fn: numericFn(math.Abs)},
		"CEIL":        {min: 1, max: 1, fn: numericFn(math.Ceil)},
		"FLOOR":       {min: 1, max: 1, fn: numericFn(math.Floor)},
		"ROUND":       {min: 1, max: 1, fn: numericFn(func(f float64) float64 { return math.Floor(f + 0.5) })},
		"STRLANG":     {min: 2, max: 2, fn: fnStrLang},
		"STRDT":       {min: 2, max: 2, fn: fnStrDT},
	}
}

var casts = map[string]bool{
	term.XSDString:   true,
	term.XSDBoolean:  true,
	term.XSDInteger:  true,
	term.XSDDecimal:  true,
	term.XSDFloat:    true,
	term.XSDDouble:   true,
	term.XSDDateTime: true,
}

// ValidateCall checks that the call names a known function and receives an
// acceptable number of arguments.
func ValidateCall(c *Call) error {
	if c.IRI {
		if !casts[c.Func] {
			return exoerr.New(exoerr.CodeQueryUnsupported, "unsupported function",
				exoerr.Field("construct", "<"+c.Func+">"))
		}
		if len(c.Args) != 1 {
			return exoerr.New(exoerr.CodeQueryUnsupported, "casts take a single argument",
				exoerr.Field("construct", "<"+c.Func+">"))
		}
		return nil
	}
	b, ok := builtins[c.Func]
	if !ok {
		return exoerr.New(exoerr.CodeQueryUnsupported, "unsupported function",
			exoerr.Field("construct", c.Func))
	}
	if len(c.Args) < b.min || (b.max >= 0 && len(c.Args) > b.max) {
		return exoerr.New(exoerr.CodeQueryUnsupported, "wrong number of arguments",
			exoerr.Field("construct", c.Func), exoerr.Field("arguments", len(c.Args)))
	}
	if c.Func == "BOUND" {
		if _, ok := c.Args[0].(*Variable); !ok {
			return exoerr.New(exoerr.CodeQueryUnsupported, "BOUND requires a variable",
				exoerr.Field("construct", c.Func))
		}
	}
	return nil
}

// Evaluate calls the function.
func (c *Call) Evaluate(r table.Row) (term.Term, error) {
	if c.IRI {
		if len(c.Args) != 1 {
			return term.Term{}, ErrType
		}
		v, err := c.Args[0].Evaluate(r)
		if err != nil {
			return term.Term{}, err
		}
		return cast(c.Func, v)
	}
	b, ok := builtins[c.Func]
	if !ok || len(c.Args) < b.min || (b.max >= 0 && len(c.Args) > b.max) {
		return term.Term{}, ErrType
	}
	if b.special != nil {
		return b.special(c.Args, r)
	}
	vs := make([]term.Term, len(c.Args))
	for i, a := range c.Args {
		v, err := a.Evaluate(r)
		if err != nil {
			return term.Term{}, err
		}
		vs[i] = v
	}
	return b.fn(vs)
}

func fnBound(args []Expression, r table.Row) (term.Term, error) {
	v, ok := args[0].(*Variable)
	if !ok {
		return term.Term{}, ErrType
	}
	_, bound := r[v.Name]
	return boolTerm(bound), nil
}

func fnIf(args []Expression, r table.Row) (term.Term, error) {
	c, err := EvalBool(args[0], r)
	if err != nil {
		return term.Term{}, err
	}
	if c {
		return args[1].Evaluate(r)
	}
	return args[2].Evaluate(r)
}

func fnCoalesce(args []Expression, r table.Row) (term.Term, error) {
	for _, a := range args {
		if v, err := a.Evaluate(r); err == nil {
			return v, nil
		}
	}
	return term.Term{}, ErrType
}

func fnStr(args []term.Term) (term.Term, error) {
	t := args[0]
	if !t.IsIRI() && !t.IsLiteral() {
		return term.Term{}, ErrType
	}
	return term.NewLiteral(t.Value()), nil
}

func fnLang(args []term.Term) (term.Term, error) {
	if !args[0].IsLiteral() {
		return term.Term{}, ErrType
	}
	return term.NewLiteral(args[0].Lang()), nil
}

func fnDatatype(args []term.Term) (term.Term, error) {
	t := args[0]
	if !t.IsLiteral() {
		return term.Term{}, ErrType
	}
	dt := t.Datatype()
	switch {
	case t.Lang() != "":
		dt = term.RDFLangString
	case dt == "":
		dt = term.XSDString
	}
	return iriTerm(dt)
}

func iriTerm(v string) (term.Term, error) {
	t, err := term.NewIRI(v)
	if err != nil {
		return term.Term{}, ErrType
	}
	return t, nil
}

func fnIRI(args []term.Term) (term.Term, error) {
	t := args[0]
	switch {
	case t.IsIRI():
		return t, nil
	case t.IsStringLiteral() && t.Lang() == "":
		return iriTerm(t.Value())
	}
	return term.Term{}, ErrType
}

func kindTest(test func(term.Term) bool) func([]term.Term) (term.Term, error) {
	return func(args []term.Term) (term.Term, error) {
		return boolTerm(test(args[0])), nil
	}
}

// sameKind returns a literal with value v and the language or string
// datatype of t.
func sameKind(t term.Term, v string) term.Term {
	if t.Lang() != "" {
		if res, err := term.NewLangLiteral(v, t.Lang()); err == nil {
			return res
		}
	}
	if t.Datatype() == term.XSDString {
		if res, err := term.NewTypedLiteral(v, term.XSDString); err == nil {
			return res
		}
	}
	return term.NewLiteral(v)
}

func fnStrlen(args []term.Term) (term.Term, error) {
	if !args[0].IsStringLiteral() {
		return term.Term{}, ErrType
	}
	return term.NewInteger(int64(utf8.RuneCountInString(args[0].Value()))), nil
}

func caseFn(f func(string) string) func([]term.Term) (term.Term, error) {
	return func(args []term.Term) (term.Term, error) {
		if !args[0].IsStringLiteral() {
			return term.Term{}, ErrType
		}
		return sameKind(args[0], f(args[0].Value())), nil
	}
}

// compatible returns true if both arguments are strings and the second one
// has no language or the language of the first.
func compatible(a, b term.Term) bool {
	if !a.IsStringLiteral() || !b.IsStringLiteral() {
		return false
	}
	return b.Lang() == "" || a.Lang() == b.Lang()
}

func stringTest(test func(s, sub string) bool) func([]term.Term) (term.Term, error) {
	return func(args []term.Term) (term.Term, error) {
		if !compatible(args[0], args[1]) {
			return term.Term{}, ErrType
		}
		return boolTerm(test(args[0].Value(), args[1].Value())), nil
	}
}

func fnStrBefore(args []term.Term) (term.Term, error) {
	if !compatible(args[0], args[1]) {
		return term.Term{}, ErrType
	}
	before, _, found := strings.Cut(args[0].Value(), args[1].Value())
	if !found {
		return term.NewLiteral(""), nil
	}
	return sameKind(args[0], before), nil
}

func fnStrAfter(args []term.Term) (term.Term, error) {
	if !compatible(args[0], args[1]) {
		return term.Term{}, ErrType
	}
	_, after, found := strings.Cut(args[0].Value(), args[1].Value())
	if !found {
		return term.NewLiteral(""), nil
	}
	return sameKind(args[0], after), nil
}

func roundArg(t term.Term) (float64, error) {
	n, ok := t.Numeric()
	if !ok {
		return 0, ErrType
	}
	return math.Floor(n.Float + 0.5), nil
}

// fnSubstr uses 1 based character positions.
func fnSubstr(args []term.Term) (term.Term, error) {
	if !args[0].IsStringLiteral() {
		return term.Term{}, ErrType
	}
	start, err := roundArg(args[1])
	if err != nil {
		return term.Term{}, err
	}
	end := math.Inf(1)
	if len(args) == 3 {
		l, err := roundArg(args[2])
		if err != nil {
			return term.Term{}, err
		}
		end = start + l
	}
	var b strings.Builder
	pos := 1.0
	for _, r := range args[0].Value() {
		if pos >= start && pos < end {
			b.WriteRune(r)
		}
		pos++
	}
	return sameKind(args[0], b.String()), nil
}

func fnConcat(args []term.Term) (term.Term, error) {
	var b strings.Builder
	lang, typed := "", true
	for i, a := range args {
		if !a.IsStringLiteral() {
			return term.Term{}, ErrType
		}
		if i == 0 {
			lang = a.Lang()
		} else if a.Lang() != lang {
			lang = ""
		}
		typed = typed && a.Datatype() == term.XSDString
		b.WriteString(a.Value())
	}
	switch {
	case lang != "":
		if res, err := term.NewLangLiteral(b.String(), lang); err == nil {
			return res, nil
		}
	case typed && len(args) > 0:
		if res, err := term.NewTypedLiteral(b.String(), term.XSDString); err == nil {
			return res, nil
		}
	}
	return term.NewLiteral(b.String()), nil
}

var (
	regexMu    sync.Mutex
	regexCache = make(map[string]*regexp.Regexp)
)

// compileRegex compiles an XPath pattern with its flags. Compiled patterns
// are cached since filters evaluate the same pattern for every solution.
func compileRegex(pattern term.Term, flags []term.Term) (*regexp.Regexp, error) {
	if !pattern.IsStringLiteral() {
		return nil, ErrType
	}
	p, f := pattern.Value(), ""
	if len(flags) > 0 {
		if !flags[0].IsStringLiteral() {
			return nil, ErrType
		}
		f = flags[0].Value()
	}
	key := f + "/" + p
	regexMu.Lock()
	defer regexMu.Unlock()
	if re, ok := regexCache[key]; ok {
		return re, nil
	}
	var goFlags strings.Builder
	for _, c := range f {
		switch c {
		case 'i', 's', 'm':
			goFlags.WriteRune(c)
		case 'x':
			p = strings.Map(func(r rune) rune {
				if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
					return -1
				}
				return r
			}, p)
		case 'q':
			p = regexp.QuoteMeta(p)
		default:
			return nil, ErrType
		}
	}
	if goFlags.Len() > 0 {
		p = "(?" + goFlags.String() + ")" + p
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, ErrType
	}
	regexCache[key] = re
	return re, nil
}

func fnRegex(args []term.Term) (term.Term, error) {
	if !args[0].IsStringLiteral() {
		return term.Term{}, ErrType
	}
	re, err := compileRegex(args[1], args[2:])
	if err != nil {
		return term.Term{}, err
	}
	return boolTerm(re.MatchString(args[0].Value())), nil
}

func fnReplace(args []term.Term) (term.Term, error) {
	if !args[0].IsStringLiteral() || !args[2].IsStringLiteral() {
		return term.Term{}, ErrType
	}
	re, err := compileRegex(args[1], args[3:])
	if err != nil {
		return term.Term{}, err
	}
	return sameKind(args[0], re.ReplaceAllString(args[0].Value(), args[2].Value())), nil
}

func fnLangMatches(args []term.Term) (term.Term, error) {
	if !args[0].IsStringLiteral() || !args[1].IsStringLiteral() {
		return term.Term{}, ErrType
	}
	tag, rng := strings.ToLower(args[0].Value()), strings.ToLower(args[1].Value())
	if rng == "*" {
		return boolTerm(tag != ""), nil
	}
	return boolTerm(tag == rng || strings.HasPrefix(tag, rng+"-")), nil
}

func fnSameTerm(args []term.Term) (term.Term, error) {
	return boolTerm(args[0] == args[1]), nil
}

// numericFn applies f to decimals and doubles. Integers are returned as is.
func numericFn(f func(float64) float64) func([]term.Term) (term.Term, error) {
	return func(args []term.Term) (term.Term, error) {
		n, ok := args[0].Numeric()
		if !ok {
			return term.Term{}, ErrType
		}
		if n.Rank == term.RankInteger {
			// Only ABS changes the value of an integer.
			if n.Int < 0 && f(-1) == 1 {
				n.Int = -n.Int
			}
			return n.Term(), nil
		}
		n.Float = f(n.Float)
		return n.Term(), nil
	}
}

func fnStrLang(args []term.Term) (term.Term, error) {
	if !args[0].IsStringLiteral() || args[0].Lang() != "" || !args[1].IsStringLiteral() {
		return term.Term{}, ErrType
	}
	res, err := term.NewLangLiteral(args[0].Value(), args[1].Value())
	if err != nil {
		return term.Term{}, ErrType
	}
	return res, nil
}

func fnStrDT(args []term.Term) (term.Term, error) {
	if !args[0].IsStringLiteral() || args[0].Lang() != "" || !args[1].IsIRI() {
		return term.Term{}, ErrType
	}
	res, err := term.NewTypedLiteral(args[0].Value(), args[1].Value())
	if err != nil {
		return term.Term{}, ErrType
	}
	return res, nil
}

// cast converts t to the provided XSD datatype.
func cast(dt string, t term.Term) (term.Term, error) {
	if !t.IsLiteral() && !(t.IsIRI() && dt == term.XSDString) {
		return term.Term{}, ErrType
	}
	v := strings.TrimSpace(t.Value())
	switch dt {
	case term.XSDString:
		return term.NewTypedLiteral(t.Value(), term.XSDString)
	case term.XSDBoolean:
		if b, ok := t.Boolean(); ok {
			return boolTerm(b), nil
		}
		if n, ok := t.Numeric(); ok {
			return boolTerm(n.Float != 0 && !math.IsNaN(n.Float)), nil
		}
		switch v {
		case "true", "1":
			return trueTerm, nil
		case "false", "0":
			return falseTerm, nil
		}
	case term.XSDInteger:
		if b, ok := t.Boolean(); ok {
			if b {
				return term.NewInteger(1), nil
			}
			return term.NewInteger(0), nil
		}
		if n, ok := t.Numeric(); ok {
			if n.Rank == term.RankInteger {
				return n.Term(), nil
			}
			if math.IsNaN(n.Float) || math.IsInf(n.Float, 0) {
				return term.Term{}, ErrType
			}
			return term.NewInteger(int64(n.Float)), nil
		}
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return term.NewInteger(i), nil
		}
	case term.XSDDecimal, term.XSDFloat, term.XSDDouble:
		rank := term.RankDouble
		switch dt {
		case term.XSDDecimal:
			rank = term.RankDecimal
		case term.XSDFloat:
			rank = term.RankFloat
		}
		if b, ok := t.Boolean(); ok {
			f := 0.0
			if b {
				f = 1
			}
			return term.Number{Rank: rank, Float: f}.Term(), nil
		}
		if n, ok := t.Numeric(); ok {
			return term.Number{Rank: rank, Float: n.Float}.Term(), nil
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return term.Number{Rank: rank, Float: f}.Term(), nil
		}
	case term.XSDDateTime:
		if tm, ok := t.Time(); ok {
			return term.NewDateTime(tm), nil
		}
		if tm, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return term.NewDateTime(tm), nil
		}
	}
	return term.Term{}, ErrType
}
