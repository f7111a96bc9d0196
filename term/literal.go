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
	"math"
	"strconv"
	"strings"
	"time"
)

// Namespaces and datatypes used by the literal helpers.
const (
	XSD = "http://www.w3.org/2001/XMLSchema#"
	RDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	XSDString             = XSD + "string"
	XSDBoolean            = XSD + "boolean"
	XSDInteger            = XSD + "integer"
	XSDDecimal            = XSD + "decimal"
	XSDFloat              = XSD + "float"
	XSDDouble             = XSD + "double"
	XSDLong               = XSD + "long"
	XSDInt                = XSD + "int"
	XSDShort              = XSD + "short"
	XSDByte               = XSD + "byte"
	XSDNonNegativeInteger = XSD + "nonNegativeInteger"
	XSDPositiveInteger    = XSD + "positiveInteger"
	XSDDateTime           = XSD + "dateTime"
	XSDDate               = XSD + "date"

	RDFType       = RDF + "type"
	RDFLangString = RDF + "langString"
)

// NumericRank orders the numeric datatypes by promotion.
type NumericRank int

const (
	RankInteger NumericRank = iota
	RankDecimal
	RankFloat
	RankDouble
)

// Datatype returns the datatype IRI of the rank.
func (r NumericRank) Datatype() string {
	switch r {
	case RankInteger:
		return XSDInteger
	case RankDecimal:
		return XSDDecimal
	case RankFloat:
		return XSDFloat
	default:
		return XSDDouble
	}
}

var numericRanks = map[string]NumericRank{
	XSDInteger:            RankInteger,
	XSDLong:               RankInteger,
	XSDInt:                RankInteger,
	XSDShort:              RankInteger,
	XSDByte:               RankInteger,
	XSDNonNegativeInteger: RankInteger,
	XSDPositiveInteger:    RankInteger,
	XSDDecimal:            RankDecimal,
	XSDFloat:              RankFloat,
	XSDDouble:             RankDouble,
}

// Number is the value of a numeric literal. Integers keep their exact value
// in Int.
type Number struct {
	Rank  NumericRank
	Int   int64
	Float float64
}

// Term returns the literal representing the number.
func (n Number) Term() Term {
	if n.Rank == RankInteger {
		return NewInteger(n.Int)
	}
	return Term{kind: Literal, value: formatFloat(n.Float, n.Rank), datatype: n.Rank.Datatype()}
}

// Compare returns -1, 0 or 1 if n is smaller, equal or larger than o.
// Integers are compared exactly; any other pair is compared as floats.
func (n Number) Compare(o Number) int {
	if n.Rank == RankInteger && o.Rank == RankInteger {
		switch {
		case n.Int < o.Int:
			return -1
		case n.Int > o.Int:
			return 1
		}
		return 0
	}
	switch {
	case n.Float < o.Float:
		return -1
	case n.Float > o.Float:
		return 1
	}
	return 0
}

// Numeric returns the value of a numeric literal. The boolean is false for
// non numeric terms and for literals whose lexical form is not valid for
// their datatype.
func (t Term) Numeric() (Number, bool) {
	if t.kind != Literal {
		return Number{}, false
	}
	rank, ok := numericRanks[t.datatype]
	if !ok {
		return Number{}, false
	}
	s := strings.TrimSpace(t.value)
	if rank == RankInteger {
		i, err := strconv.ParseInt(strings.TrimPrefix(s, "+"), 10, 64)
		if err != nil {
			return Number{}, false
		}
		return Number{Rank: rank, Int: i, Float: float64(i)}, true
	}
	switch s {
	case "INF", "+INF":
		return Number{Rank: rank, Float: math.Inf(1)}, true
	case "-INF":
		return Number{Rank: rank, Float: math.Inf(-1)}, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}, false
	}
	return Number{Rank: rank, Float: f}, true
}

// IsNumeric returns true for valid numeric literals.
func (t Term) IsNumeric() bool {
	_, ok := t.Numeric()
	return ok
}

// Boolean returns the value of an xsd:boolean literal.
func (t Term) Boolean() (bool, bool) {
	if t.kind != Literal || t.datatype != XSDBoolean {
		return false, false
	}
	switch strings.TrimSpace(t.value) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// Time returns the value of an xsd:dateTime or xsd:date literal.
func (t Term) Time() (time.Time, bool) {
	if t.kind != Literal {
		return time.Time{}, false
	}
	var layouts []string
	switch t.datatype {
	case XSDDateTime:
		layouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05"}
	case XSDDate:
		layouts = []string{"2006-01-02Z07:00", "2006-01-02"}
	default:
		return time.Time{}, false
	}
	for _, l := range layouts {
		if v, err := time.Parse(l, strings.TrimSpace(t.value)); err == nil {
			return v, true
		}
	}
	return time.Time{}, false
}

// IsStringLiteral returns true for simple, xsd:string and language tagged
// literals.
func (t Term) IsStringLiteral() bool {
	return t.kind == Literal && (t.datatype == "" || t.datatype == XSDString)
}

// NewInteger returns an xsd:integer literal.
func NewInteger(i int64) Term {
	return Term{kind: Literal, value: strconv.FormatInt(i, 10), datatype: XSDInteger}
}

// NewDecimal returns an xsd:decimal literal.
func NewDecimal(f float64) Term {
	return Term{kind: Literal, value: formatFloat(f, RankDecimal), datatype: XSDDecimal}
}

// NewDouble returns an xsd:double literal.
func NewDouble(f float64) Term {
	return Term{kind: Literal, value: formatFloat(f, RankDouble), datatype: XSDDouble}
}

// NewBoolean returns an xsd:boolean literal.
func NewBoolean(b bool) Term {
	return Term{kind: Literal, value: strconv.FormatBool(b), datatype: XSDBoolean}
}

// NewDateTime returns an xsd:dateTime literal.
func NewDateTime(t time.Time) Term {
	return Term{kind: Literal, value: t.Format(time.RFC3339Nano), datatype: XSDDateTime}
}

func formatFloat(f float64, r NumericRank) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NaN"
	}
	if r == RankDecimal {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(f, 'E', -1, 64)
}
