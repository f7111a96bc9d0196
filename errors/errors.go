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

// Package errors provides the coded errors used across exograph. Codes follow
// the "<domain>.<operation>.<reason>" layout and the reason segment drives
// the classification helpers and the HTTP status mapping.
package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeTermInvalid             Code = "term.construct.invalid"
	CodeTripleInvalid           Code = "triple.construct.invalid"
	CodeStoreBatchState         Code = "store.batch.invalid_state"
	CodeQuerySyntax             Code = "query.parse.syntax"
	CodeQueryUnsupported        Code = "query.translate.unsupported"
	CodeQueryTypeError          Code = "query.evaluate.type_error"
	CodeQueryUnbound            Code = "query.evaluate.unbound"
	CodeQueryTimeout            Code = "query.evaluate.timeout"
	CodeQueryFormMismatch       Code = "query.form.mismatch"
	CodeIOInvalidFormat         Code = "io.parse.invalid_format"
	CodeIOWriteFailure          Code = "io.write.failure"
	CodeConfigInvalidValue      Code = "config.validate.invalid_value"
	CodeConfigLoadFailure       Code = "config.load.failure"
	CodeServerRequestInvalid    Code = "server.request.invalid"
	CodeServerAuthUnauthorized  Code = "server.auth.unauthorized"
	CodeServerInternalFailure   Code = "server.internal.failure"
	CodeComplianceStoryInvalid  Code = "compliance.story.invalid_format"
	CodeComplianceAssertFailure Code = "compliance.assert.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// FieldPosition returns the line and column fields of a syntax error.
func FieldPosition(line, column int) []Attr {
	return []Attr{Field("line", line), Field("column", column)}
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

// Wrap decorates err with a code. When err already carries a code the
// innermost one is reported by CodeOf.
func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return oops.Code(code).Wrapf(err, format, args...)
}

// CodeOf returns the code carried by err, or the empty code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}
	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}
	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

// FieldsOf returns the structured fields attached to err.
func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}
	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// IsStructural reports construction errors of terms and triples.
func IsStructural(err error) bool {
	c := CodeOf(err)
	return c == CodeTermInvalid || c == CodeTripleInvalid
}

// IsSyntax reports query parsing errors.
func IsSyntax(err error) bool {
	return HasCode(err, CodeQuerySyntax)
}

// IsTranslation reports queries using constructs the engine does not
// support.
func IsTranslation(err error) bool {
	return HasCode(err, CodeQueryUnsupported)
}

// IsEvaluation reports expression errors. They never escape a query; the
// executor recovers them per solution.
func IsEvaluation(err error) bool {
	c := CodeOf(err)
	return c == CodeQueryTypeError || c == CodeQueryUnbound
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" ||
		r == "invalid_format" || r == "invalid_state" || r == "syntax" ||
		r == "unsupported" || r == "mismatch"
}

func IsUnauthorized(err error) bool {
	return reason(CodeOf(err)) == "unauthorized"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

// HTTPStatus maps err to the status code returned by the REST surface.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsUnauthorized(err):
		return http.StatusUnauthorized
	case IsTimeout(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func reason(code Code) string {
	s := string(code)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

func flatten(fields []Attr) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}
