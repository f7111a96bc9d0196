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

package server

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/io/jsonld"
	"github.com/google/exograph/io/results"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/term"
	"github.com/google/exograph/triple"
)

// DefaultLimit is the number of triples returned by the graph endpoint when
// no limit is requested.
const DefaultLimit = 100

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"triples": s.engine.Store().Size(),
	})
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.engine.Store().Statistics())
}

// sparqlRequest is the body of a query request.
type sparqlRequest struct {
	Query string `json:"query"`
	// Format selects the JSON-LD rendering of CONSTRUCT and DESCRIBE
	// results when set to "jsonld".
	Format string `json:"format,omitempty"`
}

// sparqlResponse is the answer to a query. SELECT and ASK carry the SPARQL
// JSON results fields; CONSTRUCT and DESCRIBE carry triples.
type sparqlResponse struct {
	Form  string `json:"form"`
	Count int    `json:"count"`
	*results.Document
	Triples []tripleBody    `json:"triples,omitempty"`
	Graph   jsonld.Document `json:"graph,omitempty"`
}

// tripleBody is the JSON form of a triple, each term in N-Triples syntax.
type tripleBody struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

func newTripleBody(t triple.Triple) tripleBody {
	return tripleBody{Subject: t.S().String(), Predicate: t.P().String(), Object: t.O().String()}
}

func (s *Server) sparql(w http.ResponseWriter, r *http.Request) {
	var req sparqlRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err, 0)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, exoerr.New(exoerr.CodeServerRequestInvalid, "query is required"), 0)
		return
	}
	res, err := s.engine.Query(r.Context(), req.Query)
	if err != nil {
		s.writeError(w, err, 0)
		return
	}
	resp := sparqlResponse{Form: res.Form.String()}
	switch res.Form {
	case semantic.Select:
		resp.Count = res.Table.NumRows()
		resp.Document = results.Select(res.Table)
	case semantic.Ask:
		if res.Boolean {
			resp.Count = 1
		}
		resp.Document = results.Ask(res.Boolean)
	default:
		resp.Count = len(res.Triples)
		if req.Format == "jsonld" {
			doc, err := jsonld.Build(res.Triples, jsonld.Options{Prefixes: s.engine.Prefixes(), Compact: true})
			if err != nil {
				s.writeError(w, err, 0)
				return
			}
			resp.Graph = doc
			break
		}
		resp.Triples = make([]tripleBody, 0, len(res.Triples))
		for _, t := range res.Triples {
			resp.Triples = append(resp.Triples, newTripleBody(t))
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// graph returns the triples matching the s, p and o query parameters.
func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		p   storage.Pattern
		err error
	)
	for _, pos := range []struct {
		name string
		dst  *term.Term
	}{{"s", &p.S}, {"p", &p.P}, {"o", &p.O}} {
		v := q.Get(pos.name)
		if v == "" {
			continue
		}
		if *pos.dst, err = s.parseTerm(v, pos.name == "o"); err != nil {
			s.writeError(w, err, 0)
			return
		}
	}
	limit := DefaultLimit
	if l := q.Get("limit"); l != "" {
		if limit, err = strconv.Atoi(l); err != nil || limit < 0 {
			s.writeError(w, exoerr.New(exoerr.CodeServerRequestInvalid, "limit must be a non negative integer",
				exoerr.Field("limit", l)), 0)
			return
		}
	}
	ts := s.engine.Store().Query(p)
	total := len(ts)
	sorted := append([]triple.Triple(nil), ts...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].String() < sorted[j].String()
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	body := make([]tripleBody, 0, len(sorted))
	for _, t := range sorted {
		body = append(body, newTripleBody(t))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(body),
		"total":   total,
		"triples": body,
	})
}

// updateRequest adds or removes a single triple.
type updateRequest struct {
	Operation string `json:"operation"`
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

func (s *Server) updateGraph(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err, 0)
		return
	}
	if req.Operation != "add" && req.Operation != "remove" {
		s.writeError(w, exoerr.New(exoerr.CodeServerRequestInvalid, "operation must be add or remove",
			exoerr.Field("operation", req.Operation)), 0)
		return
	}
	t, err := s.buildTriple(req)
	if err != nil {
		s.writeError(w, err, 0)
		return
	}
	store := s.engine.Store()
	if req.Operation == "add" {
		store.Add(t)
	} else {
		store.Remove(t)
	}
	s.logger.Debug("graph updated", "operation", req.Operation, "triple", t.String())
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"operation": req.Operation,
		"triple":    newTripleBody(t),
		"triples":   store.Size(),
	})
}

func (s *Server) buildTriple(req updateRequest) (triple.Triple, error) {
	sub, err := s.parseTerm(req.Subject, false)
	if err != nil {
		return triple.Triple{}, err
	}
	pred, err := s.parseTerm(req.Predicate, false)
	if err != nil {
		return triple.Triple{}, err
	}
	obj, err := s.parseTerm(req.Object, true)
	if err != nil {
		return triple.Triple{}, err
	}
	t, err := triple.New(sub, pred, obj)
	if err != nil {
		return triple.Triple{}, exoerr.Wrap(err, exoerr.CodeServerRequestInvalid, "invalid triple")
	}
	return t, nil
}

// parseTerm reads a term written in N-Triples syntax, as a prefixed name,
// or as a bare absolute IRI. The keyword a stands for rdf:type. Any other
// text is a simple literal when literals are allowed.
func (s *Server) parseTerm(v string, literal bool) (term.Term, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return term.Term{}, exoerr.New(exoerr.CodeServerRequestInvalid, "empty term")
	case v == "a":
		return term.NewIRI(term.RDFType)
	case strings.HasPrefix(v, "<"), strings.HasPrefix(v, "_:"), strings.HasPrefix(v, "\""):
		t, err := term.Parse(v)
		if err != nil {
			return term.Term{}, exoerr.Wrap(err, exoerr.CodeServerRequestInvalid, "invalid term", exoerr.Field("term", v))
		}
		return t, nil
	case strings.Contains(v, "://"):
		return term.NewIRI(v)
	}
	if prefix, local, ok := strings.Cut(v, ":"); ok && !strings.ContainsAny(v, " \t") {
		ns, found := s.engine.Prefixes()[prefix]
		if !found {
			ns, found = semantic.DefaultPrefixes[prefix]
		}
		if found {
			return term.NewIRI(ns + local)
		}
	}
	if literal {
		return term.NewLiteral(v), nil
	}
	return term.Term{}, exoerr.New(exoerr.CodeServerRequestInvalid, "term is neither an IRI nor a known prefixed name",
		exoerr.Field("term", v))
}
