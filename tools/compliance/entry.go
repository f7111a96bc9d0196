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

// Package compliance provides the tools to validate the query engine
// behavior. The compliance package is built around stories. A story is a
// set of facts and a sequence of assertions against them. An assertion is
// defined by a query, the expected execution status, and the expected
// result.
package compliance

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/term"
)

// Assertion contains a query, the expected status of its execution, and
// the expected result. Only one of MustReturn, MustHold and MustBuild is
// checked, depending on the query form.
type Assertion struct {
	// Requires describes what the assertion checks.
	Requires string `yaml:"requires"`

	// Statement contains the query to assert.
	Statement string `yaml:"statement"`

	// WillFail indicates if the query should fail with an error.
	WillFail bool `yaml:"will_fail,omitempty"`

	// FailsWith is the error code expected when WillFail is set. Any error
	// is accepted when empty.
	FailsWith string `yaml:"fails_with,omitempty"`

	// MustReturn contains the solutions expected from a SELECT query. Each
	// value is a term in N-Triples syntax; missing variables are unbound.
	MustReturn []map[string]string `yaml:"must_return,omitempty"`

	// Ordered requires the solutions to be returned in the listed order.
	Ordered bool `yaml:"ordered,omitempty"`

	// MustHold is the expected answer of an ASK query.
	MustHold *bool `yaml:"must_hold,omitempty"`

	// MustBuild contains the triples expected from a CONSTRUCT or DESCRIBE
	// query, one per line in N-Triples syntax.
	MustBuild []string `yaml:"must_build,omitempty"`
}

// Story contains the facts and the collection of assertions to validate.
type Story struct {
	// Name of the story.
	Name string `yaml:"name"`

	// Description explains what the story validates.
	Description string `yaml:"description,omitempty"`

	// Prefixes are available to every statement of the story.
	Prefixes map[string]string `yaml:"prefixes,omitempty"`

	// Facts contains the triples, in N-Triples syntax, the assertions run
	// against.
	Facts []string `yaml:"facts"`

	// Assertions that need to be validated against the facts.
	Assertions []*Assertion `yaml:"assertions"`
}

// Marshal serializes the story into YAML.
func (s *Story) Marshal() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return "", exoerr.Wrap(err, exoerr.CodeComplianceStoryInvalid, "compliance: failed to marshal story")
	}
	if err := enc.Close(); err != nil {
		return "", exoerr.Wrap(err, exoerr.CodeComplianceStoryInvalid, "compliance: failed to marshal story")
	}
	return buf.String(), nil
}

// Unmarshal rebuilds a story from YAML. Unknown fields are rejected.
func (s *Story) Unmarshal(ss string) error {
	dec := yaml.NewDecoder(strings.NewReader(ss))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return exoerr.Wrap(err, exoerr.CodeComplianceStoryInvalid, "compliance: failed to unmarshal story")
	}
	if s.Name == "" {
		return exoerr.New(exoerr.CodeComplianceStoryInvalid, "compliance: story has no name")
	}
	for i, a := range s.Assertions {
		if strings.TrimSpace(a.Statement) == "" {
			return exoerr.New(exoerr.CodeComplianceStoryInvalid, "compliance: assertion has no statement",
				exoerr.Field("story", s.Name), exoerr.Field("assertion", i))
		}
	}
	return nil
}

// LoadStories reads every .yaml and .yml story in the folder, sorted by
// file name.
func LoadStories(folder string) ([]*Story, error) {
	des, err := os.ReadDir(folder)
	if err != nil {
		return nil, exoerr.Wrap(err, exoerr.CodeComplianceStoryInvalid, "compliance: failed to read folder",
			exoerr.Field("folder", folder))
	}
	var names []string
	for _, de := range des {
		if ext := filepath.Ext(de.Name()); !de.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	var stories []*Story
	for _, n := range names {
		b, err := os.ReadFile(filepath.Join(folder, n))
		if err != nil {
			return nil, exoerr.Wrap(err, exoerr.CodeComplianceStoryInvalid, "compliance: failed to read story",
				exoerr.Field("file", n))
		}
		s := &Story{}
		if err := s.Unmarshal(string(b)); err != nil {
			return nil, exoerr.Wrap(err, exoerr.CodeComplianceStoryInvalid, "compliance: invalid story",
				exoerr.Field("file", n))
		}
		stories = append(stories, s)
	}
	return stories, nil
}

// OutputTable returns the expected result table for the provided bindings.
// Binding names may be written with or without the ? sigil.
func (a *Assertion) OutputTable(bs []string) (*table.Table, error) {
	t, err := table.New(bs)
	if err != nil {
		return nil, err
	}
	for _, row := range a.MustReturn {
		nr := table.Row{}
		for k, v := range row {
			k = strings.TrimPrefix(strings.TrimPrefix(k, "?"), "$")
			if !t.HasBinding(k) {
				return nil, exoerr.New(exoerr.CodeComplianceStoryInvalid, "compliance: unknown binding",
					exoerr.Field("binding", k), exoerr.Field("available", strings.Join(bs, ",")))
			}
			if v == "" {
				continue
			}
			tm, err := term.Parse(v)
			if err != nil {
				return nil, exoerr.Wrap(err, exoerr.CodeComplianceStoryInvalid, "compliance: invalid term",
					exoerr.Field("binding", k), exoerr.Field("term", v))
			}
			nr[k] = tm
		}
		t.AddRow(nr)
	}
	return t, nil
}
