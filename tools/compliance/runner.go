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

package compliance

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/google/exograph/engine"
	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/planner"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/sparql/table"
	"github.com/google/exograph/storage/memory"
	"github.com/google/exograph/triple"
)

// AssertionOutcome contains the result of running an assertion. Got and
// Want hold the canonical text of the obtained and expected results.
type AssertionOutcome struct {
	Equal bool
	Got   string
	Want  string
}

// populate returns a store holding the facts of the story.
func (s *Story) populate() (*memory.Store, error) {
	st := memory.NewStore()
	ts := make([]triple.Triple, 0, len(s.Facts))
	for _, f := range s.Facts {
		if strings.TrimSpace(f) == "" {
			continue
		}
		t, err := triple.Parse(f)
		if err != nil {
			return nil, exoerr.Wrap(err, exoerr.CodeComplianceStoryInvalid, "compliance: invalid fact",
				exoerr.Field("story", s.Name), exoerr.Field("fact", f))
		}
		ts = append(ts, t)
	}
	st.Add(ts...)
	return st, nil
}

// lines returns the rows of the table as text lines, sorted unless the
// order matters.
func lines(t *table.Table, ordered bool) string {
	var (
		res []string
		buf bytes.Buffer
	)
	for _, r := range t.Rows() {
		buf.Reset()
		if err := r.ToTextLine(&buf, t.Bindings(), "\t"); err != nil {
			return err.Error()
		}
		res = append(res, buf.String())
	}
	if !ordered {
		sort.Strings(res)
	}
	return strings.Join(res, "\n")
}

func tripleLines(ts []triple.Triple) string {
	res := make([]string, 0, len(ts))
	for _, t := range ts {
		res = append(res, t.String())
	}
	sort.Strings(res)
	return strings.Join(res, "\n")
}

// runAssertion runs the assertion and compares the outcome.
func (a *Assertion) runAssertion(ctx context.Context, e *engine.Engine) (*AssertionOutcome, error) {
	res, err := e.Query(ctx, a.Statement)
	if err != nil {
		if !a.WillFail {
			return &AssertionOutcome{Got: "error: " + err.Error(), Want: "success"}, nil
		}
		want := "error"
		if a.FailsWith != "" {
			want = "error " + a.FailsWith
		}
		got := "error " + string(exoerr.CodeOf(err))
		return &AssertionOutcome{
			Equal: a.FailsWith == "" || exoerr.HasCode(err, exoerr.Code(a.FailsWith)),
			Got:   got,
			Want:  want,
		}, nil
	}
	if a.WillFail {
		return &AssertionOutcome{Got: "success", Want: "error " + a.FailsWith}, nil
	}
	return a.compare(res)
}

func (a *Assertion) compare(res *planner.Result) (*AssertionOutcome, error) {
	var got, want string
	switch res.Form {
	case semantic.Select:
		wt, err := a.OutputTable(res.Table.Bindings())
		if err != nil {
			return nil, err
		}
		got, want = lines(res.Table, a.Ordered), lines(wt, a.Ordered)
	case semantic.Ask:
		if a.MustHold == nil {
			return nil, exoerr.New(exoerr.CodeComplianceStoryInvalid, "compliance: ASK assertion without must_hold",
				exoerr.Field("requires", a.Requires))
		}
		got, want = strconv.FormatBool(res.Boolean), strconv.FormatBool(*a.MustHold)
	default:
		var ts []triple.Triple
		for _, l := range a.MustBuild {
			t, err := triple.Parse(l)
			if err != nil {
				return nil, exoerr.Wrap(err, exoerr.CodeComplianceStoryInvalid, "compliance: invalid expected triple",
					exoerr.Field("triple", l))
			}
			ts = append(ts, t)
		}
		got, want = tripleLines(res.Triples), tripleLines(ts)
	}
	return &AssertionOutcome{Equal: got == want, Got: got, Want: want}, nil
}

// Run evaluates a story against a fresh store holding its facts. The
// outcomes are keyed by the assertion requirement.
func (s *Story) Run(ctx context.Context, opts ...engine.Option) (map[string]*AssertionOutcome, error) {
	st, err := s.populate()
	if err != nil {
		return nil, err
	}
	opts = append([]engine.Option{engine.WithPrefixes(s.Prefixes)}, opts...)
	e := engine.New(st, opts...)
	m := make(map[string]*AssertionOutcome)
	for i, a := range s.Assertions {
		o, err := a.runAssertion(ctx, e)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("requires %s", strings.TrimSpace(a.Requires))
		if strings.TrimSpace(a.Requires) == "" {
			name = fmt.Sprintf("assertion %d", i+1)
		}
		m[name] = o
	}
	return m, nil
}

// AssertionBattery contains the result of running a collection of stories.
type AssertionBattery struct {
	Entries []*AssertionBatteryEntry
}

// AssertionBatteryEntry contains the result of running a story.
type AssertionBatteryEntry struct {
	Story   *Story
	Outcome map[string]*AssertionOutcome
	Err     error
}

// Passed returns true if every story ran and every assertion held.
func (b *AssertionBattery) Passed() bool {
	for _, e := range b.Entries {
		if e.Err != nil {
			return false
		}
		for _, o := range e.Outcome {
			if !o.Equal {
				return false
			}
		}
	}
	return true
}

// RunStories runs the provided stories, at most concurrency at a time, and
// returns the outcome of each of them in the order of the stories.
func RunStories(ctx context.Context, stories []*Story, concurrency int, opts ...engine.Option) *AssertionBattery {
	entries := make([]*AssertionBatteryEntry, len(stories))
	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, s := range stories {
		i, s := i, s
		g.Go(func() error {
			o, err := s.Run(ctx, opts...)
			entries[i] = &AssertionBatteryEntry{Story: s, Outcome: o, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return &AssertionBattery{Entries: entries}
}
