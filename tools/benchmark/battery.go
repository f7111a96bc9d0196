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

package benchmark

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/exograph/engine"
	"github.com/google/exograph/storage/memory"
	"github.com/google/exograph/tools/generator"
	"github.com/google/exograph/triple"
)

// Config selects the graphs the batteries run over.
type Config struct {
	// Branches are the branch factors of the generated trees.
	Branches []int
	// Sizes are the number of triples of each generated tree.
	Sizes []int
	// Reps is the number of repetitions of each benchmark.
	Reps int
	// MaxDepth bounds the length of the walks.
	MaxDepth int
}

// Walk modifiers applied to every walking query.
var modifiers = []string{"", "order", "group"}

// walkQuery returns a query walking depth parent_of edges down from the root
// of a generated tree.
func walkQuery(depth int, modifier string) string {
	var (
		vars     []string
		patterns []string
	)
	prev := "<" + generator.Namespace + "tn/0>"
	for i := 0; i < depth; i++ {
		v := fmt.Sprintf("?c%d", i)
		vars = append(vars, v)
		patterns = append(patterns, fmt.Sprintf("%s <%sp/parent_of> %s .", prev, generator.Namespace, v))
		prev = v
	}
	q := fmt.Sprintf("SELECT %s WHERE { %s }", strings.Join(vars, " "), strings.Join(patterns, " "))
	switch modifier {
	case "order":
		q += " ORDER BY DESC(?c0)"
	case "group":
		q += " GROUP BY " + strings.Join(vars, " ")
	}
	return q
}

func trees(cfg Config) ([][]triple.Triple, []string, error) {
	var (
		sets [][]triple.Triple
		ids  []string
	)
	for _, b := range cfg.Branches {
		g, err := generator.NewTree(b)
		if err != nil {
			return nil, nil, err
		}
		for _, s := range cfg.Sizes {
			ts, err := g.Generate(s)
			if err != nil {
				return nil, nil, err
			}
			sets = append(sets, ts)
			ids = append(ids, fmt.Sprintf("tree branch_factor=%04d, size=%07d", b, s))
		}
	}
	return sets, ids, nil
}

// AddTreeTriplesBattery measures adding whole trees to an empty store.
func AddTreeTriplesBattery(cfg Config) ([]*BenchEntry, error) {
	sets, ids, err := trees(cfg)
	if err != nil {
		return nil, err
	}
	var bes []*BenchEntry
	for i, ts := range sets {
		ts := ts
		var s *memory.Store
		bes = append(bes, &BenchEntry{
			BatteryID: "Add triples",
			ID:        fmt.Sprintf("%s, reps=%02d", ids[i], cfg.Reps),
			Triples:   len(ts),
			Reps:      cfg.Reps,
			Setup: func() error {
				s = memory.NewStore()
				return nil
			},
			F: func() error {
				if err := s.BeginBatch(); err != nil {
					return err
				}
				s.Add(ts...)
				return s.CommitBatch()
			},
		})
	}
	return bes, nil
}

// RemoveTreeTriplesBattery measures removing whole trees from a store
// holding them.
func RemoveTreeTriplesBattery(cfg Config) ([]*BenchEntry, error) {
	sets, ids, err := trees(cfg)
	if err != nil {
		return nil, err
	}
	var bes []*BenchEntry
	for i, ts := range sets {
		ts := ts
		var s *memory.Store
		bes = append(bes, &BenchEntry{
			BatteryID: "Remove triples",
			ID:        fmt.Sprintf("%s, reps=%02d", ids[i], cfg.Reps),
			Triples:   len(ts),
			Reps:      cfg.Reps,
			Setup: func() error {
				s = memory.NewStore()
				s.Add(ts...)
				return nil
			},
			F: func() error {
				s.Remove(ts...)
				if s.Size() != 0 {
					return fmt.Errorf("store still holds %d triples", s.Size())
				}
				return nil
			},
		})
	}
	return bes, nil
}

// TreeWalkingBattery measures queries walking down generated trees.
func TreeWalkingBattery(ctx context.Context, cfg Config, opts ...engine.Option) ([]*BenchEntry, error) {
	sets, ids, err := trees(cfg)
	if err != nil {
		return nil, err
	}
	var bes []*BenchEntry
	for i, ts := range sets {
		s := memory.NewStore()
		s.Add(ts...)
		e := engine.New(s, opts...)
		for depth := 1; depth <= cfg.MaxDepth; depth++ {
			for _, m := range modifiers {
				q := walkQuery(depth, m)
				if _, err := e.Prepare(q); err != nil {
					return nil, err
				}
				id := fmt.Sprintf("%s, depth=%d", ids[i], depth)
				if m != "" {
					id += ", " + m
				}
				bes = append(bes, &BenchEntry{
					BatteryID: "Walk tree",
					ID:        fmt.Sprintf("%s, reps=%02d", id, cfg.Reps),
					Triples:   len(ts),
					Reps:      cfg.Reps,
					F: func() error {
						_, err := e.Query(ctx, q)
						return err
					},
				})
			}
		}
	}
	return bes, nil
}
