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

package main

import (
	exoerr "github.com/google/exograph/errors"
	exoio "github.com/google/exograph/io"
	"github.com/google/exograph/tools/generator"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	Triples    int
	Branch     int
	Nodes      int
	Predicates int
	Seed       int64
}

func newGenerateCommand() *cobra.Command {
	g := &generateOptions{}
	cmd := &cobra.Command{
		Use:       "generate <tree|graph>",
		Short:     "Write a synthetic graph as N-Triples",
		Long:      "Writes a synthetic tree or random graph, useful to load test the store.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"tree", "graph"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				gen generator.Generator
				err error
			)
			switch args[0] {
			case "tree":
				gen, err = generator.NewTree(g.Branch)
			case "graph":
				gen, err = generator.NewRandomGraph(g.Nodes, g.Predicates, g.Seed)
			default:
				return exoerr.New(exoerr.CodeConfigInvalidValue, "unknown generator", exoerr.Field("generator", args[0]))
			}
			if err != nil {
				return exoerr.Wrap(err, exoerr.CodeConfigInvalidValue, "building generator")
			}
			ts, err := gen.Generate(g.Triples)
			if err != nil {
				return exoerr.Wrap(err, exoerr.CodeConfigInvalidValue, "generating triples")
			}
			_, err = exoio.Encode(cmd.Context(), cmd.OutOrStdout(), ts)
			return err
		},
	}
	cmd.Flags().IntVarP(&g.Triples, "triples", "n", 100, "number of triples to generate")
	cmd.Flags().IntVar(&g.Branch, "branch", 2, "branch factor of the tree")
	cmd.Flags().IntVar(&g.Nodes, "nodes", 50, "number of nodes of the random graph")
	cmd.Flags().IntVar(&g.Predicates, "predicates", 3, "number of predicates of the random graph")
	cmd.Flags().Int64Var(&g.Seed, "seed", 1, "seed of the random graph")
	return cmd
}
