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
	"fmt"
	"text/tabwriter"

	"github.com/google/exograph/engine"
	"github.com/google/exograph/tools/benchmark"
	"github.com/spf13/cobra"
)

func newBenchCommand(e *env) *cobra.Command {
	cfg := benchmark.Config{}
	var concurrency int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark the store and the engine over generated trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var entries []*benchmark.BenchEntry
			for _, battery := range []func() ([]*benchmark.BenchEntry, error){
				func() ([]*benchmark.BenchEntry, error) { return benchmark.AddTreeTriplesBattery(cfg) },
				func() ([]*benchmark.BenchEntry, error) { return benchmark.RemoveTreeTriplesBattery(cfg) },
				func() ([]*benchmark.BenchEntry, error) {
					return benchmark.TreeWalkingBattery(cmd.Context(), cfg, engine.WithLogger(e.logger))
				},
			} {
				bes, err := battery()
				if err != nil {
					return err
				}
				entries = append(entries, bes...)
			}
			var res []*benchmark.BenchResult
			if concurrency > 1 {
				res = benchmark.RunBenchmarkBatteryConcurrently(entries, concurrency)
			} else {
				res = benchmark.RunBenchmarkBatterySequentially(entries)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "battery\tbenchmark\ttriples\tmean\tstddev")
			for _, r := range res {
				if r.Err != nil {
					fmt.Fprintf(w, "%s\t%s\t%d\t[ERROR] %v\t\n", r.BatteryID, r.ID, r.Triples, r.Err)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%v\n", r.BatteryID, r.ID, r.Triples, r.Mean, r.StdDev)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntSliceVar(&cfg.Branches, "branch", []int{2, 200}, "branch factors of the generated trees")
	cmd.Flags().IntSliceVar(&cfg.Sizes, "sizes", []int{10, 1000, 100000}, "triples of each generated tree")
	cmd.Flags().IntVar(&cfg.Reps, "reps", 10, "repetitions of each benchmark")
	cmd.Flags().IntVar(&cfg.MaxDepth, "depth", 5, "longest walk down the trees")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "benchmarks run at once")
	return cmd
}
