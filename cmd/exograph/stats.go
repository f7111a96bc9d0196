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
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/google/exograph/storage"
	"github.com/spf13/cobra"
)

func newStatsCommand(e *env, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeStatistics(cmd.OutOrStdout(), e.store.Statistics(), opts.Format)
		},
	}
}

// writeStatistics prints st as JSON for the json format and as an aligned
// summary otherwise.
func writeStatistics(w io.Writer, st storage.Statistics, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	fmt.Fprintf(w, "triples:             %d\n", st.Triples)
	fmt.Fprintf(w, "distinct subjects:   %d\n", st.Subjects)
	fmt.Fprintf(w, "distinct predicates: %d\n", st.Predicates)
	fmt.Fprintf(w, "distinct objects:    %d\n", st.Objects)
	names := make([]string, 0, len(st.Indexes))
	for n := range st.Indexes {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		ix := st.Indexes[n]
		fmt.Fprintf(w, "index %s:           keys=%d pairs=%d entries=%d\n", n, ix.Keys, ix.Pairs, ix.Entries)
	}
	fmt.Fprintf(w, "cache:               %d/%d entries, %d hits, %d misses, %.2f hit rate\n",
		st.Cache.Len, st.Cache.Capacity, st.Cache.Hits, st.Cache.Misses, st.Cache.HitRate)
	_, err := fmt.Fprintf(w, "average latency:     %v\n", st.Cache.AverageLatency)
	return err
}
