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
	"sort"

	"github.com/google/exograph/engine"
	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/tools/compliance"
	"github.com/spf13/cobra"
)

const rule = "-------------------------------------------------------------"

func newAssertCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "assert <folder>",
		Short: "Run the compliance stories in a folder",
		Long: `Runs every story in the folder. Each story is a YAML file holding the
facts to load and the assertions to check against them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			folder := args[0]
			fmt.Fprintln(out, rule)
			fmt.Fprintf(out, "Processing folder %q...\n", folder)
			stories, err := compliance.LoadStories(folder)
			if err != nil {
				return err
			}
			if len(stories) == 0 {
				fmt.Fprintln(out, "No stories found!")
				fmt.Fprintln(out, rule)
				return exoerr.New(exoerr.CodeComplianceStoryInvalid, "no stories found", exoerr.Field("folder", folder))
			}
			fmt.Fprintln(out, rule)
			fmt.Fprintf(out, "Evaluating %d stories... ", len(stories))
			battery := compliance.RunStories(cmd.Context(), stories, e.cfg.Query.Concurrency,
				engine.WithLogger(e.logger),
				engine.WithTimeout(e.cfg.Query.Timeout),
			)
			fmt.Fprintln(out, "done.")
			fmt.Fprintln(out, rule)
			for i, entry := range battery.Entries {
				fmt.Fprintf(out, "(%d/%d) Story %q...\n", i+1, len(stories), entry.Story.Name)
				if entry.Err != nil {
					fmt.Fprintf(out, "\tFailed to run story with error %v\n\n", entry.Err)
					continue
				}
				ids := make([]string, 0, len(entry.Outcome))
				for id := range entry.Outcome {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					o := entry.Outcome[id]
					if o.Equal {
						fmt.Fprintf(out, "\t%s [Assertion=TRUE]\n", id)
					} else {
						fmt.Fprintf(out, "\t%s [Assertion=FALSE]\n\nGot:\n\n%s\nWant:\n\n%s\n", id, o.Got, o.Want)
					}
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, rule)
			if !battery.Passed() {
				return exoerr.New(exoerr.CodeComplianceAssertFailure, "some assertions failed", exoerr.Field("folder", folder))
			}
			return nil
		},
	}
}
