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

	"github.com/spf13/cobra"
)

func newLoadCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>...",
		Short: "Validate data files and report what they contain",
		Long: `Parses every file into the store and reports the statements read, the
duplicates, and the named graph labels dropped. A file that fails to parse
leaves the store untouched and stops the command.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				rep, err := e.loadFile(cmd.Context(), path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: read=%d duplicates=%d labeled=%d\n", path, rep.Read, rep.Duplicates, rep.Labeled)
			}
			_, err := fmt.Fprintf(out, "store holds %d triples\n", e.store.Size())
			return err
		},
	}
}
