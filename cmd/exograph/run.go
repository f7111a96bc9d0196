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
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newRunCommand(e *env, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Evaluate every SPARQL statement in a file",
		Long: `Evaluates every statement in the file concurrently and prints the results
in the order the statements appear. Statements end with a line ending in ';'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := e.runFile(cmd.Context(), cmd.OutOrStdout(), args[0], opts.Format)
			return err
		},
	}
}

// runFile evaluates the statements in the file and returns how many ran.
func (e *env) runFile(ctx context.Context, w io.Writer, path, format string) (int, error) {
	stms, err := readStatementsFile(path)
	if err != nil {
		return 0, err
	}
	res, err := e.engine.QueryAll(ctx, stms)
	if err != nil {
		return 0, err
	}
	for i, r := range res {
		fmt.Fprintf(w, "Statement (%d/%d)\n", i+1, len(res))
		if err := e.writeResult(ctx, w, r, format); err != nil {
			return i, err
		}
		fmt.Fprintln(w)
	}
	return len(res), nil
}
