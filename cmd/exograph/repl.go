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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	exoio "github.com/google/exograph/io"
	"github.com/google/exograph/storage"
	"github.com/spf13/cobra"
)

const prompt = "exograph> "

func newREPLCommand(e *env, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive SPARQL console",
		Long: `Starts a read-evaluation-print loop. Queries may span several lines and
end with ';'. Type help; to list the console commands and quit; to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.repl(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts.Format)
		},
	}
}

// repl runs the console until the input ends or quit is entered.
func (e *env) repl(ctx context.Context, in io.Reader, out io.Writer, format string) error {
	fmt.Fprintf(out, "Welcome to exograph (%s)\n", versionString())
	fmt.Fprintf(out, "%d triples loaded. Type quit; to exit\n", e.store.Size())
	fmt.Fprintf(out, "Session started at %v\n\n", time.Now().Format(time.RFC3339))
	defer fmt.Fprintf(out, "\n\nThanks for all those queries!\n\n")

	var (
		buf   []string
		depth int
	)
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		l := strings.TrimSpace(scanner.Text())
		if l == "" {
			fmt.Fprint(out, prompt)
			continue
		}
		if fields := strings.Fields(strings.TrimSuffix(l, ";")); len(buf) == 0 && len(fields) > 0 {
			switch fields[0] {
			case "quit", "exit":
				return nil
			case "help":
				printHelp(out)
				fmt.Fprint(out, prompt)
				continue
			case "load", "export", "run", "stats":
				if err := e.console(ctx, out, fields, format); err != nil {
					fmt.Fprintf(out, "[ERROR] %v\n\n", err)
				}
				fmt.Fprint(out, prompt)
				continue
			}
		}
		buf = append(buf, l)
		depth += strings.Count(l, "{") - strings.Count(l, "}")
		if depth > 0 || !strings.HasSuffix(l, ";") {
			continue
		}
		q := strings.TrimSuffix(strings.Join(buf, "\n"), ";")
		buf, depth = nil, 0
		res, err := e.engine.Query(ctx, q)
		if err != nil {
			fmt.Fprintf(out, "[ERROR] %v\n\n", err)
		} else if err := e.writeResult(ctx, out, res, format); err != nil {
			fmt.Fprintf(out, "[ERROR] %v\n\n", err)
		} else {
			fmt.Fprintln(out, "[OK]")
		}
		fmt.Fprint(out, prompt)
	}
	return scanner.Err()
}

// console runs one of the console commands.
func (e *env) console(ctx context.Context, out io.Writer, fields []string, format string) error {
	if fields[0] == "stats" {
		return writeStatistics(out, e.store.Statistics(), format)
	}
	if len(fields) != 2 {
		return fmt.Errorf("wrong syntax: %s <file_path>", fields[0])
	}
	path := fields[1]
	switch fields[0] {
	case "load":
		rep, err := e.loadFile(ctx, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Loaded %d statements from %q\n\n", rep.Read, path)
	case "export":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		n, err := exoio.WriteNQuads(ctx, f, e.store, storage.Pattern{})
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %d triples to %q\n\n", n, path)
	case "run":
		n, err := e.runFile(ctx, out, path, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Loaded %q and ran %d statements successfully\n\n", path, n)
	}
	return nil
}

// printHelp prints help for the console commands.
func printHelp(out io.Writer) {
	fmt.Fprintln(out, "help;                   - prints help for the exograph console.")
	fmt.Fprintln(out, "load <file_path>;       - loads an N-Quads or JSON-LD file.")
	fmt.Fprintln(out, "export <file_path>;     - writes the graph as N-Quads.")
	fmt.Fprintln(out, "run <file_path>;        - runs the statements in the file.")
	fmt.Fprintln(out, "stats;                  - prints the store statistics.")
	fmt.Fprintln(out, "quit;                   - quits the console.")
	fmt.Fprintln(out)
}
