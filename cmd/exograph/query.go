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

	exoerr "github.com/google/exograph/errors"
	exoio "github.com/google/exograph/io"
	"github.com/google/exograph/io/jsonld"
	"github.com/google/exograph/io/results"
	"github.com/google/exograph/sparql/planner"
	"github.com/google/exograph/sparql/semantic"
	"github.com/spf13/cobra"
)

func newQueryCommand(e *env, opts *rootOptions) *cobra.Command {
	var explain bool
	cmd := &cobra.Command{
		Use:   "query <sparql>",
		Short: "Evaluate a single SPARQL query",
		Long: `Evaluates a single SPARQL query against the data loaded with --data and
prints its result. SELECT tables print as tab separated text or as SPARQL
JSON results, graphs as N-Triples or JSON-LD.`,
		Example: `  exograph query -d people.nq 'SELECT ?x WHERE { ?x <http://example.org/knows> ?y }'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if explain {
				p, err := e.engine.Prepare(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), p.String())
				return err
			}
			res, err := e.engine.Query(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return e.writeResult(cmd.Context(), cmd.OutOrStdout(), res, opts.Format)
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "print the optimized operator tree instead of evaluating the query")
	return cmd
}

// writeResult prints a query result in the requested format. Formats that do
// not apply to the result form fall back to text.
func (e *env) writeResult(ctx context.Context, w io.Writer, res *planner.Result, format string) error {
	switch res.Form {
	case semantic.Select:
		if format == formatJSON {
			return results.Write(w, results.Select(res.Table))
		}
		_, err := io.WriteString(w, res.Table.String())
		return err
	case semantic.Ask:
		if format == formatJSON {
			return results.Write(w, results.Ask(res.Boolean))
		}
		_, err := fmt.Fprintln(w, res.Boolean)
		return err
	case semantic.Construct, semantic.Describe:
		switch format {
		case formatJSON, formatJSONLD:
			return jsonld.Write(w, res.Triples, jsonld.Options{
				Prefixes: e.engine.Prefixes(),
				Compact:  format == formatJSONLD,
			})
		}
		_, err := exoio.Encode(ctx, w, res.Triples)
		return err
	}
	return exoerr.New(exoerr.CodeQueryUnsupported, "unknown query form", exoerr.Field("form", res.Form.String()))
}
