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
	"io"
	"os"
	"sort"

	exoio "github.com/google/exograph/io"
	"github.com/google/exograph/io/jsonld"
	"github.com/google/exograph/storage"
	"github.com/google/exograph/term"
	"github.com/spf13/cobra"
)

type exportOptions struct {
	Out       string
	Subject   string
	Predicate string
	Object    string
}

func newExportCommand(e *env, opts *rootOptions) *cobra.Command {
	eo := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the loaded graph as N-Triples or JSON-LD",
		Long: `Writes the triples matching the optional pattern, sorted, as N-Triples.
The json and jsonld formats write a JSON-LD document instead. Pattern
positions use the N-Triples syntax, e.g. --predicate '<http://example.org/knows>'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			p, err := eo.pattern()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if eo.Out != "" {
				f, ferr := os.Create(eo.Out)
				if ferr != nil {
					return ferr
				}
				defer func() {
					if cerr := f.Close(); err == nil {
						err = cerr
					}
				}()
				w = f
			}
			n, err := e.export(cmd, w, p, opts.Format)
			if err != nil {
				return err
			}
			e.logger.Debug("exported graph", "triples", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&eo.Out, "out", "o", "", "write to this file instead of the standard output")
	cmd.Flags().StringVar(&eo.Subject, "subject", "", "only export triples with this subject")
	cmd.Flags().StringVar(&eo.Predicate, "predicate", "", "only export triples with this predicate")
	cmd.Flags().StringVar(&eo.Object, "object", "", "only export triples with this object")
	return cmd
}

func (eo *exportOptions) pattern() (storage.Pattern, error) {
	var p storage.Pattern
	for _, f := range []struct {
		v   string
		dst *term.Term
	}{{eo.Subject, &p.S}, {eo.Predicate, &p.P}, {eo.Object, &p.O}} {
		if f.v == "" {
			continue
		}
		t, err := term.Parse(f.v)
		if err != nil {
			return storage.Pattern{}, err
		}
		*f.dst = t
	}
	return p, nil
}

func (e *env) export(cmd *cobra.Command, w io.Writer, p storage.Pattern, format string) (int, error) {
	if format != formatJSON && format != formatJSONLD {
		return exoio.WriteNQuads(cmd.Context(), w, e.store, p)
	}
	ts := e.store.Match(p)
	sort.Slice(ts, func(i, j int) bool {
		return ts[i].String() < ts[j].String()
	})
	err := jsonld.Write(w, ts, jsonld.Options{
		Prefixes: e.engine.Prefixes(),
		Compact:  format == formatJSONLD,
	})
	return len(ts), err
}
