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
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	exoerr "github.com/google/exograph/errors"
	exoio "github.com/google/exograph/io"
	"github.com/google/exograph/io/results"
	"github.com/google/exograph/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const knows = `<http://example.org/a> <http://example.org/knows> <http://example.org/b> .
<http://example.org/b> <http://example.org/knows> <http://example.org/c> .
`

// execute runs the root command with the given arguments and standard input.
func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"assert", "bench", "export", "generate", "load", "query", "repl", "run", "serve", "stats", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestPersistentFlags(t *testing.T) {
	cmd := NewRootCommand()
	for name, short := range map[string]string{"config": "c", "data": "d", "format": "f", "verbose": "v"} {
		f := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, f, "missing --%s", name)
		assert.Equal(t, short, f.Shorthand)
	}
	assert.Equal(t, formatText, cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "", "version", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, exoerr.CodeConfigInvalidValue, exoerr.CodeOf(err))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "exograph (0.3.0-alpha)\n", out)
}

func TestQuerySelect(t *testing.T) {
	data := writeFile(t, "knows.nq", knows)
	out, err := execute(t, "", "query", "-d", data,
		"SELECT ?x ?y WHERE { ?x <http://example.org/knows> ?y } ORDER BY ?x")
	require.NoError(t, err)
	want := "?x\t?y\n" +
		"<http://example.org/a>\t<http://example.org/b>\n" +
		"<http://example.org/b>\t<http://example.org/c>\n"
	assert.Equal(t, want, out)
}

func TestQuerySelectJSON(t *testing.T) {
	data := writeFile(t, "knows.nq", knows)
	out, err := execute(t, "", "query", "-d", data, "-f", "json",
		"SELECT ?x WHERE { ?x <http://example.org/knows> ?y }")
	require.NoError(t, err)
	tbl, b, err := results.Read(strings.NewReader(out))
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Equal(t, []string{"x"}, tbl.Bindings())
	assert.Equal(t, 2, tbl.NumRows())
}

func TestQueryAskAndConstruct(t *testing.T) {
	data := writeFile(t, "knows.nq", knows)

	out, err := execute(t, "", "query", "-d", data,
		"ASK { <http://example.org/a> <http://example.org/knows> <http://example.org/b> }")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = execute(t, "", "query", "-d", data,
		`CONSTRUCT { ?y <http://example.org/knownBy> ?x } WHERE { ?x <http://example.org/knows> ?y }`)
	require.NoError(t, err)
	ts, _, err := exoio.Decode(context.Background(), strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, ts, 2)
	assert.Contains(t, out, "<http://example.org/knownBy>")

	out, err = execute(t, "", "query", "-d", data, "-f", "jsonld",
		"DESCRIBE <http://example.org/a>")
	require.NoError(t, err)
	assert.Contains(t, out, "@graph")
}

func TestQueryExplain(t *testing.T) {
	out, err := execute(t, "", "query", "--explain",
		"SELECT ?x WHERE { ?x <http://example.org/knows> ?y }")
	require.NoError(t, err)
	assert.Contains(t, out, "(bgp (?x <http://example.org/knows> ?y))")
}

func TestQueryErrors(t *testing.T) {
	_, err := execute(t, "", "query", "SELECT ?x WHERE {")
	require.Error(t, err)
	assert.True(t, exoerr.IsSyntax(err), "got %v", err)

	_, err = execute(t, "", "query")
	assert.Error(t, err)

	_, err = execute(t, "", "query", "-d", filepath.Join(t.TempDir(), "missing.nq"), "ASK {}")
	assert.Error(t, err)
}

func TestConfigPrefixes(t *testing.T) {
	data := writeFile(t, "knows.nq", knows)
	cfg := writeFile(t, "exograph.yaml", "prefixes:\n  ex: http://example.org/\nlog:\n  level: warn\n")
	out, err := execute(t, "", "query", "-c", cfg, "-d", data, "ASK { ex:a ex:knows ex:b }")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestLoad(t *testing.T) {
	data := writeFile(t, "dup.nq", knows+
		"<http://example.org/a> <http://example.org/knows> <http://example.org/b> .\n"+
		"<http://example.org/c> <http://example.org/knows> <http://example.org/a> <http://example.org/g> .\n")
	out, err := execute(t, "", "load", data)
	require.NoError(t, err)
	assert.Contains(t, out, "read=4 duplicates=1 labeled=1")
	assert.Contains(t, out, "store holds 3 triples")

	bad := writeFile(t, "bad.nq", "<http://example.org/a> <http://example.org/knows>\n")
	_, err = execute(t, "", "load", bad)
	assert.Error(t, err)
}

func TestLoadJSONLD(t *testing.T) {
	data := writeFile(t, "knows.jsonld", `{
  "@id": "http://example.org/a",
  "http://example.org/knows": {"@id": "http://example.org/b"}
}`)
	out, err := execute(t, "", "load", data)
	require.NoError(t, err)
	assert.Contains(t, out, "store holds 1 triples")
}

func TestExport(t *testing.T) {
	data := writeFile(t, "knows.nq", knows)
	dst := filepath.Join(t.TempDir(), "out.nt")
	_, err := execute(t, "", "export", "-d", data, "--out", dst)
	require.NoError(t, err)

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	got, _, err := exoio.Decode(context.Background(), f)
	require.NoError(t, err)
	want, _, err := exoio.Decode(context.Background(), strings.NewReader(knows))
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)

	out, err := execute(t, "", "export", "-d", data, "--subject", "<http://example.org/b>")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "<http://example.org/c>")

	_, err = execute(t, "", "export", "--subject", "not a term")
	assert.Error(t, err)
}

func TestExportJSONLD(t *testing.T) {
	data := writeFile(t, "knows.nq", knows)
	out, err := execute(t, "", "export", "-d", data, "-f", "json")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "@graph")
}

func TestReadStatements(t *testing.T) {
	in := `# a comment
ASK { ?x ?p ?o };

SELECT ?x
WHERE {
  ?x <http://example.org/knows> ?y ;
     <http://example.org/knows> ?z .
}
;
SELECT * WHERE { ?s ?p ?o }`
	got, err := readStatements(strings.NewReader(in))
	require.NoError(t, err)
	want := []string{
		"ASK { ?x ?p ?o }",
		"SELECT ?x\nWHERE {\n?x <http://example.org/knows> ?y ;\n<http://example.org/knows> ?z .\n}",
		"SELECT * WHERE { ?s ?p ?o }",
	}
	assert.Equal(t, want, got)
}

func TestRun(t *testing.T) {
	data := writeFile(t, "knows.nq", knows)
	stms := writeFile(t, "queries.sparql", `
ASK { <http://example.org/a> <http://example.org/knows> ?y };
SELECT ?y
WHERE {
  <http://example.org/a> <http://example.org/knows> ?y ;
                         <http://example.org/knows> ?y .
};
`)
	out, err := execute(t, "", "run", "-d", data, stms)
	require.NoError(t, err)
	assert.Contains(t, out, "Statement (1/2)\ntrue\n")
	assert.Contains(t, out, "Statement (2/2)\n?y\n<http://example.org/b>\n")
}

func TestREPL(t *testing.T) {
	data := writeFile(t, "knows.nq", knows)
	in := strings.Join([]string{
		"help;",
		"SELECT ?x",
		"WHERE { ?x <http://example.org/knows> <http://example.org/c> };",
		"SELECT ?x WHERE { ?x };",
		"stats;",
		"load;",
		"quit;",
		"ASK {};",
	}, "\n")
	out, err := execute(t, in, "repl", "-d", data)
	require.NoError(t, err)
	assert.Contains(t, out, "2 triples loaded")
	assert.Contains(t, out, "quit;                   - quits the console.")
	assert.Contains(t, out, "?x\n<http://example.org/b>\n[OK]")
	assert.Contains(t, out, "[ERROR]")
	assert.Contains(t, out, "wrong syntax: load <file_path>")
	assert.Contains(t, out, "triples:             2")
	assert.Contains(t, out, "Thanks for all those queries!")
	assert.NotContains(t, out, "true")
}

func TestStats(t *testing.T) {
	data := writeFile(t, "knows.nq", knows)
	out, err := execute(t, "", "stats", "-d", data, "-f", "json")
	require.NoError(t, err)
	var st storage.Statistics
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 2, st.Triples)
	assert.Equal(t, 2, st.Subjects)
	assert.Equal(t, 1, st.Predicates)
}

func TestAssert(t *testing.T) {
	out, err := execute(t, "", "assert", filepath.Join("..", "..", "tools", "compliance", "testdata"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "[Assertion=TRUE]")
	assert.NotContains(t, out, "[Assertion=FALSE]")

	_, err = execute(t, "", "assert", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, exoerr.CodeComplianceStoryInvalid, exoerr.CodeOf(err))
}

func TestGenerate(t *testing.T) {
	out, err := execute(t, "", "generate", "tree", "-n", "6", "--branch", "2")
	require.NoError(t, err)
	ts, _, err := exoio.Decode(context.Background(), strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, ts, 6)

	_, err = execute(t, "", "generate", "forest")
	assert.Error(t, err)
}

func TestBench(t *testing.T) {
	out, err := execute(t, "", "bench", "--branch", "2", "--sizes", "10", "--reps", "1", "--depth", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Add triples")
	assert.Contains(t, out, "Walk tree")
	assert.NotContains(t, out, "[ERROR]")
}
