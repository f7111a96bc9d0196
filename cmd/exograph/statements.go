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
	"io"
	"os"
	"strings"
)

// readStatements splits the input into statements. A statement ends with a
// line ending in ';' outside any group, so predicate lists inside braces are
// left alone. Empty lines and lines starting with '#' are skipped.
func readStatements(r io.Reader) ([]string, error) {
	var (
		stms  []string
		cur   []string
		depth int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		l := strings.TrimSpace(scanner.Text())
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		depth += strings.Count(l, "{") - strings.Count(l, "}")
		if depth <= 0 && strings.HasSuffix(l, ";") {
			cur = append(cur, strings.TrimSuffix(l, ";"))
			if stm := strings.TrimSpace(strings.Join(cur, "\n")); stm != "" {
				stms = append(stms, stm)
			}
			cur, depth = nil, 0
			continue
		}
		cur = append(cur, l)
	}
	if stm := strings.TrimSpace(strings.Join(cur, "\n")); stm != "" {
		stms = append(stms, stm)
	}
	return stms, scanner.Err()
}

// readStatementsFile returns the statements found in the provided file.
func readStatementsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readStatements(f)
}
