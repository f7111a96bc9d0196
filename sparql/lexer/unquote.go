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

package lexer

import (
	"fmt"
	"strconv"
	"strings"
)

// Unquote returns the value of an ItemString token text, removing the
// delimiters and resolving escape sequences.
func Unquote(text string) (string, error) {
	n := 1
	if len(text) >= 6 && (strings.HasPrefix(text, `"""`) || strings.HasPrefix(text, `'''`)) {
		n = 3
	}
	if len(text) < 2*n {
		return "", fmt.Errorf("invalid string token %q", text)
	}
	body := text[n : len(text)-n]
	if !strings.Contains(body, `\`) {
		return body, nil
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("dangling escape in %q", text)
		}
		switch e := body[i]; e {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '"', '\'', '\\':
			b.WriteByte(e)
		case 'u', 'U':
			size := 4
			if e == 'U' {
				size = 8
			}
			if i+1+size > len(body) {
				return "", fmt.Errorf("truncated unicode escape in %q", text)
			}
			v, err := strconv.ParseUint(body[i+1:i+1+size], 16, 32)
			if err != nil {
				return "", fmt.Errorf("invalid unicode escape in %q: %v", text, err)
			}
			b.WriteRune(rune(v))
			i += size
		default:
			return "", fmt.Errorf("invalid escape sequence \\%c in %q", e, text)
		}
	}
	return b.String(), nil
}
