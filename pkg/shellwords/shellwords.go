// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shellwords splits command strings into argv tokens and joins argv
// tokens back into display strings.
//
// Split keeps quoted substrings together as a single token and keeps the
// quote characters as part of that token: Split(`ls "-lh foo"`) returns
// ["ls", `"-lh foo"`]. That is the supported contract; callers that want the
// quotes stripped must do so themselves.
package shellwords

import "strings"

// Split tokenizes a command string on unquoted whitespace. Double- and
// single-quoted regions never split, and the quotes survive in the token.
// An unterminated quote extends to the end of the string.
func Split(s string) []string {
	var tokens []string
	var cur strings.Builder
	var quote byte

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}

// Join renders argv tokens as a single display line. Tokens containing
// whitespace are wrapped in double quotes unless they already carry quotes.
func Join(tokens []string) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if strings.ContainsAny(t, " \t") && !strings.ContainsAny(t, `"'`) {
			t = `"` + t + `"`
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " ")
}
