package shell

import "strings"

// Parse splits a line into tokens on spaces. A space preceded by a backslash
// stays inside its token; the backslash is kept until CombineArgs or Unescape
// removes it. Runs of spaces do not produce empty tokens.
func Parse(line string) []string {
	var (
		tokens []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == ' ' && !(i > 0 && line[i-1] == '\\') {
			flush()
			continue
		}
		cur.WriteByte(c)
	}
	flush()
	return tokens
}

// Unescape strips every backslash from a token.
func Unescape(token string) string {
	return strings.ReplaceAll(token, `\`, "")
}

// CombineArgs unescapes args[from:] and joins them with single spaces.
func CombineArgs(args []string, from int) string {
	if from >= len(args) {
		return ""
	}
	parts := make([]string, 0, len(args)-from)
	for _, a := range args[from:] {
		parts = append(parts, Unescape(a))
	}
	return strings.Join(parts, " ")
}

// Escape prepares a name for re-entry at the prompt.
func Escape(name string) string {
	return strings.ReplaceAll(name, " ", `\ `)
}
