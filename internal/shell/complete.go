package shell

import (
	"strings"

	"github.com/fastcode/fastshell/internal/shell/history"
)

// Complete expands the last token of the prompt. A single match replaces the
// token; several are listed in a new entry and the prompt is left alone.
func (s *Shell) Complete() {
	if s.running != nil {
		return
	}
	defer s.changed()
	defer s.refreshMode()
	s.history.SetMode(history.ModeAutocompleting)

	input := s.history.Input()
	tokens := Parse(input)
	if len(tokens) == 0 || (strings.HasSuffix(input, " ") && !strings.HasSuffix(input, `\ `)) {
		tokens = append(tokens, "")
	}
	last := Unescape(tokens[len(tokens)-1])

	matches := matchPrefix(s.candidates(tokens), last)
	switch len(matches) {
	case 0:
	case 1:
		tokens[len(tokens)-1] = Escape(matches[0])
		s.history.SetInput(strings.Join(tokens, " "))
	default:
		s.history.Record(input, s.cwd.Path(), history.Text(strings.Join(matches, "  ")))
	}
}

func (s *Shell) candidates(tokens []string) []string {
	if len(tokens) > 1 {
		if d, ok := builtins.Lookup(tokens[0]); ok && d.Handler.complete != nil {
			return d.Handler.complete(s, tokens[1:])
		}
		return s.entryNames()
	}
	return append(s.entryNames(), s.pathCommands()...)
}

func (s *Shell) entryNames() []string {
	entries := s.cwd.List()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func (s *Shell) completeDirs(args []string) []string {
	children := s.cwd.Children()
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name
	}
	return names
}

func (s *Shell) completeCommands(args []string) []string {
	return builtins.Names()
}

// matchPrefix keeps candidates starting with prefix, ignoring case, without
// duplicates and in first-seen order.
func matchPrefix(candidates []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, c := range candidates {
		if seen[c] || !strings.HasPrefix(strings.ToLower(c), prefix) {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
