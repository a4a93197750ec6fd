package shell

import (
	"slices"

	"github.com/fastcode/fastshell/internal/shell/collab"
	"github.com/fastcode/fastshell/internal/shell/history"
)

// Snapshot is a copy of everything a renderer needs. It shares no memory with
// the session.
type Snapshot struct {
	Entries   []history.Entry `json:"entries"`
	Input     string          `json:"input"`
	Hover     string          `json:"hover,omitempty"`
	Mode      history.Mode    `json:"mode"`
	State     State           `json:"state"`
	Cwd       string          `json:"cwd"`
	Prompt    string          `json:"prompt"`
	Program   string          `json:"program,omitempty"`
	User      *collab.User    `json:"user,omitempty"`
	Workspace Workspace       `json:"workspace"`
	Composing bool            `json:"composing"`
}

// Snapshot copies the session's visible state.
func (s *Shell) Snapshot() Snapshot {
	snap := Snapshot{
		Entries:   s.history.Entries(),
		Input:     s.history.Input(),
		Hover:     s.history.Hover(),
		Mode:      s.history.Mode(),
		State:     s.state,
		Cwd:       s.cwd.Path(),
		Prompt:    s.cwd.Path() + " > ",
		Workspace: s.workspace,
		Composing: s.composing,
	}
	if s.running != nil {
		snap.Program = s.running.prog.Name()
		snap.Prompt = s.running.prompt
	}
	if s.user != nil {
		u := *s.user
		u.Labels = slices.Clone(s.user.Labels)
		snap.User = &u
	}
	snap.Workspace.Projects = slices.Clone(s.workspace.Projects)
	if p := s.workspace.SelectedProject; p != nil {
		cp := *p
		snap.Workspace.SelectedProject = &cp
	}
	return snap
}
