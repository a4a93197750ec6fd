package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/fastcode/fastshell/internal/providers/terminal"
	"github.com/fastcode/fastshell/internal/shared/id"
	"github.com/fastcode/fastshell/internal/shell"
	"github.com/fastcode/fastshell/internal/shell/history"
)

var (
	promptColor  = color.New(color.FgGreen, color.Bold)
	dirColor     = color.New(color.FgBlue, color.Bold)
	errorColor   = color.New(color.FgRed)
	programColor = color.New(color.FgYellow)
	actionColor  = color.New(color.FgCyan, color.Underline)
	navColor     = color.New(color.Faint)
)

// renderer prints snapshots incrementally: each entry's command once, then
// only the lines it has not printed yet.
type renderer struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool

	printed map[id.EntryID]int
	order   []id.EntryID
	prompt  string
}

func newRenderer(out io.Writer, interactive bool) *renderer {
	return &renderer{out: out, interactive: interactive, printed: make(map[id.EntryID]int)}
}

func (r *renderer) event(ev terminal.Event) {
	switch ev.Type {
	case terminal.EventSnapshot:
		r.snapshot(*ev.Snapshot)
	case terminal.EventNavigate:
		r.mu.Lock()
		navColor.Fprintf(r.out, "→ %s\n", ev.Navigation.Path)
		r.mu.Unlock()
	case terminal.EventClosed:
		r.mu.Lock()
		fmt.Fprintln(r.out, "session closed")
		r.mu.Unlock()
	}
}

func (r *renderer) snapshot(snap shell.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// clear empties the history; start over.
	if len(snap.Entries) < len(r.order) {
		r.printed = make(map[id.EntryID]int)
		r.order = nil
	}

	wrote := false
	for _, e := range snap.Entries {
		n, seen := r.printed[e.ID]
		if !seen {
			r.order = append(r.order, e.ID)
			r.header(e)
			wrote = true
		}
		for _, line := range e.Lines[n:] {
			r.line(line)
			wrote = true
		}
		r.printed[e.ID] = len(e.Lines)
	}

	if r.interactive && snap.Mode == history.ModeWaiting && (wrote || snap.Prompt != r.prompt) {
		promptColor.Fprint(r.out, snap.Prompt)
	}
	r.prompt = snap.Prompt
}

// pending shows a completed prompt; an empty line runs it.
func (r *renderer) pending(input string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	navColor.Fprintf(r.out, "%s%s  (enter to run)\n", r.prompt, input)
	if r.interactive {
		promptColor.Fprint(r.out, r.prompt)
	}
}

func (r *renderer) header(e history.Entry) {
	if r.interactive {
		// The user already sees what they typed after the prompt.
		return
	}
	if e.Program != "" {
		programColor.Fprintf(r.out, "%s%s\n", e.Directory, e.Command)
		return
	}
	promptColor.Fprintf(r.out, "%s > ", e.Directory)
	fmt.Fprintln(r.out, e.Command)
}

func (r *renderer) line(l history.Line) {
	c := color.New()
	switch l.Kind {
	case history.KindDirectory:
		c = dirColor
	case history.KindError:
		c = errorColor
	case history.KindProgram:
		c = programColor
	}
	if l.Action != nil && l.Kind == history.KindText {
		c = actionColor
	}
	c.Fprintln(r.out, l.Text)
}
