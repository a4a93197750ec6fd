// Package history records a shell session's scrollback and prompt state.
package history

import (
	"slices"
	"time"

	"github.com/fastcode/fastshell/internal/shared/id"
)

// Mode is what the prompt is doing right now.
type Mode string

const (
	ModeWaiting        Mode = "waiting"
	ModeOutputting     Mode = "outputting"
	ModeInputting      Mode = "inputting"
	ModeAutocompleting Mode = "autocompleting"
)

// Entry is one command and everything it printed.
type Entry struct {
	ID        id.EntryID `json:"id"`
	Command   string     `json:"command"`
	Directory string     `json:"directory"`
	Lines     []Line     `json:"lines"`
	At        time.Time  `json:"at"`

	// Program is set for lines fed to an interactive program; Directory then
	// holds the program's prompt.
	Program string `json:"program,omitempty"`
}

// Recorder holds the ordered entries of one session plus the transient prompt
// state. It is confined to the session's event loop.
type Recorder struct {
	entries []*Entry
	index   map[id.EntryID]*Entry

	input string
	hover string
	mode  Mode
	now   func() time.Time
}

// NewRecorder creates an empty recorder in waiting mode.
func NewRecorder() *Recorder {
	return &Recorder{
		index: make(map[id.EntryID]*Entry),
		mode:  ModeWaiting,
		now:   time.Now,
	}
}

// Record appends a new entry and returns its ID.
func (r *Recorder) Record(command, directory string, lines ...Line) id.EntryID {
	e := &Entry{
		ID:        id.NewEntryID(),
		Command:   command,
		Directory: directory,
		Lines:     cloneLines(lines),
		At:        r.now(),
	}
	r.entries = append(r.entries, e)
	r.index[e.ID] = e
	return e.ID
}

// RecordProgram appends an entry for a line submitted to a running program.
func (r *Recorder) RecordProgram(program, prompt, line string, lines ...Line) id.EntryID {
	entry := r.Record(line, prompt, lines...)
	r.index[entry].Program = program
	return entry
}

// Append adds lines to the most recent entry. It reports false when there is
// no entry to append to.
func (r *Recorder) Append(lines ...Line) bool {
	if len(r.entries) == 0 {
		return false
	}
	last := r.entries[len(r.entries)-1]
	last.Lines = append(last.Lines, cloneLines(lines)...)
	return true
}

// AppendTo adds lines to a specific entry. Output for an entry that has been
// cleared away is dropped and false is returned.
func (r *Recorder) AppendTo(entry id.EntryID, lines ...Line) bool {
	e, ok := r.index[entry]
	if !ok {
		return false
	}
	e.Lines = append(e.Lines, cloneLines(lines)...)
	return true
}

// Clear removes every entry.
func (r *Recorder) Clear() {
	r.entries = nil
	r.index = make(map[id.EntryID]*Entry)
}

// Len is the number of entries.
func (r *Recorder) Len() int { return len(r.entries) }

// Entries returns a deep copy of the scrollback.
func (r *Recorder) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = *e
		out[i].Lines = cloneLines(e.Lines)
	}
	return out
}

// Entry returns a copy of one entry.
func (r *Recorder) Entry(entry id.EntryID) (Entry, bool) {
	e, ok := r.index[entry]
	if !ok {
		return Entry{}, false
	}
	out := *e
	out.Lines = cloneLines(e.Lines)
	return out, true
}

// Last returns a copy of the most recent entry.
func (r *Recorder) Last() (Entry, bool) {
	if len(r.entries) == 0 {
		return Entry{}, false
	}
	return r.Entry(r.entries[len(r.entries)-1].ID)
}

func (r *Recorder) Input() string         { return r.input }
func (r *Recorder) SetInput(input string) { r.input = input }
func (r *Recorder) Hover() string         { return r.hover }
func (r *Recorder) SetHover(text string)  { r.hover = text }
func (r *Recorder) Mode() Mode            { return r.mode }
func (r *Recorder) SetMode(m Mode)        { r.mode = m }

func cloneLines(lines []Line) []Line {
	if len(lines) == 0 {
		return nil
	}
	out := slices.Clone(lines)
	for i := range out {
		out[i] = out[i].clone()
	}
	return out
}
