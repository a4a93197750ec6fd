package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndAppend(t *testing.T) {
	r := NewRecorder()

	assert.False(t, r.Append(Text("orphan")))

	first := r.Record("ls", "/", Text("About"))
	r.Record("pwd", "/")
	require.True(t, r.Append(Text("/")))

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, first, entries[0].ID)
	assert.Equal(t, []Line{Text("About")}, entries[0].Lines)
	assert.Equal(t, "pwd", entries[1].Command)
	assert.Equal(t, []Line{Text("/")}, entries[1].Lines)
}

func TestAppendToTargetsItsOwnEntry(t *testing.T) {
	r := NewRecorder()

	login := r.Record("login a@b.co pw", "/", Text("Logging in..."))
	r.Record("ls", "/")

	require.True(t, r.AppendTo(login, Text("Logged in as a@b.co")))

	e, ok := r.Entry(login)
	require.True(t, ok)
	assert.Equal(t, Texts("Logging in...", "Logged in as a@b.co"), e.Lines)

	last, ok := r.Last()
	require.True(t, ok)
	assert.Empty(t, last.Lines)
}

func TestAppendToAfterClearIsDropped(t *testing.T) {
	r := NewRecorder()
	entry := r.Record("projects", "/")

	r.Clear()

	assert.False(t, r.AppendTo(entry, Text("late")))
	assert.Zero(t, r.Len())
}

func TestEntriesIsDeepCopy(t *testing.T) {
	r := NewRecorder()
	r.Record("help", "/", Link("ls - list", "ls"))

	copied := r.Entries()
	copied[0].Lines[0].Text = "mutated"
	copied[0].Lines[0].Action.Command = "rm"

	fresh := r.Entries()
	assert.Equal(t, "ls - list", fresh[0].Lines[0].Text)
	assert.Equal(t, "ls", fresh[0].Lines[0].Action.Command)
}

func TestPromptState(t *testing.T) {
	r := NewRecorder()
	assert.Equal(t, ModeWaiting, r.Mode())

	r.SetInput("cd ho")
	r.SetHover("cd home")
	r.SetMode(ModeAutocompleting)

	assert.Equal(t, "cd ho", r.Input())
	assert.Equal(t, "cd home", r.Hover())
	assert.Equal(t, ModeAutocompleting, r.Mode())
}

func TestLineHelpers(t *testing.T) {
	assert.True(t, Link("x", "ls").Action.Run)
	assert.False(t, Suggest("x", "set OpenAI [your-key]").Action.Run)
	assert.Equal(t, KindError, Error("boom").Kind)
}

func TestRecordProgram(t *testing.T) {
	r := NewRecorder()
	entry := r.RecordProgram("wopr", "LOGON:", "joshua", Text("LOGON SUCCESSFUL"))

	e, ok := r.Entry(entry)
	require.True(t, ok)
	assert.Equal(t, "wopr", e.Program)
	assert.Equal(t, "LOGON:", e.Directory)
	assert.Equal(t, "joshua", e.Command)
}
