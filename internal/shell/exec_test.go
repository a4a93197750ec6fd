package shell

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastcode/fastshell/internal/shell/collab/collabtest"
	"github.com/fastcode/fastshell/internal/shell/history"
	"github.com/fastcode/fastshell/internal/shell/program"
)

// pinger answers "ping" in the background and hangs up on "drop".
type pinger struct{}

func (pinger) Name() string { return "pinger" }

func (pinger) Step(line string, state program.State) program.Result {
	switch line {
	case "":
		return program.Result{Output: []string{"READY"}, State: program.State{"n": "0"}, Prompt: "? "}
	case "ping":
		return program.Result{
			State:  state,
			Prompt: "?? ",
			Pending: func(ctx context.Context) program.Reply {
				return program.Reply{Output: []string{"pong"}, State: program.State{"n": "1"}}
			},
		}
	case "drop":
		return program.Result{
			State: state,
			Pending: func(ctx context.Context) program.Reply {
				return program.Reply{Output: []string{program.Disconnected + " BY REMOTE"}}
			},
		}
	case "quit":
		return program.Result{Output: []string{"bye"}, ExitStatus: 1}
	}
	return program.Result{Output: []string{"? " + line}, State: state}
}

func newProgramHarness(t *testing.T) *harness {
	t.Helper()
	opts := testOptions()
	opts.Programs = program.NewSet(pinger{})
	return newHarnessWith(t, collabtest.NewMockAuth(t, root), opts)
}

func TestProgramMode(t *testing.T) {
	h := newProgramHarness(t)

	e := h.run("pinger")
	assert.Equal(t, []string{"READY"}, texts(e))
	snap := h.sh.Snapshot()
	assert.Equal(t, StateRunningProgram, snap.State)
	assert.Equal(t, "pinger", snap.Program)
	assert.Equal(t, "? ", snap.Prompt)

	e = h.run("ping")
	assert.Equal(t, "ping", e.Command)
	assert.Equal(t, "? ", e.Directory)
	assert.Equal(t, "pinger", e.Program)
	assert.Equal(t, []string{"pong"}, texts(e))
	assert.Equal(t, "1", h.sh.running.state["n"])
	assert.Equal(t, "?? ", h.sh.Snapshot().Prompt)

	e = h.run("ls")
	assert.Equal(t, []string{"? ls"}, texts(e), "lines go to the program, not the dispatcher")

	h.run("drop")
	assert.Equal(t, StateIdle, h.sh.State())
	assert.Equal(t, "/ > ", h.sh.Snapshot().Prompt)
	assert.Contains(t, texts(h.run("ls")), "About")
}

func TestProgramExitStatusEndsMode(t *testing.T) {
	h := newProgramHarness(t)
	h.run("pinger")

	assert.Equal(t, []string{"bye"}, texts(h.run("quit")))
	assert.Equal(t, StateIdle, h.sh.State())
}

func TestInterruptEndsProgram(t *testing.T) {
	h := newProgramHarness(t)
	h.run("pinger")

	h.sh.Interrupt()
	h.sched.Flush()

	assert.Equal(t, StateIdle, h.sh.State())
	assert.Equal(t, []string{"READY", "^C"}, texts(h.last()))
}

func TestProgramRequiresBinOnPath(t *testing.T) {
	h := newProgramHarness(t)
	h.run("set PATH /home")

	assert.Equal(t,
		[]string{"fastcode: command not found: pinger", "Type help to see all available commands"},
		texts(h.run("pinger")))
}

func TestExecutableScripts(t *testing.T) {
	h := newProgramHarness(t)
	h.run(`touch greet.sh echo\ one 755`)

	e := h.run("./greet.sh")
	assert.Equal(t, "echo one", e.Command)
	assert.Equal(t, []string{"one"}, texts(e))

	h.run("cd home")
	h.run(`touch hi echo\ hi 700`)
	h.run("cd /")
	assert.Equal(t, "fastcode: command not found: hi", texts(h.run("hi"))[0])

	h.run("set PATH /bin:/home")
	assert.Equal(t, []string{"hi"}, texts(h.run("hi")))

	h.sh.SetInput("h")
	h.sh.Complete()
	snap := h.sh.Snapshot()
	assert.Equal(t, "home  help  hi", snap.Entries[len(snap.Entries)-1].Lines[0].Text)
}

func TestScriptNestingIsBounded(t *testing.T) {
	h := newProgramHarness(t)
	h.run(`touch loop.sh ./loop.sh 755`)

	h.sh.Submit("./loop.sh")
	h.sched.Flush()

	entries := h.sh.Snapshot().Entries
	require.Len(t, entries, 1+1+4)
	assert.Equal(t, []string{"./loop.sh: too many levels of script nesting"}, texts(entries[len(entries)-1]))
}

func TestCatRefusesExecutable(t *testing.T) {
	h := newProgramHarness(t)
	h.run(`touch run.sh echo\ hi 755`)

	assert.Equal(t, []string{"cat: run.sh: Is an executable"}, texts(h.run("cat run.sh")))
	e := h.run("ls")
	exe := e.Lines[2]
	assert.Equal(t, "run.sh", exe.Text)
	assert.Equal(t, history.KindProgram, exe.Kind)
	assert.Equal(t, "./run.sh", exe.Action.Command)
}
