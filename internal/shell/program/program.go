// Package program defines interactive programs that take over the prompt
// until they exit, and the ones bundled with the shell.
package program

import "context"

// Disconnected in any output line ends the running program.
const Disconnected = "ERROR: LINK DISCONNECTED"

// State is a program's private state between lines. The shell stores it
// without interpreting it.
type State map[string]string

// Pending is background work a step started. Its reply is applied on the
// shell's loop when it arrives, if the program is still running.
type Pending func(ctx context.Context) Reply

// Reply is the outcome of Pending work. State keys, if any, are merged into
// the program's current state.
type Reply struct {
	Output []string
	State  State
}

// Result is what one step of a program produced.
type Result struct {
	Output     []string
	ExitStatus int
	State      State
	Prompt     string
	Pending    Pending
}

// Program is fed one submitted line at a time. The first call of a run
// receives an empty line and a nil state.
type Program interface {
	Name() string
	Step(line string, state State) Result
}

// Set indexes programs by name.
type Set map[string]Program

// NewSet builds a Set from programs.
func NewSet(programs ...Program) Set {
	s := make(Set, len(programs))
	for _, p := range programs {
		s[p.Name()] = p
	}
	return s
}
