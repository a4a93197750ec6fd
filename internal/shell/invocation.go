package shell

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fastcode/fastshell/internal/shared/id"
	"github.com/fastcode/fastshell/internal/shell/collab"
	"github.com/fastcode/fastshell/internal/shell/history"
	"github.com/fastcode/fastshell/internal/shell/vfs"
)

// Invocation is one run of a built-in command. Dir and User are captured at
// dispatch; output always lands on the entry that was recorded for the line.
type Invocation struct {
	Name  string
	Args  []string
	Line  string
	Usage string
	Dir   *vfs.Directory
	User  *collab.User
	Entry id.EntryID

	shell *Shell
	gen   uint64
}

// Print appends lines to the invocation's entry.
func (inv *Invocation) Print(lines ...history.Line) {
	if inv.stale() {
		return
	}
	inv.shell.history.AppendTo(inv.Entry, lines...)
	inv.shell.changed()
}

// Printf prints one formatted text line.
func (inv *Invocation) Printf(format string, args ...any) {
	inv.Print(history.Text(fmt.Sprintf(format, args...)))
}

// Fail renders err onto the invocation's entry.
func (inv *Invocation) Fail(err error) {
	if Kind(err) == CollaboratorError {
		inv.shell.log.Warn("command failed",
			zap.String("command", inv.Name),
			zap.Error(err),
		)
	}
	inv.Print(inv.shell.render.lines(err)...)
}

// Rest unescapes and joins the arguments from index from.
func (inv *Invocation) Rest(from int) string {
	return CombineArgs(inv.Args, from)
}

// Call runs work off the loop with a timeout. then runs back on the loop
// with work's error, unless the session was reset in the meantime.
func (inv *Invocation) Call(op string, work func(ctx context.Context) error, then func(err error)) {
	s := inv.shell
	timeout := s.opts.CallTimeout
	start := time.Now()

	s.inflight++
	s.refreshMode()
	s.sched.Go(func() func() {
		ctx, cancel := callContext(timeout)
		defer cancel()
		err := work(ctx)

		return func() {
			s.obs.CollaboratorCall(op, outcome(err), time.Since(start))
			if err != nil {
				s.log.Warn("collaborator call failed", zap.String("op", op), zap.Error(err))
			}
			if inv.stale() {
				return
			}
			s.inflight--
			then(err)
			s.refreshMode()
			s.changed()
		}
	})
}

// After runs fn on the loop once d has passed, unless the session was reset.
func (inv *Invocation) After(d time.Duration, fn func()) {
	inv.shell.sched.After(d, func() {
		if inv.stale() {
			return
		}
		fn()
		inv.shell.changed()
	})
}

func (inv *Invocation) stale() bool {
	return inv.gen != inv.shell.generation
}

func callContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		var ce *collab.Error
		if errors.As(err, &ce) {
			return "rejected"
		}
		return "error"
	}
}
