package shell

import (
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/fastcode/fastshell/internal/shell/collab"
	"github.com/fastcode/fastshell/internal/shell/command"
	"github.com/fastcode/fastshell/internal/shell/history"
)

// ErrorKind classifies command failures. None of them end the session.
type ErrorKind int

const (
	UserInputError ErrorKind = iota
	NotFoundError
	AuthorizationError
	CollaboratorError
)

func (k ErrorKind) String() string {
	switch k {
	case UserInputError:
		return "user_input"
	case NotFoundError:
		return "not_found"
	case AuthorizationError:
		return "authorization"
	case CollaboratorError:
		return "collaborator"
	default:
		return "unknown"
	}
}

// Error is a failed command, carrying what to print about it.
type Error struct {
	Kind  ErrorKind
	Op    string
	Msg   string
	Extra []history.Line
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func usageError(op, msg string, extra ...history.Line) *Error {
	return &Error{Kind: UserInputError, Op: op, Msg: msg, Extra: extra}
}

func notFound(op, msg string, extra ...history.Line) *Error {
	return &Error{Kind: NotFoundError, Op: op, Msg: msg, Extra: extra}
}

func collaboratorError(op, fallback string, err error) *Error {
	return &Error{Kind: CollaboratorError, Op: op, Msg: fallback, Err: err}
}

const genericFailure = "Something went wrong. Please try again."

// Kind reports the classification of err, defaulting to CollaboratorError for
// anything that did not originate in the shell.
func Kind(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, command.ErrNotLoggedIn) || errors.Is(err, command.ErrNotAdmin) {
		return AuthorizationError
	}
	return CollaboratorError
}

type renderer struct {
	policy *bluemonday.Policy
}

func newRenderer() renderer {
	return renderer{policy: bluemonday.StrictPolicy()}
}

// lines turns err into output. Collaborator messages are stripped of markup
// before they are shown.
func (r renderer) lines(err error) []history.Line {
	switch {
	case errors.Is(err, command.ErrNotLoggedIn):
		return []history.Line{
			history.Error("Not logged in"),
			history.Link("login - log in to your account", "login"),
		}
	case errors.Is(err, command.ErrNotAdmin):
		return []history.Line{history.Error("Not an admin")}
	}

	var se *Error
	if errors.As(err, &se) {
		msg := se.Msg
		if se.Kind == CollaboratorError {
			if m, ok := collab.Message(se.Err); ok {
				msg = r.policy.Sanitize(m)
			}
			if msg == "" {
				msg = genericFailure
			}
		}
		return append([]history.Line{history.Error(msg)}, se.Extra...)
	}

	if m, ok := collab.Message(err); ok {
		return []history.Line{history.Error(r.policy.Sanitize(m))}
	}
	return []history.Line{history.Error(genericFailure)}
}
