package command

import (
	"errors"
	"fmt"

	"github.com/fastcode/fastshell/internal/shell/collab"
)

// Level is the minimum standing needed to run a command.
type Level int

const (
	Public Level = iota
	Authenticated
	Admin
)

func (l Level) String() string {
	switch l {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrNotAdmin    = errors.New("not an admin")
)

// Authorize checks user against level. A nil user is anonymous.
//
//	level         anonymous       authenticated   admin
//	public        allow           allow           allow
//	authenticated ErrNotLoggedIn  allow           allow
//	admin         ErrNotAdmin     ErrNotAdmin     allow
func Authorize(level Level, user *collab.User) error {
	switch level {
	case Public:
		return nil
	case Authenticated:
		if user == nil {
			return ErrNotLoggedIn
		}
		return nil
	case Admin:
		if !user.IsAdmin() {
			return ErrNotAdmin
		}
		return nil
	default:
		return fmt.Errorf("unknown authorization level %d", int(level))
	}
}
