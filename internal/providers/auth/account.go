package auth

import (
	"context"
	"sync"

	"github.com/fastcode/fastshell/internal/shell/collab"
)

// Account is the collab.Auth of one shell session: a directory plus the
// session token currently signed in, if any.
type Account struct {
	dir *Directory

	mu    sync.Mutex
	token string
}

var _ collab.Auth = (*Account)(nil)

// Session binds a new Account to dir. token may be empty for an anonymous
// session or carry a token from an earlier login.
func (d *Directory) Session(token string) *Account {
	return &Account{dir: d, token: token}
}

// Token returns the session token, empty when anonymous.
func (a *Account) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *Account) setToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

// CurrentUser resolves the token. An expired or revoked token signs the
// session out instead of failing.
func (a *Account) CurrentUser(ctx context.Context) (*collab.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	token := a.Token()
	if token == "" {
		return nil, nil
	}
	user, _, err := a.dir.Verify(token)
	if err != nil {
		a.setToken("")
		return nil, nil
	}
	return user, nil
}

func (a *Account) Login(ctx context.Context, email, password string) error {
	token, _, err := a.dir.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	if old := a.Token(); old != "" {
		_ = a.dir.Revoke(old)
	}
	a.setToken(token)
	return nil
}

func (a *Account) Register(ctx context.Context, username, email, password string) error {
	_, err := a.dir.Register(ctx, username, email, password)
	return err
}

func (a *Account) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	token := a.Token()
	if token == "" {
		return collab.Reject("logout", "Not logged in")
	}
	a.setToken("")
	// A token that no longer parses is already unusable.
	_ = a.dir.Revoke(token)
	return nil
}

func (a *Account) Preferences(ctx context.Context) (collab.Preferences, error) {
	user, err := a.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return collab.Preferences{}, nil
	}
	return a.dir.Preferences(user.ID)
}

func (a *Account) SetPreferences(ctx context.Context, prefs collab.Preferences) error {
	user, err := a.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return collab.Reject("preferences", "Not logged in")
	}
	return a.dir.SetPreferences(user.ID, prefs)
}

func (a *Account) SetAdmin(ctx context.Context, email, adminPass string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.dir.GrantAdmin(email, adminPass)
}
