package remote

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/fastcode/fastshell/internal/shell/collab"
)

// Account is the collab.Auth of one shell session against the remote API.
type Account struct {
	c *Client

	mu    sync.Mutex
	token string
}

var _ collab.Auth = (*Account)(nil)

// Session binds an Account to c, optionally restoring an earlier token.
func (c *Client) Session(token string) *Account {
	return &Account{c: c, token: token}
}

// Token returns the current session token.
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

type userBody struct {
	User *collab.User `json:"user"`
}

func (a *Account) CurrentUser(ctx context.Context) (*collab.User, error) {
	token := a.Token()
	if token == "" {
		return nil, nil
	}
	var out userBody
	err := a.c.do(ctx, call{op: "current_user", method: http.MethodGet, path: "/api/account", token: token, out: &out})
	if errors.Is(err, ErrUnauthorized) {
		a.setToken("")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.User, nil
}

func (a *Account) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	err := a.c.do(ctx, call{
		op:     "login",
		method: http.MethodPost,
		path:   "/api/account/sessions",
		body:   map[string]string{"email": email, "password": password},
		out:    &out,
	})
	if errors.Is(err, ErrUnauthorized) {
		return collab.Reject("login", "Invalid email or password")
	}
	if err != nil {
		return err
	}
	if out.Token == "" {
		return errors.New("login: response carried no token")
	}
	a.setToken(out.Token)
	return nil
}

func (a *Account) Register(ctx context.Context, username, email, password string) error {
	return a.c.do(ctx, call{
		op:     "register",
		method: http.MethodPost,
		path:   "/api/register",
		body:   map[string]string{"username": username, "email": email, "password": password},
	})
}

func (a *Account) Logout(ctx context.Context) error {
	token := a.Token()
	if token == "" {
		return collab.Reject("logout", "Not logged in")
	}
	err := a.c.do(ctx, call{op: "logout", method: http.MethodDelete, path: "/api/account/sessions/current", token: token})
	if err != nil && !errors.Is(err, ErrUnauthorized) {
		return err
	}
	a.setToken("")
	return nil
}

type prefsBody struct {
	Prefs collab.Preferences `json:"prefs"`
}

func (a *Account) Preferences(ctx context.Context) (collab.Preferences, error) {
	token := a.Token()
	if token == "" {
		return collab.Preferences{}, nil
	}
	var out prefsBody
	if err := a.c.do(ctx, call{op: "preferences", method: http.MethodGet, path: "/api/account/prefs", token: token, out: &out}); err != nil {
		return nil, err
	}
	if out.Prefs == nil {
		out.Prefs = collab.Preferences{}
	}
	return out.Prefs, nil
}

func (a *Account) SetPreferences(ctx context.Context, prefs collab.Preferences) error {
	return a.c.do(ctx, call{
		op:     "set_preferences",
		method: http.MethodPut,
		path:   "/api/account/prefs",
		token:  a.Token(),
		body:   prefsBody{Prefs: prefs},
	})
}

func (a *Account) SetAdmin(ctx context.Context, email, adminPass string) error {
	return a.c.do(ctx, call{
		op:     "set_admin",
		method: http.MethodPost,
		path:   "/api/set_admin",
		token:  a.Token(),
		body:   map[string]string{"email": email, "admin_pass": adminPass},
	})
}
