package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastcode/fastshell/internal/shell/collab"
)

const adminPass = "letmein"

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newDirectory(t *testing.T, opts ...Option) *Directory {
	t.Helper()
	return NewDirectory("test-secret", adminPass, append([]Option{WithCost(bcrypt.MinCost)}, opts...)...)
}

func TestRegisterAndLogin(t *testing.T) {
	dir := newDirectory(t)
	ctx := context.Background()

	user, err := dir.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, 1, dir.Count())

	token, logged, err := dir.Authenticate(ctx, "ALICE@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	verified, claims, err := dir.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", verified.Name)
	assert.Equal(t, "fastshell", claims.Issuer)
}

func TestRegisterRejections(t *testing.T) {
	dir := newDirectory(t)
	ctx := context.Background()
	_, err := dir.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	tests := []struct {
		name, username, email, password, message string
	}{
		{"duplicate email", "alice2", "Alice@example.com", "secret123", "An account with this email already exists"},
		{"duplicate username", "alice", "other@example.com", "secret123", "Username already taken"},
		{"bad email", "bob", "bob@", "secret123", "Invalid email format"},
		{"short password", "bob", "bob@example.com", "short", "Password must be at least 8 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := dir.Register(ctx, tt.username, tt.email, tt.password)
			msg, ok := collab.Message(err)
			require.True(t, ok, "expected a user-facing error, got %v", err)
			assert.Equal(t, tt.message, msg)
		})
	}
	assert.Equal(t, 1, dir.Count())
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	dir := newDirectory(t)
	ctx := context.Background()
	_, err := dir.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	for _, pw := range []string{"wrongpass1", ""} {
		_, _, err := dir.Authenticate(ctx, "alice@example.com", pw)
		msg, _ := collab.Message(err)
		assert.Equal(t, "Invalid email or password", msg)
	}
	_, _, err = dir.Authenticate(ctx, "nobody@example.com", "secret123")
	assert.Error(t, err)
}

func TestTokenExpiryAndRevocation(t *testing.T) {
	clk := &clock{now: time.Now()}
	dir := newDirectory(t, WithTTL(time.Hour), WithClock(clk.Now))
	ctx := context.Background()
	_, err := dir.Register(ctx, "alice", "alice@example.com", "secret123")
	require.NoError(t, err)

	token, _, err := dir.Authenticate(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, dir.Revoke(token))
	_, _, err = dir.Verify(token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	token, _, err = dir.Authenticate(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	clk.now = clk.now.Add(2 * time.Hour)
	_, _, err = dir.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = NewDirectory("other-secret", "").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccountImplementsSessionAuth(t *testing.T) {
	dir := newDirectory(t)
	ctx := context.Background()
	acct := dir.Session("")

	user, err := acct.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	prefs, err := acct.Preferences(ctx)
	require.NoError(t, err)
	assert.Empty(t, prefs)

	require.NoError(t, acct.Register(ctx, "alice", "alice@example.com", "secret123"))
	require.NoError(t, acct.Login(ctx, "alice@example.com", "secret123"))

	user, err = acct.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.DisplayName())

	require.NoError(t, acct.SetPreferences(ctx, collab.Preferences{"providerKeys": `{"OpenAI":"sk"}`}))
	prefs, err = acct.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"OpenAI":"sk"}`, prefs["providerKeys"])

	// A second session restored from the token sees the same account.
	restored := dir.Session(acct.Token())
	other, err := restored.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, other.ID)

	require.NoError(t, acct.Logout(ctx))
	user, err = acct.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)

	other, err = restored.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, other, "logout revokes the token everywhere")
	assert.Empty(t, restored.Token())

	err = acct.Logout(ctx)
	msg, _ := collab.Message(err)
	assert.Equal(t, "Not logged in", msg)
}

func TestSetAdmin(t *testing.T) {
	dir := newDirectory(t)
	ctx := context.Background()
	acct := dir.Session("")
	require.NoError(t, acct.Register(ctx, "alice", "alice@example.com", "secret123"))
	require.NoError(t, acct.Login(ctx, "alice@example.com", "secret123"))

	err := acct.SetAdmin(ctx, "alice@example.com", "guess")
	msg, _ := collab.Message(err)
	assert.Equal(t, "Invalid admin password", msg)

	err = acct.SetAdmin(ctx, "ghost@example.com", adminPass)
	msg, _ = collab.Message(err)
	assert.Equal(t, "User not found", msg)

	require.NoError(t, acct.SetAdmin(ctx, "alice@example.com", adminPass))
	require.NoError(t, acct.SetAdmin(ctx, "alice@example.com", adminPass))

	user, err := acct.CurrentUser(ctx)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
	assert.Equal(t, []string{collab.AdminLabel}, user.Labels)

	err = NewDirectory("s", "").Session("").SetAdmin(ctx, "alice@example.com", "")
	assert.Error(t, err)
}

func TestProviderTools(t *testing.T) {
	p := NewProvider(newDirectory(t))
	ctx := context.Background()

	assert.Equal(t, "auth", p.Definition().ID)
	assert.Len(t, p.Definition().Tools, 5)

	res, err := p.Execute(ctx, "auth.register", map[string]interface{}{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	}, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.NotEmpty(t, res.Data["user_id"])

	res, err = p.Execute(ctx, "auth.login", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "wrongpass1",
	}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid email or password", *res.Error)

	res, err = p.Execute(ctx, "auth.login", map[string]interface{}{
		"email":    "alice@example.com",
		"password": "secret123",
	}, nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	token := res.Data["token"].(string)

	res, err = p.Execute(ctx, "auth.verify", map[string]interface{}{"token": token}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, res.Data["valid"])

	res, err = p.Execute(ctx, "auth.getUser", map[string]interface{}{"token": token}, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Data["username"])

	res, err = p.Execute(ctx, "auth.logout", map[string]interface{}{"token": token}, nil)
	require.NoError(t, err)
	assert.True(t, res.Success)

	res, err = p.Execute(ctx, "auth.verify", map[string]interface{}{"token": token}, nil)
	require.NoError(t, err)
	assert.Equal(t, false, res.Data["valid"])

	res, err = p.Execute(ctx, "auth.nope", nil, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
}
