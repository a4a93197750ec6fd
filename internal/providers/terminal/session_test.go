package terminal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastcode/fastshell/internal/providers/auth"
	"github.com/fastcode/fastshell/internal/providers/projects"
	"github.com/fastcode/fastshell/internal/shared/types"
	"github.com/fastcode/fastshell/internal/shell"
)

func newTestManager(t *testing.T, max int) (*Manager, *auth.Directory) {
	t.Helper()
	dir := auth.NewDirectory("test-secret", "admin-pass", auth.WithCost(bcrypt.MinCost))
	store := projects.NewMemory()

	opts := shell.DefaultOptions()
	opts.BootDelay = time.Millisecond
	opts.Typing.Interval = time.Millisecond
	opts.Typing.SubmitDelay = time.Millisecond

	m := NewManager(Config{
		Backend: func(token string) Binding {
			return Binding{Auth: dir.Session(token), Store: store}
		},
		Options:     opts,
		MaxSessions: max,
	})
	t.Cleanup(m.CloseAll)
	return m, dir
}

func lastLines(snap shell.Snapshot) []string {
	if len(snap.Entries) == 0 {
		return nil
	}
	var out []string
	for _, l := range snap.Entries[len(snap.Entries)-1].Lines {
		out = append(out, l.Text)
	}
	return out
}

func TestCreateAndSubmit(t *testing.T) {
	m, _ := newTestManager(t, 4)

	sess, err := m.CreateSession(context.Background(), "", false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count())

	snap, err := sess.Submit("ls")
	require.NoError(t, err)
	assert.Contains(t, lastLines(snap), "Developers")

	snap, err = sess.Submit("cd Developers")
	require.NoError(t, err)
	assert.Equal(t, "/Developers", snap.Cwd)

	got, err := m.Get(sess.ID.String())
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestComplete(t *testing.T) {
	m, _ := newTestManager(t, 4)
	sess, err := m.CreateSession(context.Background(), "", false)
	require.NoError(t, err)

	snap, err := sess.Complete("cd Dev")
	require.NoError(t, err)
	assert.Equal(t, "cd Developers", snap.Input)
}

func TestBootTypesCommand(t *testing.T) {
	m, _ := newTestManager(t, 4)
	sess, err := m.CreateSession(context.Background(), "", true)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		snap, err := sess.Snapshot()
		return err == nil && len(snap.Entries) == 1 && snap.Entries[0].Command == "ls"
	}, 3*time.Second, 10*time.Millisecond)
}

func TestLoginSurvivesNewSession(t *testing.T) {
	m, dir := newTestManager(t, 4)
	ctx := context.Background()
	_, err := dir.Register(ctx, "alice", "alice@example.com", "hunter22")
	require.NoError(t, err)

	sess, err := m.CreateSession(ctx, "", false)
	require.NoError(t, err)
	_, err = sess.Submit("login alice@example.com hunter22")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		snap, err := sess.Snapshot()
		return err == nil && snap.User != nil
	}, 3*time.Second, 10*time.Millisecond)
	token := sess.Token()
	require.NotEmpty(t, token)

	restored, err := m.CreateSession(ctx, token, true)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		info, err := restored.Info()
		return err == nil && info.User == "alice"
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSubscribeReceivesSnapshotsAndNavigation(t *testing.T) {
	m, _ := newTestManager(t, 4)
	sess, err := m.CreateSession(context.Background(), "", false)
	require.NoError(t, err)

	events, cancel := sess.Subscribe()
	defer cancel()

	_, err = sess.Submit("exit")
	require.NoError(t, err)

	var sawSnapshot, sawNavigate bool
	timeout := time.After(3 * time.Second)
	for !sawSnapshot || !sawNavigate {
		select {
		case ev := <-events:
			switch ev.Type {
			case EventSnapshot:
				sawSnapshot = true
			case EventNavigate:
				sawNavigate = true
				assert.Equal(t, "/home", ev.Navigation.Path)
			}
		case <-timeout:
			t.Fatal("timed out waiting for events")
		}
	}
	assert.Equal(t, []Navigation{{Path: "/home"}}, sess.Navigations())
}

func TestKill(t *testing.T) {
	m, _ := newTestManager(t, 4)
	sess, err := m.CreateSession(context.Background(), "", false)
	require.NoError(t, err)
	events, cancel := sess.Subscribe()
	defer cancel()

	require.NoError(t, m.Kill(sess.ID.String()))
	assert.Equal(t, 0, m.Count())

	_, err = m.Get(sess.ID.String())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Kill(sess.ID.String()), ErrSessionNotFound)

	_, err = sess.Submit("ls")
	assert.ErrorIs(t, err, ErrSessionClosed)

	ev, ok := <-events
	require.True(t, ok)
	assert.Equal(t, EventClosed, ev.Type)
	_, ok = <-events
	assert.False(t, ok)
}

func TestMaxSessions(t *testing.T) {
	m, _ := newTestManager(t, 1)
	_, err := m.CreateSession(context.Background(), "", false)
	require.NoError(t, err)

	_, err = m.CreateSession(context.Background(), "", false)
	assert.ErrorIs(t, err, ErrTooManySessions)
	assert.Equal(t, 1, m.Count())
}

func TestGetRejectsMalformedID(t *testing.T) {
	m, _ := newTestManager(t, 1)
	_, err := m.Get("not-a-session")
	assert.ErrorIs(t, err, ErrInvalidSessionID)
}

func TestProvider(t *testing.T) {
	m, _ := newTestManager(t, 4)
	p := NewProvider(m)
	ctx := context.Background()

	def := p.Definition()
	assert.Equal(t, "terminal", def.ID)
	assert.Len(t, def.Tools, 9)

	result, err := p.Execute(ctx, "terminal.create_session", map[string]interface{}{"boot": false}, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	sessionID := result.Data["session_id"].(string)

	result, err = p.Execute(ctx, "terminal.submit", map[string]interface{}{"session_id": sessionID, "line": "cat About"}, nil)
	require.NoError(t, err)
	require.True(t, result.Success)
	snap := result.Data["snapshot"].(shell.Snapshot)
	assert.True(t, strings.HasPrefix(lastLines(snap)[0], "fastcode is an AI coding agent"))

	// The caller's own session is used when session_id is absent.
	result, err = p.Execute(ctx, "terminal.history", nil, &types.Context{SessionID: &sessionID})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Data["count"])

	result, err = p.Execute(ctx, "terminal.list_sessions", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Data["count"])

	result, err = p.Execute(ctx, "terminal.kill", map[string]interface{}{"session_id": sessionID}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	result, err = p.Execute(ctx, "terminal.get_session", map[string]interface{}{"session_id": sessionID}, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)

	result, err = p.Execute(ctx, "terminal.submit", map[string]interface{}{"session_id": "x", "line": "ls"}, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
}
