package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fastcode/fastshell/internal/shared/id"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.ErrorContains(t, err, `log level "chatty"`)
}

func TestNewWritesToOutputPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shell.log")
	l, err := New(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)

	l.Component("terminal").Session(id.SessionID("sess_1")).Info("session opened")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"logger":"terminal"`)
	assert.Contains(t, string(data), `"session":"sess_1"`)
	assert.Contains(t, string(data), `"message":"session opened"`)
}

func TestNewHonoursLevel(t *testing.T) {
	l, err := New(Config{Level: "warn", Development: true})
	require.NoError(t, err)

	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNopAndChildren(t *testing.T) {
	l := Nop()
	assert.NotNil(t, l.Session(id.SessionID("sess_1")))
	assert.NotNil(t, l.Component("terminal").Logger)
	assert.NotNil(t, NewDefault())
}
