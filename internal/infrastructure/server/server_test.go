package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastcode/fastshell/internal/infrastructure/config"
	"github.com/fastcode/fastshell/internal/infrastructure/logging"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	srv, err := NewServer(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestShellOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Shell.BootCommand = "help"
	cfg.Shell.TypingInterval = 5 * time.Millisecond

	opts, err := ShellOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, "help", opts.BootCommand)
	assert.Equal(t, 5*time.Millisecond, opts.Typing.Interval)
	assert.Contains(t, opts.Programs, "wopr")
	assert.Nil(t, opts.Tree)
}

func TestShellOptionsTreeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: root\npermissions: \"755\"\nfiles:\n  - name: readme\n    content: hi\n    permissions: \"644\"\n"), 0o644))

	cfg := config.Default()
	cfg.Shell.TreeFile = path
	opts, err := ShellOptions(cfg)
	require.NoError(t, err)
	require.NotNil(t, opts.Tree)

	cfg.Shell.TreeFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = ShellOptions(cfg)
	assert.Error(t, err)
}

func TestMemoryBackendRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	h := srv.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "memory", health["backend"])

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/services", nil))
	require.Equal(t, http.StatusOK, w.Code)
	for _, svc := range []string{`"auth"`, `"projects"`, `"terminal"`} {
		assert.Contains(t, w.Body.String(), svc)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"boot":false}`)))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fastshell_sessions_active 1")
}

func TestRemoteBackendSkipsLocalServices(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Backend.Mode = config.BackendRemote
		cfg.Backend.URL = "http://127.0.0.1:1"
	})

	stats := srv.registry.Stats()
	assert.Equal(t, 1, stats["total_services"])
}
