package terminal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/fastcode/fastshell/internal/infrastructure/logging"
	"github.com/fastcode/fastshell/internal/shared/id"
	"github.com/fastcode/fastshell/internal/shared/types"
	"github.com/fastcode/fastshell/internal/shell"
	"github.com/fastcode/fastshell/internal/shell/collab"
	"github.com/fastcode/fastshell/internal/shell/loop"
)

// Binding is the pair of collaborators one session talks to.
type Binding struct {
	Auth  collab.Auth
	Store collab.ProjectStore
}

// Backend opens the collaborators for a new session. token restores an
// earlier sign-in and may be empty.
type Backend func(token string) Binding

// Observer receives engine outcomes and session lifecycle counts.
// monitoring.Metrics implements it.
type Observer interface {
	shell.Observer
	SessionOpened()
	SessionClosed()
}

type nopObserver struct{}

func (nopObserver) CommandFinished(string, string, time.Duration)  {}
func (nopObserver) AuthorizationDenied(string, string)             {}
func (nopObserver) CollaboratorCall(string, string, time.Duration) {}
func (nopObserver) SessionOpened()                                 {}
func (nopObserver) SessionClosed()                                 {}

// Config configures a Manager.
type Config struct {
	Backend     Backend
	Options     shell.Options
	MaxSessions int
	Logger      *logging.Logger
	Observer    Observer
}

// Manager manages shell sessions
type Manager struct {
	sessions sync.Map // map[id.SessionID]*Session
	count    atomic.Int64

	backend Backend
	opts    shell.Options
	max     int
	log     *logging.Logger
	obs     Observer
}

// NewManager creates a new session manager
func NewManager(cfg Config) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 256
	}
	return &Manager{
		backend: cfg.Backend,
		opts:    cfg.Options,
		max:     cfg.MaxSessions,
		log:     cfg.Logger.Component("terminal"),
		obs:     cfg.Observer,
	}
}

// CreateSession opens a session bound to token's account. With boot set the
// shell loads the user and types its boot command.
func (m *Manager) CreateSession(ctx context.Context, token string, boot bool) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.count.Add(1) > int64(m.max) {
		m.count.Add(-1)
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManySessions, m.max)
	}

	binding := m.backend(token)
	sid := id.NewSessionID()
	sess := &Session{
		ID:        sid,
		CreatedAt: time.Now(),
		loop:      loop.New(),
		auth:      binding.Auth,
		log:       m.log.Session(sid),
		subs:      make(map[int]chan Event),
	}

	sh, err := shell.New(shell.Deps{
		Auth:      binding.Auth,
		Store:     binding.Store,
		Navigator: sess,
		Scheduler: sess.loop,
		Logger:    sess.log,
		Observer:  m.obs,
	}, m.opts)
	if err != nil {
		sess.loop.Close()
		m.count.Add(-1)
		return nil, fmt.Errorf("failed to create shell: %w", err)
	}
	sess.shell = sh

	if err := sess.loop.Do(func() {
		sh.OnChange(sess.onChange)
		if boot {
			sh.Boot()
		}
	}); err != nil {
		sess.loop.Close()
		m.count.Add(-1)
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	m.sessions.Store(sid, sess)
	m.obs.SessionOpened()
	sess.log.Info("session opened", zap.Bool("boot", boot), zap.Bool("restored", token != ""))
	return sess, nil
}

// Get looks up a live session.
func (m *Manager) Get(sessionID string) (*Session, error) {
	if !id.Valid(sessionID, id.SessionPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSessionID, sessionID)
	}
	value, ok := m.sessions.Load(id.SessionID(sessionID))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return value.(*Session), nil
}

// List describes every live session.
func (m *Manager) List() []types.SessionInfo {
	var infos []types.SessionInfo
	m.sessions.Range(func(key, value interface{}) bool {
		info, err := value.(*Session).Info()
		if err == nil {
			infos = append(infos, info)
		}
		return true
	})
	if infos == nil {
		infos = []types.SessionInfo{}
	}
	return infos
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return int(m.count.Load())
}

// Kill terminates a session
func (m *Manager) Kill(sessionID string) error {
	sess, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	m.remove(sess)
	return nil
}

func (m *Manager) remove(sess *Session) {
	m.sessions.Delete(sess.ID)
	if sess.close() {
		m.count.Add(-1)
		m.obs.SessionClosed()
		sess.log.Info("session closed")
	}
}

// CloseAll kills every session.
func (m *Manager) CloseAll() {
	m.sessions.Range(func(key, value interface{}) bool {
		m.remove(value.(*Session))
		return true
	})
}
