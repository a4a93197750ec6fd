package terminal

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastcode/fastshell/internal/shared/id"
	"github.com/fastcode/fastshell/internal/shared/types"
	"github.com/fastcode/fastshell/internal/shell"
	"github.com/fastcode/fastshell/internal/shell/collab"
	"github.com/fastcode/fastshell/internal/shell/history"
	"github.com/fastcode/fastshell/internal/shell/loop"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionClosed    = errors.New("session is closed")
	ErrTooManySessions  = errors.New("too many sessions")
	ErrInvalidSessionID = errors.New("invalid session id")
)

// EventType names what an Event carries.
type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventNavigate EventType = "navigate"
	EventClosed   EventType = "closed"
)

// Navigation is a page change the shell asked the surrounding UI for.
type Navigation struct {
	Path    string `json:"path"`
	Replace bool   `json:"replace"`
	Reload  bool   `json:"reload"`
}

// Event is pushed to subscribers.
type Event struct {
	Type       EventType       `json:"type"`
	Snapshot   *shell.Snapshot `json:"snapshot,omitempty"`
	Navigation *Navigation     `json:"navigation,omitempty"`
}

// subscriberBuffer bounds how far a slow subscriber may fall behind before
// events are dropped.
const subscriberBuffer = 32

// tokenHolder is implemented by account bindings that can hand their session
// token back to clients.
type tokenHolder interface {
	Token() string
}

// Session is one live shell.
type Session struct {
	ID        id.SessionID
	CreatedAt time.Time

	loop  *loop.EventLoop
	shell *shell.Shell
	auth  collab.Auth
	log   *zap.Logger

	mu          sync.Mutex
	subs        map[int]chan Event
	nextSub     int
	navigations []Navigation
	closed      bool
}

// do runs fn on the session loop and returns the snapshot taken right after.
func (s *Session) do(fn func(sh *shell.Shell)) (shell.Snapshot, error) {
	if s.isClosed() {
		return shell.Snapshot{}, ErrSessionClosed
	}
	var snap shell.Snapshot
	err := s.loop.Do(func() {
		if fn != nil {
			fn(s.shell)
		}
		snap = s.shell.Snapshot()
	})
	if err != nil {
		return shell.Snapshot{}, ErrSessionClosed
	}
	return snap, nil
}

// Snapshot returns the session's visible state.
func (s *Session) Snapshot() (shell.Snapshot, error) {
	return s.do(nil)
}

// Submit runs line. Asynchronous output arrives through later snapshots.
func (s *Session) Submit(line string) (shell.Snapshot, error) {
	return s.do(func(sh *shell.Shell) { sh.Submit(line) })
}

// SetInput replaces the prompt contents.
func (s *Session) SetInput(text string) (shell.Snapshot, error) {
	return s.do(func(sh *shell.Shell) { sh.SetInput(text) })
}

// Complete puts input on the prompt and completes it.
func (s *Session) Complete(input string) (shell.Snapshot, error) {
	return s.do(func(sh *shell.Shell) {
		sh.SetInput(input)
		sh.Complete()
	})
}

// Type animates text into the prompt.
func (s *Session) Type(text string, suppress bool) (shell.Snapshot, error) {
	return s.do(func(sh *shell.Shell) { sh.Type(text, suppress) })
}

// Activate performs a line's action.
func (s *Session) Activate(a history.Action) (shell.Snapshot, error) {
	return s.do(func(sh *shell.Shell) { sh.Activate(a) })
}

// Hover sets the hint for the item under the pointer.
func (s *Session) Hover(text string) (shell.Snapshot, error) {
	return s.do(func(sh *shell.Shell) { sh.Hover(text) })
}

// Interrupt stops a running program, typing or composing.
func (s *Session) Interrupt() (shell.Snapshot, error) {
	return s.do(func(sh *shell.Shell) { sh.Interrupt() })
}

// Token returns the signed-in account's token, empty when anonymous.
func (s *Session) Token() string {
	if th, ok := s.auth.(tokenHolder); ok {
		return th.Token()
	}
	return ""
}

// Navigations returns every navigation the shell requested, oldest first.
func (s *Session) Navigations() []Navigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Navigation, len(s.navigations))
	copy(out, s.navigations)
	return out
}

// Info summarizes the session.
func (s *Session) Info() (types.SessionInfo, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return types.SessionInfo{}, err
	}
	info := types.SessionInfo{
		ID:        s.ID.String(),
		Cwd:       snap.Cwd,
		State:     string(snap.State),
		Entries:   len(snap.Entries),
		CreatedAt: s.CreatedAt,
	}
	if snap.User != nil {
		info.User = snap.User.DisplayName()
	}
	return info, nil
}

// Subscribe returns a channel receiving the session's events until cancel is
// called or the session closes.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	key := s.nextSub
	s.nextSub++
	s.subs[key] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[key]; ok {
				delete(s.subs, key)
				close(c)
			}
		})
	}
}

func (s *Session) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn("dropping event for slow subscriber",
				zap.Int("subscriber", key),
				zap.String("event", string(ev.Type)))
		}
	}
}

// onChange runs on the loop.
func (s *Session) onChange() {
	snap := s.shell.Snapshot()
	s.publish(Event{Type: EventSnapshot, Snapshot: &snap})
}

// Navigate implements collab.Navigator. It runs on the loop.
func (s *Session) Navigate(path string, opts collab.NavigateOptions) {
	nav := Navigation{Path: path, Replace: opts.Replace, Reload: opts.Reload}
	s.mu.Lock()
	s.navigations = append(s.navigations, nav)
	s.mu.Unlock()
	s.log.Debug("navigate", zap.String("path", path), zap.Bool("reload", opts.Reload))
	s.publish(Event{Type: EventNavigate, Navigation: &nav})
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// close stops the loop and ends every subscription. It reports false if the
// session was already closed.
func (s *Session) close() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.closed = true
	for key, ch := range s.subs {
		select {
		case ch <- Event{Type: EventClosed}:
		default:
		}
		close(ch)
		delete(s.subs, key)
	}
	s.mu.Unlock()

	s.loop.Close()
	return true
}
