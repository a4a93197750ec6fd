// Package collabtest provides testify mocks of the shell's collaborators.
package collabtest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/fastcode/fastshell/internal/shell/collab"
)

// MockAuth is a mock implementation of collab.Auth.
type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) CurrentUser(ctx context.Context) (*collab.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*collab.User), args.Error(1)
}

func (m *MockAuth) Login(ctx context.Context, email, password string) error {
	return m.Called(ctx, email, password).Error(0)
}

func (m *MockAuth) Register(ctx context.Context, username, email, password string) error {
	return m.Called(ctx, username, email, password).Error(0)
}

func (m *MockAuth) Logout(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAuth) Preferences(ctx context.Context) (collab.Preferences, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(collab.Preferences), args.Error(1)
}

func (m *MockAuth) SetPreferences(ctx context.Context, prefs collab.Preferences) error {
	return m.Called(ctx, prefs).Error(0)
}

func (m *MockAuth) SetAdmin(ctx context.Context, email, adminPass string) error {
	return m.Called(ctx, email, adminPass).Error(0)
}

// NewMockAuth creates an auth mock for a session signed in as user, or an
// anonymous one when user is nil.
func NewMockAuth(t *testing.T, user *collab.User) *MockAuth {
	t.Helper()
	m := new(MockAuth)

	m.On("CurrentUser", mock.Anything).Return(user, nil).Maybe()
	m.On("Preferences", mock.Anything).Return(collab.Preferences{}, nil).Maybe()
	m.On("SetPreferences", mock.Anything, mock.Anything).Return(nil).Maybe()

	return m
}

// MockStore is a mock implementation of collab.ProjectStore.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListProjects(ctx context.Context, userID string) ([]collab.Project, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collab.Project), args.Error(1)
}

func (m *MockStore) CreateProject(ctx context.Context, p collab.Project) (collab.Project, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(collab.Project), args.Error(1)
}

func (m *MockStore) ListTags(ctx context.Context) ([]collab.Tag, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]collab.Tag), args.Error(1)
}

func (m *MockStore) CreateTag(ctx context.Context, name string, userCanUse bool) (collab.Tag, error) {
	args := m.Called(ctx, name, userCanUse)
	return args.Get(0).(collab.Tag), args.Error(1)
}

func (m *MockStore) TagProject(ctx context.Context, projectID, tagName string) error {
	return m.Called(ctx, projectID, tagName).Error(0)
}

// Navigation is one recorded Navigate call.
type Navigation struct {
	Path string
	Opts collab.NavigateOptions
}

// Navigator records navigation requests.
type Navigator struct {
	mu    sync.Mutex
	calls []Navigation
}

func (n *Navigator) Navigate(path string, opts collab.NavigateOptions) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, Navigation{Path: path, Opts: opts})
}

// Calls returns the recorded navigations in order.
func (n *Navigator) Calls() []Navigation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Navigation(nil), n.calls...)
}
