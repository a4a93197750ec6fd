// Package collab declares the services a shell session talks to but does not
// own: accounts, projects and tags, and the navigation sink of the hosting UI.
//
// Implementations live under internal/providers. Errors meant for the person at
// the prompt are returned as *Error; anything else is treated as an internal
// failure and rendered generically.
package collab

import (
	"context"
	"errors"
	"slices"
)

// AdminLabel marks a user as an administrator.
const AdminLabel = "admin"

// User is the authenticated account behind a session.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Labels []string `json:"labels,omitempty"`
}

// IsAdmin reports whether u carries the admin label. A nil user is never admin.
func (u *User) IsAdmin() bool {
	return u != nil && slices.Contains(u.Labels, AdminLabel)
}

// DisplayName prefers the account name and falls back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Project is a generated code project owned by a user. Tags is filled by
// ListProjects and ignored by CreateProject.
type Project struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	RepositoryName string   `json:"repository_name"`
	UserID         string   `json:"user_id"`
	Tags           []string `json:"tags,omitempty"`
}

// Tag labels projects. UserCanUse tags may be applied by non-admins.
type Tag struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	UserCanUse bool   `json:"user_can_use"`
}

// Preferences is a user's flat key/value preference document.
type Preferences map[string]string

// Auth manages the account bound to one shell session.
type Auth interface {
	// CurrentUser returns nil without error for an anonymous session.
	CurrentUser(ctx context.Context) (*User, error)
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, username, email, password string) error
	Logout(ctx context.Context) error
	Preferences(ctx context.Context) (Preferences, error)
	SetPreferences(ctx context.Context, prefs Preferences) error
	// SetAdmin grants the admin label to the account with email when
	// adminPass matches the deployment's admin secret.
	SetAdmin(ctx context.Context, email, adminPass string) error
}

// ProjectStore persists projects and tags.
type ProjectStore interface {
	ListProjects(ctx context.Context, userID string) ([]Project, error)
	CreateProject(ctx context.Context, p Project) (Project, error)
	ListTags(ctx context.Context) ([]Tag, error)
	CreateTag(ctx context.Context, name string, userCanUse bool) (Tag, error)
	TagProject(ctx context.Context, projectID, tagName string) error
}

// NavigateOptions modifies a navigation request.
type NavigateOptions struct {
	Replace bool `json:"replace"`
	Reload  bool `json:"reload"`
}

// Navigator receives route changes requested by commands.
type Navigator interface {
	Navigate(path string, opts NavigateOptions)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string, opts NavigateOptions)

func (f NavigatorFunc) Navigate(path string, opts NavigateOptions) { f(path, opts) }

// Error is a failure whose message is safe and useful to show the user.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Reject builds a user-facing error.
func Reject(op, message string) *Error {
	return &Error{Op: op, Message: message}
}

// Message extracts the user-facing message from err, if it carries one.
func Message(err error) (string, bool) {
	var ce *Error
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message, true
	}
	return "", false
}
