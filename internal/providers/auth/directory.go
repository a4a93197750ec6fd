package auth

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastcode/fastshell/internal/shared/utils"
	"github.com/fastcode/fastshell/internal/shell/collab"
)

const issuer = "fastshell"

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenRevoked = errors.New("session token revoked")
)

// Claims holds session token claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// account is a registered user. Fields other than user.ID are guarded by mu.
type account struct {
	mu        sync.Mutex
	user      collab.User
	hash      []byte
	prefs     collab.Preferences
	createdAt time.Time
}

func (a *account) snapshot() *collab.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	u := a.user
	u.Labels = slices.Clone(a.user.Labels)
	return &u
}

// Directory is an in-memory account directory issuing HS256 session tokens.
// It is shared by every shell session of a server.
type Directory struct {
	secret    []byte
	adminPass string
	ttl       time.Duration
	cost      int
	now       func() time.Time

	byEmail sync.Map // lowercased email -> *account
	byID    sync.Map // user ID -> *account
	names   sync.Map // username -> user ID
	revoked sync.Map // token ID -> expiry
}

// Option configures a Directory.
type Option func(*Directory)

// WithTTL sets the session token lifetime.
func WithTTL(d time.Duration) Option { return func(dir *Directory) { dir.ttl = d } }

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option { return func(dir *Directory) { dir.cost = cost } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(dir *Directory) { dir.now = now } }

// NewDirectory creates an empty directory. An empty adminPass disables
// set_admin.
func NewDirectory(secret, adminPass string, opts ...Option) *Directory {
	d := &Directory{
		secret:    []byte(secret),
		adminPass: adminPass,
		ttl:       30 * 24 * time.Hour,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register creates an account. Validation failures are user-facing.
func (d *Directory) Register(ctx context.Context, username, email, password string) (*collab.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := utils.ValidateUsername(username); err != nil {
		return nil, collab.Reject("register", capitalize(err.Error()))
	}
	if err := utils.ValidateEmail(email, true); err != nil {
		return nil, collab.Reject("register", capitalize(err.Error()))
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, collab.Reject("register", capitalize(err.Error()))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return nil, fmt.Errorf("password hashing failed: %w", err)
	}

	acc := &account{
		user:      collab.User{ID: uuid.NewString(), Name: username, Email: email},
		hash:      hash,
		prefs:     collab.Preferences{},
		createdAt: d.now(),
	}
	if _, taken := d.names.LoadOrStore(username, acc.user.ID); taken {
		return nil, collab.Reject("register", "Username already taken")
	}
	if _, exists := d.byEmail.LoadOrStore(strings.ToLower(email), acc); exists {
		d.names.Delete(username)
		return nil, collab.Reject("register", "An account with this email already exists")
	}
	d.byID.Store(acc.user.ID, acc)

	return acc.snapshot(), nil
}

// Authenticate checks credentials and issues a session token.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (string, *collab.User, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	invalid := collab.Reject("login", "Invalid email or password")

	if utils.ValidateEmail(email, true) != nil || utils.ValidatePassword(password) != nil {
		return "", nil, invalid
	}
	acc, ok := d.lookupEmail(email)
	if !ok {
		return "", nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return "", nil, invalid
	}

	user := acc.snapshot()
	token, err := d.issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (d *Directory) issue(user *collab.User) (string, error) {
	now := d.now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (d *Directory) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return d.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(d.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, revoked := d.revoked.Load(claims.ID); revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Verify returns the user a token belongs to.
func (d *Directory) Verify(token string) (*collab.User, *Claims, error) {
	claims, err := d.parse(token)
	if err != nil {
		return nil, nil, err
	}
	acc, ok := d.lookupID(claims.UserID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown user", ErrInvalidToken)
	}
	return acc.snapshot(), claims, nil
}

// Revoke invalidates a token before it expires.
func (d *Directory) Revoke(token string) error {
	claims, err := d.parse(token)
	if err != nil {
		return err
	}
	d.revoked.Store(claims.ID, claims.ExpiresAt.Time)
	d.sweep()
	return nil
}

// sweep forgets revocations of tokens that have expired anyway.
func (d *Directory) sweep() {
	now := d.now()
	d.revoked.Range(func(k, v any) bool {
		if v.(time.Time).Before(now) {
			d.revoked.Delete(k)
		}
		return true
	})
}

// Preferences returns a copy of a user's preferences.
func (d *Directory) Preferences(userID string) (collab.Preferences, error) {
	acc, ok := d.lookupID(userID)
	if !ok {
		return nil, collab.Reject("preferences", "User not found")
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return maps.Clone(acc.prefs), nil
}

// SetPreferences replaces a user's preferences.
func (d *Directory) SetPreferences(userID string, prefs collab.Preferences) error {
	acc, ok := d.lookupID(userID)
	if !ok {
		return collab.Reject("preferences", "User not found")
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	acc.prefs = maps.Clone(prefs)
	if acc.prefs == nil {
		acc.prefs = collab.Preferences{}
	}
	return nil
}

// GrantAdmin adds the admin label to the account with email.
func (d *Directory) GrantAdmin(email, adminPass string) error {
	if d.adminPass == "" || adminPass != d.adminPass {
		return collab.Reject("set_admin", "Invalid admin password")
	}
	acc, ok := d.lookupEmail(email)
	if !ok {
		return collab.Reject("set_admin", "User not found")
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	if !slices.Contains(acc.user.Labels, collab.AdminLabel) {
		acc.user.Labels = append(acc.user.Labels, collab.AdminLabel)
	}
	return nil
}

// Count returns the number of registered accounts.
func (d *Directory) Count() int {
	n := 0
	d.byID.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (d *Directory) lookupEmail(email string) (*account, bool) {
	v, ok := d.byEmail.Load(strings.ToLower(email))
	if !ok {
		return nil, false
	}
	return v.(*account), true
}

func (d *Directory) lookupID(id string) (*account, bool) {
	v, ok := d.byID.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*account), true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
