// Package id generates the prefixed, sortable identifiers used across the shell service.
//
// Every ID is a ULID with a short type prefix (sess_*, ent_*, conn_*), so IDs sort
// by creation time and stay readable in logs. Entropy is monotonic: two IDs minted
// in the same millisecond still compare in creation order, which history entries
// rely on.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies a shell session.
type SessionID string

// EntryID identifies one scrollback entry inside a session's history.
type EntryID string

// ConnID identifies a streaming client connection.
type ConnID string

// RequestID identifies an API request.
type RequestID string

const (
	SessionPrefix = "sess"
	EntryPrefix   = "ent"
	ConnPrefix    = "conn"
	RequestPrefix = "req"
)

// Generator mints ULIDs from a single monotonic entropy source.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Tests pass a deterministic reader.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0)}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// WithPrefix creates a prefixed ULID string.
func (g *Generator) WithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSessionID generates a new session ID.
func NewSessionID() SessionID {
	return SessionID(Default().WithPrefix(SessionPrefix))
}

// NewEntryID generates a new history entry ID.
func NewEntryID() EntryID {
	return EntryID(Default().WithPrefix(EntryPrefix))
}

// NewConnID generates a new connection ID.
func NewConnID() ConnID {
	return ConnID(Default().WithPrefix(ConnPrefix))
}

// NewRequestID generates a new request ID.
func NewRequestID() RequestID {
	return RequestID(Default().WithPrefix(RequestPrefix))
}

func (id SessionID) String() string { return string(id) }
func (id EntryID) String() string   { return string(id) }
func (id ConnID) String() string    { return string(id) }
func (id RequestID) String() string { return string(id) }

// Valid reports whether s is a well-formed prefixed ID carrying the given prefix.
func Valid(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"_")
	if !ok {
		return false
	}
	_, err := ulid.Parse(rest)
	return err == nil
}

// Timestamp extracts the creation time from a prefixed or bare ULID string.
func Timestamp(s string) (time.Time, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
