package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrCircuitOpen is returned without calling through while the breaker
	// is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when the half-open probe budget is spent.
	ErrTooManyRequests = errors.New("too many requests")
)

// State is where the breaker sits in its closed → open → half-open cycle.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateHalfOpen: "half-open",
	StateOpen:     "open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Settings tunes a Breaker. Zero values get defaults in New.
type Settings struct {
	// MaxRequests is both the number of probes admitted while half-open and
	// the number of successes that close the breaker again.
	MaxRequests uint32
	// Interval clears the closed-state counts periodically.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// ReadyToTrip decides, after each counted failure while closed, whether
	// to open.
	ReadyToTrip func(counts Counts) bool
	// IsFailure decides whether an error counts against the backend. Errors
	// that only reject the caller's input should return false. Nil counts
	// every non-nil error.
	IsFailure     func(err error) bool
	OnStateChange func(name string, from State, to State)
	// Now replaces time.Now in tests.
	Now func() time.Time
}

func (s *Settings) fill() {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	if s.Timeout <= 0 {
		s.Timeout = time.Minute
	}
	if s.ReadyToTrip == nil {
		s.ReadyToTrip = func(c Counts) bool { return c.ConsecutiveFailures > 5 }
	}
	if s.IsFailure == nil {
		s.IsFailure = func(err error) bool { return err != nil }
	}
	if s.Now == nil {
		s.Now = time.Now
	}
}

// Counts are reset on every state change and, while closed, every Interval.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Breaker guards calls to one backend.
type Breaker struct {
	name string
	cfg  Settings

	mu     sync.Mutex
	state  State
	counts Counts

	// gen changes on every reset so late results from an earlier period are
	// ignored.
	gen      uint64
	deadline time.Time
}

// New returns a closed breaker.
func New(name string, settings Settings) *Breaker {
	settings.fill()
	b := &Breaker{name: name, cfg: settings}
	b.deadline = settings.Now().Add(settings.Interval)
	return b
}

func (b *Breaker) Name() string { return b.name }

// State reports the state as of now, applying any due transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tick(b.cfg.Now())
	return b.state
}

// Counts returns a copy of the current period's counts.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Do runs fn if the breaker admits it. A context that is already done is
// reported without touching the counts. A panic in fn counts as a failure.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gen, err := b.admit()
	if err != nil {
		return err
	}

	ok := false
	defer func() {
		if !ok {
			b.settle(gen, false)
		}
	}()

	err = fn(ctx)
	ok = true
	b.settle(gen, !b.cfg.IsFailure(err))
	return err
}

// Call runs fn through b and returns its value.
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := b.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tick(b.cfg.Now())
	switch {
	case b.state == StateOpen:
		return 0, ErrCircuitOpen
	case b.state == StateHalfOpen && b.counts.Requests >= b.cfg.MaxRequests:
		return 0, ErrTooManyRequests
	}
	b.counts.Requests++
	return b.gen, nil
}

func (b *Breaker) settle(gen uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.cfg.Now()
	b.tick(now)
	if gen != b.gen {
		return
	}

	switch {
	case success:
		b.counts.success()
		if b.state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.cfg.MaxRequests {
			b.moveTo(StateClosed, now)
		}
	case b.state == StateHalfOpen:
		b.moveTo(StateOpen, now)
	case b.state == StateClosed:
		b.counts.failure()
		if b.cfg.ReadyToTrip(b.counts) {
			b.moveTo(StateOpen, now)
		}
	}
}

// tick applies time-driven transitions: the closed-state count window and
// the open-state timeout.
func (b *Breaker) tick(now time.Time) {
	switch b.state {
	case StateClosed:
		if now.After(b.deadline) {
			b.reset(now.Add(b.cfg.Interval))
		}
	case StateOpen:
		if now.After(b.deadline) {
			b.moveTo(StateHalfOpen, now)
		}
	}
}

func (b *Breaker) reset(deadline time.Time) {
	b.counts = Counts{}
	b.gen++
	b.deadline = deadline
}

func (b *Breaker) moveTo(to State, now time.Time) {
	from := b.state
	if from == to {
		return
	}
	b.state = to

	switch to {
	case StateClosed:
		b.reset(now.Add(b.cfg.Interval))
	case StateOpen:
		b.reset(now.Add(b.cfg.Timeout))
	case StateHalfOpen:
		b.reset(time.Time{})
	}

	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, to)
	}
}
