// Package animator reveals a command in the prompt one character at a time
// before submitting it, the way a clicked shortcut appears to be typed.
package animator

import (
	"math/rand/v2"
	"time"

	"github.com/fastcode/fastshell/internal/shell/loop"
)

// Options controls typing speed.
type Options struct {
	// Interval is the base delay before each character appears.
	Interval time.Duration
	// SpaceFactor multiplies Interval for space characters.
	SpaceFactor int
	// SubmitDelay is the pause between the last character and submission.
	SubmitDelay time.Duration
	// Jitter returns a value in [0,1) added to each delay as a fraction of
	// Interval. Nil means no jitter.
	Jitter func() float64
}

// DefaultOptions matches a relaxed human typing pace.
func DefaultOptions() Options {
	return Options{
		Interval:    30 * time.Millisecond,
		SpaceFactor: 4,
		SubmitDelay: 240 * time.Millisecond,
		Jitter:      rand.Float64,
	}
}

// Animator types into a prompt through callbacks. It runs entirely on the
// session's scheduler.
type Animator struct {
	sched    loop.Scheduler
	opts     Options
	onInput  func(string)
	onSubmit func(string)

	generation uint64
	pending    loop.Timer
	active     bool
}

// New creates an animator. onInput receives every partial reveal; onSubmit
// receives the full text when typing finishes and submission is wanted.
func New(sched loop.Scheduler, opts Options, onInput, onSubmit func(string)) *Animator {
	if opts.SpaceFactor < 1 {
		opts.SpaceFactor = 1
	}
	return &Animator{
		sched:    sched,
		opts:     opts,
		onInput:  onInput,
		onSubmit: onSubmit,
	}
}

// Type clears the prompt and reveals text. Unless suppress is set, the text
// is submitted once fully shown. Any animation already running is abandoned.
func (a *Animator) Type(text string, suppress bool) {
	a.Cancel()
	a.active = true
	gen := a.generation

	a.onInput("")
	runes := []rune(text)
	if len(runes) == 0 {
		a.finish(gen, text, suppress)
		return
	}
	a.reveal(gen, runes, 0, suppress)
}

// Cancel abandons the running animation, leaving the prompt as it is.
func (a *Animator) Cancel() {
	a.generation++
	a.active = false
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
}

// Active reports whether an animation is in flight.
func (a *Animator) Active() bool { return a.active }

func (a *Animator) reveal(gen uint64, runes []rune, i int, suppress bool) {
	a.pending = a.sched.After(a.delay(runes[i]), func() {
		if gen != a.generation {
			return
		}
		a.onInput(string(runes[:i+1]))
		if i+1 < len(runes) {
			a.reveal(gen, runes, i+1, suppress)
			return
		}
		a.finish(gen, string(runes), suppress)
	})
}

func (a *Animator) finish(gen uint64, text string, suppress bool) {
	a.pending = a.sched.After(a.opts.SubmitDelay, func() {
		if gen != a.generation {
			return
		}
		a.active = false
		a.pending = nil
		if !suppress {
			a.onSubmit(text)
		}
	})
}

func (a *Animator) delay(r rune) time.Duration {
	d := a.opts.Interval
	if a.opts.Jitter != nil {
		d += time.Duration(float64(a.opts.Interval) * a.opts.Jitter())
	}
	if r == ' ' {
		d *= time.Duration(a.opts.SpaceFactor)
	}
	return d
}
