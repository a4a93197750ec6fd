package loop

import (
	"sort"
	"time"
)

// Manual is a deterministic Scheduler driven by the caller. Background work
// passed to Go runs inline and its continuation is queued; timers fire only
// when Advance moves the virtual clock past them. It is not safe for
// concurrent use.
type Manual struct {
	now    time.Duration
	queue  []func()
	timers []*manualTimer
	seq    int
}

type manualTimer struct {
	due     time.Duration
	seq     int
	task    func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewManual creates a manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Post(task func()) {
	m.queue = append(m.queue, task)
}

func (m *Manual) After(d time.Duration, task func()) Timer {
	m.seq++
	t := &manualTimer{due: m.now + d, seq: m.seq, task: task}
	m.timers = append(m.timers, t)
	return t
}

func (m *Manual) Go(work func() func()) {
	if cont := work(); cont != nil {
		m.Post(cont)
	}
}

// Flush runs queued tasks, including ones they queue, until none remain.
func (m *Manual) Flush() {
	for len(m.queue) > 0 {
		task := m.queue[0]
		m.queue = m.queue[1:]
		task()
	}
}

// Advance moves the clock forward by d, firing due timers in order and
// flushing the queue after each.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	m.Flush()
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.due
		next.fired = true
		next.task()
		m.Flush()
	}
	m.now = target
}

// Settle advances until no timers remain pending.
func (m *Manual) Settle() {
	m.Flush()
	for {
		next := m.nextDue(-1)
		if next == nil {
			return
		}
		m.Advance(next.due - m.now)
	}
}

// Now is the current virtual time.
func (m *Manual) Now() time.Duration { return m.now }

// Pending counts timers that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// nextDue returns the earliest live timer due at or before limit. A negative
// limit means no limit.
func (m *Manual) nextDue(limit time.Duration) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
	if len(live) == 0 {
		return nil
	}

	sort.SliceStable(live, func(i, j int) bool {
		if live[i].due != live[j].due {
			return live[i].due < live[j].due
		}
		return live[i].seq < live[j].seq
	})
	if limit >= 0 && live[0].due > limit {
		return nil
	}
	return live[0]
}
