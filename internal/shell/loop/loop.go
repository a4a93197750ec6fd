// Package loop provides the single-threaded scheduler each shell session runs on.
//
// Every piece of session state is touched only from tasks executed by the
// session's Scheduler. Timers and background work never mutate state directly;
// they post a continuation back to the loop. EventLoop is the production
// implementation, Manual a virtual-time one for tests.
package loop

import (
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned when work is submitted to a stopped loop.
var ErrClosed = errors.New("event loop closed")

// Timer is a pending delayed task.
type Timer interface {
	// Stop prevents the task from running. It reports false if the task
	// already ran or was already stopped.
	Stop() bool
}

// Scheduler runs tasks one at a time.
type Scheduler interface {
	// Post queues task to run on the loop.
	Post(task func())
	// After queues task to run on the loop once d has elapsed.
	After(d time.Duration, task func()) Timer
	// Go runs work off the loop. The continuation it returns, if any, is
	// posted back to the loop.
	Go(work func() func())
}

// EventLoop is a goroutine draining an unbounded task queue.
type EventLoop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// New starts an event loop.
func New() *EventLoop {
	l := &EventLoop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *EventLoop) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}

		for {
			l.mu.Lock()
			if l.closed || len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			task := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()

			task()
		}
	}
}

// Post queues task. Tasks posted after Close are dropped.
func (l *EventLoop) Post(task func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// After posts task once d has elapsed.
func (l *EventLoop) After(d time.Duration, task func()) Timer {
	return time.AfterFunc(d, func() { l.Post(task) })
}

// Go runs work on its own goroutine and posts the continuation.
func (l *EventLoop) Go(work func() func()) {
	go func() {
		if cont := work(); cont != nil {
			l.Post(cont)
		}
	}()
}

// Do runs task on the loop and waits for it to finish. It must not be called
// from a task running on the same loop.
func (l *EventLoop) Do(task func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		task()
	})

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Close stops the loop. Queued tasks that have not started are discarded.
func (l *EventLoop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.queue = nil
	l.mu.Unlock()

	close(l.done)
	l.wg.Wait()
}
