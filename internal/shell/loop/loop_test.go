package loop

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLoopRunsTasksInOrder(t *testing.T) {
	l := New()
	defer l.Close()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}

	var snapshot []int
	require.NoError(t, l.Do(func() { snapshot = append(snapshot, got...) }))

	require.Len(t, snapshot, 100)
	for i, v := range snapshot {
		assert.Equal(t, i, v)
	}
}

func TestEventLoopGoPostsContinuation(t *testing.T) {
	l := New()
	defer l.Close()

	var onLoop atomic.Bool
	done := make(chan struct{})

	l.Go(func() func() {
		return func() {
			onLoop.Store(true)
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("continuation never ran")
	}
	assert.True(t, onLoop.Load())
}

func TestEventLoopAfterAndStop(t *testing.T) {
	l := New()
	defer l.Close()

	fired := make(chan struct{}, 2)
	l.After(5*time.Millisecond, func() { fired <- struct{}{} })
	stopped := l.After(5*time.Millisecond, func() { fired <- struct{}{} })
	assert.True(t, stopped.Stop())

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}

	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestEventLoopSerializesConcurrentPosts(t *testing.T) {
	l := New()
	defer l.Close()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.NoError(t, l.Do(func() { counter++ }))
			}
		}()
	}
	wg.Wait()

	var final int
	require.NoError(t, l.Do(func() { final = counter }))
	assert.Equal(t, 1000, final)
}

func TestEventLoopClosed(t *testing.T) {
	l := New()
	l.Close()
	l.Close()

	assert.ErrorIs(t, l.Do(func() {}), ErrClosed)
}

func TestManualTimersFireInOrder(t *testing.T) {
	m := NewManual()
	var got []string

	m.After(30*time.Millisecond, func() { got = append(got, "c") })
	m.After(10*time.Millisecond, func() {
		got = append(got, "a")
		m.After(5*time.Millisecond, func() { got = append(got, "b") })
	})
	stopped := m.After(20*time.Millisecond, func() { got = append(got, "x") })
	stopped.Stop()

	m.Advance(12 * time.Millisecond)
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 2, m.Pending())

	m.Advance(20 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 32*time.Millisecond, m.Now())
	assert.Zero(t, m.Pending())
}

func TestManualGoQueuesContinuation(t *testing.T) {
	m := NewManual()
	ran := false

	m.Go(func() func() { return func() { ran = true } })
	assert.False(t, ran)

	m.Flush()
	assert.True(t, ran)
}

func TestManualSettle(t *testing.T) {
	m := NewManual()
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 5 {
			m.After(time.Second, tick)
		}
	}
	m.After(time.Second, tick)

	m.Settle()

	assert.Equal(t, 5, count)
	assert.Equal(t, 5*time.Second, m.Now())
}
