package eventloop

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T, l *Loop) *Loop {
	t.Helper()

	go func() {
		_ = l.Run(context.Background())
	}()

	t.Cleanup(func() {
		l.Stop()
		<-l.Done()
	})

	return l
}

func TestLoopPost(t *testing.T) {
	t.Run("Runs tasks in order", func(t *testing.T) {
		l := startLoop(t, &Loop{})

		var got []int
		done := make(chan struct{})
		for i := range 10 {
			require.True(t, l.Post(func() { got = append(got, i) }))
		}
		require.True(t, l.Post(func() { close(done) }))

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("tasks did not run")
		}

		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
	})

	t.Run("Nil task", func(t *testing.T) {
		l := &Loop{}
		assert.False(t, l.Post(nil))
		assert.Equal(t, 0, l.Len())
	})

	t.Run("Rejected after stop", func(t *testing.T) {
		l := &Loop{}
		l.Stop()
		assert.False(t, l.Post(func() {}))
	})

	t.Run("Tasks never overlap", func(t *testing.T) {
		l := startLoop(t, &Loop{})

		var (
			mu      sync.Mutex
			active  int
			overlap bool
			wg      sync.WaitGroup
		)

		for range 50 {
			wg.Add(1)
			go func() {
				l.Post(func() {
					defer wg.Done()

					mu.Lock()
					active++
					if active > 1 {
						overlap = true
					}
					mu.Unlock()

					time.Sleep(time.Millisecond)

					mu.Lock()
					active--
					mu.Unlock()
				})
			}()
		}

		wg.Wait()
		assert.False(t, overlap)
	})
}

func TestLoopStop(t *testing.T) {
	t.Run("Drains queued tasks", func(t *testing.T) {
		l := &Loop{}

		ran := 0
		for range 3 {
			require.True(t, l.Post(func() { ran++ }))
		}
		assert.Equal(t, 3, l.Len())

		l.Stop()
		require.NoError(t, l.Run(context.Background()))
		assert.Equal(t, 3, ran)
	})

	t.Run("Run after stop", func(t *testing.T) {
		l := &Loop{}
		l.Stop()
		assert.ErrorIs(t, l.Run(context.Background()), ErrStopped)
	})

	t.Run("Stop from a task", func(t *testing.T) {
		l := &Loop{}
		l.Post(func() { l.Stop() })

		require.NoError(t, l.Run(context.Background()))

		select {
		case <-l.Done():
		default:
			t.Fatal("done not closed")
		}
	})

	t.Run("Context cancellation", func(t *testing.T) {
		l := &Loop{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, l.Run(ctx), context.Canceled)
		assert.False(t, l.Post(func() {}))
	})
}

func TestLoopRunTwice(t *testing.T) {
	l := startLoop(t, &Loop{})

	started := make(chan struct{})
	l.Post(func() { close(started) })
	<-started

	assert.ErrorIs(t, l.Run(context.Background()), ErrRunning)
}

func TestLoopAfterFunc(t *testing.T) {
	t.Run("Fires on the loop", func(t *testing.T) {
		l := startLoop(t, &Loop{})

		fired := make(chan time.Time, 1)
		start := time.Now()
		l.AfterFunc(20*time.Millisecond, func() { fired <- time.Now() })

		select {
		case at := <-fired:
			assert.GreaterOrEqual(t, at.Sub(start), 20*time.Millisecond)
		case <-time.After(time.Second):
			t.Fatal("timer did not fire")
		}
	})

	t.Run("Stop prevents the call", func(t *testing.T) {
		l := startLoop(t, &Loop{})

		fired := make(chan struct{}, 1)
		timer := l.AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
		assert.True(t, timer.Stop())

		select {
		case <-fired:
			t.Fatal("stopped timer fired")
		case <-time.After(60 * time.Millisecond):
		}
	})
}

func TestLoopPanic(t *testing.T) {
	var (
		mu     sync.Mutex
		caught any
	)

	l := startLoop(t, &Loop{PanicFunc: func(v any) {
		mu.Lock()
		caught = v
		mu.Unlock()
	}})

	done := make(chan struct{})
	l.Post(func() { panic("boom") })
	l.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop stopped after panic")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "boom", caught)
}

func TestLoopDefaultPanicLogging(t *testing.T) {
	var buf safeBuffer
	l := startLoop(t, &Loop{Logger: slog.New(slog.NewTextHandler(&buf, nil))})

	done := make(chan struct{})
	l.Post(func() { panic("kaboom") })
	l.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop stopped after panic")
	}

	assert.Contains(t, buf.String(), "eventloop task panicked")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestLoopZeroValue(t *testing.T) {
	var l Loop

	select {
	case <-l.Done():
		t.Fatal("done closed before run")
	default:
	}

	ran := false
	require.True(t, l.Post(func() { ran = true }))
	l.Stop()
	require.NoError(t, l.Run(context.Background()))
	assert.True(t, ran)
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
