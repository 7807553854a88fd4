package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// Errors returned by Run.
var (
	ErrRunning = errors.New("eventloop: already running")
	ErrStopped = errors.New("eventloop: stopped")
)

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call from being posted. It reports false when the
	// call was already posted or stopped.
	Stop() bool
}

// Loop is a FIFO task runner. The zero value is ready to use; call Run to
// start processing tasks.
type Loop struct {
	// Logger receives loop diagnostics. Defaults to discarding.
	Logger *slog.Logger

	// PanicFunc is called with the value recovered from a panicking task.
	// The default logs the panic at error level.
	PanicFunc func(v any)

	initOnce sync.Once

	mu      sync.Mutex
	tasks   *queue.Queue // func()
	running bool
	stopped bool

	wake chan struct{}
	done chan struct{}
}

func (l *Loop) init() {
	l.initOnce.Do(func() {
		l.tasks = queue.New()
		l.wake = make(chan struct{}, 1)
		l.done = make(chan struct{})
	})
}

func (l *Loop) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return discard
}

var discard = slog.New(slog.DiscardHandler)

// Post queues fn to run on the loop. It reports false if the loop has been
// stopped and fn was dropped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}

	l.init()

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.tasks.Add(fn)
	l.mu.Unlock()

	l.signal()
	return true
}

// AfterFunc posts fn to the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() {
		if !l.Post(fn) {
			l.logger().Debug("eventloop stopped, dropping timer")
		}
	})
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	l.init()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tasks.Length()
}

// Stop makes the loop refuse new tasks. Run returns after the queued tasks
// have run. Stop may be called from a task and more than once.
func (l *Loop) Stop() {
	l.init()

	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()

	l.signal()
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	l.init()
	return l.done
}

// Run processes tasks until Stop is called or ctx is done. Only one Run may
// be active, and a Loop cannot be restarted.
func (l *Loop) Run(ctx context.Context) error {
	l.init()

	l.mu.Lock()
	switch {
	case l.running:
		l.mu.Unlock()
		return ErrRunning
	case l.stopped:
		l.mu.Unlock()
		return ErrStopped
	}
	l.running = true
	l.mu.Unlock()

	defer close(l.done)

	for {
		fn, stopped := l.next()
		if fn != nil {
			l.exec(fn)
			continue
		}

		if stopped {
			return nil
		}

		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tasks.Length() == 0 {
		return nil, l.stopped
	}
	return l.tasks.Remove().(func()), l.stopped
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if v := recover(); v != nil {
			if l.PanicFunc != nil {
				l.PanicFunc(v)
				return
			}
			l.logger().Error("eventloop task panicked", "panic", v)
		}
	}()

	fn()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
