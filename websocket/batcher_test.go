package websocket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/sockit/eventloop"
)

// fakeScheduler records AfterFunc calls. Timers fire only when the test says
// so.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d  time.Duration
	fn func()

	mu      sync.Mutex
	stopped bool
	fired   bool
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) eventloop.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// active returns the timers that neither fired nor were stopped.
func (s *fakeScheduler) active() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*fakeTimer
	for _, t := range s.timers {
		t.mu.Lock()
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
		t.mu.Unlock()
	}
	return out
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// fireNext fires the single active timer.
func (s *fakeScheduler) fireNext(t *testing.T) {
	t.Helper()

	active := s.active()
	require.Len(t, active, 1, "expected exactly one pending flush")
	active[0].fire()
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (t *fakeTimer) fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()

	t.fn()
}

type collector struct {
	mu   sync.Mutex
	msgs []string
}

func (c *collector) deliver(ev MessageEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, ev.Data())
}

func (c *collector) got() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

func events(data ...string) []MessageEvent {
	out := make([]MessageEvent, len(data))
	for i, d := range data {
		out[i] = NewMessageEvent(d, "h:1")
	}
	return out
}

func TestBatcherImmediate(t *testing.T) {
	sched := &fakeScheduler{}
	c := &collector{}
	b := newBatcher(sched, 0, c.deliver)

	b.add(events("a", "b")...)
	b.add(events("c")...)

	assert.Equal(t, []string{"a", "b", "c"}, c.got())
	assert.Zero(t, sched.count())
	assert.Zero(t, b.pending())
}

func TestBatcherNothingToAdd(t *testing.T) {
	sched := &fakeScheduler{}
	c := &collector{}
	b := newBatcher(sched, time.Second, c.deliver)

	b.add()

	assert.Zero(t, sched.count())
	assert.Empty(t, c.got())
}

func TestBatcherInterval(t *testing.T) {
	sched := &fakeScheduler{}
	c := &collector{}
	b := newBatcher(sched, 50*time.Millisecond, c.deliver)

	b.add(events("a")...)
	b.add(events("b")...)
	b.add(events("c")...)

	assert.Empty(t, c.got())
	assert.Equal(t, 3, b.pending())

	active := sched.active()
	require.Len(t, active, 1)
	assert.Equal(t, 50*time.Millisecond, active[0].d)

	active[0].fire()

	assert.Equal(t, []string{"a", "b", "c"}, c.got())
	assert.Zero(t, b.pending())

	// The flush keeps itself scheduled while the interval is positive.
	require.Len(t, sched.active(), 1)

	b.add(events("d")...)
	assert.Len(t, sched.active(), 1)

	sched.fireNext(t)
	assert.Equal(t, []string{"a", "b", "c", "d"}, c.got())
}

func TestBatcherEmptyFlush(t *testing.T) {
	sched := &fakeScheduler{}
	c := &collector{}
	b := newBatcher(sched, time.Second, c.deliver)

	b.add(events("a")...)
	sched.fireNext(t)
	sched.fireNext(t)
	sched.fireNext(t)

	assert.Equal(t, []string{"a"}, c.got())
	assert.Len(t, sched.active(), 1)
}

func TestBatcherIntervalDroppedToZero(t *testing.T) {
	sched := &fakeScheduler{}
	c := &collector{}
	b := newBatcher(sched, time.Second, c.deliver)

	b.add(events("a", "b")...)
	b.setInterval(0)
	assert.Zero(t, b.getInterval())

	t.Run("Queued messages precede new ones", func(t *testing.T) {
		b.add(events("c")...)
		assert.Equal(t, []string{"a", "b", "c"}, c.got())
	})

	t.Run("Pending flush stops rescheduling", func(t *testing.T) {
		sched.fireNext(t)
		assert.Empty(t, sched.active())
		assert.Equal(t, []string{"a", "b", "c"}, c.got())
	})

	t.Run("Raising the interval schedules again", func(t *testing.T) {
		b.setInterval(time.Second)
		b.add(events("d")...)
		assert.Equal(t, []string{"a", "b", "c"}, c.got())

		sched.fireNext(t)
		assert.Equal(t, []string{"a", "b", "c", "d"}, c.got())
	})
}

func TestBatcherNegativeInterval(t *testing.T) {
	b := newBatcher(&fakeScheduler{}, -time.Second, func(MessageEvent) {})
	assert.Zero(t, b.getInterval())

	b.setInterval(-time.Millisecond)
	assert.Zero(t, b.getInterval())
}

func TestBatcherDrain(t *testing.T) {
	sched := &fakeScheduler{}
	c := &collector{}
	b := newBatcher(sched, time.Second, c.deliver)

	b.add(events("a", "b")...)
	timer := sched.active()[0]

	b.drain()

	assert.Equal(t, []string{"a", "b"}, c.got())
	assert.True(t, timer.stopped)
	assert.Empty(t, sched.active())

	t.Run("Late flush does nothing", func(t *testing.T) {
		timer.fn()
		assert.Equal(t, []string{"a", "b"}, c.got())
		assert.Empty(t, sched.active())
	})

	t.Run("Later messages are delivered at once", func(t *testing.T) {
		b.add(events("c")...)
		assert.Equal(t, []string{"a", "b", "c"}, c.got())
		assert.Empty(t, sched.active())
	})

	t.Run("Drain twice", func(t *testing.T) {
		b.drain()
		assert.Equal(t, []string{"a", "b", "c"}, c.got())
	})
}

func TestBatcherOnLoop(t *testing.T) {
	loop := &eventloop.Loop{}
	go loop.Run(t.Context())
	t.Cleanup(loop.Stop)

	done := make(chan []string, 1)
	var got []string

	b := newBatcher(loop, 10*time.Millisecond, func(ev MessageEvent) {
		got = append(got, ev.Data())
		if len(got) == 3 {
			done <- got
		}
	})

	require.True(t, loop.Post(func() {
		b.add(events("a", "b", "c")...)
	}))

	select {
	case msgs := <-done:
		assert.Equal(t, []string{"a", "b", "c"}, msgs)
	case <-time.After(2 * time.Second):
		t.Fatal("batched messages were not delivered")
	}
}
