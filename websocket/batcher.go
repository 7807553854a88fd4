package websocket

import (
	"sync"
	"time"

	"github.com/eapache/queue"

	"github.com/vitalvas/sockit/eventloop"
)

// Scheduler runs fn once after d. *eventloop.Loop implements it.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) eventloop.Timer
}

// batcher hands decoded messages to deliver, either right away or in
// periodic flushes.
type batcher struct {
	sched   Scheduler
	deliver func(MessageEvent)

	mu       sync.Mutex
	interval time.Duration
	queue    *queue.Queue // MessageEvent
	flushing bool         // a flush is scheduled or running
	timer    eventloop.Timer
	stopped  bool
}

func newBatcher(sched Scheduler, interval time.Duration, deliver func(MessageEvent)) *batcher {
	return &batcher{
		sched:    sched,
		deliver:  deliver,
		interval: max(interval, 0),
		queue:    queue.New(),
	}
}

func (b *batcher) setInterval(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interval = max(d, 0)
}

func (b *batcher) getInterval() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.interval
}

// pending returns the number of queued messages.
func (b *batcher) pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.Length()
}

// add delivers msgs now when the interval is zero, and queues them
// otherwise. Messages still queued from an earlier interval go first.
func (b *batcher) add(msgs ...MessageEvent) {
	if len(msgs) == 0 {
		return
	}

	b.mu.Lock()

	if b.interval == 0 || b.stopped {
		out := append(b.takeLocked(), msgs...)
		b.mu.Unlock()

		b.deliverAll(out)
		return
	}

	for _, m := range msgs {
		b.queue.Add(m)
	}

	if !b.flushing {
		b.flushing = true
		b.timer = b.sched.AfterFunc(b.interval, b.flush)
	}

	b.mu.Unlock()
}

// flush delivers everything queued and schedules the next flush while the
// interval stays positive.
func (b *batcher) flush() {
	b.mu.Lock()

	if b.stopped {
		b.mu.Unlock()
		return
	}

	out := b.takeLocked()

	if b.interval > 0 {
		b.timer = b.sched.AfterFunc(b.interval, b.flush)
	} else {
		b.flushing = false
		b.timer = nil
	}

	b.mu.Unlock()

	b.deliverAll(out)
}

// drain delivers everything queued right away and ends the flush cycle.
// Later messages are delivered immediately.
func (b *batcher) drain() {
	b.mu.Lock()

	b.stopped = true
	b.flushing = false
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	out := b.takeLocked()

	b.mu.Unlock()

	b.deliverAll(out)
}

func (b *batcher) takeLocked() []MessageEvent {
	n := b.queue.Length()
	if n == 0 {
		return nil
	}

	out := make([]MessageEvent, 0, n)
	for b.queue.Length() > 0 {
		out = append(out, b.queue.Remove().(MessageEvent))
	}
	return out
}

func (b *batcher) deliverAll(msgs []MessageEvent) {
	for _, m := range msgs {
		b.deliver(m)
	}
}
