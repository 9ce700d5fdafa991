package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultOutboxCapacity = 10_000

// Outbox is a bounded, thread-safe queue of committed notifications waiting
// for delivery. Publish never blocks: when the outbox is full the oldest
// event is dropped and counted.
type Outbox struct {
	mu       sync.Mutex
	events   []Event
	head     int // next write position
	tail     int // next read position
	count    int
	capacity int
	dropped  int64
	notify   chan struct{}
}

func NewOutbox(capacity int) *Outbox {
	if capacity <= 0 {
		capacity = defaultOutboxCapacity
	}
	return &Outbox{
		events:   make([]Event, capacity),
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
}

// Publish enqueues events in order, stamping missing ids and times.
func (o *Outbox) Publish(_ context.Context, events ...Event) {
	if len(events) == 0 {
		return
	}
	o.mu.Lock()
	for _, e := range events {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.OccurredAt.IsZero() {
			e.OccurredAt = time.Now()
		}
		o.enqueueLocked(e)
	}
	o.mu.Unlock()
	o.signal()
}

// Requeue puts undelivered events back at the head of the queue so they keep
// their order relative to newer events.
func (o *Outbox) Requeue(events []Event) {
	if len(events) == 0 {
		return
	}
	o.mu.Lock()
	for i := len(events) - 1; i >= 0; i-- {
		if o.count >= o.capacity {
			o.dropped++
			continue
		}
		o.tail = (o.tail - 1 + o.capacity) % o.capacity
		o.events[o.tail] = events[i]
		o.count++
	}
	o.mu.Unlock()
	o.signal()
}

func (o *Outbox) enqueueLocked(e Event) {
	if o.count >= o.capacity {
		o.tail = (o.tail + 1) % o.capacity
		o.count--
		o.dropped++
	}
	o.events[o.head] = e
	o.head = (o.head + 1) % o.capacity
	o.count++
}

// DequeueBatch removes up to n events from the head of the queue.
func (o *Outbox) DequeueBatch(n int) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.count == 0 {
		return nil
	}
	if n > o.count {
		n = o.count
	}
	out := make([]Event, n)
	for i := range n {
		out[i] = o.events[o.tail]
		o.events[o.tail] = Event{}
		o.tail = (o.tail + 1) % o.capacity
	}
	o.count -= n
	return out
}

// Ready is signalled whenever events are added.
func (o *Outbox) Ready() <-chan struct{} {
	return o.notify
}

func (o *Outbox) signal() {
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}

// Dropped returns how many events were discarded because the outbox was full.
func (o *Outbox) Dropped() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}
