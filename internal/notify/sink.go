package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
)

// Sink delivers one notification to an external observer.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event Event) error
}

// Channel is the pub/sub channel a notification type is broadcast on.
func Channel(prefix string, t EventType) string {
	return prefix + string(t)
}

func encode(event Event) ([]byte, error) {
	return json.Marshal(event)
}

// Decode parses a notification published by a sink.
func Decode(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, e Event) error {
	s.logger.InfoContext(ctx, string(e.Type),
		"log_type", "notification",
		"event_id", e.ID,
		"request_id", e.RequestID,
		"account", e.Account,
		"airline", e.Airline,
		"flight", e.Flight,
		"timestamp", e.Timestamp,
		"index", e.Index,
		"status", e.Status,
		"amount", e.Amount,
		"votes", e.Votes,
	)
	return nil
}

// Recorder keeps delivered notifications in memory. Tests and the e2e suite
// use it to observe what the ledger emitted.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	failN  int
	err    error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Deliver(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failN > 0 {
		r.failN--
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

// Publish records events directly, bypassing any outbox.
func (r *Recorder) Publish(ctx context.Context, events ...Event) {
	for _, e := range events {
		_ = r.Deliver(ctx, e)
	}
}

// FailNext makes the next n deliveries return err.
func (r *Recorder) FailNext(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failN = n
	r.err = err
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Of returns the recorded events of type t in delivery order.
func (r *Recorder) Of(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Publisher accepts committed notifications without blocking.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

// Fanout publishes every event to each of its publishers.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, events ...Event) {
	for _, p := range f {
		p.Publish(ctx, events...)
	}
}
