package notify

import (
	"context"
	"log/slog"
	"time"

	"flightsurety/internal/platform/metrics"
	"flightsurety/pkg/platform/circuit"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = time.Second
)

// Worker drains an Outbox into one Sink. Delivery is at-least-once: an event
// that fails is put back at the head of the outbox and retried on the next
// pass, and a sink that keeps failing is rested behind a circuit breaker.
type Worker struct {
	outbox       *Outbox
	sink         Sink
	breaker      *circuit.Breaker
	logger       *slog.Logger
	metrics      *metrics.Metrics
	batchSize    int
	pollInterval time.Duration
}

type WorkerOption func(*Worker)

func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithWorkerMetrics(m *metrics.Metrics) WorkerOption {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) WorkerOption {
	return func(w *Worker) {
		w.breaker = b
	}
}

func NewWorker(outbox *Outbox, sink Sink, opts ...WorkerOption) *Worker {
	w := &Worker{
		outbox:       outbox,
		sink:         sink,
		logger:       slog.Default(),
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.breaker == nil {
		w.breaker = circuit.New(sink.Name())
	}
	return w
}

// Run delivers until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.outbox.Ready():
		case <-ticker.C:
		}
		w.Drain(ctx)
	}
}

// Drain delivers queued events until the outbox is empty or a delivery
// fails. It returns how many events were delivered.
func (w *Worker) Drain(ctx context.Context) int {
	delivered := 0
	for ctx.Err() == nil {
		batch := w.outbox.DequeueBatch(w.batchSize)
		if len(batch) == 0 {
			return delivered
		}
		n := w.deliver(ctx, batch)
		delivered += n
		if n < len(batch) {
			w.outbox.Requeue(batch[n:])
			return delivered
		}
	}
	return delivered
}

func (w *Worker) deliver(ctx context.Context, batch []Event) int {
	for i, event := range batch {
		if !w.breaker.Allow() {
			return i
		}
		if err := w.sink.Deliver(ctx, event); err != nil {
			_, change := w.breaker.RecordFailure()
			w.record("failed")
			w.logger.WarnContext(ctx, "notification delivery failed",
				"sink", w.sink.Name(),
				"event_id", event.ID,
				"type", event.Type,
				"error", err,
			)
			if change.Opened {
				w.logger.ErrorContext(ctx, "notification sink circuit opened", "sink", w.sink.Name())
			}
			return i
		}
		if _, change := w.breaker.RecordSuccess(); change.Closed {
			w.logger.InfoContext(ctx, "notification sink circuit closed", "sink", w.sink.Name())
		}
		w.record("delivered")
	}
	return len(batch)
}

func (w *Worker) record(outcome string) {
	if w.metrics != nil {
		w.metrics.IncrementNotification(w.sink.Name(), outcome)
	}
}
