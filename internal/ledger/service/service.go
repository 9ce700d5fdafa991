// Package service implements the ledger engines: membership admission by
// founding or quorum vote, sharded oracle confirmation, and the one-shot
// settlement and withdrawal of passenger credit.
//
// Every mutation passes the AccessGate and then runs as a single store
// transaction. Notifications are published in commit order as the
// transaction commits; metrics are recorded afterwards.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"flightsurety/internal/ledger/shard"
	"flightsurety/internal/ledger/store"
	"flightsurety/internal/notify"
	"flightsurety/internal/platform/metrics"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/sentinel"
	"flightsurety/pkg/requestcontext"
)

const tracerName = "flightsurety/ledger"

// Service orchestrates the ledger engines over one store.
type Service struct {
	store     *store.Store
	gate      AccessGate
	accounts  AccountLedger
	shards    shard.Source
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithShardSource replaces the default keccak nonce source.
func WithShardSource(src shard.Source) Option {
	return func(s *Service) {
		s.shards = src
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(st *store.Store, gate AccessGate, accounts AccountLedger, opts ...Option) *Service {
	s := &Service{
		store:    st,
		gate:     gate,
		accounts: accounts,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.shards == nil {
		s.shards = shard.NewNonceSource(nil)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// txn is the unit of work handed to engine code: the store transaction plus
// what to do once it commits.
type txn struct {
	*store.Tx
	now      time.Time
	events   []notify.Event
	onCommit []func()
}

func (t *txn) emit(e notify.Event) {
	e.OccurredAt = t.now
	t.events = append(t.events, e)
}

func (t *txn) afterCommit(fn func()) {
	t.onCommit = append(t.onCommit, fn)
}

// mutate checks the gate and runs fn as one transaction.
func (s *Service) mutate(ctx context.Context, op string, fn func(t *txn) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	start := time.Now()
	defer s.observe(op, start)

	if err := s.checkGate(ctx); err != nil {
		return s.reject(ctx, span, op, err)
	}
	return s.commit(ctx, span, op, fn)
}

func (s *Service) commit(ctx context.Context, span trace.Span, op string, fn func(t *txn) error) error {
	var work *txn
	err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		work = &txn{Tx: tx, now: requestcontext.Now(ctx)}
		if err := fn(work); err != nil {
			return err
		}
		// Publishing under the ledger lock keeps notifications in commit
		// order. Publish never blocks.
		tx.OnCommit(func() { s.publish(ctx, work.events) })
		return nil
	})
	if err != nil {
		return s.reject(ctx, span, op, err)
	}
	for _, fn := range work.onCommit {
		fn()
	}
	span.SetAttributes(attribute.Int("ledger.events", len(work.events)))
	return nil
}

func (s *Service) publish(ctx context.Context, events []notify.Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	reqID := requestcontext.RequestID(ctx)
	for i := range events {
		events[i].RequestID = reqID
	}
	s.publisher.Publish(ctx, events...)
}

// view runs fn against a read-only snapshot. Queries do not pass the gate.
func (s *Service) view(ctx context.Context, op string, fn func(tx *store.Tx) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	defer span.End()
	if err := s.store.View(ctx, fn); err != nil {
		return s.reject(ctx, span, op, err)
	}
	return nil
}

func (s *Service) checkGate(ctx context.Context) error {
	operational, err := s.gate.IsOperational(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read operational flag")
	}
	if !operational {
		return dErrors.New(dErrors.CodeUnavailable, "ledger is not operational")
	}
	client := requestcontext.ClientID(ctx)
	authorized, err := s.gate.IsAuthorized(ctx, client)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check client authorization")
	}
	if !authorized {
		return dErrors.New(dErrors.CodeForbidden, "client application is not authorized")
	}
	return nil
}

// reject normalizes err into a coded error, records it and returns it.
func (s *Service) reject(ctx context.Context, span trace.Span, op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		if !dErrors.HasCode(err, dErrors.CodeTimeout) {
			err = dErrors.Wrap(err, dErrors.CodeTimeout, "operation aborted: context cancelled")
		}
	case dErrors.CodeOf(err) == "":
		err = dErrors.Wrap(err, dErrors.CodeInternal, op+" failed")
	}
	code := dErrors.CodeOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
	if s.metrics != nil {
		s.metrics.IncrementRejection(op, string(code))
	}
	if code == dErrors.CodeInternal {
		s.logger.ErrorContext(ctx, "ledger operation failed",
			"operation", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		s.logger.InfoContext(ctx, "ledger operation rejected",
			"operation", op,
			"code", code,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	return err
}

func (s *Service) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start)
	}
}

// storeErr translates a store sentinel into a coded error. Callers handle
// the sentinels that carry a specific meaning for their operation first.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, what+" already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update "+what)
	}
}
