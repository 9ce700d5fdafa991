package oraclesim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/redis/go-redis/v9"

	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/service"
	"flightsurety/internal/notify"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

// API is the slice of the ledger the simulator drives.
type API interface {
	RegisterOracle(ctx context.Context, reporter domain.Address, fee domain.Amount) (models.Oracle, error)
	GetMyIndexes(ctx context.Context, reporter domain.Address) ([]uint8, error)
	SubmitResponse(ctx context.Context, reporter domain.Address, index uint8, ref domain.FlightRef, status models.StatusCode) (service.ResponseOutcome, error)
}

// Reporter is a registered simulated account and its shard indexes.
type Reporter struct {
	Address domain.Address
	Indexes []uint8
}

type Simulator struct {
	api       API
	policy    StatusPolicy
	fee       domain.Amount
	accounts  []domain.Address
	logger    *slog.Logger
	mu        sync.RWMutex
	reporters []Reporter
}

type Option func(*Simulator)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

func New(api API, policy StatusPolicy, fee domain.Amount, accounts []domain.Address, opts ...Option) *Simulator {
	s := &Simulator{
		api:      api,
		policy:   policy,
		fee:      fee,
		accounts: accounts,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register registers every account as a reporter and loads its indexes.
// Accounts registered by an earlier run are reused.
func (s *Simulator) Register(ctx context.Context) error {
	reporters := make([]Reporter, 0, len(s.accounts))
	for _, addr := range s.accounts {
		_, err := s.api.RegisterOracle(ctx, addr, s.fee)
		if err != nil && !dErrors.HasCode(err, dErrors.CodeConflict) {
			return fmt.Errorf("register reporter %s: %w", addr, err)
		}
		indexes, err := s.api.GetMyIndexes(ctx, addr)
		if err != nil {
			return fmt.Errorf("load indexes for %s: %w", addr, err)
		}
		reporters = append(reporters, Reporter{Address: addr, Indexes: indexes})
		s.logger.InfoContext(ctx, "reporter ready", "reporter", addr, "indexes", indexes)
	}
	s.mu.Lock()
	s.reporters = reporters
	s.mu.Unlock()
	return nil
}

func (s *Simulator) Reporters() []Reporter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.reporters)
}

// Handle answers a confirmation request with every reporter serving its
// index. Rejected answers (closed request, late arrival) are logged and
// skipped. It returns how many answers the ledger accepted.
func (s *Simulator) Handle(ctx context.Context, e notify.Event) int {
	if e.Type != notify.EventConfirmationRequested {
		return 0
	}
	ref := e.FlightRef()
	accepted := 0
	for _, r := range s.Reporters() {
		if !slices.Contains(r.Indexes, e.Index) {
			continue
		}
		status := s.policy.Status(r.Address, ref)
		outcome, err := s.api.SubmitResponse(ctx, r.Address, e.Index, ref, status)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return accepted
			}
			level := slog.LevelError
			if dErrors.IsRejection(err) {
				level = slog.LevelDebug
			}
			s.logger.Log(ctx, level, "response not accepted",
				"reporter", r.Address,
				"index", e.Index,
				"flight", ref.Code,
				"error", err,
			)
			continue
		}
		accepted++
		s.logger.InfoContext(ctx, "response submitted",
			"reporter", r.Address,
			"index", e.Index,
			"flight", ref.Code,
			"status", status.String(),
			"confirmed", outcome.Confirmed,
		)
	}
	return accepted
}

// Listen subscribes to confirmation requests on Redis and handles them until
// ctx is cancelled.
func (s *Simulator) Listen(ctx context.Context, client *redis.Client, prefix string) error {
	channel := notify.Channel(prefix, notify.EventConfirmationRequested)
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	s.logger.InfoContext(ctx, "listening for confirmation requests", "channel", channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("subscription closed")
			}
			e, err := notify.Decode([]byte(msg.Payload))
			if err != nil {
				s.logger.WarnContext(ctx, "dropping undecodable notification", "error", err)
				continue
			}
			s.Handle(ctx, e)
		}
	}
}
