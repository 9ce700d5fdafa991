package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/store"
	"flightsurety/internal/notify"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/sentinel"
	"flightsurety/pkg/requestcontext"
)

// SettlementResult reports whether a settlement was applied. A result with
// Applied == false is a silent no-op: unknown flight, empty pool or a pool
// that was already settled.
type SettlementResult struct {
	Applied  bool          `json:"applied"`
	Policies int           `json:"policies"`
	Credited domain.Amount `json:"credited"`
}

// WithdrawalResult reports what a withdrawal transferred. Amount is zero when
// there was nothing to withdraw. Attempts above one mean a suspended
// transfer was retried.
type WithdrawalResult struct {
	HoldID   uuid.UUID     `json:"hold_id"`
	Amount   domain.Amount `json:"amount"`
	Attempts int           `json:"attempts,omitempty"`
}

// Settle credits every policy on the flight with factor percent of its
// premium, at most once per flight. Duplicate and late settlements succeed
// without effect.
func (s *Service) Settle(ctx context.Context, ref domain.FlightRef, status models.StatusCode, factor uint64) (SettlementResult, error) {
	var result SettlementResult
	err := s.mutate(ctx, "settle", func(t *txn) error {
		if err := ref.Validate(); err != nil {
			return err
		}
		var err error
		result, err = s.settle(t, ref, status, factor)
		return err
	})
	if err != nil {
		return SettlementResult{}, err
	}
	return result, nil
}

func (s *Service) settle(t *txn, ref domain.FlightRef, status models.StatusCode, factor uint64) (SettlementResult, error) {
	key := ref.Key()
	skip := func() (SettlementResult, error) {
		t.afterCommit(func() {
			if s.metrics != nil {
				s.metrics.RecordSettlement(false, 0)
			}
		})
		return SettlementResult{}, nil
	}

	flight, err := t.Flight(key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return skip()
	}
	if err != nil {
		return SettlementResult{}, storeErr(err, "flight")
	}
	pool, err := t.Pool(key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return skip()
	}
	if err != nil {
		return SettlementResult{}, storeErr(err, "insurance pool")
	}
	if !flight.Registered || len(pool.Policies) == 0 || pool.Settled {
		return skip()
	}

	if err := t.SetFlightStatus(key, status); err != nil {
		return SettlementResult{}, storeErr(err, "flight")
	}
	if err := t.MarkSettled(key); err != nil {
		return SettlementResult{}, storeErr(err, "insurance pool")
	}
	result := SettlementResult{Applied: true}
	for _, policyKey := range pool.Policies {
		policy, err := t.Policy(policyKey)
		if err != nil {
			return SettlementResult{}, storeErr(err, "policy")
		}
		credit, overflow := models.CreditFor(policy.InsuredFor, factor)
		if overflow {
			return SettlementResult{}, dErrors.New(dErrors.CodeInternal, "credit overflows for policy "+policyKey.String())
		}
		if _, err := t.CreditPolicy(policyKey, credit); err != nil {
			return SettlementResult{}, storeErr(err, "balance")
		}
		total, overflow := result.Credited.Add(credit)
		if overflow {
			return SettlementResult{}, dErrors.New(dErrors.CodeInternal, "settlement total overflows")
		}
		result.Credited = total
		result.Policies++

		e := flightEvent(notify.EventInsuranceCredited, ref)
		e.Account = policy.Passenger
		e.Status = uint8(status)
		e.Amount = credit
		t.emit(e)
	}
	t.afterCommit(func() {
		if s.metrics != nil {
			s.metrics.RecordSettlement(true, result.Credited)
		}
	})
	return result, nil
}

// Withdraw pays out the passenger's whole balance. The balance is moved into
// a hold and reads zero before the transfer starts, so a re-entrant
// withdrawal during the transfer finds nothing to take. The hold is closed
// once the transfer succeeds.
//
// A transfer the account ledger reports as not applied releases the hold
// back into the balance. Any other failure leaves the outcome unknown: the
// hold is suspended and the passenger's next withdrawal retries it under the
// same transfer id before touching newer credit.
func (s *Service) Withdraw(ctx context.Context, passenger domain.Address) (WithdrawalResult, error) {
	var hold models.WithdrawalHold
	err := s.mutate(ctx, "withdraw", func(t *txn) error {
		if passenger.IsZero() {
			return dErrors.New(dErrors.CodeInvalidInput, "passenger address is required")
		}
		h, err := t.ResumeHold(passenger)
		if err == nil {
			hold = h
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return storeErr(err, "withdrawal hold")
		}
		h, err = t.OpenHold(uuid.New(), passenger, t.now)
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil
		}
		if err != nil {
			return storeErr(err, "withdrawal hold")
		}
		hold = h
		return nil
	})
	if err != nil {
		return WithdrawalResult{}, err
	}
	if hold.Amount == 0 {
		s.recordWithdrawal("empty", 0)
		return WithdrawalResult{}, nil
	}
	if hold.Attempts > 1 {
		s.logger.InfoContext(ctx, "retrying suspended withdrawal",
			"hold_id", hold.ID,
			"passenger", hold.Passenger,
			"attempt", hold.Attempts,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	if err := s.transfer(ctx, hold); err != nil {
		return WithdrawalResult{}, err
	}

	if err := s.closeHold(ctx, hold); err != nil {
		return WithdrawalResult{}, err
	}
	s.recordWithdrawal("paid", hold.Amount)
	return WithdrawalResult{HoldID: hold.ID, Amount: hold.Amount, Attempts: hold.Attempts}, nil
}

func (s *Service) transfer(ctx context.Context, hold models.WithdrawalHold) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.suspendHold(ctx, hold, fmt.Errorf("transfer panicked: %v", r))
			panic(r)
		}
	}()
	err = s.accounts.Transfer(ctx, models.Transfer{ID: hold.ID, To: hold.Passenger, Amount: hold.Amount})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrNotApplied):
		s.releaseHold(ctx, hold, err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "transfer to passenger failed")
	default:
		s.suspendHold(ctx, hold, err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "transfer outcome unknown, withdraw again to retry")
	}
}

func (s *Service) closeHold(ctx context.Context, hold models.WithdrawalHold) error {
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "withdraw.close_hold")
	defer span.End()
	return s.commit(ctx, span, "withdraw", func(t *txn) error {
		if _, err := t.CloseHold(hold.ID); err != nil {
			return storeErr(err, "withdrawal hold")
		}
		e := notify.Event{Type: notify.EventPassengerWithdrawn, Account: hold.Passenger, Amount: hold.Amount}
		t.emit(e)
		return nil
	})
}

// suspendHold keeps the held amount out of the balance until a retry with
// the same transfer id settles it.
func (s *Service) suspendHold(ctx context.Context, hold models.WithdrawalHold, cause error) {
	ctx = context.WithoutCancel(ctx)
	err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		_, err := tx.SuspendHold(hold.ID)
		return err
	})
	s.recordWithdrawal("pending", 0)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to suspend withdrawal hold",
			"hold_id", hold.ID,
			"passenger", hold.Passenger,
			"amount", hold.Amount,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return
	}
	s.logger.ErrorContext(ctx, "withdrawal transfer outcome unknown, hold suspended",
		"hold_id", hold.ID,
		"passenger", hold.Passenger,
		"amount", hold.Amount,
		"attempt", hold.Attempts,
		"request_id", requestcontext.RequestID(ctx),
		"error", cause,
	)
}

// releaseHold is the compensating transaction for a transfer that was
// definitely not applied.
func (s *Service) releaseHold(ctx context.Context, hold models.WithdrawalHold, cause error) {
	ctx = context.WithoutCancel(ctx)
	err := s.store.RunInTx(ctx, func(tx *store.Tx) error {
		_, err := tx.ReleaseHold(hold.ID)
		return err
	})
	s.recordWithdrawal("failed", 0)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to release withdrawal hold",
			"hold_id", hold.ID,
			"passenger", hold.Passenger,
			"amount", hold.Amount,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return
	}
	s.logger.WarnContext(ctx, "withdrawal transfer failed, balance restored",
		"hold_id", hold.ID,
		"passenger", hold.Passenger,
		"amount", hold.Amount,
		"request_id", requestcontext.RequestID(ctx),
		"error", cause,
	)
}

func (s *Service) recordWithdrawal(outcome string, amount domain.Amount) {
	if s.metrics != nil {
		s.metrics.RecordWithdrawal(outcome, amount)
	}
}
