package service

import (
	"context"
	"errors"

	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/shard"
	"flightsurety/internal/ledger/store"
	"flightsurety/internal/notify"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/sentinel"
)

// ResponseOutcome reports what a reporter's answer did.
type ResponseOutcome struct {
	Status models.StatusCode `json:"status"`
	// Responses is the size of the status bucket after this answer.
	Responses int `json:"responses"`
	// Confirmed is true only for the answer that made the bucket reach
	// MinResponses.
	Confirmed  bool             `json:"confirmed"`
	Settlement SettlementResult `json:"settlement"`
}

// RegisterOracle registers reporter and assigns its three shard indexes.
// Draws from the shard source are not undone if the registration is
// rejected later in the transaction.
func (s *Service) RegisterOracle(ctx context.Context, reporter domain.Address, fee domain.Amount) (models.Oracle, error) {
	var oracle models.Oracle
	err := s.mutate(ctx, "register_oracle", func(t *txn) error {
		if reporter.IsZero() {
			return dErrors.New(dErrors.CodeInvalidInput, "oracle address is required")
		}
		if fee < models.OracleRegistrationFee {
			return dErrors.New(dErrors.CodeValidation, "registration fee must be at least "+models.OracleRegistrationFee.Ether()+" ether")
		}
		if _, err := t.Oracle(reporter); err == nil {
			return dErrors.New(dErrors.CodeConflict, "oracle is already registered")
		}
		o, err := t.RegisterOracle(reporter, shard.Assign(s.shards, reporter), fee, t.now)
		if err != nil {
			return storeErr(err, "oracle")
		}
		oracle = o
		t.emit(notify.Event{Type: notify.EventOracleRegistered, Account: reporter, Amount: fee})
		t.afterCommit(func() {
			if s.metrics != nil {
				s.metrics.IncrementOracleRegistered()
			}
		})
		return nil
	})
	if err != nil {
		return models.Oracle{}, err
	}
	return oracle, nil
}

// GetMyIndexes returns the shard indexes assigned to reporter.
func (s *Service) GetMyIndexes(ctx context.Context, reporter domain.Address) ([models.IndexesPerOracle]uint8, error) {
	var oracle models.Oracle
	err := s.view(ctx, "get_my_indexes", func(tx *store.Tx) error {
		o, err := tx.Oracle(reporter)
		if err != nil {
			return storeErr(err, "oracle")
		}
		oracle = o
		return nil
	})
	return oracle.Indexes, err
}

// RequestConfirmation opens a confirmation request in the shard drawn for
// requester and broadcasts it to reporters. Requesting the same flight again
// in the same shard re-opens the request and keeps its responses.
func (s *Service) RequestConfirmation(ctx context.Context, requester domain.Address, ref domain.FlightRef) (models.ConfirmationRequest, error) {
	var req models.ConfirmationRequest
	err := s.mutate(ctx, "request_confirmation", func(t *txn) error {
		if err := ref.Validate(); err != nil {
			return err
		}
		index := s.shards.Next(requester)
		r, reopened := t.OpenRequest(index, ref, requester, t.now)
		req = r
		e := flightEvent(notify.EventConfirmationRequested, ref)
		e.Account = requester
		e.Index = index
		t.emit(e)
		t.afterCommit(func() {
			if s.metrics != nil {
				s.metrics.IncrementConfirmationRequested()
			}
			s.logger.InfoContext(ctx, "confirmation requested",
				"index", index,
				"airline", ref.Airline,
				"flight", ref.Code,
				"timestamp", ref.Timestamp,
				"reopened", reopened,
			)
		})
		return nil
	})
	if err != nil {
		return models.ConfirmationRequest{}, err
	}
	return req, nil
}

// SubmitResponse records a reporter's answer. Every answer is kept, even
// after another status was confirmed. The answer that brings its status
// bucket to MinResponses confirms that status and, for payable statuses,
// settles the flight; settlement's one-shot guard makes the first confirmed
// payable status win.
func (s *Service) SubmitResponse(ctx context.Context, reporter domain.Address, index uint8, ref domain.FlightRef, code uint8) (ResponseOutcome, error) {
	var outcome ResponseOutcome
	err := s.mutate(ctx, "submit_response", func(t *txn) error {
		status, err := models.ParseStatusCode(code)
		if err != nil {
			return err
		}
		if err := ref.Validate(); err != nil {
			return err
		}
		oracle, err := t.Oracle(reporter)
		if err != nil {
			return storeErr(err, "oracle")
		}
		if !oracle.HasIndex(index) {
			return dErrors.New(dErrors.CodeValidation, "index does not match any of the oracle's shards")
		}
		key := domain.RequestKey(index, ref.Airline, ref.Code, ref.Timestamp)
		bucket, err := t.AppendResponse(key, status, reporter)
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeNotFound, "no open request for this flight in this shard")
		}
		if err != nil {
			return storeErr(err, "confirmation request")
		}
		outcome = ResponseOutcome{Status: status, Responses: bucket.Count()}
		e := flightEvent(notify.EventReporterResponded, ref)
		e.Account = reporter
		e.Index = index
		e.Status = uint8(status)
		t.emit(e)
		t.afterCommit(func() {
			if s.metrics != nil {
				s.metrics.IncrementResponse(status.String())
			}
		})

		if bucket.Count() != models.MinResponses {
			return nil
		}
		outcome.Confirmed = true
		confirmed := flightEvent(notify.EventStatusConfirmed, ref)
		confirmed.Index = index
		confirmed.Status = uint8(status)
		t.emit(confirmed)
		t.afterCommit(func() {
			if s.metrics != nil {
				s.metrics.IncrementStatusConfirmed(status.String())
			}
		})
		if !status.IsPayable() {
			return nil
		}
		outcome.Settlement, err = s.settle(t, ref, status, models.PayoutFactor)
		return err
	})
	if err != nil {
		return ResponseOutcome{}, err
	}
	return outcome, nil
}
