package service

import (
	"context"
	"errors"

	"flightsurety/internal/ledger/models"
	"flightsurety/internal/notify"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/sentinel"
)

// AdmissionResult reports the outcome of an admission call. Airline is set
// only when the candidate was admitted.
type AdmissionResult struct {
	Admitted bool           `json:"admitted"`
	Votes    int            `json:"votes"`
	Airline  models.Airline `json:"airline"`
}

// Bootstrap registers and funds the genesis member. It bypasses the gate and
// can run only on an empty ledger.
func (s *Service) Bootstrap(ctx context.Context, genesis domain.Address) (models.Airline, error) {
	ctx, span := s.tracer.Start(ctx, "bootstrap")
	defer span.End()

	var airline models.Airline
	err := s.commit(ctx, span, "bootstrap", func(t *txn) error {
		if genesis.IsZero() {
			return dErrors.New(dErrors.CodeInvalidInput, "genesis airline is required")
		}
		if t.AirlineCount() > 0 {
			return dErrors.New(dErrors.CodeConflict, "ledger already bootstrapped")
		}
		if _, err := t.AdmitAirline(genesis, t.now); err != nil {
			return storeErr(err, "airline")
		}
		var err error
		if airline, _, err = t.AddStake(genesis, 0); err != nil {
			return storeErr(err, "airline")
		}
		t.emit(notify.Event{Type: notify.EventMemberAdmitted, Account: genesis})
		t.emit(notify.Event{Type: notify.EventMemberFunded, Account: genesis})
		t.afterCommit(func() {
			if s.metrics != nil {
				s.metrics.IncrementAdmission("genesis")
				s.metrics.IncrementFunding(true)
			}
		})
		return nil
	})
	if err != nil {
		return models.Airline{}, err
	}
	s.logger.InfoContext(ctx, "ledger bootstrapped", "genesis", genesis, "airline_id", airline.ID)
	return airline, nil
}

// Admit lets a participating member admit candidate. While fewer than
// FoundingThreshold members are funded the candidate joins immediately;
// afterwards the call is a vote and the candidate joins once
// AdmissionQuorum distinct members have voted.
func (s *Service) Admit(ctx context.Context, caller, candidate domain.Address) (AdmissionResult, error) {
	var result AdmissionResult
	err := s.mutate(ctx, "admit", func(t *txn) error {
		if candidate.IsZero() {
			return dErrors.New(dErrors.CodeInvalidInput, "candidate address is required")
		}
		if err := requireParticipant(t, caller); err != nil {
			return err
		}
		if _, err := t.Airline(candidate); err == nil {
			return dErrors.New(dErrors.CodeConflict, "airline is already registered")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return storeErr(err, "airline")
		}

		funded := t.FundedCount()
		if models.InFoundingPhase(funded) {
			airline, err := t.AdmitAirline(candidate, t.now)
			if err != nil {
				return storeErr(err, "airline")
			}
			result = AdmissionResult{Admitted: true, Airline: airline}
			t.emit(notify.Event{Type: notify.EventMemberAdmitted, Account: candidate, Airline: caller})
			t.afterCommit(func() { s.countAdmission("founding") })
			return nil
		}

		record, err := t.RecordVote(candidate, caller)
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return dErrors.New(dErrors.CodeConflict, "caller already voted for this candidate")
		}
		if err != nil {
			return storeErr(err, "vote")
		}
		result = AdmissionResult{Votes: record.Count()}
		t.emit(notify.Event{Type: notify.EventVoteRecorded, Account: candidate, Airline: caller, Votes: record.Count()})
		t.afterCommit(func() {
			if s.metrics != nil {
				s.metrics.IncrementVote()
			}
		})
		if record.Count() < models.AdmissionQuorum(funded) {
			return nil
		}

		airline, err := t.AdmitAirline(candidate, t.now)
		if err != nil {
			return storeErr(err, "airline")
		}
		t.ClearVotes(candidate)
		result.Admitted = true
		result.Airline = airline
		t.emit(notify.Event{Type: notify.EventMemberAdmitted, Account: candidate, Airline: caller, Votes: record.Count()})
		t.afterCommit(func() { s.countAdmission("quorum") })
		return nil
	})
	if err != nil {
		return AdmissionResult{}, err
	}
	return result, nil
}

// Fund adds stake for the caller's own membership. Only the first funding
// counts towards the funded-member total; later ones just add stake.
func (s *Service) Fund(ctx context.Context, caller, member domain.Address, stake domain.Amount) (models.Airline, error) {
	var airline models.Airline
	err := s.mutate(ctx, "fund", func(t *txn) error {
		if caller != member {
			return dErrors.New(dErrors.CodeForbidden, "airlines can only fund themselves")
		}
		if stake < models.MinAirlineStake {
			return dErrors.New(dErrors.CodeValidation, "stake must be at least "+models.MinAirlineStake.Ether()+" ether")
		}
		a, first, err := t.AddStake(member, stake)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeForbidden, "airline is not registered")
		}
		if err != nil {
			return storeErr(err, "airline")
		}
		airline = a
		t.emit(notify.Event{Type: notify.EventMemberFunded, Account: member, Amount: stake})
		t.afterCommit(func() {
			if s.metrics != nil {
				s.metrics.IncrementFunding(first)
			}
		})
		return nil
	})
	if err != nil {
		return models.Airline{}, err
	}
	return airline, nil
}

// requireParticipant rejects callers that are not registered and funded.
func requireParticipant(t *txn, caller domain.Address) error {
	airline, err := t.Airline(caller)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeForbidden, "caller is not a registered airline")
	}
	if err != nil {
		return storeErr(err, "airline")
	}
	if !airline.CanParticipate() {
		return dErrors.New(dErrors.CodeForbidden, "caller airline is not funded")
	}
	return nil
}

func (s *Service) countAdmission(phase string) {
	if s.metrics != nil {
		s.metrics.IncrementAdmission(phase)
	}
}
