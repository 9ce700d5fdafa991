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

// RegisterFlight registers a flight owned by the calling airline and opens
// its empty insurance pool.
func (s *Service) RegisterFlight(ctx context.Context, caller domain.Address, code string, timestamp int64) (models.Flight, error) {
	ref := domain.FlightRef{Airline: caller, Code: code, Timestamp: timestamp}
	var flight models.Flight
	err := s.mutate(ctx, "register_flight", func(t *txn) error {
		if err := ref.Validate(); err != nil {
			return err
		}
		if err := requireParticipant(t, caller); err != nil {
			return err
		}
		f, err := t.RegisterFlight(ref, t.now)
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "flight is already registered")
		}
		if err != nil {
			return storeErr(err, "flight")
		}
		flight = f
		t.emit(flightEvent(notify.EventFlightRegistered, ref))
		t.afterCommit(func() {
			if s.metrics != nil {
				s.metrics.IncrementFlightRegistered()
			}
		})
		return nil
	})
	if err != nil {
		return models.Flight{}, err
	}
	return flight, nil
}

// Buy sells passenger a policy on a registered, unsettled flight.
func (s *Service) Buy(ctx context.Context, passenger domain.Address, ref domain.FlightRef, premium domain.Amount) (models.Policy, error) {
	var policy models.Policy
	err := s.mutate(ctx, "buy", func(t *txn) error {
		if passenger.IsZero() {
			return dErrors.New(dErrors.CodeInvalidInput, "passenger address is required")
		}
		if err := ref.Validate(); err != nil {
			return err
		}
		if premium == 0 || premium > models.MaxPremium {
			return dErrors.New(dErrors.CodeValidation, "premium must be more than 0 and at most "+models.MaxPremium.Ether()+" ether")
		}
		flight, err := t.Flight(ref.Key())
		if errors.Is(err, sentinel.ErrNotFound) || (err == nil && !flight.Registered) {
			return dErrors.New(dErrors.CodeNotFound, "flight is not registered")
		}
		if err != nil {
			return storeErr(err, "flight")
		}
		pool, err := t.Pool(flight.Key)
		if err != nil {
			return storeErr(err, "insurance pool")
		}
		if pool.Settled {
			return dErrors.New(dErrors.CodeValidation, "flight is already settled")
		}
		p, err := t.AddPolicy(flight.Key, passenger, premium, t.now)
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "passenger is already insured on this flight")
		}
		if err != nil {
			return storeErr(err, "policy")
		}
		policy = p
		e := flightEvent(notify.EventPassengerInsured, ref)
		e.Account = passenger
		e.Amount = premium
		t.emit(e)
		t.afterCommit(func() {
			if s.metrics != nil {
				s.metrics.IncrementPolicySold()
			}
		})
		return nil
	})
	if err != nil {
		return models.Policy{}, err
	}
	return policy, nil
}

func flightEvent(t notify.EventType, ref domain.FlightRef) notify.Event {
	return notify.Event{Type: t, Airline: ref.Airline, Flight: ref.Code, Timestamp: ref.Timestamp}
}
