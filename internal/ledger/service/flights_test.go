package service

import (
	"flightsurety/internal/ledger/models"
	"flightsurety/internal/notify"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

// =============================================================================
// Flight Registration Tests
// =============================================================================

func (s *LedgerSuite) TestRegisterFlight() {
	ref := s.flight()

	s.Run("funded airline registers a flight with unknown status", func() {
		f, err := s.svc.RegisterFlight(s.ctx, ref.Airline, ref.Code, ref.Timestamp)
		s.Require().NoError(err)
		s.Equal(uint64(1), f.ID)
		s.Equal(ref.Key(), f.Key)
		s.Equal(models.StatusUnknown, f.Status)
		s.Len(s.recorder.Of(notify.EventFlightRegistered), 1)
	})

	s.Run("same airline, code and time is a conflict and changes nothing", func() {
		_, err := s.svc.RegisterFlight(s.ctx, ref.Airline, ref.Code, ref.Timestamp)
		s.requireCode(err, dErrors.CodeConflict)
		n, err := s.svc.FlightCount(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, n)
	})

	s.Run("unfunded airline cannot register flights", func() {
		_, err := s.svc.Admit(s.ctx, airline(0), airline(1))
		s.Require().NoError(err)
		_, err = s.svc.RegisterFlight(s.ctx, airline(1), "ND2000", ref.Timestamp)
		s.requireCode(err, dErrors.CodeForbidden)
	})

	s.Run("invalid flight reference is rejected", func() {
		_, err := s.svc.RegisterFlight(s.ctx, ref.Airline, "", ref.Timestamp)
		s.requireCode(err, dErrors.CodeInvalidInput)
	})
}

// =============================================================================
// Insurance Purchase Tests
// =============================================================================

func (s *LedgerSuite) TestBuy() {
	ref := s.registerFlight()

	s.Run("credit query after purchase shows insured with zero credit", func() {
		_, err := s.svc.Buy(s.ctx, passenger, ref, 10_000_000)
		s.Require().NoError(err)

		p, err := s.svc.GetCredit(s.ctx, passenger, ref)
		s.Require().NoError(err)
		s.True(p.Insured)
		s.Equal(domain.Amount(10_000_000), p.InsuredFor)
		s.Equal(domain.Amount(0), p.Credit)
	})

	s.Run("second policy on the same flight is a conflict", func() {
		_, err := s.svc.Buy(s.ctx, passenger, ref, 1)
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("premium bounds", func() {
		other := domain.AddressFromSeed("other-passenger")
		_, err := s.svc.Buy(s.ctx, other, ref, 0)
		s.requireCode(err, dErrors.CodeValidation)
		_, err = s.svc.Buy(s.ctx, other, ref, models.MaxPremium+1)
		s.requireCode(err, dErrors.CodeValidation)
		_, err = s.svc.Buy(s.ctx, other, ref, models.MaxPremium)
		s.NoError(err, "exactly the maximum premium is allowed")
	})

	s.Run("unregistered flight", func() {
		unknown := ref
		unknown.Code = "XX0000"
		_, err := s.svc.Buy(s.ctx, passenger, unknown, 1)
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("no policy is a distinguishable not found", func() {
		_, err := s.svc.GetCredit(s.ctx, domain.AddressFromSeed("nobody"), ref)
		s.requireCode(err, dErrors.CodeNotFound)
	})
}
