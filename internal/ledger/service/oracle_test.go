package service

import (
	"flightsurety/internal/ledger/models"
	"flightsurety/internal/notify"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

// =============================================================================
// Oracle Registration Tests
// =============================================================================

func (s *LedgerSuite) registerOracles(n int) {
	for i := range n {
		_, err := s.svc.RegisterOracle(s.ctx, oracle(i), models.OracleRegistrationFee)
		s.Require().NoError(err)
	}
}

func (s *LedgerSuite) TestRegisterOracle() {
	s.Run("assigns three distinct indexes once", func() {
		o, err := s.svc.RegisterOracle(s.ctx, oracle(0), models.OracleRegistrationFee)
		s.Require().NoError(err)
		s.Equal([3]uint8{1, 2, 3}, o.Indexes)

		idx, err := s.svc.GetMyIndexes(s.ctx, oracle(0))
		s.Require().NoError(err)
		s.Equal(o.Indexes, idx)
	})

	s.Run("duplicate registration is a conflict", func() {
		_, err := s.svc.RegisterOracle(s.ctx, oracle(0), models.OracleRegistrationFee)
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("fee below minimum is rejected", func() {
		_, err := s.svc.RegisterOracle(s.ctx, oracle(1), models.OracleRegistrationFee-1)
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("unknown oracle has no indexes", func() {
		_, err := s.svc.GetMyIndexes(s.ctx, oracle(9))
		s.requireCode(err, dErrors.CodeNotFound)
	})
}

// =============================================================================
// Confirmation Request Tests
// =============================================================================

func (s *LedgerSuite) TestRequestConfirmation() {
	ref := s.registerFlight()
	s.registerOracles(3)

	req, err := s.svc.RequestConfirmation(s.ctx, passenger, ref)
	s.Require().NoError(err)
	s.Equal(uint8(1), req.Index)
	s.True(req.Open)
	s.Equal(domain.RequestKey(1, ref.Airline, ref.Code, ref.Timestamp), req.Key)

	broadcasts := s.recorder.Of(notify.EventConfirmationRequested)
	s.Require().Len(broadcasts, 1)
	s.Equal(uint8(1), broadcasts[0].Index)
	s.Equal(ref, broadcasts[0].FlightRef())
	s.Equal("req-1", broadcasts[0].RequestID)
}

func (s *LedgerSuite) TestRequestConfirmation_ReopenKeepsResponses() {
	ref := s.registerFlight()
	s.registerOracles(3)
	_, err := s.svc.RequestConfirmation(s.ctx, passenger, ref)
	s.Require().NoError(err)
	_, err = s.svc.SubmitResponse(s.ctx, oracle(0), 1, ref, uint8(models.StatusOnTime))
	s.Require().NoError(err)

	// The sequence yields 2 and 3 next, then 1 again.
	for range 2 {
		_, err = s.svc.RequestConfirmation(s.ctx, passenger, ref)
		s.Require().NoError(err)
	}
	req, err := s.svc.RequestConfirmation(s.ctx, airline(0), ref)
	s.Require().NoError(err)
	s.Equal(uint8(1), req.Index)
	s.Equal(airline(0), req.Requester)

	view, err := s.svc.GetRequest(s.ctx, 1, ref)
	s.Require().NoError(err)
	s.Equal([]domain.Address{oracle(0)}, view.Responses[models.StatusOnTime])
}

// =============================================================================
// Response Tests
// =============================================================================

func (s *LedgerSuite) TestSubmitResponse_Preconditions() {
	ref := s.registerFlight()
	s.registerOracles(1)

	s.Run("no open request", func() {
		_, err := s.svc.SubmitResponse(s.ctx, oracle(0), 1, ref, uint8(models.StatusOnTime))
		s.requireCode(err, dErrors.CodeNotFound)
	})

	_, err := s.svc.RequestConfirmation(s.ctx, passenger, ref)
	s.Require().NoError(err)

	s.Run("index outside the oracle's shards", func() {
		_, err := s.svc.SubmitResponse(s.ctx, oracle(0), 7, ref, uint8(models.StatusOnTime))
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("assigned index without an open request in that shard", func() {
		_, err := s.svc.SubmitResponse(s.ctx, oracle(0), 2, ref, uint8(models.StatusOnTime))
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("unregistered oracle", func() {
		_, err := s.svc.SubmitResponse(s.ctx, oracle(8), 1, ref, uint8(models.StatusOnTime))
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("unknown status code", func() {
		_, err := s.svc.SubmitResponse(s.ctx, oracle(0), 1, ref, 25)
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *LedgerSuite) TestSubmitResponse_MajorityTriggersSettlementOnce() {
	ref := s.registerFlight()
	_, err := s.svc.Buy(s.ctx, passenger, ref, 10_000_000)
	s.Require().NoError(err)
	s.registerOracles(4)
	_, err = s.svc.RequestConfirmation(s.ctx, passenger, ref)
	s.Require().NoError(err)

	late := uint8(models.StatusLateAirline)
	for i := range 2 {
		out, err := s.svc.SubmitResponse(s.ctx, oracle(i), 1, ref, late)
		s.Require().NoError(err)
		s.False(out.Confirmed)
		s.Equal(i+1, out.Responses)
	}
	s.Equal(domain.Amount(0), s.balance(passenger))

	third, err := s.svc.SubmitResponse(s.ctx, oracle(2), 1, ref, late)
	s.Require().NoError(err)
	s.True(third.Confirmed)
	s.True(third.Settlement.Applied)
	s.Equal(domain.Amount(15_000_000), s.balance(passenger))

	fourth, err := s.svc.SubmitResponse(s.ctx, oracle(3), 1, ref, late)
	s.Require().NoError(err)
	s.False(fourth.Confirmed)
	s.Equal(4, fourth.Responses)
	s.Equal(domain.Amount(15_000_000), s.balance(passenger), "fourth response must not re-credit")

	s.Len(s.recorder.Of(notify.EventStatusConfirmed), 1)
	s.Len(s.recorder.Of(notify.EventReporterResponded), 4)
}

func (s *LedgerSuite) TestSubmitResponse_NonPayableStatusDoesNotSettle() {
	ref := s.registerFlight()
	_, err := s.svc.Buy(s.ctx, passenger, ref, 10_000_000)
	s.Require().NoError(err)
	s.registerOracles(3)
	_, err = s.svc.RequestConfirmation(s.ctx, passenger, ref)
	s.Require().NoError(err)

	var out ResponseOutcome
	for i := range 3 {
		out, err = s.svc.SubmitResponse(s.ctx, oracle(i), 1, ref, uint8(models.StatusLateWeather))
		s.Require().NoError(err)
	}
	s.True(out.Confirmed)
	s.False(out.Settlement.Applied)
	s.Equal(domain.Amount(0), s.balance(passenger))

	f, err := s.svc.GetFlight(s.ctx, ref)
	s.Require().NoError(err)
	s.Equal(models.StatusUnknown, f.Status)
}

func (s *LedgerSuite) TestSubmitResponse_ConflictingStatusesFirstPayableWins() {
	ref := s.registerFlight()
	_, err := s.svc.Buy(s.ctx, passenger, ref, 10_000_000)
	s.Require().NoError(err)
	s.registerOracles(3)
	_, err = s.svc.RequestConfirmation(s.ctx, passenger, ref)
	s.Require().NoError(err)

	for i := range 3 {
		_, err = s.svc.SubmitResponse(s.ctx, oracle(i), 1, ref, uint8(models.StatusLateAirline))
		s.Require().NoError(err)
	}
	// The same reporters then confirm a different status; answers are kept.
	var out ResponseOutcome
	for i := range 3 {
		out, err = s.svc.SubmitResponse(s.ctx, oracle(i), 1, ref, uint8(models.StatusOnTime))
		s.Require().NoError(err)
	}
	s.True(out.Confirmed)

	f, err := s.svc.GetFlight(s.ctx, ref)
	s.Require().NoError(err)
	s.Equal(models.StatusLateAirline, f.Status)
	s.Equal(domain.Amount(15_000_000), s.balance(passenger))
	s.Len(s.recorder.Of(notify.EventStatusConfirmed), 2)

	view, err := s.svc.GetRequest(s.ctx, 1, ref)
	s.Require().NoError(err)
	s.Len(view.Responses, 2)
}

func (s *LedgerSuite) TestSubmitResponse_DuplicateReporterCounts() {
	ref := s.registerFlight()
	s.registerOracles(1)
	_, err := s.svc.RequestConfirmation(s.ctx, passenger, ref)
	s.Require().NoError(err)

	var out ResponseOutcome
	for range 3 {
		out, err = s.svc.SubmitResponse(s.ctx, oracle(0), 1, ref, uint8(models.StatusOnTime))
		s.Require().NoError(err)
	}
	s.Equal(3, out.Responses)
	s.True(out.Confirmed)
}
