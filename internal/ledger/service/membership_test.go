package service

import (
	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/store"
	"flightsurety/internal/notify"
	dErrors "flightsurety/pkg/domain-errors"
)

// =============================================================================
// Bootstrap Tests
// =============================================================================

func (s *LedgerSuite) TestBootstrap() {
	s.Run("genesis member is registered and funded with id 1", func() {
		a, err := s.svc.GetAirline(s.ctx, airline(0))
		s.Require().NoError(err)
		s.Equal(uint64(1), a.ID)
		s.True(a.Registered)
		s.True(a.Funded)
		s.Equal(1, s.fundedCount())
	})

	s.Run("second bootstrap is a conflict", func() {
		_, err := s.svc.Bootstrap(s.ctx, airline(9))
		s.requireCode(err, dErrors.CodeConflict)
	})
}

// =============================================================================
// Admission Tests
// =============================================================================

func (s *LedgerSuite) TestAdmit_FoundingPhase() {
	s.Run("admission is unconditional while fewer than four are funded", func() {
		for i := 1; i < models.FoundingThreshold; i++ {
			res, err := s.svc.Admit(s.ctx, airline(0), airline(i))
			s.Require().NoError(err)
			s.True(res.Admitted)
			s.Equal(0, res.Votes)
			s.Equal(uint64(i+1), res.Airline.ID, "ids follow admission order")
		}
		s.Len(s.recorder.Of(notify.EventMemberAdmitted), 3)
	})

	s.Run("admitted but unfunded member cannot admit", func() {
		_, err := s.svc.Admit(s.ctx, airline(1), airline(7))
		s.requireCode(err, dErrors.CodeForbidden)
	})

	s.Run("stranger cannot admit", func() {
		_, err := s.svc.Admit(s.ctx, airline(8), airline(7))
		s.requireCode(err, dErrors.CodeForbidden)
	})

	s.Run("already registered candidate is a conflict", func() {
		_, err := s.svc.Admit(s.ctx, airline(0), airline(1))
		s.requireCode(err, dErrors.CodeConflict)
	})
}

func (s *LedgerSuite) TestAdmit_Boundary() {
	s.fundedMembers(3)

	res, err := s.svc.Admit(s.ctx, airline(0), airline(3))
	s.Require().NoError(err)
	s.True(res.Admitted, "three funded members is still the founding phase")

	_, err = s.svc.Fund(s.ctx, airline(3), airline(3), models.MinAirlineStake)
	s.Require().NoError(err)
	s.Equal(models.FoundingThreshold, s.fundedCount())

	res, err = s.svc.Admit(s.ctx, airline(0), airline(4))
	s.Require().NoError(err)
	s.False(res.Admitted, "voting starts exactly at four funded members")
	s.Equal(1, res.Votes)
}

func (s *LedgerSuite) TestAdmit_Quorum() {
	s.fundedMembers(4)

	s.Run("a single vote never admits", func() {
		res, err := s.svc.Admit(s.ctx, airline(1), airline(4))
		s.Require().NoError(err)
		s.False(res.Admitted)
		s.Equal(1, res.Votes)
		_, err = s.svc.GetAirline(s.ctx, airline(4))
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("repeat vote is rejected and not counted", func() {
		_, err := s.svc.Admit(s.ctx, airline(1), airline(4))
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("second distinct vote admits", func() {
		res, err := s.svc.Admit(s.ctx, airline(2), airline(4))
		s.Require().NoError(err)
		s.True(res.Admitted)
		s.Equal(2, res.Votes)
		s.Equal(uint64(5), res.Airline.ID)
	})

	s.Run("vote record is cleared after admission", func() {
		s.Require().NoError(s.store.View(s.ctx, func(tx *store.Tx) error {
			_, err := tx.Votes(airline(4))
			s.Error(err)
			return nil
		}))
	})
}

func (s *LedgerSuite) TestAdmit_QuorumGrowsWithMembers() {
	s.fundedMembers(6)

	for _, voter := range []int{0, 1} {
		res, err := s.svc.Admit(s.ctx, airline(voter), airline(6))
		s.Require().NoError(err)
		s.False(res.Admitted, "six funded members need three votes")
	}
	res, err := s.svc.Admit(s.ctx, airline(2), airline(6))
	s.Require().NoError(err)
	s.True(res.Admitted)
	s.Equal(3, res.Votes)
}

// =============================================================================
// Funding Tests
// =============================================================================

func (s *LedgerSuite) TestFund() {
	_, err := s.svc.Admit(s.ctx, airline(0), airline(1))
	s.Require().NoError(err)

	s.Run("members can only fund themselves", func() {
		_, err := s.svc.Fund(s.ctx, airline(0), airline(1), models.MinAirlineStake)
		s.requireCode(err, dErrors.CodeForbidden)
	})

	s.Run("stake below minimum is rejected", func() {
		_, err := s.svc.Fund(s.ctx, airline(1), airline(1), models.MinAirlineStake-1)
		s.requireCode(err, dErrors.CodeValidation)
		s.Equal(1, s.fundedCount())
	})

	s.Run("unregistered member cannot fund", func() {
		_, err := s.svc.Fund(s.ctx, airline(5), airline(5), models.MinAirlineStake)
		s.requireCode(err, dErrors.CodeForbidden)
	})

	s.Run("repeat funding succeeds but counts once", func() {
		_, err := s.svc.Fund(s.ctx, airline(1), airline(1), models.MinAirlineStake)
		s.Require().NoError(err)
		a, err := s.svc.Fund(s.ctx, airline(1), airline(1), models.MinAirlineStake)
		s.Require().NoError(err)
		s.Equal(2*models.MinAirlineStake, a.Stake)
		s.Equal(2, s.fundedCount())
		s.Len(s.recorder.Of(notify.EventMemberFunded), 2)
	})
}

// =============================================================================
// End-to-End Membership Scenario
// =============================================================================

func (s *LedgerSuite) TestMembershipScenario() {
	// A0 founds and funds itself at genesis, then admits A1..A3 unilaterally.
	for i := 1; i <= 3; i++ {
		res, err := s.svc.Admit(s.ctx, airline(0), airline(i))
		s.Require().NoError(err)
		s.Require().True(res.Admitted)
		_, err = s.svc.Fund(s.ctx, airline(i), airline(i), models.MinAirlineStake)
		s.Require().NoError(err)
		s.Equal(i+1, s.fundedCount())
	}

	// A4 needs floor(4/2) = 2 votes.
	res, err := s.svc.Admit(s.ctx, airline(1), airline(4))
	s.Require().NoError(err)
	s.False(res.Admitted)

	res, err = s.svc.Admit(s.ctx, airline(2), airline(4))
	s.Require().NoError(err)
	s.True(res.Admitted)

	ids := make([]uint64, 0, 5)
	for i := 0; i <= 4; i++ {
		a, err := s.svc.GetAirline(s.ctx, airline(i))
		s.Require().NoError(err)
		ids = append(ids, a.ID)
	}
	s.Equal([]uint64{1, 2, 3, 4, 5}, ids)
}
