package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"flightsurety/internal/ledger/models"
	"flightsurety/internal/notify"
	"flightsurety/internal/payout"
	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
	"flightsurety/pkg/platform/sentinel"
)

// =============================================================================
// Settlement Tests
// =============================================================================

func (s *LedgerSuite) TestSettle() {
	ref := s.registerFlight()
	_, err := s.svc.Buy(s.ctx, passenger, ref, 10_000_000)
	s.Require().NoError(err)

	s.Run("late airline credits 150 percent exactly once", func() {
		res, err := s.svc.Settle(s.ctx, ref, models.StatusLateAirline, models.PayoutFactor)
		s.Require().NoError(err)
		s.True(res.Applied)
		s.Equal(1, res.Policies)
		s.Equal(domain.Amount(15_000_000), res.Credited)

		p, err := s.svc.GetCredit(s.ctx, passenger, ref)
		s.Require().NoError(err)
		s.Equal(domain.Amount(15_000_000), p.Credit)
		s.Equal(domain.Amount(15_000_000), s.balance(passenger))

		f, err := s.svc.GetFlight(s.ctx, ref)
		s.Require().NoError(err)
		s.Equal(models.StatusLateAirline, f.Status)
	})

	s.Run("settling again is a silent no-op", func() {
		res, err := s.svc.Settle(s.ctx, ref, models.StatusLateAirline, models.PayoutFactor)
		s.Require().NoError(err)
		s.False(res.Applied)
		s.Equal(domain.Amount(15_000_000), s.balance(passenger))
		s.Len(s.recorder.Of(notify.EventInsuranceCredited), 1)
	})

	s.Run("settled flight no longer sells policies", func() {
		_, err := s.svc.Buy(s.ctx, domain.AddressFromSeed("late-buyer"), ref, 1)
		s.requireCode(err, dErrors.CodeValidation)
	})
}

func (s *LedgerSuite) TestSettle_NoOps() {
	ref := s.registerFlight()

	s.Run("unknown flight", func() {
		unknown := ref
		unknown.Code = "XX0000"
		res, err := s.svc.Settle(s.ctx, unknown, models.StatusLateAirline, models.PayoutFactor)
		s.Require().NoError(err)
		s.False(res.Applied)
	})

	s.Run("empty pool is left unsettled", func() {
		res, err := s.svc.Settle(s.ctx, ref, models.StatusLateAirline, models.PayoutFactor)
		s.Require().NoError(err)
		s.False(res.Applied)

		_, err = s.svc.Buy(s.ctx, passenger, ref, 100)
		s.Require().NoError(err, "pool still accepts policies")
		res, err = s.svc.Settle(s.ctx, ref, models.StatusLateAirline, models.PayoutFactor)
		s.Require().NoError(err)
		s.True(res.Applied)
		s.Equal(domain.Amount(150), s.balance(passenger))
	})
}

func (s *LedgerSuite) TestSettle_TruncatesTowardZero() {
	ref := s.registerFlight()
	_, err := s.svc.Buy(s.ctx, passenger, ref, 3)
	s.Require().NoError(err)

	res, err := s.svc.Settle(s.ctx, ref, models.StatusLateAirline, models.PayoutFactor)
	s.Require().NoError(err)
	s.Equal(domain.Amount(4), res.Credited, "3 * 150 / 100 = 4.5 truncates to 4")
}

// =============================================================================
// Withdrawal Tests
// =============================================================================

func (s *LedgerSuite) creditPassenger(premium domain.Amount) domain.Amount {
	ref := s.registerFlight()
	_, err := s.svc.Buy(s.ctx, passenger, ref, premium)
	s.Require().NoError(err)
	res, err := s.svc.Settle(s.ctx, ref, models.StatusLateAirline, models.PayoutFactor)
	s.Require().NoError(err)
	s.Require().True(res.Applied)
	return res.Credited
}

func (s *LedgerSuite) TestWithdraw() {
	credited := s.creditPassenger(10_000_000)

	s.Run("transfers exactly the prior balance and zeroes it", func() {
		s.accounts.EXPECT().
			Transfer(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, t models.Transfer) error {
				s.Equal(passenger, t.To)
				s.Equal(credited, t.Amount)
				s.Equal(domain.Amount(0), s.balance(passenger), "balance is cleared before the transfer")
				return nil
			})

		res, err := s.svc.Withdraw(s.ctx, passenger)
		s.Require().NoError(err)
		s.Equal(credited, res.Amount)
		s.Equal(domain.Amount(0), s.balance(passenger))
		s.Len(s.recorder.Of(notify.EventPassengerWithdrawn), 1)
	})

	s.Run("second withdraw is a no-op that transfers nothing", func() {
		res, err := s.svc.Withdraw(s.ctx, passenger)
		s.Require().NoError(err)
		s.Equal(domain.Amount(0), res.Amount)
	})
}

func (s *LedgerSuite) TestWithdraw_ReentrantCallSeesZero() {
	credited := s.creditPassenger(10_000_000)

	s.accounts.EXPECT().
		Transfer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, t models.Transfer) error {
			inner, err := s.svc.Withdraw(ctx, passenger)
			s.Require().NoError(err)
			s.Equal(domain.Amount(0), inner.Amount, "re-entrant withdraw must find nothing")
			return nil
		}).
		Times(1)

	res, err := s.svc.Withdraw(s.ctx, passenger)
	s.Require().NoError(err)
	s.Equal(credited, res.Amount)
	s.Equal(domain.Amount(0), s.balance(passenger))
}

func (s *LedgerSuite) TestWithdraw_TransferFailureRestoresBalance() {
	credited := s.creditPassenger(10_000_000)

	s.accounts.EXPECT().
		Transfer(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("account ledger rejected payout: %w", sentinel.ErrNotApplied))

	_, err := s.svc.Withdraw(s.ctx, passenger)
	s.requireCode(err, dErrors.CodeInternal)
	s.Equal(credited, s.balance(passenger))
	s.Empty(s.recorder.Of(notify.EventPassengerWithdrawn))
}

func (s *LedgerSuite) TestWithdraw_UnknownOutcomeRetriesSameTransfer() {
	credited := s.creditPassenger(10_000_000)
	accounts := payout.NewMemory()
	var ids []uuid.UUID

	gomock.InOrder(
		s.accounts.EXPECT().
			Transfer(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, t models.Transfer) error {
				ids = append(ids, t.ID)
				s.Require().NoError(accounts.Transfer(ctx, t))
				return errors.New("i/o timeout after commit")
			}),
		s.accounts.EXPECT().
			Transfer(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, t models.Transfer) error {
				ids = append(ids, t.ID)
				return accounts.Transfer(ctx, t)
			}),
	)

	_, err := s.svc.Withdraw(s.ctx, passenger)
	s.requireCode(err, dErrors.CodeUnavailable)
	s.Equal(domain.Amount(0), s.balance(passenger), "an unknown outcome must not restore the balance")

	res, err := s.svc.Withdraw(s.ctx, passenger)
	s.Require().NoError(err)
	s.Equal(credited, res.Amount)
	s.Equal(2, res.Attempts)

	s.Require().Len(ids, 2)
	s.Equal(ids[0], ids[1], "the retry reuses the transfer id")
	s.Equal(ids[0], res.HoldID)
	paid, err := accounts.Received(s.ctx, passenger)
	s.Require().NoError(err)
	s.Equal(credited, paid, "paid exactly once")
	s.Len(s.recorder.Of(notify.EventPassengerWithdrawn), 1)

	res, err = s.svc.Withdraw(s.ctx, passenger)
	s.Require().NoError(err)
	s.Equal(domain.Amount(0), res.Amount)
}

func (s *LedgerSuite) TestWithdraw_SuspendedTransferBeforeNewCredit() {
	first := s.creditPassenger(10_000_000)

	s.accounts.EXPECT().
		Transfer(gomock.Any(), gomock.Any()).
		Return(errors.New("connection reset"))
	_, err := s.svc.Withdraw(s.ctx, passenger)
	s.requireCode(err, dErrors.CodeUnavailable)

	second := domain.FlightRef{Airline: airline(0), Code: "ND1310", Timestamp: s.flight().Timestamp}
	_, err = s.svc.RegisterFlight(s.ctx, second.Airline, second.Code, second.Timestamp)
	s.Require().NoError(err)
	_, err = s.svc.Buy(s.ctx, passenger, second, 100)
	s.Require().NoError(err)
	_, err = s.svc.Settle(s.ctx, second, models.StatusLateAirline, models.PayoutFactor)
	s.Require().NoError(err)

	s.accounts.EXPECT().
		Transfer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, t models.Transfer) error {
			s.Equal(first, t.Amount, "the suspended amount is retried on its own")
			return nil
		})
	res, err := s.svc.Withdraw(s.ctx, passenger)
	s.Require().NoError(err)
	s.Equal(first, res.Amount)
	s.Equal(domain.Amount(150), s.balance(passenger))
}

func (s *LedgerSuite) TestWithdraw_TransferPanicSuspendsHold() {
	credited := s.creditPassenger(10_000_000)

	s.accounts.EXPECT().
		Transfer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.Transfer) error {
			panic("driver bug")
		})

	s.Panics(func() {
		_, _ = s.svc.Withdraw(s.ctx, passenger)
	})
	s.Equal(domain.Amount(0), s.balance(passenger))

	s.accounts.EXPECT().Transfer(gomock.Any(), gomock.Any()).Return(nil)
	res, err := s.svc.Withdraw(s.ctx, passenger)
	s.Require().NoError(err)
	s.Equal(credited, res.Amount)
}

func (s *LedgerSuite) TestWithdraw_KeepsCreditAccruedDuringTransfer() {
	credited := s.creditPassenger(10_000_000)
	second := domain.FlightRef{Airline: airline(0), Code: "ND1310", Timestamp: s.flight().Timestamp}
	_, err := s.svc.RegisterFlight(s.ctx, second.Airline, second.Code, second.Timestamp)
	s.Require().NoError(err)
	_, err = s.svc.Buy(s.ctx, passenger, second, 100)
	s.Require().NoError(err)

	s.accounts.EXPECT().
		Transfer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ models.Transfer) error {
			_, err := s.svc.Settle(ctx, second, models.StatusLateAirline, models.PayoutFactor)
			s.Require().NoError(err)
			return fmt.Errorf("payout refused: %w", sentinel.ErrNotApplied)
		})

	_, err = s.svc.Withdraw(s.ctx, passenger)
	s.Require().Error(err)
	s.Equal(credited+150, s.balance(passenger))
}
