package insurance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"

	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/service"
	"flightsurety/internal/payout"
	httptransport "flightsurety/internal/transport/http"
	"flightsurety/pkg/domain"
)

// TestContext is the slice of the scenario context these steps need.
type TestContext interface {
	Address(alias string) domain.Address
	ActAs(alias string)
	Departure() int64
	POST(path string, body any) error
	GET(path string) error
	ExpectStatus(status int) error
	Decode(v any) error
	Accounts() *payout.MemoryLedger
}

// RegisterSteps registers flight registration, purchase and withdrawal steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &insuranceSteps{tc: tc}
	ctx.Step(`^"([^"]*)" registers flight "([^"]*)"$`, steps.registerFlight)
	ctx.Step(`^"([^"]*)" buys insurance for ([\d.]+) ether on "([^"]*)" flight "([^"]*)"$`, steps.buy)
	ctx.Step(`^"([^"]*)" flight "([^"]*)" should have status (\d+)$`, steps.flightStatus)
	ctx.Step(`^"([^"]*)" should be credited ([\d.]+) ether on "([^"]*)" flight "([^"]*)"$`, steps.credited)
	ctx.Step(`^"([^"]*)" should have a balance of ([\d.]+) ether$`, steps.balance)
	ctx.Step(`^"([^"]*)" withdraws$`, steps.withdraw)
	ctx.Step(`^the withdrawal should pay ([\d.]+) ether$`, steps.withdrawalPaid)
	ctx.Step(`^"([^"]*)" should have received ([\d.]+) ether$`, steps.received)
}

type insuranceSteps struct {
	tc TestContext
}

func (s *insuranceSteps) flight(airline, code string) httptransport.FlightBody {
	return httptransport.FlightBody{Airline: s.tc.Address(airline).String(), Flight: code, Timestamp: s.tc.Departure()}
}

func (s *insuranceSteps) flightPath(airline, code string) string {
	return s.tc.Address(airline).String() + "/" + code + "/" + strconv.FormatInt(s.tc.Departure(), 10)
}

func (s *insuranceSteps) registerFlight(airline, code string) error {
	s.tc.ActAs(airline)
	return s.tc.POST("/flights", httptransport.RegisterFlightRequest{Code: code, Timestamp: s.tc.Departure()})
}

func (s *insuranceSteps) buy(passenger, ether, airline, code string) error {
	amount, err := domain.ParseEther(ether)
	if err != nil {
		return err
	}
	s.tc.ActAs(passenger)
	return s.tc.POST("/insurance", httptransport.BuyRequest{FlightBody: s.flight(airline, code), Amount: amount})
}

func (s *insuranceSteps) flightStatus(airline, code string, status int) error {
	if err := s.tc.GET("/flights/" + s.flightPath(airline, code)); err != nil {
		return err
	}
	if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
		return err
	}
	var flight models.Flight
	if err := s.tc.Decode(&flight); err != nil {
		return err
	}
	if int(flight.Status) != status {
		return fmt.Errorf("expected flight status %d, got %d", status, flight.Status)
	}
	return nil
}

func (s *insuranceSteps) credited(passenger, ether, airline, code string) error {
	want, err := domain.ParseEther(ether)
	if err != nil {
		return err
	}
	s.tc.ActAs(passenger)
	if err := s.tc.GET("/insurance/" + s.flightPath(airline, code)); err != nil {
		return err
	}
	if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
		return err
	}
	var policy models.Policy
	if err := s.tc.Decode(&policy); err != nil {
		return err
	}
	if policy.Credit != want {
		return fmt.Errorf("expected credit of %s ether, got %s", want.Ether(), policy.Credit.Ether())
	}
	return nil
}

func (s *insuranceSteps) balance(passenger, ether string) error {
	want, err := domain.ParseEther(ether)
	if err != nil {
		return err
	}
	s.tc.ActAs(passenger)
	if err := s.tc.GET("/insurance/balance"); err != nil {
		return err
	}
	var resp httptransport.BalanceResponse
	if err := s.tc.Decode(&resp); err != nil {
		return err
	}
	if resp.Balance != want {
		return fmt.Errorf("expected balance of %s ether, got %s", want.Ether(), resp.Balance.Ether())
	}
	return nil
}

func (s *insuranceSteps) withdraw(passenger string) error {
	s.tc.ActAs(passenger)
	return s.tc.POST("/insurance/withdraw", nil)
}

func (s *insuranceSteps) withdrawalPaid(ether string) error {
	want, err := domain.ParseEther(ether)
	if err != nil {
		return err
	}
	if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
		return err
	}
	var res service.WithdrawalResult
	if err := s.tc.Decode(&res); err != nil {
		return err
	}
	if res.Amount != want {
		return fmt.Errorf("expected withdrawal of %s ether, got %s", want.Ether(), res.Amount.Ether())
	}
	return nil
}

func (s *insuranceSteps) received(passenger, ether string) error {
	want, err := domain.ParseEther(ether)
	if err != nil {
		return err
	}
	got, err := s.tc.Accounts().Received(context.Background(), s.tc.Address(passenger))
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected %s ether paid out, got %s", want.Ether(), got.Ether())
	}
	return nil
}
