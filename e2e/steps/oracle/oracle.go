package oracle

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/cucumber/godog"

	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/service"
	"flightsurety/internal/notify"
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
	Events(t notify.EventType) []notify.Event
}

// RegisterSteps registers reporter registration and response steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &oracleSteps{tc: tc}
	ctx.Step(`^(\d+) reporters are registered$`, steps.registerReporters)
	ctx.Step(`^"([^"]*)" requests confirmation of "([^"]*)" flight "([^"]*)"$`, steps.requestConfirmation)
	ctx.Step(`^(\d+) reporters? answers? status (\d+)$`, steps.answer)
	ctx.Step(`^the flight should (not )?be confirmed$`, steps.confirmed)
	ctx.Step(`^a "([^"]*)" event should have been published$`, steps.eventPublished)
}

type oracleSteps struct {
	tc        TestContext
	reporters []string
	next      int
	index     uint8
	flight    httptransport.FlightBody
	outcome   service.ResponseOutcome
}

func (s *oracleSteps) registerReporters(n int) error {
	for i := range n {
		alias := fmt.Sprintf("oracle-%d", i)
		s.tc.ActAs(alias)
		if err := s.tc.POST("/oracles", httptransport.RegisterOracleRequest{Fee: models.OracleRegistrationFee}); err != nil {
			return err
		}
		if err := s.tc.ExpectStatus(http.StatusCreated); err != nil {
			return fmt.Errorf("register %s: %w", alias, err)
		}
		s.reporters = append(s.reporters, alias)
	}
	return nil
}

func (s *oracleSteps) requestConfirmation(requester, airline, code string) error {
	s.flight = httptransport.FlightBody{Airline: s.tc.Address(airline).String(), Flight: code, Timestamp: s.tc.Departure()}
	s.tc.ActAs(requester)
	if err := s.tc.POST("/oracles/requests", httptransport.RequestConfirmationRequest{FlightBody: s.flight}); err != nil {
		return err
	}
	if err := s.tc.ExpectStatus(http.StatusCreated); err != nil {
		return err
	}
	var req models.ConfirmationRequest
	if err := s.tc.Decode(&req); err != nil {
		return err
	}
	s.index = req.Index
	s.next = 0
	return nil
}

// answer submits status from the next n reporters holding the requested
// index. Reporters that already answered this request are skipped.
func (s *oracleSteps) answer(n int, status int) error {
	code := uint8(status)
	answered := 0
	for ; s.next < len(s.reporters) && answered < n; s.next++ {
		alias := s.reporters[s.next]
		s.tc.ActAs(alias)
		if err := s.tc.GET("/oracles/indexes"); err != nil {
			return err
		}
		var idx httptransport.IndexesResponse
		if err := s.tc.Decode(&idx); err != nil {
			return err
		}
		if !slices.Contains(idx.Indexes[:], s.index) {
			continue
		}
		index := s.index
		err := s.tc.POST("/oracles/responses", httptransport.SubmitResponseRequest{
			FlightBody: s.flight,
			Index:      &index,
			Status:     &code,
		})
		if err != nil {
			return err
		}
		if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
			return fmt.Errorf("%s answering: %w", alias, err)
		}
		if err := s.tc.Decode(&s.outcome); err != nil {
			return err
		}
		answered++
	}
	if answered < n {
		return fmt.Errorf("only %d of %d reporters hold index %d", answered, n, s.index)
	}
	return nil
}

func (s *oracleSteps) confirmed(not string) error {
	want := not == ""
	if s.outcome.Confirmed != want {
		return fmt.Errorf("expected confirmed=%t after %d responses, got %t", want, s.outcome.Responses, s.outcome.Confirmed)
	}
	return nil
}

func (s *oracleSteps) eventPublished(eventType string) error {
	if len(s.tc.Events(notify.EventType(eventType))) == 0 {
		return fmt.Errorf("no %s event was published", eventType)
	}
	return nil
}
