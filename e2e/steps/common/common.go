package common

import (
	"fmt"
	"net/http"

	"github.com/cucumber/godog"

	httptransport "flightsurety/internal/transport/http"
)

// TestContext is the slice of the scenario context these steps need.
type TestContext interface {
	Start(genesis string) error
	ActAs(alias string)
	GET(path string) error
	Admin(method, path string, body any) error
	LastStatus() int
	ExpectStatus(status int) error
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers ledger lifecycle and response assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}
	ctx.Step(`^a ledger founded by "([^"]*)"$`, tc.Start)
	ctx.Step(`^I act as "([^"]*)"$`, steps.actAs)
	ctx.Step(`^I call GET "([^"]*)"$`, tc.GET)
	ctx.Step(`^the response status should be (\d+)$`, tc.ExpectStatus)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.responseFieldShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the operator closes the ledger$`, steps.closeLedger)
	ctx.Step(`^the operator reopens the ledger$`, steps.openLedger)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) actAs(alias string) error {
	s.tc.ActAs(alias)
	return nil
}

func (s *commonSteps) responseFieldShouldBe(field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(value); got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(code string) error {
	if s.tc.LastStatus() < 400 {
		return fmt.Errorf("expected an error response, got status %d", s.tc.LastStatus())
	}
	return s.responseFieldShouldBe("error", code)
}

func (s *commonSteps) closeLedger() error {
	return s.setOperational(false)
}

func (s *commonSteps) openLedger() error {
	return s.setOperational(true)
}

func (s *commonSteps) setOperational(operational bool) error {
	if err := s.tc.Admin(http.MethodPut, "/admin/operational", httptransport.OperationalRequest{Operational: &operational}); err != nil {
		return err
	}
	return s.tc.ExpectStatus(http.StatusNoContent)
}
