package membership

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"

	"flightsurety/internal/ledger/models"
	"flightsurety/internal/ledger/service"
	httptransport "flightsurety/internal/transport/http"
	"flightsurety/pkg/domain"
)

// TestContext is the slice of the scenario context these steps need.
type TestContext interface {
	Address(alias string) domain.Address
	ActAs(alias string)
	POST(path string, body any) error
	GET(path string) error
	LastStatus() int
	ExpectStatus(status int) error
	Decode(v any) error
}

// RegisterSteps registers admission and funding steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &membershipSteps{tc: tc}
	ctx.Step(`^"([^"]*)" admits "([^"]*)"$`, steps.admit)
	ctx.Step(`^"([^"]*)" funds (\d+) ether$`, steps.fund)
	ctx.Step(`^founding members "([^"]*)" are admitted and funded by "([^"]*)"$`, steps.foundingMembers)
	ctx.Step(`^the admission should be pending with (\d+) votes?$`, steps.admissionPending)
	ctx.Step(`^the admission should be complete$`, steps.admissionComplete)
	ctx.Step(`^"([^"]*)" should be a registered airline$`, steps.shouldBeRegistered)
	ctx.Step(`^"([^"]*)" should be a funded airline$`, steps.shouldBeFunded)
	ctx.Step(`^"([^"]*)" should not be an airline$`, steps.shouldNotBeAirline)
	ctx.Step(`^the ledger should have (\d+) funded airlines?$`, steps.fundedCount)
}

type membershipSteps struct {
	tc TestContext
}

func (s *membershipSteps) admit(voter, candidate string) error {
	s.tc.ActAs(voter)
	return s.tc.POST("/airlines/"+s.tc.Address(candidate).String()+"/admit", nil)
}

func (s *membershipSteps) fund(member string, ether int) error {
	s.tc.ActAs(member)
	return s.tc.POST("/airlines/fund", httptransport.FundRequest{Stake: domain.Amount(ether) * domain.Ether})
}

func (s *membershipSteps) foundingMembers(list, founder string) error {
	for _, alias := range strings.Split(list, ",") {
		alias = strings.TrimSpace(alias)
		if err := s.admit(founder, alias); err != nil {
			return err
		}
		if err := s.tc.ExpectStatus(http.StatusCreated); err != nil {
			return fmt.Errorf("admit %s: %w", alias, err)
		}
		if err := s.fund(alias, int(models.MinAirlineStake/domain.Ether)); err != nil {
			return err
		}
		if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
			return fmt.Errorf("fund %s: %w", alias, err)
		}
	}
	return nil
}

func (s *membershipSteps) admission() (service.AdmissionResult, error) {
	var res service.AdmissionResult
	err := s.tc.Decode(&res)
	return res, err
}

func (s *membershipSteps) admissionPending(votes int) error {
	if err := s.tc.ExpectStatus(http.StatusAccepted); err != nil {
		return err
	}
	res, err := s.admission()
	if err != nil {
		return err
	}
	if res.Admitted || res.Votes != votes {
		return fmt.Errorf("expected pending admission with %d votes, got admitted=%t votes=%d", votes, res.Admitted, res.Votes)
	}
	return nil
}

func (s *membershipSteps) admissionComplete() error {
	if err := s.tc.ExpectStatus(http.StatusCreated); err != nil {
		return err
	}
	res, err := s.admission()
	if err != nil {
		return err
	}
	if !res.Admitted || !res.Airline.Registered {
		return fmt.Errorf("expected completed admission, got %+v", res)
	}
	return nil
}

func (s *membershipSteps) airline(alias string) (models.Airline, error) {
	var airline models.Airline
	if err := s.tc.GET("/airlines/" + s.tc.Address(alias).String()); err != nil {
		return airline, err
	}
	if err := s.tc.ExpectStatus(http.StatusOK); err != nil {
		return airline, err
	}
	err := s.tc.Decode(&airline)
	return airline, err
}

func (s *membershipSteps) shouldBeRegistered(alias string) error {
	airline, err := s.airline(alias)
	if err != nil {
		return err
	}
	if !airline.Registered {
		return fmt.Errorf("%s is not registered", alias)
	}
	return nil
}

func (s *membershipSteps) shouldBeFunded(alias string) error {
	airline, err := s.airline(alias)
	if err != nil {
		return err
	}
	if !airline.Funded {
		return fmt.Errorf("%s is not funded (stake %s ether)", alias, airline.Stake.Ether())
	}
	return nil
}

func (s *membershipSteps) shouldNotBeAirline(alias string) error {
	if err := s.tc.GET("/airlines/" + s.tc.Address(alias).String()); err != nil {
		return err
	}
	return s.tc.ExpectStatus(http.StatusNotFound)
}

func (s *membershipSteps) fundedCount(n int) error {
	if err := s.tc.GET("/airlines"); err != nil {
		return err
	}
	var counts httptransport.CountsResponse
	if err := s.tc.Decode(&counts); err != nil {
		return err
	}
	if counts.Funded != n {
		return fmt.Errorf("expected %d funded airlines, got %d", n, counts.Funded)
	}
	return nil
}
