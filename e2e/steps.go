package e2e

import (
	"github.com/cucumber/godog"

	"flightsurety/e2e/steps/common"
	"flightsurety/e2e/steps/insurance"
	"flightsurety/e2e/steps/membership"
	"flightsurety/e2e/steps/oracle"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	membership.RegisterSteps(ctx, tc)
	insurance.RegisterSteps(ctx, tc)
	oracle.RegisterSteps(ctx, tc)
}
