package oraclesim

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"flightsurety/internal/ledger/models"
	"flightsurety/pkg/domain"
)

// StatusPolicy decides what a reporter answers for a flight.
type StatusPolicy interface {
	Status(reporter domain.Address, ref domain.FlightRef) models.StatusCode
}

// Fixed answers the same status for every flight.
type Fixed models.StatusCode

func (f Fixed) Status(domain.Address, domain.FlightRef) models.StatusCode {
	return models.StatusCode(f)
}

// Random answers a uniformly chosen known status.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *Random) Status(domain.Address, domain.FlightRef) models.StatusCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.KnownStatuses[r.rng.IntN(len(models.KnownStatuses))]
}

// Build turns the configured mode into a policy.
func (p PolicyConfig) Build() (StatusPolicy, error) {
	switch p.Mode {
	case "fixed":
		status, err := models.ParseStatusCode(p.Status)
		if err != nil {
			return nil, err
		}
		return Fixed(status), nil
	case "random", "":
		return NewRandom(p.RandSeed), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", p.Mode)
	}
}
