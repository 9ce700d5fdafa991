package models

import (
	"time"

	"github.com/google/uuid"

	"flightsurety/pkg/domain"
)

// MaxPremium caps what a passenger may pay for one policy.
const MaxPremium = 1 * domain.Ether

// PayoutFactor is the percentage of the premium credited on a payable delay.
const (
	PayoutFactor  uint64 = 150
	PayoutDivisor uint64 = 100
)

// InsurancePool holds the policies sold on one flight. It is created together
// with its flight and settled at most once.
type InsurancePool struct {
	FlightKey domain.Digest   `json:"flight_key"`
	Policies  []domain.Digest `json:"policies"`
	Settled   bool            `json:"settled"`
}

// WithPolicy returns a copy of the pool with policy appended in purchase order.
func (p InsurancePool) WithPolicy(policy domain.Digest) InsurancePool {
	policies := make([]domain.Digest, 0, len(p.Policies)+1)
	policies = append(policies, p.Policies...)
	return InsurancePool{FlightKey: p.FlightKey, Policies: append(policies, policy), Settled: p.Settled}
}

// Policy is one passenger's cover on one flight.
type Policy struct {
	Key         domain.Digest  `json:"key"`
	FlightKey   domain.Digest  `json:"flight_key"`
	Passenger   domain.Address `json:"passenger"`
	Insured     bool           `json:"insured"`
	InsuredFor  domain.Amount  `json:"insured_for"`
	Credit      domain.Amount  `json:"credit"`
	PurchasedAt time.Time      `json:"purchased_at"`
}

// CreditFor computes what a policy pays out for factor percent of its premium,
// truncated toward zero.
func CreditFor(insuredFor domain.Amount, factor uint64) (domain.Amount, bool) {
	return insuredFor.MulDiv(factor, PayoutDivisor)
}

// WithdrawalHold parks a passenger's balance while the external transfer is
// in flight. The balance reads zero for the lifetime of the hold.
//
// A hold whose transfer outcome is unknown is Suspended. It is never released
// back into the balance; the passenger's next withdrawal retries it under the
// same ID so the transfer cannot be paid twice.
type WithdrawalHold struct {
	ID        uuid.UUID      `json:"id"`
	Passenger domain.Address `json:"passenger"`
	Amount    domain.Amount  `json:"amount"`
	CreatedAt time.Time      `json:"created_at"`
	Suspended bool           `json:"suspended"`
	Attempts  int            `json:"attempts"`
}

// Transfer moves value from the ledger's custody to an external account. ID
// is the withdrawal hold id and makes the transfer idempotent downstream.
type Transfer struct {
	ID     uuid.UUID      `json:"id"`
	To     domain.Address `json:"to"`
	Amount domain.Amount  `json:"amount"`
}
