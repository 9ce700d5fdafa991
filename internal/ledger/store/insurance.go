package store

import (
	"time"

	"github.com/google/uuid"

	"flightsurety/internal/ledger/models"
	"flightsurety/pkg/domain"
)

// Pool returns the insurance pool of a flight or sentinel.ErrNotFound.
func (tx *Tx) Pool(flightKey domain.Digest) (models.InsurancePool, error) {
	return get(tx.a.pools, flightKey)
}

// Policy returns the policy at key or sentinel.ErrNotFound.
func (tx *Tx) Policy(key domain.Digest) (models.Policy, error) {
	return get(tx.a.policies, key)
}

// AddPolicy appends a passenger's policy to the flight's pool.
func (tx *Tx) AddPolicy(flightKey domain.Digest, passenger domain.Address, amount domain.Amount, now time.Time) (models.Policy, error) {
	pool, err := get(tx.a.pools, flightKey)
	if err != nil {
		return models.Policy{}, err
	}
	key := domain.PolicyKey(flightKey, passenger)
	if _, ok := tx.a.policies[key]; ok {
		return models.Policy{}, conflict("policy")
	}
	policy := models.Policy{
		Key:         key,
		FlightKey:   flightKey,
		Passenger:   passenger,
		Insured:     true,
		InsuredFor:  amount,
		PurchasedAt: now,
	}
	put(tx, tx.a.policies, key, policy)
	put(tx, tx.a.pools, flightKey, pool.WithPolicy(key))
	return policy, nil
}

// MarkSettled flips the pool's one-shot settled flag.
func (tx *Tx) MarkSettled(flightKey domain.Digest) error {
	pool, err := get(tx.a.pools, flightKey)
	if err != nil {
		return err
	}
	if pool.Settled {
		return invalidState("pool already settled")
	}
	pool.Settled = true
	put(tx, tx.a.pools, flightKey, pool)
	return nil
}

// CreditPolicy stores credit on the policy and adds it to the passenger's
// withdrawable balance.
func (tx *Tx) CreditPolicy(key domain.Digest, credit domain.Amount) (models.Policy, error) {
	policy, err := get(tx.a.policies, key)
	if err != nil {
		return models.Policy{}, err
	}
	balance, overflow := tx.a.balances[policy.Passenger].Add(credit)
	if overflow {
		return models.Policy{}, invalidState("balance overflow")
	}
	policy.Credit = credit
	put(tx, tx.a.policies, key, policy)
	put(tx, tx.a.balances, policy.Passenger, balance)
	return policy, nil
}

// Balance returns the passenger's withdrawable credit. Absence means zero.
func (tx *Tx) Balance(passenger domain.Address) domain.Amount {
	return tx.a.balances[passenger]
}

// OpenHold moves the passenger's whole balance into a withdrawal hold.
func (tx *Tx) OpenHold(id uuid.UUID, passenger domain.Address, now time.Time) (models.WithdrawalHold, error) {
	amount := tx.a.balances[passenger]
	if amount == 0 {
		return models.WithdrawalHold{}, invalidState("nothing to withdraw")
	}
	if _, ok := tx.a.holds[id]; ok {
		return models.WithdrawalHold{}, conflict("withdrawal hold")
	}
	hold := models.WithdrawalHold{ID: id, Passenger: passenger, Amount: amount, CreatedAt: now, Attempts: 1}
	remove(tx, tx.a.balances, passenger)
	put(tx, tx.a.holds, id, hold)
	return hold, nil
}

// Hold returns an open withdrawal hold or sentinel.ErrNotFound.
func (tx *Tx) Hold(id uuid.UUID) (models.WithdrawalHold, error) {
	return get(tx.a.holds, id)
}

// SuspendHold parks a hold whose transfer may or may not have been applied.
func (tx *Tx) SuspendHold(id uuid.UUID) (models.WithdrawalHold, error) {
	hold, err := get(tx.a.holds, id)
	if err != nil {
		return models.WithdrawalHold{}, err
	}
	hold.Suspended = true
	put(tx, tx.a.holds, id, hold)
	return hold, nil
}

// ResumeHold claims the passenger's suspended hold for another transfer
// attempt. Returns sentinel.ErrNotFound when none is suspended; a hold whose
// transfer is in flight is never resumed.
func (tx *Tx) ResumeHold(passenger domain.Address) (models.WithdrawalHold, error) {
	for id, hold := range tx.a.holds {
		if hold.Passenger != passenger || !hold.Suspended {
			continue
		}
		hold.Suspended = false
		hold.Attempts++
		put(tx, tx.a.holds, id, hold)
		return hold, nil
	}
	return models.WithdrawalHold{}, errNotFound
}

// CloseHold discards a hold whose transfer completed.
func (tx *Tx) CloseHold(id uuid.UUID) (models.WithdrawalHold, error) {
	hold, err := get(tx.a.holds, id)
	if err != nil {
		return models.WithdrawalHold{}, err
	}
	remove(tx, tx.a.holds, id)
	return hold, nil
}

// ReleaseHold returns a failed withdrawal's amount to the passenger. Credit
// accrued while the hold was open is preserved.
func (tx *Tx) ReleaseHold(id uuid.UUID) (models.WithdrawalHold, error) {
	hold, err := get(tx.a.holds, id)
	if err != nil {
		return models.WithdrawalHold{}, err
	}
	balance, overflow := tx.a.balances[hold.Passenger].Add(hold.Amount)
	if overflow {
		return models.WithdrawalHold{}, invalidState("balance overflow")
	}
	remove(tx, tx.a.holds, id)
	put(tx, tx.a.balances, hold.Passenger, balance)
	return hold, nil
}
