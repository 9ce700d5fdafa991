package store

import (
	"fmt"
	"time"

	"flightsurety/internal/ledger/models"
	"flightsurety/pkg/domain"
	"flightsurety/pkg/platform/sentinel"
)

// Airline returns the member at addr or sentinel.ErrNotFound.
func (tx *Tx) Airline(addr domain.Address) (models.Airline, error) {
	return get(tx.a.airlines, addr)
}

// AirlineCount returns how many members have been admitted.
func (tx *Tx) AirlineCount() int {
	return len(tx.a.airlines)
}

// FundedCount returns how many members have completed funding.
func (tx *Tx) FundedCount() int {
	return tx.a.fundedCount
}

// AdmitAirline registers addr with the next member id.
func (tx *Tx) AdmitAirline(addr domain.Address, now time.Time) (models.Airline, error) {
	if _, ok := tx.a.airlines[addr]; ok {
		return models.Airline{}, conflict("airline")
	}
	set(tx, &tx.a.airlineSeq, tx.a.airlineSeq+1)
	airline := models.Airline{
		ID:         tx.a.airlineSeq,
		Address:    addr,
		Registered: true,
		AdmittedAt: now,
	}
	put(tx, tx.a.airlines, addr, airline)
	return airline, nil
}

// AddStake credits stake to a member and marks it funded. firstFunding is
// true only for the call that moved the member from unfunded to funded.
func (tx *Tx) AddStake(addr domain.Address, stake domain.Amount) (airline models.Airline, firstFunding bool, err error) {
	airline, err = get(tx.a.airlines, addr)
	if err != nil {
		return models.Airline{}, false, err
	}
	total, overflow := airline.Stake.Add(stake)
	if overflow {
		return models.Airline{}, false, invalidState("stake overflow")
	}
	airline.Stake = total
	if !airline.Funded {
		airline.Funded = true
		firstFunding = true
		set(tx, &tx.a.fundedCount, tx.a.fundedCount+1)
	}
	put(tx, tx.a.airlines, addr, airline)
	return airline, firstFunding, nil
}

// Votes returns the pending vote record for candidate or sentinel.ErrNotFound.
func (tx *Tx) Votes(candidate domain.Address) (models.VoteRecord, error) {
	return get(tx.a.votes, candidate)
}

// RecordVote adds voter to candidate's record. A voter already on the record
// yields sentinel.ErrAlreadyUsed.
func (tx *Tx) RecordVote(candidate, voter domain.Address) (models.VoteRecord, error) {
	record, ok := tx.a.votes[candidate]
	if !ok {
		record = models.VoteRecord{Candidate: candidate}
	}
	if record.HasVoted(voter) {
		return models.VoteRecord{}, fmt.Errorf("vote by %s: %w", voter, sentinel.ErrAlreadyUsed)
	}
	record = record.WithVote(voter)
	put(tx, tx.a.votes, candidate, record)
	return record, nil
}

// ClearVotes drops candidate's vote record.
func (tx *Tx) ClearVotes(candidate domain.Address) {
	remove(tx, tx.a.votes, candidate)
}
