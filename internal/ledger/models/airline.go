package models

import (
	"slices"
	"time"

	"flightsurety/pkg/domain"
)

// FoundingThreshold is the funded-member count at which admission switches
// from unilateral founding to quorum voting.
const FoundingThreshold = 4

// MinAirlineStake is the minimum a member must stake to become funded.
const MinAirlineStake = 10 * domain.Ether

// Airline is a member of the cooperative.
//
// Invariants:
//   - ID is assigned once, at admission, from a monotonically increasing sequence
//   - Registered is set once and never cleared
//   - Funded is set once; later funding only adds to Stake
type Airline struct {
	ID         uint64         `json:"id"`
	Address    domain.Address `json:"address"`
	Registered bool           `json:"registered"`
	Funded     bool           `json:"funded"`
	Stake      domain.Amount  `json:"stake"`
	AdmittedAt time.Time      `json:"admitted_at"`
}

// CanParticipate reports whether the member may vote, admit peers and
// register flights.
func (a Airline) CanParticipate() bool {
	return a.Registered && a.Funded
}

// InFoundingPhase reports whether members may still admit peers unilaterally.
func InFoundingPhase(fundedCount int) bool {
	return fundedCount < FoundingThreshold
}

// AdmissionQuorum is the number of distinct votes needed to admit a candidate
// once the founding phase is over.
func AdmissionQuorum(fundedCount int) int {
	return fundedCount / 2
}

// VoteRecord collects distinct voters for a pending candidate. It is cleared
// once the candidate is admitted.
type VoteRecord struct {
	Candidate domain.Address   `json:"candidate"`
	Voters    []domain.Address `json:"voters"`
}

func (v VoteRecord) Count() int {
	return len(v.Voters)
}

func (v VoteRecord) HasVoted(voter domain.Address) bool {
	return slices.Contains(v.Voters, voter)
}

// WithVote returns a copy of the record with voter appended. The receiver's
// backing array is never shared with the result.
func (v VoteRecord) WithVote(voter domain.Address) VoteRecord {
	voters := make([]domain.Address, 0, len(v.Voters)+1)
	voters = append(voters, v.Voters...)
	return VoteRecord{Candidate: v.Candidate, Voters: append(voters, voter)}
}
