package models

import (
	"slices"
	"time"

	"flightsurety/pkg/domain"
)

const (
	// IndexesPerOracle is how many shards each reporter serves.
	IndexesPerOracle = 3
	// MinResponses is the number of identical answers that confirm a status.
	MinResponses = 3
	// OracleRegistrationFee is the minimum fee a reporter pays to register.
	OracleRegistrationFee = 1 * domain.Ether
)

// Oracle is a registered reporter.
//
// Invariants:
//   - Indexes are pairwise distinct and assigned once, at registration
type Oracle struct {
	Address      domain.Address          `json:"address"`
	Registered   bool                    `json:"registered"`
	Indexes      [IndexesPerOracle]uint8 `json:"indexes"`
	Fee          domain.Amount           `json:"fee"`
	RegisteredAt time.Time               `json:"registered_at"`
}

func (o Oracle) HasIndex(index uint8) bool {
	return slices.Contains(o.Indexes[:], index)
}

// ConfirmationRequest is an open call for reporters in one shard to report a
// flight's status. It is never closed explicitly; settlement's one-shot guard
// makes late answers harmless.
type ConfirmationRequest struct {
	Key         domain.Digest    `json:"key"`
	Index       uint8            `json:"index"`
	Flight      domain.FlightRef `json:"flight"`
	Requester   domain.Address   `json:"requester"`
	Open        bool             `json:"open"`
	Statuses    []StatusCode     `json:"statuses"`
	RequestedAt time.Time        `json:"requested_at"`
}

// WithStatus returns a copy that lists status among the buckets seen so far.
func (r ConfirmationRequest) WithStatus(status StatusCode) ConfirmationRequest {
	if slices.Contains(r.Statuses, status) {
		return r
	}
	statuses := make([]StatusCode, 0, len(r.Statuses)+1)
	statuses = append(statuses, r.Statuses...)
	r.Statuses = append(statuses, status)
	return r
}

// ResponseBucket lists the reporters that answered one status for one
// request, in arrival order. Duplicates are retained.
type ResponseBucket struct {
	Key        domain.Digest    `json:"key"`
	RequestKey domain.Digest    `json:"request_key"`
	Status     StatusCode       `json:"status"`
	Reporters  []domain.Address `json:"reporters"`
}

func (b ResponseBucket) Count() int {
	return len(b.Reporters)
}

// WithReporter returns a copy of the bucket with reporter appended.
func (b ResponseBucket) WithReporter(reporter domain.Address) ResponseBucket {
	reporters := make([]domain.Address, 0, len(b.Reporters)+1)
	reporters = append(reporters, b.Reporters...)
	b.Reporters = append(reporters, reporter)
	return b
}
