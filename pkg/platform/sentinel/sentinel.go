package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and adapters return these
// (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about records, not validation failures:
//   - ErrNotFound: record does not exist in the arena
//   - ErrConflict: a record with the same key already exists
//   - ErrAlreadyUsed: a one-shot resource (payout id, vote) was already consumed
//   - ErrInvalidState: record in wrong state for the requested mutation
//   - ErrUnavailable: backing service temporarily unavailable
//   - ErrNotApplied: an external effect definitely did not happen and may be
//     retried under a new identity
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrNotApplied   = errors.New("not applied")
)
