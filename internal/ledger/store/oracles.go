package store

import (
	"time"

	"flightsurety/internal/ledger/models"
	"flightsurety/pkg/domain"
)

// Oracle returns the reporter at addr or sentinel.ErrNotFound.
func (tx *Tx) Oracle(addr domain.Address) (models.Oracle, error) {
	return get(tx.a.oracles, addr)
}

// OracleCount returns how many reporters are registered.
func (tx *Tx) OracleCount() int {
	return len(tx.a.oracles)
}

// RegisterOracle stores a reporter with its shard indexes.
func (tx *Tx) RegisterOracle(addr domain.Address, indexes [models.IndexesPerOracle]uint8, fee domain.Amount, now time.Time) (models.Oracle, error) {
	if _, ok := tx.a.oracles[addr]; ok {
		return models.Oracle{}, conflict("oracle")
	}
	oracle := models.Oracle{
		Address:      addr,
		Registered:   true,
		Indexes:      indexes,
		Fee:          fee,
		RegisteredAt: now,
	}
	put(tx, tx.a.oracles, addr, oracle)
	return oracle, nil
}

// Request returns the confirmation request at key or sentinel.ErrNotFound.
func (tx *Tx) Request(key domain.Digest) (models.ConfirmationRequest, error) {
	return get(tx.a.requests, key)
}

// OpenRequest opens the request for (index, flight). Re-opening a known key
// replaces the requester and keeps the responses gathered so far.
func (tx *Tx) OpenRequest(index uint8, ref domain.FlightRef, requester domain.Address, now time.Time) (req models.ConfirmationRequest, reopened bool) {
	key := domain.RequestKey(index, ref.Airline, ref.Code, ref.Timestamp)
	req, reopened = tx.a.requests[key]
	if !reopened {
		req = models.ConfirmationRequest{Key: key, Index: index, Flight: ref}
	}
	req.Requester = requester
	req.Open = true
	req.RequestedAt = now
	put(tx, tx.a.requests, key, req)
	return req, reopened
}

// Responses returns the bucket for status on a request or sentinel.ErrNotFound.
func (tx *Tx) Responses(requestKey domain.Digest, status models.StatusCode) (models.ResponseBucket, error) {
	return get(tx.a.responses, domain.ResponseKey(requestKey, uint8(status)))
}

// AppendResponse adds reporter to the status bucket of an open request.
func (tx *Tx) AppendResponse(requestKey domain.Digest, status models.StatusCode, reporter domain.Address) (models.ResponseBucket, error) {
	req, err := get(tx.a.requests, requestKey)
	if err != nil {
		return models.ResponseBucket{}, err
	}
	if !req.Open {
		return models.ResponseBucket{}, invalidState("request is not open")
	}
	key := domain.ResponseKey(requestKey, uint8(status))
	bucket, ok := tx.a.responses[key]
	if !ok {
		bucket = models.ResponseBucket{Key: key, RequestKey: requestKey, Status: status}
	}
	bucket = bucket.WithReporter(reporter)
	put(tx, tx.a.responses, key, bucket)
	put(tx, tx.a.requests, requestKey, req.WithStatus(status))
	return bucket, nil
}
