package store

import (
	"time"

	"flightsurety/internal/ledger/models"
	"flightsurety/pkg/domain"
)

// Flight returns the flight at key or sentinel.ErrNotFound.
func (tx *Tx) Flight(key domain.Digest) (models.Flight, error) {
	return get(tx.a.flights, key)
}

// FlightCount returns how many flights are registered.
func (tx *Tx) FlightCount() int {
	return len(tx.a.flights)
}

// RegisterFlight stores a new flight and its empty insurance pool.
func (tx *Tx) RegisterFlight(ref domain.FlightRef, now time.Time) (models.Flight, error) {
	key := ref.Key()
	if _, ok := tx.a.flights[key]; ok {
		return models.Flight{}, conflict("flight")
	}
	set(tx, &tx.a.flightSeq, tx.a.flightSeq+1)
	flight := models.Flight{
		ID:           tx.a.flightSeq,
		Key:          key,
		Airline:      ref.Airline,
		Code:         ref.Code,
		Timestamp:    ref.Timestamp,
		Registered:   true,
		Status:       models.StatusUnknown,
		RegisteredAt: now,
	}
	put(tx, tx.a.flights, key, flight)
	put(tx, tx.a.pools, key, models.InsurancePool{FlightKey: key})
	return flight, nil
}

// SetFlightStatus records a confirmed status on the flight.
func (tx *Tx) SetFlightStatus(key domain.Digest, status models.StatusCode) error {
	flight, err := get(tx.a.flights, key)
	if err != nil {
		return err
	}
	flight.Status = status
	put(tx, tx.a.flights, key, flight)
	return nil
}
