package domain

import (
	"strings"

	dErrors "flightsurety/pkg/domain-errors"
)

const maxFlightCodeLen = 32

// FlightRef names a flight the way callers do: airline, code and scheduled
// departure in unix seconds.
type FlightRef struct {
	Airline   Address `json:"airline"`
	Code      string  `json:"code"`
	Timestamp int64   `json:"timestamp"`
}

// Key derives the flight's arena key.
func (f FlightRef) Key() Digest {
	return FlightKey(f.Airline, f.Code, f.Timestamp)
}

// Validate enforces the shape of a flight reference received from a caller.
func (f FlightRef) Validate() error {
	if f.Airline.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "airline is required")
	}
	code := strings.TrimSpace(f.Code)
	if code == "" || code != f.Code {
		return dErrors.New(dErrors.CodeInvalidInput, "flight code is required and must not be padded")
	}
	if len(code) > maxFlightCodeLen {
		return dErrors.New(dErrors.CodeInvalidInput, "flight code must be 32 characters or less")
	}
	if f.Timestamp <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "flight timestamp must be positive")
	}
	return nil
}
