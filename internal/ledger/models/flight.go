package models

import (
	"fmt"
	"time"

	"flightsurety/pkg/domain"
	dErrors "flightsurety/pkg/domain-errors"
)

// StatusCode is the externally reported state of a flight.
type StatusCode uint8

const (
	StatusUnknown       StatusCode = 0
	StatusOnTime        StatusCode = 10
	StatusLateAirline   StatusCode = 20
	StatusLateWeather   StatusCode = 30
	StatusLateTechnical StatusCode = 40
	StatusLateOther     StatusCode = 50
)

var statusNames = map[StatusCode]string{
	StatusUnknown:       "unknown",
	StatusOnTime:        "on_time",
	StatusLateAirline:   "late_airline",
	StatusLateWeather:   "late_weather",
	StatusLateTechnical: "late_technical",
	StatusLateOther:     "late_other",
}

// KnownStatuses lists every status a reporter may submit, in code order.
var KnownStatuses = []StatusCode{
	StatusUnknown, StatusOnTime, StatusLateAirline, StatusLateWeather, StatusLateTechnical, StatusLateOther,
}

// ParseStatusCode validates a status reported from outside the ledger.
func ParseStatusCode(v uint8) (StatusCode, error) {
	s := StatusCode(v)
	if _, ok := statusNames[s]; !ok {
		return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown status code %d", v))
	}
	return s, nil
}

func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// IsPayable reports whether a confirmed status entitles passengers to a
// payout: only delays attributed to the airline.
func (s StatusCode) IsPayable() bool {
	return s == StatusLateAirline
}

// Flight is a scheduled departure registered by a funded airline.
//
// Invariants:
//   - Key = FlightKey(Airline, Code, Timestamp); unique across the registry
//   - ID is monotonic in registration order
//   - Status starts as StatusUnknown and is only written by settlement
type Flight struct {
	ID           uint64         `json:"id"`
	Key          domain.Digest  `json:"key"`
	Airline      domain.Address `json:"airline"`
	Code         string         `json:"code"`
	Timestamp    int64          `json:"timestamp"`
	Registered   bool           `json:"registered"`
	Status       StatusCode     `json:"status"`
	RegisteredAt time.Time      `json:"registered_at"`
}

func (f Flight) Ref() domain.FlightRef {
	return domain.FlightRef{Airline: f.Airline, Code: f.Code, Timestamp: f.Timestamp}
}
