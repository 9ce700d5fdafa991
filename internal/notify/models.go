package notify

import (
	"time"

	"github.com/google/uuid"

	"flightsurety/pkg/domain"
)

// EventType names a ledger notification.
type EventType string

const (
	EventMemberAdmitted        EventType = "member_admitted"
	EventMemberFunded          EventType = "member_funded"
	EventVoteRecorded          EventType = "vote_recorded"
	EventFlightRegistered      EventType = "flight_registered"
	EventPassengerInsured      EventType = "passenger_insured"
	EventInsuranceCredited     EventType = "insurance_credited"
	EventPassengerWithdrawn    EventType = "passenger_withdrawn"
	EventOracleRegistered      EventType = "oracle_registered"
	EventConfirmationRequested EventType = "confirmation_requested"
	EventReporterResponded     EventType = "reporter_responded"
	EventStatusConfirmed       EventType = "status_confirmed"
)

// Event is emitted by the ledger after a transaction commits. It is
// transport-agnostic so sinks can fan it out. Fields that do not apply to a
// given type are left zero.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	RequestID  string    `json:"request_id,omitempty"`

	// Account is the member, passenger or reporter the event is about.
	Account domain.Address `json:"account,omitempty"`
	Airline domain.Address `json:"airline,omitempty"`
	Flight  string         `json:"flight,omitempty"`
	// Timestamp is the flight's scheduled departure (unix seconds).
	Timestamp int64         `json:"timestamp,omitempty"`
	Index     uint8         `json:"index"`
	Status    uint8         `json:"status"`
	Amount    domain.Amount `json:"amount,omitempty"`
	Votes     int           `json:"votes,omitempty"`
}

// FlightRef returns the flight the event refers to, if any.
func (e Event) FlightRef() domain.FlightRef {
	return domain.FlightRef{Airline: e.Airline, Code: e.Flight, Timestamp: e.Timestamp}
}
