package notify

import (
	"context"
	"fmt"
	"slices"
	"sync"

	dErrors "flightsurety/pkg/domain-errors"
)

var eventTypes = []EventType{
	EventMemberAdmitted,
	EventMemberFunded,
	EventVoteRecorded,
	EventFlightRegistered,
	EventPassengerInsured,
	EventInsuranceCredited,
	EventPassengerWithdrawn,
	EventOracleRegistered,
	EventConfirmationRequested,
	EventReporterResponded,
	EventStatusConfirmed,
}

// ParseEventType validates a notification type named by a client.
func ParseEventType(v string) (EventType, error) {
	t := EventType(v)
	if !slices.Contains(eventTypes, t) {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown event type %q", v))
	}
	return t, nil
}

// Hub fans notifications out to live stream subscribers. A subscriber whose
// buffer is full is dropped; it must reconnect and catch up from the ledger.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
}

// Subscription receives encoded notifications until it is closed or dropped.
type Subscription struct {
	ch    chan []byte
	types []EventType
}

// Messages is closed when the hub drops or closes the subscription.
func (s *Subscription) Messages() <-chan []byte { return s.ch }

func (s *Subscription) wants(t EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

func (h *Hub) Name() string { return "stream" }

// Subscribe registers a subscriber for types, or for every type when none
// are given.
func (h *Hub) Subscribe(types ...EventType) *Subscription {
	sub := &Subscription{ch: make(chan []byte, h.buffer), types: types}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(sub)
}

// drop must be called with mu held.
func (h *Hub) drop(sub *Subscription) {
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Deliver never fails: a hub with no listeners has nothing to retry.
func (h *Hub) Deliver(_ context.Context, e Event) error {
	payload, err := encode(e)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if !sub.wants(e.Type) {
			continue
		}
		select {
		case sub.ch <- payload:
		default:
			h.drop(sub)
		}
	}
	return nil
}

// Close drops every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		h.drop(sub)
	}
}
