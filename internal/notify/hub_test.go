package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func received(t *testing.T, sub *Subscription) []EventType {
	t.Helper()
	var out []EventType
	for {
		select {
		case data, ok := <-sub.Messages():
			if !ok {
				return out
			}
			e, err := Decode(data)
			require.NoError(t, err)
			out = append(out, e.Type)
		default:
			return out
		}
	}
}

func TestHub_FiltersByType(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(8)
	all := hub.Subscribe()
	confirmations := hub.Subscribe(EventStatusConfirmed)

	for _, e := range events(EventConfirmationRequested, EventStatusConfirmed) {
		require.NoError(t, hub.Deliver(ctx, e))
	}

	assert.Equal(t, []EventType{EventConfirmationRequested, EventStatusConfirmed}, received(t, all))
	assert.Equal(t, []EventType{EventStatusConfirmed}, received(t, confirmations))
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(1)
	slow := hub.Subscribe()

	require.NoError(t, hub.Deliver(ctx, Event{Type: EventMemberAdmitted}))
	require.NoError(t, hub.Deliver(ctx, Event{Type: EventMemberFunded}))

	assert.Zero(t, hub.Subscribers())
	assert.Equal(t, []EventType{EventMemberAdmitted}, received(t, slow))
	_, open := <-slow.Messages()
	assert.False(t, open)

	hub.Unsubscribe(slow)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(0)
	a, b := hub.Subscribe(), hub.Subscribe()
	require.Equal(t, 2, hub.Subscribers())

	hub.Close()
	hub.Unsubscribe(a)

	assert.Zero(t, hub.Subscribers())
	_, open := <-b.Messages()
	assert.False(t, open)
}

func TestParseEventType(t *testing.T) {
	got, err := ParseEventType("status_confirmed")
	require.NoError(t, err)
	assert.Equal(t, EventStatusConfirmed, got)

	_, err = ParseEventType("boarding")
	require.Error(t, err)
}
