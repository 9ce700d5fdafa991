package notify

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSSink publishes notifications on one subject per event type. The event
// id travels in the Nats-Msg-Id header so JetStream streams drop redeliveries.
type NATSSink struct {
	conn   *nats.Conn
	prefix string
}

func NewNATSSink(conn *nats.Conn, prefix string) *NATSSink {
	return &NATSSink{conn: conn, prefix: prefix}
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Deliver(ctx context.Context, e Event) error {
	payload, err := encode(e)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	msg := nats.NewMsg(Channel(s.prefix, e.Type))
	msg.Data = payload
	msg.Header.Set(nats.MsgIdHdr, e.ID.String())
	msg.Header.Set("Event-Type", string(e.Type))
	if err := s.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	// Publish only buffers; flushing surfaces a dead connection to the worker.
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush notification: %w", err)
	}
	return nil
}
