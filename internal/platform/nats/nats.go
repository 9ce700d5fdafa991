package nats

import (
	"fmt"

	natsio "github.com/nats-io/nats.go"

	"flightsurety/internal/platform/config"
)

// Open connects to the NATS server used by the notification sink.
// Returns nil, nil when no URL is configured.
func Open(cfg config.NATSConfig) (*natsio.Conn, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	conn, err := natsio.Connect(cfg.URL,
		natsio.Name("flightsurety"),
		natsio.ReconnectWait(cfg.ReconnectWait),
		natsio.MaxReconnects(cfg.MaxReconnects),
		natsio.Timeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}
