//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type NATSContainer struct {
	Container testcontainers.Container
	URL       string
	Conn      *nats.Conn
}

func startNATS(t *testing.T) *NATSContainer {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2.10-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForLog("Server is ready"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start nats container: %v", err)
	}
	endpoint, err := container.PortEndpoint(ctx, "4222/tcp", "nats")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get nats endpoint: %v", err)
	}
	conn, err := nats.Connect(endpoint)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to connect to nats: %v", err)
	}
	return &NATSContainer{Container: container, URL: endpoint, Conn: conn}
}
