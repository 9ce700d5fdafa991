package service

import (
	"context"

	"flightsurety/internal/ledger/models"
	"flightsurety/internal/notify"
	"flightsurety/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks AccessGate,AccountLedger,Publisher

// AccessGate is checked before every mutation. It authorizes the client
// application relaying the call, not the acting account.
type AccessGate interface {
	IsOperational(ctx context.Context) (bool, error)
	IsAuthorized(ctx context.Context, client domain.Address) (bool, error)
}

// AccountLedger moves withdrawn credit to the passenger's external account.
// Implementations must treat Transfer.ID as an idempotency key and wrap
// sentinel.ErrNotApplied only around failures that certainly wrote nothing;
// any other error is treated as an unknown outcome and retried with the same
// ID.
type AccountLedger interface {
	Transfer(ctx context.Context, t models.Transfer) error
}

// Publisher receives notifications as the emitting transaction commits,
// while the ledger is still locked. It must not block or call the ledger.
type Publisher interface {
	Publish(ctx context.Context, events ...notify.Event)
}
