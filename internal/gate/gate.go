// Package gate implements the access gate every ledger mutation passes: a
// global operational flag plus an allow-list of client applications.
package gate

import (
	"context"
	"slices"
	"sync"

	"flightsurety/pkg/domain"
)

// MemoryGate keeps the flag and allow-list in process.
type MemoryGate struct {
	mu          sync.RWMutex
	operational bool
	clients     map[domain.Address]struct{}
}

// NewMemory returns an operational gate that authorizes clients.
func NewMemory(clients ...domain.Address) *MemoryGate {
	g := &MemoryGate{operational: true, clients: make(map[domain.Address]struct{}, len(clients))}
	for _, c := range clients {
		g.clients[c] = struct{}{}
	}
	return g
}

func (g *MemoryGate) IsOperational(_ context.Context) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.operational, nil
}

func (g *MemoryGate) IsAuthorized(_ context.Context, client domain.Address) (bool, error) {
	if client.IsZero() {
		return false, nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.clients[client]
	return ok, nil
}

func (g *MemoryGate) SetOperational(_ context.Context, operational bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.operational = operational
	return nil
}

func (g *MemoryGate) Authorize(_ context.Context, client domain.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[client] = struct{}{}
	return nil
}

func (g *MemoryGate) Revoke(_ context.Context, client domain.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clients, client)
	return nil
}

// Clients lists the authorized clients in address order.
func (g *MemoryGate) Clients(_ context.Context) ([]domain.Address, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]domain.Address, 0, len(g.clients))
	for c := range g.clients {
		out = append(out, c)
	}
	slices.Sort(out)
	return out, nil
}
