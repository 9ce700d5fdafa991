// Package payout implements the external account ledger that withdrawals
// transfer into. Transfers are idempotent on their id.
package payout

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"flightsurety/internal/ledger/models"
	"flightsurety/pkg/domain"
	"flightsurety/pkg/platform/sentinel"
)

// MemoryLedger keeps payouts and account totals in process.
type MemoryLedger struct {
	mu       sync.Mutex
	payouts  map[uuid.UUID]models.Transfer
	accounts map[domain.Address]domain.Amount
}

func NewMemory() *MemoryLedger {
	return &MemoryLedger{
		payouts:  make(map[uuid.UUID]models.Transfer),
		accounts: make(map[domain.Address]domain.Amount),
	}
}

// Transfer credits t.Amount to t.To. Replaying a transfer id with the same
// content is a no-op; with different content it is a conflict. Every error
// is returned before anything is written, so all of them are not applied.
func (l *MemoryLedger) Transfer(ctx context.Context, t models.Transfer) error {
	if err := ctx.Err(); err != nil {
		return notApplied(err)
	}
	if err := validate(t); err != nil {
		return notApplied(err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.payouts[t.ID]; ok {
		if prev != t {
			return notApplied(fmt.Errorf("payout %s replayed with different content: %w", t.ID, sentinel.ErrConflict))
		}
		return nil
	}
	total, overflow := l.accounts[t.To].Add(t.Amount)
	if overflow {
		return notApplied(fmt.Errorf("account %s overflows", t.To))
	}
	l.payouts[t.ID] = t
	l.accounts[t.To] = total
	return nil
}

// Received returns the total paid out to addr.
func (l *MemoryLedger) Received(_ context.Context, addr domain.Address) (domain.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[addr], nil
}

// notApplied marks err as a transfer that certainly left no trace.
func notApplied(err error) error {
	return fmt.Errorf("%w: %w", sentinel.ErrNotApplied, err)
}

func validate(t models.Transfer) error {
	if t.ID == uuid.Nil {
		return fmt.Errorf("payout id is required")
	}
	if t.To.IsZero() {
		return fmt.Errorf("payout recipient is required")
	}
	if t.Amount == 0 {
		return fmt.Errorf("payout amount must be positive")
	}
	return nil
}
