package payout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"

	"flightsurety/internal/ledger/models"
	"flightsurety/pkg/domain"
	"flightsurety/pkg/platform/sentinel"
	txcontext "flightsurety/pkg/platform/tx"
)

// Schema creates the payout tables. Amounts are gwei in NUMERIC(20,0) so
// the full uint64 range fits.
const Schema = `
CREATE TABLE IF NOT EXISTS payouts (
	id         UUID PRIMARY KEY,
	recipient  TEXT NOT NULL,
	amount     NUMERIC(20,0) NOT NULL CHECK (amount > 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS payout_accounts (
	address TEXT PRIMARY KEY,
	balance NUMERIC(30,0) NOT NULL DEFAULT 0
);`

// PostgresLedger records payouts in PostgreSQL. The payout row and the
// account total are written in one transaction.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Migrate applies Schema.
func (l *PostgresLedger) Migrate(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate payouts: %w", err)
	}
	return nil
}

// Transfer writes the payout and the account total in one transaction. Errors
// before COMMIT roll back and are reported as not applied; a failed COMMIT is
// left ambiguous so the caller retries with the same id.
func (l *PostgresLedger) Transfer(ctx context.Context, t models.Transfer) error {
	if err := validate(t); err != nil {
		return notApplied(err)
	}
	err := l.insert(ctx, t)
	if err == nil || errors.Is(err, txcontext.ErrCommit) {
		return err
	}
	return notApplied(err)
}

func (l *PostgresLedger) insert(ctx context.Context, t models.Transfer) error {
	amount := strconv.FormatUint(uint64(t.Amount), 10)
	return txcontext.Run(ctx, l.db, func(ctx context.Context) error {
		exec := txcontext.Execer(ctx, l.db)
		res, err := exec.ExecContext(ctx,
			`INSERT INTO payouts (id, recipient, amount) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			t.ID, t.To.String(), amount,
		)
		if err != nil {
			return fmt.Errorf("insert payout: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("insert payout: %w", err)
		} else if n == 0 {
			return l.checkReplay(ctx, exec, t)
		}
		_, err = exec.ExecContext(ctx, `
			INSERT INTO payout_accounts (address, balance) VALUES ($1, $2)
			ON CONFLICT (address) DO UPDATE SET balance = payout_accounts.balance + EXCLUDED.balance`,
			t.To.String(), amount,
		)
		if err != nil {
			return fmt.Errorf("credit payout account: %w", err)
		}
		return nil
	})
}

// checkReplay accepts a replayed payout only if it matches the stored one.
func (l *PostgresLedger) checkReplay(ctx context.Context, exec txcontext.Executor, t models.Transfer) error {
	var (
		recipient string
		amount    decimal.Decimal
	)
	err := exec.QueryRowContext(ctx, `SELECT recipient, amount FROM payouts WHERE id = $1`, t.ID).Scan(&recipient, &amount)
	if err != nil {
		return fmt.Errorf("load replayed payout: %w", err)
	}
	if recipient != t.To.String() || !amount.Equal(decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(t.Amount)), 0)) {
		return fmt.Errorf("payout %s replayed with different content: %w", t.ID, sentinel.ErrConflict)
	}
	return nil
}

// Received returns the total paid out to addr.
func (l *PostgresLedger) Received(ctx context.Context, addr domain.Address) (domain.Amount, error) {
	var balance decimal.Decimal
	err := l.db.QueryRowContext(ctx, `SELECT balance FROM payout_accounts WHERE address = $1`, addr.String()).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read payout account: %w", err)
	}
	bi := balance.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("payout account %s exceeds range", addr)
	}
	return domain.Amount(bi.Uint64()), nil
}
