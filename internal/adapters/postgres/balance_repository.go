package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// BalanceRepository implements ports.BalanceRepository with atomic upsert-increments
type BalanceRepository struct {
	pool *pgxpool.Pool
}

// NewBalanceRepository creates a new balance repository
func NewBalanceRepository(db ports.DBPort) *BalanceRepository {
	return &BalanceRepository{pool: db.GetDB()}
}

// Credit adds cents to the producer's balance
func (r *BalanceRepository) Credit(ctx context.Context, db ports.DBTX, producerID string, cents int64) error {
	return r.add(ctx, db, producerID, cents)
}

// Debit subtracts cents from the producer's balance. The balance may go negative.
func (r *BalanceRepository) Debit(ctx context.Context, db ports.DBTX, producerID string, cents int64) error {
	return r.add(ctx, db, producerID, -cents)
}

// Balance returns the producer's current balance, zero when none was ever credited
func (r *BalanceRepository) Balance(ctx context.Context, db ports.DBTX, producerID string) (int64, error) {
	var cents int64
	err := conn(db, r.pool).QueryRow(ctx,
		`SELECT balance_cents FROM producer_balances WHERE producer_id = $1`, producerID,
	).Scan(&cents)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get producer balance: %w", err)
	}
	return cents, nil
}

func (r *BalanceRepository) add(ctx context.Context, db ports.DBTX, producerID string, delta int64) error {
	_, err := conn(db, r.pool).Exec(ctx, `
		INSERT INTO producer_balances (producer_id, balance_cents)
		VALUES ($1, $2)
		ON CONFLICT (producer_id) DO UPDATE
		SET balance_cents = producer_balances.balance_cents + EXCLUDED.balance_cents,
			updated_at = NOW()`,
		producerID, delta,
	)
	if err != nil {
		return fmt.Errorf("update producer balance: %w", err)
	}
	return nil
}
