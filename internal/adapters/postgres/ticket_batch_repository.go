package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

const batchColumns = `id, product_id, name, display_order, total_quantity, sold_quantity,
	is_active, auto_advance, created_at, updated_at`

// TicketBatchRepository implements ports.TicketBatchRepository
type TicketBatchRepository struct {
	pool *pgxpool.Pool
}

// NewTicketBatchRepository creates a new ticket batch repository
func NewTicketBatchRepository(db ports.DBPort) *TicketBatchRepository {
	return &TicketBatchRepository{pool: db.GetDB()}
}

// IncrementSold sells one ticket of batchID in a single statement. When the
// sale exhausts an auto-advancing batch, the batch is deactivated and the next
// inactive batch of the same product (by display_order) is activated.
//
// Returns domain.ErrBatchSoldOut when no ticket was left and
// domain.ErrBatchNotFound when the batch does not exist.
func (r *TicketBatchRepository) IncrementSold(ctx context.Context, batchID string) (*domain.BatchIncrement, error) {
	var (
		b      domain.TicketBatch
		nextID *string
	)

	err := r.pool.QueryRow(ctx, `
		WITH sold AS (
			UPDATE ticket_batches SET
				sold_quantity = sold_quantity + 1,
				is_active = CASE
					WHEN auto_advance AND sold_quantity + 1 >= total_quantity THEN FALSE
					ELSE is_active
				END,
				updated_at = NOW()
			WHERE id = $1 AND sold_quantity < total_quantity
			RETURNING `+batchColumns+`
		),
		next AS (
			UPDATE ticket_batches nb SET is_active = TRUE, updated_at = NOW()
			FROM sold
			WHERE sold.auto_advance
				AND sold.sold_quantity >= sold.total_quantity
				AND nb.id = (
					SELECT c.id FROM ticket_batches c
					WHERE c.product_id = sold.product_id
						AND c.display_order > sold.display_order
						AND NOT c.is_active
						AND c.sold_quantity < c.total_quantity
					ORDER BY c.display_order
					LIMIT 1
				)
			RETURNING nb.id
		)
		SELECT sold.id, sold.product_id, sold.name, sold.display_order, sold.total_quantity,
			sold.sold_quantity, sold.is_active, sold.auto_advance, sold.created_at, sold.updated_at,
			(SELECT id FROM next)
		FROM sold`,
		batchID,
	).Scan(
		&b.ID, &b.ProductID, &b.Name, &b.DisplayOrder, &b.TotalQuantity,
		&b.SoldQuantity, &b.IsActive, &b.AutoAdvance, &b.CreatedAt, &b.UpdatedAt,
		&nextID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, nil, batchID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("increment batch %s: %w", batchID, domain.ErrBatchSoldOut)
	}
	if err != nil {
		return nil, fmt.Errorf("increment ticket batch: %w", err)
	}

	return &domain.BatchIncrement{
		Batch:    b,
		Advanced: b.ShouldAdvance(),
		NextID:   nextID,
	}, nil
}

// GetByID retrieves a ticket batch by its ID
func (r *TicketBatchRepository) GetByID(ctx context.Context, db ports.DBTX, batchID string) (*domain.TicketBatch, error) {
	var b domain.TicketBatch
	err := conn(db, r.pool).QueryRow(ctx,
		`SELECT `+batchColumns+` FROM ticket_batches WHERE id = $1`, batchID,
	).Scan(
		&b.ID, &b.ProductID, &b.Name, &b.DisplayOrder, &b.TotalQuantity,
		&b.SoldQuantity, &b.IsActive, &b.AutoAdvance, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("batch %s: %w", batchID, domain.ErrBatchNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get ticket batch: %w", err)
	}
	return &b, nil
}
