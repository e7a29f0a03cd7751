package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// EventRepository implements ports.EventRepository. It only ever inserts;
// the table rejects updates and deletes.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new transaction event repository
func NewEventRepository(db ports.DBPort) *EventRepository {
	return &EventRepository{pool: db.GetDB()}
}

// Append inserts event
func (r *EventRepository) Append(ctx context.Context, tx ports.DBTX, event *domain.TransactionEvent) error {
	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal event metadata: %w", err)
	}

	_, err = conn(tx, r.pool).Exec(ctx, `
		INSERT INTO transaction_events (id, order_id, event_type, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.OrderID, string(event.Type), raw, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append transaction event: %w", err)
	}
	return nil
}

// ListByOrder returns the order's events oldest first
func (r *EventRepository) ListByOrder(ctx context.Context, db ports.DBTX, orderID string) ([]*domain.TransactionEvent, error) {
	rows, err := conn(db, r.pool).Query(ctx, `
		SELECT id, order_id, event_type, metadata, created_at
		FROM transaction_events
		WHERE order_id = $1
		ORDER BY created_at, id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transaction events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.TransactionEvent, error) {
		var (
			e   domain.TransactionEvent
			et  string
			raw []byte
		)
		if err := row.Scan(&e.ID, &e.OrderID, &et, &raw, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = domain.EventType(et)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata of event %s: %w", e.ID, err)
			}
		}
		return &e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan transaction events: %w", err)
	}
	return events, nil
}
