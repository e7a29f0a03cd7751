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

const endpointColumns = `id, producer_id, product_id, url, secret, event_types, is_active, created_at`

// EndpointRepository implements ports.EndpointRepository
type EndpointRepository struct {
	pool *pgxpool.Pool
}

// NewEndpointRepository creates a new webhook endpoint repository
func NewEndpointRepository(db ports.DBPort) *EndpointRepository {
	return &EndpointRepository{pool: db.GetDB()}
}

// ListSubscribed returns the producer's active endpoints for eventType that are
// unscoped or scoped to productID
func (r *EndpointRepository) ListSubscribed(ctx context.Context, db ports.DBTX, producerID string, eventType domain.EventType, productID string) ([]*domain.WebhookEndpoint, error) {
	rows, err := conn(db, r.pool).Query(ctx, `
		SELECT `+endpointColumns+`
		FROM webhook_endpoints
		WHERE producer_id = $1
			AND is_active
			AND $2 = ANY(event_types)
			AND (product_id IS NULL OR product_id::text = $3)
		ORDER BY created_at, id`,
		producerID, string(eventType), productID,
	)
	if err != nil {
		return nil, fmt.Errorf("list subscribed endpoints: %w", err)
	}

	endpoints, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.WebhookEndpoint, error) {
		return scanEndpoint(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan endpoints: %w", err)
	}
	return endpoints, nil
}

// GetByID retrieves an endpoint, active or not
func (r *EndpointRepository) GetByID(ctx context.Context, db ports.DBTX, endpointID string) (*domain.WebhookEndpoint, error) {
	ep, err := scanEndpoint(conn(db, r.pool).QueryRow(ctx,
		`SELECT `+endpointColumns+` FROM webhook_endpoints WHERE id = $1`, endpointID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("endpoint %s: %w", endpointID, domain.ErrEndpointNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get endpoint: %w", err)
	}
	return ep, nil
}

func scanEndpoint(row pgx.Row) (*domain.WebhookEndpoint, error) {
	var (
		ep     domain.WebhookEndpoint
		types  []string
		prodID *string
	)
	if err := row.Scan(&ep.ID, &ep.ProducerID, &prodID, &ep.URL, &ep.Secret, &types, &ep.IsActive, &ep.CreatedAt); err != nil {
		return nil, err
	}
	ep.ProductID = prodID
	ep.EventTypes = make([]domain.EventType, len(types))
	for i, t := range types {
		ep.EventTypes[i] = domain.EventType(t)
	}
	return &ep, nil
}
