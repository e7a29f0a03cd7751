package ports

import (
	"context"

	"github.com/kevin07696/settlement-service/internal/domain"
)

// EventRepository is the append-only transaction event log
type EventRepository interface {
	Append(ctx context.Context, tx DBTX, event *domain.TransactionEvent) error
	ListByOrder(ctx context.Context, db DBTX, orderID string) ([]*domain.TransactionEvent, error)
}

// EventPublisher mirrors appended events to an external bus
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.TransactionEvent, order *domain.Order) error
}
