package ports

import (
	"context"

	"github.com/kevin07696/settlement-service/internal/domain"
)

// OrderRepository defines the interface for order persistence.
// Every status change is a single conditional UPDATE guarded by the allowed
// predecessor statuses; applied is false when the guard matched no row.
type OrderRepository interface {
	// GetByExternalID looks an order up by gateway + gateway transaction id.
	// Returns domain.ErrOrderNotFound when nothing matches.
	GetByExternalID(ctx context.Context, db DBTX, gateway, externalID string) (*domain.Order, error)

	// MarkPaid moves the order to paid and persists the settlement in one statement
	MarkPaid(ctx context.Context, db DBTX, orderID string, s *domain.Settlement, from []domain.OrderStatus) (order *domain.Order, applied bool, err error)

	// TransitionStatus moves the order to status without touching settlement amounts.
	// payout, when non-nil, is written in the same statement.
	TransitionStatus(ctx context.Context, db DBTX, orderID string, to domain.OrderStatus, from []domain.OrderStatus, payout *domain.PayoutStatus) (order *domain.Order, applied bool, err error)
}

// BalanceRepository maintains producers' running balances with atomic increments
type BalanceRepository interface {
	Credit(ctx context.Context, db DBTX, producerID string, cents int64) error
	Debit(ctx context.Context, db DBTX, producerID string, cents int64) error
}

// FeeConfigRepository resolves the effective fee schedule for a producer
type FeeConfigRepository interface {
	// GetEffective returns the platform defaults merged with the producer's overrides
	GetEffective(ctx context.Context, producerID string) (domain.FeeConfig, error)
}

// TicketBatchRepository manages ticket tier inventory
type TicketBatchRepository interface {
	// IncrementSold atomically sells one ticket and advances the tier when it sells out
	IncrementSold(ctx context.Context, batchID string) (*domain.BatchIncrement, error)

	GetByID(ctx context.Context, db DBTX, batchID string) (*domain.TicketBatch, error)
}

// BuyerRepository resolves buyer identities and content access
type BuyerRepository interface {
	// UpsertByEmail finds or creates the platform user keyed by email
	UpsertByEmail(ctx context.Context, email, name string) (*domain.BuyerIdentity, error)

	// EnrollIfMapped grants access to the members-area course mapped to productID.
	// Returns false when the product has no course.
	EnrollIfMapped(ctx context.Context, userID, productID, orderID string) (bool, error)
}

// NotificationRepository stores producer notifications and their preferences
type NotificationRepository interface {
	// Preference returns the stored opt-in for eventType, or found=false when none is stored
	Preference(ctx context.Context, userID string, eventType domain.EventType) (enabled, found bool, err error)

	Create(ctx context.Context, n *domain.Notification) error
}
