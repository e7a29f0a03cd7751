package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevin07696/settlement-service/internal/converters"
	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// NotificationRepository implements ports.NotificationRepository
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db ports.DBPort) *NotificationRepository {
	return &NotificationRepository{pool: db.GetDB()}
}

// Preference returns the producer's stored opt-in for eventType
func (r *NotificationRepository) Preference(ctx context.Context, userID string, eventType domain.EventType) (bool, bool, error) {
	var enabled bool
	err := r.pool.QueryRow(ctx,
		`SELECT enabled FROM notification_preferences WHERE user_id = $1 AND event_type = $2`,
		userID, string(eventType),
	).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("get notification preference: %w", err)
	}
	return enabled, true, nil
}

// Create stores a notification
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, order_id, event_type, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, converters.ToNullableText(n.OrderID), string(n.EventType), n.Title, n.Body, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}
