package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

// DeliveryLogRepository implements ports.DeliveryLogRepository
type DeliveryLogRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryLogRepository creates a new delivery log repository
func NewDeliveryLogRepository(db ports.DBPort) *DeliveryLogRepository {
	return &DeliveryLogRepository{pool: db.GetDB()}
}

// Record stores one delivery attempt
func (r *DeliveryLogRepository) Record(ctx context.Context, a *domain.DeliveryAttempt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO webhook_delivery_logs
			(id, job_id, endpoint_id, attempt_number, status_code, response_body, error, duration_ms, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.JobID, a.EndpointID, a.AttemptNumber, a.StatusCode, a.ResponseBody, a.Error,
		a.DurationMs, a.Success, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record delivery attempt: %w", err)
	}
	return nil
}

// ListByJob returns a job's attempts in order
func (r *DeliveryLogRepository) ListByJob(ctx context.Context, db ports.DBTX, jobID string) ([]*domain.DeliveryAttempt, error) {
	rows, err := conn(db, r.pool).Query(ctx, `
		SELECT id, job_id, endpoint_id, attempt_number, status_code, response_body, error, duration_ms, success, created_at
		FROM webhook_delivery_logs
		WHERE job_id = $1
		ORDER BY attempt_number, created_at`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("list delivery attempts: %w", err)
	}

	attempts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.DeliveryAttempt, error) {
		var a domain.DeliveryAttempt
		err := row.Scan(&a.ID, &a.JobID, &a.EndpointID, &a.AttemptNumber, &a.StatusCode,
			&a.ResponseBody, &a.Error, &a.DurationMs, &a.Success, &a.CreatedAt)
		return &a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan delivery attempts: %w", err)
	}
	return attempts, nil
}
