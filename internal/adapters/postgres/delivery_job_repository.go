package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kevin07696/settlement-service/internal/converters"
	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
)

const jobColumns = `id, endpoint_id, event_id, event_type, payload, status, attempts, max_attempts,
	last_error, next_attempt_at, processing_started_at, delivered_at, created_at, updated_at`

// DeliveryJobRepository implements ports.DeliveryJobRepository on the
// webhook_delivery_jobs table
type DeliveryJobRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryJobRepository creates a new delivery job repository
func NewDeliveryJobRepository(db ports.DBPort) *DeliveryJobRepository {
	return &DeliveryJobRepository{pool: db.GetDB()}
}

// Enqueue inserts jobs. A job for an (event, endpoint) pair that already
// exists is skipped.
func (r *DeliveryJobRepository) Enqueue(ctx context.Context, tx ports.DBTX, jobs []*domain.DeliveryJob) error {
	q := conn(tx, r.pool)
	for _, j := range jobs {
		_, err := q.Exec(ctx, `
			INSERT INTO webhook_delivery_jobs
				(id, endpoint_id, event_id, event_type, payload, status, attempts, max_attempts, next_attempt_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 'pending', 0, $6, $7, $8, $8)
			ON CONFLICT (event_id, endpoint_id) DO NOTHING`,
			j.ID, j.EndpointID, j.EventID, string(j.EventType), []byte(j.Payload),
			j.MaxAttempts, j.NextAttemptAt, j.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("enqueue delivery job for endpoint %s: %w", j.EndpointID, err)
		}
	}
	return nil
}

// ClaimBatch moves up to limit due pending jobs to processing and returns them
// joined with their endpoint. FOR UPDATE SKIP LOCKED keeps concurrent
// dispatchers from claiming the same row.
func (r *DeliveryJobRepository) ClaimBatch(ctx context.Context, limit int) ([]ports.ClaimedJob, error) {
	rows, err := r.pool.Query(ctx, `
		WITH due AS (
			SELECT id FROM webhook_delivery_jobs
			WHERE status = 'pending' AND next_attempt_at <= NOW()
			ORDER BY next_attempt_at, created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		),
		claimed AS (
			UPDATE webhook_delivery_jobs j SET
				status = 'processing',
				processing_started_at = NOW(),
				updated_at = NOW()
			FROM due
			WHERE j.id = due.id
			RETURNING j.*
		)
		SELECT c.id, c.endpoint_id, c.event_id, c.event_type, c.payload, c.status, c.attempts, c.max_attempts,
			c.last_error, c.next_attempt_at, c.processing_started_at, c.delivered_at, c.created_at, c.updated_at,
			e.id, e.producer_id, e.product_id, e.url, e.secret, e.event_types, e.is_active, e.created_at
		FROM claimed c
		LEFT JOIN webhook_endpoints e ON e.id = c.endpoint_id
		ORDER BY c.next_attempt_at, c.created_at`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim delivery jobs: %w", err)
	}

	claimed, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ports.ClaimedJob, error) {
		var (
			j         domain.DeliveryJob
			et, st    string
			payload   []byte
			epID      *string
			producer  *string
			productID *string
			url       *string
			secret    *string
			types     []string
			active    *bool
			created   *time.Time
		)
		err := row.Scan(
			&j.ID, &j.EndpointID, &j.EventID, &et, &payload, &st, &j.Attempts, &j.MaxAttempts,
			&j.LastError, &j.NextAttemptAt, &j.ProcessingStartedAt, &j.DeliveredAt, &j.CreatedAt, &j.UpdatedAt,
			&epID, &producer, &productID, &url, &secret, &types, &active, &created,
		)
		if err != nil {
			return ports.ClaimedJob{}, err
		}
		j.EventType = domain.EventType(et)
		j.Status = domain.JobStatus(st)
		j.Payload = payload

		out := ports.ClaimedJob{Job: &j}
		if epID != nil {
			ep := &domain.WebhookEndpoint{
				ID:         *epID,
				ProducerID: converters.StringOrEmpty(producer),
				ProductID:  productID,
				URL:        converters.StringOrEmpty(url),
				Secret:     converters.StringOrEmpty(secret),
				IsActive:   active != nil && *active,
			}
			if created != nil {
				ep.CreatedAt = *created
			}
			for _, t := range types {
				ep.EventTypes = append(ep.EventTypes, domain.EventType(t))
			}
			out.Endpoint = ep
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan claimed jobs: %w", err)
	}
	return claimed, nil
}

// MarkDelivered completes a processing job
func (r *DeliveryJobRepository) MarkDelivered(ctx context.Context, jobID string, attempts int) error {
	return r.settle(ctx, jobID, `
		UPDATE webhook_delivery_jobs SET
			status = 'delivered',
			attempts = $2,
			delivered_at = NOW(),
			processing_started_at = NULL,
			last_error = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`,
		jobID, attempts)
}

// Reschedule returns a processing job to pending until next
func (r *DeliveryJobRepository) Reschedule(ctx context.Context, jobID string, attempts int, next time.Time, lastError string) error {
	return r.settle(ctx, jobID, `
		UPDATE webhook_delivery_jobs SET
			status = 'pending',
			attempts = $2,
			next_attempt_at = $3,
			last_error = $4,
			processing_started_at = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`,
		jobID, attempts, next, lastError)
}

// MarkFailed gives up on a processing job
func (r *DeliveryJobRepository) MarkFailed(ctx context.Context, jobID string, attempts int, lastError string) error {
	return r.settle(ctx, jobID, `
		UPDATE webhook_delivery_jobs SET
			status = 'failed',
			attempts = $2,
			last_error = $3,
			processing_started_at = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`,
		jobID, attempts, lastError)
}

func (r *DeliveryJobRepository) settle(ctx context.Context, jobID, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update delivery job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delivery job %s is not processing: %w", jobID, domain.ErrNoRows)
	}
	return nil
}

// ReleaseStale returns jobs stuck in processing since before cutoff to pending.
// The attempt counter is untouched: the interrupted attempt never completed.
func (r *DeliveryJobRepository) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE webhook_delivery_jobs SET
			status = 'pending',
			processing_started_at = NULL,
			next_attempt_at = NOW(),
			updated_at = NOW()
		WHERE status = 'processing' AND processing_started_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("release stale delivery jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetByID retrieves a delivery job
func (r *DeliveryJobRepository) GetByID(ctx context.Context, db ports.DBTX, jobID string) (*domain.DeliveryJob, error) {
	j, err := scanJob(conn(db, r.pool).QueryRow(ctx,
		`SELECT `+jobColumns+` FROM webhook_delivery_jobs WHERE id = $1`, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrorCodeDeliveryNotFound, "delivery job not found", err).
			WithDetail("job_id", jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("get delivery job: %w", err)
	}
	return j, nil
}

// ListByEndpoint pages through an endpoint's jobs, newest first, optionally
// filtered by status
func (r *DeliveryJobRepository) ListByEndpoint(ctx context.Context, db ports.DBTX, endpointID string, status *domain.JobStatus, limit, offset int32) ([]*domain.DeliveryJob, error) {
	var st *string
	if status != nil {
		s := string(*status)
		st = &s
	}

	rows, err := conn(db, r.pool).Query(ctx, `
		SELECT `+jobColumns+`
		FROM webhook_delivery_jobs
		WHERE endpoint_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`,
		endpointID, st, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list delivery jobs: %w", err)
	}

	jobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.DeliveryJob, error) {
		return scanJob(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan delivery jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(row pgx.Row) (*domain.DeliveryJob, error) {
	var (
		j       domain.DeliveryJob
		et, st  string
		payload []byte
	)
	err := row.Scan(
		&j.ID, &j.EndpointID, &j.EventID, &et, &payload, &st, &j.Attempts, &j.MaxAttempts,
		&j.LastError, &j.NextAttemptAt, &j.ProcessingStartedAt, &j.DeliveredAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.EventType = domain.EventType(et)
	j.Status = domain.JobStatus(st)
	j.Payload = payload
	return &j, nil
}
