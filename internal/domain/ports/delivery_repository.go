package ports

import (
	"context"
	"time"

	"github.com/kevin07696/settlement-service/internal/domain"
)

// EndpointRepository reads producer webhook registrations
type EndpointRepository interface {
	// ListSubscribed returns the producer's active endpoints subscribed to eventType,
	// either unscoped or scoped to productID
	ListSubscribed(ctx context.Context, db DBTX, producerID string, eventType domain.EventType, productID string) ([]*domain.WebhookEndpoint, error)

	GetByID(ctx context.Context, db DBTX, endpointID string) (*domain.WebhookEndpoint, error)
}

// ClaimedJob is a job claimed by this worker together with its delivery target
type ClaimedJob struct {
	Job      *domain.DeliveryJob
	Endpoint *domain.WebhookEndpoint
}

// DeliveryJobRepository is the durable outbound delivery queue.
// Every state change after the claim is guarded by status = 'processing'.
type DeliveryJobRepository interface {
	Enqueue(ctx context.Context, tx DBTX, jobs []*domain.DeliveryJob) error

	// ClaimBatch atomically moves up to limit due pending jobs to processing.
	// Concurrent callers never receive the same job.
	ClaimBatch(ctx context.Context, limit int) ([]ClaimedJob, error)

	MarkDelivered(ctx context.Context, jobID string, attempts int) error
	Reschedule(ctx context.Context, jobID string, attempts int, next time.Time, lastError string) error
	MarkFailed(ctx context.Context, jobID string, attempts int, lastError string) error

	// ReleaseStale returns processing jobs claimed before cutoff to pending
	ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error)

	GetByID(ctx context.Context, db DBTX, jobID string) (*domain.DeliveryJob, error)
	ListByEndpoint(ctx context.Context, db DBTX, endpointID string, status *domain.JobStatus, limit, offset int32) ([]*domain.DeliveryJob, error)
}

// DeliveryLogRepository records every delivery attempt
type DeliveryLogRepository interface {
	Record(ctx context.Context, attempt *domain.DeliveryAttempt) error
	ListByJob(ctx context.Context, db DBTX, jobID string) ([]*domain.DeliveryAttempt, error)
}
