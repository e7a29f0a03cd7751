// Package eventlog appends transaction events and fans them out to subscribed
// webhook endpoints in the same database transaction.
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	"github.com/kevin07696/settlement-service/pkg/encoding"
	"github.com/kevin07696/settlement-service/pkg/observability"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

// DefaultMaxAttempts bounds delivery attempts for a job when none is configured.
const DefaultMaxAttempts = 5

// Recorder writes the event log. An event and its delivery jobs commit together,
// so an event that exists always has its fan-out queued.
type Recorder struct {
	db          ports.TransactionManager
	events      ports.EventRepository
	endpoints   ports.EndpointRepository
	jobs        ports.DeliveryJobRepository
	logger      *zap.Logger
	now         func() time.Time
	maxAttempts int
}

// NewRecorder creates a new event log recorder
func NewRecorder(
	db ports.TransactionManager,
	events ports.EventRepository,
	endpoints ports.EndpointRepository,
	jobs ports.DeliveryJobRepository,
	maxAttempts int,
	logger *zap.Logger,
) *Recorder {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Recorder{
		db:          db,
		events:      events,
		endpoints:   endpoints,
		jobs:        jobs,
		logger:      logger,
		now:         timeutil.Now,
		maxAttempts: maxAttempts,
	}
}

// Record appends an event of type t for order and enqueues one pending delivery job per
// subscribed endpoint. It returns the appended event and the number of jobs enqueued.
func (r *Recorder) Record(ctx context.Context, order *domain.Order, t domain.EventType, metadata map[string]interface{}) (*domain.TransactionEvent, int, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	event := &domain.TransactionEvent{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		Type:      t,
		Metadata:  metadata,
		CreatedAt: r.now().UTC(),
	}

	enqueued := 0
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := r.events.Append(ctx, tx, event); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		endpoints, err := r.endpoints.ListSubscribed(ctx, tx, order.ProducerID, t, order.ProductID)
		if err != nil {
			return fmt.Errorf("list subscribed endpoints: %w", err)
		}
		if len(endpoints) == 0 {
			return nil
		}

		payload, err := encoding.Marshal(domain.OutboundPayload{
			ID:        event.ID,
			Type:      t,
			CreatedAt: event.CreatedAt,
			Data:      domain.SummarizeOrder(order),
		})
		if err != nil {
			return fmt.Errorf("marshal outbound payload: %w", err)
		}

		jobs := make([]*domain.DeliveryJob, 0, len(endpoints))
		for _, ep := range endpoints {
			// The query already filters; this guards against a stale product scope.
			if !ep.Subscribes(t, order.ProductID) {
				continue
			}
			jobs = append(jobs, r.newJob(ep.ID, event, payload))
		}
		if len(jobs) == 0 {
			return nil
		}

		if err := r.jobs.Enqueue(ctx, tx, jobs); err != nil {
			return fmt.Errorf("enqueue delivery jobs: %w", err)
		}
		enqueued = len(jobs)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to record transaction event",
			zap.String("order_id", order.ID),
			zap.String("event_type", string(t)),
			zap.Error(err),
		)
		return nil, 0, domain.WrapError(domain.ErrorCodeDatabaseError, "record transaction event", err)
	}

	if enqueued > 0 {
		observability.RecordJobsEnqueued(string(t), enqueued)
	}

	r.logger.Info("Transaction event recorded",
		zap.String("event_id", event.ID),
		zap.String("order_id", order.ID),
		zap.String("event_type", string(t)),
		zap.Int("jobs_enqueued", enqueued),
	)

	return event, enqueued, nil
}

func (r *Recorder) newJob(endpointID string, event *domain.TransactionEvent, payload json.RawMessage) *domain.DeliveryJob {
	return &domain.DeliveryJob{
		ID:            uuid.NewString(),
		EndpointID:    endpointID,
		EventID:       event.ID,
		EventType:     event.Type,
		Status:        domain.JobStatusPending,
		Payload:       payload,
		Attempts:      0,
		MaxAttempts:   r.maxAttempts,
		NextAttemptAt: event.CreatedAt,
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.CreatedAt,
	}
}
