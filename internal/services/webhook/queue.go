// Package webhook implements the outbound delivery queue: claiming due jobs,
// delivering them signed to producer endpoints, and scheduling retries.
package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	"github.com/kevin07696/settlement-service/pkg/observability"
	"github.com/kevin07696/settlement-service/pkg/resilience"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

// maxLoggedBody bounds how much of an endpoint response is kept in the delivery log.
const maxLoggedBody = 4096

const userAgent = "settlement-service-webhooks/1.0"

// Queue delivers claimed jobs and moves them to their next state.
type Queue struct {
	jobs       ports.DeliveryJobRepository
	logs       ports.DeliveryLogRepository
	httpClient ports.HTTPClient
	backoff    resilience.BackoffStrategy
	timeouts   *resilience.TimeoutConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewQueue creates a new delivery queue. A nil client gets a 30s-timeout default.
func NewQueue(
	jobs ports.DeliveryJobRepository,
	logs ports.DeliveryLogRepository,
	httpClient ports.HTTPClient,
	timeouts *resilience.TimeoutConfig,
	logger *zap.Logger,
) *Queue {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeouts.WebhookDelivery,
		}
	}

	return &Queue{
		jobs:       jobs,
		logs:       logs,
		httpClient: httpClient,
		backoff:    resilience.DeliveryBackoff(),
		timeouts:   timeouts,
		logger:     logger,
		now:        timeutil.Now,
	}
}

// Claim atomically takes up to limit due jobs for this caller.
func (q *Queue) Claim(ctx context.Context, limit int) ([]ports.ClaimedJob, error) {
	claimed, err := q.jobs.ClaimBatch(ctx, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeDatabaseError, "claim delivery jobs", err)
	}
	observability.RecordClaim(len(claimed))
	return claimed, nil
}

// ReleaseStale returns jobs whose claim is older than the lease to pending.
func (q *Queue) ReleaseStale(ctx context.Context) (int64, error) {
	cutoff := q.now().Add(-q.timeouts.ClaimLease)
	n, err := q.jobs.ReleaseStale(ctx, cutoff)
	if err != nil {
		return 0, domain.WrapError(domain.ErrorCodeDatabaseError, "release stale claims", err)
	}
	if n > 0 {
		observability.RecordStaleClaimsReleased(n)
		q.logger.Warn("Released stale delivery claims",
			zap.Int64("count", n),
			zap.Time("cutoff", cutoff),
		)
	}
	return n, nil
}

// Deliver performs one attempt for a claimed job and records it. The job leaves
// processing in every case: delivered, back to pending with a backoff, or failed.
// The returned error is non-nil only when the job state could not be persisted.
func (q *Queue) Deliver(ctx context.Context, c ports.ClaimedJob) (*domain.DeliveryAttempt, error) {
	job := c.Job
	attempt := job.Attempts + 1

	logger := q.logger.With(
		zap.String("job_id", job.ID),
		zap.String("endpoint_id", job.EndpointID),
		zap.String("event_type", string(job.EventType)),
		zap.Int("attempt", attempt),
	)

	if c.Endpoint == nil || !c.Endpoint.IsActive {
		rec := q.newAttempt(job, attempt)
		rec.Error = strPtr("endpoint inactive or deleted")
		q.recordAttempt(ctx, rec, logger)
		observability.RecordWebhookDelivery(string(job.EventType), "failed", 0)
		logger.Warn("Delivery target is gone, failing job")
		if err := q.jobs.MarkFailed(ctx, job.ID, attempt, *rec.Error); err != nil {
			return rec, q.persistErr("mark failed", err)
		}
		return rec, nil
	}

	rec := q.send(ctx, c.Endpoint, job, attempt)
	q.recordAttempt(ctx, rec, logger)

	if rec.Success {
		observability.RecordWebhookDelivery(string(job.EventType), "delivered", float64(rec.DurationMs)/1000)
		logger.Info("Webhook delivered", zap.Intp("http_status", rec.StatusCode), zap.Int64("duration_ms", rec.DurationMs))
		if err := q.jobs.MarkDelivered(ctx, job.ID, attempt); err != nil {
			return rec, q.persistErr("mark delivered", err)
		}
		return rec, nil
	}

	lastErr := *rec.Error
	if attempt < job.MaxAttempts {
		next := q.now().Add(q.backoff.NextDelay(attempt))
		observability.RecordWebhookDelivery(string(job.EventType), "retrying", float64(rec.DurationMs)/1000)
		logger.Warn("Webhook delivery failed, scheduled for retry",
			zap.String("error", lastErr),
			zap.Time("next_attempt_at", next),
		)
		if err := q.jobs.Reschedule(ctx, job.ID, attempt, next, lastErr); err != nil {
			return rec, q.persistErr("reschedule", err)
		}
		return rec, nil
	}

	observability.RecordWebhookDelivery(string(job.EventType), "failed", float64(rec.DurationMs)/1000)
	logger.Error("Webhook delivery failed permanently",
		zap.String("error", lastErr),
		zap.Int("max_attempts", job.MaxAttempts),
	)
	if err := q.jobs.MarkFailed(ctx, job.ID, attempt, lastErr); err != nil {
		return rec, q.persistErr("mark failed", err)
	}
	return rec, nil
}

// send issues the signed POST. The body is the payload snapshot stored at enqueue
// time, so every attempt carries identical bytes and signature.
func (q *Queue) send(ctx context.Context, ep *domain.WebhookEndpoint, job *domain.DeliveryJob, attempt int) *domain.DeliveryAttempt {
	rec := q.newAttempt(job, attempt)

	ctx, cancel := q.timeouts.WebhookContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(job.Payload))
	if err != nil {
		rec.Error = strPtr(fmt.Sprintf("create request: %v", err))
		return rec
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(HeaderSignature, Sign(ep.Secret, job.Payload))
	req.Header.Set(HeaderEvent, string(job.EventType))
	req.Header.Set(HeaderDeliveryID, job.ID)
	req.Header.Set(HeaderAttempt, strconv.Itoa(attempt))
	req.Header.Set(HeaderTimestamp, timeutil.Stamp(q.now()))

	start := time.Now()
	resp, err := q.httpClient.Do(req)
	rec.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		rec.Error = strPtr(fmt.Sprintf("send request: %v", err))
		return rec
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	code := resp.StatusCode
	rec.StatusCode = &code
	rec.ResponseBody = strPtr(string(body))

	if code >= 200 && code < 300 {
		rec.Success = true
		return rec
	}

	rec.Error = strPtr(fmt.Sprintf("HTTP %d", code))
	return rec
}

// recordAttempt writes the delivery log row. A logging failure never changes the
// outcome of the attempt.
func (q *Queue) recordAttempt(ctx context.Context, rec *domain.DeliveryAttempt, logger *zap.Logger) {
	if err := q.logs.Record(ctx, rec); err != nil {
		logger.Error("Failed to record delivery attempt", zap.Error(err))
	}
}

func (q *Queue) newAttempt(job *domain.DeliveryJob, attempt int) *domain.DeliveryAttempt {
	return &domain.DeliveryAttempt{
		ID:            uuid.NewString(),
		JobID:         job.ID,
		EndpointID:    job.EndpointID,
		AttemptNumber: attempt,
		CreatedAt:     q.now().UTC(),
	}
}

func (q *Queue) persistErr(op string, err error) error {
	return domain.WrapError(domain.ErrorCodeDatabaseError, "delivery job "+op, err)
}

func strPtr(s string) *string {
	return &s
}
