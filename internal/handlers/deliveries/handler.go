// Package deliveries serves the read-only delivery log producers use to see
// what happened to their webhooks.
package deliveries

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/domain/ports"
	"github.com/kevin07696/settlement-service/pkg/encoding"
	"github.com/kevin07696/settlement-service/pkg/resilience"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// EndpointReader resolves a producer endpoint
type EndpointReader interface {
	GetByID(ctx context.Context, db ports.DBTX, endpointID string) (*domain.WebhookEndpoint, error)
}

// JobReader lists delivery jobs
type JobReader interface {
	GetByID(ctx context.Context, db ports.DBTX, jobID string) (*domain.DeliveryJob, error)
	ListByEndpoint(ctx context.Context, db ports.DBTX, endpointID string, status *domain.JobStatus, limit, offset int32) ([]*domain.DeliveryJob, error)
}

// AttemptReader lists the delivery log of one job
type AttemptReader interface {
	ListByJob(ctx context.Context, db ports.DBTX, jobID string) ([]*domain.DeliveryAttempt, error)
}

// EventReader lists the transaction events of one order
type EventReader interface {
	ListByOrder(ctx context.Context, db ports.DBTX, orderID string) ([]*domain.TransactionEvent, error)
}

// Handler serves the delivery-log API. Each request reads from one read-only snapshot.
type Handler struct {
	db        ports.TransactionManager
	endpoints EndpointReader
	jobs      JobReader
	attempts  AttemptReader
	events    EventReader
	timeouts  *resilience.TimeoutConfig
	logger    *zap.Logger
}

// NewHandler creates a new delivery-log handler
func NewHandler(db ports.TransactionManager, endpoints EndpointReader, jobs JobReader, attempts AttemptReader, events EventReader, timeouts *resilience.TimeoutConfig, logger *zap.Logger) *Handler {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &Handler{
		db:        db,
		endpoints: endpoints,
		jobs:      jobs,
		attempts:  attempts,
		events:    events,
		timeouts:  timeouts,
		logger:    logger,
	}
}

// JobsResponse is one page of an endpoint's delivery jobs
type JobsResponse struct {
	Jobs   []*domain.DeliveryJob `json:"jobs"`
	Limit  int32                 `json:"limit"`
	Offset int32                 `json:"offset"`
}

// AttemptsResponse is the full delivery log of one job
type AttemptsResponse struct {
	Job      *domain.DeliveryJob       `json:"job"`
	Attempts []*domain.DeliveryAttempt `json:"attempts"`
}

// EventsResponse is the event history of one order, oldest first
type EventsResponse struct {
	OrderID string                     `json:"order_id"`
	Events  []*domain.TransactionEvent `json:"events"`
}

// NewServeMux returns a grpc-gateway mux with the delivery-log routes registered:
//
//	GET /v1/endpoints/{endpoint_id}/jobs?status=&limit=&offset=
//	GET /v1/jobs/{job_id}/attempts
//	GET /v1/orders/{order_id}/events
func (h *Handler) NewServeMux(opts ...runtime.ServeMuxOption) (*runtime.ServeMux, error) {
	mux := runtime.NewServeMux(opts...)
	if err := mux.HandlePath(http.MethodGet, "/v1/endpoints/{endpoint_id}/jobs", h.ListJobs); err != nil {
		return nil, err
	}
	if err := mux.HandlePath(http.MethodGet, "/v1/jobs/{job_id}/attempts", h.ListAttempts); err != nil {
		return nil, err
	}
	if err := mux.HandlePath(http.MethodGet, "/v1/orders/{order_id}/events", h.ListOrderEvents); err != nil {
		return nil, err
	}
	return mux, nil
}

// ListJobs handles GET /v1/endpoints/{endpoint_id}/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	endpointID := pathParams["endpoint_id"]
	if _, err := uuid.Parse(endpointID); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid endpoint_id")
		return
	}

	q := r.URL.Query()

	var status *domain.JobStatus
	if raw := q.Get("status"); raw != "" {
		s := domain.JobStatus(raw)
		switch s {
		case domain.JobStatusPending, domain.JobStatusProcessing, domain.JobStatusDelivered, domain.JobStatusFailed:
			status = &s
		default:
			h.respondError(w, http.StatusBadRequest, "invalid status")
			return
		}
	}

	limit, err := intParam(q.Get("limit"), DefaultPageSize)
	if err != nil || limit <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		h.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	var jobs []*domain.DeliveryJob
	err = h.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := h.endpoints.GetByID(ctx, tx, endpointID); err != nil {
			return err
		}
		var err error
		jobs, err = h.jobs.ListByEndpoint(ctx, tx, endpointID, status, limit, offset)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrEndpointNotFound) {
			h.respondError(w, http.StatusNotFound, "endpoint not found")
			return
		}
		h.logger.Error("Failed to list delivery jobs", zap.String("endpoint_id", endpointID), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if jobs == nil {
		jobs = []*domain.DeliveryJob{}
	}

	h.respondJSON(w, http.StatusOK, JobsResponse{Jobs: jobs, Limit: limit, Offset: offset})
}

// ListAttempts handles GET /v1/jobs/{job_id}/attempts
func (h *Handler) ListAttempts(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	jobID := pathParams["job_id"]
	if _, err := uuid.Parse(jobID); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid job_id")
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	var (
		job      *domain.DeliveryJob
		attempts []*domain.DeliveryAttempt
	)
	err := h.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		if job, err = h.jobs.GetByID(ctx, tx, jobID); err != nil {
			return err
		}
		attempts, err = h.attempts.ListByJob(ctx, tx, jobID)
		return err
	})
	if err != nil {
		if domain.IsNotFoundError(err) {
			h.respondError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("Failed to list delivery attempts", zap.String("job_id", jobID), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if attempts == nil {
		attempts = []*domain.DeliveryAttempt{}
	}

	h.respondJSON(w, http.StatusOK, AttemptsResponse{Job: job, Attempts: attempts})
}

// ListOrderEvents handles GET /v1/orders/{order_id}/events. An order with no
// recorded events yields an empty list.
func (h *Handler) ListOrderEvents(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	orderID := pathParams["order_id"]
	if _, err := uuid.Parse(orderID); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid order_id")
		return
	}

	ctx, cancel := h.timeouts.HandlerContext(r.Context())
	defer cancel()

	var events []*domain.TransactionEvent
	err := h.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		events, err = h.events.ListByOrder(ctx, tx, orderID)
		return err
	})
	if err != nil {
		h.logger.Error("Failed to list order events", zap.String("order_id", orderID), zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if events == nil {
		events = []*domain.TransactionEvent{}
	}

	h.respondJSON(w, http.StatusOK, EventsResponse{OrderID: orderID, Events: events})
}

func intParam(raw string, def int32) (int32, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	return int32(v), err
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	if err := encoding.WriteJSON(w, status, body); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
