package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/internal/services/gateway"
	"github.com/kevin07696/settlement-service/internal/services/inbound"
	"github.com/kevin07696/settlement-service/pkg/encoding"
	"github.com/kevin07696/settlement-service/pkg/resilience"
	"github.com/kevin07696/settlement-service/pkg/shutdown"
)

// MaxBodyBytes caps an inbound gateway callback.
const MaxBodyBytes = 1 << 20

// EventProcessor applies one normalized gateway callback
type EventProcessor interface {
	Process(ctx context.Context, evt *domain.NormalizedEvent) (*inbound.Result, error)
}

// WebhookHandler receives payment callbacks from every enabled gateway on one URL
type WebhookHandler struct {
	registry  *gateway.Registry
	processor EventProcessor
	inflight  *shutdown.InFlightTracker
	timeouts  *resilience.TimeoutConfig
	logger    *zap.Logger
}

// NewWebhookHandler creates a new gateway webhook handler. inflight may be nil.
func NewWebhookHandler(
	registry *gateway.Registry,
	processor EventProcessor,
	inflight *shutdown.InFlightTracker,
	timeouts *resilience.TimeoutConfig,
	logger *zap.Logger,
) *WebhookHandler {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &WebhookHandler{
		registry:  registry,
		processor: processor,
		inflight:  inflight,
		timeouts:  timeouts,
		logger:    logger,
	}
}

// WebhookResponse is the acknowledgement body returned to gateways
type WebhookResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Outcome string `json:"outcome,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	EventID string `json:"event_id,omitempty"`
}

// HandlePayment handles POST /webhooks/payments.
//
// Gateways treat anything but 2xx as a failed delivery and retry, so unmatched
// orders and unmapped event codes are acknowledged with 200. Only malformed or
// unauthenticated payloads get a 4xx.
func (h *WebhookHandler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respond(w, http.StatusMethodNotAllowed, WebhookResponse{Message: "only POST method is allowed"})
		return
	}

	if h.inflight != nil {
		if !h.inflight.Add() {
			h.respond(w, http.StatusServiceUnavailable, WebhookResponse{Message: "shutting down"})
			return
		}
		defer h.inflight.Done()
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respond(w, http.StatusRequestEntityTooLarge, WebhookResponse{Message: "payload too large"})
			return
		}
		h.logger.Warn("Failed to read webhook body", zap.Error(err))
		h.respond(w, http.StatusBadRequest, WebhookResponse{Message: "failed to read body"})
		return
	}

	snap := h.registry.Current()
	evt, err := snap.Normalize(body, r.Header)
	if err != nil {
		h.respondError(w, err)
		return
	}

	// A committed status change must not be cut short by the gateway hanging up.
	ctx, cancel := h.timeouts.ServiceContext(context.WithoutCancel(r.Context()))
	defer cancel()

	res, err := h.processor.Process(ctx, evt)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusOK, WebhookResponse{
		Success: true,
		Message: messageFor(res.Outcome),
		Outcome: string(res.Outcome),
		OrderID: res.OrderID,
		EventID: res.EventID,
	})
}

func (h *WebhookHandler) respondError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	code := domain.GetErrorCode(err)

	switch {
	case status == http.StatusOK:
		h.logger.Info("Gateway callback acknowledged without effect",
			zap.String("code", string(code)),
			zap.Error(err),
		)
		h.respond(w, status, WebhookResponse{Success: true, Message: "ignored", Outcome: string(inbound.OutcomeIgnored)})
		return
	case status < http.StatusInternalServerError:
		h.logger.Warn("Rejected gateway callback",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	default:
		h.logger.Error("Gateway callback processing failed",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}

	message := "processing failed"
	var de *domain.DomainError
	if errors.As(err, &de) && status < http.StatusInternalServerError {
		message = de.Message
	}
	h.respond(w, status, WebhookResponse{Message: message})
}

// statusForError maps a domain error code to the status returned to a gateway.
func statusForError(err error) int {
	switch domain.GetErrorCode(err) {
	case domain.ErrorCodeValidationMalformedPayload, domain.ErrorCodeValidationFailed:
		return http.StatusBadRequest
	case domain.ErrorCodeValidationUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrorCodeOrderNotFound, domain.ErrorCodeEventUnmapped, domain.ErrorCodeOrderInvalidTransition:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(o inbound.Outcome) string {
	switch o {
	case inbound.OutcomeApplied:
		return "processed"
	case inbound.OutcomeRecorded:
		return "event recorded"
	case inbound.OutcomeDuplicate:
		return "already processed"
	case inbound.OutcomeInvalidTransition:
		return "transition not allowed, event recorded"
	default:
		return "ignored"
	}
}

func (h *WebhookHandler) respond(w http.ResponseWriter, status int, body WebhookResponse) {
	if err := encoding.WriteJSON(w, status, body); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
