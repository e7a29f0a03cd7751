package cron

import (
	"context"
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/services/webhook"
	"github.com/kevin07696/settlement-service/pkg/encoding"
	"github.com/kevin07696/settlement-service/pkg/resilience"
	"github.com/kevin07696/settlement-service/pkg/shutdown"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

// DispatchRunner runs one claim-and-deliver cycle over the outbound queue
type DispatchRunner interface {
	Run(ctx context.Context) (*webhook.RunStats, error)
}

// DispatchHandler exposes the webhook dispatcher to an external scheduler
type DispatchHandler struct {
	runner     DispatchRunner
	inflight   *shutdown.InFlightTracker
	timeouts   *resilience.TimeoutConfig
	logger     *zap.Logger
	cronSecret string // Secret token for authenticating cron requests
}

// NewDispatchHandler creates a new dispatch cron handler. inflight may be nil.
func NewDispatchHandler(
	runner DispatchRunner,
	inflight *shutdown.InFlightTracker,
	timeouts *resilience.TimeoutConfig,
	logger *zap.Logger,
	cronSecret string,
) *DispatchHandler {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &DispatchHandler{
		runner:     runner,
		inflight:   inflight,
		timeouts:   timeouts,
		logger:     logger,
		cronSecret: cronSecret,
	}
}

// DispatchResponse reports one dispatcher run
type DispatchResponse struct {
	Success     bool   `json:"success"`
	Released    int64  `json:"released"`
	Claimed     int    `json:"claimed"`
	Delivered   int    `json:"delivered"`
	Retrying    int    `json:"retrying"`
	Failed      int    `json:"failed"`
	Errors      int    `json:"errors"`
	DurationMs  int64  `json:"duration_ms"`
	ProcessedAt string `json:"processed_at"`
}

// DispatchWebhooks handles POST /cron/dispatch-webhooks.
// Responds 200 when every claimed job was settled, 206 when some jobs hit
// persistence errors (they are retried after the claim lease), 500 when the
// run could not claim at all.
func (h *DispatchHandler) DispatchWebhooks(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Webhook dispatch triggered",
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("user_agent", r.UserAgent()),
	)

	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	if !h.authenticateRequest(r) {
		h.logger.Warn("Unauthorized cron request",
			zap.String("remote_addr", r.RemoteAddr),
		)
		h.respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if h.inflight != nil {
		if !h.inflight.Add() {
			h.respondError(w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		defer h.inflight.Done()
	}

	// The run outlives a scheduler that hangs up early.
	ctx, cancel := h.timeouts.CronContext(context.WithoutCancel(r.Context()))
	defer cancel()

	stats, err := h.runner.Run(ctx)
	if err != nil {
		h.logger.Error("Webhook dispatch failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	resp := DispatchResponse{
		Success:     stats.Errors == 0,
		Released:    stats.Released,
		Claimed:     stats.Claimed,
		Delivered:   stats.Delivered,
		Retrying:    stats.Retrying,
		Failed:      stats.Failed,
		Errors:      stats.Errors,
		DurationMs:  stats.Duration.Milliseconds(),
		ProcessedAt: timeutil.Stamp(timeutil.Now()),
	}

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusPartialContent
	}
	h.respondJSON(w, status, resp)
}

// HealthCheck handles GET /cron/health for monitoring
func (h *DispatchHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   timeutil.Stamp(timeutil.Now()),
	})
}

// authenticateRequest accepts the cron secret from X-Cron-Secret, a Bearer
// token, or (development only) the "secret" query parameter
func (h *DispatchHandler) authenticateRequest(r *http.Request) bool {
	if h.cronSecret == "" {
		return false
	}

	if secretEqual(r.Header.Get("X-Cron-Secret"), h.cronSecret) {
		return true
	}

	if secretEqual(r.Header.Get("Authorization"), "Bearer "+h.cronSecret) {
		return true
	}

	if secretEqual(r.URL.Query().Get("secret"), h.cronSecret) {
		h.logger.Warn("Using query parameter authentication (insecure)",
			zap.String("remote_addr", r.RemoteAddr),
		)
		return true
	}

	return false
}

func secretEqual(got, want string) bool {
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (h *DispatchHandler) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	if err := encoding.WriteJSON(w, status, body); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// respondError sends an error response
func (h *DispatchHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
