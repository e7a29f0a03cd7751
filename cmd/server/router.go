package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/pkg/middleware"
	"github.com/kevin07696/settlement-service/pkg/observability"
)

// newRouter mounts every HTTP surface. Gateway callbacks and the cron trigger
// are rate limited per client; health and the read API are not.
func newRouter(deps *Dependencies, rateLimiter *middleware.RateLimiter, healthChecker *observability.HealthChecker, hsts bool, logger *zap.Logger) (http.Handler, error) {
	deliveryMux, err := deps.deliveriesHandler.NewServeMux()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(observability.HTTPMetrics)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders(hsts))

	r.Get("/health", healthChecker.HealthHandler())

	r.Group(func(r chi.Router) {
		r.Use(rateLimiter.Middleware)
		r.Post("/webhooks/payments", deps.webhookHandler.HandlePayment)
		r.Post("/cron/dispatch-webhooks", deps.dispatchHandler.DispatchWebhooks)
	})
	r.Get("/cron/health", deps.dispatchHandler.HealthCheck)

	// Delivery log API (grpc-gateway mux matches on the full path)
	r.Handle("/v1/*", deliveryMux)

	return r, nil
}
