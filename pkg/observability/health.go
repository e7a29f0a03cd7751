package observability

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/kevin07696/settlement-service/pkg/encoding"
)

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Status    string            `json:"status"`
}

// Pinger is any dependency that can report liveness (Redis, Kafka, ...).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthChecker manages health checks for the service
type HealthChecker struct {
	dbPool   *pgxpool.Pool
	optional map[string]Pinger
	grpc     *health.Server
	mu       sync.RWMutex
	ready    atomic.Bool
}

// NewHealthChecker creates a new HealthChecker
func NewHealthChecker(dbPool *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{
		dbPool:   dbPool,
		optional: make(map[string]Pinger),
	}
}

// AddCheck registers an optional dependency. Its failure is reported but does not
// mark the service unhealthy.
func (h *HealthChecker) AddCheck(name string, p Pinger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.optional[name] = p
}

// AttachGRPC mirrors the database check into the standard gRPC health service.
func (h *HealthChecker) AttachGRPC(srv *health.Server) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.grpc = srv
}

// Check performs health checks and returns the status
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	checks := make(map[string]string)
	overallStatus := "healthy"

	if h.dbPool != nil {
		dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := h.dbPool.Ping(dbCtx); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	h.mu.RLock()
	for name, p := range h.optional {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := p.Ping(pingCtx); err != nil {
			checks[name] = "degraded: " + err.Error()
		} else {
			checks[name] = "healthy"
		}
		cancel()
	}
	grpcHealth := h.grpc
	h.mu.RUnlock()

	h.ready.Store(overallStatus == "healthy")

	if grpcHealth != nil {
		serving := healthpb.HealthCheckResponse_SERVING
		if overallStatus != "healthy" {
			serving = healthpb.HealthCheckResponse_NOT_SERVING
		}
		grpcHealth.SetServingStatus("", serving)
	}

	return HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    checks,
	}
}

// HealthHandler returns an HTTP handler for health checks
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := h.Check(r.Context())

		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		_ = encoding.WriteJSON(w, code, status)
	}
}

// Ready reports the result of the most recent Check without running a new one
func (h *HealthChecker) Ready() bool {
	return h.ready.Load()
}

// MarkNotReady fails readiness until the next Check. Called first on shutdown so
// load balancers stop routing before listeners close.
func (h *HealthChecker) MarkNotReady() {
	h.ready.Store(false)
}
