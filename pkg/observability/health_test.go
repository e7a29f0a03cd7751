package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func TestHealthChecker_OptionalDependencies(t *testing.T) {
	h := NewHealthChecker(nil)
	h.AddCheck("redis", stubPinger{})
	h.AddCheck("kafka", stubPinger{err: errors.New("broker unreachable")})

	status := h.Check(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "not configured", status.Checks["database"])
	assert.Equal(t, "healthy", status.Checks["redis"])
	assert.Contains(t, status.Checks["kafka"], "degraded")
}

func TestHealthChecker_MirrorsGRPCStatus(t *testing.T) {
	h := NewHealthChecker(nil)
	srv := health.NewServer()
	h.AttachGRPC(srv)

	h.Check(context.Background())

	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthChecker(nil)

	rec := httptest.NewRecorder()
	h.HealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
}

func TestHealthChecker_Ready(t *testing.T) {
	h := NewHealthChecker(nil)
	assert.False(t, h.Ready(), "not ready before the first check")

	h.Check(context.Background())

	assert.True(t, h.Ready())
}

func TestHealthChecker_MarkNotReady(t *testing.T) {
	h := NewHealthChecker(nil)
	h.Check(context.Background())
	require.True(t, h.Ready())

	h.MarkNotReady()

	assert.False(t, h.Ready())
}
