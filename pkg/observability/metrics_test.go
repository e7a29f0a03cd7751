package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestHTTPMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Get("/v1/jobs/{job_id}/attempts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := requestsTotal.WithLabelValues("http", "/v1/jobs/{job_id}/attempts", "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/jobs/abc/attempts", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Zero(t, testutil.ToFloat64(requestsInFlight.WithLabelValues("http")))
}

func TestUnaryServerInterceptor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "ok", err: nil, wantCode: "OK"},
		{name: "grpc_status", err: status.Error(codes.Unavailable, "db down"), wantCode: "Unavailable"},
		{name: "plain_error", err: errors.New("boom"), wantCode: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := "/grpc.health.v1.Health/" + tt.name
			counter := requestsTotal.WithLabelValues("grpc", method, tt.wantCode)
			before := testutil.ToFloat64(counter)

			_, err := UnaryServerInterceptor()(context.Background(), nil,
				&grpc.UnaryServerInfo{FullMethod: method},
				func(ctx context.Context, req interface{}) (interface{}, error) { return nil, tt.err },
			)

			require.Equal(t, tt.err, err)
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}
