package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	// Request metrics for both transports. route is the chi pattern or the full
	// gRPC method, never the raw path, so ids do not explode cardinality.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "requests_total",
			Help: "Requests served, by transport, route and result code",
		},
		[]string{"transport", "route", "code"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "request_duration_seconds",
			Help:    "Request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"transport", "route"},
	)

	requestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "requests_in_flight",
			Help: "Requests currently being served",
		},
		[]string{"transport"},
	)
)

const unmatchedRoute = "unmatched"

// HTTPMetrics records request metrics for a chi router. Mount it with r.Use so
// the route pattern is resolved by the time the handler returns.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestsInFlight.WithLabelValues("http").Inc()
		defer requestsInFlight.WithLabelValues("http").Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}

		requestDuration.WithLabelValues("http", route).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues("http", route, strconv.Itoa(code)).Inc()
	})
}

// UnaryServerInterceptor records request metrics for the gRPC port
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		requestsInFlight.WithLabelValues("grpc").Inc()
		defer requestsInFlight.WithLabelValues("grpc").Dec()

		resp, err := handler(ctx, req)

		requestDuration.WithLabelValues("grpc", info.FullMethod).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues("grpc", info.FullMethod, status.Code(err).String()).Inc()

		return resp, err
	}
}
