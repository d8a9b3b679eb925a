package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gatewayVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lurkgate_gateway_verdicts_total",
			Help: "Gateway decisions by verdict and path class",
		},
		[]string{"verdict", "class"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lurkgate_http_requests_total",
			Help: "HTTP requests by method, path class and status",
		},
		[]string{"method", "class", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lurkgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "class"},
	)
)

func recordVerdict(v verdict, class string) {
	gatewayVerdicts.WithLabelValues(string(v), class).Inc()
}

// pathClass buckets request paths into a small label set so metric
// cardinality stays flat no matter what clients request.
func pathClass(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/admin"):
		return "admin_api"
	case strings.HasPrefix(path, "/api/comments"):
		return "comments"
	case strings.HasPrefix(path, "/api/reactions"):
		return "reactions"
	case strings.HasPrefix(path, "/api/"):
		return "api"
	case strings.HasPrefix(path, "/admin"):
		return "admin"
	default:
		return "other"
	}
}

// MetricsMiddleware records request counts and durations.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		class := pathClass(r.URL.Path)
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		httpRequestsTotal.WithLabelValues(r.Method, class, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, class).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status for metric labels.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
