// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelvault_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reelvault_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reelvault_http_response_size_bytes",
		Help:    "HTTP response sizes in bytes",
		Buckets: prometheus.ExponentialBuckets(100, 10, 8),
	}, []string{"method", "path", "status"})
)

// Metrics creates a middleware that records Prometheus metrics for HTTP
// requests: duration, in-flight count, response sizes and status codes.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			httpRequestsInFlight.Inc()
			defer httpRequestsInFlight.Dec()

			mw := &metricsWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(mw, r)

			// Route patterns keep label cardinality bounded.
			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}

			status := strconv.Itoa(mw.statusCode)
			httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
			if mw.bytesWritten > 0 {
				httpResponseSize.WithLabelValues(r.Method, path, status).Observe(float64(mw.bytesWritten))
			}
		})
	}
}

// metricsWriter wraps http.ResponseWriter to capture status and size.
type metricsWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	written      bool
}

func (mw *metricsWriter) WriteHeader(statusCode int) {
	if !mw.written {
		mw.statusCode = statusCode
		mw.written = true
	}
	mw.ResponseWriter.WriteHeader(statusCode)
}

func (mw *metricsWriter) Write(b []byte) (int, error) {
	if !mw.written {
		mw.WriteHeader(http.StatusOK)
	}
	n, err := mw.ResponseWriter.Write(b)
	mw.bytesWritten += n
	return n, err
}
