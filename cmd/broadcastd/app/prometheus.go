package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var defaultBuckets = []float64{5, 10, 20, 50, 100, 200, 500, 1000}

const service = "broadcastcore"

// prometheusMiddleware exposes per-route request counters and latency
// histograms for this service's own routes.
type prometheusMiddleware struct {
	httpReqs    *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

var prometheusMW prometheusMiddleware

func init() {
	prometheusMW.httpReqs = newCounter("http_requests_total",
		"Number of HTTP requests processed, partitioned by route and status code.", service)
	prometheusMW.httpLatency = newHistogram("http_request_duration_milliseconds",
		"HTTP response latency, partitioned by route.", service, defaultBuckets)
}

// NewPrometheusMiddleware returns the request-metrics middleware.
func NewPrometheusMiddleware() func(next http.Handler) http.Handler {
	return prometheusMW.handler
}

func (mw prometheusMiddleware) handler(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		route := routePattern(r)
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := strconv.Itoa(ww.Status())
		latencyMS := float64(time.Since(start).Nanoseconds()) * 1e-6
		mw.httpReqs.WithLabelValues(route, status).Inc()
		mw.httpLatency.WithLabelValues(route, status).Observe(latencyMS)
	}
	return http.HandlerFunc(fn)
}

func routePattern(r *http.Request) string {
	if rc := middleware.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		return rc.RoutePattern()
	}
	return r.URL.Path
}

func newCounter(name, help, serviceName string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: name, Help: help, ConstLabels: prometheus.Labels{"service": serviceName}},
		[]string{"route", "code"},
	)
	prometheus.MustRegister(cv)
	return cv
}

func newHistogram(name, help, serviceName string, buckets []float64) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: name, Help: help, ConstLabels: prometheus.Labels{"service": serviceName}, Buckets: buckets,
	}, []string{"route", "code"})
	prometheus.MustRegister(h)
	return h
}
