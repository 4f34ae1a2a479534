package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMiddlewareRecordsRequestsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(NewPrometheusMiddleware())
	r.Get("/channels/{channel_id}/epg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/channels/ch1/epg", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	before := testutil.ToFloat64(prometheusMW.httpReqs.WithLabelValues("/channels/{channel_id}/epg", "200"))
	require.GreaterOrEqual(t, before, float64(1))
}

func TestRoutePatternFallsBackToPathWithoutChiContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/unmatched/path", nil)
	require.Equal(t, "/unmatched/path", routePattern(req))
}
