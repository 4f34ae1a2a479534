package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddVersionAndCORSHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	addVersionAndCORSHeaders(next).ServeHTTP(rec, req)

	require.NotEmpty(t, rec.Header().Get("Broadcastcore-Version"))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Private-Network"))
	require.Equal(t, "*", rec.Header().Get("Timing-Allow-Origin"))
	require.Equal(t, http.StatusOK, rec.Code)
}
