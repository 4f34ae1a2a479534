package app

import (
	"net/http"

	"github.com/onairstack/broadcastcore/internal/version"
)

// addVersionAndCORSHeaders stamps every response with the running build's
// version and permissive CORS headers.
func addVersionAndCORSHeaders(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Broadcastcore-Version", version.GetVersion())
		w.Header().Add("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Private-Network", "true")
		w.Header().Add("Timing-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}
