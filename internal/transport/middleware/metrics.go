package middleware

import (
	"net/http"
	"time"

	"github.com/heartmarshall/songsmith-backend/internal/metrics"
)

// Metrics returns middleware that records in-flight requests, request counts
// and latencies. The route label is the ServeMux pattern that matched, so it
// must wrap the mux directly: ServeMux sets Pattern on the request it was
// given, and middleware that calls r.WithContext hides it from outer layers.
func Metrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done := m.TrackInFlight()
			defer done()

			start := time.Now()
			sw := newStatusWriter(w)

			next.ServeHTTP(sw, r)

			m.ObserveHTTP(r.Method, r.Pattern, sw.status, time.Since(start))
		})
	}
}
