// Package middleware wraps the metrics server's handlers with request
// instrumentation and a deadline.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/irkit/pkg/metrics"
)

// routes are the only path labels recorded; anything else is "other".
var routes = map[string]bool{
	"/metrics":      true,
	"/health/live":  true,
	"/health/ready": true,
}

// Metrics records the count and latency of every request served by next.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &recorder{ResponseWriter: w}
			began := time.Now()
			next.ServeHTTP(rec, r)

			route := "other"
			if routes[r.URL.Path] {
				route = r.URL.Path
			}
			m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.code())).Inc()
			m.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(began).Seconds())
		})
	}
}

// recorder remembers the first status code written through it.
type recorder struct {
	http.ResponseWriter
	status int
}

func (rw *recorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *recorder) code() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}
