package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument wraps a handler with request counting and latency observation.
func Instrument(next http.Handler, tel observability.Observability) http.Handler {
	if tel == nil {
		return next
	}
	requests := tel.Metrics().Counter(observability.MHTTPRequests)
	durations := tel.Metrics().Histogram(observability.MHTTPRequestDuration)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		requests.Add(1,
			observability.L("method", r.Method),
			observability.L("path", r.URL.Path),
			observability.L("status", strconv.Itoa(rec.status)),
		)
		durations.Observe(time.Since(start).Seconds(),
			observability.L("method", r.Method),
			observability.L("path", r.URL.Path),
		)
	})
}
