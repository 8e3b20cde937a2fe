package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dataunify/pipeline/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Metrics records request duration against metrics.HTTPRequestDuration,
// labeled by the matched chi route pattern rather than the raw path so
// path parameters don't explode the metric's cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).
			Observe(time.Since(start).Seconds())
	})
}
