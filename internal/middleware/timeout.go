package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the request context. Handlers translate an expired
// context into a retryable 503; see WriteUnavailable.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteUnavailable reports a timed out or canceled operation as retryable.
func WriteUnavailable(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	http.Error(w, "Request timed out, retry", http.StatusServiceUnavailable)
}
