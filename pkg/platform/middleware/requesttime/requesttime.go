// Package requesttime captures one "now" per request so that a transition's
// rows, its schedule check and its log lines agree on the same instant.
package requesttime

import (
	"net/http"
	"time"

	"tramite/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
