// Package caller reads the identity the gateway asserts for each request.
//
// Authentication happens upstream. The gateway forwards the caller's active
// area in X-Area-Id and, when known, the user in X-User-Id. This package only
// parses those claims into the request context.
package caller

import (
	"fmt"
	"log/slog"
	"net/http"

	id "tramite/pkg/domain"
	request "tramite/pkg/platform/middleware/request"
	"tramite/pkg/requestcontext"
)

const (
	HeaderAreaID = "X-Area-Id"
	HeaderUserID = "X-User-Id"
)

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// Identity copies well-formed identity headers into the context. Malformed
// headers are rejected; missing ones are left for RequireArea to decide.
func Identity(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if raw := r.Header.Get(HeaderAreaID); raw != "" {
				areaID, err := id.ParseAreaID(raw)
				if err != nil {
					logger.WarnContext(ctx, "malformed area header",
						"request_id", request.GetRequestID(ctx),
						"error", err,
					)
					writeJSONError(w, http.StatusBadRequest, "invalid_input", "invalid X-Area-Id header")
					return
				}
				ctx = requestcontext.WithArea(ctx, areaID)
			}
			if raw := r.Header.Get(HeaderUserID); raw != "" {
				userID, err := id.ParseUserID(raw)
				if err != nil {
					writeJSONError(w, http.StatusBadRequest, "invalid_input", "invalid X-User-Id header")
					return
				}
				ctx = requestcontext.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireArea rejects requests that did not assert an active area.
func RequireArea(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.AreaID(ctx).IsZero() {
				logger.WarnContext(ctx, "missing active area",
					"request_id", request.GetRequestID(ctx),
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusBadRequest, "validation_error", "active area header is required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
