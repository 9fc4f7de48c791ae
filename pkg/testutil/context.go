package testutil

import (
	"net/http"

	id "tramite/pkg/domain"
	"tramite/pkg/requestcontext"
)

// WithArea adds the caller's active area to the request context, as the
// caller middleware would after reading X-Area-Id.
func WithArea(req *http.Request, areaID int64) *http.Request {
	ctx := requestcontext.WithArea(req.Context(), id.AreaID(areaID))
	return req.WithContext(ctx)
}

// WithCaller adds both area and user ids.
func WithCaller(req *http.Request, areaID, userID int64) *http.Request {
	ctx := requestcontext.WithArea(req.Context(), id.AreaID(areaID))
	ctx = requestcontext.WithUserID(ctx, id.UserID(userID))
	return req.WithContext(ctx)
}
