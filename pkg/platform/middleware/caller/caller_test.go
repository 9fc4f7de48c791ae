package caller

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	id "tramite/pkg/domain"
	"tramite/pkg/requestcontext"
)

func TestIdentity(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var area id.AreaID
	var user id.UserID
	h := Identity(logger)(RequireArea(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		area = requestcontext.AreaID(r.Context())
		user = requestcontext.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	t.Run("valid headers reach handler", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderAreaID, "12")
		r.Header.Set(HeaderUserID, "3")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, id.AreaID(12), area)
		assert.Equal(t, id.UserID(3), user)
	})

	t.Run("missing area is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "active area")
	})

	t.Run("malformed area is rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(HeaderAreaID, "abc")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
