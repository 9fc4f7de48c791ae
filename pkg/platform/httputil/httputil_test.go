package httputil

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "tramite/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("uncoded error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, io.ErrUnexpectedEOF)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("validation includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeValidation, "flow is not addressed to your area"))

		require.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "validation_error", body["error"])
		assert.Equal(t, "flow is not addressed to your area", body["error_description"])
	})

	t.Run("status mapping", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, StatusFor(dErrors.CodeNotFound))
		assert.Equal(t, http.StatusConflict, StatusFor(dErrors.CodeConflict))
		assert.Equal(t, http.StatusBadRequest, StatusFor(dErrors.CodeInvalidInput))
		assert.Equal(t, http.StatusUnauthorized, StatusFor(dErrors.CodeUnauthorized))
	})
}

type sampleRequest struct {
	Subject string `json:"subject" validate:"required,max=10"`
	Folios  int    `json:"folios" validate:"min=0"`
	checked bool
}

func (r *sampleRequest) Validate() error {
	r.Subject = strings.TrimSpace(r.Subject)
	if r.Subject == "x" {
		return dErrors.New(dErrors.CodeValidation, "subject x is reserved")
	}
	r.checked = true
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	run := func(body string) (*sampleRequest, bool, *httptest.ResponseRecorder) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-1")
		return req, ok, w
	}

	t.Run("valid body runs both validators", func(t *testing.T) {
		req, ok, _ := run(`{"subject":" hello ","folios":2}`)
		require.True(t, ok)
		assert.Equal(t, "hello", req.Subject)
		assert.True(t, req.checked)
	})

	t.Run("tag failure uses json field names", func(t *testing.T) {
		_, ok, w := run(`{"folios":1}`)
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "subject is required")
	})

	t.Run("custom validation failure", func(t *testing.T) {
		_, ok, w := run(`{"subject":"x"}`)
		require.False(t, ok)
		assert.Contains(t, w.Body.String(), "reserved")
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		_, ok, w := run(`{"subject":"a","nope":1}`)
		require.False(t, ok)
		assert.Contains(t, w.Body.String(), "bad_request")
	})
}
