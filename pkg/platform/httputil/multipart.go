package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	dErrors "tramite/pkg/domain-errors"
)

// MaxUploadBytes caps multipart request bodies.
const MaxUploadBytes = 32 << 20

// PayloadField is the multipart field carrying the JSON document.
const PayloadField = "payload"

// FilesField is the multipart field carrying attachments.
const FilesField = "files"

// FilePart is one uploaded attachment.
type FilePart struct {
	Name        string
	ContentType string
	Data        []byte
}

// IsMultipart reports whether r carries a multipart/form-data body.
func IsMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// DecodeWithFiles decodes a JSON body, or a multipart body whose "payload"
// field holds the JSON and whose "files" fields hold attachments. It writes
// the error response itself on failure.
func DecodeWithFiles[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, []FilePart, bool) {
	if !IsMultipart(r) {
		req, ok := DecodeAndPrepare[T, PT](w, r, logger, ctx, requestID)
		return req, nil, ok
	}

	req := PT(new(T))
	files, err := decodeMultipart(r, req)
	if err == nil {
		err = Prepare(req)
	}
	if err != nil {
		logger.WarnContext(ctx, "invalid multipart request",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, nil, false
	}
	return req, files, true
}

func decodeMultipart(r *http.Request, dst any) ([]FilePart, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart body")
	}
	payload := strings.TrimSpace(r.FormValue(PayloadField))
	if payload == "" {
		payload = "{}"
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid json payload")
	}

	var files []FilePart
	for _, fh := range r.MultipartForm.File[FilesField] {
		f, err := fh.Open()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable file "+fh.Filename)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable file "+fh.Filename)
		}
		files = append(files, FilePart{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}
