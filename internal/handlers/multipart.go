package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/api"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
)

const multipartMemory = 8 << 20

// parseMultipart bounds the request body and parses it as a multipart form.
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return api.BadRequest("Upload is too large").Wrap(err)
		}
		return api.BadRequest("Invalid multipart form").Wrap(err)
	}
	return nil
}

// formFile returns the first file sent under any of names.
func formFile(r *http.Request, names ...string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	for _, name := range names {
		if files := r.MultipartForm.File[name]; len(files) > 0 {
			return files[0]
		}
	}
	return nil
}

// formValue returns a trimmed form field.
func formValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.FormValue(name))
}

// uploadError maps a failed upload onto the error envelope.
func uploadError(err error, message string) error {
	if errors.Is(err, media.ErrEmptyFile) || errors.Is(err, media.ErrNoFile) {
		return api.BadRequest("Uploaded file is empty").Wrap(err)
	}
	return api.Internal(message, err)
}

// discardAssets removes stored objects that are no longer referenced. Failures are logged.
func discardAssets(r *http.Request, store MediaStore, publicIDs ...string) {
	for _, id := range publicIDs {
		if err := store.Delete(r.Context(), id); err != nil {
			logging.FromContext(r.Context()).Warn("discard stored asset", "publicId", id, "error", err)
		}
	}
}
