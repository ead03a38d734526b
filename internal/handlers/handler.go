package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/api"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/readmodels"
	"github.com/vidtube/backend/internal/repositories"
)

// handlerFunc is an HTTP handler that reports failures by returning them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// wrap is the single point where handler errors become error envelopes.
func wrap(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			api.WriteError(r.Context(), w, err)
		}
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return api.BadRequest("Invalid request body").Wrap(err)
	}
	return nil
}

// pathID reads a path parameter and checks that it is a well-formed identifier.
func pathID(r *http.Request, name, label string) (string, error) {
	return parseID(chi.URLParam(r, name), label)
}

func parseID(raw, label string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", api.BadRequest("Invalid " + label)
	}
	return id.String(), nil
}

// currentUser returns the authenticated caller.
func currentUser(r *http.Request) (models.User, error) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		return models.User{}, api.Unauthorized("Unauthorized request")
	}
	return user, nil
}

// requireOwner fails with Forbidden unless the caller owns the entity.
func requireOwner(ownerID, callerID, action string) error {
	if ownerID == "" || ownerID != callerID {
		return api.Forbidden("You are not authorized to " + action)
	}
	return nil
}

// lookupError maps a failed lookup onto NotFound or an internal error.
func lookupError(err error, notFound string) error {
	if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, readmodels.ErrNotFound) {
		return api.NotFound(notFound)
	}
	return api.Internal("Something went wrong", err)
}

// storeError wraps an unexpected persistence failure.
func storeError(message string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return api.NotFound("Resource not found")
	}
	return api.Internal(message, err)
}

var errDatabaseUnavailable = errors.New("database unavailable")

// UserLookup resolves users referenced by path parameters.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now().UTC()
}

// Default page sizes per listing.
const (
	videoPageSize   = 5
	commentPageSize = 10
	tweetPageSize   = 10
)
