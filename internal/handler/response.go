// Package handler translates between HTTP and the service layer: it decodes
// request envelopes, calls a service, and encodes the response envelope.
// Every response body is wrapped in a named envelope ({user}, {profile},
// {article}, {articles, articlesCount}, {comment}, {comments}, {tags}).
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/realworld-apps/conduit-neo4j/internal/apperror"
)

// ErrorResponse is the error body of every non-validation failure:
// {"error": "not_found", "message": "article not found: some-slug"}.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code. Headers must
// be set before the first body write.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto the HTTP surface.
//
// Validation failures keep their per-field shape and go out as 422:
// {"errors": {"field": ["message", ...]}}. Everything else uses the
// ErrorResponse shape. Unknown errors become an opaque 500; the raw message
// never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var v *apperror.ValidationErrors
	if errors.As(err, &v) {
		writeJSON(w, http.StatusUnprocessableEntity, v)
		return
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an unexpected error occurred",
	})
}

// decode reads a JSON request body into dst. A syntactically broken body is
// a validation failure, same as a semantically invalid one.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "request body must be valid JSON")
	}
	return nil
}
