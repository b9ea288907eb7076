package handler

// RESPONSE HELPERS:
// These functions standardise how we read JSON requests and send JSON
// responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "not_found", "message": "task not found with id 7"}
//
// "error" is a stable machine-readable code, "message" is for humans.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/tasklist/internal/apperror"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error code (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// MessageResponse is the body of the task update and delete endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status MUST be set before the body is written: once Encode
// calls w.Write, later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, we can only log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and error code.
//
// errors.Is walks the whole chain, so a service that returns
// fmt.Errorf("creating task: %w", apperror.ValidationFailed(...)) still
// lands on the 400 branch.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, code := http.StatusInternalServerError, "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, code = http.StatusBadRequest, "invalid_input"
		case errors.Is(err, apperror.ErrDuplicateEmail):
			status, code = http.StatusBadRequest, "duplicate_email"
		case errors.Is(err, apperror.ErrInvalidCredentials):
			status, code = http.StatusUnauthorized, "invalid_credentials"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status, code = http.StatusUnauthorized, "unauthenticated"
		case errors.Is(err, apperror.ErrNotFound):
			status, code = http.StatusNotFound, "not_found"
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{Error: code, Message: appErr.Message})
			return
		}
	}

	// NEVER expose internal error details to the client: the raw message
	// might contain SQL or file paths.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON object from the request body into dst.
//
// The body is capped at maxBodyBytes. Unknown fields are ignored. Anything
// that isn't a well-formed JSON object of the right shape is InvalidInput.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.ValidationFailed("", "request body too large")
		}
		return apperror.ValidationFailed("", "request body must be a JSON object")
	}
	return nil
}
