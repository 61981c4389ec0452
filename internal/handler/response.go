package handler

// RESPONSE HELPERS:
// These functions standardise how we read JSON requests and send JSON
// responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "not_a_recipient", "message": "user c is not a recipient of job ..."}
// plus "field" when a single input field was at fault.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/jobboard/internal/apperror"
)

// maxBodyBytes caps request bodies. The largest legitimate body is a job with
// a long description.
const maxBodyBytes = 64 << 10

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Input field at fault, if any
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status code must be set BEFORE writing the body. Once Encode
// writes, the headers are sent and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// The headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorKind pairs a sentinel with its HTTP status and machine-readable name.
type errorKind struct {
	sentinel error
	status   int
	name     string
}

// errorKinds maps every domain error to HTTP. The service layer never sees
// status codes; this table is the only place they are decided.
var errorKinds = []errorKind{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrUnknownRecipient, http.StatusBadRequest, "unknown_recipient"},
	{apperror.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{apperror.ErrNotAuthenticated, http.StatusUnauthorized, "not_authenticated"},
	{apperror.ErrNotARecipient, http.StatusForbidden, "not_a_recipient"},
	{apperror.ErrNotCreator, http.StatusForbidden, "not_creator"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrDuplicateUsername, http.StatusConflict, "duplicate_username"},
	{apperror.ErrAlreadyTerminal, http.StatusConflict, "already_terminal"},
	{apperror.ErrPersistenceUnavailable, http.StatusServiceUnavailable, "persistence_unavailable"},
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// errors.As() walks the chain and fills appErr if it finds an *AppError;
// errors.Is() then finds the sentinel inside it, however deeply the service
// layer wrapped it with fmt.Errorf("...: %w", err).
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, k := range errorKinds {
			if errors.Is(err, k.sentinel) {
				writeJSON(w, k.status, ErrorResponse{
					Error:   k.name,
					Message: appErr.Message,
					Field:   appErr.Field,
				})
				return
			}
		}
	}

	// Unknown error: never expose internal details (SQL, file paths) to the client.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads exactly one JSON object from the request body into v.
//
// Malformed bodies are reported as validation errors so the client gets the
// same error shape as for a missing field.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("", "request body is empty")
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("", fmt.Sprintf("request body is larger than %d bytes", maxErr.Limit))
		default:
			return apperror.ValidationFailed("", "invalid JSON body: "+err.Error())
		}
	}
	if dec.More() {
		return apperror.ValidationFailed("", "request body must contain a single JSON object")
	}
	return nil
}
