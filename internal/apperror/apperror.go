// Package apperror defines the application's error taxonomy.
//
// Every failure the core can report is one AppError wrapping one sentinel.
// Callers branch with errors.Is(err, apperror.ErrNotCreator) and show
// err.Error() to the user; the HTTP layer maps sentinels to status codes.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrDuplicateUsername      = errors.New("duplicate username")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrNotAuthenticated       = errors.New("not authenticated")
	ErrUnknownRecipient       = errors.New("unknown recipient")
	ErrNotARecipient          = errors.New("not a recipient")
	ErrNotCreator             = errors.New("not the creator")
	ErrNotFound               = errors.New("not found")
	ErrAlreadyTerminal        = errors.New("status already final")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying failure (storage errors)
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel and the cause, so errors.Is matches
// ErrPersistenceUnavailable as well as the driver error underneath it.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func DuplicateUsername(username string) *AppError {
	return &AppError{
		Err:     ErrDuplicateUsername,
		Message: fmt.Sprintf("username %q is already taken", username),
		Field:   "username",
	}
}

// InvalidCredentials is returned for an unknown username and for a wrong
// password alike. The message must not say which one failed.
func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid username or password",
	}
}

func NotAuthenticated(action string) *AppError {
	return &AppError{
		Err:     ErrNotAuthenticated,
		Message: fmt.Sprintf("you must be logged in to %s", action),
	}
}

// UnknownRecipient lists every recipient username that did not resolve.
func UnknownRecipient(usernames ...string) *AppError {
	return &AppError{
		Err:     ErrUnknownRecipient,
		Message: fmt.Sprintf("recipient username not found: %s", strings.Join(usernames, ", ")),
		Field:   "recipients",
	}
}

func NotARecipient(jobID, username string) *AppError {
	return &AppError{
		Err:     ErrNotARecipient,
		Message: fmt.Sprintf("%s is not a recipient of job %s", username, jobID),
	}
}

func NotCreator(jobID string) *AppError {
	return &AppError{
		Err:     ErrNotCreator,
		Message: fmt.Sprintf("only the creator can remove job %s", jobID),
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func AlreadyTerminal(jobID, username, status string) *AppError {
	return &AppError{
		Err:     ErrAlreadyTerminal,
		Message: fmt.Sprintf("%s has already %s job %s", username, status, jobID),
	}
}

// PersistenceUnavailable reports a storage failure during op. The in-memory
// state is left as it was before the failed operation.
func PersistenceUnavailable(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrPersistenceUnavailable,
		Message: fmt.Sprintf("storage unavailable while %s", op),
		Cause:   cause,
	}
}
