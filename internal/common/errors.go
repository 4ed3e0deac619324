// Package common defines shared constants and sentinel errors used across
// registrar layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors raised at the data-model boundary.
	ErrorValidation = errors.New("validation error")

	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")

	// Uniqueness errors; see ConflictError for the field.
	ErrConflict = errors.New("already registered")

	// Infrastructure errors raised by the directory client.
	ErrDirectory = errors.New("directory error")
)

// Conflict field names reported by registration.
const (
	ConflictFieldUsername = "username"
	ConflictFieldEmail    = "email"
)

// ConflictError reports which uniqueness constraint a registration violated.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, ErrConflict.Error())
}

// Is makes errors.Is(err, ErrConflict) true for any ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError returns a ConflictError for the given field.
func NewConflictError(field string) error {
	return &ConflictError{Field: field}
}

// ValidationError wraps ErrorValidation with the offending field.
func ValidationError(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrorValidation, field, reason)
}
