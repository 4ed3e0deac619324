package api

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already registered")
	ErrValidation   = errors.New("rejected by server")
)

// Error is a non-2xx answer from the server.
type Error struct {
	Status int
	Detail string
	Field  string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

// Unwrap maps the status onto one of the package sentinels.
func (e *Error) Unwrap() error {
	switch e.Status {
	case 401:
		return ErrUnauthorized
	case 409:
		return ErrConflict
	case 400, 422:
		return ErrValidation
	}
	return nil
}
