package service

import (
	"errors"
	"fmt"

	"github.com/grid-nexus/nexus-api/internal/thread"
)

// Errors returned by services. Handlers map them to status codes with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("too many concurrent updates, try again")
	ErrCycle           = thread.ErrCycle
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s %w", kind, id, ErrNotFound)
}

func forbidden(action string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, action)
}
