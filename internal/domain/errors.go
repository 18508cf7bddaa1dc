package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a user or item id is unknown.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write was based on a stale version.
	ErrConflict = errors.New("version conflict")
)

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
