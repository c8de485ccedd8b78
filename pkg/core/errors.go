package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrPersistenceUnavailable means the store is unreachable or rejected the operation.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrNotFound means the record does not exist (or was deleted).
	ErrNotFound = errors.New("note not found")

	// ErrInvalidState is returned for commands issued against a terminated session.
	ErrInvalidState = errors.New("invalid session state")

	// ErrReleased is returned when a result handle is released twice.
	ErrReleased = errors.New("result handle already released")

	// ErrReadOnly is returned by stores opened in read-only mode.
	ErrReadOnly = errors.New("repository is in read-only mode")
)

// Unavailable wraps err as ErrPersistenceUnavailable unless it already
// carries one of the taxonomy sentinels.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrPersistenceUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistenceUnavailable, err)
}

// NotFound builds an ErrNotFound for id.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
