package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a key is absent.
	ErrNotFound = errors.New("key not found")

	// ErrInvalidInput is returned when a document is not valid JSON.
	ErrInvalidInput = errors.New("document is not valid JSON")

	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("key must not be empty")
)

// PersistenceError occurs when the backend fails to load or save a snapshot.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s snapshot: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
