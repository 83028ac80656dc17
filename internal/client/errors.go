package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no usable credential is left; the user has to
	// log in again.
	ErrUnauthenticated = errors.New("not logged in")
	ErrNotFound        = errors.New("record not found")
	ErrConflict        = errors.New("already exists")
)

// APIError is a non-2xx answer from the record store.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("record store returned %d", e.Status)
	}
	return fmt.Sprintf("record store returned %d: %s", e.Status, e.Message)
}
