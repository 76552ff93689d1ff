package client

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("product not found")
	ErrRejected    = errors.New("request rejected by catalog")
	ErrUnavailable = errors.New("catalog unavailable")
	ErrCircuitOpen = errors.New("catalog circuit open")
)

// APIError is a non-2xx answer from the catalog. It unwraps to one of the
// sentinel errors above, so callers match it with errors.Is.
type APIError struct {
	Status  int
	Message string
	// Fields holds per-field validation failures, when the catalog sent any.
	Fields map[string]string
	kind   error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: status %d", e.kind, e.Status)
	}
	return fmt.Sprintf("%v: status %d: %s", e.kind, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}
