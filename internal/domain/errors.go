package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")

	// ErrInvalidURL marks a directory URL that cannot be canonicalized.
	// Recovered locally by dropping the offending record; never surfaced
	// to API consumers as a failure.
	ErrInvalidURL = errors.New("invalid directory url")

	// ErrInvalidParent marks a normalization call with a parent key that is
	// neither a canonical URL nor a registered sentinel. This is a caller
	// bug, not a runtime condition.
	ErrInvalidParent = errors.New("invalid parent key")

	// ErrFetchFailed wraps transport/decode errors from the remote directory.
	ErrFetchFailed = errors.New("directory fetch failed")

	// ErrNoData is escalated when a key has no cached items and no refresh
	// succeeded within the configured wait.
	ErrNoData = errors.New("no directory data available")
)
