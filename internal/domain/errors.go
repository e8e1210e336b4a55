package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrValidation indicates an empty or malformed folder reference
	ErrValidation = errors.New("invalid folder reference")

	// ErrConflict indicates an import is already being tracked
	ErrConflict = errors.New("an import is already in progress")

	// ErrServerOffline indicates the gateway is unreachable or timed out
	ErrServerOffline = errors.New("import server is unreachable")

	// ErrJobNotFound indicates the gateway no longer knows the polled job
	ErrJobNotFound = errors.New("import job not found")

	// ErrImageNotFound indicates the requested image does not exist
	ErrImageNotFound = errors.New("image not found")

	// ErrPollingAbandoned indicates too many consecutive status checks failed
	ErrPollingAbandoned = errors.New("import status unknown: polling abandoned")
)

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// IsTransient reports whether err is worth retrying without user action.
func IsTransient(err error) bool {
	if errors.Is(err, ErrServerOffline) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 500
}
