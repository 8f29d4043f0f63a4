package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Remote service errors
	ErrTransient          = fmt.Errorf("transient remote error")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")

	// Transfer errors
	ErrBatchFailed = fmt.Errorf("batch write exhausted retries")

	// ErrPersistence marks a failed library or checkpoint write. Fatal for
	// the run: silent progress loss is worse than stopping.
	ErrPersistence = fmt.Errorf("persistence failure")

	// ErrNotFound indicates a library/checkpoint invariant violation, e.g.
	// setting a match for a track that was never recorded.
	ErrNotFound = fmt.Errorf("record not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// IsTransient reports whether err should be retried with backoff rather than
// escalated immediately.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
