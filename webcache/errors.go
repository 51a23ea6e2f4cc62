package webcache

import (
	"errors"
	"fmt"
)

// Sentinel errors for web cache operations.
var (
	// ErrNilFetch indicates New was called without a fetch function.
	ErrNilFetch = errors.New("webcache: fetch function is nil")

	// ErrEmptyURL indicates Get was called with an empty URL.
	ErrEmptyURL = errors.New("webcache: url is empty")

	// ErrFetchStatus indicates the upstream answered with a non-2xx status.
	ErrFetchStatus = errors.New("webcache: unexpected status")

	// ErrBodyTooLarge indicates the upstream body exceeded MaxBodyBytes.
	ErrBodyTooLarge = errors.New("webcache: response body too large")
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webcache: GET %s: status %d", e.URL, e.StatusCode)
}

// Unwrap lets errors.Is match ErrFetchStatus.
func (e *StatusError) Unwrap() error {
	return ErrFetchStatus
}
