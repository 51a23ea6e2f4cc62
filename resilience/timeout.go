package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds an attempt when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Timeout bounds a single attempt.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a timeout wrapper. Non-positive d uses DefaultTimeout.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &Timeout{d: d}
}

// Duration returns the configured timeout.
func (t *Timeout) Duration() time.Duration {
	return t.d
}

// Execute runs op with a deadline. An op that ignores its context is
// abandoned when the deadline passes.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- op(ctx) }()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
			return errors.Join(ErrTimeout, err)
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}
