package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retry with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`

	// InitialDelay is the wait before the second attempt. Default: 100ms
	InitialDelay time.Duration `yaml:"initial_delay"`

	// MaxDelay caps the wait between attempts. Default: 5s
	MaxDelay time.Duration `yaml:"max_delay"`

	// Multiplier grows the delay after each attempt. Default: 2.0
	Multiplier float64 `yaml:"multiplier"`

	// Jitter adds up to 25% random delay.
	Jitter bool `yaml:"jitter"`

	// RetryIf decides whether err is worth another attempt.
	// Default: non-nil errors that are not Permanent and not ErrCircuitOpen.
	RetryIf func(err error) bool `yaml:"-"`

	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, delay time.Duration) `yaml:"-"`
}

// Retry re-runs failed operations with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry handler, filling config defaults.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 5 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool {
			return err != nil && !IsPermanent(err) && !errors.Is(err, ErrCircuitOpen)
		}
	}
	return &Retry{config: config}
}

// Execute runs op until it succeeds, returns a non-retryable error, or
// MaxAttempts is reached. The last error is returned.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil || !r.config.RetryIf(err) || attempt >= r.config.MaxAttempts {
			return err
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Config returns the effective configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

func (r *Retry) delay(attempt int) time.Duration {
	d := time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	if d > r.config.MaxDelay || d <= 0 {
		d = r.config.MaxDelay
	}
	if r.config.Jitter && d >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d += time.Duration(rand.Int64N(int64(d / 4)))
	}
	return d
}
