package health

import (
	"context"
	"time"

	"github.com/jonwraymond/kvops/resilience"
	"github.com/jonwraymond/kvops/store"
)

// DefaultSlowPing is the ping latency above which a store is degraded.
const DefaultSlowPing = 250 * time.Millisecond

// StoreChecker pings a store.
type StoreChecker struct {
	name     string
	store    store.Pinger
	slowPing time.Duration
}

// NewStoreChecker checks st with PING. A ping slower than DefaultSlowPing
// reports degraded.
func NewStoreChecker(name string, st store.Pinger) *StoreChecker {
	return &StoreChecker{name: name, store: st, slowPing: DefaultSlowPing}
}

// WithSlowPing sets the degraded latency threshold.
func (c *StoreChecker) WithSlowPing(d time.Duration) *StoreChecker {
	c.slowPing = d
	return c
}

func (c *StoreChecker) Name() string { return c.name }

// Check pings the store.
func (c *StoreChecker) Check(ctx context.Context) Result {
	if store.IsNil(c.store) {
		return Unhealthy("store not configured", store.ErrNilStore)
	}
	start := time.Now()
	if err := c.store.Ping(ctx); err != nil {
		return Unhealthy("ping failed", err)
	}
	latency := time.Since(start)
	details := map[string]any{"latency": latency.String()}
	if c.slowPing > 0 && latency > c.slowPing {
		return Degraded("ping slow").WithDetails(details)
	}
	return Healthy("ping ok").WithDetails(details)
}

// BreakerChecker reports a circuit breaker's state. An open circuit is
// degraded, not unhealthy: cached pages are still served.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker for cb.
func NewBreakerChecker(name string, cb *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: cb}
}

func (c *BreakerChecker) Name() string { return c.name }

// Check reads the breaker state.
func (c *BreakerChecker) Check(context.Context) Result {
	if c.breaker == nil {
		return Healthy("no breaker")
	}
	state := c.breaker.State()
	details := map[string]any{"state": state.String(), "failures": c.breaker.Failures()}
	switch state {
	case resilience.StateClosed:
		return Healthy("circuit closed").WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit probing").WithDetails(details)
	default:
		r := Degraded("circuit open").WithDetails(details)
		r.Error = ErrCircuitOpen
		return r
	}
}
