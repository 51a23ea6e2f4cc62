// Package resilience protects calls to slow or failing upstreams.
//
// It provides a circuit breaker, retry with backoff and a per-attempt
// timeout, composed by Executor:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 2})),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	body, err := resilience.Do(ctx, exec, func(ctx context.Context) (string, error) {
//	    return fetch(ctx, url)
//	})
//
// Errors wrapped with Permanent are never retried and never count against
// the breaker.
package resilience
