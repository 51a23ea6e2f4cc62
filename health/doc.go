// Package health reports whether the store and the upstream fetcher are
// usable.
//
// Checkers are registered on an Aggregator, which runs them concurrently
// under one deadline. The HTTP handlers expose liveness (/healthz),
// readiness (/readyz) and a JSON report (/health).
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewStoreChecker("redis", st))
//	agg.Register(health.NewBreakerChecker("upstream", fetcher.Breaker()))
//	report := agg.CheckAll(ctx)
package health
