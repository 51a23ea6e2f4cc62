// Package observe provides logging, tracing and metrics for store operations.
//
// The Logger is a small JSON structured logger. Tracing and metrics are built
// on OpenTelemetry; Observer wires providers and exporters from a Config, and
// Interceptor plugs them into an instrument.Chain so every wrapped operation
// gets a span, call/error counters and a duration histogram.
//
//	obs, _ := observe.NewObserver(ctx, cfg)
//	ic, _ := observe.InterceptorFromObserver(obs, "cache")
//	chain := instrument.NewChain(ic, instrument.NewCallCounter(st), instrument.NewCallHistory(st))
package observe
