package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/kvops/instrument"
)

// Interceptor records a span, metrics and a log line for every call that
// flows through an instrument.Chain.
//
// Place it first in the chain so its span covers the other interceptors.
type Interceptor struct {
	tracer    Tracer
	metrics   Metrics
	logger    Logger
	component string
}

// spanKey keys the span this interceptor started for a call.
type spanKey struct{ ic *Interceptor }

// NewInterceptor creates an Interceptor. Nil components are replaced with
// no-ops.
func NewInterceptor(tracer Tracer, metrics Metrics, logger Logger, component string) *Interceptor {
	if tracer == nil {
		tracer = NewTracer(nil)
	}
	if metrics == nil {
		metrics, _ = NewMetrics(nil)
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Interceptor{tracer: tracer, metrics: metrics, logger: logger, component: component}
}

// InterceptorFromObserver builds an Interceptor from an Observer's providers.
func InterceptorFromObserver(obs Observer, component string) (*Interceptor, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewInterceptor(NewTracer(obs.Tracer()), metrics, obs.Logger(), component), nil
}

func (i *Interceptor) meta(call *instrument.Call) OperationMeta {
	return OperationMeta{Name: call.Name, Component: i.component}
}

// Before starts the call's span.
func (i *Interceptor) Before(ctx context.Context, call *instrument.Call) (context.Context, error) {
	ctx, span := i.tracer.StartSpan(ctx, i.meta(call))
	return context.WithValue(ctx, spanKey{i}, span), nil
}

// After ends the span, records metrics and logs the outcome.
func (i *Interceptor) After(ctx context.Context, call *instrument.Call) error {
	meta := i.meta(call)
	duration := time.Since(call.Start)

	if span, ok := ctx.Value(spanKey{i}).(trace.Span); ok {
		i.tracer.EndSpan(span, call.Err)
	}
	i.metrics.RecordCall(ctx, meta, duration, call.Err)

	logger := i.logger.WithOperation(meta)
	fields := []Field{{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000}}
	if call.Err != nil {
		fields = append(fields, Field{Key: "error", Value: call.Err.Error()})
		logger.Error(ctx, "operation failed", fields...)
	} else {
		logger.Debug(ctx, "operation completed", fields...)
	}
	return nil
}

var _ instrument.Interceptor = (*Interceptor)(nil)
