package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// OperationMeta identifies an instrumented operation for telemetry.
type OperationMeta struct {
	Name      string // qualified operation name, e.g. "Cache.store"
	Component string // owning component, e.g. "cache" or "webcache" (optional)
}

// SpanName returns the span name for the operation: kv.op.<name>.
func (m OperationMeta) SpanName() string {
	return "kv.op." + m.Name
}

func (m OperationMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("kv.operation", m.Name)}
	if m.Component != "" {
		attrs = append(attrs, attribute.String("kv.component", m.Component))
	}
	return attrs
}

// Tracer starts and ends spans for operations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan is best-effort and must not panic.
type Tracer interface {
	StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type otelTracer struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		t = tracenoop.NewTracerProvider().Tracer("noop")
	}
	return &otelTracer{tracer: t}
}

// StartSpan starts an internal span tagged with the operation attributes.
func (t *otelTracer) StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("kv.error", false))
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpan records err, if any, and ends the span.
func (t *otelTracer) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("kv.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
