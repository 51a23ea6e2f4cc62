package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records per-call metrics for operations.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	RecordCall(ctx context.Context, meta OperationMeta, duration time.Duration, err error)
}

type otelMetrics struct {
	total    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates the kv.op.* instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}

	total, err := meter.Int64Counter("kv.op.total",
		metric.WithDescription("Total number of operation calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter("kv.op.errors",
		metric.WithDescription("Total number of failed operation calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("kv.op.duration_ms",
		metric.WithDescription("Operation call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{total: total, errors: errs, duration: duration}, nil
}

// RecordCall increments the call counter, the error counter on failure, and
// records the duration.
func (m *otelMetrics) RecordCall(ctx context.Context, meta OperationMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.total.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, opt)
	}
	m.duration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// LookupRecorder records cache lookups by outcome.
type LookupRecorder interface {
	RecordLookup(ctx context.Context, component string, hit bool)
}

// CacheMetrics counts cache hits and misses.
type CacheMetrics struct {
	hits   metric.Int64Counter
	misses metric.Int64Counter
}

// NewCacheMetrics creates the <prefix>.hits and <prefix>.misses counters.
func NewCacheMetrics(meter metric.Meter, prefix string) (*CacheMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}

	hits, err := meter.Int64Counter(prefix+".hits",
		metric.WithDescription("Cache lookups served from the store"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}
	misses, err := meter.Int64Counter(prefix+".misses",
		metric.WithDescription("Cache lookups that required a fetch"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}
	return &CacheMetrics{hits: hits, misses: misses}, nil
}

// RecordLookup counts one lookup.
func (m *CacheMetrics) RecordLookup(ctx context.Context, component string, hit bool) {
	opt := metric.WithAttributes(attribute.String("kv.component", component))
	if hit {
		m.hits.Add(ctx, 1, opt)
		return
	}
	m.misses.Add(ctx, 1, opt)
}

var _ LookupRecorder = (*CacheMetrics)(nil)
