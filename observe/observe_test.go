package observe

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"minimal", Config{ServiceName: "kvops"}, nil},
		{"full", Config{
			ServiceName: "kvops",
			Tracing:     TracingConfig{Enabled: true, Exporter: "stdout", SamplePct: 0.5},
			Metrics:     MetricsConfig{Enabled: true, Exporter: "prometheus"},
			Logging:     LoggingConfig{Enabled: true, Level: "debug"},
		}, nil},
		{"missing service", Config{}, ErrMissingServiceName},
		{"bad tracing exporter", Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "zipkin"}}, ErrInvalidTracingExporter},
		{"sample pct high", Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, SamplePct: 1.5}}, ErrInvalidSamplePct},
		{"sample pct negative", Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, SamplePct: -0.1}}, ErrInvalidSamplePct},
		{"bad metrics exporter", Config{ServiceName: "s", Metrics: MetricsConfig{Enabled: true, Exporter: "statsd"}}, ErrInvalidMetricsExporter},
		{"bad log level", Config{ServiceName: "s", Logging: LoggingConfig{Enabled: true, Level: "trace"}}, ErrInvalidLogLevel},
		{"disabled subsystems skip checks", Config{ServiceName: "s", Tracing: TracingConfig{Exporter: "zipkin"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewObserver_Disabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "kvops"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	if obs.Tracer() == nil || obs.Meter() == nil || obs.Logger() == nil {
		t.Fatal("disabled observer must still return non-nil primitives")
	}
	if err := obs.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestNewObserver_Enabled(t *testing.T) {
	var logs bytes.Buffer
	reg := prometheus.NewRegistry()

	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "kvops",
		Version:     "test",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "prometheus"},
		Logging:     LoggingConfig{Enabled: true, Level: "info"},
	}, WithLogWriter(&logs), WithRegisterer(reg))
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}
	defer obs.Shutdown(context.Background())

	obs.Logger().Info(context.Background(), "hello")
	if logs.Len() == 0 {
		t.Error("logger did not write to the configured writer")
	}

	counter, err := obs.Meter().Int64Counter("kv.test")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	counter.Add(context.Background(), 1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Error("prometheus registry has no metric families")
	}
}

func TestNewObserver_InvalidConfig(t *testing.T) {
	if _, err := NewObserver(context.Background(), Config{}); !errors.Is(err, ErrMissingServiceName) {
		t.Fatalf("NewObserver() error = %v, want ErrMissingServiceName", err)
	}
}
