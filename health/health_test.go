package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/kvops/resilience"
	"github.com/jonwraymond/kvops/store"
)

type slowPinger struct {
	delay time.Duration
	err   error
}

func (p slowPinger) Ping(ctx context.Context) error {
	select {
	case <-time.After(p.delay):
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestStatus(t *testing.T) {
	if StatusHealthy.String() != "healthy" || StatusDegraded.String() != "degraded" ||
		StatusUnhealthy.String() != "unhealthy" || Status(9).String() != "unknown" {
		t.Error("unexpected Status.String() values")
	}
	if StatusHealthy.Worse(StatusDegraded) != StatusDegraded {
		t.Error("degraded should be worse than healthy")
	}
	if StatusUnhealthy.Worse(StatusDegraded) != StatusUnhealthy {
		t.Error("unhealthy should be worse than degraded")
	}
}

func TestStoreChecker(t *testing.T) {
	ctx := context.Background()

	r := NewStoreChecker("memory", store.NewMemoryStore()).Check(ctx)
	if r.Status != StatusHealthy {
		t.Errorf("live store status = %v, want healthy", r.Status)
	}
	if _, ok := r.Details["latency"]; !ok {
		t.Error("latency detail missing")
	}

	closed := store.NewMemoryStore()
	_ = closed.Close()
	r = NewStoreChecker("closed", closed).Check(ctx)
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, store.ErrClosed) {
		t.Errorf("closed store result = %+v", r)
	}

	r = NewStoreChecker("slow", slowPinger{delay: 20 * time.Millisecond}).WithSlowPing(time.Millisecond).Check(ctx)
	if r.Status != StatusDegraded {
		t.Errorf("slow store status = %v, want degraded", r.Status)
	}

	r = NewStoreChecker("nil", nil).Check(ctx)
	if r.Status != StatusUnhealthy {
		t.Errorf("nil store status = %v, want unhealthy", r.Status)
	}

	r = NewStoreChecker("typed nil", (*store.RedisStore)(nil)).Check(ctx)
	if r.Status != StatusUnhealthy {
		t.Errorf("typed nil store status = %v, want unhealthy", r.Status)
	}
}

func TestBreakerChecker(t *testing.T) {
	ctx := context.Background()
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
	c := NewBreakerChecker("upstream", cb)

	if r := c.Check(ctx); r.Status != StatusHealthy {
		t.Fatalf("closed breaker status = %v", r.Status)
	}

	_ = cb.Execute(ctx, func(context.Context) error { return errors.New("down") })
	r := c.Check(ctx)
	if r.Status != StatusDegraded || !errors.Is(r.Error, ErrCircuitOpen) {
		t.Fatalf("open breaker result = %+v", r)
	}
	if r.Details["state"] != "open" {
		t.Errorf("state detail = %v", r.Details["state"])
	}

	if NewBreakerChecker("none", nil).Check(ctx).Status != StatusHealthy {
		t.Error("nil breaker should be healthy")
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register(NewCheckerFunc("a", func(context.Context) Result { return Healthy("ok") }))
	agg.Register(NewCheckerFunc("b", func(context.Context) Result { return Degraded("meh") }))

	report := agg.CheckAll(context.Background())
	if report.Status != StatusDegraded {
		t.Errorf("status = %v, want degraded", report.Status)
	}
	if len(report.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(report.Results))
	}

	agg.Register(NewCheckerFunc("c", func(context.Context) Result { return Unhealthy("down", nil) }))
	if got := agg.CheckAll(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("status = %v, want unhealthy", got)
	}

	names := agg.Names()
	if len(names) != 3 || names[0] != "a" || names[2] != "c" {
		t.Errorf("Names() = %v", names)
	}
}

func TestAggregator_Empty(t *testing.T) {
	if got := NewAggregator().CheckAll(context.Background()).Status; got != StatusHealthy {
		t.Errorf("empty aggregator status = %v", got)
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(20 * time.Millisecond)
	agg.Register(NewCheckerFunc("stuck", func(context.Context) Result {
		time.Sleep(time.Second)
		return Healthy("late")
	}))

	report := agg.CheckAll(context.Background())
	r := report.Results["stuck"]
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckTimeout) {
		t.Fatalf("stuck result = %+v", r)
	}
	if r.Duration <= 0 {
		t.Error("duration not recorded")
	}
}

func TestAggregator_Check(t *testing.T) {
	agg := NewAggregator()
	agg.Register(NewStoreChecker("redis", store.NewMemoryStore()))

	if r, err := agg.Check(context.Background(), "redis"); err != nil || r.Status != StatusHealthy {
		t.Fatalf("Check(redis) = (%+v, %v)", r, err)
	}
	if _, err := agg.Check(context.Background(), "nope"); !errors.Is(err, ErrCheckerNotFound) {
		t.Fatalf("error = %v, want ErrCheckerNotFound", err)
	}
}
