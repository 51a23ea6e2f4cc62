package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimeout(t *testing.T) {
	to := NewTimeout(20 * time.Millisecond)

	err := to.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}

	if err := to.Execute(context.Background(), succeed); err != nil {
		t.Fatalf("fast op error = %v", err)
	}

	if NewTimeout(0).Duration() != DefaultTimeout {
		t.Error("zero timeout should use DefaultTimeout")
	}
}

func TestTimeout_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewTimeout(time.Second).Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestExecutor_Empty(t *testing.T) {
	calls := 0
	err := NewExecutor().Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestExecutor_BreakerSeesOneOutcomePerExecute(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 2})
	exec := NewExecutor(
		WithCircuitBreaker(cb),
		WithRetry(NewRetry(RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})),
		WithTimeout(time.Second),
	)

	calls := 0
	err := exec.Execute(context.Background(), func(context.Context) error {
		calls++
		return errors.New("down")
	})
	if err == nil || calls != 3 {
		t.Fatalf("err=%v calls=%d, want 3 attempts", err, calls)
	}
	if cb.Failures() != 1 || cb.State() != StateClosed {
		t.Fatalf("breaker failures=%d state=%v, want 1/closed", cb.Failures(), cb.State())
	}

	_ = exec.Execute(context.Background(), failing(errors.New("down")))
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
	if exec.CircuitBreaker() != cb {
		t.Error("CircuitBreaker() did not return the configured breaker")
	}
}

func TestDo(t *testing.T) {
	exec := NewExecutor(WithTimeout(time.Second))

	got, err := Do(context.Background(), exec, func(context.Context) (string, error) {
		return "body", nil
	})
	if err != nil || got != "body" {
		t.Fatalf("Do() = (%q, %v)", got, err)
	}

	boom := errors.New("boom")
	got, err = Do(context.Background(), exec, func(context.Context) (string, error) {
		return "partial", boom
	})
	if !errors.Is(err, boom) || got != "" {
		t.Fatalf("Do() = (%q, %v), want zero value and boom", got, err)
	}

	n, err := Do(context.Background(), nil, func(context.Context) (int, error) { return 7, nil })
	if err != nil || n != 7 {
		t.Fatalf("Do(nil executor) = (%d, %v)", n, err)
	}
}

func TestPermanent(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
	base := errors.New("bad")
	err := Permanent(base)
	if !IsPermanent(err) || !errors.Is(err, base) || err.Error() != "bad" {
		t.Errorf("Permanent() = %v", err)
	}
	if IsPermanent(base) {
		t.Error("plain error reported as permanent")
	}
}
