package instrument

import (
	"context"
	"fmt"

	"github.com/jonwraymond/kvops/store"
)

// InputsKey returns the list key holding serialized argument tuples for name.
func InputsKey(name string) string {
	return name + ":inputs"
}

// OutputsKey returns the list key holding serialized results for name.
func OutputsKey(name string) string {
	return name + ":outputs"
}

// CountKey returns the counter key for name.
func CountKey(name string) string {
	return name
}

// CallCounter increments the operation's count record before each call.
// A counter without a store is a pass-through.
type CallCounter struct {
	store store.Store
}

// NewCallCounter creates a call counter writing to st.
func NewCallCounter(st store.Store) *CallCounter {
	return &CallCounter{store: st}
}

// Before increments the count record. Failure aborts the call.
func (c *CallCounter) Before(ctx context.Context, call *Call) (context.Context, error) {
	if c == nil || store.IsNil(c.store) {
		return ctx, nil
	}
	if _, err := c.store.Incr(ctx, CountKey(call.Name)); err != nil {
		return ctx, fmt.Errorf("instrument: count %s: %w", call.Name, err)
	}
	return ctx, nil
}

// After does nothing; counting happens once, before the call.
func (c *CallCounter) After(context.Context, *Call) error {
	return nil
}

// CallHistory appends each call's arguments to {name}:inputs before the call
// and its result to {name}:outputs after it. A history without a store is a
// pass-through.
//
// A failed call still records one output entry ("error: ..."), so the two
// lists stay the same length. Concurrent calls may interleave their appends,
// so the i-th input and i-th output are only guaranteed to belong to the same
// call when calls do not overlap.
type CallHistory struct {
	store store.Store
}

// NewCallHistory creates a history recorder writing to st.
func NewCallHistory(st store.Store) *CallHistory {
	return &CallHistory{store: st}
}

// Before appends the serialized argument tuple.
func (h *CallHistory) Before(ctx context.Context, call *Call) (context.Context, error) {
	if h == nil || store.IsNil(h.store) {
		return ctx, nil
	}
	if err := h.store.RPush(ctx, InputsKey(call.Name), FormatArgs(call.Args)); err != nil {
		return ctx, fmt.Errorf("instrument: record input %s: %w", call.Name, err)
	}
	return ctx, nil
}

// After appends the serialized result.
func (h *CallHistory) After(ctx context.Context, call *Call) error {
	if h == nil || store.IsNil(h.store) {
		return nil
	}
	if err := h.store.RPush(ctx, OutputsKey(call.Name), FormatResult(call.Result, call.Err)); err != nil {
		return fmt.Errorf("instrument: record output %s: %w", call.Name, err)
	}
	return nil
}

// DefaultChain returns the standard instrumentation: count first, then history.
func DefaultChain(st store.Store) *Chain {
	return NewChain(NewCallCounter(st), NewCallHistory(st))
}

var (
	_ Interceptor = (*CallCounter)(nil)
	_ Interceptor = (*CallHistory)(nil)
	_ Interceptor = Hooks{}
)
