package instrument

import (
	"context"
	"errors"
	"time"
)

// ErrMissingName indicates an operation was wrapped without a name.
var ErrMissingName = errors.New("instrument: operation name is required")

// ExecuteFunc is the signature of an instrumented operation.
type ExecuteFunc func(ctx context.Context, args ...any) (any, error)

// Call describes one invocation flowing through a Chain.
type Call struct {
	// Name is the qualified operation name, used as the record key prefix.
	Name string

	// Args are the arguments the operation was invoked with.
	Args []any

	// Result and Err are set once the operation (or an aborting hook) returns.
	Result any
	Err    error

	// Start is when the chain began handling the call.
	Start time.Time
}

// Interceptor observes an operation before and after it runs.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Before: returning an error aborts the call; the operation does not run.
// - After: called only when this interceptor's Before succeeded, including
// calls aborted by a later interceptor.
type Interceptor interface {
	Before(ctx context.Context, call *Call) (context.Context, error)
	After(ctx context.Context, call *Call) error
}

// Hooks adapts a pair of functions to the Interceptor interface.
// Either function may be nil.
type Hooks struct {
	BeforeFunc func(ctx context.Context, call *Call) (context.Context, error)
	AfterFunc  func(ctx context.Context, call *Call) error
}

// Before runs BeforeFunc if set.
func (h Hooks) Before(ctx context.Context, call *Call) (context.Context, error) {
	if h.BeforeFunc == nil {
		return ctx, nil
	}
	return h.BeforeFunc(ctx, call)
}

// After runs AfterFunc if set.
func (h Hooks) After(ctx context.Context, call *Call) error {
	if h.AfterFunc == nil {
		return nil
	}
	return h.AfterFunc(ctx, call)
}

// Chain is an ordered, immutable list of interceptors.
type Chain struct {
	interceptors []Interceptor
}

// NewChain creates a chain. Nil interceptors are skipped.
func NewChain(interceptors ...Interceptor) *Chain {
	c := &Chain{}
	for _, ic := range interceptors {
		if ic != nil {
			c.interceptors = append(c.interceptors, ic)
		}
	}
	return c
}

// Append returns a new chain with interceptors added after the existing ones.
func (c *Chain) Append(interceptors ...Interceptor) *Chain {
	if c == nil {
		return NewChain(interceptors...)
	}
	all := make([]Interceptor, 0, len(c.interceptors)+len(interceptors))
	all = append(all, c.interceptors...)
	all = append(all, interceptors...)
	return NewChain(all...)
}

// Len returns the number of interceptors in the chain.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.interceptors)
}

// Wrap decorates fn so every invocation flows through the chain under name.
//
// Errors from After hooks are joined onto the returned error; the operation's
// result is still returned so a caller can tell the write happened.
func (c *Chain) Wrap(name string, fn ExecuteFunc) ExecuteFunc {
	if c == nil || len(c.interceptors) == 0 {
		return fn
	}
	interceptors := c.interceptors

	return func(ctx context.Context, args ...any) (any, error) {
		if name == "" {
			return nil, ErrMissingName
		}

		call := &Call{Name: name, Args: args, Start: time.Now()}

		ran := 0
		for _, ic := range interceptors {
			next, err := ic.Before(ctx, call)
			if err != nil {
				call.Err = err
				break
			}
			if next != nil {
				ctx = next
			}
			ran++
		}

		if call.Err == nil {
			call.Result, call.Err = fn(ctx, args...)
		}

		var hookErrs []error
		for i := ran - 1; i >= 0; i-- {
			if err := interceptors[i].After(ctx, call); err != nil {
				hookErrs = append(hookErrs, err)
			}
		}

		if len(hookErrs) > 0 {
			return call.Result, errors.Join(append([]error{call.Err}, hookErrs...)...)
		}
		return call.Result, call.Err
	}
}
