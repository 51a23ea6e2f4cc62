package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/kvops/instrument"
	"github.com/jonwraymond/kvops/observe"
	"github.com/jonwraymond/kvops/store"
)

// DefaultOperationName is the qualified name under which Store calls are
// counted and recorded.
const DefaultOperationName = "Cache.store"

// Sentinel errors for cache operations.
var (
	ErrNilCache     = errors.New("cache: cache is nil")
	ErrInvalidValue = errors.New("cache: value is invalid")
)

// Cache stores scalar values under generated keys.
//
// Contract:
// - Concurrency: safe for concurrent use; no in-process locking is added on
// top of the store's single-key atomicity.
// - Errors: store failures propagate unchanged in the error chain; a missing
// key is reported with found=false, never as an error.
type Cache struct {
	store  store.Store
	keyer  Keyer
	name   string
	chain  *instrument.Chain
	logger observe.Logger
	flush  bool

	put instrument.ExecuteFunc
}

// Option configures a Cache.
type Option func(*Cache)

// WithKeyer replaces the default UUID keyer.
func WithKeyer(k Keyer) Option {
	return func(c *Cache) {
		if k != nil {
			c.keyer = k
		}
	}
}

// WithOperationName changes the name Store calls are recorded under.
func WithOperationName(name string) Option {
	return func(c *Cache) {
		if name != "" {
			c.name = name
		}
	}
}

// WithChain replaces the default instrumentation (call counter, then call
// history). Pass instrument.NewChain() to disable instrumentation.
func WithChain(chain *instrument.Chain) Option {
	return func(c *Cache) {
		if chain != nil {
			c.chain = chain
		}
	}
}

// WithLogger sets the logger used for store events.
func WithLogger(l observe.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFlush controls whether New clears the namespace. Default: true.
// A long-running server that must keep history across restarts turns it off.
func WithFlush(enabled bool) Option {
	return func(c *Cache) { c.flush = enabled }
}

// New creates a Cache over st and flushes st's current namespace.
//
// The flush is destructive: every key in the namespace is removed, including
// values, call counts and call history written by earlier instances.
func New(ctx context.Context, st store.Store, opts ...Option) (*Cache, error) {
	if store.IsNil(st) {
		return nil, store.ErrNilStore
	}

	c := &Cache{
		store:  st,
		keyer:  NewUUIDKeyer(),
		name:   DefaultOperationName,
		logger: observe.NopLogger(),
		flush:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.chain == nil {
		c.chain = instrument.DefaultChain(st)
	}
	c.put = c.chain.Wrap(c.name, c.set)

	if c.flush {
		if err := st.FlushDB(ctx); err != nil {
			return nil, fmt.Errorf("cache: flush: %w", err)
		}
		c.logger.Debug(ctx, "cache namespace flushed", observe.Field{Key: "operation", Value: c.name})
	}

	return c, nil
}

// Store writes v under a freshly generated key and returns the key.
func (c *Cache) Store(ctx context.Context, v Value) (string, error) {
	if c == nil {
		return "", ErrNilCache
	}
	if !v.IsValid() {
		return "", ErrInvalidValue
	}

	result, err := c.put(ctx, v)
	key, _ := result.(string)
	if err != nil {
		c.logger.Error(ctx, "store failed",
			observe.Field{Key: "operation", Value: c.name},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return key, err
	}
	return key, nil
}

// set is the uninstrumented store operation.
func (c *Cache) set(ctx context.Context, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: want 1 argument, got %d", ErrInvalidValue, len(args))
	}
	v, ok := args[0].(Value)
	if !ok || !v.IsValid() {
		return nil, ErrInvalidValue
	}

	key, err := c.keyer.Key()
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, v.Encode()); err != nil {
		return nil, fmt.Errorf("cache: set %s: %w", key, err)
	}

	c.logger.Debug(ctx, "value stored",
		observe.Field{Key: "key", Value: key},
		observe.Field{Key: "kind", Value: v.Kind().String()},
	)
	return key, nil
}

// Get reads the raw bytes stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, ErrNilCache
	}
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return raw, ok, nil
}

// OperationName returns the name Store calls are recorded under.
func (c *Cache) OperationName() string {
	return c.name
}

// Backend returns the store handle, for replaying recorded history.
func (c *Cache) Backend() store.Store {
	return c.store
}
