package webcache

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/kvops/observe"
	"github.com/jonwraymond/kvops/store"
)

// Component names this package in logs and metrics.
const Component = "webcache"

// FetchFunc retrieves the body of url.
type FetchFunc func(ctx context.Context, url string) (string, error)

// CountKey returns the access counter key for url.
func CountKey(url string) string {
	return "count:" + url
}

// PageKey returns the cached page key for url.
func PageKey(url string) string {
	return "cache:" + url
}

// Cache wraps a FetchFunc with access counting and expiring page caching.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: store and fetch errors are returned wrapped; a failed fetch
// leaves the access count incremented and caches nothing.
type Cache struct {
	store   store.Store
	fetch   FetchFunc
	policy  Policy
	logger  observe.Logger
	metrics observe.LookupRecorder

	coalesce bool
	group    singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(c *Cache) { c.policy = p }
}

// WithLogger logs hits and fetches at info level.
func WithLogger(l observe.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records every lookup as a hit or miss.
func WithMetrics(m observe.LookupRecorder) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithCoalescing shares one fetch between concurrent misses for a URL.
// Every caller is still counted.
func WithCoalescing(enabled bool) Option {
	return func(c *Cache) { c.coalesce = enabled }
}

// New creates a Cache reading and writing st and fetching with fetch.
func New(st store.Store, fetch FetchFunc, opts ...Option) (*Cache, error) {
	if store.IsNil(st) {
		return nil, store.ErrNilStore
	}
	if fetch == nil {
		return nil, ErrNilFetch
	}
	c := &Cache{
		store:  st,
		fetch:  fetch,
		policy: DefaultPolicy(),
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Policy returns the caching policy in effect.
func (c *Cache) Policy() Policy {
	return c.policy
}

// Get returns the page for url, from the store when a live copy exists.
func (c *Cache) Get(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", ErrEmptyURL
	}

	if _, err := c.store.Incr(ctx, CountKey(url)); err != nil {
		return "", fmt.Errorf("webcache: count %s: %w", url, err)
	}

	cached, ok, err := c.store.Get(ctx, PageKey(url))
	if err != nil {
		return "", fmt.Errorf("webcache: lookup %s: %w", url, err)
	}
	c.record(ctx, ok)
	if ok {
		c.logger.Info(ctx, "cache hit", observe.Field{Key: "url", Value: url})
		return string(cached), nil
	}

	if !c.coalesce {
		return c.fill(ctx, url)
	}
	v, err, _ := c.group.Do(url, func() (any, error) {
		return c.fill(context.WithoutCancel(ctx), url)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// fill fetches url and stores the body under the policy TTL.
func (c *Cache) fill(ctx context.Context, url string) (string, error) {
	c.logger.Info(ctx, "fetching url", observe.Field{Key: "url", Value: url})

	body, err := c.fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("webcache: fetch %s: %w", url, err)
	}

	if ttl := c.policy.EffectiveTTL(); ttl > 0 {
		if err := c.store.SetEX(ctx, PageKey(url), []byte(body), ttl); err != nil {
			return "", fmt.Errorf("webcache: store %s: %w", url, err)
		}
	}
	return body, nil
}

func (c *Cache) record(ctx context.Context, hit bool) {
	if c.metrics != nil {
		c.metrics.RecordLookup(ctx, Component, hit)
	}
}

// Wrap returns Get as a FetchFunc, so a cached fetcher can stand in for
// the original.
func (c *Cache) Wrap() FetchFunc {
	return c.Get
}

// AccessCount returns how many times url has been requested. An unseen
// URL has count zero.
func (c *Cache) AccessCount(ctx context.Context, url string) (int64, error) {
	raw, ok, err := c.store.Get(ctx, CountKey(url))
	if err != nil {
		return 0, fmt.Errorf("webcache: read count %s: %w", url, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("webcache: parse count %s: %w", url, err)
	}
	return n, nil
}
