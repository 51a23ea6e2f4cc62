package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/dnscache"

	"github.com/jonwraymond/kvops/auth"
	"github.com/jonwraymond/kvops/cache"
	"github.com/jonwraymond/kvops/config"
	"github.com/jonwraymond/kvops/health"
	"github.com/jonwraymond/kvops/instrument"
	"github.com/jonwraymond/kvops/observe"
	"github.com/jonwraymond/kvops/secret"
	"github.com/jonwraymond/kvops/store"
	"github.com/jonwraymond/kvops/webcache"
)

// runtime holds the components built from configuration.
type runtime struct {
	cfg      config.Config
	store    store.Store
	observer observe.Observer
	logger   observe.Logger
	registry *prometheus.Registry
	resolver *dnscache.Resolver
	fetcher  *webcache.HTTPFetcher
	pages    *webcache.Cache
	health   *health.Aggregator
	verifier *auth.Verifier
}

func (a *App) loadConfig(ctx context.Context) (config.Config, error) {
	cfg, err := config.Load(ctx, a.configPath, secret.DefaultResolver())
	if err != nil {
		return config.Config{}, err
	}
	if a.redisAddr != "" {
		cfg.Redis.Address = a.redisAddr
	}
	return cfg, nil
}

// newRuntime connects the store and builds everything except the value
// cache, whose construction may flush the store.
func (a *App) newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, registry: prometheus.NewRegistry()}

	rt.observer, err = observe.NewObserver(ctx, cfg.Observe,
		observe.WithLogWriter(a.stderr),
		observe.WithRegisterer(rt.registry),
	)
	if err != nil {
		return nil, err
	}
	rt.logger = rt.observer.Logger()

	if a.memory {
		rt.store = store.NewMemoryStore()
	} else {
		rs, err := store.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			_ = rt.observer.Shutdown(ctx)
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Address, err)
		}
		rt.store = rs
	}

	rt.resolver = &dnscache.Resolver{}
	rt.fetcher = webcache.NewHTTPFetcher(cfg.Web.Fetcher, nil, rt.resolver)

	cacheMetrics, err := observe.NewCacheMetrics(rt.observer.Meter(), webcache.Component)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.pages, err = webcache.New(rt.store, rt.fetcher.Func(),
		webcache.WithPolicy(cfg.Web.Policy),
		webcache.WithCoalescing(cfg.Web.Coalesce),
		webcache.WithLogger(rt.logger),
		webcache.WithMetrics(cacheMetrics),
	)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	rt.health = health.NewAggregator()
	rt.health.Register(health.NewStoreChecker("store", rt.store))
	rt.health.Register(health.NewBreakerChecker("upstream", rt.fetcher.Breaker()))

	if cfg.Auth.Enabled {
		rt.verifier, err = auth.NewVerifier(cfg.Auth.JWT)
		if err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
	}
	return rt, nil
}

// newCache builds the instrumented value cache. flush overrides the
// configured flush setting when non-nil.
func (rt *runtime) newCache(ctx context.Context, flush *bool) (*cache.Cache, error) {
	ic, err := observe.InterceptorFromObserver(rt.observer, "cache")
	if err != nil {
		return nil, err
	}
	doFlush := rt.cfg.Cache.Flush
	if flush != nil {
		doFlush = *flush
	}
	return cache.New(ctx, rt.store,
		cache.WithOperationName(rt.cfg.Cache.OperationName),
		cache.WithChain(instrument.NewChain(ic).Append(
			instrument.NewCallCounter(rt.store),
			instrument.NewCallHistory(rt.store),
		)),
		cache.WithLogger(rt.logger),
		cache.WithFlush(doFlush),
	)
}

// Close releases the store and flushes telemetry.
func (rt *runtime) Close(ctx context.Context) error {
	var errs []error
	if rt.store != nil {
		errs = append(errs, rt.store.Close())
	}
	if rt.observer != nil {
		errs = append(errs, rt.observer.Shutdown(context.WithoutCancel(ctx)))
	}
	return errors.Join(errs...)
}
