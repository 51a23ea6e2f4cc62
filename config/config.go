// Package config loads the kvops YAML configuration.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/kvops/auth"
	"github.com/jonwraymond/kvops/cache"
	"github.com/jonwraymond/kvops/observe"
	"github.com/jonwraymond/kvops/secret"
	"github.com/jonwraymond/kvops/store"
	"github.com/jonwraymond/kvops/webcache"
)

// Validation errors.
var (
	ErrInvalidAddr    = errors.New("config: http addr is required")
	ErrInvalidTimeout = errors.New("config: timeouts must not be negative")
	ErrMissingJWTKey  = errors.New("config: auth enabled without a jwt key")
	ErrInvalidTTL     = errors.New("config: web ttl must not be negative")
)

// Config is the root of the configuration file.
type Config struct {
	Redis   store.Config   `yaml:"redis"`
	Cache   CacheConfig    `yaml:"cache"`
	Web     WebConfig      `yaml:"web"`
	HTTP    HTTPConfig     `yaml:"http"`
	Auth    AuthConfig     `yaml:"auth"`
	Observe observe.Config `yaml:"observe"`
}

// CacheConfig configures the value cache.
type CacheConfig struct {
	// OperationName is the name Store calls are recorded under.
	OperationName string `yaml:"operation_name"`

	// Flush clears the Redis database when the cache starts.
	Flush bool `yaml:"flush"`
}

// WebConfig configures the page cache.
type WebConfig struct {
	Policy   webcache.Policy        `yaml:"policy"`
	Coalesce bool                   `yaml:"coalesce"`
	Fetcher  webcache.FetcherConfig `yaml:"fetcher"`
}

// HTTPConfig configures the API server.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig configures bearer token authentication.
type AuthConfig struct {
	Enabled bool           `yaml:"enabled"`
	JWT     auth.JWTConfig `yaml:"jwt"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Redis: store.DefaultConfig(),
		Cache: CacheConfig{OperationName: cache.DefaultOperationName, Flush: true},
		Web:   WebConfig{Policy: webcache.DefaultPolicy()},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Observe: observe.Config{
			ServiceName: "kvops",
			Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
		},
	}
}

// Load reads path over Default, resolves secrets and validates. An empty
// path returns the validated defaults.
func Load(ctx context.Context, path string, resolver *secret.Resolver) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(ctx, f, resolver)
}

// Parse decodes YAML from r over Default. Unknown keys are errors.
func Parse(ctx context.Context, r io.Reader, resolver *secret.Resolver) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("config: read: %w", err)
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode: %w", err)
		}
	}

	if err := resolver.ResolveAll(ctx,
		&cfg.Redis.Address,
		&cfg.Redis.Password,
		&cfg.Auth.JWT.Key,
		&cfg.Observe.Tracing.Endpoint,
		&cfg.Observe.Metrics.Endpoint,
	); err != nil {
		return Config{}, fmt.Errorf("config: resolve secrets: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return ErrInvalidAddr
	}
	if c.HTTP.ReadTimeout < 0 || c.HTTP.WriteTimeout < 0 || c.HTTP.ShutdownTimeout < 0 {
		return ErrInvalidTimeout
	}
	if c.Web.Policy.TTL < 0 || c.Web.Policy.MaxTTL < 0 {
		return ErrInvalidTTL
	}
	if c.Auth.Enabled && c.Auth.JWT.Key == "" {
		return ErrMissingJWTKey
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("config: observe: %w", err)
	}
	return nil
}
