package store

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures a Redis-backed store.
type Config struct {
	// Address is the host:port of the Redis server.
	// Default: "localhost:6379"
	Address string `yaml:"address"`

	// Password authenticates the connection (optional).
	Password string `yaml:"password"`

	// DB selects the logical database. FlushDB clears only this database.
	DB int `yaml:"db"`

	// DialTimeout bounds connection establishment and the construction ping.
	// Default: 5 seconds
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// ReadTimeout and WriteTimeout bound individual commands.
	// Default: 3 seconds
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// PoolSize is the maximum number of socket connections.
	// Default: 10
	PoolSize int `yaml:"pool_size"`
}

// DefaultConfig returns a Config pointing at a local Redis server.
func DefaultConfig() Config {
	return Config{
		Address:      "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = d.DialTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PoolSize <= 0 {
		c.PoolSize = d.PoolSize
	}
	return c
}

// RedisStore is a Redis-backed implementation of Store.
type RedisStore struct {
	client redis.UniversalClient
	owned  bool
}

// NewRedisStore connects to Redis and verifies the connection with PING.
// An unreachable server yields an error wrapping ErrConnectionFailed.
func NewRedisStore(ctx context.Context, cfg Config) (*RedisStore, error) {
	cfg = cfg.withDefaults()

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return &RedisStore{client: client, owned: true}, nil
}

// NewRedisStoreFromClient wraps an existing client. The caller keeps
// ownership of the client; Close is a no-op.
func NewRedisStoreFromClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Set writes value under key with no expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return wrapRedisError(s.client.Set(ctx, key, value, 0).Err())
}

// SetEX writes value under key with an absolute expiry of ttl.
func (s *RedisStore) SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Set(ctx, key, value)
	}
	return wrapRedisError(s.client.SetEx(ctx, key, value, ttl).Err())
}

// Get reads the raw value for key. A missing key is (nil, false, nil).
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, wrapRedisError(err)
	}
	return value, true, nil
}

// Incr atomically increments the counter at key.
func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, wrapRedisError(err)
	}
	return n, nil
}

// RPush appends value to the list at key.
func (s *RedisStore) RPush(ctx context.Context, key string, value string) error {
	return wrapRedisError(s.client.RPush(ctx, key, value).Err())
}

// LRange returns the full list at key. A missing key is an empty list.
func (s *RedisStore) LRange(ctx context.Context, key string) ([]string, error) {
	values, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, wrapRedisError(err)
	}
	return values, nil
}

// Exists reports whether key is present.
func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, wrapRedisError(err)
	}
	return n > 0, nil
}

// FlushDB clears the selected database.
func (s *RedisStore) FlushDB(ctx context.Context) error {
	return wrapRedisError(s.client.FlushDB(ctx).Err())
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return wrapRedisError(s.client.Ping(ctx).Err())
}

// Close closes the Redis connection if this store opened it.
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// Client returns the underlying Redis client for advanced operations.
func (s *RedisStore) Client() redis.UniversalClient {
	return s.client
}

// wrapRedisError maps Redis errors onto store sentinels.
func wrapRedisError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(ErrOperationTimeout, err)
	}
	if errors.Is(err, redis.ErrClosed) {
		return errors.Join(ErrClosed, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errors.Join(ErrOperationTimeout, err)
		}
		return errors.Join(ErrConnectionFailed, err)
	}

	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "WRONGTYPE"):
		return errors.Join(ErrWrongType, err)
	case strings.HasPrefix(msg, "ERR value is not an integer"):
		return errors.Join(ErrNotInteger, err)
	}

	return err
}

var _ Store = (*RedisStore)(nil)
