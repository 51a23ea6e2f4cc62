package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a store key.
const MaxKeyLength = 512

// Sentinel errors for store operations.
var (
	ErrNilStore         = errors.New("store: store is nil")
	ErrInvalidKey       = errors.New("store: key is invalid")
	ErrKeyTooLong       = errors.New("store: key exceeds max length")
	ErrConnectionFailed = errors.New("store: connection failed")
	ErrOperationTimeout = errors.New("store: operation timed out")
	ErrWrongType        = errors.New("store: operation against a key holding the wrong kind of value")
	ErrNotInteger       = errors.New("store: value is not an integer or out of range")
	ErrClosed           = errors.New("store: store is closed")
)

// Store is the key-value store consumed by the cache, the instrumentation
// interceptors, replay and the URL cache.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get returns (nil, false, nil) on a missing key. Connection
// failures wrap ErrConnectionFailed.
type Store interface {
	// Set writes value under key with no expiry.
	Set(ctx context.Context, key string, value []byte) error

	// SetEX writes value under key, expiring ttl after the write.
	SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get reads the raw value for key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Incr atomically increments the integer at key and returns the new value.
	// A missing key counts as 0.
	Incr(ctx context.Context, key string) (int64, error)

	// RPush appends value to the list at key.
	RPush(ctx context.Context, key string, value string) error

	// LRange returns every element of the list at key in stored order.
	LRange(ctx context.Context, key string) ([]string, error)

	// Exists reports whether key holds a live value.
	Exists(ctx context.Context, key string) (bool, error)

	// FlushDB removes every key in the current namespace.
	FlushDB(ctx context.Context) error

	Pinger

	// Close releases the connection.
	Close() error
}

// Pinger checks that a store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ValidateKey checks if a key is valid for the store.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// IsNil reports whether st is nil, including a nil pointer held in a non-nil
// interface such as (*RedisStore)(nil).
func IsNil(st any) bool {
	if st == nil {
		return true
	}
	v := reflect.ValueOf(st)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
