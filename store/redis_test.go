package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniredisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), Config{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore_Contract(t *testing.T) {
	runContract(t, func(t *testing.T) (Store, func(time.Duration)) {
		s, mr := newMiniredisStore(t)
		return s, mr.FastForward
	})
}

func TestNewRedisStore_ConnectionFailed(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisStore(context.Background(), Config{
		Address:     addr,
		DialTimeout: 200 * time.Millisecond,
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("NewRedisStore() error = %v, want ErrConnectionFailed", err)
	}
}

func TestRedisStore_SetEXWritesTTL(t *testing.T) {
	s, mr := newMiniredisStore(t)
	if err := s.SetEX(context.Background(), "cache:x", []byte("body"), 10*time.Second); err != nil {
		t.Fatalf("SetEX() error = %v", err)
	}
	if got := mr.TTL("cache:x"); got != 10*time.Second {
		t.Fatalf("TTL = %v, want 10s", got)
	}
}

func TestRedisStore_FromClientDoesNotClose(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStoreFromClient(client)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("client closed by borrowed store: %v", err)
	}
}

func TestWrapRedisError(t *testing.T) {
	if err := wrapRedisError(nil); err != nil {
		t.Fatalf("wrapRedisError(nil) = %v", err)
	}
	if err := wrapRedisError(context.DeadlineExceeded); !errors.Is(err, ErrOperationTimeout) {
		t.Fatalf("deadline error = %v, want ErrOperationTimeout", err)
	}
	if err := wrapRedisError(redis.ErrClosed); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed error = %v, want ErrClosed", err)
	}
}
