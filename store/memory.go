package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryStore is an in-process implementation of Store.
//
// Expired keys are removed lazily on access. Counters are kept as decimal
// text so Get on a counter returns the same bytes Redis would.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
	closed  bool
}

type memoryEntry struct {
	value     []byte
	list      []string
	isList    bool
	expiresAt time.Time // zero means no expiry
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// liveLocked returns the entry for key, evicting it if expired.
func (s *MemoryStore) liveLocked(key string) (*memoryEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return entry, true
}

func (s *MemoryStore) begin(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	return nil
}

// Set writes value under key with no expiry.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.entries[key] = &memoryEntry{value: clone(value)}
	return nil
}

// SetEX writes value under key, expiring ttl after now.
func (s *MemoryStore) SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Set(ctx, key, value)
	}
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.entries[key] = &memoryEntry{
		value:     clone(value),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Get reads the raw value for key.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := s.begin(ctx); err != nil {
		return nil, false, err
	}
	defer s.mu.Unlock()

	entry, ok := s.liveLocked(key)
	if !ok {
		return nil, false, nil
	}
	if entry.isList {
		return nil, false, ErrWrongType
	}
	return clone(entry.value), true, nil
}

// Incr increments the counter at key, creating it at 0 if missing.
func (s *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	if err := s.begin(ctx); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	entry, ok := s.liveLocked(key)
	if !ok {
		entry = &memoryEntry{value: []byte("0")}
		s.entries[key] = entry
	}
	if entry.isList {
		return 0, ErrWrongType
	}

	n, err := strconv.ParseInt(string(entry.value), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	n++
	entry.value = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

// RPush appends value to the list at key.
func (s *MemoryStore) RPush(ctx context.Context, key string, value string) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	entry, ok := s.liveLocked(key)
	if !ok {
		entry = &memoryEntry{isList: true}
		s.entries[key] = entry
	}
	if !entry.isList {
		return ErrWrongType
	}
	entry.list = append(entry.list, value)
	return nil
}

// LRange returns a copy of the list at key.
func (s *MemoryStore) LRange(ctx context.Context, key string) ([]string, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	entry, ok := s.liveLocked(key)
	if !ok {
		return []string{}, nil
	}
	if !entry.isList {
		return nil, ErrWrongType
	}
	out := make([]string, len(entry.list))
	copy(out, entry.list)
	return out, nil
}

// Exists reports whether key holds a live value.
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := s.begin(ctx); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	_, ok := s.liveLocked(key)
	return ok, nil
}

// FlushDB removes every key.
func (s *MemoryStore) FlushDB(ctx context.Context) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.entries = make(map[string]*memoryEntry)
	return nil
}

// Ping reports ErrClosed after Close.
func (s *MemoryStore) Ping(ctx context.Context) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	s.mu.Unlock()
	return nil
}

// Close marks the store closed. Subsequent calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Len returns the number of live keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.entries {
		if _, ok := s.liveLocked(key); ok {
			n++
		}
	}
	return n
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ Store = (*MemoryStore)(nil)
