package webcache

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/jonwraymond/kvops/observe"
	"github.com/jonwraymond/kvops/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingFetch returns "<html>{url}</html>" and counts its calls.
type countingFetch struct {
	calls atomic.Int64
	err   error
}

func (f *countingFetch) fetch(_ context.Context, url string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return "<html>" + url + "</html>", nil
}

type lookups struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (l *lookups) RecordLookup(_ context.Context, _ string, hit bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if hit {
		l.hits++
	} else {
		l.misses++
	}
}

const testURL = "http://slowwly.robertomurray.co.uk"

func TestNew_Validation(t *testing.T) {
	f := &countingFetch{}
	if _, err := New(nil, f.fetch); !errors.Is(err, store.ErrNilStore) {
		t.Errorf("nil store error = %v", err)
	}
	if _, err := New((*store.MemoryStore)(nil), f.fetch); !errors.Is(err, store.ErrNilStore) {
		t.Errorf("typed nil store error = %v", err)
	}
	if _, err := New(store.NewMemoryStore(), nil); !errors.Is(err, ErrNilFetch) {
		t.Errorf("nil fetch error = %v", err)
	}
}

func TestCache_RapidCallsFetchOnce(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	f := &countingFetch{}
	c, err := New(st, f.fetch)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for range 2 {
		body, err := c.Get(ctx, testURL)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if body != "<html>"+testURL+"</html>" {
			t.Fatalf("Get() = %q", body)
		}
	}

	if got := f.calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
	if n, _ := c.AccessCount(ctx, testURL); n != 2 {
		t.Errorf("AccessCount = %d, want 2", n)
	}
	raw, ok, _ := st.Get(ctx, "count:"+testURL)
	if !ok || string(raw) != "2" {
		t.Errorf("count:%s = %q (found=%v), want \"2\"", testURL, raw, ok)
	}
	if ok, _ := st.Exists(ctx, "cache:"+testURL); !ok {
		t.Error("cache entry missing")
	}
}

func TestCache_ExpiryRefetches(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	st := store.NewMemoryStore(store.WithClock(clock.Now))
	f := &countingFetch{}
	c, _ := New(st, f.fetch)

	_, _ = c.Get(ctx, testURL)
	clock.Advance(9 * time.Second)
	_, _ = c.Get(ctx, testURL)
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("fetch calls before expiry = %d, want 1", got)
	}

	clock.Advance(2 * time.Second)
	_, _ = c.Get(ctx, testURL)
	if got := f.calls.Load(); got != 2 {
		t.Fatalf("fetch calls after expiry = %d, want 2", got)
	}
	if n, _ := c.AccessCount(ctx, testURL); n != 3 {
		t.Errorf("AccessCount = %d, want 3", n)
	}
}

func TestCache_ExpiryOnRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	st, err := store.NewRedisStore(ctx, store.Config{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer st.Close()

	f := &countingFetch{}
	c, _ := New(st, f.fetch)

	_, _ = c.Get(ctx, testURL)
	if ttl := mr.TTL("cache:" + testURL); ttl != 10*time.Second {
		t.Errorf("cache TTL = %v, want 10s", ttl)
	}
	if mr.TTL("count:"+testURL) != 0 {
		t.Error("count key should not expire")
	}

	_, _ = c.Get(ctx, testURL)
	mr.FastForward(11 * time.Second)
	_, _ = c.Get(ctx, testURL)

	if got := f.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
	if got, _ := mr.Get("count:" + testURL); got != "3" {
		t.Errorf("count = %q, want 3", got)
	}
}

func TestCache_FetchErrorNotCached(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	boom := errors.New("connection refused")
	f := &countingFetch{err: boom}
	c, _ := New(st, f.fetch)

	if _, err := c.Get(ctx, testURL); !errors.Is(err, boom) {
		t.Fatalf("Get() error = %v, want boom", err)
	}
	if ok, _ := st.Exists(ctx, "cache:"+testURL); ok {
		t.Error("failed fetch must not be cached")
	}
	if n, _ := c.AccessCount(ctx, testURL); n != 1 {
		t.Errorf("AccessCount = %d, want 1", n)
	}

	f.err = nil
	if _, err := c.Get(ctx, testURL); err != nil {
		t.Fatalf("Get() after recovery error = %v", err)
	}
	if got := f.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestCache_EmptyURL(t *testing.T) {
	c, _ := New(store.NewMemoryStore(), (&countingFetch{}).fetch)
	if _, err := c.Get(context.Background(), ""); !errors.Is(err, ErrEmptyURL) {
		t.Fatalf("error = %v, want ErrEmptyURL", err)
	}
}

func TestCache_StoreFailure(t *testing.T) {
	st := store.NewMemoryStore()
	_ = st.Close()
	f := &countingFetch{}
	c, _ := New(st, f.fetch)

	if _, err := c.Get(context.Background(), testURL); !errors.Is(err, store.ErrClosed) {
		t.Fatalf("error = %v, want ErrClosed", err)
	}
	if f.calls.Load() != 0 {
		t.Error("fetch should not run when counting fails")
	}
}

func TestCache_DisabledPolicyAlwaysFetches(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	f := &countingFetch{}
	c, _ := New(st, f.fetch, WithPolicy(Policy{}))

	_, _ = c.Get(ctx, testURL)
	_, _ = c.Get(ctx, testURL)

	if got := f.calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
	if ok, _ := st.Exists(ctx, "cache:"+testURL); ok {
		t.Error("disabled policy must not store pages")
	}
}

func TestCache_LoggingAndMetrics(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	m := &lookups{}
	c, _ := New(store.NewMemoryStore(), (&countingFetch{}).fetch,
		WithLogger(observe.NewLoggerWithWriter("info", &logs)),
		WithMetrics(m),
	)

	_, _ = c.Get(ctx, testURL)
	_, _ = c.Get(ctx, testURL)

	out := logs.String()
	if strings.Count(out, `"msg":"fetching url"`) != 1 || strings.Count(out, `"msg":"cache hit"`) != 1 {
		t.Errorf("unexpected log output:\n%s", out)
	}
	if m.hits != 1 || m.misses != 1 {
		t.Errorf("hits=%d misses=%d, want 1/1", m.hits, m.misses)
	}
}

func TestCache_Coalescing(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	var calls atomic.Int64
	slow := func(ctx context.Context, url string) (string, error) {
		calls.Add(1)
		<-release
		return "page", nil
	}

	st := store.NewMemoryStore()
	c, _ := New(st, slow, WithCoalescing(true))

	const n = 8
	var wg sync.WaitGroup
	started := make(chan struct{}, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			if body, err := c.Get(ctx, testURL); err != nil || body != "page" {
				t.Errorf("Get() = (%q, %v)", body, err)
			}
		}()
	}
	for range n {
		<-started
	}
	// Give the goroutines time to reach the shared fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got < 1 || got > n {
		t.Fatalf("fetch calls = %d", got)
	}
	if got := calls.Load(); got != 1 {
		t.Logf("fetch calls = %d; some goroutines arrived after the first fetch completed", got)
	}
	if count, _ := c.AccessCount(ctx, testURL); count != n {
		t.Errorf("AccessCount = %d, want %d", count, n)
	}
}

func TestCache_Wrap(t *testing.T) {
	f := &countingFetch{}
	c, _ := New(store.NewMemoryStore(), f.fetch)
	var fetch FetchFunc = c.Wrap()

	_, _ = fetch(context.Background(), testURL)
	_, _ = fetch(context.Background(), testURL)

	if f.calls.Load() != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls.Load())
	}
}

func TestAccessCount_Unseen(t *testing.T) {
	c, _ := New(store.NewMemoryStore(), (&countingFetch{}).fetch)
	if n, err := c.AccessCount(context.Background(), "http://never"); err != nil || n != 0 {
		t.Fatalf("AccessCount = (%d, %v), want (0, nil)", n, err)
	}
}
