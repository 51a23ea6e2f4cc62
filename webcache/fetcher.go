package webcache

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/dnscache"

	"github.com/jonwraymond/kvops/resilience"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes int64 = 10 << 20

// FetcherConfig configures an HTTPFetcher.
type FetcherConfig struct {
	// Timeout bounds each attempt. Default: resilience.DefaultTimeout
	Timeout time.Duration `yaml:"timeout"`

	// MaxBodyBytes caps the body size. Larger bodies fail with
	// ErrBodyTooLarge. Default: DefaultMaxBodyBytes
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// UserAgent is sent with every request when set.
	UserAgent string `yaml:"user_agent"`

	// Breaker configures the circuit breaker.
	Breaker resilience.CircuitBreakerConfig `yaml:"breaker"`

	// Retry enables retries when MaxAttempts > 1.
	Retry resilience.RetryConfig `yaml:"retry"`
}

// HTTPFetcher fetches pages over HTTP through a DNS-caching transport and a
// resilience executor.
type HTTPFetcher struct {
	client  *http.Client
	exec    *resilience.Executor
	maxBody int64
	agent   string
}

// NewTransport returns an HTTP transport that resolves hosts through
// resolver. A nil resolver uses the default dialer.
func NewTransport(resolver *dnscache.Resolver) *http.Transport {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if resolver != nil {
		t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			var d net.Dialer
			var lastErr error
			for _, ip := range ips {
				conn, err := d.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
				lastErr = err
			}
			return nil, lastErr
		}
	}
	return t
}

// NewHTTPFetcher creates a fetcher. A nil client gets a DNS-caching
// transport backed by resolver (a fresh resolver when nil).
func NewHTTPFetcher(cfg FetcherConfig, client *http.Client, resolver *dnscache.Resolver) *HTTPFetcher {
	if client == nil {
		if resolver == nil {
			resolver = &dnscache.Resolver{}
		}
		client = &http.Client{Transport: NewTransport(resolver)}
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	opts := []resilience.ExecutorOption{
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(cfg.Breaker)),
		resilience.WithTimeout(cfg.Timeout),
	}
	if cfg.Retry.MaxAttempts > 1 {
		opts = append(opts, resilience.WithRetry(resilience.NewRetry(cfg.Retry)))
	}

	return &HTTPFetcher{
		client:  client,
		exec:    resilience.NewExecutor(opts...),
		maxBody: cfg.MaxBodyBytes,
		agent:   cfg.UserAgent,
	}
}

// Fetch GETs url and returns its body. Non-2xx responses return a
// *StatusError; 4xx responses are not retried and do not trip the breaker.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return resilience.Do(ctx, f.exec, func(ctx context.Context) (string, error) {
		return f.get(ctx, url)
	})
}

// Breaker exposes the circuit breaker state, mainly for health reporting.
func (f *HTTPFetcher) Breaker() *resilience.CircuitBreaker {
	return f.exec.CircuitBreaker()
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", resilience.Permanent(fmt.Errorf("webcache: build request: %w", err))
	}
	if f.agent != "" {
		req.Header.Set("User-Agent", f.agent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		serr := &StatusError{URL: url, StatusCode: resp.StatusCode}
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", resilience.Permanent(serr)
		}
		return "", serr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("webcache: read body: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return "", resilience.Permanent(fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, url, f.maxBody))
	}
	return string(body), nil
}

// Func returns Fetch as a FetchFunc.
func (f *HTTPFetcher) Func() FetchFunc {
	return f.Fetch
}
