package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/selectql"
	"golang.org/x/time/rate"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 10 * time.Second

// DefaultUserAgent identifies selectql to the sites it fetches.
const DefaultUserAgent = "selectql/1.0"

// Ensure Fetcher implements selectql.Fetcher at compile time.
var _ selectql.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML documents over HTTP. It does not execute
// JavaScript, so pages rendered client-side come back as served.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	maxBodyBytes int64
	userAgent    string
	hosts        *keyedLimiter
	retryDelays  []time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithFetchLimit caps the size of fetched documents.
// Defaults to DefaultMaxBodyBytes.
func WithFetchLimit(n int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodyBytes = n
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHostRateLimit limits requests per second to each host.
// Zero or less disables limiting.
func WithHostRateLimit(rps float64) FetcherOption {
	return func(f *Fetcher) {
		if rps > 0 {
			f.hosts = newKeyedLimiter(rate.Limit(rps), 1)
		} else {
			f.hosts = nil
		}
	}
}

// WithRetries retries transient failures (network errors, 429 and 5xx
// responses) up to n times, doubling the delay from base after each attempt.
func WithRetries(n int, base time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.retryDelays = f.retryDelays[:0]
		for i := range max(n, 0) {
			f.retryDelays = append(f.retryDelays, base<<i)
		}
	}
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		timeout:      DefaultFetchTimeout,
		maxBodyBytes: DefaultMaxBodyBytes,
		userAgent:    DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the body of the document at url.
// Returns EINVALID for malformed URLs, non-200 responses and oversized bodies.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	for attempt := 0; ; attempt++ {
		html, retry, err := f.fetch(ctx, url)
		if err == nil {
			return html, nil
		}
		if !retry || attempt >= len(f.retryDelays) {
			return "", err
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(f.retryDelays[attempt]):
		}
	}
}

// fetch makes a single attempt and reports whether a failure is worth retrying.
func (f *Fetcher) fetch(ctx context.Context, url string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, selectql.Errorf(selectql.EINVALID, "invalid URL %q: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	if f.hosts != nil {
		if err := f.hosts.get(req.URL.Host).Wait(ctx); err != nil {
			return "", false, err
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retry, selectql.Errorf(selectql.EINVALID, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return "", true, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return "", false, selectql.Errorf(selectql.EINVALID, "document at %s exceeds %d bytes", url, f.maxBodyBytes)
	}

	return string(body), false, nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
