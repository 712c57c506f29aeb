package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/selectql"
	selectqlhttp "github.com/fwojciec/selectql/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns HTML body from server", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>Hello World</body></html>"))
		}))
		defer server.Close()

		fetcher := selectqlhttp.NewFetcher()
		defer fetcher.Close()

		html, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "<html><body>Hello World</body></html>", html)
	})

	t.Run("sends the configured user agent", func(t *testing.T) {
		t.Parallel()

		var got atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got.Store(r.UserAgent())
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		fetcher := selectqlhttp.NewFetcher(selectqlhttp.WithUserAgent("test-agent"))
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "test-agent", got.Load())
	})

	t.Run("respects custom timeout option", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		// Use a very short timeout that will expire before server responds
		fetcher := selectqlhttp.NewFetcher(selectqlhttp.WithTimeout(10 * time.Millisecond))
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		fetcher := selectqlhttp.NewFetcher()
		defer fetcher.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // Cancel immediately

		_, err := fetcher.Fetch(ctx, server.URL)
		require.Error(t, err)
	})

	t.Run("returns error for non-existent host", func(t *testing.T) {
		t.Parallel()

		fetcher := selectqlhttp.NewFetcher(selectqlhttp.WithTimeout(100 * time.Millisecond))
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), "http://non-existent-host.invalid/page")
		require.Error(t, err)
	})

	t.Run("returns error for non-200 status codes", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("404 Not Found"))
		}))
		defer server.Close()

		fetcher := selectqlhttp.NewFetcher()
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Equal(t, selectql.EINVALID, selectql.ErrorCode(err))
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("rejects documents over the size limit", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		}))
		defer server.Close()

		fetcher := selectqlhttp.NewFetcher(selectqlhttp.WithFetchLimit(32))
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Equal(t, selectql.EINVALID, selectql.ErrorCode(err))
	})

	t.Run("rejects malformed URLs", func(t *testing.T) {
		t.Parallel()

		fetcher := selectqlhttp.NewFetcher()
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), "http://[::1")
		require.Error(t, err)
		assert.Equal(t, selectql.EINVALID, selectql.ErrorCode(err))
	})

	t.Run("spaces requests to the same host", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		fetcher := selectqlhttp.NewFetcher(selectqlhttp.WithHostRateLimit(10))
		defer fetcher.Close()

		begin := time.Now()
		for range 3 {
			_, err := fetcher.Fetch(context.Background(), server.URL)
			require.NoError(t, err)
		}

		// One token up front, then one every 100ms.
		assert.GreaterOrEqual(t, time.Since(begin), 150*time.Millisecond)
	})
}

func TestFetcher_Retries(t *testing.T) {
	t.Parallel()

	t.Run("retries transient failures", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		fetcher := selectqlhttp.NewFetcher(selectqlhttp.WithRetries(3, time.Millisecond))
		defer fetcher.Close()

		html, err := fetcher.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "ok", html)
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("gives up after the last retry", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		fetcher := selectqlhttp.NewFetcher(selectqlhttp.WithRetries(2, time.Millisecond))
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
		assert.Equal(t, int32(3), hits.Load())
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		fetcher := selectqlhttp.NewFetcher(selectqlhttp.WithRetries(3, time.Millisecond))
		defer fetcher.Close()

		_, err := fetcher.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Equal(t, int32(1), hits.Load())
	})
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	assert.True(t, selectql.IsURL("https://example.com/page"))
	assert.True(t, selectql.IsURL("http://localhost:8080"))
	assert.False(t, selectql.IsURL("page.html"))
	assert.False(t, selectql.IsURL("-"))
	assert.False(t, selectql.IsURL("ftp://example.com"))
}
