package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/selectql"
)

// Ensure LoggingFetcher implements selectql.Fetcher.
var _ selectql.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   selectql.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next selectql.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the outcome.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		if err != nil {
			f.logger.Warn("fetch", "url", url, "duration", time.Since(begin), "err", err)
			return
		}
		f.logger.Info("fetch", "url", url, "bytes", len(html), "duration", time.Since(begin))
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
