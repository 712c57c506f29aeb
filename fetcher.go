package selectql

import (
	"context"
	"strings"
)

// Fetcher retrieves HTML documents from URLs.
type Fetcher interface {
	// Fetch downloads the document at url and returns its body.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// IsURL reports whether input names a remote document rather than a file.
func IsURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}
