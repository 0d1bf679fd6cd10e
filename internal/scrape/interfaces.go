package scrape

import (
	"context"
	"time"
)

// Fetcher retrieves a single URL. Implementations must honor ctx and return
// non-2xx responses as a Page with the status set, not as an error.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Extraction holds the readable region of a page as produced by an Extractor.
type Extraction struct {
	// Title comes from page metadata.
	Title string
	// ContentHTML is the main content with boilerplate regions removed.
	ContentHTML string
}

// Extractor pulls the main article region out of an HTML document.
type Extractor interface {
	Extract(body []byte, pageURL string) (Extraction, error)
}

// Converter turns clean content HTML into markdown-like text.
type Converter interface {
	Convert(contentHTML string) (string, error)
}

// Cleaner transforms the concatenated raw document into the final document.
// Implementations never fail: any internal error falls back to returning the
// input unchanged.
type Cleaner interface {
	Clean(ctx context.Context, raw string) string
}

// Cache maps a canonical scope URL to a previously produced document.
type Cache interface {
	Get(scopeURL string) (CacheEntry, bool)
	Put(scopeURL, content string) error
}

// CacheEntry is a cached document plus its write time.
type CacheEntry struct {
	Content      string
	LastModified time.Time
}

// Clock returns the current time (useful for testing freshness).
type Clock interface {
	Now() time.Time
}
