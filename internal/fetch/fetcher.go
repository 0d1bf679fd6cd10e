// Package fetch implements the HTTP page fetcher used by discovery and
// extraction, with a politeness rate limiter shared by all tasks of a run.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/docfold/docfold/internal/scrape"
)

// Config controls fetcher behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond throttles outgoing requests; <= 0 disables the limiter.
	RequestsPerSecond float64
	// MaxBodyBytes caps how much of a response body is read; <= 0 uses the default.
	MaxBodyBytes int64
}

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 10 << 20
	defaultUserAgent    = "docfold/0.1"
)

// HTTPFetcher implements scrape.Fetcher over net/http.
type HTTPFetcher struct {
	client  *http.Client
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New constructs an HTTPFetcher.
func New(cfg Config, logger *zap.Logger) *HTTPFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Fetch retrieves one URL. Network-level failures come back as errors;
// non-2xx and non-HTML responses come back as a Page for the caller to
// classify as a dead end.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (scrape.Page, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return scrape.Page{}, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return scrape.Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return scrape.Page{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Debug("close response body", zap.Error(cerr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return scrape.Page{}, fmt.Errorf("read body of %s: %w", rawURL, err)
	}

	return scrape.Page{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
