package scrape

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/docfold/docfold/internal/pool"
	"github.com/docfold/docfold/internal/progress"
)

// Frontier owns the discovered-URL set for one request and drives discovery
// in rounds of bounded-concurrency link extraction. The set grows
// monotonically in first-discovered order and never contains a canonical URL
// twice.
type Frontier struct {
	scope   Scope
	fetcher Fetcher
	limit   int
	logger  *zap.Logger

	mu    sync.Mutex
	seen  map[string]struct{}
	order []string
}

// NewFrontier seeds a frontier with the canonical seed URL.
func NewFrontier(scope Scope, seed string, fetcher Fetcher, limit int, logger *zap.Logger) *Frontier {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Frontier{
		scope:   scope,
		fetcher: fetcher,
		limit:   limit,
		logger:  logger,
		seen:    make(map[string]struct{}),
	}
	f.add(seed)
	return f
}

// Discover examines every URL in the set, appending newly found in-scope
// links, until no URL is left unexamined. Rounds are sequential: the next
// batch starts only after the previous batch has fully settled. Cancellation
// is checked before each round; on cancellation the accumulated set is
// returned along with the context error.
func (f *Frontier) Discover(ctx context.Context, emit progress.Emitter) ([]string, error) {
	next := 0
	for {
		if err := ctx.Err(); err != nil {
			return f.Discovered(), err
		}
		batch := f.pending(next)
		if len(batch) == 0 {
			break
		}
		pool.Run(ctx, batch, f.limit, func(ctx context.Context, pageURL string) {
			f.discoverFrom(ctx, pageURL)
			emit.Emit(progress.Event{
				Type:       progress.TypeDiscovery,
				Discovered: f.Size(),
				Message:    fmt.Sprintf("Examined %s", pageURL),
			})
		})
		next += len(batch)
	}
	return f.Discovered(), nil
}

// discoverFrom fetches one page and merges its in-scope links. Fetch
// failures, non-2xx statuses and non-HTML responses are dead ends, not crawl
// errors: they contribute zero new links.
func (f *Frontier) discoverFrom(ctx context.Context, pageURL string) {
	page, err := f.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		f.logger.Debug("discovery fetch failed", zap.String("url", pageURL), zap.Error(err))
		return
	}
	if !page.OK() {
		return
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		f.logger.Debug("discovery parse failed", zap.String("url", pageURL), zap.Error(err))
		return
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		canonical, err := Resolve(page.URL, href)
		if err != nil {
			return
		}
		if !f.scope.Contains(canonical) {
			return
		}
		// Inserted the moment it is found so a concurrent discovery of the
		// same link cannot enqueue it twice.
		f.add(canonical)
	})
}

// add inserts a canonical URL if absent. Check-and-insert is a single step
// under the frontier lock.
func (f *Frontier) add(canonical string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[canonical]; ok {
		return false
	}
	f.seen[canonical] = struct{}{}
	f.order = append(f.order, canonical)
	return true
}

// pending snapshots the not-yet-examined tail, capped at one round.
func (f *Frontier) pending(from int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if from >= len(f.order) {
		return nil
	}
	end := from + f.limit
	if end > len(f.order) {
		end = len(f.order)
	}
	return append([]string(nil), f.order[from:end]...)
}

// Size returns the current size of the discovered set.
func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// Discovered returns the full set in first-discovered order.
func (f *Frontier) Discovered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}
