// Package scrape defines the core types and interfaces for the site
// consolidation engine: scope/canonical URL rules, the discovery frontier,
// the extraction pipeline, and the phased orchestration state machine.
package scrape

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Request captures one consolidation request as accepted by the API layer.
type Request struct {
	// URL is the seed URL; its origin+path becomes the crawl scope.
	URL string `json:"url"`
	// Force bypasses the freshness cache and re-runs discovery.
	Force bool `json:"force"`
}

// Page is the raw result of fetching a single URL.
type Page struct {
	// URL is the final URL after redirects.
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// OK reports whether the response is a usable HTML page. Anything else is a
// dead end for discovery and extraction, never an error.
func (p Page) OK() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300 && p.IsHTML()
}

// IsHTML checks the response content type.
func (p Page) IsHTML() bool {
	return strings.Contains(p.ContentType, "text/html") ||
		strings.Contains(p.ContentType, "application/xhtml")
}

// Chunk is one page's extracted, converted, source-attributed contribution
// to the consolidated document.
type Chunk struct {
	SourceURL string
	Title     string
	Body      string
}

// Markdown renders the chunk with its attribution header.
func (c Chunk) Markdown() string {
	title := c.Title
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("# %s\n\nSource: %s\n\n---\n\n%s", title, c.SourceURL, c.Body)
}

// Result is returned by a completed engine run.
type Result struct {
	// Content is the final cleaned document.
	Content string
	// Discovered is the size of the final discovered set.
	Discovered int
	// Processed is the number of URLs the pipeline accounted for.
	Processed int
	// Chunks is the number of pages that yielded extractable content.
	Chunks int
	// Duration is the wall time of the run.
	Duration time.Duration
}

// ErrStopped is returned by the engine when the caller's cancellation was
// observed at a checkpoint. It is a distinguished non-error outcome: the run
// terminates in the stopped state, not the error state.
var ErrStopped = errors.New("scrape stopped by caller")
