package scrape

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/docfold/docfold/internal/pool"
	"github.com/docfold/docfold/internal/progress"
)

// Config controls engine behavior for every request.
type Config struct {
	// Concurrency caps in-flight fetches in both the discovery and
	// processing phases.
	Concurrency int
	// PartialOnStop makes the stopped event carry the chunks collected so
	// far, uncleaned. When false a stopped run discards partial content.
	PartialOnStop bool
}

const defaultConcurrency = 4

// Engine runs the full consolidation state machine for one request:
// discovering -> processing -> cleaning -> complete, or stopped/error.
type Engine struct {
	fetcher   Fetcher
	extractor Extractor
	converter Converter
	cleaner   Cleaner
	cache     Cache
	clock     Clock
	cfg       Config
	logger    *zap.Logger
}

// NewEngine constructs an Engine.
func NewEngine(
	fetcher Fetcher,
	extractor Extractor,
	converter Converter,
	cleaner Cleaner,
	cache Cache,
	clock Clock,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		fetcher:   fetcher,
		extractor: extractor,
		converter: converter,
		cleaner:   cleaner,
		cache:     cache,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes one request, emitting the full ordered event stream including
// the terminal event. The returned error mirrors the terminal state: nil on
// complete, ErrStopped when the caller's cancellation was observed, and the
// failure otherwise. The cache-hit short circuit is the caller's concern;
// Run always crawls.
func (e *Engine) Run(ctx context.Context, req Request, emit progress.Emitter) (result Result, err error) {
	started := e.clock.Now()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("internal error: %v", rec)
			e.logger.Error("scrape panicked", zap.Any("panic", rec))
			emit.Emit(progress.Event{Type: progress.TypeError, Error: "internal error"})
		}
	}()

	scope, seed, err := NewScope(req.URL)
	if err != nil {
		emit.Emit(progress.Event{Type: progress.TypeError, Error: err.Error()})
		return Result{}, err
	}
	logger := e.logger.With(zap.String("scope", string(scope)))

	// Discovery phase.
	emit.Emit(progress.Event{
		Type:    progress.TypePhase,
		Phase:   progress.PhaseDiscovering,
		Message: fmt.Sprintf("Discovering pages under %s", scope),
	})
	frontier := NewFrontier(scope, seed, e.fetcher, e.cfg.Concurrency, logger)
	urls, derr := frontier.Discover(ctx, emit)
	if derr != nil {
		return e.stopped(emit, nil, started)
	}
	logger.Info("discovery finished", zap.Int("pages", len(urls)))

	// Processing phase.
	total := len(urls)
	emit.Emit(progress.Event{
		Type:    progress.TypePhase,
		Phase:   progress.PhaseProcessing,
		Total:   total,
		Message: fmt.Sprintf("Processing %d pages", total),
	})

	pipeline := NewPipeline(e.fetcher, e.extractor, e.converter, logger)
	var (
		mu        sync.Mutex
		chunks    []Chunk
		processed atomic.Int64
	)
	pool.Run(ctx, urls, e.cfg.Concurrency, func(ctx context.Context, pageURL string) {
		// Accounted in a defer so the counter advances exactly once per URL
		// regardless of success, failure, or empty result.
		defer func() {
			n := int(processed.Add(1))
			emit.Emit(progress.Event{
				Type:      progress.TypeProcessing,
				Processed: n,
				Total:     total,
				URL:       pageURL,
				Message:   fmt.Sprintf("Processed %s", pageURL),
			})
		}()

		chunk, perr := pipeline.ExtractPage(ctx, pageURL)
		if perr != nil {
			logger.Debug("page extraction failed", zap.String("url", pageURL), zap.Error(perr))
			return
		}
		if chunk == nil {
			return
		}
		mu.Lock()
		chunks = append(chunks, *chunk)
		mu.Unlock()
	})
	if ctx.Err() != nil {
		return e.stopped(emit, chunks, started)
	}

	// Cleaning phase.
	emit.Emit(progress.Event{
		Type:    progress.TypePhase,
		Phase:   progress.PhaseCleaning,
		Message: "Cleaning up document",
	})
	raw := concatChunks(chunks)
	content := e.cleaner.Clean(ctx, raw)
	if ctx.Err() != nil {
		return e.stopped(emit, chunks, started)
	}

	if strings.TrimSpace(content) != "" {
		if cerr := e.cache.Put(string(scope), content); cerr != nil {
			logger.Warn("cache write failed", zap.Error(cerr))
		}
	}

	emit.Emit(progress.Event{Type: progress.TypeComplete, Content: content})
	return Result{
		Content:    content,
		Discovered: total,
		Processed:  int(processed.Load()),
		Chunks:     len(chunks),
		Duration:   e.clock.Now().Sub(started),
	}, nil
}

// stopped emits the distinct terminal event for a caller-requested stop. The
// partial document rides along only when configured; by default it is
// discarded as unfinished.
func (e *Engine) stopped(emit progress.Emitter, chunks []Chunk, started time.Time) (Result, error) {
	evt := progress.Event{
		Type:    progress.TypeStopped,
		Message: "Scrape stopped before completion",
	}
	var content string
	if e.cfg.PartialOnStop && len(chunks) > 0 {
		content = concatChunks(chunks)
		evt.Content = content
	}
	emit.Emit(evt)
	return Result{
		Content:  content,
		Chunks:   len(chunks),
		Duration: e.clock.Now().Sub(started),
	}, ErrStopped
}

func concatChunks(chunks []Chunk) string {
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Markdown())
	}
	return strings.Join(parts, "\n\n")
}
