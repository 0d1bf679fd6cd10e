// Package sinks provides progress.Sink implementations beyond the response
// stream itself, currently Prometheus metrics export.
package sinks

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docfold/docfold/internal/progress"
)

// PrometheusSink exports scrape progress metrics. It owns all collectors for
// scrapes started/finished, page-level counters, cache hits, and run
// durations.
type PrometheusSink struct {
	scrapesFinished *prometheus.CounterVec
	pagesDiscovered prometheus.Counter
	pagesProcessed  prometheus.Counter
	cacheHits       prometheus.Counter
	scrapeDuration  prometheus.Histogram
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		scrapesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docfold_scrapes_finished_total",
			Help: "Total scrapes finished partitioned by outcome.",
		}, []string{"outcome"}),
		pagesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docfold_pages_discovered_total",
			Help: "Total URLs added to the discovered set.",
		}),
		pagesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docfold_pages_processed_total",
			Help: "Total URLs accounted for by the extraction pipeline.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docfold_cache_hits_total",
			Help: "Total requests answered from the freshness cache.",
		}),
		scrapeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docfold_scrape_duration_seconds",
			Help:    "Wall time of finished scrape runs.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.scrapesFinished,
		s.pagesDiscovered,
		s.pagesProcessed,
		s.cacheHits,
		s.scrapeDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume implements progress.Sink. It is safe for concurrent use.
func (s *PrometheusSink) Consume(evt progress.Event) error {
	switch evt.Type {
	case progress.TypeDiscovery:
		s.pagesDiscovered.Inc()
	case progress.TypeProcessing:
		s.pagesProcessed.Inc()
	case progress.TypeComplete:
		s.scrapesFinished.WithLabelValues("complete").Inc()
	case progress.TypeStopped:
		s.scrapesFinished.WithLabelValues("stopped").Inc()
	case progress.TypeError:
		s.scrapesFinished.WithLabelValues("error").Inc()
	}
	return nil
}

// CacheHit counts a request short-circuited by a fresh cache entry. Cache
// hits never open an event stream, so they cannot be observed via Consume.
func (s *PrometheusSink) CacheHit() {
	s.cacheHits.Inc()
}

// ScrapeDuration records the wall time of one finished run.
func (s *PrometheusSink) ScrapeDuration(d time.Duration) {
	s.scrapeDuration.Observe(d.Seconds())
}
