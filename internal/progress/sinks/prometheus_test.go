package sinks

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold/internal/progress"
)

func TestPrometheusSink_CountsEvents(t *testing.T) {
	t.Parallel()

	sink, err := NewPrometheusSink(prometheus.NewRegistry())
	require.NoError(t, err)

	events := []progress.Event{
		{Type: progress.TypePhase, Phase: progress.PhaseDiscovering},
		{Type: progress.TypeDiscovery, Discovered: 1},
		{Type: progress.TypeDiscovery, Discovered: 2},
		{Type: progress.TypeProcessing, Processed: 1, Total: 2},
		{Type: progress.TypeProcessing, Processed: 2, Total: 2},
		{Type: progress.TypeComplete},
	}
	for _, evt := range events {
		require.NoError(t, sink.Consume(evt))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.pagesDiscovered))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.pagesProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.scrapesFinished.WithLabelValues("complete")))
	assert.Equal(t, 0.0, testutil.ToFloat64(sink.scrapesFinished.WithLabelValues("stopped")))
}

func TestPrometheusSink_OutcomeLabels(t *testing.T) {
	t.Parallel()

	sink, err := NewPrometheusSink(prometheus.NewRegistry())
	require.NoError(t, err)

	require.NoError(t, sink.Consume(progress.Event{Type: progress.TypeStopped}))
	require.NoError(t, sink.Consume(progress.Event{Type: progress.TypeError, Error: "boom"}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.scrapesFinished.WithLabelValues("stopped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.scrapesFinished.WithLabelValues("error")))
}

func TestPrometheusSink_CacheHits(t *testing.T) {
	t.Parallel()

	sink, err := NewPrometheusSink(prometheus.NewRegistry())
	require.NoError(t, err)

	sink.CacheHit()
	sink.CacheHit()
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.cacheHits))
}

func TestPrometheusSink_ScrapeDuration(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(registry)
	require.NoError(t, err)

	sink.ScrapeDuration(1500 * time.Millisecond)
	sink.ScrapeDuration(3 * time.Second)

	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "docfold_scrape_duration_seconds" {
			continue
		}
		require.Len(t, family.GetMetric(), 1)
		histogram := family.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(2), histogram.GetSampleCount())
		assert.InDelta(t, 4.5, histogram.GetSampleSum(), 0.001)
		return
	}
	t.Fatal("duration histogram not gathered")
}

func TestPrometheusSink_DuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewPrometheusSink(registry)
	require.NoError(t, err)
	_, err = NewPrometheusSink(registry)
	require.Error(t, err)
}
