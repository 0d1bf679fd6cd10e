// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/docfold/docfold/internal/api"
	"github.com/docfold/docfold/internal/cache"
	"github.com/docfold/docfold/internal/clean"
	"github.com/docfold/docfold/internal/clock/system"
	"github.com/docfold/docfold/internal/config"
	"github.com/docfold/docfold/internal/extract"
	"github.com/docfold/docfold/internal/fetch"
	"github.com/docfold/docfold/internal/logging"
	"github.com/docfold/docfold/internal/progress/sinks"
	"github.com/docfold/docfold/internal/scrape"
)

// App holds the shared, long-lived services for the service. It is
// initialized once at startup and fails fast when any service cannot be
// built.
type App struct {
	Logger *zap.Logger
	Server *api.Server
	Config config.Config
}

// New wires the application from configuration.
func New(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	clock := system.New()

	store, err := cache.New(cache.Config{
		Dir: cfg.Cache.Dir,
		TTL: cfg.CacheTTL(),
	}, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	fetcher := fetch.New(fetch.Config{
		UserAgent:         cfg.Scrape.UserAgent,
		Timeout:           cfg.FetchTimeout(),
		RequestsPerSecond: cfg.Scrape.RequestsPerSecond,
	}, logger)

	cleaner, err := buildCleaner(cfg, logger)
	if err != nil {
		return nil, err
	}

	engine := scrape.NewEngine(
		fetcher,
		extract.NewReadability(),
		extract.NewConverter(),
		cleaner,
		store,
		clock,
		scrape.Config{
			Concurrency:   cfg.Scrape.Concurrency,
			PartialOnStop: cfg.Scrape.PartialOnStop,
		},
		logger,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metricsSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	server := api.NewServer(engine, store, metricsSink, registry, logger)

	return &App{
		Logger: logger,
		Server: server,
		Config: cfg,
	}, nil
}

func buildCleaner(cfg config.Config, logger *zap.Logger) (scrape.Cleaner, error) {
	switch cfg.Cleanup.Mode {
	case "rules":
		return clean.NewRules(clean.RulesConfig{
			Language:         cfg.Cleanup.Language,
			MinClassifyRunes: cfg.Cleanup.MinClassifyRunes,
			MinConfidence:    cfg.Cleanup.MinConfidence,
		}, logger), nil
	case "ollama":
		return clean.NewOllama(clean.OllamaConfig{
			BaseURL: cfg.Ollama.URL,
			Model:   cfg.Ollama.Model,
			Timeout: cfg.OllamaTimeout(),
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown cleanup mode: %s", cfg.Cleanup.Mode)
	}
}
