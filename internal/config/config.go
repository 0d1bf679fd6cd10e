// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Cleanup CleanupConfig `mapstructure:"cleanup"`
	Ollama  OllamaConfig  `mapstructure:"ollama"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ScrapeConfig governs the crawl engine.
type ScrapeConfig struct {
	Concurrency       int     `mapstructure:"concurrency"`
	UserAgent         string  `mapstructure:"user_agent"`
	FetchTimeoutSecs  int     `mapstructure:"fetch_timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	PartialOnStop     bool    `mapstructure:"partial_on_stop"`
}

// CacheConfig sets the document cache location and freshness window.
type CacheConfig struct {
	Dir      string `mapstructure:"dir"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

// CleanupConfig selects and tunes the cleanup variant.
type CleanupConfig struct {
	// Mode is "rules" or "ollama".
	Mode string `mapstructure:"mode"`
	// Language is the ISO 639-3 code kept by the line filter.
	Language string `mapstructure:"language"`
	// MinClassifyRunes is the shortest line length worth classifying.
	MinClassifyRunes int `mapstructure:"min_classify_runes"`
	// MinConfidence is the detection confidence below which a line is
	// treated as undetermined and kept.
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// OllamaConfig points the model-based cleaner at a local Ollama server.
type OllamaConfig struct {
	URL            string `mapstructure:"url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCFOLD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("scrape.concurrency", 4)
	v.SetDefault("scrape.user_agent", "docfold/0.1")
	v.SetDefault("scrape.fetch_timeout_seconds", 15)
	v.SetDefault("scrape.requests_per_second", 8.0)
	v.SetDefault("scrape.partial_on_stop", false)
	v.SetDefault("cache.dir", "cache")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("cleanup.mode", "rules")
	v.SetDefault("cleanup.language", "eng")
	v.SetDefault("cleanup.min_classify_runes", 24)
	v.SetDefault("cleanup.min_confidence", 0.5)
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.1")
	v.SetDefault("ollama.timeout_seconds", 120)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scrape.Concurrency <= 0 {
		return fmt.Errorf("scrape.concurrency must be > 0")
	}
	if c.Scrape.FetchTimeoutSecs <= 0 {
		return fmt.Errorf("scrape.fetch_timeout_seconds must be > 0")
	}
	if c.Cache.TTLHours <= 0 {
		return fmt.Errorf("cache.ttl_hours must be > 0")
	}
	switch c.Cleanup.Mode {
	case "rules", "ollama":
	default:
		return fmt.Errorf("cleanup.mode must be rules or ollama, got %q", c.Cleanup.Mode)
	}
	return nil
}

// FetchTimeout converts the fetch timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scrape.FetchTimeoutSecs) * time.Second
}

// CacheTTL converts the cache TTL config into a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// OllamaTimeout converts the Ollama timeout config into a duration.
func (c Config) OllamaTimeout() time.Duration {
	return time.Duration(c.Ollama.TimeoutSeconds) * time.Second
}
