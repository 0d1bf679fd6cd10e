// Package cache implements the on-disk freshness cache for consolidated
// documents, one file per canonical scope URL.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/docfold/docfold/internal/scrape"
)

// Config captures the parameters for the document cache.
type Config struct {
	// Dir is the root directory where documents are stored.
	Dir string
	// TTL is the freshness window; entries older than this are stale.
	TTL time.Duration
}

const defaultTTL = 24 * time.Hour

// Store persists one document per scope URL. The filename is the hex-encoded
// SHA-256 of the scope URL with a .md extension; file modification time is
// the sole freshness signal.
type Store struct {
	dir    string
	ttl    time.Duration
	clock  scrape.Clock
	logger *zap.Logger
}

// New creates the cache directory if needed and returns a Store.
func New(cfg Config, clock scrape.Clock, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(cfg.Dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, fmt.Errorf("cache path %s is not a directory", cfg.Dir)
		}
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.Dir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create cache directory: %w", mkErr)
		}
	default:
		return nil, fmt.Errorf("stat cache directory: %w", err)
	}

	return &Store{dir: cfg.Dir, ttl: cfg.TTL, clock: clock, logger: logger}, nil
}

// Get returns the cached document for the scope URL if it exists and is
// still within the freshness window. A stale entry is reported as a miss but
// left in place until the next successful Put overwrites it.
func (s *Store) Get(scopeURL string) (scrape.CacheEntry, bool) {
	path := s.entryPath(scopeURL)
	info, err := os.Stat(path)
	if err != nil {
		return scrape.CacheEntry{}, false
	}
	if s.clock.Now().Sub(info.ModTime()) >= s.ttl {
		s.logger.Debug("cache entry stale",
			zap.String("scope", scopeURL),
			zap.Time("last_modified", info.ModTime()),
		)
		return scrape.CacheEntry{}, false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("path", path), zap.Error(err))
		return scrape.CacheEntry{}, false
	}
	return scrape.CacheEntry{
		Content:      string(content),
		LastModified: info.ModTime(),
	}, true
}

// Put writes the document, overwriting any previous entry for the key.
func (s *Store) Put(scopeURL, content string) error {
	path := s.entryPath(scopeURL)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

func (s *Store) entryPath(scopeURL string) string {
	sum := sha256.Sum256([]byte(scopeURL))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+".md")
}
