package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docfold/docfold/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Cache.Dir = t.TempDir()
	cfg.Logging.Development = false
	return cfg
}

func TestNewWiresApplication(t *testing.T) {
	t.Parallel()

	app, err := New(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app.Server)
	require.NotNil(t, app.Logger)
	assert.NotNil(t, app.Server.Handler())
}

func TestNewWithOllamaCleaner(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Cleanup.Mode = "ollama"
	_, err := New(cfg)
	require.NoError(t, err)
}

func TestBuildCleanerRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Cleanup.Mode = "regex"
	_, err := buildCleaner(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cleanup mode")
}
