package clean

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OllamaConfig controls the model-backed cleaner.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
	// MaxInputRunes truncates oversized documents before prompting so the
	// request fits the model context.
	MaxInputRunes int
}

const (
	defaultOllamaURL     = "http://localhost:11434"
	defaultOllamaModel   = "llama3.1"
	defaultOllamaTimeout = 120 * time.Second
	defaultMaxInputRunes = 60000
)

const cleanupPrompt = `You are cleaning up documentation scraped from a website.
Remove navigation links, cookie banners, "edit this page" links and other
boilerplate. Keep all technical content, headings and code blocks exactly as
they are. Return only the cleaned document, no commentary.

Document:
%s`

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaCleaner rewrites the document through a local Ollama model. Any
// failure (endpoint down, non-200, empty completion) falls back to the
// unmodified input.
type OllamaCleaner struct {
	cfg    OllamaConfig
	client *http.Client
	logger *zap.Logger
}

// NewOllama constructs an OllamaCleaner.
func NewOllama(cfg OllamaConfig, logger *zap.Logger) *OllamaCleaner {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultOllamaTimeout
	}
	if cfg.MaxInputRunes <= 0 {
		cfg.MaxInputRunes = defaultMaxInputRunes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaCleaner{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Available probes the Ollama endpoint.
func (c *OllamaCleaner) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Clean implements the cleanup contract. The endpoint is probed first so a
// down model server falls back immediately instead of burning the full
// request timeout.
func (c *OllamaCleaner) Clean(ctx context.Context, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	if !c.Available(ctx) {
		c.logger.Warn("ollama endpoint unavailable, returning raw document",
			zap.String("base_url", c.cfg.BaseURL))
		return raw
	}
	cleaned, err := c.rewrite(ctx, raw)
	if err != nil {
		c.logger.Warn("model cleanup failed, returning raw document", zap.Error(err))
		return raw
	}
	if strings.TrimSpace(cleaned) == "" {
		c.logger.Warn("model cleanup returned empty document, returning raw document")
		return raw
	}
	return cleaned
}

func (c *OllamaCleaner) rewrite(ctx context.Context, raw string) (string, error) {
	input := raw
	if runes := []rune(input); len(runes) > c.cfg.MaxInputRunes {
		input = string(runes[:c.cfg.MaxInputRunes])
	}

	body, err := json.Marshal(generateRequest{
		Model:  c.cfg.Model,
		Prompt: fmt.Sprintf(cleanupPrompt, input),
		Stream: false,
		Options: generateOptions{
			Temperature: 0,
			NumCtx:      8192,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var generated generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return generated.Response, nil
}
