package clean

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaCleaner_RewritesDocument(t *testing.T) {
	t.Parallel()

	var gotReq generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(generateResponse{Response: "cleaned document", Done: true})
	}))
	defer server.Close()

	c := NewOllama(OllamaConfig{BaseURL: server.URL, Model: "test-model"}, nil)
	got := c.Clean(context.Background(), "raw document with Previous Next links")

	assert.Equal(t, "cleaned document", got)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.False(t, gotReq.Stream)
	assert.Contains(t, gotReq.Prompt, "raw document with Previous Next links")
	assert.Zero(t, gotReq.Options.Temperature)
}

func TestOllamaCleaner_FallsBackToRaw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"empty completion", func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(generateResponse{Response: "   ", Done: true})
		}},
		{"malformed body", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("not json"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			c := NewOllama(OllamaConfig{BaseURL: server.URL}, nil)
			raw := "the original document"
			assert.Equal(t, raw, c.Clean(context.Background(), raw))
		})
	}
}

func TestOllamaCleaner_DownEndpointSkipsGeneration(t *testing.T) {
	t.Parallel()

	generateCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		generateCalls++
		json.NewEncoder(w).Encode(generateResponse{Response: "should not be used", Done: true})
	}))
	defer server.Close()

	c := NewOllama(OllamaConfig{BaseURL: server.URL}, nil)
	raw := "the original document"
	assert.Equal(t, raw, c.Clean(context.Background(), raw))
	assert.Zero(t, generateCalls)
}

func TestOllamaCleaner_UnreachableEndpointFallsBack(t *testing.T) {
	t.Parallel()

	c := NewOllama(OllamaConfig{BaseURL: "http://127.0.0.1:1"}, nil)
	raw := "the original document"
	assert.Equal(t, raw, c.Clean(context.Background(), raw))
}

func TestOllamaCleaner_EmptyInputSkipsModel(t *testing.T) {
	t.Parallel()

	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()

	c := NewOllama(OllamaConfig{BaseURL: server.URL}, nil)
	assert.Equal(t, "  ", c.Clean(context.Background(), "  "))
	assert.False(t, called)
}

func TestOllamaCleaner_TruncatesOversizedInput(t *testing.T) {
	t.Parallel()

	var gotReq generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(generateResponse{Response: "ok", Done: true})
	}))
	defer server.Close()

	c := NewOllama(OllamaConfig{BaseURL: server.URL, MaxInputRunes: 10}, nil)
	c.Clean(context.Background(), strings.Repeat("x", 100))

	assert.Contains(t, gotReq.Prompt, strings.Repeat("x", 10))
	assert.NotContains(t, gotReq.Prompt, strings.Repeat("x", 11))
}

func TestOllamaCleaner_Available(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.True(t, NewOllama(OllamaConfig{BaseURL: server.URL}, nil).Available(context.Background()))
	assert.False(t, NewOllama(OllamaConfig{BaseURL: "http://127.0.0.1:1"}, nil).Available(context.Background()))
}
