package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "docfold-test/1.0", r.Header.Get("User-Agent"))
		assert.Contains(t, r.Header.Get("Accept"), "text/html")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer server.Close()

	f := New(Config{UserAgent: "docfold-test/1.0"}, nil)
	page, err := f.Fetch(context.Background(), server.URL+"/docs")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", page.ContentType)
	assert.Equal(t, "<html><body>hello</body></html>", string(page.Body))
	assert.True(t, page.OK())
	assert.True(t, strings.HasSuffix(page.URL, "/docs"))
}

func TestHTTPFetcher_NonSuccessStatusIsNotAnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer server.Close()

	f := New(Config{}, nil)
	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, page.StatusCode)
	assert.False(t, page.OK())
}

func TestHTTPFetcher_BodyCappedAtLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(strings.Repeat("x", 1024)))
	}))
	defer server.Close()

	f := New(Config{MaxBodyBytes: 64}, nil)
	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, page.Body, 64)
}

func TestHTTPFetcher_CancelledContext(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(Config{}, nil)
	_, err := f.Fetch(ctx, server.URL)
	require.Error(t, err)
}

func TestHTTPFetcher_NetworkErrorPropagates(t *testing.T) {
	t.Parallel()

	f := New(Config{Timeout: time.Second}, nil)
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/unreachable")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch")
}

func TestHTTPFetcher_RateLimiterSpacesRequests(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := New(Config{RequestsPerSecond: 20}, nil)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
	}
	// Three requests at 20 rps need at least two 50ms gaps.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}
