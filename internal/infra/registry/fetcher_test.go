package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

func TestFetcher_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	fetcher := NewFetcher(nil, 0)
	data, err := fetcher.Fetch(context.Background(), server.URL+"/registry.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
}

func TestFetcher_HTTPStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := NewFetcher(nil, 0)
	_, err := fetcher.Fetch(context.Background(), server.URL+"/missing.json")
	require.Error(t, err)

	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeFetchFailed, code)
	assert.NotEmpty(t, domain.HintFrom(err))
}

func TestFetcher_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	fetcher := NewFetcher(nil, 20*time.Millisecond)
	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, err)

	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeFetchFailed, code)
}

func TestFetcher_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"x"}`), 0o644))

	fetcher := NewFetcher(nil, 0)
	data, err := fetcher.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x"}`, string(data))

	_, err = fetcher.Fetch(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestResolveFileRef_Remote(t *testing.T) {
	ref, err := ResolveFileRef("https://example.com/reg/registry.json", "", "coingecko.json")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/reg/coingecko.json", ref)

	ref, err = ResolveFileRef("https://example.com/reg/registry.json", "schemas/v1/", "_shared/countries.json")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/reg/schemas/v1/_shared/countries.json", ref)
}

func TestResolveFileRef_Local(t *testing.T) {
	ref, err := ResolveFileRef("/data/reg/registry.json", "", "coingecko.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/reg", "coingecko.json"), ref)
}

func TestDetectSourceType(t *testing.T) {
	assert.Equal(t, domain.SourceTypeGitHub, DetectSourceType("https://raw.githubusercontent.com/org/repo/main/registry.json"))
	assert.Equal(t, domain.SourceTypeRegistry, DetectSourceType("https://registry.example.com/manifest.json"))
	assert.Equal(t, domain.SourceTypeLocal, DetectSourceType("/tmp/registry.json"))
}
