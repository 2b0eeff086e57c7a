// Package registry deals with manifest origins: fetching manifest and
// schema bytes, parsing and validating manifests, persisting the local
// copy, and resolving the builtin registry presets.
package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/buildinfo"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

// Fetcher retrieves raw bytes behind a manifest or file reference. HTTP(S)
// references are GET requests bounded by a fixed timeout; everything else
// is read from the local filesystem. One fetch completes before the next
// starts; the engine relies on that for ordered progress reporting.
type Fetcher struct {
	logger *zap.Logger
	client *http.Client
}

func NewFetcher(logger *zap.Logger, timeout time.Duration) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = domain.DefaultFetchTimeoutSeconds * time.Second
	}
	return &Fetcher{
		logger: logger.Named("fetcher"),
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the bytes behind ref or a FETCH_FAILED error.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if IsRemoteRef(ref) {
		return f.fetchHTTP(ctx, ref)
	}
	return f.fetchLocal(ref)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, domain.E(domain.CodeFetchFailed, "registry.Fetch",
			fmt.Sprintf("build request for %s", ref), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, domain.E(domain.CodeFetchFailed, "registry.Fetch",
			fmt.Sprintf("GET %s", ref), err).
			WithHint("check network connectivity and that the URL is reachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, domain.E(domain.CodeFetchFailed, "registry.Fetch",
			fmt.Sprintf("GET %s: unexpected status %s", ref, resp.Status), nil).
			WithHint("verify the URL; a 404 usually means the manifest moved or was renamed")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.E(domain.CodeFetchFailed, "registry.Fetch",
			fmt.Sprintf("read body of %s", ref), err)
	}
	f.logger.Debug("fetched", zap.String("ref", ref), zap.Int("bytes", len(data)))
	return data, nil
}

func (f *Fetcher) fetchLocal(ref string) ([]byte, error) {
	data, err := os.ReadFile(localPath(ref))
	if err != nil {
		return nil, domain.E(domain.CodeFetchFailed, "registry.Fetch",
			fmt.Sprintf("read %s", ref), err).
			WithHint("verify the file exists and is readable")
	}
	return data, nil
}

// IsRemoteRef reports whether ref is an HTTP(S) URL.
func IsRemoteRef(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// ResolveFileRef resolves a manifest-relative file against the manifest's
// own reference, honoring the optional baseDir prefix.
func ResolveFileRef(manifestRef, baseDir, file string) (string, error) {
	rel := path.Join(baseDir, file)
	if IsRemoteRef(manifestRef) {
		base, err := url.Parse(manifestRef)
		if err != nil {
			return "", domain.E(domain.CodeInvalidArgument, "registry.ResolveFileRef",
				fmt.Sprintf("parse manifest URL %s", manifestRef), err)
		}
		resolved := base.ResolveReference(&url.URL{Path: rel})
		return resolved.String(), nil
	}
	dir := filepath.Dir(localPath(manifestRef))
	return filepath.Join(dir, filepath.FromSlash(rel)), nil
}

// DetectSourceType classifies an origin reference. Builtin detection happens
// upstream when the reference came from a preset lookup.
func DetectSourceType(ref string) domain.SourceType {
	if IsRemoteRef(ref) {
		parsed, err := url.Parse(ref)
		if err == nil && strings.Contains(strings.ToLower(parsed.Host), "github") {
			return domain.SourceTypeGitHub
		}
		return domain.SourceTypeRegistry
	}
	return domain.SourceTypeLocal
}

func localPath(ref string) string {
	return strings.TrimPrefix(ref, "file://")
}

func userAgent() string {
	version := strings.TrimSpace(buildinfo.Version)
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("flowmcp/%s", version)
}
