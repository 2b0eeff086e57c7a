// Package cache persists fetched route responses as JSON files under the
// store's cache tree, keyed by namespace, route and a fingerprint of the
// invocation params. Reads are best effort: a missing or unreadable entry
// is a miss, never an error.
package cache

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/fsutil"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/hashutil"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/telemetry"
)

const entryExt = ".json"

// envelope is the on-disk shape of one entry.
type envelope struct {
	Meta domain.CacheMeta `json:"meta"`
	Data json.RawMessage  `json:"data"`
}

type Cache struct {
	logger  *zap.Logger
	root    string
	metrics domain.Metrics
}

// New builds a cache rooted at dir. The directory is created lazily on the
// first write.
func New(logger *zap.Logger, dir string, metrics domain.Metrics) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Cache{
		logger:  logger.Named("cache"),
		root:    dir,
		metrics: metrics,
	}
}

// BuildKey derives the cache key for one invocation. Routes called without
// params map to a single file per route; params fan out into one file per
// fingerprint so different arguments never collide.
func BuildKey(namespace, route string, params map[string]any) (string, error) {
	base := path.Join(namespace, route)
	if len(params) == 0 {
		return base + entryExt, nil
	}
	fingerprint, err := hashutil.ParamsFingerprint(params)
	if err != nil {
		return "", domain.E(domain.CodeInternal, "cache.BuildKey", "fingerprint params", err)
	}
	return path.Join(base, fingerprint) + entryExt, nil
}

// Read looks up key and reports whether an entry was found. Corrupt entries
// count as misses; expiry is returned on the hit but does not suppress it,
// so callers can fall back to stale data when a refetch fails.
func (c *Cache) Read(key string) (*domain.CacheHit, bool) {
	entryPath, err := c.entryPath(key)
	if err != nil {
		c.metrics.ObserveCacheOp(domain.CacheOpRead, domain.CacheResultMiss)
		return nil, false
	}
	raw, err := os.ReadFile(entryPath)
	if err != nil {
		c.metrics.ObserveCacheOp(domain.CacheOpRead, domain.CacheResultMiss)
		return nil, false
	}
	var entry envelope
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Meta.ExpiresAt.IsZero() {
		c.logger.Debug("dropping corrupt cache entry", zap.String("key", key), zap.Error(err))
		c.metrics.ObserveCacheOp(domain.CacheOpRead, domain.CacheResultCorrupt)
		return nil, false
	}

	expired := c.expired(entry.Meta, time.Now())
	if expired {
		c.metrics.ObserveCacheOp(domain.CacheOpRead, domain.CacheResultExpired)
	} else {
		c.metrics.ObserveCacheOp(domain.CacheOpRead, domain.CacheResultHit)
	}
	return &domain.CacheHit{
		Data:    entry.Data,
		Meta:    entry.Meta,
		Expired: expired,
	}, true
}

// Write stores data under key with the given TTL, replacing any previous
// entry for the same key.
func (c *Cache) Write(key string, data json.RawMessage, ttlSeconds int) (*domain.CacheMeta, error) {
	entryPath, err := c.entryPath(key)
	if err != nil {
		c.metrics.ObserveCacheOp(domain.CacheOpWrite, domain.CacheResultError)
		return nil, err
	}
	if ttlSeconds == 0 {
		ttlSeconds = domain.DefaultCacheTTLSeconds
	}
	now := time.Now()
	meta := domain.CacheMeta{
		FetchedAt:  now,
		ExpiresAt:  now.Add(time.Duration(ttlSeconds) * time.Second),
		TTLSeconds: ttlSeconds,
		Size:       int64(len(data)),
	}
	raw, err := json.Marshal(envelope{Meta: meta, Data: data})
	if err != nil {
		c.metrics.ObserveCacheOp(domain.CacheOpWrite, domain.CacheResultError)
		return nil, domain.E(domain.CodeInternal, "cache.Write", "marshal entry", err)
	}
	if err := fsutil.WriteFileAtomic(entryPath, raw, fsutil.DefaultFileMode); err != nil {
		c.metrics.ObserveCacheOp(domain.CacheOpWrite, domain.CacheResultError)
		return nil, domain.E(domain.CodeIOFailed, "cache.Write", fmt.Sprintf("write %s", key), err).
			WithHint("check free disk space and permissions under the store root")
	}
	c.metrics.ObserveCacheOp(domain.CacheOpWrite, domain.CacheResultOK)
	return &meta, nil
}

// Clear removes the subtree named by scope: empty for everything, a
// namespace, or namespace/route. Clearing something that does not exist
// succeeds.
func (c *Cache) Clear(scope string) error {
	if scope == "" {
		if err := os.RemoveAll(c.root); err != nil {
			c.metrics.ObserveCacheOp(domain.CacheOpClear, domain.CacheResultError)
			return domain.E(domain.CodeIOFailed, "cache.Clear", "clear cache", err)
		}
		c.metrics.ObserveCacheOp(domain.CacheOpClear, domain.CacheResultOK)
		return nil
	}

	rel := filepath.FromSlash(path.Clean(scope))
	if rel == "." || !filepath.IsLocal(rel) {
		c.metrics.ObserveCacheOp(domain.CacheOpClear, domain.CacheResultError)
		return domain.E(domain.CodeInvalidArgument, "cache.Clear",
			fmt.Sprintf("unsafe cache scope %q", scope), nil)
	}

	// A route keeps param entries in a directory and the no-param entry as
	// a sibling file, so both spellings are removed.
	if err := os.RemoveAll(filepath.Join(c.root, rel)); err != nil {
		c.metrics.ObserveCacheOp(domain.CacheOpClear, domain.CacheResultError)
		return domain.E(domain.CodeIOFailed, "cache.Clear", fmt.Sprintf("clear %s", scope), err)
	}
	if err := os.Remove(filepath.Join(c.root, rel+entryExt)); err != nil && !os.IsNotExist(err) {
		c.metrics.ObserveCacheOp(domain.CacheOpClear, domain.CacheResultError)
		return domain.E(domain.CodeIOFailed, "cache.Clear", fmt.Sprintf("clear %s", scope), err)
	}
	c.metrics.ObserveCacheOp(domain.CacheOpClear, domain.CacheResultOK)
	return nil
}

// Status walks the cache tree and summarizes every parsable entry.
// Unparsable files are skipped so one corrupt entry cannot hide the rest.
func (c *Cache) Status() (*domain.CacheStatus, error) {
	status := &domain.CacheStatus{Entries: []domain.CacheEntryInfo{}}
	now := time.Now()

	err := filepath.WalkDir(c.root, func(entryPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), entryExt) {
			return nil
		}

		raw, err := os.ReadFile(entryPath)
		if err != nil {
			return nil
		}
		var entry envelope
		if err := json.Unmarshal(raw, &entry); err != nil || entry.Meta.ExpiresAt.IsZero() {
			c.logger.Debug("skipping unparsable cache entry", zap.String("path", entryPath))
			return nil
		}

		rel, err := filepath.Rel(c.root, entryPath)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		status.Entries = append(status.Entries, domain.CacheEntryInfo{
			Key:       key,
			Namespace: namespaceOf(key),
			Size:      entry.Meta.Size,
			FetchedAt: entry.Meta.FetchedAt,
			ExpiresAt: entry.Meta.ExpiresAt,
			Expired:   c.expired(entry.Meta, now),
		})
		status.TotalSize += entry.Meta.Size
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, domain.E(domain.CodeIOFailed, "cache.Status", "walk cache tree", err)
	}
	return status, nil
}

// expired uses the wall clock: an entry is stale once now reaches its
// persisted expiry, so a backwards clock jump revives entries until the
// clock catches up again.
func (c *Cache) expired(meta domain.CacheMeta, now time.Time) bool {
	return !now.Before(meta.ExpiresAt)
}

func (c *Cache) entryPath(key string) (string, error) {
	rel := filepath.FromSlash(path.Clean(key))
	if rel == "." || !filepath.IsLocal(rel) {
		return "", domain.E(domain.CodeInvalidArgument, "cache.entryPath",
			fmt.Sprintf("unsafe cache key %q", key), nil)
	}
	return filepath.Join(c.root, rel), nil
}

func namespaceOf(key string) string {
	if idx := strings.IndexByte(key, '/'); idx > 0 {
		return key[:idx]
	}
	return strings.TrimSuffix(key, entryExt)
}
