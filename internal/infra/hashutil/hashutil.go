package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

// ContentDigest returns the lowercase hex SHA-256 of raw file bytes. This is
// the identity used for mirrored files: path + digest, never mtime.
func ContentDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ParamsFingerprint canonicalizes params by sorting keys, serializes the
// result as JSON and returns the first 12 hex characters of its SHA-256.
// Key order in the input never changes the fingerprint.
func ParamsFingerprint(params map[string]any) (string, error) {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]paramEntry, 0, len(keys))
	for _, key := range keys {
		value, err := json.Marshal(params[key])
		if err != nil {
			return "", fmt.Errorf("marshal param %s: %w", key, err)
		}
		entries = append(entries, paramEntry{Key: key, Value: value})
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshal params fingerprint: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:12], nil
}

type paramEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// CatalogETag returns an ETag over catalog entries and logs on failure.
// The gateway uses it to short-circuit tool re-registration.
func CatalogETag(logger *zap.Logger, entries []domain.CatalogEntry) string {
	return hashWithLogger(logger, "catalog", func() (string, error) {
		data, err := json.Marshal(entries)
		if err != nil {
			return "", err
		}
		return ContentDigest(data), nil
	})
}

func hashWithLogger(logger *zap.Logger, label string, fn func() (string, error)) string {
	etag, err := fn()
	if err != nil {
		if logger != nil {
			logger.Warn(fmt.Sprintf("%s hash failed", label), zap.Error(err))
		}
		return ""
	}
	return etag
}
