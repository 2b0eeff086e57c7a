package domain

import (
	"encoding/json"
	"time"
)

// CacheMeta describes one persisted cache entry. ExpiresAt is always
// FetchedAt + TTLSeconds.
type CacheMeta struct {
	FetchedAt  time.Time `json:"fetchedAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	TTLSeconds int       `json:"ttl"`
	Size       int64     `json:"size"`
}

// CacheHit is a successful cache read. Expired hits are still returned;
// the caller decides whether stale data is usable.
type CacheHit struct {
	Data    json.RawMessage `json:"data"`
	Meta    CacheMeta       `json:"meta"`
	Expired bool            `json:"expired"`
}

// CacheEntryInfo summarizes one entry for status reporting.
type CacheEntryInfo struct {
	Key       string    `json:"key"`
	Namespace string    `json:"namespace"`
	Size      int64     `json:"size"`
	FetchedAt time.Time `json:"fetchedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	Expired   bool      `json:"expired"`
}

// CacheStatus is a walk over the whole cache tree. Unparsable entries are
// skipped, not failed on.
type CacheStatus struct {
	Entries   []CacheEntryInfo `json:"entries"`
	TotalSize int64            `json:"totalSize"`
}
