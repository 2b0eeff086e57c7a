package domain

import "time"

// FetchKind labels what a fetch retrieved.
type FetchKind string

const (
	FetchKindManifest FetchKind = "manifest"
	FetchKindFile     FetchKind = "file"
)

// CacheOp labels a cache operation for metrics.
type CacheOp string

const (
	CacheOpRead  CacheOp = "read"
	CacheOpWrite CacheOp = "write"
	CacheOpClear CacheOp = "clear"
)

// CacheOpResult labels how a cache operation ended.
type CacheOpResult string

const (
	CacheResultHit     CacheOpResult = "hit"
	CacheResultMiss    CacheOpResult = "miss"
	CacheResultExpired CacheOpResult = "expired"
	CacheResultCorrupt CacheOpResult = "corrupt"
	CacheResultOK      CacheOpResult = "ok"
	CacheResultError   CacheOpResult = "error"
)

// Metrics records operational counters for sync, cache, discovery and
// route invocation.
type Metrics interface {
	ObserveSyncFile(outcome SyncOutcome)
	ObserveFetch(kind FetchKind, duration time.Duration, err error)
	ObserveCacheOp(op CacheOp, result CacheOpResult)
	ObserveSearch(duration time.Duration, matches int)
	ObserveInvoke(namespace string, duration time.Duration, err error)
}
