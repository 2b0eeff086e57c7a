package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/hashutil"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/store"
)

// A mirror sync touches many files in quick succession; rebuilds wait for
// this much quiet before running.
const defaultRebuildDebounce = 200 * time.Millisecond

// Snapshot is one immutable build of the catalog plus its alias index.
type Snapshot struct {
	Entries []domain.CatalogEntry
	Aliases domain.SharedAliasIndex
	ETag    string
	BuiltAt time.Time
}

// Provider keeps the current catalog snapshot and rebuilds it when the
// mirror changes on disk. Readers always see a complete snapshot; rebuilds
// swap atomically.
type Provider struct {
	logger     *zap.Logger
	builder    *Builder
	sources    *store.SourceDB
	mirrorRoot string

	state atomic.Value

	subsMu  sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int

	rebuildMu sync.Mutex
	watchOnce sync.Once
	watchCtx  context.Context
}

func NewProvider(ctx context.Context, logger *zap.Logger, builder *Builder, sources *store.SourceDB, mirrorRoot string) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	provider := &Provider{
		logger:     logger.Named("catalog_provider"),
		builder:    builder,
		sources:    sources,
		mirrorRoot: mirrorRoot,
		subs:       make(map[int]chan Snapshot),
		watchCtx:   ctx,
	}
	if err := provider.Rebuild(ctx); err != nil {
		return nil, err
	}
	return provider, nil
}

// Snapshot returns the current catalog build.
func (p *Provider) Snapshot() Snapshot {
	return p.state.Load().(Snapshot)
}

// Rebuild reloads sources and manifests from disk and swaps the snapshot.
// Unchanged catalogs (same etag) are not broadcast.
func (p *Provider) Rebuild(ctx context.Context) error {
	p.rebuildMu.Lock()
	defer p.rebuildMu.Unlock()

	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	sources, err := p.sources.List()
	if err != nil {
		return err
	}

	entries := p.builder.BuildCatalog(sources)
	next := Snapshot{
		Entries: entries,
		Aliases: p.builder.BuildAliasIndex(sources),
		ETag:    hashutil.CatalogETag(p.logger, entries),
		BuiltAt: time.Now(),
	}

	if prev, ok := p.state.Load().(Snapshot); ok && prev.ETag == next.ETag && prev.ETag != "" {
		return nil
	}
	p.state.Store(next)
	p.logger.Info("catalog rebuilt",
		zap.Int("tools", len(next.Entries)),
		zap.Int("shared_lists", len(next.Aliases)))
	p.broadcast(next)
	return nil
}

// Watch subscribes to snapshot swaps and starts the mirror watcher on
// first use. The channel drops updates rather than block a slow reader;
// consumers resync from Snapshot.
func (p *Provider) Watch(ctx context.Context) <-chan Snapshot {
	if ctx == nil {
		ctx = context.Background()
	}

	ch := make(chan Snapshot, 1)
	p.subsMu.Lock()
	p.nextSub++
	id := p.nextSub
	p.subs[id] = ch
	p.subsMu.Unlock()

	p.watchOnce.Do(func() {
		go p.runWatcher(p.watchCtx)
	})

	context.AfterFunc(ctx, func() {
		p.subsMu.Lock()
		delete(p.subs, id)
		p.subsMu.Unlock()
	})
	return ch
}

// broadcast delivers without blocking; sends happen under the lock, which
// is safe because every subscriber channel is buffered and never sent to
// elsewhere.
func (p *Provider) broadcast(snapshot Snapshot) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- snapshot:
		default:
		}
	}
}

// runWatcher translates mirror file events into debounced rebuild kicks.
func (p *Provider) runWatcher(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Warn("mirror watcher failed", zap.Error(err))
		return
	}
	defer watcher.Close()

	p.watchTree(watcher)

	kick := make(chan struct{}, 1)
	go p.rebuildAfterQuiet(ctx, kick)

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("mirror watcher error", zap.Error(err))
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				// New source or nested schema directories need their own
				// watch; fsnotify does not recurse.
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					p.watchDir(watcher, event.Name)
				}
			}
			if !shouldRebuildForPath(event.Name) {
				continue
			}
			select {
			case kick <- struct{}{}:
			default:
			}
		}
	}
}

// rebuildAfterQuiet runs one rebuild per burst of kicks, once the burst has
// been quiet for the debounce window.
func (p *Provider) rebuildAfterQuiet(ctx context.Context, kick <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-kick:
		}

		quiet := time.NewTimer(defaultRebuildDebounce)
	settle:
		for {
			select {
			case <-ctx.Done():
				quiet.Stop()
				return
			case <-kick:
				quiet.Reset(defaultRebuildDebounce)
			case <-quiet.C:
				break settle
			}
		}

		if err := p.Rebuild(ctx); err != nil {
			p.logger.Warn("catalog rebuild failed", zap.Error(err))
		}
	}
}

func (p *Provider) watchTree(watcher *fsnotify.Watcher) {
	walkErr := filepath.WalkDir(p.mirrorRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			p.watchDir(watcher, path)
		}
		return nil
	})
	if walkErr != nil {
		p.logger.Warn("mirror walk failed", zap.Error(walkErr))
	}
}

func (p *Provider) watchDir(watcher *fsnotify.Watcher, dir string) {
	if err := watcher.Add(dir); err != nil {
		p.logger.Debug("mirror watch add failed", zap.String("path", dir), zap.Error(err))
	}
}

func shouldRebuildForPath(path string) bool {
	if path == "" {
		return false
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		// Temp files from atomic writes settle via the rename event.
		return false
	}
	return strings.ToLower(filepath.Ext(base)) == ".json"
}
