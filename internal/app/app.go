// Package app assembles the store, mirror, cache, discovery and execution
// layers into the operations the CLI exposes.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/cache"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/discovery"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/fsutil"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/gateway"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/mirror"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/registry"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/schema"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/store"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/telemetry"
)

// App is the assembled application. Construct it with Build; the returned
// cleanup closes the source database.
type App struct {
	logger       *zap.Logger
	cfg          domain.Config
	store        *store.Store
	sources      *store.SourceDB
	presets      []registry.Preset
	engine       *mirror.Engine
	cache        *cache.Cache
	executor     *schema.Executor
	builder      *discovery.Builder
	metrics      domain.Metrics
	registry     *prometheus.Registry
	health       *telemetry.HealthTracker
	serverParams map[string]string

	providerMu sync.Mutex
	provider   *discovery.Provider
}

// AppOptions captures the assembled dependencies for App.
type AppOptions struct {
	Logger       *zap.Logger
	Config       domain.Config
	Store        *store.Store
	Sources      *store.SourceDB
	Presets      []registry.Preset
	Engine       *mirror.Engine
	Cache        *cache.Cache
	Executor     *schema.Executor
	Builder      *discovery.Builder
	Metrics      domain.Metrics
	Registry     *prometheus.Registry
	Health       *telemetry.HealthTracker
	ServerParams map[string]string
}

// NewApp constructs the application from assembled dependencies.
func NewApp(opts AppOptions) *App {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &App{
		logger:       logger.Named("app"),
		cfg:          opts.Config,
		store:        opts.Store,
		sources:      opts.Sources,
		presets:      opts.Presets,
		engine:       opts.Engine,
		cache:        opts.Cache,
		executor:     opts.Executor,
		builder:      opts.Builder,
		metrics:      metrics,
		registry:     opts.Registry,
		health:       opts.Health,
		serverParams: opts.ServerParams,
	}
}

// ImportOptions configures one import run.
type ImportOptions struct {
	// Ref is a preset name, a manifest URL or a local path.
	Ref string
	// Name overrides the derived source name.
	Name string
	// Overwrite re-syncs an existing source and overwrites locally
	// changed files.
	Overwrite bool
}

// ImportResult pairs the sync report with the persisted source record.
type ImportResult struct {
	Source domain.Source      `json:"source"`
	Report *domain.SyncReport `json:"report"`
}

// Import creates a source from a preset name, URL or local path and
// synchronizes its mirror. Importing a name that already exists fails
// unless Overwrite is set; update is the command for refreshing.
func (a *App) Import(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	name, manifestRef, sourceType, err := a.resolveImportRef(opts.Ref, opts.Name)
	if err != nil {
		return nil, err
	}
	if !domain.ValidSourceName(name) {
		return nil, domain.E(domain.CodeInvalidArgument, "app.Import",
			fmt.Sprintf("invalid source name %q", name), domain.ErrInvalidSourceName).
			WithHint("source names are lowercase letters, digits, dots, dashes and underscores; pass --name to override the derived one")
	}

	existing, getErr := a.sources.Get(name)
	exists := getErr == nil
	if getErr != nil && !errors.Is(getErr, domain.ErrSourceNotFound) {
		return nil, getErr
	}
	if exists && !opts.Overwrite {
		return nil, domain.E(domain.CodeInvalidArgument, "app.Import",
			fmt.Sprintf("source %q already exists", name), domain.ErrSourceExists).
			WithHint(fmt.Sprintf("run `flowmcp update %s` to refresh it, or pass --overwrite to re-import", name))
	}

	report, err := a.engine.Synchronize(ctx, name, manifestRef, opts.Overwrite)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	record := domain.Source{
		Name:        name,
		Type:        sourceType,
		OriginURL:   manifestRef,
		SchemaCount: report.SchemaCount,
		ImportedAt:  now,
		UpdatedAt:   now,
	}
	if exists {
		record.ImportedAt = existing.ImportedAt
	}
	if err := a.sources.Put(record); err != nil {
		return nil, domain.Wrap(domain.CodeIOFailed, "app.Import", err)
	}

	a.logger.Info("source imported",
		zap.String("source", name),
		zap.String("type", string(sourceType)),
		zap.Int("schemas", record.SchemaCount))
	return &ImportResult{Source: record, Report: report}, nil
}

// resolveImportRef turns the user-supplied ref into a source name, a
// fetchable manifest ref and a source type. A bare word is tried as a
// preset name first, then as an existing local file.
func (a *App) resolveImportRef(ref, nameOverride string) (string, string, domain.SourceType, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", "", "", domain.E(domain.CodeInvalidArgument, "app.Import",
			"a preset name, manifest URL or local path is required", nil)
	}

	if looksLikePresetName(trimmed) {
		preset, err := registry.LookupPreset(a.presets, trimmed)
		if err == nil {
			name := trimmed
			if nameOverride != "" {
				name = nameOverride
			}
			return name, preset.URL, domain.SourceTypeBuiltin, nil
		}
		if !fsutil.FileExists(trimmed) {
			return "", "", "", domain.E(domain.CodeNotFound, "app.Import",
				fmt.Sprintf("unknown preset %q", trimmed), err).
				WithHint("pass a manifest URL or an existing local path, or add the preset to presets.toml")
		}
	}

	name := nameOverride
	if name == "" {
		name = deriveSourceName(trimmed)
	}
	return name, trimmed, registry.DetectSourceType(trimmed), nil
}

func looksLikePresetName(ref string) bool {
	if registry.IsRemoteRef(ref) || strings.HasPrefix(ref, "file://") {
		return false
	}
	return !strings.ContainsAny(ref, "/\\")
}

// Update refreshes one source, or every source when name is empty.
func (a *App) Update(ctx context.Context, name string) (*domain.UpdateReport, error) {
	return a.engine.Update(ctx, name)
}

// Sources lists the registered source records in name order.
func (a *App) Sources(ctx context.Context) ([]domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.sources.List()
}

// Tools builds the catalog, optionally narrowed to one source.
func (a *App) Tools(ctx context.Context, source string) ([]domain.CatalogEntry, error) {
	sources, err := a.catalogSources(ctx, source)
	if err != nil {
		return nil, err
	}
	return a.builder.BuildCatalog(sources), nil
}

// Search runs ranked discovery over the full catalog.
func (a *App) Search(ctx context.Context, query string) (domain.SearchResult, error) {
	sources, err := a.catalogSources(ctx, "")
	if err != nil {
		return domain.SearchResult{}, err
	}
	started := time.Now()
	result := discovery.Search(query, a.builder.BuildCatalog(sources), a.builder.BuildAliasIndex(sources))
	a.metrics.ObserveSearch(time.Since(started), result.TotalMatches)
	return result, nil
}

func (a *App) catalogSources(ctx context.Context, filter string) ([]domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if filter != "" {
		source, err := a.sources.Get(filter)
		if err != nil {
			return nil, domain.Wrap(domain.CodeNotFound, "app.catalog", err).
				WithHint("run `flowmcp sources` to list imported sources")
		}
		return []domain.Source{source}, nil
	}
	return a.sources.List()
}

// CallOptions configures one tool invocation.
type CallOptions struct {
	// Tool is a tool name, or the canonical "namespace.routeName" ref.
	Tool string
	// Params are the user-supplied route parameters.
	Params map[string]any
	// Refresh bypasses the cache read; the result is still written back.
	Refresh bool
	// TTLSeconds overrides the configured cache TTL when positive.
	TTLSeconds int
}

// CallResult is a cache-wrapped invocation outcome.
type CallResult struct {
	Tool      string               `json:"tool"`
	FromCache bool                 `json:"fromCache"`
	ExpiresAt time.Time            `json:"expiresAt,omitempty"`
	Result    *domain.InvokeResult `json:"result"`
}

// Call resolves a tool against the catalog and invokes its route through
// the cache. Cached data within its TTL is returned without touching the
// network; a successful fresh invocation replaces the cache entry.
func (a *App) Call(ctx context.Context, opts CallOptions) (*CallResult, error) {
	entry, err := a.findTool(ctx, opts.Tool)
	if err != nil {
		return nil, err
	}
	return a.invokeEntry(ctx, entry, opts.Params, opts.Refresh, opts.TTLSeconds)
}

func (a *App) findTool(ctx context.Context, tool string) (domain.CatalogEntry, error) {
	name := strings.TrimSpace(tool)
	if name == "" {
		return domain.CatalogEntry{}, domain.E(domain.CodeInvalidArgument, "app.Call",
			"tool name is required", nil)
	}
	entries, err := a.Tools(ctx, "")
	if err != nil {
		return domain.CatalogEntry{}, err
	}
	for _, entry := range entries {
		if entry.ToolName == name || entry.ToolRef == name {
			return entry, nil
		}
	}
	return domain.CatalogEntry{}, domain.E(domain.CodeNotFound, "app.Call",
		fmt.Sprintf("tool %q is not in the catalog", name), domain.ErrToolNotFound).
		WithHint(fmt.Sprintf("run `flowmcp search %s` to find the right tool name", name))
}

// invokeEntry is the shared cache-read, invoke, cache-write pipeline used
// by both the call command and the MCP gateway.
func (a *App) invokeEntry(ctx context.Context, entry domain.CatalogEntry, params map[string]any, refresh bool, ttlSeconds int) (*CallResult, error) {
	doc, err := a.loadSchemaDoc(entry.SchemaRef)
	if err != nil {
		return nil, err
	}

	key, err := cache.BuildKey(entry.Namespace, entry.RouteName, params)
	if err != nil {
		return nil, err
	}

	if !refresh {
		if hit, ok := a.cache.Read(key); ok && !hit.Expired {
			return &CallResult{
				Tool:      entry.ToolName,
				FromCache: true,
				ExpiresAt: hit.Meta.ExpiresAt,
				Result:    &domain.InvokeResult{OK: true, Data: hit.Data},
			}, nil
		}
	}

	result, err := a.executor.Invoke(ctx, doc, entry.RouteName, params, a.serverParams)
	if err != nil {
		return nil, err
	}

	out := &CallResult{Tool: entry.ToolName, Result: result}
	if result.OK {
		ttl := ttlSeconds
		if ttl <= 0 {
			ttl = a.cfg.CacheTTL()
		}
		meta, writeErr := a.cache.Write(key, result.Data, ttl)
		if writeErr != nil {
			// A failed cache write must not fail a successful call.
			a.logger.Warn("cache write failed", zap.String("key", key), zap.Error(writeErr))
		} else {
			out.ExpiresAt = meta.ExpiresAt
		}
	}
	return out, nil
}

// loadSchemaDoc resolves a catalog SchemaRef ("source/file") to its
// mirrored document.
func (a *App) loadSchemaDoc(schemaRef string) (*domain.SchemaDoc, error) {
	source, file, ok := strings.Cut(schemaRef, "/")
	if !ok {
		return nil, domain.E(domain.CodeInternal, "app.loadSchema",
			fmt.Sprintf("malformed schema ref %q", schemaRef), nil)
	}
	path, err := a.store.SchemaFilePath(source, file)
	if err != nil {
		return nil, err
	}
	return schema.Load(path)
}

// CacheStatus walks the cache tree.
func (a *App) CacheStatus(ctx context.Context) (*domain.CacheStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.cache.Status()
}

// CacheClear drops one namespace, or the whole cache when namespace is
// empty.
func (a *App) CacheClear(ctx context.Context, namespace string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.cache.Clear(namespace)
}

// ServeOptions configures serve mode.
type ServeOptions struct {
	// MetricsAddr overrides the configured observability listen address.
	MetricsAddr string
	// EnableMetrics starts the /metrics and /healthz listener.
	EnableMetrics bool
}

// Serve exposes the catalog as MCP tools over stdio until ctx is done.
// The mirror is watched for changes so imports from another terminal show
// up without a restart.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	provider, err := a.catalogProvider(ctx)
	if err != nil {
		return err
	}

	if opts.EnableMetrics {
		addr := opts.MetricsAddr
		if addr == "" {
			addr = a.cfg.Observability.ListenAddress
		}
		go func() {
			serveErr := telemetry.ListenAndServe(ctx, a.logger, telemetry.ServerOptions{
				Addr:     addr,
				Registry: a.registry,
				Health:   a.health,
			})
			if serveErr != nil {
				a.logger.Warn("observability server failed", zap.Error(serveErr))
			}
		}()
	}

	gw := gateway.New(a.logger, provider, &catalogBackend{app: a}, a.metrics)
	return gw.Run(ctx)
}

func (a *App) catalogProvider(ctx context.Context) (*discovery.Provider, error) {
	a.providerMu.Lock()
	defer a.providerMu.Unlock()
	if a.provider != nil {
		return a.provider, nil
	}
	provider, err := discovery.NewProvider(ctx, a.logger, a.builder, a.sources, a.store.MirrorRoot())
	if err != nil {
		return nil, err
	}
	a.provider = provider
	return provider, nil
}

// Presets returns the merged builtin and user preset list, name-sorted.
func (a *App) Presets() []registry.Preset {
	out := make([]registry.Preset, len(a.presets))
	copy(out, a.presets)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Store exposes the store handle for path reporting.
func (a *App) Store() *store.Store {
	return a.store
}

func deriveSourceName(ref string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(ref), "/")
	base := trimmed
	if idx := strings.LastIndexAny(base, "/\\"); idx >= 0 {
		base = base[idx+1:]
	}
	for _, suffix := range []string{".json", ".yaml", ".yml"} {
		base = strings.TrimSuffix(base, suffix)
	}
	base = strings.ToLower(base)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), ".-_")
}
