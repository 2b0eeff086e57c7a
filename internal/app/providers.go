package app

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/cache"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/config"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/discovery"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/envutil"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/mirror"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/registry"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/schema"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/store"
	"github.com/FlowMCP/flowmcp-cli-sub000/internal/infra/telemetry"
)

// BuildOptions selects the store root and config file for one run.
type BuildOptions struct {
	// StoreRoot is the store base directory; empty means ~/.flowmcp.
	StoreRoot string
	// ConfigPath overrides <store>/config.yaml.
	ConfigPath string
	Logger     *zap.Logger
}

func NewStore(opts BuildOptions) (*store.Store, error) {
	return store.Open(opts.StoreRoot)
}

func NewSourceDB(st *store.Store) (*store.SourceDB, error) {
	return store.OpenSourceDB(st.SourcesDBPath())
}

func NewConfig(logger *zap.Logger, st *store.Store, opts BuildOptions) (domain.Config, error) {
	path := opts.ConfigPath
	if path == "" {
		path = st.ConfigPath()
	}
	return config.New(logger).Load(path)
}

func NewPresets(st *store.Store) ([]registry.Preset, error) {
	return registry.LoadPresets(st.PresetsPath())
}

func NewMetricsRegistry() *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	promRegistry.MustRegister(prometheus.NewGoCollector())
	return promRegistry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

func NewFetcher(logger *zap.Logger, cfg domain.Config) *registry.Fetcher {
	return registry.NewFetcher(logger, cfg.FetchTimeout())
}

func NewEngine(logger *zap.Logger, st *store.Store, sources *store.SourceDB, fetcher *registry.Fetcher, metrics domain.Metrics) *mirror.Engine {
	return mirror.NewEngine(logger, st, sources, fetcher, metrics)
}

func NewCache(logger *zap.Logger, st *store.Store, metrics domain.Metrics) *cache.Cache {
	return cache.New(logger, st.CacheRoot(), metrics)
}

func NewExecutor(logger *zap.Logger, cfg domain.Config, metrics domain.Metrics) *schema.Executor {
	return schema.NewExecutor(logger, cfg.InvokeTimeout(), metrics)
}

func NewBuilder(logger *zap.Logger, st *store.Store) *discovery.Builder {
	return discovery.NewBuilder(logger, st)
}

// NewServerParams layers FLOWMCP_<NAME> environment overrides over the
// configured serverParams.
func NewServerParams(cfg domain.Config) map[string]string {
	return envutil.MergeServerParams(cfg.ServerParams, envutil.ServerParamOverrides(os.Environ()))
}

// Build assembles the application against a store root. The returned
// cleanup closes the source database and must run when the operation
// finishes.
func Build(opts BuildOptions) (*App, func(), error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	st, err := NewStore(opts)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := NewConfig(logger, st, opts)
	if err != nil {
		return nil, nil, err
	}
	presets, err := NewPresets(st)
	if err != nil {
		return nil, nil, err
	}
	sources, err := NewSourceDB(st)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if closeErr := sources.Close(); closeErr != nil {
			logger.Warn("close source db", zap.Error(closeErr))
		}
	}

	promRegistry := NewMetricsRegistry()
	metrics := NewMetrics(promRegistry)
	fetcher := NewFetcher(logger, cfg)

	application := NewApp(AppOptions{
		Logger:       logger,
		Config:       cfg,
		Store:        st,
		Sources:      sources,
		Presets:      presets,
		Engine:       NewEngine(logger, st, sources, fetcher, metrics),
		Cache:        NewCache(logger, st, metrics),
		Executor:     NewExecutor(logger, cfg, metrics),
		Builder:      NewBuilder(logger, st),
		Metrics:      metrics,
		Registry:     promRegistry,
		Health:       NewHealthTracker(),
		ServerParams: NewServerParams(cfg),
	})
	return application, cleanup, nil
}
