package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

type PrometheusMetrics struct {
	syncFiles      *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	cacheOps       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	searchMatches  prometheus.Histogram
	invokeDuration *prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		syncFiles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmcp_sync_files_total",
				Help: "Total mirrored files by sync outcome",
			},
			[]string{"outcome"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowmcp_fetch_duration_seconds",
				Help:    "Duration of remote fetches in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"kind", "status"},
		),
		cacheOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowmcp_cache_ops_total",
				Help: "Total artifact cache operations by result",
			},
			[]string{"op", "result"},
		),
		searchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flowmcp_search_duration_seconds",
				Help:    "Duration of catalog searches in seconds",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25},
			},
		),
		searchMatches: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flowmcp_search_matches",
				Help:    "Matches per search before the result cap",
				Buckets: []float64{0, 1, 2, 5, 10, 15, 25, 50},
			},
		),
		invokeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowmcp_invoke_duration_seconds",
				Help:    "Duration of route invocations in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"namespace", "status"},
		),
	}
}

func (p *PrometheusMetrics) ObserveSyncFile(outcome domain.SyncOutcome) {
	p.syncFiles.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusMetrics) ObserveFetch(kind domain.FetchKind, duration time.Duration, err error) {
	p.fetchDuration.WithLabelValues(string(kind), statusLabel(err)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveCacheOp(op domain.CacheOp, result domain.CacheOpResult) {
	p.cacheOps.WithLabelValues(string(op), string(result)).Inc()
}

func (p *PrometheusMetrics) ObserveSearch(duration time.Duration, matches int) {
	p.searchDuration.Observe(duration.Seconds())
	p.searchMatches.Observe(float64(matches))
}

func (p *PrometheusMetrics) ObserveInvoke(namespace string, duration time.Duration, err error) {
	p.invokeDuration.WithLabelValues(namespace, statusLabel(err)).Observe(duration.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
