package telemetry

import (
	"time"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveSyncFile(_ domain.SyncOutcome) {}

func (n *NoopMetrics) ObserveFetch(_ domain.FetchKind, _ time.Duration, _ error) {}

func (n *NoopMetrics) ObserveCacheOp(_ domain.CacheOp, _ domain.CacheOpResult) {}

func (n *NoopMetrics) ObserveSearch(_ time.Duration, _ int) {}

func (n *NoopMetrics) ObserveInvoke(_ string, _ time.Duration, _ error) {}

var _ domain.Metrics = (*NoopMetrics)(nil)
