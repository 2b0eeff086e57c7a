package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

// ServerOptions configure the operational listener that runs alongside the
// MCP gateway in serve mode.
type ServerOptions struct {
	Addr     string
	Registry prometheus.Gatherer
	Health   *HealthTracker
}

// ListenAndServe exposes /metrics and /healthz on opts.Addr until ctx is
// cancelled. The bind happens before this returns control to the server
// loop, so an occupied port fails fast instead of surfacing as a dead
// endpoint later.
func ListenAndServe(ctx context.Context, logger *zap.Logger, opts ServerOptions) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	addr := opts.Addr
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.DefaultGatherer
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		report := HealthReport{Status: "ok"}
		if opts.Health != nil {
			report = opts.Health.Report()
		}
		code := http.StatusOK
		if report.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
	})

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan error, 1)
	go func() { done <- server.Serve(listener) }()
	logger.Info("observability endpoints up", zap.String("addr", listener.Addr().String()))

	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("observability shutdown incomplete", zap.Error(err))
		return err
	}
	logger.Info("observability endpoints stopped")
	return nil
}
