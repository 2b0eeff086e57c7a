package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/app"
)

type serveArgs struct {
	metricsAddr   string
	enableMetrics bool
}

func newServeCmd(opts *cliOptions) *cobra.Command {
	args := &serveArgs{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the catalog as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, cleanup, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			return application.Serve(ctx, app.ServeOptions{
				MetricsAddr:   args.metricsAddr,
				EnableMetrics: args.enableMetrics,
			})
		},
	}
	cmd.Flags().BoolVar(&args.enableMetrics, "metrics", false, "serve /metrics and /healthz over HTTP")
	cmd.Flags().StringVar(&args.metricsAddr, "metrics-addr", "", "observability listen address (default from config)")
	return cmd
}
