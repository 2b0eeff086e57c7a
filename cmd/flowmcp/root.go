package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/app"
)

type cliOptions struct {
	storeRoot  string
	configPath string
	jsonOutput bool
	verbose    bool
	logger     *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		logger: zap.NewNop(),
	}

	root := &cobra.Command{
		Use:           "flowmcp",
		Short:         "Mirror FlowMCP schema registries and call their routes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := app.NewCLILogger(opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			cmd.Flags().Visit(func(f *pflag.Flag) {
				logger.Debug("flag set", zap.String("name", f.Name), zap.String("value", f.Value.String()))
			})
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&opts.storeRoot, "store", "", "store root directory (default ~/.flowmcp)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default <store>/config.yaml)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print machine readable JSON")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		newImportCmd(&opts),
		newUpdateCmd(&opts),
		newSourcesCmd(&opts),
		newToolsCmd(&opts),
		newSearchCmd(&opts),
		newCallCmd(&opts),
		newCacheCmd(&opts),
		newPresetsCmd(&opts),
		newServeCmd(&opts),
		newVersionCmd(&opts),
	)

	return root
}

func buildApp(opts *cliOptions) (*app.App, func(), error) {
	return app.Build(app.BuildOptions{
		StoreRoot:  opts.storeRoot,
		ConfigPath: opts.configPath,
		Logger:     opts.logger,
	})
}
