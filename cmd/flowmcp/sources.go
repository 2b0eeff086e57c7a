package main

import (
	"github.com/spf13/cobra"
)

func newSourcesCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List imported schema sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, cleanup, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			sources, err := application.Sources(cmd.Context())
			if err != nil {
				return err
			}
			return printSources(sources, opts.jsonOutput)
		},
	}
	return cmd
}
