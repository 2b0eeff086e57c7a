package main

import (
	"github.com/spf13/cobra"
)

func newPresetsCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List builtin and user-defined registry presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, cleanup, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			return printPresets(application.Presets(), opts.jsonOutput)
		},
	}
	return cmd
}
