package main

import (
	"github.com/spf13/cobra"
)

func newVersionCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the flowmcp version",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return printVersion(opts.jsonOutput)
		},
	}
	return cmd
}
