package main

import (
	"github.com/spf13/cobra"
)

type toolsArgs struct {
	source string
}

func newToolsCmd(opts *cliOptions) *cobra.Command {
	args := &toolsArgs{}
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools derived from mirrored schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, cleanup, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			tools, err := application.Tools(cmd.Context(), args.source)
			if err != nil {
				return err
			}
			return printTools(tools, opts.jsonOutput)
		},
	}
	cmd.Flags().StringVar(&args.source, "source", "", "limit the catalog to one source")
	return cmd
}
