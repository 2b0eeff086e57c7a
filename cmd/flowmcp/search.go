package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <keyword>...",
		Short: "Rank catalog tools against one or more keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			application, cleanup, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := application.Search(cmd.Context(), strings.Join(positional, " "))
			if err != nil {
				return err
			}
			return printSearchResult(result, opts.jsonOutput)
		},
	}
	return cmd
}
