package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the response cache",
	}
	cmd.AddCommand(
		newCacheStatusCmd(opts),
		newCacheClearCmd(opts),
	)
	return cmd
}

func newCacheStatusCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize cached responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, cleanup, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			status, err := application.CacheStatus(cmd.Context())
			if err != nil {
				return err
			}
			return printCacheStatus(status, opts.jsonOutput)
		},
	}
	return cmd
}

func newCacheClearCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear [namespace]",
		Short: "Drop cached responses, all of them or one namespace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			application, cleanup, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			scope := ""
			if len(positional) > 0 {
				scope = positional[0]
			}
			if err := application.CacheClear(cmd.Context(), scope); err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(map[string]string{"cleared": scopeLabel(scope)})
			}
			fmt.Printf("cleared %s\n", scopeLabel(scope))
			return nil
		},
	}
	return cmd
}

func scopeLabel(scope string) string {
	if scope == "" {
		return "all"
	}
	return scope
}
