package main

import (
	"github.com/spf13/cobra"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/domain"
)

func newUpdateCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [source]",
		Short: "Re-sync one source, or all sources when none is named",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			application, cleanup, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			name := ""
			if len(positional) > 0 {
				name = positional[0]
			}
			report, err := application.Update(cmd.Context(), name)
			if err != nil {
				return err
			}
			if err := printUpdateReport(report, opts.jsonOutput); err != nil {
				return err
			}
			if updateFailed(report) {
				return exitSilent(1)
			}
			return nil
		},
	}
	return cmd
}

// updateFailed covers both per-file failures and manifest-level errors,
// which carry no file count.
func updateFailed(report *domain.UpdateReport) bool {
	if report.TotalFailed() > 0 {
		return true
	}
	for i := range report.Reports {
		if len(report.Reports[i].Errors) > 0 {
			return true
		}
	}
	return false
}
