package main

import (
	"github.com/spf13/cobra"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/app"
)

type importArgs struct {
	name      string
	overwrite bool
}

func newImportCmd(opts *cliOptions) *cobra.Command {
	args := &importArgs{}
	cmd := &cobra.Command{
		Use:   "import <preset|url|path>",
		Short: "Import a schema source and mirror its files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			application, cleanup, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := application.Import(cmd.Context(), app.ImportOptions{
				Ref:       positional[0],
				Name:      args.name,
				Overwrite: args.overwrite,
			})
			if err != nil {
				return err
			}
			if err := printImportResult(result, opts.jsonOutput); err != nil {
				return err
			}
			if result.Report.Failed > 0 {
				return exitSilent(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&args.name, "name", "", "source name (default derived from the reference)")
	cmd.Flags().BoolVar(&args.overwrite, "overwrite", false, "re-import an existing source and overwrite local changes")
	return cmd
}
