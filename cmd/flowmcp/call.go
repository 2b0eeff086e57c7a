package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FlowMCP/flowmcp-cli-sub000/internal/app"
)

type callArgs struct {
	params     []string
	refresh    bool
	ttlSeconds int
}

func newCallCmd(opts *cliOptions) *cobra.Command {
	args := &callArgs{}
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke a tool's route through the response cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			params, err := parseParams(args.params)
			if err != nil {
				return err
			}

			application, cleanup, err := buildApp(opts)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := application.Call(cmd.Context(), app.CallOptions{
				Tool:       positional[0],
				Params:     params,
				Refresh:    args.refresh,
				TTLSeconds: args.ttlSeconds,
			})
			if err != nil {
				return err
			}
			if err := printCallResult(result, opts.jsonOutput); err != nil {
				return err
			}
			if !result.Result.OK {
				return exitSilent(1)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&args.params, "param", nil, "route parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&args.refresh, "refresh", false, "bypass the cache read and refetch")
	cmd.Flags().IntVar(&args.ttlSeconds, "ttl", 0, "cache TTL for this call in seconds (default from config)")
	return cmd
}

func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", pair)
		}
		params[strings.TrimSpace(key)] = value
	}
	return params, nil
}
