package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreditsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "credits <case-id>",
		Short: "Show credits spent on enrichment for a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, depsOptions{}, func(deps *Deps) error {
				spent, err := deps.QueryHandler.Balance(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("Case %s: %s credits spent on enrichment\n", args[0], spent.String())
				return nil
			})
		},
	}
}
