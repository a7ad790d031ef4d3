package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <case-id> <query>",
		Short: "Search a case timeline by meaning",
		Long:  "Finds timeline entries semantically close to the query. Requires qdrant.enabled in config.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			query := strings.Join(args[1:], " ")

			return withDeps(ctx, depsOptions{}, func(deps *Deps) error {
				hits, err := deps.QueryHandler.Search(ctx, args[0], query, limit)
				if err != nil {
					return err
				}
				if len(hits) == 0 {
					fmt.Println("No matching entries.")
					return nil
				}
				for i, h := range hits {
					fmt.Printf("%d. [%.2f] %s %s\n", i+1, h.Score, h.Entry.EventDate.Format("2006-01-02"), h.Entry.Description)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultSearchLimit, "Maximum number of results")

	return cmd
}
