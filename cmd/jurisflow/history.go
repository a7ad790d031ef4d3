package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <entry-id>",
		Short: "Show how an entry's description changed through enrichment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, depsOptions{}, func(deps *Deps) error {
				entry, history, err := deps.QueryHandler.History(ctx, args[0])
				if err != nil {
					return err
				}

				fmt.Printf("Entry %s (case %s, %s, version %d)\n",
					entry.ID, entry.CaseID, entry.EventDate.Format("2006-01-02"), entry.Version)
				fmt.Printf("Current [%s]: %s\n", entry.Source, entry.Description)

				if len(history) == 0 {
					fmt.Println("No previous descriptions.")
					return nil
				}

				fmt.Println("\nPrevious descriptions (oldest first):")
				for i, h := range history {
					fmt.Printf("  %d. %s [%s] %s\n", i+1, h.RecordedAt.Format("2006-01-02 15:04"), h.Source, h.Description)
					if h.Attribution != "" {
						fmt.Printf("     replaced using %s\n", h.Attribution)
					}
				}
				return nil
			})
		},
	}
}
