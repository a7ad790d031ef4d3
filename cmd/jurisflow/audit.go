package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAuditCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "audit <case-id>",
		Short: "Show recent merge decisions for a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, depsOptions{}, func(deps *Deps) error {
				records, err := deps.QueryHandler.Audit(ctx, args[0], limit)
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Printf("No merge decisions for case %s\n", args[0])
					return nil
				}

				tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tWHEN\tCLASSIFICATION\tACTION\tSCORE\tENRICHMENT\tCOST\tENTRY")
				for _, r := range records {
					score := "-"
					if r.BestScore != nil {
						score = fmt.Sprintf("%.2f", *r.BestScore)
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Classification, r.Action,
						score, r.Enrichment, r.CreditCost.String(), shortID(r.EntryID))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultAuditLimit, "Maximum number of records to show")

	return cmd
}
