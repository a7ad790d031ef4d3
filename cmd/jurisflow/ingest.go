package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/jurisflow/internal/application/handlers"
)

type ingestFlags struct {
	format  string
	caseID  string
	pattern string
}

func newIngestCmd() *cobra.Command {
	var flags ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest <file|dir>",
		Short: "Merge observations from JSON or CSV files into case timelines",
		Long: "Reads event observations from a file or every matching file in a directory, " +
			"classifies each one against its case timeline and stores the result.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "Input format (json, csv, auto)")
	cmd.Flags().StringVarP(&flags.caseID, "case", "c", "", "Case id for records that do not carry one")
	cmd.Flags().StringVarP(&flags.pattern, "pattern", "p", "", "Glob for directory ingestion (default from config)")

	return cmd
}

func runIngest(cmd *cobra.Command, path string, flags ingestFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, depsOptions{generator: true}, func(deps *Deps) error {
		opts := handlers.IngestOptions{Format: flags.format, DefaultCaseID: flags.caseID}

		if !handlers.IsDirectory(path) {
			result, err := deps.IngestHandler.HandleFile(ctx, path, opts)
			if err != nil {
				return fmt.Errorf("ingesting file: %w", err)
			}
			printIngestResult(result)
			return nil
		}

		pattern := flags.pattern
		if pattern == "" {
			pattern = deps.Config.Ingest.Pattern
		}

		batch, err := deps.IngestHandler.HandleDirectory(ctx, path, pattern, func(file string) {
			fmt.Printf("Ingesting %s...\n", file)
		}, opts)
		if err != nil {
			return err
		}

		for _, result := range batch.FileResults {
			printIngestResult(result)
		}
		for _, err := range batch.Errors {
			fmt.Printf("  error: %v\n", err)
		}
		fmt.Printf("\n%d files, %d observations\n", batch.TotalFiles, batch.Observations)
		return nil
	})
}

func printIngestResult(r *handlers.IngestResult) {
	fmt.Printf("%s: %d observations, %d created, %d related, %d enriched, %d unchanged, %s credits\n",
		r.FilePath, r.Observations, r.Created, r.Siblings, r.Enriched, r.Unchanged, r.Credits.String())
	for _, e := range r.Errors {
		fmt.Printf("  %v\n", e)
	}
}
