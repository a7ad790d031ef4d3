package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ersonp/jurisflow/internal/application/handlers"
	"github.com/ersonp/jurisflow/internal/infrastructure/watcher"
)

type watchFlags struct {
	pattern string
	caseID  string
	scan    bool
}

func newWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Ingest observation files as they arrive in an inbox directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.pattern, "pattern", "p", "", "Glob of files to ingest (default from config)")
	cmd.Flags().StringVarP(&flags.caseID, "case", "c", "", "Case id for records that do not carry one")
	cmd.Flags().BoolVar(&flags.scan, "scan", false, "Ingest files already in the directory on start")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, flags watchFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, depsOptions{generator: true}, func(deps *Deps) error {
		pattern := flags.pattern
		if pattern == "" {
			pattern = deps.Config.Ingest.Pattern
		}

		opts := handlers.IngestOptions{DefaultCaseID: flags.caseID}
		handle := func(ctx context.Context, path string) error {
			result, err := deps.IngestHandler.HandleFile(ctx, path, opts)
			if err != nil {
				return err
			}
			printIngestResult(result)
			return nil
		}

		watchOpts := []watcher.Option{watcher.WithLogger(slog.Default())}
		if flags.scan {
			watchOpts = append(watchOpts, watcher.WithInitialScan())
		}

		w, err := watcher.New(dir, pattern, handle, watchOpts...)
		if err != nil {
			return err
		}

		fmt.Printf("Watching %s for %s (Ctrl+C to stop)\n", dir, pattern)
		return w.Run(ctx)
	})
}
