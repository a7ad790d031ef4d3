package main

import (
	"github.com/spf13/cobra"

	"github.com/ersonp/jurisflow/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP ingestion and timeline API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			return withDeps(ctx, depsOptions{generator: true}, func(deps *Deps) error {
				shutdown, err := deps.Config.ShutdownTimeout()
				if err != nil {
					return err
				}
				if addr == "" {
					addr = deps.Config.Addr()
				}

				srv := server.New(server.Options{
					Addr:            addr,
					Mode:            deps.Config.Server.Mode,
					MaxBodyBytes:    int64(deps.Config.Server.MaxBodySizeMB) << 20,
					ShutdownTimeout: shutdown,
					Location:        deps.Location,
					DB:              deps.db,
					Ingest:          deps.IngestHandler,
					Query:           deps.QueryHandler,
				})
				return srv.Run(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	return cmd
}
