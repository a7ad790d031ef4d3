package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/jurisflow/internal/application/handlers"
	"github.com/ersonp/jurisflow/internal/infrastructure/config"
	embedder "github.com/ersonp/jurisflow/internal/infrastructure/embedder/openai"
	"github.com/ersonp/jurisflow/internal/infrastructure/vectordb/qdrant"
)

func newInitCmd() *cobra.Command {
	var withSearch bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new jurisflow workspace",
		Long:  "Creates a .jurisflow directory with default configuration and the SQLite timeline database.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, withSearch)
		},
	}

	cmd.Flags().BoolVar(&withSearch, "with-search", false, "Also create the Qdrant collection for semantic search")

	return cmd
}

func runInit(cmd *cobra.Command, withSearch bool) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if config.Exists(cwd) {
		return fmt.Errorf("jurisflow already initialized in %s", cwd)
	}

	defaults := config.Default()
	db, err := openDatabase(defaults.SQLitePath(cwd))
	if err != nil {
		return err
	}
	defer db.Close()

	var collection handlers.CollectionEnsurer
	var vectorSize uint64
	if withSearch {
		repo, err := qdrant.NewRepository(defaults.Qdrant)
		if err != nil {
			return fmt.Errorf("connecting to qdrant: %w", err)
		}
		defer repo.Close()
		collection = repo
		vectorSize = embedder.VectorSize
	}

	result, err := handlers.NewInitHandler(db, collection, vectorSize).Handle(ctx, cwd)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s\n", result.ConfigPath)
	fmt.Printf("Created database: %s\n", result.DatabasePath)
	if result.CollectionName != "" {
		fmt.Printf("Created Qdrant collection: %s (set qdrant.enabled: true to use it)\n", result.CollectionName)
	}
	fmt.Println("jurisflow initialized successfully!")

	return nil
}
