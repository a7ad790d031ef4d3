package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ersonp/jurisflow/internal/application/handlers"
	"github.com/ersonp/jurisflow/internal/domain/services"
	"github.com/ersonp/jurisflow/internal/infrastructure/config"
	embedder "github.com/ersonp/jurisflow/internal/infrastructure/embedder/openai"
	llm "github.com/ersonp/jurisflow/internal/infrastructure/llm/openai"
	"github.com/ersonp/jurisflow/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/jurisflow/internal/infrastructure/vectordb/qdrant"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config        *config.Config
	BasePath      string
	IngestHandler *handlers.IngestHandler
	QueryHandler  *handlers.QueryHandler
	Location      *time.Location
	db            *sqlite.Repository
}

// depsOptions selects the optional collaborators a command needs.
type depsOptions struct {
	// generator wires the text-generation backend; commands that only read
	// timelines run without an API key.
	generator bool
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, opts depsOptions, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	settings, err := cfg.TimelineSettings()
	if err != nil {
		return err
	}
	backoff, err := cfg.RetryBackoff()
	if err != nil {
		return err
	}
	location, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg.SQLitePath(cwd))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	var engine *services.EnrichmentEngine
	if opts.generator {
		gen, err := llm.NewGenerator(cfg.LLM)
		if err != nil {
			return fmt.Errorf("creating text generator: %w", err)
		}
		engine = services.NewEnrichmentEngine(gen, db, settings, services.WithRetryBackoff(backoff))
	}

	timelineOpts := []services.TimelineOption{
		services.WithBatchConcurrency(cfg.Ingest.BatchConcurrency),
	}

	var search *services.SearchService
	if cfg.Qdrant.Enabled {
		repo, err := qdrant.NewRepository(cfg.Qdrant)
		if err != nil {
			return fmt.Errorf("creating qdrant repository: %w", err)
		}
		defer repo.Close()

		emb, err := embedder.NewEmbedder(cfg.Embedder)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
		if err := repo.EnsureCollection(ctx, emb.Dimensions()); err != nil {
			return fmt.Errorf("ensuring qdrant collection: %w", err)
		}

		search = services.NewSearchService(emb, repo)
		timelineOpts = append(timelineOpts, services.WithSearchIndex(search))
	} else {
		slog.Debug("Semantic search disabled")
	}

	orchestrator := services.NewOrchestrator(settings, engine)
	timeline := services.NewTimelineService(db, orchestrator, timelineOpts...)

	ingest := handlers.NewIngestHandler(timeline,
		handlers.WithConflictRetries(cfg.Ingest.ConflictRetries),
		handlers.WithLocation(location))

	deps := &Deps{
		Config:        cfg,
		BasePath:      cwd,
		IngestHandler: ingest,
		QueryHandler:  handlers.NewQueryHandler(timeline, search, db),
		Location:      location,
		db:            db,
	}

	return fn(deps)
}

// openDatabase opens the SQLite file, creating its directory if needed.
func openDatabase(path string) (*sqlite.Repository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqlite.NewRepository(config.SQLiteConfig{Path: path})
	if err != nil {
		return nil, fmt.Errorf("creating sqlite repository: %w", err)
	}
	return db, nil
}
