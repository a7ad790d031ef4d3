// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/jurisflow/internal/infrastructure/config"
)

// SchemaEnsurer creates the relational schema.
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// CollectionEnsurer creates the vector collection used for semantic search.
type CollectionEnsurer interface {
	EnsureCollection(ctx context.Context, vectorSize uint64) error
}

// InitHandler handles workspace initialization.
type InitHandler struct {
	schema     SchemaEnsurer
	collection CollectionEnsurer
	vectorSize uint64
}

// NewInitHandler creates a new init handler. collection may be nil when
// semantic search is disabled.
func NewInitHandler(schema SchemaEnsurer, collection CollectionEnsurer, vectorSize uint64) *InitHandler {
	return &InitHandler{
		schema:     schema,
		collection: collection,
		vectorSize: vectorSize,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath     string
	DatabasePath   string
	CollectionName string
}

// Handle writes the default config and creates the storage schema.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("jurisflow already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := h.schema.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	result := &InitResult{
		ConfigPath:   config.ConfigFilePath(basePath),
		DatabasePath: cfg.SQLitePath(basePath),
	}

	if h.collection != nil {
		if err := h.collection.EnsureCollection(ctx, h.vectorSize); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
		result.CollectionName = cfg.Qdrant.Collection
	}

	return result, nil
}
