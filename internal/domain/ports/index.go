package ports

import (
	"context"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

// TimelineIndex is a vector index over timeline entry descriptions.
type TimelineIndex interface {
	// Upsert stores or replaces the vector for an entry.
	Upsert(ctx context.Context, entry entities.TimelineEntry, embedding []float32) error

	// Search returns the entries of a case closest to the embedding.
	Search(ctx context.Context, caseID string, embedding []float32, limit int) ([]ScoredEntry, error)
}

// ScoredEntry is a search hit.
type ScoredEntry struct {
	Entry entities.TimelineEntry `json:"entry"`
	Score float32                `json:"score"`
}
