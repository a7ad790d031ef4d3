package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/ports"
)

// DefaultSearchLimit is the default number of results to return.
const DefaultSearchLimit = 10

// SearchService indexes timeline entries and answers semantic queries over them.
type SearchService struct {
	embedder ports.Embedder
	index    ports.TimelineIndex
}

// NewSearchService creates a new search service.
func NewSearchService(embedder ports.Embedder, index ports.TimelineIndex) *SearchService {
	return &SearchService{
		embedder: embedder,
		index:    index,
	}
}

// Index embeds an entry and stores it in the vector index.
func (s *SearchService) Index(ctx context.Context, entry entities.TimelineEntry) error {
	embedding, err := s.embedder.Embed(ctx, entryText(&entry))
	if err != nil {
		return fmt.Errorf("generating entry embedding: %w", err)
	}

	if err := s.index.Upsert(ctx, entry, embedding); err != nil {
		return fmt.Errorf("indexing entry: %w", err)
	}
	return nil
}

// Search finds the entries of a case semantically closest to query.
func (s *SearchService) Search(ctx context.Context, caseID, query string, limit int) ([]ports.ScoredEntry, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}

	hits, err := s.index.Search(ctx, caseID, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("searching timeline: %w", err)
	}
	return hits, nil
}

// entryText is the text embedded for an entry.
func entryText(entry *entities.TimelineEntry) string {
	if entry.EventType == "" {
		return entry.Description
	}
	return entry.EventType + ": " + entry.Description
}
