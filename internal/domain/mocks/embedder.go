package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/ports"
)

// Embedder is a mock implementation of ports.Embedder.
type Embedder struct {
	EmbeddingResult []float32
	Err             error
}

// Embed returns the configured embedding or error.
func (m *Embedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.EmbeddingResult, nil
}

// Dimensions returns the length of the configured embedding.
func (m *Embedder) Dimensions() uint64 {
	return uint64(len(m.EmbeddingResult))
}

// TimelineIndex is a mock implementation of ports.TimelineIndex.
type TimelineIndex struct {
	mu        sync.Mutex
	Hits      []ports.ScoredEntry
	UpsertErr error
	SearchErr error

	// Call tracking
	Upserted       []entities.TimelineEntry
	LastCaseID     string
	LastSearchSize int
}

// Upsert records the entry.
func (m *TimelineIndex) Upsert(_ context.Context, entry entities.TimelineEntry, _ []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.Upserted = append(m.Upserted, entry)
	return nil
}

// Search returns the configured hits.
func (m *TimelineIndex) Search(_ context.Context, caseID string, _ []float32, limit int) ([]ports.ScoredEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastCaseID = caseID
	m.LastSearchSize = limit
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.Hits, nil
}
