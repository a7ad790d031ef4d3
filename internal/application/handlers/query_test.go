package handlers

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/mocks"
	"github.com/ersonp/jurisflow/internal/domain/ports"
	"github.com/ersonp/jurisflow/internal/domain/services"
)

func TestQueryHandler(t *testing.T) {
	entry := entities.TimelineEntry{
		ID:          "e1",
		CaseID:      "case-1",
		EventDate:   day0,
		Description: "Sentença de mérito proferida",
		Source:      entities.SourceEnriched,
		Version:     2,
		EnrichmentHistory: []entities.HistoryRecord{
			{Description: "Sentença proferida", Source: entities.SourceOfficial, Attribution: "official"},
		},
	}
	store := mocks.NewTimelineStore(entry)
	ledger := &mocks.CreditLedger{}
	require.NoError(t, ledger.Debit(t.Context(), "case-1", decimal.NewFromInt(2), "enrichment"))

	svc := newTestTimelineService(store, &mocks.TextGenerator{}, ledger)
	handler := NewQueryHandler(svc, nil, ledger)

	timeline, err := handler.Timeline(t.Context(), "case-1")
	require.NoError(t, err)
	assert.Len(t, timeline, 1)

	got, history, err := handler.History(t.Context(), "e1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	require.Len(t, history, 1)
	assert.Equal(t, "Sentença proferida", history[0].Description)

	_, _, err = handler.History(t.Context(), "nope")
	assert.ErrorIs(t, err, entities.ErrEntryNotFound)

	records, err := handler.Audit(t.Context(), "case-1", 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	spent, err := handler.Balance(t.Context(), "case-1")
	require.NoError(t, err)
	assert.True(t, spent.Equal(decimal.NewFromInt(2)))

	_, err = handler.Search(t.Context(), "case-1", "sentença", 5)
	assert.ErrorIs(t, err, ErrSearchDisabled)
}

func TestQueryHandler_Search(t *testing.T) {
	index := &mocks.TimelineIndex{Hits: []ports.ScoredEntry{{Entry: entities.TimelineEntry{ID: "e1"}, Score: 0.91}}}
	search := services.NewSearchService(&mocks.Embedder{EmbeddingResult: []float32{0.1, 0.2}}, index)
	handler := NewQueryHandler(nil, search, nil)

	hits, err := handler.Search(t.Context(), "case-1", "audiência", 0)

	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "e1", hits[0].Entry.ID)
	assert.Equal(t, "case-1", index.LastCaseID)
	assert.Equal(t, services.DefaultSearchLimit, index.LastSearchSize)
}

func TestQueryHandler_Balance_Error(t *testing.T) {
	handler := NewQueryHandler(nil, nil, &mocks.CreditLedger{Err: errors.New("locked")})

	_, err := handler.Balance(t.Context(), "case-1")

	assert.ErrorContains(t, err, "reading ledger")
}
