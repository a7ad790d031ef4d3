package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/mocks"
	"github.com/ersonp/jurisflow/internal/domain/services"
	"github.com/ersonp/jurisflow/internal/infrastructure/config"
)

// TestTimelineIntegration_FileDatabase runs the merge pipeline against a real
// database file, then reopens it to check what was persisted.
func TestTimelineIntegration_FileDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "jurisflow.db")
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	repo, err := NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	require.NoError(t, repo.EnsureSchema(ctx))

	_, err = os.Stat(dbPath)
	require.NoError(t, err, "database file should exist")

	cfg := entities.DefaultTimelineConfig()
	gen := &mocks.TextGenerator{Response: "Despacho judicial determinando nova data de audiência de instrução para 15/04/2024"}
	engine := services.NewEnrichmentEngine(gen, repo, cfg, services.WithRetryBackoff(0))
	svc := services.NewTimelineService(repo, services.NewOrchestrator(cfg, engine))

	official := entities.EventObservation{
		CaseID:      "case-1",
		EventDate:   day,
		EventType:   "Despacho",
		Description: "Despacho judicial determinando nova data",
		Source:      entities.SourceOfficial,
	}
	created, err := svc.Ingest(ctx, official)
	require.NoError(t, err)
	require.Equal(t, entities.ActionCreate, created.Action)

	dup, err := svc.Ingest(ctx, official)
	require.NoError(t, err)
	assert.Equal(t, entities.ActionNoop, dup.Action)

	document := entities.EventObservation{
		CaseID:             "case-1",
		EventDate:          day.AddDate(0, 0, 1),
		EventType:          "Despacho",
		Description:        "Despacho judicial determinando nova data de audiência",
		ContextualText:     "Audiência de instrução designada para 15/04/2024",
		SourceDocumentName: "decisao.pdf",
		Source:             entities.SourceDocument,
	}
	enriched, err := svc.Ingest(ctx, document)
	require.NoError(t, err)
	require.Equal(t, entities.ActionUpdate, enriched.Action)
	assert.Equal(t, 2, enriched.Entry.Version)

	require.NoError(t, repo.Close())

	// Reopen and verify persistence.
	repo2, err := NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	defer repo2.Close()

	entries, err := repo2.ListEntries(ctx, "case-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, created.Entry.ID, entry.ID)
	assert.Equal(t, entities.SourceEnriched, entry.Source)
	assert.Equal(t, gen.Response, entry.Description)
	assert.Equal(t, 2, entry.Version)
	assert.Equal(t, "2024-03-01", entry.EventDate.Format("2006-01-02"), "calendar date keeps its offset")
	require.Len(t, entry.EnrichmentHistory, 1)
	assert.Equal(t, official.Description, entry.EnrichmentHistory[0].Description)
	assert.Equal(t, "decisao.pdf", entry.EnrichmentHistory[0].Attribution)

	records, err := repo2.ListAudit(ctx, "case-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, entities.ClassEnrichment, records[0].Classification)
	assert.True(t, records[0].CreditCost.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, entities.ClassDuplicate, records[1].Classification)
	assert.Equal(t, entities.ClassNew, records[2].Classification)
	assert.Nil(t, records[2].BestScore)

	spent, err := repo2.Balance(ctx, "case-1")
	require.NoError(t, err)
	assert.True(t, spent.Equal(decimal.NewFromInt(1)))
}

// TestTimelineIntegration_StaleWriter checks that two writers sharing a
// database file cannot silently overwrite each other.
func TestTimelineIntegration_StaleWriter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "jurisflow.db")
	ctx := context.Background()

	first, err := NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	defer first.Close()
	require.NoError(t, first.EnsureSchema(ctx))

	second, err := NewRepository(config.SQLiteConfig{Path: dbPath})
	require.NoError(t, err)
	defer second.Close()

	entry := &entities.TimelineEntry{
		ID:          "e1",
		CaseID:      "case-1",
		EventDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description: "Juntada de Petição",
		Source:      entities.SourceOfficial,
		Version:     1,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, first.CreateEntry(ctx, entry, nil))

	a, err := first.FindEntry(ctx, "e1")
	require.NoError(t, err)
	b, err := second.FindEntry(ctx, "e1")
	require.NoError(t, err)

	a.Description = "Juntada de Petição inicial"
	require.NoError(t, first.UpdateEntry(ctx, a, nil))

	b.Description = "Juntada de Petição intermediária"
	err = second.UpdateEntry(ctx, b, nil)
	assert.ErrorIs(t, err, entities.ErrPersistenceConflict)

	got, err := second.FindEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Juntada de Petição inicial", got.Description)
}
