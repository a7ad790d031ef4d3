package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/mocks"
)

var mergeNow = time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

func newTestOrchestrator(gen *mocks.TextGenerator, ledger *mocks.CreditLedger) *Orchestrator {
	cfg := testConfig()
	seq := 0
	return NewOrchestrator(cfg, newTestEngine(gen, ledger, cfg),
		WithClock(func() time.Time { return mergeNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("new-%d", seq)
		}))
}

func TestOrchestrator_Merge_New(t *testing.T) {
	gen := &mocks.TextGenerator{}
	o := newTestOrchestrator(gen, &mocks.CreditLedger{})
	obs := testObservation("Juntada de Petição", day0)
	obs.Source = entities.SourceDocument

	result, err := o.Merge(context.Background(), obs, nil)
	require.NoError(t, err)

	assert.Equal(t, entities.ActionCreate, result.Action)
	require.NotNil(t, result.Entry)
	assert.Equal(t, "new-1", result.Entry.ID)
	assert.Equal(t, 1, result.Entry.Version)
	assert.Equal(t, entities.SourceDocument, result.Entry.Source)
	assert.Equal(t, mergeNow, result.Entry.CreatedAt)
	require.Len(t, result.Timeline, 1)
	assert.Nil(t, result.Enrichment)

	audit := result.Audit
	assert.Equal(t, entities.ClassNew, audit.Classification)
	assert.Equal(t, entities.ActionCreate, audit.Action)
	assert.Equal(t, "new-1", audit.EntryID)
	assert.Empty(t, audit.MatchedEntryID)
	assert.Nil(t, audit.BestScore)
	assert.Equal(t, entities.EnrichmentSkipped, audit.Enrichment)
	assert.True(t, audit.CreditCost.IsZero())
	assert.Equal(t, 0, gen.CallCount())
}

func TestOrchestrator_Merge_Duplicate(t *testing.T) {
	gen := &mocks.TextGenerator{Response: enrichResponse}
	o := newTestOrchestrator(gen, &mocks.CreditLedger{})
	timeline := []entities.TimelineEntry{testEntry("e1", "Juntada de Petição", day0)}

	result, err := o.Merge(context.Background(), testObservation("JUNTADA DE PETIÇÃO", day0), timeline)
	require.NoError(t, err)

	assert.Equal(t, entities.ActionNoop, result.Action)
	assert.Nil(t, result.Entry)
	assert.Equal(t, timeline, result.Timeline)
	assert.Equal(t, entities.ClassDuplicate, result.Audit.Classification)
	assert.Equal(t, "e1", result.Audit.EntryID)
	require.NotNil(t, result.Audit.BestScore)
	assert.Equal(t, float64(1), *result.Audit.BestScore)
	assert.Equal(t, 0, gen.CallCount())
}

func TestOrchestrator_Merge_Related(t *testing.T) {
	o := newTestOrchestrator(&mocks.TextGenerator{}, &mocks.CreditLedger{})
	timeline := []entities.TimelineEntry{testEntry("e1", "Audiência de conciliação designada", day0)}

	result, err := o.Merge(context.Background(), testObservation("Audiência de conciliação realizada", day0.AddDate(0, 0, 20)), timeline)
	require.NoError(t, err)

	assert.Equal(t, entities.ActionCreateSibling, result.Action)
	require.NotNil(t, result.Entry)
	assert.Equal(t, "e1", result.Entry.RelatedEntryID)
	assert.Len(t, result.Timeline, 2)
	assert.Equal(t, "e1", result.Audit.MatchedEntryID)
	assert.Equal(t, result.Entry.ID, result.Audit.EntryID)
}

func TestOrchestrator_Merge_Enrichment(t *testing.T) {
	gen := &mocks.TextGenerator{Response: enrichResponse}
	ledger := &mocks.CreditLedger{}
	o := newTestOrchestrator(gen, ledger)

	base := testEntry("e1", enrichBase, day0)
	base.EventType = "Despacho"
	timeline := []entities.TimelineEntry{base, testEntry("e0", "Petição inicial protocolada", day0.AddDate(0, 0, -30))}

	obs := testObservation("Despacho judicial determinando nova data de audiência", day0)
	obs.EventType = "Decisão"
	obs.Source = entities.SourceDocument
	obs.ContextualText = enrichContext
	obs.SourceDocumentName = "decisao.pdf"

	result, err := o.Merge(context.Background(), obs, timeline)
	require.NoError(t, err)

	assert.Equal(t, entities.ClassEnrichment, result.Classification.Kind)
	assert.Equal(t, entities.ActionUpdate, result.Action)
	require.NotNil(t, result.Entry)

	updated := result.Entry
	assert.Equal(t, "e1", updated.ID)
	assert.Equal(t, enrichResponse, updated.Description)
	assert.Equal(t, entities.SourceEnriched, updated.Source)
	assert.Equal(t, "Despacho", updated.EventType, "event type is never overridden")
	assert.Equal(t, mergeNow, updated.UpdatedAt)
	require.Len(t, updated.EnrichmentHistory, 1)
	assert.Equal(t, entities.HistoryRecord{
		Description: enrichBase,
		Source:      entities.SourceOfficial,
		Attribution: "decisao.pdf",
		RecordedAt:  mergeNow,
	}, updated.EnrichmentHistory[0])

	require.Len(t, result.Timeline, 2)
	assert.Equal(t, "e0", result.Timeline[0].ID)
	assert.Equal(t, enrichResponse, result.Timeline[1].Description)

	assert.Equal(t, entities.EnrichmentChanged, result.Audit.Enrichment)
	assert.True(t, result.Audit.CreditCost.Equal(testConfig().EnrichmentCreditCost))
	assert.Equal(t, 1, ledger.DebitCount())

	require.Len(t, gen.Prompts, 1)
	assert.Contains(t, gen.Prompts[0], "Despacho judicial determinando nova data de audiência")
	assert.Contains(t, gen.Prompts[0], enrichContext)

	assert.Equal(t, enrichBase, timeline[0].Description, "input timeline must not change")
	assert.Empty(t, timeline[0].EnrichmentHistory)
}

func TestOrchestrator_Merge_EnrichesShortOfficialEntry(t *testing.T) {
	gen := &mocks.TextGenerator{Response: enrichResponse}
	ledger := &mocks.CreditLedger{}
	o := newTestOrchestrator(gen, ledger)

	base := testEntry("e1", "Despacho", day0)
	obs := testObservation("Despacho judicial determinando nova data de audiência", day0)
	obs.ContextualText = enrichContext

	result, err := o.Merge(context.Background(), obs, []entities.TimelineEntry{base})
	require.NoError(t, err)

	assert.Equal(t, entities.ClassEnrichment, result.Classification.Kind)
	assert.Equal(t, entities.ActionUpdate, result.Action)
	require.Len(t, result.Timeline, 1, "no sibling entry")
	require.NotNil(t, result.Entry)
	assert.LessOrEqual(t, utf8.RuneCountInString(result.Entry.Description), entities.MaxDescriptionLength)
	assert.Len(t, result.Entry.EnrichmentHistory, len(base.EnrichmentHistory)+1)
	assert.Equal(t, "Despacho", result.Entry.EnrichmentHistory[0].Description)
	assert.Equal(t, 1, ledger.DebitCount())
}

func TestOrchestrator_Merge_EnrichmentFailureKeepsBase(t *testing.T) {
	gen := &mocks.TextGenerator{Err: errTransient}
	ledger := &mocks.CreditLedger{}
	o := newTestOrchestrator(gen, ledger)
	timeline := []entities.TimelineEntry{testEntry("e1", enrichBase, day0)}

	obs := testObservation("Despacho judicial determinando nova data de audiência", day0)
	obs.ContextualText = enrichContext

	result, err := o.Merge(context.Background(), obs, timeline)
	require.NoError(t, err)

	assert.Equal(t, entities.ClassEnrichment, result.Classification.Kind)
	assert.Equal(t, entities.ActionNoop, result.Action)
	assert.Nil(t, result.Entry)
	assert.Equal(t, timeline, result.Timeline)
	assert.Equal(t, entities.EnrichmentFailed, result.Audit.Enrichment)
	assert.Equal(t, "e1", result.Audit.EntryID)
	assert.True(t, result.Audit.CreditCost.IsZero())
	assert.NotEmpty(t, result.Audit.Detail)
	assert.Zero(t, ledger.DebitCount())
}

func TestOrchestrator_Merge_EnrichmentWithoutNewInformation(t *testing.T) {
	gen := &mocks.TextGenerator{Response: enrichResponse}
	o := newTestOrchestrator(gen, &mocks.CreditLedger{})
	timeline := []entities.TimelineEntry{testEntry("e1", "Juntada de Petição", day0)}

	result, err := o.Merge(context.Background(), testObservation("Juntada de Petição", day0.AddDate(0, 0, 1)), timeline)
	require.NoError(t, err)

	assert.Equal(t, entities.ClassEnrichment, result.Classification.Kind)
	assert.Equal(t, entities.ActionNoop, result.Action)
	assert.Equal(t, entities.EnrichmentSkipped, result.Audit.Enrichment)
	assert.Equal(t, 0, gen.CallCount())
}

func TestOrchestrator_Merge_SortsAndTruncates(t *testing.T) {
	o := newTestOrchestrator(&mocks.TextGenerator{}, &mocks.CreditLedger{})
	timeline := []entities.TimelineEntry{testEntry("e1", "Sentença de mérito proferida", day0)}

	long := strings.Repeat("Petição inicial protocolada com pedido liminar ", 10)
	result, err := o.Merge(context.Background(), testObservation(long, day0.AddDate(0, -6, 0)), timeline)
	require.NoError(t, err)

	require.Len(t, result.Timeline, 2)
	assert.Equal(t, "new-1", result.Timeline[0].ID, "earlier event sorts first")
	assert.LessOrEqual(t, utf8.RuneCountInString(result.Entry.Description), entities.MaxDescriptionLength)
}

func TestOrchestrator_Merge_LongResendIsDuplicate(t *testing.T) {
	gen := &mocks.TextGenerator{Response: enrichResponse}
	o := newTestOrchestrator(gen, &mocks.CreditLedger{})

	long := strings.Repeat("Juntada de petição do autor requerendo a designação de audiência ", 6)
	require.Greater(t, utf8.RuneCountInString(long), 300)

	first, err := o.Merge(context.Background(), testObservation(long, day0), nil)
	require.NoError(t, err)
	require.Equal(t, entities.ActionCreate, first.Action)

	second, err := o.Merge(context.Background(), testObservation(long, day0), first.Timeline)
	require.NoError(t, err)
	assert.Equal(t, entities.ClassDuplicate, second.Classification.Kind)
	assert.Equal(t, entities.ActionNoop, second.Action)
	assert.Len(t, second.Timeline, 1)
	assert.Equal(t, 0, gen.CallCount())
}

func TestOrchestrator_Merge_Invalid(t *testing.T) {
	o := newTestOrchestrator(&mocks.TextGenerator{}, &mocks.CreditLedger{})

	obs := testObservation("Juntada de Petição", day0)
	obs.Source = entities.SourceEnriched

	_, err := o.Merge(context.Background(), obs, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInvalidObservation)
}
