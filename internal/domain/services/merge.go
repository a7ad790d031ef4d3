package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

// MergeResult is the outcome of merging one observation into a case timeline.
type MergeResult struct {
	// Timeline is the updated case timeline in (event date, creation time) order.
	Timeline []entities.TimelineEntry
	Action   entities.MergeAction
	// Entry is the created or updated entry, nil for a no-op.
	Entry          *entities.TimelineEntry
	Classification Classification
	// Enrichment is set only when the enrichment engine ran.
	Enrichment *EnrichmentResult
	Audit      entities.AuditRecord
}

// Orchestrator runs one observation through classification and, for
// enrichment candidates, the enrichment engine. It does no persistence.
type Orchestrator struct {
	cfg      entities.TimelineConfig
	enricher *EnrichmentEngine
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOrchestratorLogger sets the logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIDGenerator overrides entry ID generation.
func WithIDGenerator(newID func() string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

// NewOrchestrator creates a new merge orchestrator.
func NewOrchestrator(cfg entities.TimelineConfig, enricher *EnrichmentEngine, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		enricher: enricher,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Merge classifies observation against timeline and computes the resulting
// timeline. The input slice is never modified. Invalid observations return an
// error wrapping entities.ErrInvalidObservation; no other error is possible.
func (o *Orchestrator) Merge(ctx context.Context, observation entities.EventObservation, timeline []entities.TimelineEntry) (*MergeResult, error) {
	observation = observation.Sanitize(o.cfg.MaxInputLength)

	// Compare the candidate in the form it would be stored in, so a resend of
	// a long description still matches its own entry.
	candidate := observation
	candidate.Description = TruncateDescription(observation.Description, entities.MaxDescriptionLength)

	cls, err := Classify(candidate, timeline, o.cfg)
	if err != nil {
		return nil, err
	}

	now := o.now()
	result := &MergeResult{
		Timeline:       cloneTimeline(timeline),
		Action:         entities.ActionNoop,
		Classification: cls,
		Audit: entities.AuditRecord{
			CaseID:         observation.CaseID,
			Classification: cls.Kind,
			Action:         entities.ActionNoop,
			CreditCost:     decimal.Zero,
			Enrichment:     entities.EnrichmentSkipped,
			CreatedAt:      now,
		},
	}
	if cls.Compared {
		score := cls.Score
		result.Audit.BestScore = &score
	}
	if cls.Match != nil {
		result.Audit.MatchedEntryID = cls.Match.ID
	}

	switch cls.Kind {
	case entities.ClassDuplicate:
		result.Audit.EntryID = cls.Match.ID
		result.Audit.Detail = "exact resend of an existing event"

	case entities.ClassNew:
		entry := o.newEntry(observation, "", now)
		result.add(entry, entities.ActionCreate)

	case entities.ClassRelated:
		entry := o.newEntry(observation, cls.Match.ID, now)
		result.add(entry, entities.ActionCreateSibling)

	case entities.ClassEnrichment:
		o.enrich(ctx, observation, cls.Match, result, now)
	}

	entities.SortTimeline(result.Timeline)

	o.logger.Info("Merged observation",
		"case_id", observation.CaseID,
		"classification", cls.Kind,
		"action", result.Action,
		"score", cls.Score,
		"enrichment", result.Audit.Enrichment,
		"cost", result.Audit.CreditCost.String())

	return result, nil
}

func (o *Orchestrator) enrich(ctx context.Context, observation entities.EventObservation, base *entities.TimelineEntry, result *MergeResult, now time.Time) {
	er := o.enricher.Enrich(ctx, *base, enrichmentContext(observation, *base), observation.SourceDocumentName)
	result.Enrichment = &er
	result.Audit.EntryID = base.ID
	result.Audit.Enrichment = er.Outcome
	result.Audit.CreditCost = er.CostIncurred
	result.Audit.Detail = er.Reason

	if !er.WasChanged {
		return
	}

	updated := base.Clone()
	updated.EnrichmentHistory = append(updated.EnrichmentHistory, entities.HistoryRecord{
		Description: base.Description,
		Source:      base.Source,
		Attribution: attribution(observation),
		RecordedAt:  now,
	})
	updated.Description = er.Description
	if updated.Source.CanTransitionTo(entities.SourceEnriched) {
		updated.Source = entities.SourceEnriched
	}
	updated.UpdatedAt = now

	for i := range result.Timeline {
		if result.Timeline[i].ID == updated.ID {
			result.Timeline[i] = updated
			break
		}
	}
	result.Entry = &updated
	result.Action = entities.ActionUpdate
	result.Audit.Action = entities.ActionUpdate
}

func (o *Orchestrator) newEntry(observation entities.EventObservation, relatedTo string, now time.Time) entities.TimelineEntry {
	return entities.TimelineEntry{
		ID:             o.newID(),
		CaseID:         observation.CaseID,
		EventDate:      observation.EventDate,
		EventType:      observation.EventType,
		Description:    TruncateDescription(observation.Description, entities.MaxDescriptionLength),
		Source:         observation.Source,
		RelatedEntryID: relatedTo,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (r *MergeResult) add(entry entities.TimelineEntry, action entities.MergeAction) {
	r.Timeline = append(r.Timeline, entry)
	r.Entry = &entry
	r.Action = action
	r.Audit.Action = action
	r.Audit.EntryID = entry.ID
}

// enrichmentContext collects what the observation knows beyond the base entry:
// its own description when it differs, plus any extracted contextual text.
func enrichmentContext(observation entities.EventObservation, base entities.TimelineEntry) string {
	parts := make([]string, 0, 2)
	if normalizeText(observation.Description) != normalizeText(base.Description) {
		parts = append(parts, observation.Description)
	}
	if observation.ContextualText != "" {
		parts = append(parts, observation.ContextualText)
	}
	return strings.Join(parts, "\n")
}

func attribution(observation entities.EventObservation) string {
	if observation.SourceDocumentName != "" {
		return observation.SourceDocumentName
	}
	return string(observation.Source)
}

func cloneTimeline(timeline []entities.TimelineEntry) []entities.TimelineEntry {
	out := make([]entities.TimelineEntry, len(timeline), len(timeline)+1)
	for i := range timeline {
		out[i] = timeline[i].Clone()
	}
	return out
}
