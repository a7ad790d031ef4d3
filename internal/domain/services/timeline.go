package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/ports"
)

const (
	// DefaultBatchConcurrency is the number of cases merged in parallel by IngestBatch.
	DefaultBatchConcurrency = 4
	// DefaultAuditLimit is the default number of audit records returned.
	DefaultAuditLimit = 50
)

// BatchItemResult is the outcome of one observation in a batch.
type BatchItemResult struct {
	Index  int
	Result *MergeResult
	Err    error
}

// TimelineService loads, merges and persists case timelines. It enforces the
// at-most-one concurrent merge per case rule the orchestrator relies on.
type TimelineService struct {
	store            ports.TimelineStore
	orchestrator     *Orchestrator
	search           *SearchService
	locks            *CaseLocks
	logger           *slog.Logger
	batchConcurrency int
}

// TimelineOption configures a TimelineService.
type TimelineOption func(*TimelineService)

// WithSearchIndex indexes created and updated entries for semantic search.
func WithSearchIndex(search *SearchService) TimelineOption {
	return func(s *TimelineService) {
		s.search = search
	}
}

// WithBatchConcurrency sets how many cases IngestBatch processes at once.
func WithBatchConcurrency(n int) TimelineOption {
	return func(s *TimelineService) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithTimelineLogger sets the logger.
func WithTimelineLogger(logger *slog.Logger) TimelineOption {
	return func(s *TimelineService) {
		s.logger = logger
	}
}

// NewTimelineService creates a new timeline service.
func NewTimelineService(store ports.TimelineStore, orchestrator *Orchestrator, opts ...TimelineOption) *TimelineService {
	s := &TimelineService{
		store:            store,
		orchestrator:     orchestrator,
		locks:            NewCaseLocks(),
		logger:           slog.Default(),
		batchConcurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest merges one observation into its case timeline and persists the result.
// Store failures are returned wrapped; a concurrent write surfaces as
// entities.ErrPersistenceConflict so the caller can retry.
func (s *TimelineService) Ingest(ctx context.Context, observation entities.EventObservation) (*MergeResult, error) {
	caseID := strings.TrimSpace(observation.CaseID)
	if caseID == "" {
		return nil, fmt.Errorf("%w: case id is required", entities.ErrInvalidObservation)
	}

	unlock := s.locks.Lock(caseID)
	defer unlock()

	timeline, err := s.store.ListEntries(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading timeline: %w", err)
	}

	result, err := s.orchestrator.Merge(ctx, observation, timeline)
	if err != nil {
		return nil, err
	}

	switch result.Action {
	case entities.ActionCreate, entities.ActionCreateSibling:
		if err := s.store.CreateEntry(ctx, result.Entry, &result.Audit); err != nil {
			return nil, fmt.Errorf("creating entry: %w", err)
		}
	case entities.ActionUpdate:
		if err := s.store.UpdateEntry(ctx, result.Entry, &result.Audit); err != nil {
			return nil, fmt.Errorf("updating entry: %w", err)
		}
		syncVersion(result)
	default:
		if err := s.store.SaveAudit(ctx, &result.Audit); err != nil {
			return nil, fmt.Errorf("saving audit record: %w", err)
		}
	}

	if s.search != nil && result.Entry != nil {
		if err := s.search.Index(ctx, *result.Entry); err != nil {
			s.logger.Warn("Failed to index timeline entry",
				"case_id", caseID,
				"entry_id", result.Entry.ID,
				"error", err)
		}
	}

	return result, nil
}

// IngestBatch ingests observations, processing different cases concurrently
// and the observations of one case in arrival order. Errors are reported per
// item and never stop the rest of the batch.
func (s *TimelineService) IngestBatch(ctx context.Context, observations []entities.EventObservation) []BatchItemResult {
	results := make([]BatchItemResult, len(observations))

	var order []string
	byCase := make(map[string][]int)
	for i := range observations {
		caseID := strings.TrimSpace(observations[i].CaseID)
		if _, ok := byCase[caseID]; !ok {
			order = append(order, caseID)
		}
		byCase[caseID] = append(byCase[caseID], i)
	}

	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)

	for _, caseID := range order {
		indexes := byCase[caseID]
		g.Go(func() error {
			for _, i := range indexes {
				res, err := s.Ingest(ctx, observations[i])
				results[i] = BatchItemResult{Index: i, Result: res, Err: err}
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Timeline returns the ordered timeline of a case.
func (s *TimelineService) Timeline(ctx context.Context, caseID string) ([]entities.TimelineEntry, error) {
	entries, err := s.store.ListEntries(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("loading timeline: %w", err)
	}
	return entries, nil
}

// Entry returns a single entry with its enrichment history.
func (s *TimelineService) Entry(ctx context.Context, id string) (*entities.TimelineEntry, error) {
	entry, err := s.store.FindEntry(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding entry: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrEntryNotFound, id)
	}
	return entry, nil
}

// History returns the prior descriptions of an entry, oldest first.
func (s *TimelineService) History(ctx context.Context, entryID string) ([]entities.HistoryRecord, error) {
	entry, err := s.Entry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.EnrichmentHistory == nil {
		return []entities.HistoryRecord{}, nil
	}
	return entry.EnrichmentHistory, nil
}

// Audit returns the most recent merge decisions for a case.
func (s *TimelineService) Audit(ctx context.Context, caseID string, limit int) ([]entities.AuditRecord, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	records, err := s.store.ListAudit(ctx, caseID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading audit log: %w", err)
	}
	return records, nil
}

// syncVersion copies the version bumped by the store into the returned timeline.
func syncVersion(result *MergeResult) {
	for i := range result.Timeline {
		if result.Timeline[i].ID == result.Entry.ID {
			result.Timeline[i].Version = result.Entry.Version
			return
		}
	}
}
