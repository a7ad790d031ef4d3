package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ersonp/jurisflow/internal/domain/entities"
	"github.com/ersonp/jurisflow/internal/domain/ports"
	"github.com/ersonp/jurisflow/internal/domain/services"
)

// ErrSearchDisabled is returned by Search when no vector index is configured.
var ErrSearchDisabled = errors.New("semantic search is disabled; set qdrant.enabled in config")

// QueryHandler answers read-only questions about case timelines.
type QueryHandler struct {
	timeline *services.TimelineService
	search   *services.SearchService
	ledger   ports.CreditLedger
}

// NewQueryHandler creates a new query handler. search may be nil.
func NewQueryHandler(timeline *services.TimelineService, search *services.SearchService, ledger ports.CreditLedger) *QueryHandler {
	return &QueryHandler{
		timeline: timeline,
		search:   search,
		ledger:   ledger,
	}
}

// Timeline returns the ordered timeline of a case.
func (h *QueryHandler) Timeline(ctx context.Context, caseID string) ([]entities.TimelineEntry, error) {
	return h.timeline.Timeline(ctx, caseID)
}

// History returns an entry and the descriptions it replaced.
func (h *QueryHandler) History(ctx context.Context, entryID string) (*entities.TimelineEntry, []entities.HistoryRecord, error) {
	entry, err := h.timeline.Entry(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}
	history, err := h.timeline.History(ctx, entryID)
	if err != nil {
		return nil, nil, err
	}
	return entry, history, nil
}

// Audit returns the most recent merge decisions for a case.
func (h *QueryHandler) Audit(ctx context.Context, caseID string, limit int) ([]entities.AuditRecord, error) {
	return h.timeline.Audit(ctx, caseID, limit)
}

// Search finds the entries of a case closest in meaning to query.
func (h *QueryHandler) Search(ctx context.Context, caseID, query string, limit int) ([]ports.ScoredEntry, error) {
	if h.search == nil {
		return nil, ErrSearchDisabled
	}
	if limit <= 0 {
		limit = services.DefaultSearchLimit
	}
	return h.search.Search(ctx, caseID, query, limit)
}

// Balance returns the credits spent on enrichment for a case.
func (h *QueryHandler) Balance(ctx context.Context, caseID string) (decimal.Decimal, error) {
	spent, err := h.ledger.Balance(ctx, caseID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading ledger: %w", err)
	}
	return spent, nil
}
