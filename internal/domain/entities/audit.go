package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClassificationKind is the relationship between an observation and a case timeline.
type ClassificationKind string

const (
	ClassDuplicate  ClassificationKind = "duplicate"
	ClassEnrichment ClassificationKind = "enrichment"
	ClassRelated    ClassificationKind = "related"
	ClassNew        ClassificationKind = "new"
)

// MergeAction is the persistence action a merge decided on.
type MergeAction string

const (
	ActionNoop          MergeAction = "noop"
	ActionCreate        MergeAction = "create"
	ActionCreateSibling MergeAction = "create_sibling"
	ActionUpdate        MergeAction = "update"
)

// EnrichmentOutcome reports what the enrichment engine did.
type EnrichmentOutcome string

const (
	EnrichmentChanged   EnrichmentOutcome = "changed"
	EnrichmentUnchanged EnrichmentOutcome = "unchanged"
	EnrichmentFailed    EnrichmentOutcome = "failed"
	EnrichmentSkipped   EnrichmentOutcome = "skipped"
)

// AuditRecord is the observable evidence of one merge decision.
type AuditRecord struct {
	ID             int64              `json:"id"`
	CaseID         string             `json:"case_id"`
	EntryID        string             `json:"entry_id,omitempty"`
	MatchedEntryID string             `json:"matched_entry_id,omitempty"`
	Classification ClassificationKind `json:"classification"`
	Action         MergeAction        `json:"action"`
	BestScore      *float64           `json:"best_score,omitempty"`
	CreditCost     decimal.Decimal    `json:"credit_cost"`
	Enrichment     EnrichmentOutcome  `json:"enrichment"`
	Detail         string             `json:"detail,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}
