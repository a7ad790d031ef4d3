// Package entities contains core domain data structures.
package entities

import (
	"sort"
	"time"
)

// MaxDescriptionLength caps every stored description, in runes.
const MaxDescriptionLength = 250

// Source identifies where a timeline entry's description came from.
type Source string

const (
	// SourceOfficial is a court-system feed event (JUDIT, Escavador).
	SourceOfficial Source = "official"
	// SourceDocument is information extracted by AI from an uploaded document.
	SourceDocument Source = "document"
	// SourceEnriched marks an entry whose description was merged by the enrichment engine.
	SourceEnriched Source = "enriched"
)

// IsValid reports whether s is a known source.
func (s Source) IsValid() bool {
	switch s {
	case SourceOfficial, SourceDocument, SourceEnriched:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether an entry with source s may be promoted to next.
// Only official->enriched and document->enriched are legal. Staying enriched is
// allowed because an enriched entry can be enriched again.
func (s Source) CanTransitionTo(next Source) bool {
	if next != SourceEnriched {
		return false
	}
	return s == SourceOfficial || s == SourceDocument || s == SourceEnriched
}

// HistoryRecord is a past description value of a timeline entry.
type HistoryRecord struct {
	Description string    `json:"description"`
	Source      Source    `json:"source"`
	Attribution string    `json:"attribution,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// TimelineEntry is a single chronological record attached to a case.
type TimelineEntry struct {
	ID                string          `json:"id"`
	CaseID            string          `json:"case_id"`
	EventDate         time.Time       `json:"event_date"`
	EventType         string          `json:"event_type"`
	Description       string          `json:"description"`
	Source            Source          `json:"source"`
	RelatedEntryID    string          `json:"related_entry_id,omitempty"`
	EnrichmentHistory []HistoryRecord `json:"enrichment_history,omitempty"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Clone returns a deep copy of the entry so callers can mutate it safely.
func (e TimelineEntry) Clone() TimelineEntry {
	clone := e
	if e.EnrichmentHistory != nil {
		clone.EnrichmentHistory = make([]HistoryRecord, len(e.EnrichmentHistory))
		copy(clone.EnrichmentHistory, e.EnrichmentHistory)
	}
	return clone
}

// Before reports whether e sorts before other in timeline order:
// event date first, then creation time, then ID.
func (e *TimelineEntry) Before(other *TimelineEntry) bool {
	if !e.EventDate.Equal(other.EventDate) {
		return e.EventDate.Before(other.EventDate)
	}
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.Before(other.CreatedAt)
	}
	return e.ID < other.ID
}

// SortTimeline orders entries in place by event date, ties broken by creation time.
func SortTimeline(entries []TimelineEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Before(&entries[j])
	})
}
