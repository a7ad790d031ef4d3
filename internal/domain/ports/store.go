package ports

import (
	"context"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

// TimelineStore persists timeline entries and merge audit records.
// All writes for a case are transactional; UpdateEntry uses the entry's
// Version for optimistic concurrency.
type TimelineStore interface {
	// ListEntries returns the case timeline ordered by event date, then creation time.
	ListEntries(ctx context.Context, caseID string) ([]entities.TimelineEntry, error)

	// FindEntry finds an entry by ID. Returns nil if not found.
	FindEntry(ctx context.Context, id string) (*entities.TimelineEntry, error)

	// CreateEntry inserts a new entry together with the audit record of the
	// decision that created it. Either both are stored or neither is.
	CreateEntry(ctx context.Context, entry *entities.TimelineEntry, audit *entities.AuditRecord) error

	// UpdateEntry writes the description, source and history of an existing
	// entry together with its audit record, atomically.
	// entry.Version must equal the stored version; on success it is incremented.
	// A mismatch returns an error wrapping entities.ErrPersistenceConflict.
	UpdateEntry(ctx context.Context, entry *entities.TimelineEntry, audit *entities.AuditRecord) error

	// SaveAudit appends the audit record of a decision that wrote no entry
	// and sets its ID.
	SaveAudit(ctx context.Context, record *entities.AuditRecord) error

	// ListAudit returns the most recent audit records for a case.
	ListAudit(ctx context.Context, caseID string, limit int) ([]entities.AuditRecord, error)
}
