package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

const entryColumns = `id, case_id, event_date, event_type, description, source, related_entry_id, version, created_at, updated_at`

// ListEntries returns the entries of a case in timeline order, with their history.
func (r *Repository) ListEntries(ctx context.Context, caseID string) ([]entities.TimelineEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM timeline_entries WHERE case_id = ?`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var result []entities.TimelineEntry
	index := make(map[string]int)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		index[entry.ID] = len(result)
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	if len(result) == 0 {
		return []entities.TimelineEntry{}, nil
	}

	histRows, err := r.db.QueryContext(ctx, `
		SELECT h.entry_id, h.description, h.source, h.attribution, h.recorded_at
		FROM entry_history h
		JOIN timeline_entries e ON e.id = h.entry_id
		WHERE e.case_id = ?
		ORDER BY h.entry_id, h.position
	`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer histRows.Close()

	for histRows.Next() {
		entryID, record, err := scanHistory(histRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[entryID]; ok {
			result[i].EnrichmentHistory = append(result[i].EnrichmentHistory, record)
		}
	}
	if err := histRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	entities.SortTimeline(result)
	return result, nil
}

// FindEntry returns an entry with its history, or nil if it doesn't exist.
func (r *Repository) FindEntry(ctx context.Context, id string) (*entities.TimelineEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM timeline_entries WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT entry_id, description, source, attribution, recorded_at
		FROM entry_history
		WHERE entry_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		_, record, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		entry.EnrichmentHistory = append(entry.EnrichmentHistory, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	return &entry, nil
}

// CreateEntry inserts a new entry, its history and the audit record of the
// decision in one transaction. A duplicate ID is reported as
// entities.ErrPersistenceConflict. audit may be nil.
func (r *Repository) CreateEntry(ctx context.Context, entry *entities.TimelineEntry, audit *entities.AuditRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(tx)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO timeline_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.CaseID,
		formatTime(entry.EventDate),
		entry.EventType,
		entry.Description,
		string(entry.Source),
		entry.RelatedEntryID,
		entry.Version,
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: entry %s already exists", entities.ErrPersistenceConflict, entry.ID)
	}
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}

	if err := insertHistory(ctx, tx, entry.ID, 0, entry.EnrichmentHistory); err != nil {
		return err
	}
	if audit != nil {
		if err := insertAudit(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entry: %w", err)
	}
	return nil
}

// UpdateEntry writes entry if the stored version still equals entry.Version,
// appends its new history records and the audit record, then increments
// entry.Version. audit may be nil.
func (r *Repository) UpdateEntry(ctx context.Context, entry *entities.TimelineEntry, audit *entities.AuditRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, `
		UPDATE timeline_entries
		SET event_type = ?, description = ?, source = ?, related_entry_id = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`,
		entry.EventType,
		entry.Description,
		string(entry.Source),
		entry.RelatedEntryID,
		formatTime(entry.UpdatedAt),
		entry.ID,
		entry.Version,
	)
	if err != nil {
		return fmt.Errorf("updating entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking updated rows: %w", err)
	}
	if affected == 0 {
		var stored int
		err := tx.QueryRowContext(ctx, `SELECT version FROM timeline_entries WHERE id = ?`, entry.ID).Scan(&stored)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: %s", entities.ErrEntryNotFound, entry.ID)
		}
		if err != nil {
			return fmt.Errorf("reading entry version: %w", err)
		}
		return fmt.Errorf("%w: entry %s is at version %d, not %d",
			entities.ErrPersistenceConflict, entry.ID, stored, entry.Version)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM entry_history WHERE entry_id = ?`, entry.ID).Scan(&count); err != nil {
		return fmt.Errorf("counting history: %w", err)
	}
	if count < len(entry.EnrichmentHistory) {
		if err := insertHistory(ctx, tx, entry.ID, count, entry.EnrichmentHistory[count:]); err != nil {
			return err
		}
	}
	if audit != nil {
		if err := insertAudit(ctx, tx, audit); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entry: %w", err)
	}

	entry.Version++
	return nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, entryID string, start int, records []entities.HistoryRecord) error {
	for i, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO entry_history (entry_id, position, description, source, attribution, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, entryID, start+i, rec.Description, string(rec.Source), rec.Attribution, formatTime(rec.RecordedAt))
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: history of entry %s changed concurrently", entities.ErrPersistenceConflict, entryID)
		}
		if err != nil {
			return fmt.Errorf("inserting history: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (entities.TimelineEntry, error) {
	var (
		e                              entities.TimelineEntry
		source                         string
		eventDate, createdAt, updateAt string
	)
	err := row.Scan(
		&e.ID,
		&e.CaseID,
		&eventDate,
		&e.EventType,
		&e.Description,
		&source,
		&e.RelatedEntryID,
		&e.Version,
		&createdAt,
		&updateAt,
	)
	if err == sql.ErrNoRows {
		return e, err
	}
	if err != nil {
		return e, fmt.Errorf("scanning entry: %w", err)
	}

	e.Source = entities.Source(source)
	if e.EventDate, err = parseTime(eventDate); err != nil {
		return e, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return e, err
	}
	if e.UpdatedAt, err = parseTime(updateAt); err != nil {
		return e, err
	}
	return e, nil
}

func scanHistory(rows *sql.Rows) (string, entities.HistoryRecord, error) {
	var (
		entryID, source, recordedAt string
		rec                         entities.HistoryRecord
	)
	if err := rows.Scan(&entryID, &rec.Description, &source, &rec.Attribution, &recordedAt); err != nil {
		return "", rec, fmt.Errorf("scanning history: %w", err)
	}
	rec.Source = entities.Source(source)

	t, err := parseTime(recordedAt)
	if err != nil {
		return "", rec, err
	}
	rec.RecordedAt = t
	return entryID, rec, nil
}
