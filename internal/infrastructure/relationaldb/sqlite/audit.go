package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ersonp/jurisflow/internal/domain/entities"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveAudit appends a merge decision to the audit log and sets record.ID.
func (r *Repository) SaveAudit(ctx context.Context, record *entities.AuditRecord) error {
	return insertAudit(ctx, r.db, record)
}

func insertAudit(ctx context.Context, db execer, record *entities.AuditRecord) error {
	var score sql.NullFloat64
	if record.BestScore != nil {
		score = sql.NullFloat64{Float64: *record.BestScore, Valid: true}
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = timeNow()
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO audit_log (case_id, entry_id, matched_entry_id, classification, action, best_score, credit_cost, enrichment, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.CaseID,
		record.EntryID,
		record.MatchedEntryID,
		string(record.Classification),
		string(record.Action),
		score,
		record.CreditCost.String(),
		string(record.Enrichment),
		record.Detail,
		formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading audit record id: %w", err)
	}
	record.ID = id
	return nil
}

// ListAudit returns the most recent audit records of a case, newest first.
func (r *Repository) ListAudit(ctx context.Context, caseID string, limit int) ([]entities.AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, case_id, entry_id, matched_entry_id, classification, action, best_score, credit_cost, enrichment, detail, created_at
		FROM audit_log
		WHERE case_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, caseID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	records := []entities.AuditRecord{}
	for rows.Next() {
		var (
			rec                                      entities.AuditRecord
			score                                    sql.NullFloat64
			classification, action, enrichment, cost string
			createdAt                                string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.CaseID,
			&rec.EntryID,
			&rec.MatchedEntryID,
			&classification,
			&action,
			&score,
			&cost,
			&enrichment,
			&rec.Detail,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}

		rec.Classification = entities.ClassificationKind(classification)
		rec.Action = entities.MergeAction(action)
		rec.Enrichment = entities.EnrichmentOutcome(enrichment)
		if score.Valid {
			s := score.Float64
			rec.BestScore = &s
		}
		if rec.CreditCost, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("parsing credit cost %q: %w", cost, err)
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit log: %w", err)
	}

	return records, nil
}
