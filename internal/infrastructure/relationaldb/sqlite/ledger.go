package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Debit records a charge of amount against accountID.
func (r *Repository) Debit(ctx context.Context, accountID string, amount decimal.Decimal, reason string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("debit amount must be positive, got %s", amount)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO credit_ledger (id, account_id, amount, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, generateUUID(), accountID, amount.String(), reason, formatTime(timeNow()))
	if err != nil {
		return fmt.Errorf("recording debit: %w", err)
	}
	return nil
}

// Balance returns the total debited from accountID.
func (r *Repository) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT amount FROM credit_ledger WHERE account_id = ?`, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("querying ledger: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scanning ledger amount: %w", err)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing ledger amount %q: %w", raw, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("iterating ledger: %w", err)
	}

	return total, nil
}
