package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// CreditLedger records credit consumption for a case or workspace account.
type CreditLedger interface {
	// Debit records a charge of amount against accountID.
	Debit(ctx context.Context, accountID string, amount decimal.Decimal, reason string) error

	// Balance returns the total debited from accountID.
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
}
