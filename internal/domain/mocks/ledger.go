package mocks

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Debit is a recorded ledger call.
type Debit struct {
	AccountID string
	Amount    decimal.Decimal
	Reason    string
}

// CreditLedger is a mock implementation of ports.CreditLedger.
type CreditLedger struct {
	mu     sync.Mutex
	Debits []Debit
	Err    error
}

// Debit records the charge or returns the configured error.
func (m *CreditLedger) Debit(_ context.Context, accountID string, amount decimal.Decimal, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Debits = append(m.Debits, Debit{AccountID: accountID, Amount: amount, Reason: reason})
	return nil
}

// Balance sums the recorded debits of an account.
func (m *CreditLedger) Balance(_ context.Context, accountID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, d := range m.Debits {
		if d.AccountID == accountID {
			total = total.Add(d.Amount)
		}
	}
	return total, m.Err
}

// DebitCount returns the number of recorded debits.
func (m *CreditLedger) DebitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Debits)
}
