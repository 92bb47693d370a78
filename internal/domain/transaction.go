package domain

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Transaction represents one normalized money movement as seen by the query
// engine. Loaders map vendor exports into this shape; the engine only reads it,
// except for Category which the recategorizer may rewrite on a copy.
type Transaction struct {
	Description         string          // cleaned display text
	OriginalDescription string          // raw text from the institution
	Category            string          // free-form classification
	Account             string          // owning account name
	Amount              decimal.Decimal // positive = income, non-positive = expense
	Date                civil.Date      // calendar date, no time of day

	// Extra carries passthrough columns (notes, labels, institution...).
	// It is shared between copies and must be treated as read-only.
	Extra map[string]string
}

// Validate checks the invariants every row of a table must hold.
func (t Transaction) Validate() error {
	if !t.Date.IsValid() {
		return fmt.Errorf("invalid date %q", t.Date.String())
	}
	return nil
}

// IsIncome reports whether the transaction credits the account.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// IsExpense reports whether the transaction is a debit. A zero amount counts
// as an expense, so zero-amount rows never reach Income().
func (t Transaction) IsExpense() bool {
	return !t.Amount.IsPositive()
}
