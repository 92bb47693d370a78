package ledger

import (
	"github.com/dvloznov/cashledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Total sums the amounts. An empty table totals zero.
func (t Table) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range t.rows {
		total = total.Add(r.Amount)
	}
	return total
}

// Accounts returns the distinct account names, in first-seen order.
func (t Table) Accounts() []string {
	return t.distinct(func(tx domain.Transaction) string { return tx.Account })
}

// Categories returns the distinct categories, in first-seen order.
func (t Table) Categories() []string {
	return t.distinct(func(tx domain.Transaction) string { return tx.Category })
}

// Descriptions returns the distinct descriptions, in first-seen order.
func (t Table) Descriptions() []string {
	return t.distinct(func(tx domain.Transaction) string { return tx.Description })
}

// OriginalDescriptions returns the distinct original descriptions, in
// first-seen order.
func (t Table) OriginalDescriptions() []string {
	return t.distinct(func(tx domain.Transaction) string { return tx.OriginalDescription })
}

func (t Table) distinct(field func(domain.Transaction) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range t.rows {
		v := field(r)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Totals returns each group's total.
func (gs GroupSet) Totals() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(gs.keys))
	for _, k := range gs.keys {
		out[k] = gs.groups[k].Total()
	}
	return out
}

// TransactionCounts returns each group's row count.
func (gs GroupSet) TransactionCounts() map[string]int {
	out := make(map[string]int, len(gs.keys))
	for _, k := range gs.keys {
		out[k] = gs.groups[k].Len()
	}
	return out
}
