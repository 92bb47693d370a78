package ledger

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Where keeps the rows for which p holds.
func (t Table) Where(p Predicate) Table {
	return t.filter(p, false)
}

func (t Table) filter(p Predicate, invert bool) Table {
	keep := make([]bool, len(t.rows))
	for i, r := range t.rows {
		keep[i] = p(r)
	}
	return t.selectRows(keep, invert)
}

// Search keeps rows whose description or original description contains a
// match for pattern, ignoring case. With invert, it keeps the rest.
func (t Table) Search(pattern string, invert bool) (Table, error) {
	re, err := CompilePattern(pattern)
	if err != nil {
		return Table{}, err
	}
	return t.filter(DescriptionMatches(re), invert), nil
}

// AccountLike keeps rows whose account name contains a match for pattern,
// ignoring case.
func (t Table) AccountLike(pattern string, invert bool) (Table, error) {
	re, err := CompilePattern(pattern)
	if err != nil {
		return Table{}, err
	}
	return t.filter(AccountMatches(re), invert), nil
}

// Income keeps strictly positive amounts.
func (t Table) Income() Table {
	return t.filter(IsIncome, false)
}

// Expenses keeps zero and negative amounts.
func (t Table) Expenses() Table {
	return t.filter(IsExpense, false)
}

// When keeps rows dated in [after, before). Either bound may be nil.
func (t Table) When(after, before *civil.Date, invert bool) Table {
	return t.filter(DateBetween(after, before), invert)
}

// InYear keeps rows dated within the calendar year.
func (t Table) InYear(year int) Table {
	after := civil.Date{Year: year, Month: 1, Day: 1}
	before := civil.Date{Year: year + 1, Month: 1, Day: 1}
	return t.When(&after, &before, false)
}

// LastWeeks keeps rows dated on or after n weeks before today.
func (t Table) LastWeeks(n int, today civil.Date) Table {
	after := today.AddDays(-7 * n)
	return t.When(&after, nil, false)
}

// WithAmount keeps rows whose amount lies in [above, below). Either bound may
// be nil.
func (t Table) WithAmount(above, below *decimal.Decimal, invert bool) Table {
	return t.filter(AmountBetween(above, below), invert)
}

// InAccounts keeps rows whose account is one of accounts. Pass a one-element
// slice for a single account.
func (t Table) InAccounts(accounts []string, invert bool) Table {
	return t.filter(AccountIn(accounts), invert)
}

// InCategories keeps rows whose category is one of categories.
func (t Table) InCategories(categories []string, invert bool) Table {
	return t.filter(CategoryIn(categories), invert)
}

// Transfers keeps rows that form one side of a transfer pair, or with invert
// the rows that do not. The pairing is recomputed over this table on every
// call; filter transfers out once and chain from the result when the table
// is large.
func (t Table) Transfers(invert bool, opts ...TransferOption) (Table, error) {
	mask, err := MatchTransfers(t.rows, opts...)
	if err != nil {
		return Table{}, err
	}
	return t.selectRows(mask, invert), nil
}
