package ledger

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Query chains filters over a table. The first failing step is remembered
// and every later step becomes a no-op, so a chain is checked once at the
// end:
//
//	spending, err := ledger.From(t).Transfers(true).Expenses().InYear(2020).Result()
type Query struct {
	table Table
	err   error
}

// From starts a query over t.
func From(t Table) Query {
	return Query{table: t}
}

// Result returns the filtered table or the first error.
func (q Query) Result() (Table, error) {
	if q.err != nil {
		return Table{}, q.err
	}
	return q.table, nil
}

// Err returns the first error, if any.
func (q Query) Err() error {
	return q.err
}

func (q Query) then(step func(Table) (Table, error)) Query {
	if q.err != nil {
		return q
	}
	t, err := step(q.table)
	return Query{table: t, err: err}
}

func (q Query) thenPure(step func(Table) Table) Query {
	return q.then(func(t Table) (Table, error) { return step(t), nil })
}

// Where applies an arbitrary predicate.
func (q Query) Where(p Predicate) Query {
	return q.thenPure(func(t Table) Table { return t.Where(p) })
}

// Search applies Table.Search.
func (q Query) Search(pattern string, invert bool) Query {
	return q.then(func(t Table) (Table, error) { return t.Search(pattern, invert) })
}

// AccountLike applies Table.AccountLike.
func (q Query) AccountLike(pattern string, invert bool) Query {
	return q.then(func(t Table) (Table, error) { return t.AccountLike(pattern, invert) })
}

// Income applies Table.Income.
func (q Query) Income() Query {
	return q.thenPure(Table.Income)
}

// Expenses applies Table.Expenses.
func (q Query) Expenses() Query {
	return q.thenPure(Table.Expenses)
}

// When applies Table.When.
func (q Query) When(after, before *civil.Date, invert bool) Query {
	return q.thenPure(func(t Table) Table { return t.When(after, before, invert) })
}

// InYear applies Table.InYear.
func (q Query) InYear(year int) Query {
	return q.thenPure(func(t Table) Table { return t.InYear(year) })
}

// LastWeeks applies Table.LastWeeks.
func (q Query) LastWeeks(n int, today civil.Date) Query {
	return q.thenPure(func(t Table) Table { return t.LastWeeks(n, today) })
}

// WithAmount applies Table.WithAmount.
func (q Query) WithAmount(above, below *decimal.Decimal, invert bool) Query {
	return q.thenPure(func(t Table) Table { return t.WithAmount(above, below, invert) })
}

// InAccounts applies Table.InAccounts.
func (q Query) InAccounts(accounts []string, invert bool) Query {
	return q.thenPure(func(t Table) Table { return t.InAccounts(accounts, invert) })
}

// InCategories applies Table.InCategories.
func (q Query) InCategories(categories []string, invert bool) Query {
	return q.thenPure(func(t Table) Table { return t.InCategories(categories, invert) })
}

// Transfers applies Table.Transfers.
func (q Query) Transfers(invert bool, opts ...TransferOption) Query {
	return q.then(func(t Table) (Table, error) { return t.Transfers(invert, opts...) })
}
