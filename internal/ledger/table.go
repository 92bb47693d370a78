// Package ledger is the query engine over a table of transactions: composable
// invertible filters, transfer-pair detection, grouping, aggregation and
// recategorization.
//
// A Table is a value. Every operation returns a new Table and leaves its
// receiver untouched, so tables can be shared across filter chains without
// locking. The only mutation point is MutableTable, which callers opt into
// explicitly.
package ledger

import (
	"fmt"
	"sort"

	"github.com/dvloznov/cashledger/internal/domain"
	"github.com/dvloznov/cashledger/internal/frame"
	"github.com/google/uuid"
)

// Canonical column names, in the order Frame emits them.
const (
	ColumnDate                = "date"
	ColumnDescription         = "description"
	ColumnOriginalDescription = "original_description"
	ColumnCategory            = "category"
	ColumnAccount             = "account"
	ColumnAmount              = "amount"
)

var canonicalColumns = []string{
	ColumnDate,
	ColumnDescription,
	ColumnOriginalDescription,
	ColumnCategory,
	ColumnAccount,
	ColumnAmount,
}

// Table is an ordered, logically immutable set of transactions.
//
// Each row carries an identity: its position in the base table it was
// derived from. Tables derived from the same base share a lineage, which is
// what lets Recategorize trace a filtered subset back to its base.
type Table struct {
	lineage uuid.UUID
	rows    []domain.Transaction
	ids     []int
}

// NewTable builds a base table. Row identities are assigned from the slice
// order and a fresh lineage is started. The input slice is copied.
func NewTable(txs []domain.Transaction) (Table, error) {
	t := Table{
		lineage: uuid.New(),
		rows:    make([]domain.Transaction, len(txs)),
		ids:     make([]int, len(txs)),
	}
	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return Table{}, fmt.Errorf("NewTable: row %d: %w: %v", i, ErrInvalidDate, err)
		}
		t.rows[i] = tx
		t.ids[i] = i
	}
	return t, nil
}

// MustNewTable is like NewTable but panics on invalid input. Intended for
// tests and literals.
func MustNewTable(txs []domain.Transaction) Table {
	t, err := NewTable(txs)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.rows)
}

// Row returns a copy of row i.
func (t Table) Row(i int) domain.Transaction {
	return t.rows[i]
}

// Rows returns a copy of all rows in table order.
func (t Table) Rows() []domain.Transaction {
	return append([]domain.Transaction(nil), t.rows...)
}

// RowIDs returns the identity of each row in table order.
func (t Table) RowIDs() []int {
	return append([]int(nil), t.ids...)
}

// Lineage identifies the base table this table was derived from.
func (t Table) Lineage() uuid.UUID {
	return t.lineage
}

// Concat appends the rows of other tables and starts a new lineage, with
// identities renumbered from zero. It is how several loaded exports become a
// single base table.
func Concat(tables ...Table) Table {
	var rows []domain.Transaction
	for _, t := range tables {
		rows = append(rows, t.rows...)
	}
	out := Table{
		lineage: uuid.New(),
		rows:    rows,
		ids:     make([]int, len(rows)),
	}
	for i := range out.ids {
		out.ids[i] = i
	}
	return out
}

// Frame exposes the rows through the generic table primitive for operations
// outside the engine (sort, sample, export). Extra columns follow the
// canonical ones in name order; cells missing from a row are empty.
func (t Table) Frame() frame.Frame {
	extraSet := make(map[string]bool)
	for _, r := range t.rows {
		for k := range r.Extra {
			if !isCanonicalColumn(k) {
				extraSet[k] = true
			}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)

	columns := append(append([]string(nil), canonicalColumns...), extras...)
	records := make([][]string, len(t.rows))
	for i, r := range t.rows {
		rec := []string{
			r.Date.String(),
			r.Description,
			r.OriginalDescription,
			r.Category,
			r.Account,
			r.Amount.String(),
		}
		for _, k := range extras {
			rec = append(rec, r.Extra[k])
		}
		records[i] = rec
	}

	f, err := frame.New(columns, records)
	if err != nil {
		// Columns are unique and every record is built to width.
		panic(fmt.Sprintf("ledger: building frame: %v", err))
	}
	return f
}

func isCanonicalColumn(name string) bool {
	for _, c := range canonicalColumns {
		if c == name {
			return true
		}
	}
	return false
}

// selectRows returns the rows where keep[i] != invert, preserving order and
// identity.
func (t Table) selectRows(keep []bool, invert bool) Table {
	out := Table{lineage: t.lineage}
	for i, k := range keep {
		if k != invert {
			out.rows = append(out.rows, t.rows[i])
			out.ids = append(out.ids, t.ids[i])
		}
	}
	return out
}
