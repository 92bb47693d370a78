package ledger

import (
	"fmt"

	"github.com/dvloznov/cashledger/internal/domain"
)

type recategorizeConfig struct {
	validator CategoryValidator
}

// RecategorizeOption tunes Recategorize.
type RecategorizeOption func(*recategorizeConfig)

// WithValidator replaces the default NonBlankCategory validator.
func WithValidator(v CategoryValidator) RecategorizeOption {
	return func(c *recategorizeConfig) {
		c.validator = v
	}
}

// Recategorize returns a copy of t in which every row of subset has its
// category replaced. Rows are located by identity, never by field values, so
// subset must have been derived from t (by filtering, grouping or
// recategorizing it). The receiver is not modified.
func (t Table) Recategorize(subset Table, category string, opts ...RecategorizeOption) (Table, error) {
	rows, err := t.recategorized(subset, category, opts)
	if err != nil {
		return Table{}, err
	}
	return Table{lineage: t.lineage, rows: rows, ids: t.ids}, nil
}

// recategorized validates the request and builds the edited rows without
// touching t. Either every row is edited or an error is returned.
func (t Table) recategorized(subset Table, category string, opts []RecategorizeOption) ([]domain.Transaction, error) {
	cfg := recategorizeConfig{validator: NonBlankCategory}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validator.ValidateCategory(category); err != nil {
		return nil, err
	}

	if subset.lineage != t.lineage {
		return nil, fmt.Errorf("%w: lineage %s, base lineage %s", ErrUnrelatedSubset, subset.lineage, t.lineage)
	}

	position := make(map[int]int, len(t.ids))
	for i, id := range t.ids {
		position[id] = i
	}

	rows := append([]domain.Transaction(nil), t.rows...)
	for _, id := range subset.ids {
		i, ok := position[id]
		if !ok {
			return nil, fmt.Errorf("%w: row %d is not in the base table", ErrUnrelatedSubset, id)
		}
		rows[i].Category = category
	}
	return rows, nil
}

// MutableTable is a handle whose stored table can be recategorized in place.
// Tables previously read through Table() are unaffected by later edits.
//
// MutableTable is not safe for concurrent use: a Recategorize call must not
// overlap any other call on the same handle.
type MutableTable struct {
	table Table
}

// NewMutableTable wraps t in an editable handle. Subsets derived from t or
// from the handle's Table() can be applied to it.
func NewMutableTable(t Table) *MutableTable {
	return &MutableTable{table: t}
}

// Table returns the current state of the handle.
func (m *MutableTable) Table() Table {
	return m.table
}

// Recategorize replaces the category of every row of subset in the handle's
// stored table. Edits are staged on a copy and published at once, so a
// failed call leaves the handle as it was.
func (m *MutableTable) Recategorize(subset Table, category string, opts ...RecategorizeOption) error {
	rows, err := m.table.recategorized(subset, category, opts)
	if err != nil {
		return err
	}
	m.table = Table{lineage: m.table.lineage, rows: rows, ids: m.table.ids}
	return nil
}
