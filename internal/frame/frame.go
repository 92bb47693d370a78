// Package frame is the generic, schema-agnostic table primitive used for the
// operations the ledger engine does not model itself: slicing, sorting,
// sampling and delimited import/export.
package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"
)

// Frame is an immutable grid of string cells with named columns.
// Every method returns a new Frame; the receiver is never modified.
type Frame struct {
	columns []string
	records [][]string
}

// New builds a frame, copying the inputs. Every record must have exactly
// one cell per column.
func New(columns []string, records [][]string) (Frame, error) {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return Frame{}, fmt.Errorf("frame.New: duplicate column %q", c)
		}
		seen[c] = true
	}

	out := make([][]string, len(records))
	for i, rec := range records {
		if len(rec) != len(columns) {
			return Frame{}, fmt.Errorf("frame.New: record %d has %d cells, want %d", i, len(rec), len(columns))
		}
		out[i] = append([]string(nil), rec...)
	}

	return Frame{
		columns: append([]string(nil), columns...),
		records: out,
	}, nil
}

// Columns returns the column names in order.
func (f Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Len returns the number of records.
func (f Frame) Len() int {
	return len(f.records)
}

// ColumnIndex returns the position of a column, or -1.
func (f Frame) ColumnIndex(name string) int {
	for i, c := range f.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Record returns a copy of record i.
func (f Frame) Record(i int) []string {
	return append([]string(nil), f.records[i]...)
}

// Value returns the cell at record i in the named column, and whether the
// column exists.
func (f Frame) Value(i int, column string) (string, bool) {
	idx := f.ColumnIndex(column)
	if idx < 0 {
		return "", false
	}
	return f.records[i][idx], true
}

// Head returns the first n records.
func (f Frame) Head(n int) Frame {
	return f.Slice(0, n)
}

// Slice returns records [from, to), clamped to the frame bounds.
func (f Frame) Slice(from, to int) Frame {
	if from < 0 {
		from = 0
	}
	if to > len(f.records) {
		to = len(f.records)
	}
	if from >= to {
		return Frame{columns: f.columns}
	}
	return f.pick(indexRange(from, to))
}

// SortBy returns the records stably ordered by a column. Cells that parse as
// decimals on both sides compare numerically; anything else compares as text,
// which orders ISO dates chronologically.
func (f Frame) SortBy(column string, descending bool) (Frame, error) {
	idx := f.ColumnIndex(column)
	if idx < 0 {
		return Frame{}, fmt.Errorf("frame.SortBy: unknown column %q", column)
	}

	order := indexRange(0, len(f.records))
	sort.SliceStable(order, func(a, b int) bool {
		c := compareCells(f.records[order[a]][idx], f.records[order[b]][idx])
		if descending {
			return c > 0
		}
		return c < 0
	})
	return f.pick(order), nil
}

// Sample returns n records chosen without replacement, kept in their
// original order. A nil source uses a fixed seed so output is reproducible.
func (f Frame) Sample(n int, src *rand.Rand) Frame {
	if n >= len(f.records) {
		return f.pick(indexRange(0, len(f.records)))
	}
	if n <= 0 {
		return Frame{columns: f.columns}
	}
	if src == nil {
		src = rand.New(rand.NewSource(1))
	}
	order := src.Perm(len(f.records))[:n]
	sort.Ints(order)
	return f.pick(order)
}

// WriteCSV writes a header line followed by every record.
func (f Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.columns); err != nil {
		return fmt.Errorf("frame.WriteCSV: header: %w", err)
	}
	if err := cw.WriteAll(f.records); err != nil {
		return fmt.Errorf("frame.WriteCSV: records: %w", err)
	}
	return nil
}

// ReadCSV parses a delimited file whose first line holds the column names.
func ReadCSV(r io.Reader) (Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return Frame{}, fmt.Errorf("frame.ReadCSV: %w", err)
	}
	if len(rows) == 0 {
		return Frame{}, fmt.Errorf("frame.ReadCSV: missing header line")
	}
	return New(rows[0], rows[1:])
}

func (f Frame) pick(order []int) Frame {
	out := Frame{
		columns: f.columns,
		records: make([][]string, len(order)),
	}
	for i, idx := range order {
		out.records[i] = f.records[idx]
	}
	return out
}

func indexRange(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func compareCells(a, b string) int {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA == nil && errB == nil {
		return da.Cmp(db)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
