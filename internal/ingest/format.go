package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/cashledger/internal/domain"
	"github.com/dvloznov/cashledger/internal/frame"
	"github.com/shopspring/decimal"
)

// Format names a CSV export layout.
type Format string

const (
	// FormatAuto detects the layout from the header line.
	FormatAuto Format = "auto"
	// FormatMint is a Mint "Export all transactions" file.
	FormatMint Format = "mint"
	// FormatTiller is a Tiller Money transactions sheet saved as CSV.
	FormatTiller Format = "tiller"
	// FormatLedger is the canonical layout written by Table.Frame().WriteCSV.
	FormatLedger Format = "ledger"
)

// ErrUnknownFormat is returned when a header matches no supported layout.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat converts a flag or config value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatMint, FormatTiller, FormatLedger:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// DetectFormat guesses the layout of f from its columns.
func DetectFormat(f frame.Frame) (Format, error) {
	has := func(col string) bool { return f.ColumnIndex(col) >= 0 }

	switch {
	case has("Transaction Type") && has("Account Name"):
		return FormatMint, nil
	case has("Full Description") || has("Account #"):
		return FormatTiller, nil
	case has("original_description") && has("amount") && has("date"):
		return FormatLedger, nil
	}
	return "", fmt.Errorf("%w: columns %v", ErrUnknownFormat, f.Columns())
}

// Normalizer turns the rows of one export layout into transactions.
type Normalizer interface {
	Normalize(f frame.Frame) ([]domain.Transaction, error)
}

// NormalizerFunc adapts a function to Normalizer.
type NormalizerFunc func(f frame.Frame) ([]domain.Transaction, error)

// Normalize implements Normalizer.
func (fn NormalizerFunc) Normalize(f frame.Frame) ([]domain.Transaction, error) {
	return fn(f)
}

// NormalizerFor returns the normalizer of a concrete format.
func NormalizerFor(format Format) (Normalizer, error) {
	switch format {
	case FormatMint:
		return NormalizerFunc(normalizeMint), nil
	case FormatTiller:
		return NormalizerFunc(normalizeTiller), nil
	case FormatLedger:
		return NormalizerFunc(normalizeLedger), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// columnMap describes how one export layout maps onto a transaction.
type columnMap struct {
	date                string
	description         string
	originalDescription string
	category            string
	account             string
	amount              string
	// renamed extra columns, source name -> extra key
	extras map[string]string
	// columns that are dropped entirely
	drop map[string]bool
}

func (m columnMap) isMapped(col string) bool {
	switch col {
	case m.date, m.description, m.originalDescription, m.category, m.account, m.amount:
		return true
	}
	_, renamed := m.extras[col]
	return renamed || m.drop[col]
}

// normalize applies m to every row; adjust may rewrite a row after the
// common mapping (sign conventions and the like).
func (m columnMap) normalize(f frame.Frame, adjust func(i int, tx *domain.Transaction) error) ([]domain.Transaction, error) {
	for _, col := range []string{m.date, m.amount} {
		if f.ColumnIndex(col) < 0 {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	txs := make([]domain.Transaction, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		get := func(col string) string {
			v, _ := f.Value(i, col)
			return strings.TrimSpace(v)
		}

		d, err := parseDate(get(m.date))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		amt, err := parseAmount(get(m.amount))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		tx := domain.Transaction{
			Date:                d,
			Amount:              amt,
			Description:         get(m.description),
			OriginalDescription: get(m.originalDescription),
			Category:            get(m.category),
			Account:             get(m.account),
		}
		if tx.OriginalDescription == "" {
			tx.OriginalDescription = tx.Description
		}

		for _, col := range f.Columns() {
			key, renamed := m.extras[col]
			switch {
			case renamed:
			case m.isMapped(col):
				continue
			default:
				key = extraKey(col)
			}
			if v := get(col); v != "" {
				if tx.Extra == nil {
					tx.Extra = make(map[string]string)
				}
				tx.Extra[key] = v
			}
		}

		if adjust != nil {
			if err := adjust(i, &tx); err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

var dateLayouts = []string{"2006-01-02", "1/2/2006", "1/2/06"}

func parseDate(s string) (civil.Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, fmt.Errorf("unparseable date %q", s)
}

// parseAmount accepts plain decimals and spreadsheet currency text such as
// "$1,234.56", "-$12.00" or "(12.00)".
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		negative = true
		clean = clean[1 : len(clean)-1]
	}
	if clean == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unparseable amount %q", s)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// extraKey turns a spreadsheet header into a snake_case extra key.
func extraKey(col string) string {
	col = strings.TrimSpace(strings.ToLower(col))
	col = strings.ReplaceAll(col, "#", "number")
	return strings.Join(strings.Fields(col), "_")
}
