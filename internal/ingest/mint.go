package ingest

import (
	"fmt"
	"strings"

	"github.com/dvloznov/cashledger/internal/domain"
	"github.com/dvloznov/cashledger/internal/frame"
)

// Mint exports every amount as a positive number and carries the direction
// in "Transaction Type".
var mintColumns = columnMap{
	date:                "Date",
	description:         "Description",
	originalDescription: "Original Description",
	category:            "Category",
	account:             "Account Name",
	amount:              "Amount",
	extras: map[string]string{
		"Labels": "labels",
		"Notes":  "notes",
	},
	drop: map[string]bool{"Transaction Type": true},
}

func normalizeMint(f frame.Frame) ([]domain.Transaction, error) {
	if f.ColumnIndex("Transaction Type") < 0 {
		return nil, fmt.Errorf("normalizeMint: missing column %q", "Transaction Type")
	}
	txs, err := mintColumns.normalize(f, func(i int, tx *domain.Transaction) error {
		kind, _ := f.Value(i, "Transaction Type")
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "debit":
			tx.Amount = tx.Amount.Abs().Neg()
		case "credit":
			tx.Amount = tx.Amount.Abs()
		default:
			return fmt.Errorf("unknown transaction type %q", kind)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("normalizeMint: %w", err)
	}
	return txs, nil
}
