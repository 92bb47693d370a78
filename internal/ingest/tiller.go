package ingest

import (
	"fmt"

	"github.com/dvloznov/cashledger/internal/domain"
	"github.com/dvloznov/cashledger/internal/frame"
)

// Tiller amounts are already signed; Month and Week are derived from Date
// and Transaction ID is sheet-internal.
var tillerColumns = columnMap{
	date:                "Date",
	description:         "Description",
	originalDescription: "Full Description",
	category:            "Category",
	account:             "Account",
	amount:              "Amount",
	extras: map[string]string{
		"Account #":    "account_number",
		"Institution":  "institution",
		"Check Number": "check_number",
		"Date Added":   "date_added",
	},
	drop: map[string]bool{
		"Month":          true,
		"Week":           true,
		"Transaction ID": true,
	},
}

func normalizeTiller(f frame.Frame) ([]domain.Transaction, error) {
	txs, err := tillerColumns.normalize(f, nil)
	if err != nil {
		return nil, fmt.Errorf("normalizeTiller: %w", err)
	}
	return txs, nil
}
