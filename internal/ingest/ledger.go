package ingest

import (
	"fmt"

	"github.com/dvloznov/cashledger/internal/domain"
	"github.com/dvloznov/cashledger/internal/frame"
	"github.com/dvloznov/cashledger/internal/ledger"
)

// ledgerColumns reads back files written from Table.Frame(), so categorized
// exports can be loaded again.
var ledgerColumns = columnMap{
	date:                ledger.ColumnDate,
	description:         ledger.ColumnDescription,
	originalDescription: ledger.ColumnOriginalDescription,
	category:            ledger.ColumnCategory,
	account:             ledger.ColumnAccount,
	amount:              ledger.ColumnAmount,
}

func normalizeLedger(f frame.Frame) ([]domain.Transaction, error) {
	txs, err := ledgerColumns.normalize(f, nil)
	if err != nil {
		return nil, fmt.Errorf("normalizeLedger: %w", err)
	}
	return txs, nil
}
