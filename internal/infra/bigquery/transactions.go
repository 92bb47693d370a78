package bigquery

import (
	"math/big"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// TransactionRow is the slice of finance.transactions the ledger reads,
// joined with the owning account's display name.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	AccountID     string `bigquery:"account_id"`     // NULLABLE

	AccountName bigquery.NullString `bigquery:"account_name"` // from finance.accounts

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Currency string   `bigquery:"currency"` // REQUIRED STRING

	RawDescription        string              `bigquery:"raw_description"`        // REQUIRED STRING
	NormalizedDescription bigquery.NullString `bigquery:"normalized_description"` // NULLABLE STRING

	CategoryName    bigquery.NullString `bigquery:"category_name"`    // NULLABLE
	SubcategoryName bigquery.NullString `bigquery:"subcategory_name"` // NULLABLE

	IsInternalTransfer bigquery.NullBool `bigquery:"is_internal_transfer"`
}
