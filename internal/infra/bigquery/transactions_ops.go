package bigquery

import (
	"context"
	"fmt"
	"strconv"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/cashledger/internal/domain"
	"github.com/dvloznov/cashledger/internal/ledger"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
)

// numericScale is the fractional precision of a BigQuery NUMERIC column.
const numericScale = 9

// QueryTransactionsByDateRangeWithClient queries transactions dated in
// [from, to] using the provided BigQuery client. Only includes transactions
// from successful parsing runs.
func QueryTransactionsByDateRangeWithClient(ctx context.Context, client *bigquery.Client, dataset string, from, to civil.Date) ([]*TransactionRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			t.transaction_id,
			t.account_id,
			a.account_name,
			t.transaction_date,
			t.amount,
			t.currency,
			t.raw_description,
			t.normalized_description,
			t.category_name,
			t.subcategory_name,
			t.is_internal_transfer
		FROM `+"`%[1]s.transactions`"+` t
		INNER JOIN `+"`%[1]s.parsing_runs`"+` pr
		  ON t.parsing_run_id = pr.parsing_run_id
		LEFT JOIN `+"`%[1]s.accounts`"+` a
		  ON t.account_id = a.account_id
		WHERE t.transaction_date >= @start_date
		  AND t.transaction_date <= @end_date
		  AND pr.status = 'SUCCESS'
		ORDER BY t.transaction_date, t.created_ts
	`, dataset))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: from},
		{Name: "end_date", Value: to},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// ToTransaction maps a stored row onto a ledger transaction. The normalized
// description is preferred for display, with the statement text kept as the
// original description.
func ToTransaction(row *TransactionRow) (domain.Transaction, error) {
	if row.Amount == nil {
		return domain.Transaction{}, fmt.Errorf("ToTransaction: %s: missing amount", row.TransactionID)
	}
	amount, err := decimal.NewFromString(row.Amount.FloatString(numericScale))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ToTransaction: %s: amount: %w", row.TransactionID, err)
	}

	tx := domain.Transaction{
		Description:         row.RawDescription,
		OriginalDescription: row.RawDescription,
		Account:             row.AccountID,
		Amount:              amount,
		Date:                row.TransactionDate,
		Extra: map[string]string{
			"transaction_id": row.TransactionID,
			"currency":       row.Currency,
		},
	}
	if row.NormalizedDescription.Valid && row.NormalizedDescription.StringVal != "" {
		tx.Description = row.NormalizedDescription.StringVal
	}
	if row.AccountName.Valid && row.AccountName.StringVal != "" {
		tx.Account = row.AccountName.StringVal
	}
	if row.CategoryName.Valid {
		tx.Category = row.CategoryName.StringVal
	}
	if row.SubcategoryName.Valid && row.SubcategoryName.StringVal != "" {
		tx.Extra["subcategory"] = row.SubcategoryName.StringVal
	}
	if row.IsInternalTransfer.Valid {
		tx.Extra["is_internal_transfer"] = strconv.FormatBool(row.IsInternalTransfer.Bool)
	}
	return tx, nil
}

// RowsToTable converts stored rows, in order, into a base table.
func RowsToTable(rows []*TransactionRow) (ledger.Table, error) {
	txs := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		tx, err := ToTransaction(r)
		if err != nil {
			return ledger.Table{}, err
		}
		txs = append(txs, tx)
	}
	return ledger.NewTable(txs)
}
