package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/cashledger/internal/ledger"
)

// TransactionRepository reads stored transactions.
type TransactionRepository interface {
	QueryTransactionsByDateRange(ctx context.Context, from, to civil.Date) ([]*TransactionRow, error)
}

// BigQueryTransactionRepository is the concrete implementation of
// TransactionRepository. It holds a shared BigQuery client to avoid creating
// a new connection for each operation.
type BigQueryTransactionRepository struct {
	client  *bigquery.Client
	dataset string
}

var _ TransactionRepository = (*BigQueryTransactionRepository)(nil)

// NewBigQueryTransactionRepository creates a repository over dataset in
// projectID.
func NewBigQueryTransactionRepository(ctx context.Context, projectID, dataset string) (*BigQueryTransactionRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryTransactionRepository: creating client: %w", err)
	}
	return &BigQueryTransactionRepository{client: client, dataset: dataset}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryTransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// QueryTransactionsByDateRange delegates to QueryTransactionsByDateRangeWithClient with the shared client.
func (r *BigQueryTransactionRepository) QueryTransactionsByDateRange(ctx context.Context, from, to civil.Date) ([]*TransactionRow, error) {
	return QueryTransactionsByDateRangeWithClient(ctx, r.client, r.dataset, from, to)
}

// LoadTable reads the transactions dated in [from, to] into a base table.
func LoadTable(ctx context.Context, repo TransactionRepository, from, to civil.Date) (ledger.Table, error) {
	if to.Before(from) {
		return ledger.Table{}, fmt.Errorf("LoadTable: %w: range %s..%s is empty", ledger.ErrInvalidDate, from, to)
	}
	rows, err := repo.QueryTransactionsByDateRange(ctx, from, to)
	if err != nil {
		return ledger.Table{}, err
	}
	t, err := RowsToTable(rows)
	if err != nil {
		return ledger.Table{}, fmt.Errorf("LoadTable: %w", err)
	}
	return t, nil
}
