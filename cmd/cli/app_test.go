package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/cashledger/internal/config"
	infra "github.com/dvloznov/cashledger/internal/infra/bigquery"
	"github.com/dvloznov/cashledger/internal/frame"
	"github.com/dvloznov/cashledger/internal/ledger"
	"github.com/rs/zerolog"
)

const ledgerCSV = `date,description,original_description,category,account,amount
2020-01-03,Whole Foods,WHOLEFDS MKT,Uncategorized,Visa,-54.10
2020-01-15,Acme Payroll,ACME DIRECT DEP,Paycheck,Checking,2500
2020-01-16,To savings,ONLINE TRANSFER,Uncategorized,Checking,-500
2020-01-17,From checking,ONLINE TRANSFER,Uncategorized,Savings,500
2020-02-10,Coffee,STARBUCKS,Uncategorized,Visa,-4.50
`

const rulesYAML = `rules:
  - name: coffee
    search: coffee|starbucks
    category: Dining
  - name: groceries
    search: whole foods
    category: Groceries
  - name: savings
    search: savings|checking
    category: Savings
`

// MockFetcher serves fixed contents by location.
type MockFetcher struct {
	files map[string]string
}

func (m *MockFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	body, ok := m.files[location]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", location)
	}
	return []byte(body), nil
}

// MockStorageService records uploads.
type MockStorageService struct {
	FetchFromGCSFunc func(ctx context.Context, gcsURI string) ([]byte, error)
	UploadReaderFunc func(ctx context.Context, gcsURI string, r io.Reader, contentType string) error
	UploadFileFunc   func(ctx context.Context, bucketName, objectName, filePath string) error
}

func (m *MockStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	if m.FetchFromGCSFunc != nil {
		return m.FetchFromGCSFunc(ctx, gcsURI)
	}
	return nil, nil
}

func (m *MockStorageService) UploadReader(ctx context.Context, gcsURI string, r io.Reader, contentType string) error {
	if m.UploadReaderFunc != nil {
		return m.UploadReaderFunc(ctx, gcsURI, r, contentType)
	}
	return nil
}

func (m *MockStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	if m.UploadFileFunc != nil {
		return m.UploadFileFunc(ctx, bucketName, objectName, filePath)
	}
	return nil
}

// MockTransactionRepository is a mock implementation of infra.TransactionRepository.
type MockTransactionRepository struct {
	QueryTransactionsByDateRangeFunc func(ctx context.Context, from, to civil.Date) ([]*infra.TransactionRow, error)
}

func (m *MockTransactionRepository) QueryTransactionsByDateRange(ctx context.Context, from, to civil.Date) ([]*infra.TransactionRow, error) {
	if m.QueryTransactionsByDateRangeFunc != nil {
		return m.QueryTransactionsByDateRangeFunc(ctx, from, to)
	}
	return nil, nil
}

func newTestApp(files map[string]string) (*app, *bytes.Buffer, *MockStorageService) {
	out := &bytes.Buffer{}
	storage := &MockStorageService{}
	a := &app{
		cfg: &config.Config{
			DefaultFormat:      "auto",
			LoadConcurrency:    2,
			TransferWindowDays: ledger.DefaultTransferWindow,
		},
		log:     zerolog.Nop(),
		stdout:  out,
		storage: storage,
		fetcher: &MockFetcher{files: files},
		openRepo: func(ctx context.Context) (infra.TransactionRepository, io.Closer, error) {
			return nil, nil, errors.New("no repository in tests")
		},
		today: func() civil.Date { return civil.Date{Year: 2020, Month: 2, Day: 15} },
	}
	return a, out, storage
}

func defaultFiles() map[string]string {
	return map[string]string{"ledger.csv": ledgerCSV, "rules.yaml": rulesYAML}
}

// fieldsOf returns the whitespace-separated fields of the first output line
// starting with prefix.
func fieldsOf(t *testing.T, output, prefix string) []string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.Fields(line)
		}
	}
	t.Fatalf("no line starting with %q in:\n%s", prefix, output)
	return nil
}

func readCSVString(t *testing.T, s string) frame.Frame {
	t.Helper()
	f, err := frame.ReadCSV(strings.NewReader(s))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	return f
}

func TestRun_UnknownCommand(t *testing.T) {
	a, _, _ := newTestApp(defaultFiles())
	if err := a.run(context.Background(), "frobnicate", nil); !errors.Is(err, errUnknownCommand) {
		t.Errorf("run error = %v, want errUnknownCommand", err)
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		line     string
		want     []string
		expenses string
	}{
		{"by category", []string{"-file", "ledger.csv"}, "Paycheck", []string{"Paycheck", "1", "2500.00"}, "-558.60"},
		{"by account", []string{"-file", "ledger.csv", "-by", "account"}, "Visa", []string{"Visa", "2", "-58.60"}, "-558.60"},
		{"by month", []string{"-file", "ledger.csv", "-by", "month"}, "2020-02", []string{"2020-02-01", "1", "-4.50"}, "-558.60"},
		{"without transfers", []string{"-file", "ledger.csv", "-exclude-transfers"}, "Uncategorized", []string{"Uncategorized", "2", "-58.60"}, "-58.60"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out, _ := newTestApp(defaultFiles())
			if err := a.runSummary(context.Background(), tt.args); err != nil {
				t.Fatalf("runSummary failed: %v", err)
			}

			got := fieldsOf(t, out.String(), tt.line)
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("line = %v, want %v", got, tt.want)
			}
			if exp := fieldsOf(t, out.String(), "EXPENSES"); exp[2] != tt.expenses {
				t.Errorf("EXPENSES = %v, want total %s", exp, tt.expenses)
			}
			if net := fieldsOf(t, out.String(), "NET"); net[2] != "2441.40" {
				t.Errorf("NET = %v, want 2441.40", net)
			}
		})
	}
}

func TestSummary_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid grouping", []string{"-file", "ledger.csv", "-by", "weekday"}},
		{"no source", nil},
		{"both sources", []string{"-file", "ledger.csv", "-bq-from", "2020-01-01"}},
		{"missing file", []string{"-file", "nope.csv"}},
		{"invalid kind", []string{"-file", "ledger.csv", "-kind", "refunds"}},
		{"invalid date", []string{"-file", "ledger.csv", "-after", "2020-13-01"}},
		{"invalid amount", []string{"-file", "ledger.csv", "-above", "lots"}},
		{"invalid pattern", []string{"-file", "ledger.csv", "-search", "("}},
		{"unknown flag", []string{"-colour"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, _ := newTestApp(defaultFiles())
			if err := a.runSummary(context.Background(), tt.args); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestSearch(t *testing.T) {
	a, out, _ := newTestApp(defaultFiles())
	err := a.runSearch(context.Background(), []string{"-file", "ledger.csv", "-sort", "amount", "coffee|whole"})
	if err != nil {
		t.Fatalf("runSearch failed: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "2 matches, total -58.60") {
		t.Errorf("missing summary line in:\n%s", output)
	}
	if strings.Index(output, "Whole Foods") > strings.Index(output, "Coffee") {
		t.Errorf("rows not sorted by amount:\n%s", output)
	}
	if strings.Contains(output, "Payroll") {
		t.Errorf("non-matching row printed:\n%s", output)
	}
}

func TestSearch_InvertAndLimit(t *testing.T) {
	a, out, _ := newTestApp(defaultFiles())
	err := a.runSearch(context.Background(), []string{"-file", "ledger.csv", "-search", "transfer", "-invert", "-limit", "1"})
	if err != nil {
		t.Fatalf("runSearch failed: %v", err)
	}
	if !strings.Contains(out.String(), "3 matches") {
		t.Errorf("output:\n%s", out.String())
	}
	// Header, one row, blank line, summary.
	if lines := strings.Count(out.String(), "\n"); lines != 4 {
		t.Errorf("printed %d lines, want 4:\n%s", lines, out.String())
	}
}

func TestSearch_RequiresPattern(t *testing.T) {
	a, _, _ := newTestApp(defaultFiles())
	if err := a.runSearch(context.Background(), []string{"-file", "ledger.csv"}); err == nil {
		t.Error("expected error without a pattern")
	}
}

func TestTransfers(t *testing.T) {
	a, out, _ := newTestApp(defaultFiles())
	if err := a.runTransfers(context.Background(), []string{"-file", "ledger.csv"}); err != nil {
		t.Fatalf("runTransfers failed: %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "2 transfer legs, net 0.00") {
		t.Errorf("output:\n%s", output)
	}
	if !strings.Contains(output, "To savings") || !strings.Contains(output, "From checking") {
		t.Errorf("transfer legs missing:\n%s", output)
	}

	a, out, _ = newTestApp(defaultFiles())
	if err := a.runTransfers(context.Background(), []string{"-file", "ledger.csv", "-accounts", "Visa"}); err != nil {
		t.Fatalf("runTransfers failed: %v", err)
	}
	if !strings.Contains(out.String(), "0 transfer legs") {
		t.Errorf("filtered output:\n%s", out.String())
	}
}

func TestTransfers_Errors(t *testing.T) {
	a, _, _ := newTestApp(defaultFiles())

	err := a.runTransfers(context.Background(), []string{"-file", "ledger.csv", "-window", "0"})
	if !errors.Is(err, ledger.ErrInvalidTimeWindow) {
		t.Errorf("window 0 error = %v, want ErrInvalidTimeWindow", err)
	}
	if err := a.runTransfers(context.Background(), []string{"-file", "ledger.csv", "-exclude-transfers"}); err == nil {
		t.Error("expected error for -exclude-transfers")
	}
}

func TestCategorize(t *testing.T) {
	a, out, _ := newTestApp(defaultFiles())
	err := a.runCategorize(context.Background(), []string{"-file", "ledger.csv", "-rules", "rules.yaml"})
	if err != nil {
		t.Fatalf("runCategorize failed: %v", err)
	}

	f := readCSVString(t, out.String())
	want := []string{"Groceries", "Paycheck", "Savings", "Savings", "Dining"}
	if f.Len() != len(want) {
		t.Fatalf("wrote %d rows, want %d", f.Len(), len(want))
	}
	for i, w := range want {
		if got, _ := f.Value(i, ledger.ColumnCategory); got != w {
			t.Errorf("row %d category = %q, want %q", i, got, w)
		}
	}
}

func TestCategorize_UploadsToGCS(t *testing.T) {
	a, _, storage := newTestApp(defaultFiles())
	a.cfg.RulesFile = "rules.yaml"

	var gotURI, gotType, body string
	storage.UploadReaderFunc = func(ctx context.Context, gcsURI string, r io.Reader, contentType string) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		gotURI, gotType, body = gcsURI, contentType, string(data)
		return nil
	}

	err := a.runCategorize(context.Background(), []string{"-file", "ledger.csv", "-out", "gs://reports/categorized.csv"})
	if err != nil {
		t.Fatalf("runCategorize failed: %v", err)
	}
	if gotURI != "gs://reports/categorized.csv" || gotType != "text/csv" {
		t.Errorf("uploaded to %s as %s", gotURI, gotType)
	}
	if !strings.Contains(body, "Dining") {
		t.Errorf("uploaded body missing recategorized rows:\n%s", body)
	}
}

func TestCategorize_Errors(t *testing.T) {
	files := defaultFiles()
	files["bad.yaml"] = "rules:\n  - name: nothing\n"

	tests := []struct {
		name string
		args []string
	}{
		{"no rules file", []string{"-file", "ledger.csv"}},
		{"missing rules file", []string{"-file", "ledger.csv", "-rules", "missing.yaml"}},
		{"invalid rules", []string{"-file", "ledger.csv", "-rules", "bad.yaml"}},
		{"no source", []string{"-rules", "rules.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, out, _ := newTestApp(files)
			if err := a.runCategorize(context.Background(), tt.args); err == nil {
				t.Error("expected error, got nil")
			}
			if out.Len() != 0 {
				t.Errorf("wrote output on failure:\n%s", out.String())
			}
		})
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")

	a, _, storage := newTestApp(defaultFiles())
	a.cfg.ExportBucket = "ledger-exports"

	var bucket, object, uploaded string
	storage.UploadFileFunc = func(ctx context.Context, bucketName, objectName, filePath string) error {
		bucket, object, uploaded = bucketName, objectName, filePath
		return nil
	}

	err := a.runExport(context.Background(), []string{
		"-file", "ledger.csv", "-kind", "expenses", "-sort", "amount", "-out", path, "-upload",
	})
	if err != nil {
		t.Fatalf("runExport failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	f := readCSVString(t, string(data))
	if f.Len() != 3 {
		t.Fatalf("exported %d rows, want 3", f.Len())
	}
	if first, _ := f.Value(0, ledger.ColumnAmount); first != "-500" {
		t.Errorf("first amount = %s, want -500", first)
	}
	if bucket != "ledger-exports" || object != "export.csv" || uploaded != path {
		t.Errorf("UploadFile(%s, %s, %s)", bucket, object, uploaded)
	}
}

func TestExport_Sample(t *testing.T) {
	a, out, _ := newTestApp(defaultFiles())
	if err := a.runExport(context.Background(), []string{"-file", "ledger.csv", "-sample", "2", "-seed", "7"}); err != nil {
		t.Fatalf("runExport failed: %v", err)
	}
	first := out.String()
	if f := readCSVString(t, first); f.Len() != 2 {
		t.Errorf("sampled %d rows, want 2", f.Len())
	}

	b, out2, _ := newTestApp(defaultFiles())
	if err := b.runExport(context.Background(), []string{"-file", "ledger.csv", "-sample", "2", "-seed", "7"}); err != nil {
		t.Fatalf("runExport failed: %v", err)
	}
	if out2.String() != first {
		t.Error("same seed produced a different sample")
	}
}

func TestExport_UploadErrors(t *testing.T) {
	tests := []struct {
		name   string
		bucket string
		out    string
	}{
		{"no bucket", "", "export.csv"},
		{"stdout", "ledger-exports", "-"},
		{"gcs destination", "ledger-exports", "gs://ledger-exports/x.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, _ := newTestApp(defaultFiles())
			a.cfg.ExportBucket = tt.bucket
			err := a.runExport(context.Background(), []string{"-file", "ledger.csv", "-out", tt.out, "-upload"})
			if err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoad_BigQuery(t *testing.T) {
	a, out, _ := newTestApp(nil)

	var gotFrom, gotTo civil.Date
	closed := false
	a.openRepo = func(ctx context.Context) (infra.TransactionRepository, io.Closer, error) {
		repo := &MockTransactionRepository{
			QueryTransactionsByDateRangeFunc: func(ctx context.Context, from, to civil.Date) ([]*infra.TransactionRow, error) {
				gotFrom, gotTo = from, to
				return []*infra.TransactionRow{
					{
						TransactionID:   "t1",
						AccountID:       "acc-1",
						AccountName:     bigquery.NullString{StringVal: "Current", Valid: true},
						TransactionDate: civil.Date{Year: 2020, Month: 2, Day: 3},
						Amount:          big.NewRat(-1250, 100),
						Currency:        "GBP",
						RawDescription:  "TESCO STORES",
						CategoryName:    bigquery.NullString{StringVal: "Groceries", Valid: true},
					},
				}, nil
			},
		}
		return repo, closerFunc(func() error { closed = true; return nil }), nil
	}

	if err := a.runSummary(context.Background(), []string{"-bq-from", "2020-02-01", "-by", "account"}); err != nil {
		t.Fatalf("runSummary failed: %v", err)
	}
	if gotFrom.String() != "2020-02-01" || gotTo != a.today() {
		t.Errorf("queried %s..%s", gotFrom, gotTo)
	}
	if !closed {
		t.Error("repository was not closed")
	}
	if got := fieldsOf(t, out.String(), "Current"); got[2] != "-12.50" {
		t.Errorf("Current line = %v", got)
	}
}

func TestLoad_BigQueryErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad from", []string{"-bq-from", "yesterday"}},
		{"bad to", []string{"-bq-from", "2020-01-01", "-bq-to", "soon"}},
		{"open fails", []string{"-bq-from", "2020-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, _ := newTestApp(nil)
			if err := a.runSummary(context.Background(), tt.args); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRun_LogsThroughContext(t *testing.T) {
	a, _, _ := newTestApp(defaultFiles())
	var logs bytes.Buffer
	a.log = zerolog.New(&logs)

	err := a.run(context.Background(), "categorize", []string{
		"-file", "ledger.csv", "-rules", "rules.yaml", "-out", "gs://reports/2020/categorized.csv",
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	output := logs.String()
	for _, want := range []string{
		`"command":"categorize"`,
		`"source":"ledger.csv"`,
		`"rule":"coffee"`,
		`"object":"categorized.csv"`,
		"uploaded CSV",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("log output missing %s:\n%s", want, output)
		}
	}
}

func TestUsage(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCode    int
		wantHandled bool
		wantStdout  bool
	}{
		{"no command", nil, 1, true, false},
		{"help", []string{"help"}, 0, true, true},
		{"short flag", []string{"-h"}, 0, true, true},
		{"long flag", []string{"--help"}, 0, true, true},
		{"command", []string{"summary", "-h"}, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A broken environment must not get in the way of help.
			t.Setenv("LEDGER_LOG_LEVEL", "chatty")

			var stdout, stderr bytes.Buffer
			code, handled := usage(tt.args, &stdout, &stderr)
			if code != tt.wantCode || handled != tt.wantHandled {
				t.Errorf("usage(%v) = %d, %v, want %d, %v", tt.args, code, handled, tt.wantCode, tt.wantHandled)
			}
			if got := strings.Contains(stdout.String(), "Usage:"); got != tt.wantStdout {
				t.Errorf("usage printed to stdout = %v, want %v", got, tt.wantStdout)
			}
			if !tt.wantHandled && stdout.Len()+stderr.Len() != 0 {
				t.Errorf("usage printed for a real command")
			}
		})
	}
}
