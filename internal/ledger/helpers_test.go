package ledger

import (
	"sort"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/dvloznov/cashledger/internal/domain"
	"github.com/shopspring/decimal"
)

func date(s string) civil.Date {
	d, err := civil.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tx(desc, amt, account, day string) domain.Transaction {
	return domain.Transaction{
		Description:         desc,
		OriginalDescription: strings.ToUpper(desc),
		Category:            "Uncategorized",
		Account:             account,
		Amount:              amount(amt),
		Date:                date(day),
	}
}

func newTable(txs ...domain.Transaction) Table {
	return MustNewTable(txs)
}

func descriptions(t Table) []string {
	out := make([]string, t.Len())
	for i := 0; i < t.Len(); i++ {
		out[i] = t.Row(i).Description
	}
	return out
}

func idSet(t Table) map[int]bool {
	out := make(map[int]bool, t.Len())
	for _, id := range t.RowIDs() {
		out[id] = true
	}
	return out
}

func sameIDs(a, b Table) bool {
	x, y := a.RowIDs(), b.RowIDs()
	sort.Ints(x)
	sort.Ints(y)
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// assertPartition checks that a and b are disjoint and together hold every
// row of whole.
func assertPartition(t *testing.T, whole, a, b Table) {
	t.Helper()
	ia, ib := idSet(a), idSet(b)
	for id := range ia {
		if ib[id] {
			t.Fatalf("row %d is on both sides of the partition", id)
		}
	}
	if len(ia)+len(ib) != whole.Len() {
		t.Fatalf("partition sizes %d + %d != %d", len(ia), len(ib), whole.Len())
	}
	for _, id := range whole.RowIDs() {
		if !ia[id] && !ib[id] {
			t.Fatalf("row %d is missing from the partition", id)
		}
	}
}

// assertOrdered checks that sub keeps the relative order of whole.
func assertOrdered(t *testing.T, whole, sub Table) {
	t.Helper()
	pos := make(map[int]int)
	for i, id := range whole.RowIDs() {
		pos[id] = i
	}
	last := -1
	for _, id := range sub.RowIDs() {
		p, ok := pos[id]
		if !ok {
			t.Fatalf("row %d is not in the source table", id)
		}
		if p <= last {
			t.Fatalf("row %d is out of order", id)
		}
		last = p
	}
}

var (
	fakeAccounts   = []string{"Checking", "Savings", "Visa", "Brokerage"}
	fakeCategories = []string{"Groceries", "Rent", "Transfer", "Paycheck", ""}
)

// randomTable builds a reproducible table with a mix of incomes, expenses,
// zero amounts and planted transfer pairs.
func randomTable(t *testing.T, seed int64, n int) Table {
	t.Helper()
	f := gofakeit.New(seed)
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)

	var txs []domain.Transaction
	for len(txs) < n {
		cents := int64(f.Number(-50000, 50000))
		if f.Number(0, 9) == 0 {
			cents = 0
		}
		row := domain.Transaction{
			Description:         f.Company(),
			OriginalDescription: strings.ToUpper(f.Company()),
			Category:            f.RandomString(fakeCategories),
			Account:             f.RandomString(fakeAccounts),
			Amount:              decimal.New(cents, -2),
			Date:                civil.DateOf(f.DateRange(start, end)),
			Extra:               map[string]string{"notes": f.Word()},
		}
		txs = append(txs, row)

		if f.Number(0, 4) == 0 && cents != 0 {
			other := row
			other.Amount = row.Amount.Neg()
			other.Account = fakeAccounts[(indexOf(fakeAccounts, row.Account)+1)%len(fakeAccounts)]
			other.Date = row.Date.AddDays(f.Number(0, 3))
			other.Category = "Transfer"
			txs = append(txs, other)
		}
	}

	table, err := NewTable(txs)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func indexOf(values []string, v string) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return -1
}
