package main

import (
	"flag"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/cashledger/internal/ledger"
	"github.com/shopspring/decimal"
)

type sourceFlags struct {
	files  string
	format string
	bqFrom string
	bqTo   string
}

func (s *sourceFlags) register(fs *flag.FlagSet, defaultFormat string) {
	fs.StringVar(&s.files, "file", "", "Comma-separated CSV exports (local paths or gs:// URIs)")
	fs.StringVar(&s.format, "format", defaultFormat, "Export layout: auto, mint, tiller or ledger")
	fs.StringVar(&s.bqFrom, "bq-from", "", "Load stored transactions from this date (YYYY-MM-DD) instead of files")
	fs.StringVar(&s.bqTo, "bq-to", "", "Last date to load from BigQuery (default today)")
}

type filterFlags struct {
	search      string
	accountLike string
	accounts    string
	categories  string
	after       string
	before      string
	year        int
	lastWeeks   int
	above       string
	below       string
	kind        string
	invert      bool

	excludeTransfers bool
	window           int
	allowInternal    bool
}

func (f *filterFlags) register(fs *flag.FlagSet, defaultWindow int) {
	fs.StringVar(&f.search, "search", "", "Keep rows whose description matches this pattern (case-insensitive)")
	fs.StringVar(&f.accountLike, "account-like", "", "Keep rows whose account matches this pattern")
	fs.StringVar(&f.accounts, "accounts", "", "Keep rows in these comma-separated accounts")
	fs.StringVar(&f.categories, "categories", "", "Keep rows in these comma-separated categories")
	fs.StringVar(&f.after, "after", "", "Keep rows dated on or after this date")
	fs.StringVar(&f.before, "before", "", "Keep rows dated before this date")
	fs.IntVar(&f.year, "year", 0, "Keep rows of this calendar year")
	fs.IntVar(&f.lastWeeks, "last-weeks", 0, "Keep rows of the last N weeks")
	fs.StringVar(&f.above, "above", "", "Keep rows with amount >= this value")
	fs.StringVar(&f.below, "below", "", "Keep rows with amount < this value")
	fs.StringVar(&f.kind, "kind", "", "Keep only income or expenses")
	fs.BoolVar(&f.invert, "invert", false, "Invert the -search, -account-like, -accounts and -categories filters")
	fs.BoolVar(&f.excludeTransfers, "exclude-transfers", false, "Drop rows that are one side of a transfer")
	fs.IntVar(&f.window, "window", defaultWindow, "Transfer matching window in days")
	fs.BoolVar(&f.allowInternal, "allow-internal", false, "Let transfers pair within a single account")
}

func (f *filterFlags) transferOptions() []ledger.TransferOption {
	opts := []ledger.TransferOption{ledger.WithTimeWindow(f.window)}
	if f.allowInternal {
		opts = append(opts, ledger.AllowInternal())
	}
	return opts
}

// apply runs the selected filters as one query.
func (f *filterFlags) apply(t ledger.Table, today civil.Date) (ledger.Table, error) {
	after, err := optionalDate("after", f.after)
	if err != nil {
		return ledger.Table{}, err
	}
	before, err := optionalDate("before", f.before)
	if err != nil {
		return ledger.Table{}, err
	}
	above, err := optionalAmount("above", f.above)
	if err != nil {
		return ledger.Table{}, err
	}
	below, err := optionalAmount("below", f.below)
	if err != nil {
		return ledger.Table{}, err
	}

	q := ledger.From(t)
	if f.excludeTransfers {
		q = q.Transfers(true, f.transferOptions()...)
	}
	switch f.kind {
	case "":
	case "income":
		q = q.Income()
	case "expenses":
		q = q.Expenses()
	default:
		return ledger.Table{}, fmt.Errorf("invalid -kind %q: must be income or expenses", f.kind)
	}
	if f.search != "" {
		q = q.Search(f.search, f.invert)
	}
	if f.accountLike != "" {
		q = q.AccountLike(f.accountLike, f.invert)
	}
	if list := splitList(f.accounts); len(list) > 0 {
		q = q.InAccounts(list, f.invert)
	}
	if list := splitList(f.categories); len(list) > 0 {
		q = q.InCategories(list, f.invert)
	}
	if after != nil || before != nil {
		q = q.When(after, before, false)
	}
	if f.year != 0 {
		q = q.InYear(f.year)
	}
	if f.lastWeeks > 0 {
		q = q.LastWeeks(f.lastWeeks, today)
	}
	if above != nil || below != nil {
		q = q.WithAmount(above, below, false)
	}
	return q.Result()
}

func optionalDate(name, s string) (*civil.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return &d, nil
}

func optionalAmount(name, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid -%s: %w", name, err)
	}
	return &d, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
