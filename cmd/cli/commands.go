package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/cashledger/internal/ledger"
	"github.com/dvloznov/cashledger/internal/logger"
	"github.com/dvloznov/cashledger/internal/rules"
)

var groupings = map[string]func(ledger.Table) ledger.GroupSet{
	"category":    ledger.Table.ByCategory,
	"account":     ledger.Table.ByAccount,
	"description": ledger.Table.ByDescription,
	"original":    ledger.Table.ByOriginalDescription,
	"year":        ledger.Table.Yearly,
	"month":       ledger.Table.Monthly,
	"week":        ledger.Table.Weekly,
	"day":         ledger.Table.Daily,
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func (a *app) runSummary(ctx context.Context, args []string) error {
	fs := newFlagSet("summary")
	var src sourceFlags
	var filters filterFlags
	src.register(fs, a.cfg.DefaultFormat)
	filters.register(fs, a.cfg.TransferWindowDays)
	by := fs.String("by", "category", "Group by: category, account, description, original, year, month, week or day")
	if err := fs.Parse(args); err != nil {
		return err
	}

	group, ok := groupings[*by]
	if !ok {
		return fmt.Errorf("summary: invalid -by %q", *by)
	}
	t, err := a.loadFiltered(ctx, &src, &filters)
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}

	gs := group(t)
	totals := gs.Totals()
	counts := gs.TransactionCounts()

	tw := newTabWriter(a.stdout)
	fmt.Fprintf(tw, "%s\tCOUNT\tTOTAL\n", strings.ToUpper(*by))
	for _, k := range gs.Keys() {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", k, counts[k], totals[k].StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\t\n")
	fmt.Fprintf(tw, "INCOME\t%d\t%s\n", t.Income().Len(), t.Income().Total().StringFixed(2))
	fmt.Fprintf(tw, "EXPENSES\t%d\t%s\n", t.Expenses().Len(), t.Expenses().Total().StringFixed(2))
	fmt.Fprintf(tw, "NET\t%d\t%s\n", t.Len(), t.Total().StringFixed(2))
	return tw.Flush()
}

func (a *app) runSearch(ctx context.Context, args []string) error {
	fs := newFlagSet("search")
	var src sourceFlags
	var filters filterFlags
	src.register(fs, a.cfg.DefaultFormat)
	filters.register(fs, a.cfg.TransferWindowDays)
	limit := fs.Int("limit", 0, "Print at most this many rows (0 prints all)")
	sortBy := fs.String("sort", ledger.ColumnDate, "Column to sort by")
	desc := fs.Bool("desc", false, "Sort descending")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() > 0 {
		filters.search = strings.Join(fs.Args(), " ")
	}
	if filters.search == "" {
		return fmt.Errorf("search: a pattern is required")
	}

	t, err := a.loadFiltered(ctx, &src, &filters)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	f, err := sortFrame(t.Frame(), *sortBy, *desc)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := printRows(a.stdout, f, *limit); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "\n%d matches, total %s\n", t.Len(), t.Total().StringFixed(2))
	return nil
}

func (a *app) runTransfers(ctx context.Context, args []string) error {
	fs := newFlagSet("transfers")
	var src sourceFlags
	var filters filterFlags
	src.register(fs, a.cfg.DefaultFormat)
	filters.register(fs, a.cfg.TransferWindowDays)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if filters.excludeTransfers {
		return fmt.Errorf("transfers: -exclude-transfers would leave nothing to list")
	}

	t, err := a.loadFiltered(ctx, &src, &filters)
	if err != nil {
		return fmt.Errorf("transfers: %w", err)
	}
	legs, err := t.Transfers(false, filters.transferOptions()...)
	if err != nil {
		return fmt.Errorf("transfers: %w", err)
	}
	if err := printRows(a.stdout, legs.Frame(), 0); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "\n%d transfer legs, net %s\n", legs.Len(), legs.Total().StringFixed(2))
	return nil
}

func (a *app) runCategorize(ctx context.Context, args []string) error {
	fs := newFlagSet("categorize")
	var src sourceFlags
	src.register(fs, a.cfg.DefaultFormat)
	rulesPath := fs.String("rules", a.cfg.RulesFile, "YAML rules file (local path or gs:// URI)")
	out := fs.String("out", "-", "Where to write the CSV: a path, a gs:// URI or - for stdout")
	window := fs.Int("window", a.cfg.TransferWindowDays, "Transfer matching window in days, for rules that exclude transfers")
	allowInternal := fs.Bool("allow-internal", false, "Let transfers pair within a single account")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rulesPath == "" {
		return fmt.Errorf("categorize: -rules or LEDGER_RULES_FILE is required")
	}

	data, err := a.fetcher.Fetch(ctx, *rulesPath)
	if err != nil {
		return fmt.Errorf("categorize: %w", err)
	}
	file, err := rules.Parse(data)
	if err != nil {
		return fmt.Errorf("categorize: %w", err)
	}
	transferFlags := filterFlags{window: *window, allowInternal: *allowInternal}
	engine, err := rules.NewEngine(file, logger.FromContext(ctx), transferFlags.transferOptions()...)
	if err != nil {
		return fmt.Errorf("categorize: %w", err)
	}

	t, err := a.load(ctx, &src)
	if err != nil {
		return fmt.Errorf("categorize: %w", err)
	}
	result, outcomes, err := engine.Apply(t)
	if err != nil {
		return fmt.Errorf("categorize: %w", err)
	}

	changed := 0
	for _, o := range outcomes {
		changed += o.Rows
	}
	log := logger.FromContext(ctx)
	log.Info().Int("rules", len(outcomes)).Int("assignments", changed).Msg("categorized table")
	return a.writeCSV(ctx, result.Frame(), *out)
}

func (a *app) runExport(ctx context.Context, args []string) error {
	fs := newFlagSet("export")
	var src sourceFlags
	var filters filterFlags
	src.register(fs, a.cfg.DefaultFormat)
	filters.register(fs, a.cfg.TransferWindowDays)
	out := fs.String("out", "-", "Where to write the CSV: a path, a gs:// URI or - for stdout")
	sortBy := fs.String("sort", "", "Column to sort by")
	desc := fs.Bool("desc", false, "Sort descending")
	sample := fs.Int("sample", 0, "Export a random sample of this many rows")
	seed := fs.Int64("seed", 1, "Seed for -sample")
	upload := fs.Bool("upload", false, "Also upload a local -out file to LEDGER_EXPORT_BUCKET")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *upload {
		switch {
		case a.cfg.ExportBucket == "":
			return fmt.Errorf("export: -upload needs LEDGER_EXPORT_BUCKET")
		case *out == "" || *out == "-" || strings.HasPrefix(*out, "gs://"):
			return fmt.Errorf("export: -upload needs a local -out path")
		}
	}

	t, err := a.loadFiltered(ctx, &src, &filters)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	f := t.Frame()
	if *sample > 0 {
		f = f.Sample(*sample, rand.New(rand.NewSource(*seed)))
	}
	if f, err = sortFrame(f, *sortBy, *desc); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := a.writeCSV(ctx, f, *out); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if *upload {
		object := filepath.Base(*out)
		if err := a.storage.UploadFile(ctx, a.cfg.ExportBucket, object, *out); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		log := logger.FromContext(ctx)
		log.Info().Str("bucket", a.cfg.ExportBucket).Str("object", object).Msg("uploaded export")
	}
	return nil
}
