package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/cashledger/internal/config"
	"github.com/dvloznov/cashledger/internal/gcsuploader"
	infra "github.com/dvloznov/cashledger/internal/infra/bigquery"
	"github.com/dvloznov/cashledger/internal/ingest"
	"github.com/dvloznov/cashledger/internal/ledger"
	"github.com/dvloznov/cashledger/internal/logger"
	"github.com/rs/zerolog"
)

var errUnknownCommand = errors.New("unknown command")

type repoOpener func(ctx context.Context) (infra.TransactionRepository, io.Closer, error)

// app holds everything a command needs, so commands can run against fakes.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	stdout   io.Writer
	storage  gcsuploader.StorageService
	fetcher  ingest.Fetcher
	openRepo repoOpener
	today    func() civil.Date
}

func newApp(cfg *config.Config, log zerolog.Logger, stdout io.Writer) *app {
	storage := gcsuploader.NewGCSStorageService()
	return &app{
		cfg:      cfg,
		log:      log,
		stdout:   stdout,
		storage:  storage,
		fetcher:  ingest.NewLocationFetcher(storage),
		openRepo: bigQueryOpener(cfg),
		today:    func() civil.Date { return civil.DateOf(time.Now()) },
	}
}

func bigQueryOpener(cfg *config.Config) repoOpener {
	return func(ctx context.Context) (infra.TransactionRepository, io.Closer, error) {
		if cfg.GCPProject == "" {
			return nil, nil, fmt.Errorf("LEDGER_GCP_PROJECT is required for BigQuery sources")
		}
		repo, err := infra.NewBigQueryTransactionRepository(ctx, cfg.GCPProject, cfg.BigQueryDataset)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	}
}

// run dispatches to a command. The command's logger, tagged with its name,
// travels in the context.
func (a *app) run(ctx context.Context, command string, args []string) error {
	ctx = logger.WithContext(ctx, logger.WithFields(a.log, map[string]interface{}{"command": command}))
	switch command {
	case "summary":
		return a.runSummary(ctx, args)
	case "search":
		return a.runSearch(ctx, args)
	case "transfers":
		return a.runTransfers(ctx, args)
	case "categorize":
		return a.runCategorize(ctx, args)
	case "export":
		return a.runExport(ctx, args)
	}
	return fmt.Errorf("%w: %s", errUnknownCommand, command)
}

// load reads the table named by the source flags.
func (a *app) load(ctx context.Context, src *sourceFlags) (ledger.Table, error) {
	switch {
	case src.files != "" && src.bqFrom != "":
		return ledger.Table{}, fmt.Errorf("load: -file and -bq-from are mutually exclusive")
	case src.files != "":
		format, err := ingest.ParseFormat(src.format)
		if err != nil {
			return ledger.Table{}, fmt.Errorf("load: %w", err)
		}
		loader := ingest.NewLoader(a.fetcher, a.cfg.LoadConcurrency)
		return loader.LoadAll(ctx, ingest.ParseSources(src.files, format))
	case src.bqFrom != "":
		return a.loadBigQuery(ctx, src)
	}
	return ledger.Table{}, fmt.Errorf("load: no source given, pass -file or -bq-from")
}

func (a *app) loadBigQuery(ctx context.Context, src *sourceFlags) (ledger.Table, error) {
	from, err := civil.ParseDate(src.bqFrom)
	if err != nil {
		return ledger.Table{}, fmt.Errorf("load: invalid -bq-from: %w", err)
	}
	to := a.today()
	if src.bqTo != "" {
		if to, err = civil.ParseDate(src.bqTo); err != nil {
			return ledger.Table{}, fmt.Errorf("load: invalid -bq-to: %w", err)
		}
	}

	repo, closer, err := a.openRepo(ctx)
	if err != nil {
		return ledger.Table{}, fmt.Errorf("load: %w", err)
	}
	defer closer.Close()

	t, err := infra.LoadTable(ctx, repo, from, to)
	if err != nil {
		return ledger.Table{}, fmt.Errorf("load: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().Str("from", from.String()).Str("to", to.String()).Int("rows", t.Len()).Msg("loaded from BigQuery")
	return t, nil
}

// loadFiltered loads the source and applies the shared filter flags.
func (a *app) loadFiltered(ctx context.Context, src *sourceFlags, filters *filterFlags) (ledger.Table, error) {
	t, err := a.load(ctx, src)
	if err != nil {
		return ledger.Table{}, err
	}
	return filters.apply(t, a.today())
}
