// Package ingest loads Mint, Tiller and ledger CSV exports, from local paths
// or GCS, into ledger tables.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/cashledger/internal/ledger"
	"github.com/dvloznov/cashledger/internal/logger"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel fetches in LoadAll.
const DefaultConcurrency = 4

// Source is one export to load.
type Source struct {
	Location string
	Format   Format
}

// ParseSources splits a comma-separated list of locations, all in format.
func ParseSources(list string, format Format) []Source {
	var out []Source
	for _, loc := range strings.Split(list, ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			out = append(out, Source{Location: loc, Format: format})
		}
	}
	return out
}

// Loader runs the CSV pipeline over one or many sources. It logs through the
// logger carried by the context.
type Loader struct {
	pipeline    *Pipeline
	concurrency int
}

// NewLoader creates a loader. A concurrency below one means DefaultConcurrency.
func NewLoader(fetcher Fetcher, concurrency int) *Loader {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Loader{
		pipeline:    NewCSVPipeline(fetcher),
		concurrency: concurrency,
	}
}

// Load reads one source into its own base table.
func (l *Loader) Load(ctx context.Context, src Source) (ledger.Table, error) {
	state := &PipelineState{Source: src}
	if err := l.pipeline.Execute(ctx, state); err != nil {
		return ledger.Table{}, fmt.Errorf("Load: %s: %w", src.Location, err)
	}

	log := logger.ForSource(logger.FromContext(ctx), src.Location)
	log.Info().
		Str("format", string(state.Format)).
		Int("rows", state.Table.Len()).
		Msg("loaded export")
	return state.Table, nil
}

// LoadAll fetches the sources concurrently and concatenates them, in the
// order given, into a single base table. Any failure fails the whole load.
func (l *Loader) LoadAll(ctx context.Context, sources []Source) (ledger.Table, error) {
	if len(sources) == 0 {
		return ledger.NewTable(nil)
	}

	tables := make([]ledger.Table, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			t, err := l.Load(gctx, src)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ledger.Table{}, fmt.Errorf("LoadAll: %w", err)
	}

	merged := ledger.Concat(tables...)
	log := logger.FromContext(ctx)
	log.Info().Int("sources", len(sources)).Int("rows", merged.Len()).Msg("merged exports")
	return merged, nil
}
