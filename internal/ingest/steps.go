package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dvloznov/cashledger/internal/domain"
	"github.com/dvloznov/cashledger/internal/frame"
	"github.com/dvloznov/cashledger/internal/ledger"
)

// PipelineStep represents a single step in loading one source.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Source       Source
	Raw          []byte
	Frame        frame.Frame
	Format       Format
	Transactions []domain.Transaction
	Table        ledger.Table
}

// Step 1: FetchStep reads the raw bytes of the source.
type FetchStep struct {
	Fetcher Fetcher
}

func (s *FetchStep) Execute(ctx context.Context, state *PipelineState) error {
	raw, err := s.Fetcher.Fetch(ctx, state.Source.Location)
	if err != nil {
		return err
	}
	state.Raw = raw
	return nil
}

var utf8BOM = []byte("\xef\xbb\xbf")

// Step 2: ParseCSVStep splits the bytes into a header and records.
type ParseCSVStep struct{}

func (s *ParseCSVStep) Execute(ctx context.Context, state *PipelineState) error {
	f, err := frame.ReadCSV(bytes.NewReader(bytes.TrimPrefix(state.Raw, utf8BOM)))
	if err != nil {
		return err
	}
	state.Frame = f
	return nil
}

// Step 3: DetectFormatStep resolves FormatAuto from the header.
type DetectFormatStep struct{}

func (s *DetectFormatStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Format = state.Source.Format
	if state.Format != "" && state.Format != FormatAuto {
		return nil
	}
	format, err := DetectFormat(state.Frame)
	if err != nil {
		return fmt.Errorf("DetectFormat: %s: %w", state.Source.Location, err)
	}
	state.Format = format
	return nil
}

// Step 4: NormalizeStep maps the export's columns onto transactions.
type NormalizeStep struct{}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	n, err := NormalizerFor(state.Format)
	if err != nil {
		return err
	}
	txs, err := n.Normalize(state.Frame)
	if err != nil {
		return err
	}
	state.Transactions = txs
	return nil
}

// Step 5: BuildTableStep turns the transactions into a base table.
type BuildTableStep struct{}

func (s *BuildTableStep) Execute(ctx context.Context, state *PipelineState) error {
	t, err := ledger.NewTable(state.Transactions)
	if err != nil {
		return err
	}
	state.Table = t
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewCSVPipeline creates the standard 5-step pipeline for loading a CSV export.
func NewCSVPipeline(fetcher Fetcher) *Pipeline {
	return NewPipeline(
		&FetchStep{Fetcher: fetcher},
		&ParseCSVStep{},
		&DetectFormatStep{},
		&NormalizeStep{},
		&BuildTableStep{},
	)
}
