package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dvloznov/cashledger/internal/frame"
	"github.com/dvloznov/cashledger/internal/gcsuploader"
	"github.com/dvloznov/cashledger/internal/ledger"
	"github.com/dvloznov/cashledger/internal/logger"
)

var printedColumns = []string{
	ledger.ColumnDate,
	ledger.ColumnAccount,
	ledger.ColumnCategory,
	ledger.ColumnAmount,
	ledger.ColumnDescription,
}

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// printRows prints the canonical columns of f as an aligned table. A
// positive limit caps the number of rows.
func printRows(w io.Writer, f frame.Frame, limit int) error {
	if limit > 0 {
		f = f.Head(limit)
	}

	tw := newTabWriter(w)
	header := make([]string, len(printedColumns))
	for i, c := range printedColumns {
		header[i] = strings.ToUpper(c)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	cells := make([]string, len(printedColumns))
	for i := 0; i < f.Len(); i++ {
		for j, c := range printedColumns {
			cells[j], _ = f.Value(i, c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// sortFrame orders f by column; an empty column leaves it unchanged.
func sortFrame(f frame.Frame, column string, descending bool) (frame.Frame, error) {
	if column == "" {
		return f, nil
	}
	return f.SortBy(column, descending)
}

// writeCSV writes f to out: stdout for "" or "-", a gs:// URI through the
// storage service, anything else as a local file.
func (a *app) writeCSV(ctx context.Context, f frame.Frame, out string) error {
	switch {
	case out == "" || out == "-":
		return f.WriteCSV(a.stdout)
	case gcsuploader.IsGCSURI(out):
		var buf bytes.Buffer
		if err := f.WriteCSV(&buf); err != nil {
			return fmt.Errorf("writeCSV: %w", err)
		}
		if err := a.storage.UploadReader(ctx, out, &buf, "text/csv"); err != nil {
			return fmt.Errorf("writeCSV: %w", err)
		}
		log := logger.FromContext(ctx)
		log.Info().Str("out", out).Str("object", gcsuploader.ExtractFilenameFromGCSURI(out)).Int("rows", f.Len()).Msg("uploaded CSV")
		return nil
	default:
		file, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("writeCSV: %w", err)
		}
		if err := f.WriteCSV(file); err != nil {
			file.Close()
			return fmt.Errorf("writeCSV: %w", err)
		}
		if err := file.Close(); err != nil {
			return fmt.Errorf("writeCSV: %w", err)
		}
	}
	log := logger.FromContext(ctx)
	log.Info().Str("out", out).Int("rows", f.Len()).Msg("wrote CSV")
	return nil
}
