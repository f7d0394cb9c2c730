package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
)

// CSVEmitter writes exposure rows to a CSV file, truncating any previous
// output. The same input always produces byte-identical output.
// It implements pipeline.Emitter.
type CSVEmitter struct {
	path   string
	layout Layout
	logger *slog.Logger
}

// NewCSVEmitter creates an emitter that writes to path, creating parent
// directories as needed.
func NewCSVEmitter(path string, layout Layout, logger *slog.Logger) *CSVEmitter {
	return &CSVEmitter{path: path, layout: layout, logger: logger}
}

// Emit renders all rows to the configured file.
func (e *CSVEmitter) Emit(ctx context.Context, rows []domain.CountryMonthExposure) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("create csv output: %w", err)
	}
	if err := WriteCSV(f, e.layout, rows); err != nil {
		f.Close()
		return fmt.Errorf("write csv output: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv output: %w", err)
	}

	e.logger.Info("csv report written", "path", e.path, "rows", len(rows))
	return nil
}

// WriteCSV renders rows through the layout onto w, header first.
func WriteCSV(w io.Writer, layout Layout, rows []domain.CountryMonthExposure) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(layout.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(layout.Record(row)); err != nil {
			return fmt.Errorf("write row %s %s: %w", row.Country, row.Period, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
