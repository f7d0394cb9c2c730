package report

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/360EntSecGroup-Skylar/excelize/v2"

	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
)

// SheetName is the single worksheet the XLSX emitter writes.
const SheetName = "Monthly exposure"

// XLSXEmitter writes exposure rows to an Excel workbook for analysts who
// want the summary without a CSV import step. Columns match the CSV layout
// cell for cell; percentages are rounded to two decimals.
// It implements pipeline.Emitter.
type XLSXEmitter struct {
	path   string
	layout Layout
	logger *slog.Logger
}

// NewXLSXEmitter creates an emitter that writes to path, creating parent
// directories as needed.
func NewXLSXEmitter(path string, layout Layout, logger *slog.Logger) *XLSXEmitter {
	return &XLSXEmitter{path: path, layout: layout, logger: logger}
}

// Emit renders all rows into a fresh workbook at the configured path.
func (e *XLSXEmitter) Emit(ctx context.Context, rows []domain.CountryMonthExposure) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", SheetName)

	header := make([]interface{}, 0, len(e.layout.Header()))
	for _, name := range e.layout.Header() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	columns := e.layout.Columns()
	for i, row := range rows {
		cells := make([]interface{}, 0, len(columns)+2)
		cells = append(cells, row.Country, row.Period.String())
		for _, c := range columns {
			v := c.Value(row)
			if c.Percent {
				v = math.Round(v*100) / 100
			}
			cells = append(cells, v)
		}

		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name for row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(SheetName, axis, &cells); err != nil {
			return fmt.Errorf("write row %s %s: %w", row.Country, row.Period, err)
		}
	}

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info("xlsx report written", "path", e.path, "rows", len(rows))
	return nil
}
