package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
)

// Defaults for the WorldPop zonal-statistics export.
const (
	DefaultPopulationDelimiter = ','
	DefaultPopulationColumn    = "population"
)

// PopulationOptions controls how a population table is read. Zero-valued
// fields fall back to the WorldPop export defaults.
type PopulationOptions struct {
	Delimiter        rune
	RegionColumn     string
	PopulationColumn string
}

func (o PopulationOptions) withDefaults() PopulationOptions {
	if o.Delimiter == 0 {
		o.Delimiter = DefaultPopulationDelimiter
	}
	if o.RegionColumn == "" {
		o.RegionColumn = DefaultRegionColumn
	}
	if o.PopulationColumn == "" {
		o.PopulationColumn = DefaultPopulationColumn
	}
	return o
}

// ReadPopulations parses population records from r. Population cells must be
// finite, non-negative numbers; anything else fails the read. Duplicate
// region ids pass through here untouched, the join index rejects them.
func ReadPopulations(r io.Reader, opts PopulationOptions) ([]domain.PopulationRecord, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("population table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read population table header: %w", err)
	}
	cols, err := columnIndex(header, opts.RegionColumn, opts.PopulationColumn)
	if err != nil {
		return nil, fmt.Errorf("population table: %w", err)
	}

	var out []domain.PopulationRecord
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read population table: %w", err)
		}
		line++

		region := field(record, cols[opts.RegionColumn])
		if region == "" {
			return nil, fmt.Errorf("population table line %d: empty region id", line)
		}
		raw := field(record, cols[opts.PopulationColumn])
		pop, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("population table line %d: parse population %q: %w", line, raw, err)
		}
		if math.IsNaN(pop) || math.IsInf(pop, 0) {
			return nil, fmt.Errorf("population table line %d: population %q is not finite", line, raw)
		}
		if pop < 0 {
			return nil, fmt.Errorf("population table line %d: negative population %v for region %s", line, pop, region)
		}

		out = append(out, domain.PopulationRecord{RegionID: region, Population: pop})
	}
	return out, nil
}
