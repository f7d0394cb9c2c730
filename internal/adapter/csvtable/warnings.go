package csvtable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
)

// Defaults for the ASAP hotspots warning export.
const (
	DefaultWarningsDelimiter = ';'
	DefaultRegionColumn      = "asap2_id"
	DefaultCountryColumn     = "asap0_name"
	DefaultDateColumn        = "date"
	DefaultLabelColumn       = "w_crop_gr"
	DefaultDateLayout        = "2006-01-02"
)

// WarningsOptions controls how a warning table is read. Zero-valued fields
// fall back to the ASAP export defaults, so the zero value reads a stock
// export unchanged. LabelColumn is the one most often overridden: the same
// export carries cropland warnings in w_crop_gr and rangeland warnings in
// w_range_gr.
type WarningsOptions struct {
	Delimiter     rune
	RegionColumn  string
	CountryColumn string
	DateColumn    string
	LabelColumn   string
	DateLayout    string
}

func (o WarningsOptions) withDefaults() WarningsOptions {
	if o.Delimiter == 0 {
		o.Delimiter = DefaultWarningsDelimiter
	}
	if o.RegionColumn == "" {
		o.RegionColumn = DefaultRegionColumn
	}
	if o.CountryColumn == "" {
		o.CountryColumn = DefaultCountryColumn
	}
	if o.DateColumn == "" {
		o.DateColumn = DefaultDateColumn
	}
	if o.LabelColumn == "" {
		o.LabelColumn = DefaultLabelColumn
	}
	if o.DateLayout == "" {
		o.DateLayout = DefaultDateLayout
	}
	return o
}

// ReadWarnings parses warning observations from r. The first record is the
// header and must contain every named column. A row with an empty region id
// or a date that does not match the layout fails the whole read; label cells
// pass through untouched for the severity scale to judge.
func ReadWarnings(r io.Reader, opts WarningsOptions) ([]domain.WarningObservation, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.Comma = opts.Delimiter

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("warning table is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read warning table header: %w", err)
	}
	cols, err := columnIndex(header, opts.RegionColumn, opts.CountryColumn, opts.DateColumn, opts.LabelColumn)
	if err != nil {
		return nil, fmt.Errorf("warning table: %w", err)
	}

	var out []domain.WarningObservation
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read warning table: %w", err)
		}
		line++

		region := field(record, cols[opts.RegionColumn])
		if region == "" {
			return nil, fmt.Errorf("warning table line %d: empty region id", line)
		}
		rawDate := field(record, cols[opts.DateColumn])
		date, err := time.Parse(opts.DateLayout, rawDate)
		if err != nil {
			return nil, fmt.Errorf("warning table line %d: parse date %q: %w", line, rawDate, err)
		}

		out = append(out, domain.WarningObservation{
			RegionID: region,
			Country:  field(record, cols[opts.CountryColumn]),
			Date:     date,
			Label:    field(record, cols[opts.LabelColumn]),
		})
	}
	return out, nil
}
