// Package report renders country-month exposure rows for downstream
// consumers. The CSV file, the XLSX workbook, and the Kafka feed all share
// one column layout so a value means the same thing everywhere.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
)

// Column is one numeric output column: a stable name and how to read its
// value from an exposure row.
type Column struct {
	Name    string
	Percent bool // rendered with two decimals instead of full precision
	Value   func(domain.CountryMonthExposure) float64
}

// Layout is the ordered set of output columns for one scale and threshold
// configuration.
type Layout struct {
	columns []Column
}

// NewLayout builds the published column order. For the default scale with
// thresholds 1 through 4 that is:
//
//	country, year_month, total_population,
//	pop_no_crop_or_rangeland, pop_no_warning,
//	pop_warning_group_1 .. pop_warning_group_4,
//	pop_warning_1_plus .. pop_warning_4_plus,
//	pct_warning_1_plus .. pct_warning_4_plus,
//	pop_off_season
//
// Positive severities are named by value (pop_warning_group_<k>), all other
// levels by label slug. Sentinels bracket the per-level block: the last
// sentinel closes the whole row and any earlier ones lead it. The mailer and
// the dashboard locate fields by these names, so order and spelling are part
// of the contract.
func NewLayout(scale *domain.Scale, thresholds []domain.Severity) Layout {
	levels := scale.Levels()

	var trailing *domain.Level
	for i := len(levels) - 1; i >= 0; i-- {
		if levels[i].Sentinel {
			trailing = &levels[i]
			break
		}
	}

	columns := make([]Column, 0, len(levels)+2*len(thresholds)+1)
	columns = append(columns, Column{
		Name:  "total_population",
		Value: func(e domain.CountryMonthExposure) float64 { return e.TotalPopulation },
	})
	for _, l := range levels {
		if trailing != nil && l.Value == trailing.Value {
			continue
		}
		columns = append(columns, popColumn(l))
	}
	for _, th := range thresholds {
		columns = append(columns, cumulativeColumn(th, false))
	}
	for _, th := range thresholds {
		columns = append(columns, cumulativeColumn(th, true))
	}
	if trailing != nil {
		columns = append(columns, popColumn(*trailing))
	}

	return Layout{columns: columns}
}

// Header returns the full ordered header, identity columns included.
func (l Layout) Header() []string {
	header := make([]string, 0, len(l.columns)+2)
	header = append(header, "country", "year_month")
	for _, c := range l.columns {
		header = append(header, c.Name)
	}
	return header
}

// Columns returns the numeric columns in output order.
func (l Layout) Columns() []Column {
	out := make([]Column, len(l.columns))
	copy(out, l.columns)
	return out
}

// Record renders one exposure row as CSV cells. Populations keep full
// precision; percentages are fixed to two decimals.
func (l Layout) Record(e domain.CountryMonthExposure) []string {
	record := make([]string, 0, len(l.columns)+2)
	record = append(record, e.Country, e.Period.String())
	for _, c := range l.columns {
		v := c.Value(e)
		if c.Percent {
			record = append(record, strconv.FormatFloat(v, 'f', 2, 64))
		} else {
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return record
}

func popColumn(l domain.Level) Column {
	name := "pop_" + labelSlug(l.Label)
	if l.Value >= 1 {
		name = fmt.Sprintf("pop_warning_group_%d", l.Value)
	}
	v := l.Value
	return Column{
		Name:  name,
		Value: func(e domain.CountryMonthExposure) float64 { return e.PopulationBySeverity[v] },
	}
}

func cumulativeColumn(th domain.Severity, percent bool) Column {
	prefix := "pop"
	if percent {
		prefix = "pct"
	}
	return Column{
		Name:    fmt.Sprintf("%s_warning_%d_plus", prefix, th),
		Percent: percent,
		Value: func(e domain.CountryMonthExposure) float64 {
			te, ok := e.AtOrAbove(th)
			if !ok {
				return 0
			}
			if percent {
				return te.Percent
			}
			return te.Population
		},
	}
}

// labelSlug turns "No crop or rangeland" into "no_crop_or_rangeland".
func labelSlug(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), "_")
}
