// Command validate performs integrity checks on an emitted monthly exposure
// report: column schema, per-row accounting, threshold monotonicity, and,
// when the input tables are given, agreement with a fresh computation using
// the actual domain packages.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -report data/processed/monthly_warning_exposure.csv \
//	  -warnings data/raw/warnings_l2_ts.csv \
//	  -population data/raw/worldpop_l2.csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/warning-exposure-etl/internal/adapter/csvtable"
	"github.com/couchcryptid/warning-exposure-etl/internal/adapter/report"
	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	reportPath := flag.String("report", "", "path to the emitted exposure CSV")
	warningsPath := flag.String("warnings", "", "warning table used to produce the report (optional)")
	populationPath := flag.String("population", "", "population table used to produce the report (optional)")
	thresholdsFlag := flag.String("thresholds", "1,2,3,4", "severity thresholds the report was built with")
	flag.Parse()

	if *reportPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	if (*warningsPath == "") != (*populationPath == "") {
		fmt.Fprintln(os.Stderr, "FATAL: -warnings and -population must be given together")
		os.Exit(1)
	}

	thresholds, err := parseThresholds(*thresholdsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: -thresholds: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(*reportPath, *warningsPath, *populationPath, thresholds))
}

func run(reportPath, warningsPath, populationPath string, thresholds []domain.Severity) int {
	fmt.Println("=== Monthly Exposure Report Validation ===")
	fmt.Println()

	layout := report.NewLayout(domain.DefaultScale(), thresholds)

	header, rows, err := loadReport(reportPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load report: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateSchema(header, rows, layout),
		validateRowAccounting(rows, layout, thresholds),
		validateMonotonicity(rows, thresholds),
	}

	if warningsPath != "" {
		p, err := validateSourceAgreement(rows, layout, warningsPath, populationPath, thresholds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: recompute from inputs: %v\n", err)
			return 1
		}
		phases = append(phases, p)
	} else {
		fmt.Println("  Note: no input tables given, skipping source agreement phase")
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d exposure rows, %d columns\n", len(rows), len(layout.Header()))

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// reportRow is one parsed report line with cells keyed by header name.
type reportRow struct {
	lineNum int
	cells   []string
	fields  map[string]string
}

func loadReport(path string) ([]string, []reportRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("empty report %s", path)
	}

	header := all[0]
	rows := make([]reportRow, 0, len(all)-1)
	for i, cells := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(cells) {
				fields[h] = cells[j]
			}
		}
		rows = append(rows, reportRow{lineNum: i + 2, cells: cells, fields: fields})
	}
	return header, rows, nil
}

func (r reportRow) key() string {
	return r.fields["country"] + "|" + r.fields["year_month"]
}

func (r reportRow) float(p *phase, column string) (float64, bool) {
	raw, ok := r.fields[column]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errorf("line %d: column %q: %q is not numeric", r.lineNum, column, raw)
		return 0, false
	}
	return v, true
}

// ── Phase 1: Report Schema ──
// Validates column names, row shape, and key fields.

func validateSchema(header []string, rows []reportRow, layout report.Layout) *phase {
	p := &phase{name: "Phase 1: Report Schema (columns)"}

	expected := layout.Header()
	if len(header) != len(expected) {
		p.errorf("header has %d columns, expected %d", len(header), len(expected))
	}
	for i := 0; i < len(header) && i < len(expected); i++ {
		if header[i] != expected[i] {
			p.errorf("column %d is %q, expected %q", i+1, header[i], expected[i])
		}
	}

	seen := map[string]int{}
	for _, row := range rows {
		if len(row.cells) != len(expected) {
			p.errorf("line %d: %d cells, expected %d", row.lineNum, len(row.cells), len(expected))
			continue
		}
		if row.fields["country"] == "" {
			p.errorf("line %d: empty country", row.lineNum)
		}
		if _, err := domain.ParsePeriod(row.fields["year_month"]); err != nil {
			p.errorf("line %d: year_month %q: %v", row.lineNum, row.fields["year_month"], err)
		}
		if prev, dup := seen[row.key()]; dup {
			p.errorf("line %d: duplicate (country, year_month) %q, first seen line %d", row.lineNum, row.key(), prev)
		} else {
			seen[row.key()] = row.lineNum
		}
	}
	return p
}

// ── Phase 2: Row Accounting ──
// Validates that the per-level populations sum to the total and that the
// percentage columns follow from the population columns.

func validateRowAccounting(rows []reportRow, layout report.Layout, thresholds []domain.Severity) *phase {
	p := &phase{name: "Phase 2: Row Accounting (totals)"}

	levelColumns := levelColumnNames(layout, thresholds)

	for _, row := range rows {
		total, ok := row.float(p, "total_population")
		if !ok {
			continue
		}
		if total < 0 {
			p.errorf("line %d: negative total_population %g", row.lineNum, total)
		}

		var sum float64
		for _, col := range levelColumns {
			v, ok := row.float(p, col)
			if !ok {
				continue
			}
			if v < 0 {
				p.errorf("line %d: negative %s %g", row.lineNum, col, v)
			}
			sum += v
		}
		if !floatEq(sum, total) {
			p.errorf("line %d: level populations sum to %g, total is %g", row.lineNum, sum, total)
		}

		for _, th := range thresholds {
			pop, okPop := row.float(p, fmt.Sprintf("pop_warning_%d_plus", th))
			pct, okPct := row.float(p, fmt.Sprintf("pct_warning_%d_plus", th))
			if !okPop || !okPct {
				continue
			}
			if pop > total+1e-6 {
				p.errorf("line %d: pop_warning_%d_plus %g exceeds total %g", row.lineNum, th, pop, total)
			}
			if pct < 0 || pct > 100 {
				p.errorf("line %d: pct_warning_%d_plus %g outside [0, 100]", row.lineNum, th, pct)
			}
			expected := 0.0
			if total > 0 {
				expected = pop / total * 100
			}
			if !pctEq(pct, expected) {
				p.errorf("line %d: pct_warning_%d_plus is %g, expected %.2f from populations", row.lineNum, th, pct, expected)
			}
		}
	}
	return p
}

// levelColumnNames returns the per-level population columns: everything that
// is not an identity, total, or threshold column.
func levelColumnNames(layout report.Layout, thresholds []domain.Severity) []string {
	skip := map[string]bool{
		"country":          true,
		"year_month":       true,
		"total_population": true,
	}
	for _, th := range thresholds {
		skip[fmt.Sprintf("pop_warning_%d_plus", th)] = true
		skip[fmt.Sprintf("pct_warning_%d_plus", th)] = true
	}

	var cols []string
	for _, name := range layout.Header() {
		if !skip[name] {
			cols = append(cols, name)
		}
	}
	return cols
}

// ── Phase 3: Threshold Monotonicity ──
// A stricter threshold can never cover more people than a looser one.

func validateMonotonicity(rows []reportRow, thresholds []domain.Severity) *phase {
	p := &phase{name: "Phase 3: Threshold Monotonicity"}

	for _, row := range rows {
		prevPop := math.Inf(1)
		prevPct := math.Inf(1)
		for _, th := range thresholds {
			pop, okPop := row.float(p, fmt.Sprintf("pop_warning_%d_plus", th))
			pct, okPct := row.float(p, fmt.Sprintf("pct_warning_%d_plus", th))
			if !okPop || !okPct {
				continue
			}
			if pop > prevPop+1e-6 {
				p.errorf("line %d: pop_warning_%d_plus %g exceeds the previous threshold's %g", row.lineNum, th, pop, prevPop)
			}
			if pct > prevPct+0.005 {
				p.errorf("line %d: pct_warning_%d_plus %g exceeds the previous threshold's %g", row.lineNum, th, pct, prevPct)
			}
			prevPop, prevPct = pop, pct
		}
	}
	return p
}

// ── Phase 4: Source Agreement ──
// Recomputes the report from the input tables with the actual domain stages
// and demands cell-for-cell equality. The emitter is deterministic, so the
// comparison is on exact strings.

func validateSourceAgreement(rows []reportRow, layout report.Layout, warningsPath, populationPath string, thresholds []domain.Severity) (*phase, error) {
	p := &phase{name: "Phase 4: Source Agreement (inputs)"}

	ctx := context.Background()
	warnings := &csvtable.FileWarningSource{Path: warningsPath}
	populations := &csvtable.FilePopulationSource{Path: populationPath}

	obs, err := warnings.Observations(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := populations.Populations(ctx)
	if err != nil {
		return nil, err
	}
	index, err := domain.NewPopulationIndex(recs)
	if err != nil {
		return nil, err
	}
	joined, stats, err := domain.Join(obs, index, domain.DefaultScale())
	if err != nil {
		return nil, err
	}
	if stats.Dropped > 0 {
		fmt.Printf("  Note: %d observation(s) without population were dropped during recompute\n", stats.Dropped)
	}

	exposures := domain.ComputeExposure(domain.Aggregate(joined), domain.DefaultScale(), thresholds)

	computed := make(map[string][]string, len(exposures))
	for _, e := range exposures {
		record := layout.Record(e)
		computed[record[0]+"|"+record[1]] = record
	}

	if len(rows) != len(exposures) {
		p.errorf("report has %d rows, recompute produced %d", len(rows), len(exposures))
	}

	header := layout.Header()
	for _, row := range rows {
		expected, ok := computed[row.key()]
		if !ok {
			p.errorf("line %d: %q not present in recompute", row.lineNum, row.key())
			continue
		}
		delete(computed, row.key())

		for i := 0; i < len(expected) && i < len(row.cells); i++ {
			if row.cells[i] != expected[i] {
				p.errorf("line %d: column %q: report=%q, computed=%q", row.lineNum, header[i], row.cells[i], expected[i])
			}
		}
	}
	for key := range computed {
		p.errorf("recomputed row %q missing from report", key)
	}
	return p, nil
}

// ── Helpers ──

func parseThresholds(s string) ([]domain.Severity, error) {
	parts := strings.Split(s, ",")
	out := make([]domain.Severity, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", part)
		}
		if n < 0 {
			return nil, fmt.Errorf("threshold %d is negative", n)
		}
		if len(out) > 0 && domain.Severity(n) <= out[len(out)-1] {
			return nil, fmt.Errorf("thresholds must be strictly ascending")
		}
		out = append(out, domain.Severity(n))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no thresholds given")
	}
	return out, nil
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// pctEq allows for the report's two-decimal rounding.
func pctEq(a, b float64) bool {
	return math.Abs(a-b) <= 0.005+1e-9
}
