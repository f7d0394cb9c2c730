// Command genmock generates synthetic ASAP-style warning and population CSV
// fixtures. It runs the actual domain stages over the generated tables so the
// printed stats match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out-dir data/mock \
//	  -countries 3 -regions 8 -months 6 -start 2023-01 -seed 42
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
)

var countryNames = []string{
	"Kenya", "Somalia", "Ethiopia", "Sudan", "Chad", "Niger", "Mali", "Yemen",
}

// dekadStarts are the days ASAP issues warnings on.
var dekadStarts = []int{1, 11, 21}

type labelWeight struct {
	label  string
	weight int
}

// labelWeights skew towards quiet months, the way real series do.
var labelWeights = []labelWeight{
	{"No warning", 55},
	{"Watch", 15},
	{"Advisory", 10},
	{"Alert", 8},
	{"Emergency", 2},
	{"Off season", 7},
	{"No crop or rangeland", 3},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data/mock", "directory for generated CSV fixtures")
	countries := flag.Int("countries", 3, "number of countries")
	regions := flag.Int("regions", 8, "admin2 regions per country")
	months := flag.Int("months", 6, "number of months to cover")
	start := flag.String("start", "2023-01", "first month (YYYY-MM)")
	missing := flag.Int("missing", 1, "regions omitted from the population table")
	seed := flag.Int64("seed", 42, "random seed")
	flag.Parse()

	if *countries < 1 || *countries > len(countryNames) {
		return fmt.Errorf("-countries must be between 1 and %d", len(countryNames))
	}
	if *regions < 1 || *months < 1 {
		return fmt.Errorf("-regions and -months must be positive")
	}

	first, err := domain.ParsePeriod(*start)
	if err != nil {
		return fmt.Errorf("parsing -start: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	observations, populations := generate(rng, *countries, *regions, *months, *missing, first)
	log.Printf("generated %d observations, %d population records", len(observations), len(populations))

	if err := writeWarningsCSV(filepath.Join(*outDir, "warnings.csv"), observations, rng); err != nil {
		return fmt.Errorf("writing warnings fixture: %w", err)
	}
	log.Printf("wrote warnings fixture: %s", filepath.Join(*outDir, "warnings.csv"))

	if err := writePopulationCSV(filepath.Join(*outDir, "population.csv"), populations); err != nil {
		return fmt.Errorf("writing population fixture: %w", err)
	}
	log.Printf("wrote population fixture: %s", filepath.Join(*outDir, "population.csv"))

	return printStats(observations, populations)
}

type mockObservation struct {
	domain.WarningObservation
	admin1 string
	admin2 string
}

func generate(rng *rand.Rand, countries, regions, months, missing int, first domain.Period) ([]mockObservation, []domain.PopulationRecord) {
	var observations []mockObservation
	var populations []domain.PopulationRecord

	omitted := 0
	for ci := 0; ci < countries; ci++ {
		country := countryNames[ci]
		for ri := 0; ri < regions; ri++ {
			regionID := strconv.Itoa(1000*(ci+1) + ri + 1)
			admin1 := fmt.Sprintf("Province %d", ri/4+1)
			admin2 := fmt.Sprintf("District %d", ri+1)

			if omitted < missing {
				omitted++
			} else {
				populations = append(populations, domain.PopulationRecord{
					RegionID:   regionID,
					Population: float64(5000 + rng.Intn(495001)),
				})
			}

			for m := 0; m < months; m++ {
				month := time.Date(first.Year, first.Month+time.Month(m), 1, 0, 0, 0, 0, time.UTC)
				day := dekadStarts[rng.Intn(len(dekadStarts))]
				observations = append(observations, mockObservation{
					WarningObservation: domain.WarningObservation{
						RegionID: regionID,
						Country:  country,
						Date:     time.Date(month.Year(), month.Month(), day, 0, 0, 0, 0, time.UTC),
						Label:    weightedLabel(rng),
					},
					admin1: admin1,
					admin2: admin2,
				})
			}
		}
	}
	return observations, populations
}

func weightedLabel(rng *rand.Rand) string {
	total := 0
	for _, lw := range labelWeights {
		total += lw.weight
	}
	n := rng.Intn(total)
	for _, lw := range labelWeights {
		n -= lw.weight
		if n < 0 {
			return lw.label
		}
	}
	return labelWeights[0].label
}

func writeWarningsCSV(path string, observations []mockObservation, rng *rand.Rand) error {
	rows := [][]string{{"asap2_id", "asap0_name", "asap1_name", "asap2_name", "date", "w_crop_gr", "w_range_gr"}}
	for _, o := range observations {
		rows = append(rows, []string{
			o.RegionID,
			o.Country,
			o.admin1,
			o.admin2,
			o.Date.Format("2006-01-02"),
			o.Label,
			weightedLabel(rng),
		})
	}
	return writeCSV(path, ';', rows)
}

func writePopulationCSV(path string, populations []domain.PopulationRecord) error {
	rows := [][]string{{"asap2_id", "population"}}
	for _, p := range populations {
		rows = append(rows, []string{
			p.RegionID,
			strconv.FormatFloat(p.Population, 'f', -1, 64),
		})
	}
	return writeCSV(path, ',', rows)
}

func writeCSV(path string, delimiter rune, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = delimiter
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func printStats(observations []mockObservation, populations []domain.PopulationRecord) error {
	scale := domain.DefaultScale()
	thresholds := []domain.Severity{
		domain.SeverityWatch,
		domain.SeverityAdvisory,
		domain.SeverityAlert,
		domain.SeverityEmergency,
	}

	index, err := domain.NewPopulationIndex(populations)
	if err != nil {
		return fmt.Errorf("indexing populations: %w", err)
	}

	plain := make([]domain.WarningObservation, len(observations))
	for i, o := range observations {
		plain[i] = o.WarningObservation
	}

	joined, stats, err := domain.Join(plain, index, scale)
	if err != nil {
		return fmt.Errorf("joining: %w", err)
	}

	exposures := domain.ComputeExposure(domain.Aggregate(joined), scale, thresholds)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Observations: %d\n", len(observations))
	fmt.Printf("Population records: %d\n", len(populations))
	fmt.Printf("Dropped (no population): %d across %d regions\n", stats.Dropped, len(stats.MissingRegions))
	fmt.Printf("Exposure rows: %d\n", len(exposures))

	byCountry := map[string]int{}
	for _, e := range exposures {
		byCountry[e.Country]++
	}
	fmt.Printf("Rows per country:")
	for _, c := range countryNames {
		if n, ok := byCountry[c]; ok {
			fmt.Printf(" %s=%d", c, n)
		}
	}
	fmt.Println()

	if len(exposures) > 0 {
		e := exposures[0]
		fmt.Printf("\nFirst exposure row:\n")
		fmt.Printf("  Country: %s\n", e.Country)
		fmt.Printf("  Month: %s\n", e.Period)
		fmt.Printf("  Total population: %g\n", e.TotalPopulation)
		for _, c := range e.Cumulative {
			fmt.Printf("  >=%d: %g (%.2f%%)\n", c.Threshold, c.Population, c.Percent)
		}
	}
	return nil
}
