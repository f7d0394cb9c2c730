package domain

import "sort"

// Aggregate sums joined rows into (country, period, severity) groups. A
// region observed on two dates in the same month contributes its population
// twice; deduplication is up to the source. The result is sorted by country,
// period, and severity so identical input yields identical output.
func Aggregate(rows []JoinedRow) []ExposureGroup {
	type key struct {
		country  string
		period   Period
		severity Severity
	}

	sums := make(map[key]float64, len(rows))
	for _, r := range rows {
		sums[key{r.Country, r.Period, r.Severity}] += r.Population
	}

	groups := make([]ExposureGroup, 0, len(sums))
	for k, pop := range sums {
		groups = append(groups, ExposureGroup{
			Country:    k.country,
			Period:     k.period,
			Severity:   k.severity,
			Population: pop,
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		if a.Period != b.Period {
			return a.Period.Before(b.Period)
		}
		return a.Severity < b.Severity
	})
	return groups
}
