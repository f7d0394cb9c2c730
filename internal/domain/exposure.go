package domain

import "sort"

// ComputeExposure rolls severity groups up into one row per country and month.
//
// Every level of the scale appears in PopulationBySeverity, zero-filled when
// the month has no population at that level. For each threshold k the
// cumulative entry sums the population of non-sentinel levels with severity
// >= k; Percent is that sum's share of the month's total, or 0 when the total
// is 0. Sums always run in ascending level order, so the same input produces
// bit-identical floats. Rows come back sorted by country, then period.
func ComputeExposure(groups []ExposureGroup, scale *Scale, thresholds []Severity) []CountryMonthExposure {
	type key struct {
		country string
		period  Period
	}

	buckets := make(map[key]map[Severity]float64)
	order := make([]key, 0)
	for _, g := range groups {
		k := key{g.Country, g.Period}
		b, ok := buckets[k]
		if !ok {
			b = make(map[Severity]float64)
			buckets[k] = b
			order = append(order, k)
		}
		b[g.Severity] += g.Population
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].country != order[j].country {
			return order[i].country < order[j].country
		}
		return order[i].period.Before(order[j].period)
	})

	levels := scale.Levels()
	out := make([]CountryMonthExposure, 0, len(order))
	for _, k := range order {
		b := buckets[k]

		pops := make(map[Severity]float64, len(levels))
		total := 0.0
		for _, l := range levels {
			v := b[l.Value]
			pops[l.Value] = v
			total += v
		}

		cumulative := make([]ThresholdExposure, 0, len(thresholds))
		for _, th := range thresholds {
			sum := 0.0
			for _, l := range levels {
				if l.Sentinel || l.Value < th {
					continue
				}
				sum += b[l.Value]
			}
			pct := 0.0
			if total > 0 {
				pct = sum / total * 100
			}
			cumulative = append(cumulative, ThresholdExposure{Threshold: th, Population: sum, Percent: pct})
		}

		out = append(out, CountryMonthExposure{
			Country:              k.country,
			Period:               k.period,
			TotalPopulation:      total,
			PopulationBySeverity: pops,
			Cumulative:           cumulative,
		})
	}
	return out
}
