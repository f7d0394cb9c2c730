package domain

import "sort"

// PopulationIndex maps region id to its population record.
type PopulationIndex map[string]PopulationRecord

// NewPopulationIndex builds an index from population records. A region id
// appearing twice returns a *DuplicateRegionError rather than letting the
// later row win.
func NewPopulationIndex(records []PopulationRecord) (PopulationIndex, error) {
	idx := make(PopulationIndex, len(records))
	for _, rec := range records {
		if _, ok := idx[rec.RegionID]; ok {
			return nil, &DuplicateRegionError{RegionID: rec.RegionID}
		}
		idx[rec.RegionID] = rec
	}
	return idx, nil
}

// JoinStats records what a join dropped.
type JoinStats struct {
	// Dropped counts observations discarded for lack of a population row.
	Dropped int
	// MissingRegions holds the distinct region ids behind those drops, sorted.
	MissingRegions []string
}

// Sample returns up to n missing region ids, for log lines.
func (s JoinStats) Sample(n int) []string {
	if n >= len(s.MissingRegions) {
		return s.MissingRegions
	}
	return s.MissingRegions[:n]
}

// Join attaches population and severity to each observation and buckets it
// into its calendar month. Observations whose region has no population row
// are dropped and counted in JoinStats. A label missing from the scale aborts
// the join with an *UnmappedLabelError carrying the offending region and date.
func Join(observations []WarningObservation, populations PopulationIndex, scale *Scale) ([]JoinedRow, JoinStats, error) {
	rows := make([]JoinedRow, 0, len(observations))
	missing := make(map[string]struct{})
	stats := JoinStats{}

	for _, obs := range observations {
		sev, err := scale.Map(obs.Label)
		if err != nil {
			return nil, JoinStats{}, &UnmappedLabelError{Label: obs.Label, RegionID: obs.RegionID, Date: obs.Date}
		}
		rec, ok := populations[obs.RegionID]
		if !ok {
			stats.Dropped++
			missing[obs.RegionID] = struct{}{}
			continue
		}
		rows = append(rows, JoinedRow{
			WarningObservation: obs,
			Severity:           sev,
			Population:         rec.Population,
			Period:             PeriodOf(obs.Date),
		})
	}

	if len(missing) > 0 {
		stats.MissingRegions = make([]string, 0, len(missing))
		for id := range missing {
			stats.MissingRegions = append(stats.MissingRegions, id)
		}
		sort.Strings(stats.MissingRegions)
	}
	return rows, stats, nil
}
