package domain

import "time"

// WarningObservation is one categorical warning reading for one region on one
// reporting date.
type WarningObservation struct {
	RegionID string
	Country  string
	Date     time.Time
	Label    string
}

// PopulationRecord is the static population estimate for one region.
type PopulationRecord struct {
	RegionID   string
	Population float64
}

// JoinedRow is a warning observation enriched with its region's population,
// its mapped severity, and its monthly bucket.
type JoinedRow struct {
	WarningObservation
	Severity   Severity
	Population float64
	Period     Period
}

// ExposureGroup is the population sum for one (country, period, severity)
// cell.
type ExposureGroup struct {
	Country    string
	Period     Period
	Severity   Severity
	Population float64
}

// ThresholdExposure is the population at or above one severity threshold,
// with its share of the country-month total.
type ThresholdExposure struct {
	Threshold  Severity
	Population float64
	Percent    float64
}

// CountryMonthExposure is the final summary for one country and month: the
// total population across every warning level, the population per level
// (zero-filled for levels the month never reached), and the cumulative
// exposure per configured threshold.
type CountryMonthExposure struct {
	Country              string
	Period               Period
	TotalPopulation      float64
	PopulationBySeverity map[Severity]float64
	Cumulative           []ThresholdExposure
}

// AtOrAbove returns the cumulative entry for threshold k, if one was computed.
func (e CountryMonthExposure) AtOrAbove(k Severity) (ThresholdExposure, bool) {
	for _, te := range e.Cumulative {
		if te.Threshold == k {
			return te, true
		}
	}
	return ThresholdExposure{}, false
}
