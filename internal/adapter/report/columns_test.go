package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
)

var defaultThresholds = []domain.Severity{
	domain.SeverityWatch,
	domain.SeverityAdvisory,
	domain.SeverityAlert,
	domain.SeverityEmergency,
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

// exposureRows runs a small observation set through the domain stages:
// Kenya 2020-01 has Watch (1000) and Alert (3000), Zambia 2020-02 is
// entirely off season (600).
func exposureRows(t *testing.T) []domain.CountryMonthExposure {
	t.Helper()
	scale := domain.DefaultScale()

	idx, err := domain.NewPopulationIndex([]domain.PopulationRecord{
		{RegionID: "A", Population: 1000},
		{RegionID: "B", Population: 3000},
		{RegionID: "C", Population: 600},
	})
	require.NoError(t, err)

	rows, _, err := domain.Join([]domain.WarningObservation{
		{RegionID: "A", Country: "Kenya", Date: date(t, "2020-01-15"), Label: "Watch"},
		{RegionID: "B", Country: "Kenya", Date: date(t, "2020-01-20"), Label: "Alert"},
		{RegionID: "C", Country: "Zambia", Date: date(t, "2020-02-10"), Label: "Off season"},
	}, idx, scale)
	require.NoError(t, err)

	return domain.ComputeExposure(domain.Aggregate(rows), scale, defaultThresholds)
}

func TestNewLayoutHeader(t *testing.T) {
	layout := NewLayout(domain.DefaultScale(), defaultThresholds)

	assert.Equal(t, []string{
		"country", "year_month", "total_population",
		"pop_no_crop_or_rangeland", "pop_no_warning",
		"pop_warning_group_1", "pop_warning_group_2", "pop_warning_group_3", "pop_warning_group_4",
		"pop_warning_1_plus", "pop_warning_2_plus", "pop_warning_3_plus", "pop_warning_4_plus",
		"pct_warning_1_plus", "pct_warning_2_plus", "pct_warning_3_plus", "pct_warning_4_plus",
		"pop_off_season",
	}, layout.Header())
}

func TestLayoutRecord(t *testing.T) {
	layout := NewLayout(domain.DefaultScale(), defaultThresholds)
	rows := exposureRows(t)
	require.Len(t, rows, 2)

	t.Run("mixed warning month", func(t *testing.T) {
		assert.Equal(t, []string{
			"Kenya", "2020-01", "4000",
			"0", "0",
			"1000", "0", "3000", "0",
			"4000", "3000", "3000", "0",
			"100.00", "75.00", "75.00", "0.00",
			"0",
		}, layout.Record(rows[0]))
	})

	t.Run("entirely off season month", func(t *testing.T) {
		assert.Equal(t, []string{
			"Zambia", "2020-02", "600",
			"0", "0",
			"0", "0", "0", "0",
			"0", "0", "0", "0",
			"0.00", "0.00", "0.00", "0.00",
			"600",
		}, layout.Record(rows[1]))
	})
}

func TestLayoutRecordFractionalPopulation(t *testing.T) {
	scale := domain.DefaultScale()
	layout := NewLayout(scale, []domain.Severity{domain.SeverityWatch})

	idx, err := domain.NewPopulationIndex([]domain.PopulationRecord{
		{RegionID: "A", Population: 1234.75},
	})
	require.NoError(t, err)

	rows, _, err := domain.Join([]domain.WarningObservation{
		{RegionID: "A", Country: "Kenya", Date: date(t, "2020-01-15"), Label: "Watch"},
	}, idx, scale)
	require.NoError(t, err)

	exposures := domain.ComputeExposure(domain.Aggregate(rows), scale, []domain.Severity{domain.SeverityWatch})
	record := layout.Record(exposures[0])

	assert.Equal(t, "1234.75", record[2], "populations keep full precision")
	assert.Equal(t, "100.00", record[len(record)-2])
}

func TestNewLayoutCustomScale(t *testing.T) {
	scale, err := domain.NewScale([]domain.Level{
		{Label: "Dormant", Value: -1, Sentinel: true},
		{Label: "Quiet", Value: 0},
		{Label: "Loud", Value: 2},
	})
	require.NoError(t, err)

	layout := NewLayout(scale, []domain.Severity{2})
	assert.Equal(t, []string{
		"country", "year_month", "total_population",
		"pop_quiet", "pop_warning_group_2",
		"pop_warning_2_plus", "pct_warning_2_plus",
		"pop_dormant",
	}, layout.Header())
}

func TestNewLayoutWithoutSentinels(t *testing.T) {
	scale, err := domain.NewScale([]domain.Level{
		{Label: "Low", Value: 0},
		{Label: "High", Value: 1},
	})
	require.NoError(t, err)

	layout := NewLayout(scale, []domain.Severity{1})
	assert.Equal(t, []string{
		"country", "year_month", "total_population",
		"pop_low", "pop_warning_group_1",
		"pop_warning_1_plus", "pct_warning_1_plus",
	}, layout.Header())
}
