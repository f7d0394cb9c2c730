package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
	"github.com/couchcryptid/warning-exposure-etl/internal/observability"
	"github.com/couchcryptid/warning-exposure-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var thresholds = []domain.Severity{
	domain.SeverityWatch,
	domain.SeverityAdvisory,
	domain.SeverityAlert,
	domain.SeverityEmergency,
}

// --- mocks ---

type mockObservationSource struct {
	observations []domain.WarningObservation
	err          error
}

func (m *mockObservationSource) Observations(_ context.Context) ([]domain.WarningObservation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.observations, nil
}

type mockPopulationSource struct {
	records []domain.PopulationRecord
	err     error
}

func (m *mockPopulationSource) Populations(_ context.Context) ([]domain.PopulationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

type captureEmitter struct {
	rows  []domain.CountryMonthExposure
	calls int
	err   error
}

func (c *captureEmitter) Emit(_ context.Context, rows []domain.CountryMonthExposure) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	c.rows = rows
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func newPipeline(obs pipeline.ObservationSource, pops pipeline.PopulationSource, emitters ...pipeline.Emitter) *pipeline.Pipeline {
	return pipeline.New(obs, pops, emitters, domain.DefaultScale(), thresholds, slog.Default(), newTestMetrics())
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	obs := &mockObservationSource{observations: []domain.WarningObservation{
		observation("101", "Kenya", "Watch"),
		observation("102", "Kenya", "Alert"),
	}}
	pops := &mockPopulationSource{records: []domain.PopulationRecord{
		{RegionID: "101", Population: 1000},
		{RegionID: "102", Population: 3000},
	}}
	emitter := &captureEmitter{}

	p := newPipeline(obs, pops, emitter)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Positive(t, summary.Elapsed)
	summary.Elapsed = 0
	expected := pipeline.Summary{
		Observations:      2,
		PopulationRecords: 2,
		ExposureRows:      1,
	}
	if diff := cmp.Diff(expected, summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}

	require.Equal(t, 1, emitter.calls)
	require.Len(t, emitter.rows, 1)
	row := emitter.rows[0]
	assert.Equal(t, "Kenya", row.Country)
	assert.Equal(t, "2021-03", row.Period.String())
	assert.InDelta(t, 4000, row.TotalPopulation, 1e-9)
	assert.InDelta(t, 1000, row.PopulationBySeverity[domain.SeverityWatch], 1e-9)
	assert.InDelta(t, 3000, row.PopulationBySeverity[domain.SeverityAlert], 1e-9)

	atLeastWatch, ok := row.AtOrAbove(domain.SeverityWatch)
	require.True(t, ok)
	assert.InDelta(t, 4000, atLeastWatch.Population, 1e-9)
	assert.InDelta(t, 100, atLeastWatch.Percent, 1e-9)

	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ObservationSourceError(t *testing.T) {
	obs := &mockObservationSource{err: errors.New("disk gone")}
	pops := &mockPopulationSource{}
	emitter := &captureEmitter{}

	p := newPipeline(obs, pops, emitter)
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load warning observations")
	assert.Zero(t, emitter.calls)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_PopulationSourceError(t *testing.T) {
	obs := &mockObservationSource{observations: []domain.WarningObservation{
		observation("101", "Kenya", "Watch"),
	}}
	pops := &mockPopulationSource{err: errors.New("disk gone")}
	emitter := &captureEmitter{}

	p := newPipeline(obs, pops, emitter)
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load population records")
	assert.Zero(t, emitter.calls)
}

func TestPipeline_Run_DuplicateRegion(t *testing.T) {
	obs := &mockObservationSource{observations: []domain.WarningObservation{
		observation("101", "Kenya", "Watch"),
	}}
	pops := &mockPopulationSource{records: []domain.PopulationRecord{
		{RegionID: "101", Population: 1000},
		{RegionID: "101", Population: 2000},
	}}

	p := newPipeline(obs, pops, &captureEmitter{})
	_, err := p.Run(context.Background())
	require.Error(t, err)

	var dup *domain.DuplicateRegionError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "101", dup.RegionID)
}

func TestPipeline_Run_UnmappedLabel(t *testing.T) {
	obs := &mockObservationSource{observations: []domain.WarningObservation{
		observation("101", "Kenya", "Watch"),
		observation("102", "Kenya", "Evacuate Now"),
	}}
	pops := &mockPopulationSource{records: []domain.PopulationRecord{
		{RegionID: "101", Population: 1000},
		{RegionID: "102", Population: 3000},
	}}
	emitter := &captureEmitter{}

	p := newPipeline(obs, pops, emitter)
	_, err := p.Run(context.Background())
	require.Error(t, err)

	var unmapped *domain.UnmappedLabelError
	require.ErrorAs(t, err, &unmapped)
	assert.Equal(t, "Evacuate Now", unmapped.Label)
	assert.Equal(t, "102", unmapped.RegionID)
	assert.Zero(t, emitter.calls)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_DroppedObservations(t *testing.T) {
	obs := &mockObservationSource{observations: []domain.WarningObservation{
		observation("101", "Kenya", "Watch"),
		observation("404", "Kenya", "Emergency"),
		observation("404", "Kenya", "Alert"),
	}}
	pops := &mockPopulationSource{records: []domain.PopulationRecord{
		{RegionID: "101", Population: 1000},
	}}
	emitter := &captureEmitter{}

	p := newPipeline(obs, pops, emitter)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.DroppedRows)
	assert.Equal(t, 1, summary.MissingRegions)
	require.Len(t, emitter.rows, 1)
	assert.InDelta(t, 1000, emitter.rows[0].TotalPopulation, 1e-9)

	atLeastEmergency, ok := emitter.rows[0].AtOrAbove(domain.SeverityEmergency)
	require.True(t, ok)
	assert.Zero(t, atLeastEmergency.Population)
}

func TestPipeline_Run_EmitterError(t *testing.T) {
	obs := &mockObservationSource{observations: []domain.WarningObservation{
		observation("101", "Kenya", "Watch"),
	}}
	pops := &mockPopulationSource{records: []domain.PopulationRecord{
		{RegionID: "101", Population: 1000},
	}}
	first := &captureEmitter{}
	second := &captureEmitter{err: errors.New("broker down")}

	p := newPipeline(obs, pops, first, second)
	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emit exposure rows")
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_EmptyInputs(t *testing.T) {
	emitter := &captureEmitter{}

	p := newPipeline(&mockObservationSource{}, &mockPopulationSource{}, emitter)
	summary, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Observations)
	assert.Zero(t, summary.ExposureRows)
	assert.Equal(t, 1, emitter.calls)
	assert.Empty(t, emitter.rows)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_CheckReadiness_BeforeFirstRun(t *testing.T) {
	p := newPipeline(&mockObservationSource{}, &mockPopulationSource{})
	err := p.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pipeline run has completed")
}

// --- helpers ---

func observation(regionID, country, label string) domain.WarningObservation {
	return domain.WarningObservation{
		RegionID: regionID,
		Country:  country,
		Date:     time.Date(2021, time.March, 11, 0, 0, 0, 0, time.UTC),
		Label:    label,
	}
}
