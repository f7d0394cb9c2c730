// Package pipeline orchestrates one load-join-aggregate-emit pass over the
// warning and population tables.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
	"github.com/couchcryptid/warning-exposure-etl/internal/observability"
)

// ObservationSource yields every warning observation for a run.
type ObservationSource interface {
	Observations(ctx context.Context) ([]domain.WarningObservation, error)
}

// PopulationSource yields the static population table for a run.
type PopulationSource interface {
	Populations(ctx context.Context) ([]domain.PopulationRecord, error)
}

// Emitter delivers computed summary rows to one destination.
type Emitter interface {
	Emit(ctx context.Context, rows []domain.CountryMonthExposure) error
}

// Summary reports what one run did.
type Summary struct {
	Observations      int
	PopulationRecords int
	DroppedRows       int
	MissingRegions    int
	ExposureRows      int
	Elapsed           time.Duration
}

// Pipeline wires the sources, the domain stages, and the emitters into one
// runnable unit.
type Pipeline struct {
	observations ObservationSource
	populations  PopulationSource
	emitters     []Emitter
	scale        *domain.Scale
	thresholds   []domain.Severity
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool
}

// New creates a Pipeline with the given stages and observability. Emitters
// run in the given order on every successful computation.
func New(obs ObservationSource, pops PopulationSource, emitters []Emitter, scale *domain.Scale, thresholds []domain.Severity, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		observations: obs,
		populations:  pops,
		emitters:     emitters,
		scale:        scale,
		thresholds:   thresholds,
		logger:       logger,
		metrics:      metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no pipeline run has completed yet")
	}
	return nil
}

// Run executes one complete pass: load both tables, join, aggregate, compute
// exposure, and hand the rows to every emitter. Any failure aborts the run;
// a partial run never marks the service ready.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	p.logger.Info("pipeline run starting", "thresholds", p.thresholds)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	start := time.Now()
	summary, err := p.run(ctx)
	summary.Elapsed = time.Since(start)
	if err != nil {
		p.metrics.Runs.WithLabelValues("error").Inc()
		return summary, err
	}

	p.metrics.Runs.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(summary.Elapsed.Seconds())
	p.metrics.LastSuccess.SetToCurrentTime()
	p.ready.Store(true)

	p.logger.Info("pipeline run complete",
		"observations", summary.Observations,
		"population_records", summary.PopulationRecords,
		"dropped", summary.DroppedRows,
		"exposure_rows", summary.ExposureRows,
		"elapsed", summary.Elapsed,
	)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context) (Summary, error) {
	var summary Summary

	obs, err := p.observations.Observations(ctx)
	if err != nil {
		return summary, fmt.Errorf("load warning observations: %w", err)
	}
	summary.Observations = len(obs)
	p.metrics.ObservationsLoaded.Add(float64(len(obs)))

	recs, err := p.populations.Populations(ctx)
	if err != nil {
		return summary, fmt.Errorf("load population records: %w", err)
	}
	summary.PopulationRecords = len(recs)
	p.metrics.PopulationRecordsLoaded.Add(float64(len(recs)))

	index, err := domain.NewPopulationIndex(recs)
	if err != nil {
		return summary, fmt.Errorf("index population records: %w", err)
	}

	joined, stats, err := domain.Join(obs, index, p.scale)
	if err != nil {
		return summary, fmt.Errorf("join observations: %w", err)
	}
	summary.DroppedRows = stats.Dropped
	summary.MissingRegions = len(stats.MissingRegions)
	if stats.Dropped > 0 {
		p.metrics.ObservationsDropped.Add(float64(stats.Dropped))
		p.logger.Warn("observations dropped: no population match",
			"dropped", stats.Dropped,
			"distinct_regions", len(stats.MissingRegions),
			"sample", stats.Sample(10),
		)
	}

	exposures := domain.ComputeExposure(domain.Aggregate(joined), p.scale, p.thresholds)
	summary.ExposureRows = len(exposures)
	p.metrics.ExposureRowsEmitted.Add(float64(len(exposures)))

	for _, e := range p.emitters {
		if err := e.Emit(ctx, exposures); err != nil {
			return summary, fmt.Errorf("emit exposure rows via %T: %w", e, err)
		}
	}
	return summary, nil
}
