package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// exposure ETL.
type Metrics struct {
	ObservationsLoaded      prometheus.Counter
	PopulationRecordsLoaded prometheus.Counter
	ObservationsDropped     prometheus.Counter
	ExposureRowsEmitted     prometheus.Counter

	Runs            *prometheus.CounterVec // label: outcome={success,error}
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ObservationsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_etl",
			Name:      "observations_loaded_total",
			Help:      "Total warning observations read from the source table.",
		}),
		PopulationRecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_etl",
			Name:      "population_records_loaded_total",
			Help:      "Total population records read from the source table.",
		}),
		ObservationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_etl",
			Name:      "observations_dropped_total",
			Help:      "Observations discarded because their region has no population row.",
		}),
		ExposureRowsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warning_etl",
			Name:      "exposure_rows_emitted_total",
			Help:      "Country-month summary rows handed to emitters.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warning_etl",
			Name:      "runs_total",
			Help:      "Completed pipeline runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "warning_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-join-aggregate-emit run.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "warning_etl",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "warning_etl",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	prometheus.MustRegister(
		m.ObservationsLoaded,
		m.PopulationRecordsLoaded,
		m.ObservationsDropped,
		m.ExposureRowsEmitted,
		m.Runs,
		m.RunDuration,
		m.PipelineRunning,
		m.LastSuccess,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ObservationsLoaded:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "warning_etl", Name: "observations_loaded_total"}),
		PopulationRecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "warning_etl", Name: "population_records_loaded_total"}),
		ObservationsDropped:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "warning_etl", Name: "observations_dropped_total"}),
		ExposureRowsEmitted:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "warning_etl", Name: "exposure_rows_emitted_total"}),
		Runs:                    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "warning_etl", Name: "runs_total"}, []string{"outcome"}),
		RunDuration:             prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "warning_etl", Name: "run_duration_seconds"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "warning_etl", Name: "pipeline_running"}),
		LastSuccess:             prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "warning_etl", Name: "last_success_timestamp_seconds"}),
	}
}
