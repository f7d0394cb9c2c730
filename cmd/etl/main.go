package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/warning-exposure-etl/internal/adapter/csvtable"
	kafkaadapter "github.com/couchcryptid/warning-exposure-etl/internal/adapter/kafka"
	"github.com/couchcryptid/warning-exposure-etl/internal/adapter/report"
	"github.com/couchcryptid/warning-exposure-etl/internal/config"
	"github.com/couchcryptid/warning-exposure-etl/internal/domain"
	"github.com/couchcryptid/warning-exposure-etl/internal/observability"
	"github.com/couchcryptid/warning-exposure-etl/internal/pipeline"
)

func main() {
	// .env is optional; deployments configure through the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	scale := domain.DefaultScale()
	thresholds := cfg.SeverityThresholds()
	layout := report.NewLayout(scale, thresholds)

	warnings := &csvtable.FileWarningSource{
		Path: cfg.WarningsPath,
		Options: csvtable.WarningsOptions{
			Delimiter:   cfg.WarningsDelimiterRune(),
			LabelColumn: cfg.WarningLabelColumn,
		},
	}
	populations := &csvtable.FilePopulationSource{
		Path: cfg.PopulationPath,
		Options: csvtable.PopulationOptions{
			Delimiter:        cfg.PopulationDelimiterRune(),
			PopulationColumn: cfg.PopulationColumn,
		},
	}

	emitters := []pipeline.Emitter{report.NewCSVEmitter(cfg.OutputPath, layout, logger)}

	if cfg.XLSXPath != "" {
		emitters = append(emitters, report.NewXLSXEmitter(cfg.XLSXPath, layout, logger))
		logger.Info("xlsx report enabled", "path", cfg.XLSXPath)
	}

	// Kafka publishing is feature-flagged via KAFKA_BROKERS.
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, layout, logger)
		emitters = append(emitters, writer)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(warnings, populations, emitters, scale, thresholds, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := p.Run(ctx)
	if writer != nil {
		if cerr := writer.Close(); cerr != nil {
			logger.Error("kafka writer close error", "error", cerr)
		}
	}
	if err != nil {
		logger.Error("pipeline error", "error", err)
		os.Exit(1)
	}

	logger.Info("batch run finished",
		"exposure_rows", summary.ExposureRows,
		"dropped", summary.DroppedRows,
		"output", cfg.OutputPath,
		"elapsed", summary.Elapsed,
	)
}
