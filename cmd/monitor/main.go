package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/couchcryptid/warning-exposure-etl/internal/adapter/csvtable"
	httpadapter "github.com/couchcryptid/warning-exposure-etl/internal/adapter/http"
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

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, layout, logger)
		emitters = append(emitters, writer)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(warnings, populations, emitters, scale, thresholds, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Runs are serialized: a tick that lands while the previous run is
	// still going is skipped, not queued.
	var running atomic.Bool
	runOnce := func() {
		if !running.CompareAndSwap(false, true) {
			logger.Warn("previous run still in progress, skipping scheduled run")
			return
		}
		defer running.Store(false)

		if _, err := p.Run(ctx); err != nil {
			logger.Error("scheduled run failed", "error", err)
		}
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Schedule, runOnce); err != nil {
		logger.Error("invalid run schedule", "schedule", cfg.Schedule, "error", err)
		os.Exit(1)
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// First run at startup, so readiness does not wait for the first tick.
	go runOnce()

	scheduler.Start()
	logger.Info("monitor started", "schedule", cfg.Schedule, "addr", cfg.HTTPAddr)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("scheduled run did not finish before shutdown deadline")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
