package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/covid-data-engine/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/covid-data-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/covid-data-engine/internal/adapter/kafka"
	"github.com/couchcryptid/covid-data-engine/internal/config"
	"github.com/couchcryptid/covid-data-engine/internal/dataset"
	"github.com/couchcryptid/covid-data-engine/internal/observability"
	"github.com/couchcryptid/covid-data-engine/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	gazSource := csvfile.NewGazetteerFile(cfg.GazetteerPath, logger)
	obsSource := csvfile.NewTimeSeriesFile(cfg.TimeSeriesPath, logger)

	// Sink publishing is feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka sink disabled")
	}

	loader := pipeline.New(gazSource, obsSource, publisher, logger, metrics, pipeline.Options{
		TrendWindowDays: cfg.TrendWindowDays,
		BatchSize:       cfg.BatchSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := loader.Build(ctx)
	if err != nil {
		logger.Error("dataset build failed", "error", err)
		os.Exit(1)
	}

	queries := dataset.NewCachedService(svc, cfg.SnapshotCacheSize, func(query string, hit bool) {
		result := "miss"
		if hit {
			result = "hit"
		}
		metrics.SnapshotCache.WithLabelValues(query, result).Inc()
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, loader, queries, logger, metrics)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

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
