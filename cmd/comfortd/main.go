package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/atmoslabs/comfort-engine/internal/adapter/httpapi"
	kafkaadapter "github.com/atmoslabs/comfort-engine/internal/adapter/kafka"
	"github.com/atmoslabs/comfort-engine/internal/adapter/power"
	"github.com/atmoslabs/comfort-engine/internal/config"
	"github.com/atmoslabs/comfort-engine/internal/engine"
	"github.com/atmoslabs/comfort-engine/internal/observability"
	"github.com/atmoslabs/comfort-engine/internal/sampler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := power.NewClient(cfg.PowerBaseURL, cfg.PowerAPIKey, cfg.PowerTimeout, cfg.PowerRetries, metrics, logger)
	source := power.NewCachedSource(client, cfg.PowerCacheSize, metrics)
	logger.Info("climatology source ready",
		"base_url", cfg.PowerBaseURL,
		"cache_size", cfg.PowerCacheSize,
		"retries", cfg.PowerRetries,
	)

	// Result export is feature-flagged via KAFKA_ENABLED.
	var exporter engine.ResultExporter
	var kafkaExporter *kafkaadapter.Exporter
	if cfg.KafkaEnabled {
		kafkaExporter = kafkaadapter.NewExporter(cfg.KafkaBrokers, cfg.KafkaResultsTopic, logger)
		exporter = kafkaExporter
		logger.Info("result export enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaResultsTopic)
	} else {
		logger.Info("result export disabled")
	}

	s := sampler.New(source, cfg.SampleWorkers, cfg.SampleTimeout, logger, metrics)
	eng := engine.New(source, s, exporter, cfg.MaxSampleCount, logger, metrics)

	srv := httpapi.NewServer(cfg.HTTPAddr, eng, cfg.CORSOrigins, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	if kafkaExporter != nil {
		if err := kafkaExporter.Close(); err != nil {
			logger.Error("kafka exporter close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
