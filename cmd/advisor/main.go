package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/tillhouse/agro-advisor/internal/adapter/httpapi"
	kafkaadapter "github.com/tillhouse/agro-advisor/internal/adapter/kafka"
	"github.com/tillhouse/agro-advisor/internal/adapter/sqlite"
	"github.com/tillhouse/agro-advisor/internal/config"
	"github.com/tillhouse/agro-advisor/internal/observability"
	"github.com/tillhouse/agro-advisor/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := sqlite.New(cfg.DBPath, clockwork.NewRealClock())
	if err != nil {
		logger.Error("failed to open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, store, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Kafka ingest is feature-flagged: API-only deployments skip it.
	var reader *kafkaadapter.Reader
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		p := pipeline.New(reader, store, logger, metrics, cfg.BatchSize)
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("ingest pipeline error", "error", err)
			}
		}()
		logger.Info("kafka ingest enabled", "topic", cfg.KafkaSourceTopic, "group_id", cfg.KafkaGroupID)
	} else {
		logger.Info("kafka ingest disabled")
	}

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
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if err := store.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
