package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/voyage-emissions-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/voyage-emissions-service/internal/adapter/kafka"
	"github.com/couchcryptid/voyage-emissions-service/internal/catalog"
	"github.com/couchcryptid/voyage-emissions-service/internal/config"
	"github.com/couchcryptid/voyage-emissions-service/internal/estimator"
	"github.com/couchcryptid/voyage-emissions-service/internal/observability"
	"github.com/couchcryptid/voyage-emissions-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("service error", "error", err)
		stop()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// run wires the service and blocks until ctx is cancelled or a component
// fails. A catalog that cannot be loaded stops the service.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	loader := catalog.NewLoader(catalog.Sources{
		PortsFile:   cfg.PortsFile,
		VesselsFile: cfg.VesselsFile,
		PricesFile:  cfg.PricesFile,
		Snapshot:    cfg.CatalogSnapshot,
	}, logger)

	resolver, err := estimator.NewResolver(cfg, metrics, logger)
	if err != nil {
		return fmt.Errorf("build distance resolver: %w", err)
	}
	est := estimator.New(loader, resolver, cfg.PhaseIn, metrics, logger)

	checks := httpadapter.Checks{est}

	// Request pipeline (feature-flagged via KAFKA_ENABLED).
	var (
		p      *pipeline.Pipeline
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := reader.Close(); err != nil {
				logger.Error("kafka reader close error", "error", err)
			}
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		p = pipeline.New(reader, pipeline.NewTransformer(est), writer, logger, metrics, cfg.BatchSize)
		checks = append(checks, p)
		logger.Info("kafka pipeline enabled",
			"source_topic", cfg.KafkaSourceTopic,
			"sink_topic", cfg.KafkaSinkTopic,
			"batch_size", cfg.BatchSize,
		)
	} else {
		logger.Info("kafka pipeline disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, est, checks, logger)

	g, gctx := errgroup.WithContext(ctx)

	// Reference data loads in the background; /readyz reports 503 until it
	// succeeds. A failed load cancels the group.
	g.Go(func() error {
		if _, err := loader.Get(); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if p != nil {
		g.Go(func() error { return p.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	return g.Wait()
}
