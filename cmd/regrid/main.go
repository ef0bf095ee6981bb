package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	httpadapter "github.com/couchcryptid/storm-radar-regrid/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-radar-regrid/internal/adapter/kafka"
	"github.com/couchcryptid/storm-radar-regrid/internal/adapter/preview"
	"github.com/couchcryptid/storm-radar-regrid/internal/config"
	"github.com/couchcryptid/storm-radar-regrid/internal/observability"
	"github.com/couchcryptid/storm-radar-regrid/internal/pipeline"
	"github.com/couchcryptid/storm-radar-regrid/internal/regrid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	regridder := regrid.New(cfg.RegridOptions(), logger)
	defer regridder.Close()
	metrics.ComputeThreads.Set(float64(regridder.Threads()))
	logger.Info("regrid engine ready",
		"threads", regridder.Threads(),
		"nearest_neighbor", cfg.UseNearestNeighbor,
		"beam_width_fraction", cfg.BeamWidthFraction,
		"center_on_radar", cfg.CenterOnRadar,
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(regridder, logger, metrics)

	// Initialize preview sink (feature-flagged via PREVIEW_DIR).
	loader := pipeline.MultiLoader{writer}
	if cfg.PreviewDir != "" {
		sink, err := preview.NewSink(cfg.PreviewDir, logger, metrics)
		if err != nil {
			logger.Error("failed to create preview sink", "error", err)
			os.Exit(1)
		}
		loader = append(loader, sink)
		logger.Info("preview sink enabled", "dir", cfg.PreviewDir)
	} else {
		logger.Info("preview sink disabled")
	}

	p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start regrid pipeline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	if last, ok := p.LastGrid(); ok {
		logger.Info("shutting down", "last_volume_id", last.VolumeID, "last_pass_id", last.PassID)
	} else {
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	// A cancelled pass stops at its next cell; the deferred Close waits for it.
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}

	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
