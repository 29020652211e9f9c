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

	httpadapter "github.com/couchcryptid/storm-radar-sim/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-radar-sim/internal/adapter/kafka"
	"github.com/couchcryptid/storm-radar-sim/internal/adapter/tui"
	"github.com/couchcryptid/storm-radar-sim/internal/adapter/weather"
	"github.com/couchcryptid/storm-radar-sim/internal/config"
	"github.com/couchcryptid/storm-radar-sim/internal/domain"
	"github.com/couchcryptid/storm-radar-sim/internal/loop"
	"github.com/couchcryptid/storm-radar-sim/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	layout, params := domain.DefaultLayout(), domain.DefaultParams()
	params.Response = cfg.Response
	if cfg.SceneFile != "" {
		layout, params, err = config.LoadScene(cfg.SceneFile, layout, params)
		if err != nil {
			logger.Error("failed to load scene file", "path", cfg.SceneFile, "error", err)
			os.Exit(1)
		}
		logger.Info("scene file loaded", "path", cfg.SceneFile)
	}
	scene := domain.NewScene(layout, params)

	clock := clockwork.NewRealClock()
	source := weather.NewSource(cfg.WeatherURL, cfg.WeatherTimeout, logger, metrics)

	l := loop.New(scene, loop.Settings{
		Params:   params,
		Capacity: cfg.UniformCapacity,
		Interval: cfg.FrameInterval,
		Seed:     cfg.Seed,
		Clock:    clock,
	}, source, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Kafka frame sink (feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS).
	var (
		writer    *kafkaadapter.Writer
		kafkaSink *loop.BatchSink
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		kafkaSink = loop.NewBatchSink("kafka", writer, cfg.BatchSize, cfg.BatchFlushInterval, clock, logger, metrics)
		l.AddSink(kafkaSink)
		logger.Info("kafka frame sink enabled", "topic", cfg.KafkaFrameTopic, "batch_size", cfg.BatchSize)
	} else {
		logger.Info("kafka frame sink disabled")
	}

	// Terminal renderer.
	var renderer *tui.Renderer
	if cfg.Renderer == config.RendererTUI {
		screen, err := tui.NewScreen()
		if err != nil {
			logger.Error("failed to open terminal", "error", err)
			os.Exit(1)
		}
		renderer = tui.NewRenderer(screen, scene, layout.Radars, logger)
		l.AddSink(renderer)
		renderer.OnResize(l.Resize)
		go renderer.HandleEvents(stop)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, l, l, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start frame loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := l.Run(ctx); err != nil {
			logger.Error("frame loop error", "error", err)
		}
	}()

	<-ctx.Done()
	<-done
	if renderer != nil {
		renderer.Close()
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaSink != nil {
		if err := kafkaSink.Flush(shutdownCtx); err != nil {
			logger.Error("kafka final flush error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
