package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/firms-wildfire-service/internal/adapter/firms"
	httpadapter "github.com/couchcryptid/firms-wildfire-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/firms-wildfire-service/internal/adapter/kafka"
	"github.com/couchcryptid/firms-wildfire-service/internal/adapter/mapbox"
	"github.com/couchcryptid/firms-wildfire-service/internal/config"
	"github.com/couchcryptid/firms-wildfire-service/internal/domain"
	"github.com/couchcryptid/firms-wildfire-service/internal/observability"
	"github.com/couchcryptid/firms-wildfire-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	if cfg.EnvFile != "" {
		logger.Info("loaded env file", "path", cfg.EnvFile)
	}

	feed := firms.NewClient(cfg.FIRMSAPIKey, cfg.FIRMSBaseURL, logger).WithRateLimit(cfg.FIRMSRateLimit)
	if !feed.Configured() {
		logger.Warn("FIRMS_API_KEY is not set, fire queries will fail until it is configured")
	}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled, zipCode lookups are unavailable")
	}

	var writer *kafkaadapter.Writer
	opts := pipeline.Options{
		Flare: domain.FlareThresholds{
			MaxFRP:        cfg.FlareMaxFRP,
			MaxBrightness: cfg.FlareMaxBrightness,
			MaxConfidence: cfg.FlareMaxConfidence,
		},
		NearbyTimeout: cfg.FIRMSNearbyTimeout,
		RegionTimeout: cfg.FIRMSRegionTimeout,
	}
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts.Publisher = writer
		metrics.PublisherEnabled.Set(1)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaDetectionsTopic)
	}

	cache := pipeline.NewResultCache(cfg.RegionCacheTTL, cfg.RegionCacheSize, nil)
	svc := pipeline.NewService(feed, cache, opts, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, geocoder, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
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
