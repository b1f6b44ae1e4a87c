package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/issue-locator/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/issue-locator/internal/adapter/kafka"
	"github.com/couchcryptid/issue-locator/internal/adapter/nominatim"
	"github.com/couchcryptid/issue-locator/internal/adapter/openepi"
	redisadapter "github.com/couchcryptid/issue-locator/internal/adapter/redis"
	"github.com/couchcryptid/issue-locator/internal/config"
	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/couchcryptid/issue-locator/internal/geocoding"
	"github.com/couchcryptid/issue-locator/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Upstream provider, selected via GEOCODER_PROVIDER.
	oe := openepi.NewClient(cfg.OpenEpiURL, cfg.GeocoderTimeout, metrics, logger)
	nm := nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocoderTimeout, metrics, logger)
	var upstream domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.ProviderNominatim:
		upstream = nm
	case config.ProviderFallback:
		upstream = geocoding.NewFallback(oe, nm, logger)
	default:
		upstream = oe
	}
	upstream = geocoding.NewRateLimited(upstream, cfg.GeocoderRateEvery, metrics)

	// Lookup events (feature-flagged via KAFKA_BROKERS).
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		upstream = geocoding.NewPublishing(upstream, writer, cfg.GeocoderProvider, metrics, logger)
		logger.Info("lookup events enabled", "topic", cfg.KafkaLookupTopic, "brokers", cfg.KafkaBrokers)
	}

	tiers := []geocoding.Tier{
		{Name: "memory", Store: geocoding.NewLRUStore(cfg.GeocoderCacheSize, cfg.GeocoderCacheTTL, nil)},
	}
	var ready sharedobs.ReadinessChecker = httpadapter.AlwaysReady{}
	var redisClose func() error
	if cfg.RedisURL != "" {
		client, err := redisadapter.NewClient(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to create redis client", "error", err)
			os.Exit(1)
		}
		redisClose = client.Close
		store := redisadapter.NewStore(client, cfg.GeocoderCacheTTL)
		tiers = append(tiers, geocoding.Tier{Name: "redis", Store: store})
		ready = store
		logger.Info("redis cache enabled", "ttl", cfg.GeocoderCacheTTL)
	}

	cached := geocoding.NewCachedGeocoder(upstream, metrics, logger, tiers...)
	svc := geocoding.NewService(cached, 0, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, ready, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	logger.Info("location api started",
		"provider", cfg.GeocoderProvider,
		"rate_interval", cfg.GeocoderRateEvery,
		"cache_size", cfg.GeocoderCacheSize,
	)

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
	if redisClose != nil {
		if err := redisClose(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
