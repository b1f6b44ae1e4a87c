package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Geocoding providers selectable via GEOCODER_PROVIDER.
const (
	ProviderOpenEpi   = "openepi"
	ProviderNominatim = "nominatim"
	ProviderFallback  = "fallback"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Reverse geocoding upstream configuration.
	GeocoderProvider   string
	OpenEpiURL         string
	NominatimURL       string
	NominatimUserAgent string
	GeocoderTimeout    time.Duration
	GeocoderRateEvery  time.Duration
	GeocoderCacheSize  int
	GeocoderCacheTTL   time.Duration

	// Optional shared cache and event stream. Empty disables them.
	RedisURL         string
	KafkaBrokers     []string
	KafkaLookupTopic string

	// Location picker configuration.
	LocationAPIURL      string
	PickerQuietPeriod   time.Duration
	PickerLookupTimeout time.Duration
	MapCenterLat        float64
	MapCenterLon        float64
	MapZoom             int
}

// KafkaEnabled reports whether lookup events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	geocoderTimeout, err := parsePositiveDuration("GEOCODER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	rateEvery, err := parsePositiveDuration("GEOCODER_RATE_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("GEOCODER_CACHE_TTL", "24h")
	if err != nil {
		return nil, err
	}
	quietPeriod, err := parsePositiveDuration("PICKER_QUIET_PERIOD", "1s")
	if err != nil {
		return nil, err
	}
	lookupTimeout, err := parsePositiveDuration("PICKER_LOOKUP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	centerLat, err := parseFloat("MAP_CENTER_LAT", "40.7128")
	if err != nil {
		return nil, err
	}
	centerLon, err := parseFloat("MAP_CENTER_LON", "-74.006")
	if err != nil {
		return nil, err
	}
	zoom, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAP_ZOOM", "13"))
	if err != nil || zoom < 1 || zoom > 19 {
		return nil, errors.New("invalid MAP_ZOOM: must be an integer between 1 and 19")
	}

	var brokers []string
	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeocoderProvider:   strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER_PROVIDER", ProviderOpenEpi)),
		OpenEpiURL:         sharedcfg.EnvOrDefault("OPENEPI_URL", "https://api.openepi.io"),
		NominatimURL:       sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "issue-locator/1.0"),
		GeocoderTimeout:    geocoderTimeout,
		GeocoderRateEvery:  rateEvery,
		GeocoderCacheSize:  parseCacheSize(),
		GeocoderCacheTTL:   cacheTTL,

		RedisURL:         os.Getenv("REDIS_URL"),
		KafkaBrokers:     brokers,
		KafkaLookupTopic: sharedcfg.EnvOrDefault("KAFKA_LOOKUP_TOPIC", "location-lookups"),

		LocationAPIURL:      strings.TrimRight(sharedcfg.EnvOrDefault("LOCATION_API_URL", "http://localhost:8080/api/v1"), "/"),
		PickerQuietPeriod:   quietPeriod,
		PickerLookupTimeout: lookupTimeout,
		MapCenterLat:        centerLat,
		MapCenterLon:        centerLon,
		MapZoom:             zoom,
	}

	switch cfg.GeocoderProvider {
	case ProviderOpenEpi, ProviderNominatim, ProviderFallback:
	default:
		return nil, fmt.Errorf("invalid GEOCODER_PROVIDER %q: want openepi, nominatim or fallback", cfg.GeocoderProvider)
	}
	if cfg.MapCenterLat < -90 || cfg.MapCenterLat > 90 {
		return nil, errors.New("invalid MAP_CENTER_LAT: must be between -90 and 90")
	}
	if cfg.MapCenterLon < -180 || cfg.MapCenterLon > 180 {
		return nil, errors.New("invalid MAP_CENTER_LON: must be between -180 and 180")
	}
	if cfg.KafkaEnabled() && cfg.KafkaLookupTopic == "" {
		return nil, errors.New("KAFKA_LOOKUP_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseCacheSize() int {
	if s := os.Getenv("GEOCODER_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
