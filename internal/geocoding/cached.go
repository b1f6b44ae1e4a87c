package geocoding

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/couchcryptid/issue-locator/internal/observability"
)

// Tier is one named cache level, checked in order by CachedGeocoder.
type Tier struct {
	Name  string
	Store ResultStore
}

// CachedGeocoder wraps a Geocoder with one or more cache tiers. A hit in a
// lower tier is copied into the tiers above it. Store failures are logged and
// treated as misses.
type CachedGeocoder struct {
	inner   domain.Geocoder
	tiers   []Tier
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, metrics *observability.Metrics, logger *slog.Logger, tiers ...Tier) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		tiers:   tiers,
		metrics: metrics,
		logger:  logger,
	}
}

func cacheKey(c domain.Coordinate) string {
	return "rev:" + c.Key()
}

func (g *CachedGeocoder) ReverseGeocode(ctx context.Context, c domain.Coordinate) (domain.GeocodeResult, error) {
	key := cacheKey(c)

	for i, tier := range g.tiers {
		result, ok, err := tier.Store.Get(ctx, key)
		if err != nil {
			g.metrics.GeocodeCache.WithLabelValues(tier.Name, "error").Inc()
			g.logger.Warn("geocode cache read failed", "tier", tier.Name, "key", key, "error", err)
			continue
		}
		if !ok {
			g.metrics.GeocodeCache.WithLabelValues(tier.Name, "miss").Inc()
			continue
		}
		g.metrics.GeocodeCache.WithLabelValues(tier.Name, "hit").Inc()
		g.store(ctx, g.tiers[:i], key, result)
		return result, nil
	}

	result, err := g.inner.ReverseGeocode(ctx, c)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so a transient empty answer can be retried.
	if result.DisplayName != "" {
		g.store(ctx, g.tiers, key, result)
	}
	return result, nil
}

func (g *CachedGeocoder) store(ctx context.Context, tiers []Tier, key string, result domain.GeocodeResult) {
	for _, tier := range tiers {
		if err := tier.Store.Set(ctx, key, result); err != nil {
			g.metrics.GeocodeCache.WithLabelValues(tier.Name, "error").Inc()
			g.logger.Warn("geocode cache write failed", "tier", tier.Name, "key", key, "error", err)
		}
	}
}
