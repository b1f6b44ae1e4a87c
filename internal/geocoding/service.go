// Package geocoding resolves coordinates to addresses for the location API.
// A Service validates input and collapses identical concurrent lookups; the
// decorators in this package add caching, rate limiting, provider fallback
// and lookup event publishing around an upstream provider.
package geocoding

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/couchcryptid/issue-locator/internal/observability"
	"golang.org/x/sync/singleflight"
)

// DefaultLookupTimeout bounds one shared upstream lookup.
const DefaultLookupTimeout = 30 * time.Second

// Service is the entry point used by the HTTP handler.
type Service struct {
	geocoder domain.Geocoder
	group    singleflight.Group
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService creates a Service over a decorated geocoder chain.
func NewService(geocoder domain.Geocoder, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Service{
		geocoder: geocoder,
		timeout:  timeout,
		metrics:  metrics,
		logger:   logger,
	}
}

// ReverseGeocode validates c and resolves it. Concurrent calls for the same
// coordinate share one lookup, which outlives any single caller's context so
// that one disconnecting client does not fail the others.
func (s *Service) ReverseGeocode(ctx context.Context, c domain.Coordinate) (domain.GeocodeResult, error) {
	if err := c.Validate(); err != nil {
		return domain.GeocodeResult{}, err
	}

	ch := s.group.DoChan(c.Key(), func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.geocoder.ReverseGeocode(lookupCtx, c)
	})

	select {
	case <-ctx.Done():
		return domain.GeocodeResult{}, domain.NewGeocodeError(c, 0, "request cancelled", ctx.Err())
	case res := <-ch:
		if res.Shared {
			s.metrics.SharedLookups.Inc()
		}
		if res.Err != nil {
			return domain.GeocodeResult{}, res.Err
		}
		result := res.Val.(domain.GeocodeResult)
		s.logger.Debug("reverse geocoded", "lat", c.Lat, "lon", c.Lon, "display_name", result.DisplayName, "shared", res.Shared)
		return result, nil
	}
}
