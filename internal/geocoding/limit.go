package geocoding

import (
	"context"
	"time"

	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/couchcryptid/issue-locator/internal/observability"
	"golang.org/x/time/rate"
)

// DefaultRateInterval is the upstream quota: one request per second.
const DefaultRateInterval = time.Second

// RateLimited spaces calls to inner so that at most one starts per interval.
// Callers queue in Wait and give up when their context ends.
type RateLimited struct {
	inner   domain.Geocoder
	limiter *rate.Limiter
	metrics *observability.Metrics
}

// NewRateLimited wraps inner with a limiter of one request per every, burst 1.
func NewRateLimited(inner domain.Geocoder, every time.Duration, metrics *observability.Metrics) *RateLimited {
	if every <= 0 {
		every = DefaultRateInterval
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(every), 1),
		metrics: metrics,
	}
}

func (r *RateLimited) ReverseGeocode(ctx context.Context, c domain.Coordinate) (domain.GeocodeResult, error) {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.GeocodeResult{}, domain.NewGeocodeError(c, 0, "waiting for rate limiter", err)
	}
	r.metrics.RateLimitWait.Observe(time.Since(start).Seconds())
	return r.inner.ReverseGeocode(ctx, c)
}
