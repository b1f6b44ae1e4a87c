package geocoding

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/issue-locator/internal/domain"
)

// Fallback asks primary first and secondary when primary fails or knows
// nothing about the coordinate.
type Fallback struct {
	primary   domain.Geocoder
	secondary domain.Geocoder
	logger    *slog.Logger
}

// NewFallback chains two geocoders.
func NewFallback(primary, secondary domain.Geocoder, logger *slog.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) ReverseGeocode(ctx context.Context, c domain.Coordinate) (domain.GeocodeResult, error) {
	result, err := f.primary.ReverseGeocode(ctx, c)
	if err == nil && !unresolved(result) {
		return result, nil
	}
	if err != nil {
		f.logger.Warn("primary geocoder failed, trying fallback", "lat", c.Lat, "lon", c.Lon, "error", err)
	} else {
		f.logger.Debug("primary geocoder found nothing, trying fallback", "lat", c.Lat, "lon", c.Lon)
	}

	second, secondErr := f.secondary.ReverseGeocode(ctx, c)
	switch {
	case secondErr == nil && !unresolved(second):
		return second, nil
	case err == nil:
		// Keep the primary's "nothing here" answer over a second failure.
		return result, nil
	case secondErr == nil:
		return second, nil
	default:
		return domain.GeocodeResult{}, errors.Join(err, secondErr)
	}
}

func unresolved(r domain.GeocodeResult) bool {
	return r.DisplayName == "" || r.DisplayName == domain.UnknownLocation
}
