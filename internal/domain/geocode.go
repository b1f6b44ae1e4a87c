package domain

import (
	"context"
	"log/slog"
	"strings"
)

// ResolveAddress reverse geocodes c and returns the text to show for it.
// Any failure, including an empty display name, degrades to AddressPlaceholder
// with ok=false; the error is logged, never returned.
func ResolveAddress(ctx context.Context, geocoder Geocoder, c Coordinate, logger *slog.Logger) (address string, ok bool) {
	result, err := geocoder.ReverseGeocode(ctx, c)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", c.Lat,
			"lon", c.Lon,
			"error", err,
		)
		return AddressPlaceholder, false
	}
	if result.DisplayName == "" {
		logger.Warn("reverse geocoding returned no address", "lat", c.Lat, "lon", c.Lon)
		return AddressPlaceholder, false
	}
	return result.DisplayName, true
}

// BuildDisplayName joins address parts as
// "<houseNumber> <street>, <city>, <state>, <country>", skipping empty parts.
// fallback is returned when every part is empty.
func BuildDisplayName(r GeocodeResult, fallback string) string {
	var b strings.Builder
	if r.HouseNumber != "" {
		b.WriteString(r.HouseNumber)
		b.WriteString(" ")
	}
	b.WriteString(r.Street)
	for _, part := range []string{r.City, r.State, r.Country} {
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(part)
	}
	name := strings.TrimSpace(b.String())
	if name == "" {
		return fallback
	}
	return name
}
