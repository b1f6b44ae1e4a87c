package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Coordinate represents a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// NewCoordinate builds a Coordinate and validates its ranges.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate reports whether the coordinate lies inside the WGS-84 ranges.
// NaN fails both comparisons and is rejected.
func (c Coordinate) Validate() error {
	if !(c.Lat >= -90 && c.Lat <= 90) {
		return fmt.Errorf("%w: got %v", ErrInvalidLatitude, c.Lat)
	}
	if !(c.Lon >= -180 && c.Lon <= 180) {
		return fmt.Errorf("%w: got %v", ErrInvalidLongitude, c.Lon)
	}
	return nil
}

// Key renders the coordinate with six decimals, e.g. "51.500000,-0.120000".
func (c Coordinate) Key() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

func (c Coordinate) String() string {
	return c.Key()
}

// GeocodeResult is the address resolved for a coordinate. JSON names match
// the /location/reverse response body.
type GeocodeResult struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"displayName"`
	Street      string  `json:"street,omitempty"`
	HouseNumber string  `json:"houseNumber,omitempty"`
	City        string  `json:"city,omitempty"`
	State       string  `json:"state,omitempty"`
	Country     string  `json:"country,omitempty"`
	PostalCode  string  `json:"postalCode,omitempty"`
}

// LookupEvent records one upstream reverse geocoding resolution.
type LookupEvent struct {
	ID          string    `json:"id"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	DisplayName string    `json:"display_name"`
	City        string    `json:"city,omitempty"`
	Country     string    `json:"country,omitempty"`
	Provider    string    `json:"provider"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// NewLookupEvent stamps a resolution with a fresh ID and the package clock.
func NewLookupEvent(c Coordinate, result GeocodeResult, provider string) LookupEvent {
	return LookupEvent{
		ID:          uuid.NewString(),
		Lat:         c.Lat,
		Lon:         c.Lon,
		DisplayName: result.DisplayName,
		City:        result.City,
		Country:     result.Country,
		Provider:    provider,
		ResolvedAt:  clock.Now().UTC(),
	}
}
