package domain

import (
	"context"
	"errors"
	"fmt"
)

const (
	// AddressPlaceholder is shown in place of an address whose lookup failed.
	AddressPlaceholder = "Unable to resolve address"

	// UnknownLocation is the display name for coordinates with no known features.
	UnknownLocation = "Unknown location"
)

// ErrGeocodeFailure matches every *GeocodeError under errors.Is.
var ErrGeocodeFailure = errors.New("geocode failure")

// Geocoder resolves coordinates into addresses.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, c Coordinate) (GeocodeResult, error)
}

// LookupPublisher receives upstream resolutions. Implementations must not block
// the caller for longer than ctx allows.
type LookupPublisher interface {
	PublishLookup(ctx context.Context, event LookupEvent) error
}

// GeocodeError describes a failed reverse geocoding request.
type GeocodeError struct {
	Coordinate Coordinate
	Status     int // HTTP status, 0 when the request never completed
	Message    string
	Err        error
}

func (e *GeocodeError) Error() string {
	msg := fmt.Sprintf("reverse geocode %s: %s", e.Coordinate, e.Message)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *GeocodeError) Unwrap() error { return e.Err }

func (e *GeocodeError) Is(target error) bool { return target == ErrGeocodeFailure }

// NewGeocodeError wraps err as a geocode failure for c.
func NewGeocodeError(c Coordinate, status int, message string, err error) *GeocodeError {
	return &GeocodeError{Coordinate: c, Status: status, Message: message, Err: err}
}
