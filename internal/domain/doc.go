// Package domain models the location data exchanged by the issue reporting
// location workflow.
//
// # Coordinates
//
// A [Coordinate] is a WGS-84 latitude/longitude pair. Latitude must lie in
// [-90, 90] and longitude in [-180, 180]; [Coordinate.Validate] enforces both.
// Coordinates are plain values and are never mutated after construction.
//
// Cache keys and log output render coordinates with six decimals
// (about 0.1 m at the equator), see [Coordinate.Key]. Two map clicks that
// round to the same key share one cached geocoding result.
//
// # Reverse Geocoding
//
// A [Geocoder] turns a coordinate into a [GeocodeResult]. Every failure mode
// (transport error, timeout, non-2xx status, undecodable body, empty address)
// is reported as a [*GeocodeError], which matches [ErrGeocodeFailure] under
// errors.Is. Callers never retry; they display [AddressPlaceholder] instead.
//
// Upstream display names follow the OpenEpi convention:
//
//	"<house number> <street>, <city>, <state>, <country>"
//
// Missing parts are skipped. When no part is present the provider's feature
// name is used, and an empty feature list yields [UnknownLocation].
//
// # Lookup Events
//
// Every successful upstream resolution (cache misses only) may be published as
// a [LookupEvent]. Event IDs are random UUIDs; ResolvedAt comes from the
// package clock so tests can freeze it with [SetClock].
package domain
