// Package openepi implements reverse geocoding against the OpenEpi geocoding API.
package openepi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/couchcryptid/issue-locator/internal/observability"
)

// Provider is the name recorded in metrics and lookup events.
const Provider = "openepi"

// Client implements domain.Geocoder using the OpenEpi geocoding API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenEpi geocoding client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ReverseGeocode converts coordinates to address details. An empty feature
// list resolves to domain.UnknownLocation rather than an error.
func (c *Client) ReverseGeocode(ctx context.Context, coord domain.Coordinate) (domain.GeocodeResult, error) {
	params := url.Values{
		"lat": {strconv.FormatFloat(coord.Lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(coord.Lon, 'f', -1, 64)},
	}
	fullURL := c.baseURL + "/geocoding/reverse?" + params.Encode()

	start := time.Now()
	result, err := c.doRequest(ctx, coord, fullURL)
	c.metrics.GeocodeAPIDuration.WithLabelValues(Provider).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues(Provider, "error").Inc()
		c.logger.Error("openepi reverse geocoding failed", "lat", coord.Lat, "lon", coord.Lon, "error", err)
	case result.DisplayName == domain.UnknownLocation:
		c.metrics.GeocodeRequests.WithLabelValues(Provider, "empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues(Provider, "success").Inc()
		c.logger.Info("openepi reverse geocoded", "lat", coord.Lat, "lon", coord.Lon, "display_name", result.DisplayName)
	}
	return result, err
}

func (c *Client) doRequest(ctx context.Context, coord domain.Coordinate, fullURL string) (domain.GeocodeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, 0, "create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, 0, "openepi request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, resp.StatusCode, fmt.Sprintf("openepi API error: %s", body), nil)
	}

	var openepiResp response
	if err := json.NewDecoder(resp.Body).Decode(&openepiResp); err != nil {
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, resp.StatusCode, "decode response", err)
	}

	return toResult(coord, openepiResp), nil
}

func toResult(coord domain.Coordinate, r response) domain.GeocodeResult {
	if len(r.Features) == 0 {
		return domain.GeocodeResult{Lat: coord.Lat, Lon: coord.Lon, DisplayName: domain.UnknownLocation}
	}

	f := r.Features[0]
	p := f.Properties
	result := domain.GeocodeResult{
		Lat:         coord.Lat,
		Lon:         coord.Lon,
		Street:      p.Street,
		HouseNumber: p.HouseNumber,
		City:        p.City,
		State:       p.State,
		Country:     p.Country,
		PostalCode:  p.Postcode,
	}
	// GeoJSON order is [lon, lat].
	if len(f.Geometry.Coordinates) == 2 {
		result.Lon = f.Geometry.Coordinates[0]
		result.Lat = f.Geometry.Coordinates[1]
	}
	fallback := p.Name
	if fallback == "" {
		fallback = domain.UnknownLocation
	}
	result.DisplayName = domain.BuildDisplayName(result, fallback)
	return result
}

// OpenEpi API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties properties `json:"properties"`
	Geometry   geometry   `json:"geometry"`
}

type properties struct {
	Name        string `json:"name"`
	Street      string `json:"street"`
	HouseNumber string `json:"housenumber"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Postcode    string `json:"postcode"`
}

type geometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}
