// Package nominatim implements reverse geocoding against an OpenStreetMap
// Nominatim server.
package nominatim

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
const Provider = "nominatim"

// Client implements domain.Geocoder using the Nominatim /reverse endpoint.
// Nominatim's usage policy requires an identifying User-Agent.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  userAgent,
		metrics:    metrics,
		logger:     logger,
	}
}

// ReverseGeocode converts coordinates to address details.
func (c *Client) ReverseGeocode(ctx context.Context, coord domain.Coordinate) (domain.GeocodeResult, error) {
	params := url.Values{
		"format":         {"jsonv2"},
		"lat":            {strconv.FormatFloat(coord.Lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(coord.Lon, 'f', -1, 64)},
		"addressdetails": {"1"},
	}

	start := time.Now()
	result, err := c.doRequest(ctx, coord, c.baseURL+"/reverse?"+params.Encode())
	c.metrics.GeocodeAPIDuration.WithLabelValues(Provider).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues(Provider, "error").Inc()
		c.logger.Error("nominatim reverse geocoding failed", "lat", coord.Lat, "lon", coord.Lon, "error", err)
	case result.DisplayName == domain.UnknownLocation:
		c.metrics.GeocodeRequests.WithLabelValues(Provider, "empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues(Provider, "success").Inc()
	}
	return result, err
}

func (c *Client) doRequest(ctx context.Context, coord domain.Coordinate, fullURL string) (domain.GeocodeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, 0, "create request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, 0, "nominatim request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, resp.StatusCode, fmt.Sprintf("nominatim API error: %s", body), nil)
	}

	var place reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, resp.StatusCode, "decode response", err)
	}

	return toResult(coord, place), nil
}

func toResult(coord domain.Coordinate, p reverseResponse) domain.GeocodeResult {
	// Nominatim answers 200 with an "error" field for points it cannot place.
	if p.Error != "" || p.DisplayName == "" {
		return domain.GeocodeResult{Lat: coord.Lat, Lon: coord.Lon, DisplayName: domain.UnknownLocation}
	}

	result := domain.GeocodeResult{
		Lat:         coord.Lat,
		Lon:         coord.Lon,
		DisplayName: p.DisplayName,
		Street:      p.Address.Road,
		HouseNumber: p.Address.HouseNumber,
		City:        firstNonEmpty(p.Address.City, p.Address.Town, p.Address.Village),
		State:       p.Address.State,
		Country:     p.Address.Country,
		PostalCode:  p.Address.Postcode,
	}
	if lat, err := strconv.ParseFloat(p.Lat, 64); err == nil {
		result.Lat = lat
	}
	if lon, err := strconv.ParseFloat(p.Lon, 64); err == nil {
		result.Lon = lon
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Nominatim API response types.

type reverseResponse struct {
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Address     address `json:"address"`
	Error       string  `json:"error"`
}

type address struct {
	Road        string `json:"road"`
	HouseNumber string `json:"house_number"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Postcode    string `json:"postcode"`
}
