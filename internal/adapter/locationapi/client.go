// Package locationapi is the picker's client for the location API's
// GET /location/reverse endpoint.
package locationapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/issue-locator/internal/domain"
	"github.com/couchcryptid/issue-locator/internal/observability"
)

const provider = "location-api"

// Client implements domain.Geocoder over the location API. It makes a single
// request per call and never retries; every failure is a *domain.GeocodeError.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api/v1".
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		metrics:    metrics,
		logger:     logger,
	}
}

// ReverseGeocode resolves coord through the location API.
func (c *Client) ReverseGeocode(ctx context.Context, coord domain.Coordinate) (domain.GeocodeResult, error) {
	start := time.Now()
	result, err := c.doRequest(ctx, coord)
	c.metrics.GeocodeAPIDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(provider, "error").Inc()
		return domain.GeocodeResult{}, err
	}
	c.metrics.GeocodeRequests.WithLabelValues(provider, "success").Inc()
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, coord domain.Coordinate) (domain.GeocodeResult, error) {
	params := url.Values{
		"lat": {strconv.FormatFloat(coord.Lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(coord.Lon, 'f', -1, 64)},
	}
	fullURL := c.baseURL + "/location/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, 0, "create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, 0, "location API request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, resp.StatusCode, errorMessage(resp.Body), nil)
	}

	var result domain.GeocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, resp.StatusCode, "decode response", err)
	}
	if result.DisplayName == "" {
		return domain.GeocodeResult{}, domain.NewGeocodeError(coord, resp.StatusCode, "response has no displayName", nil)
	}

	c.logger.Debug("location API resolved", "lat", coord.Lat, "lon", coord.Lon, "display_name", result.DisplayName)
	return result, nil
}

// errorMessage extracts {"error": "..."} from a failure body, falling back to
// the raw text.
func errorMessage(body io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 1024))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return "location API error"
}
