// Package googlemaps is a small client for the Google Maps Geocoding and
// Time Zone APIs.
package googlemaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"
)

// DefaultBaseURL is the Maps API root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

// ErrNoAPIKey is returned when the client has no key configured.
var ErrNoAPIKey = errors.New("google Maps API key not configured")

// statusOverQueryLimit is reported in a 200 body when the key's quota is spent.
const statusOverQueryLimit = "OVER_QUERY_LIMIT"

// Location is a pair of coordinates.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client handles Google Maps API operations.
type Client struct {
	httpClient HTTPClient
	logger     *slog.Logger
	apiKey     string
	baseURL    string
	attempts   uint
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, mainly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithAttempts sets how many times a request is tried before giving up.
func WithAttempts(n uint) Option {
	return func(c *Client) {
		c.attempts = n
	}
}

// NewClient creates a new Google Maps API client.
func NewClient(apiKey string, httpClient HTTPClient, logger *slog.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
		baseURL:    DefaultBaseURL,
		attempts:   3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// GeocodeLocation converts a free-form place name to coordinates.
func (c *Client) GeocodeLocation(ctx context.Context, location string) (*Location, error) {
	if !c.Configured() {
		return nil, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("address", location)
	q.Set("key", c.apiKey)

	var result struct {
		Results []struct {
			Geometry struct {
				Location struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"location"`
			} `json:"geometry"`
			FormattedAddress string `json:"formatted_address"`
		} `json:"results"`
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	if err := c.get(ctx, "/geocode/json", q, &result); err != nil {
		return nil, err
	}

	if result.Status != "OK" || len(result.Results) == 0 {
		c.logger.Debug("geocoding failed", "location", location, "status", result.Status, "results_count", len(result.Results))
		return nil, fmt.Errorf("geocoding failed for %s: %s", location, result.Status)
	}

	first := result.Results[0]
	c.logger.Debug("geocoded", "location", location, "formatted_address", first.FormattedAddress)
	return &Location{
		Latitude:  first.Geometry.Location.Lat,
		Longitude: first.Geometry.Location.Lng,
	}, nil
}

// TimezoneForCoordinates returns the IANA zone for coordinates as of at.
func (c *Client) TimezoneForCoordinates(ctx context.Context, lat, lng float64, at time.Time) (string, error) {
	if !c.Configured() {
		return "", ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("location", strconv.FormatFloat(lat, 'f', 6, 64)+","+strconv.FormatFloat(lng, 'f', 6, 64))
	// Per-day timestamp so repeated lookups share a cache entry.
	q.Set("timestamp", strconv.FormatInt(at.UTC().Truncate(24*time.Hour).Unix(), 10))
	q.Set("key", c.apiKey)

	var result struct {
		TimeZoneID   string `json:"timeZoneId"`
		TimeZoneName string `json:"timeZoneName"`
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	if err := c.get(ctx, "/timezone/json", q, &result); err != nil {
		return "", err
	}

	if result.Status != "OK" {
		if result.ErrorMessage != "" {
			return "", fmt.Errorf("timezone API failed: %s", result.ErrorMessage)
		}
		return "", fmt.Errorf("timezone API failed with status: %s", result.Status)
	}
	return result.TimeZoneID, nil
}

// get performs a GET against the API, retrying transport errors, 429s,
// 5xx responses and OVER_QUERY_LIMIT bodies with jittered backoff, and
// decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	apiURL := c.baseURL + path + "?" + q.Encode()

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer func() {
				if err := resp.Body.Close(); err != nil {
					c.logger.Debug("failed to close response body", "error", err)
				}
			}()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("maps API returned %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("maps API returned %d", resp.StatusCode))
			}
			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if status := responseStatus(body); status == statusOverQueryLimit {
				return fmt.Errorf("maps API returned %s", status)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(200*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying maps request", "attempt", n+1, "path", path, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("maps request %s: %w", path, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse maps response: %w", err)
	}
	return nil
}

// Cacheable reports whether a 200 response body holds a successful API
// answer. Both APIs return quota and key errors with HTTP 200 and a
// non-OK status, which must not be cached.
func Cacheable(body []byte) bool {
	return responseStatus(body) == "OK"
}

func responseStatus(body []byte) string {
	var envelope struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Status
}
