// internal/infra/opennotify/client.go
package opennotify

import (
	"context"
	"encoding/json"
	"fmt"
	"iss_overhead_notifier/internal/domain/tracking"
	"net/http"
	"strconv"
	"time"
)

// Client fetches the current ISS subpoint from the open-notify API.
// It implements tracking.PositionSource.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type issNowResponse struct {
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"`
	ISSPosition *struct {
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"iss_position"`
}

// FetchPosition returns the ISS subpoint. Every failure wraps
// tracking.ErrSourceUnavailable.
func (c *Client) FetchPosition(ctx context.Context) (tracking.GeoCoordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return tracking.GeoCoordinate{}, unavailable("build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tracking.GeoCoordinate{}, unavailable("request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tracking.GeoCoordinate{}, unavailable("request", fmt.Errorf("unexpected status %s", resp.Status))
	}

	var body issNowResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return tracking.GeoCoordinate{}, unavailable("decode response", err)
	}
	if body.ISSPosition == nil {
		return tracking.GeoCoordinate{}, unavailable("decode response", fmt.Errorf("missing iss_position"))
	}

	lat, err := strconv.ParseFloat(body.ISSPosition.Latitude, 64)
	if err != nil {
		return tracking.GeoCoordinate{}, unavailable("parse latitude", err)
	}
	long, err := strconv.ParseFloat(body.ISSPosition.Longitude, 64)
	if err != nil {
		return tracking.GeoCoordinate{}, unavailable("parse longitude", err)
	}

	coord := tracking.GeoCoordinate{Latitude: lat, Longitude: long}
	if err := coord.Validate(); err != nil {
		return tracking.GeoCoordinate{}, unavailable("validate position", err)
	}
	return coord, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: iss position %s: %v", tracking.ErrSourceUnavailable, op, err)
}
