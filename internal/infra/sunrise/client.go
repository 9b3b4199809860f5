// internal/infra/sunrise/client.go
package sunrise

import (
	"context"
	"encoding/json"
	"fmt"
	"iss_overhead_notifier/internal/domain/tracking"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client fetches sunrise/sunset times from api.sunrise-sunset.org.
// It implements tracking.SunTimesSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sunTimesResponse struct {
	Status  string `json:"status"`
	Results *struct {
		Sunrise string `json:"sunrise"`
		Sunset  string `json:"sunset"`
	} `json:"results"`
}

// FetchSunWindow returns today's sunrise and sunset hours (UTC) for coord.
// Every failure wraps tracking.ErrSourceUnavailable.
func (c *Client) FetchSunWindow(ctx context.Context, coord tracking.GeoCoordinate) (tracking.SunWindow, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return tracking.SunWindow{}, unavailable("parse url", err)
	}
	q := u.Query()
	q.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(coord.Longitude, 'f', -1, 64))
	q.Set("formatted", "0")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return tracking.SunWindow{}, unavailable("build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return tracking.SunWindow{}, unavailable("request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return tracking.SunWindow{}, unavailable("request", fmt.Errorf("unexpected status %s", resp.Status))
	}

	var body sunTimesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return tracking.SunWindow{}, unavailable("decode response", err)
	}
	if body.Results == nil {
		return tracking.SunWindow{}, unavailable("decode response", fmt.Errorf("missing results (status %q)", body.Status))
	}

	sunriseHour, err := HourOf(body.Results.Sunrise)
	if err != nil {
		return tracking.SunWindow{}, unavailable("parse sunrise", err)
	}
	sunsetHour, err := HourOf(body.Results.Sunset)
	if err != nil {
		return tracking.SunWindow{}, unavailable("parse sunset", err)
	}

	return tracking.SunWindow{SunriseHourUTC: sunriseHour, SunsetHourUTC: sunsetHour}, nil
}

// HourOf extracts HH from an ISO-8601 timestamp of the form "...T<HH>:...".
// Only the hour field is looked at; the offset is assumed to be UTC.
func HourOf(ts string) (int, error) {
	_, clock, ok := strings.Cut(ts, "T")
	if !ok {
		return 0, fmt.Errorf("timestamp %q has no time part", ts)
	}
	hh, _, _ := strings.Cut(clock, ":")
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: %w", ts, err)
	}
	if hour < 0 || hour > 23 {
		return 0, fmt.Errorf("timestamp %q: hour %d out of range", ts, hour)
	}
	return hour, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: sun times %s: %v", tracking.ErrSourceUnavailable, op, err)
}
