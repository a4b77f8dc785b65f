// Package aladhan fetches daily prayer timetables from the AlAdhan API.
package aladhan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
)

// DefaultBaseURL is the hosted AlAdhan API root.
const DefaultBaseURL = "https://api.aladhan.com/v1"

// DefaultMethod is the ISNA calculation method selector.
const DefaultMethod = 2

// Client queries the AlAdhan timings endpoints. Two request forms exist
// for the same contract: by coordinates and date (interactive flow) and
// by city and country (the periodic sweep).
type Client struct {
	baseURL string
	method  int
	httpc   *http.Client
	logger  *zap.Logger
}

// New creates a Client. An empty baseURL selects the hosted API; a
// non-positive method selects the default calculation method.
func New(baseURL string, method int, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if method <= 0 {
		method = DefaultMethod
	}
	return &Client{
		baseURL: baseURL,
		method:  method,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type timingsResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   struct {
		Timings map[string]string `json:"timings"`
		Meta    struct {
			Timezone string `json:"timezone"`
		} `json:"meta"`
	} `json:"data"`
}

// Timings fetches the timetable for the given coordinates and date.
func (c *Client) Timings(ctx context.Context, latitude, longitude float64, day time.Time) (*entities.TimeTable, error) {
	endpoint := fmt.Sprintf("%s/timings/%02d-%02d-%d", c.baseURL, day.Day(), int(day.Month()), day.Year())
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%g", latitude))
	q.Set("longitude", fmt.Sprintf("%g", longitude))
	q.Set("method", fmt.Sprintf("%d", c.method))

	return c.fetch(ctx, endpoint+"?"+q.Encode(), day)
}

// TimingsByCity fetches the timetable for the given city and country.
func (c *Client) TimingsByCity(ctx context.Context, city, country string, day time.Time) (*entities.TimeTable, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", country)
	q.Set("method", fmt.Sprintf("%d", c.method))

	return c.fetch(ctx, c.baseURL+"/timingsByCity?"+q.Encode(), day)
}

func (c *Client) fetch(ctx context.Context, rawURL string, day time.Time) (*entities.TimeTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build timings request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aladhan api status %d", resp.StatusCode)
	}

	var body timingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode timings response: %w", err)
	}
	if body.Code != http.StatusOK || len(body.Data.Timings) == 0 {
		return nil, fmt.Errorf("aladhan api code %d status %q", body.Code, body.Status)
	}

	// Anchor the table in the provider's timezone so wall-clock times mean
	// what they mean at the queried location, not where this process runs.
	loc, err := time.LoadLocation(body.Data.Meta.Timezone)
	if err != nil {
		loc = day.Location()
	}

	table, skipped := entities.NewTimeTable(day.In(loc), body.Data.Timings)
	for _, ev := range skipped {
		c.logger.Warn("skipping malformed prayer time",
			zap.String("event", string(ev)),
			zap.String("value", body.Data.Timings[string(ev)]),
		)
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("no usable prayer times in response")
	}

	return table, nil
}
