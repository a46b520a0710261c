package mbta

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client is an HTTP client for the MBTA v3 API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates an MBTA API client. apiKey may be empty; the API then
// applies its anonymous rate limit.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// StopsForRoute fetches the stops served by routeID, in the order the API
// returns them, together with the route's long name.
func (c *Client) StopsForRoute(ctx context.Context, routeID string) (RouteStops, error) {
	q := url.Values{}
	q.Set("filter[route]", routeID)
	q.Set("include", "route")
	u := fmt.Sprintf("%s/stops?%s", c.baseURL, q.Encode())

	resp, err := c.doGet(ctx, u)
	if err != nil {
		return RouteStops{}, fmt.Errorf("stops for route %s: %w", routeID, err)
	}
	defer resp.Body.Close()

	var doc stopsDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return RouteStops{}, fmt.Errorf("decode stops for route %s: %w", routeID, err)
	}

	out := RouteStops{RouteID: routeID, Stops: doc.Data}
	for _, r := range doc.Included {
		if r.ID == routeID {
			out.LongName = r.Attributes.LongName
			break
		}
	}

	c.logger.Debug("fetched stops", "route", routeID, "count", len(out.Stops))
	return out, nil
}

func (c *Client) doGet(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return resp, nil
}
