// Package geocode resolves free-form addresses to map points through a
// Nominatim server.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// Result is the best match for an address query.
type Result struct {
	Point       orb.Point
	DisplayName string
}

// Client queries a Nominatim server.
type Client struct {
	base   string
	ua     string
	client *http.Client
}

// New returns a client for the Nominatim server at baseURL. Nominatim's
// usage policy requires an identifying userAgent.
func New(baseURL, userAgent string) *Client {
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		ua:     userAgent,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// place is one entry of a jsonv2 search response. Coordinates arrive as
// decimal strings.
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (p place) point() (orb.Point, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("longitude %q: %w", p.Lon, err)
	}
	return orb.Point{lon, lat}, nil
}

// Search returns the top match for query, or nil when there is none. A
// non-zero within limits matches to that box.
func (c *Client) Search(ctx context.Context, query string, within orb.Bound) (*Result, error) {
	params := searchParams(query, within)

	var places []place
	if err := c.get(ctx, "/search", params, &places); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	if len(places) == 0 {
		return nil, nil
	}

	pt, err := places[0].point()
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	return &Result{Point: pt, DisplayName: places[0].DisplayName}, nil
}

func searchParams(query string, within orb.Bound) url.Values {
	v := url.Values{}
	v.Set("q", query)
	v.Set("format", "jsonv2")
	v.Set("limit", "1")
	v.Set("countrycodes", "us")
	if !within.IsZero() {
		// viewbox is left,top,right,bottom in lon/lat; order within each
		// pair is all Nominatim checks.
		v.Set("viewbox", fmt.Sprintf("%.4f,%.4f,%.4f,%.4f",
			within.Min.Lon(), within.Min.Lat(), within.Max.Lon(), within.Max.Lat()))
		v.Set("bounded", "1")
	}
	return v
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from nominatim", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
