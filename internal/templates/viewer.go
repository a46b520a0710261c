// Package templates renders the HTML pages served to the browser.
package templates

import (
	"encoding/json"
	"fmt"
)

// Default map view used when no stations were loaded.
const (
	DefaultCenterLat = 42.3601
	DefaultCenterLon = -71.0589
	DefaultZoom      = 13
)

// Page holds fields shared by every page.
type Page struct {
	Title        string
	AssetVersion string
}

// MapView is the initial viewport. Bounds, when set, is
// [[south, west], [north, east]] and takes precedence over Center/Zoom.
type MapView struct {
	Center [2]float64     `json:"center"`
	Zoom   int            `json:"zoom"`
	Bounds *[2][2]float64 `json:"bounds,omitempty"`
}

// ViewerData is rendered by ViewerPage.
type ViewerData struct {
	Page
	View     MapView
	Status   string
	Stations int
	Failed   []string
	Empty    bool
}

// JSON encodes the view for the map element's data-view attribute.
func (v MapView) JSON() (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode map view: %w", err)
	}
	return string(b), nil
}
