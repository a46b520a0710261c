package projection

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"mbtamap/internal/directory"
)

// Drawing constants shared with the browser adapter.
const (
	HighlightRadius      = 20
	HighlightStroke      = "#000000"
	HighlightWeight      = 2
	HighlightFillOpacity = 0.9
	PolylineWeight       = 5
	StationIconURL       = "https://upload.wikimedia.org/wikipedia/commons/6/64/MBTA.svg"
)

// Position is [lat, lng], the order Leaflet expects.
type Position [2]float64

func positionOf(p orb.Point) Position {
	return Position{p.Lat(), p.Lon()}
}

// Icon describes a station marker image.
type Icon struct {
	URL    string `json:"url"`
	Size   [2]int `json:"size"`
	Anchor [2]int `json:"anchor"`
}

// DefaultIcon is the marker drawn for every station.
var DefaultIcon = Icon{URL: StationIconURL, Size: [2]int{30, 30}, Anchor: [2]int{15, 15}}

// Marker is a clickable station marker. Clicking it selects Index.
type Marker struct {
	Index     int      `json:"index"`
	StationID string   `json:"station_id"`
	Position  Position `json:"position"`
	Icon      Icon     `json:"icon"`
}

// Polyline is one drawn track segment.
type Polyline struct {
	Positions [2]Position `json:"positions"`
	Color     string      `json:"color"`
	Weight    int         `json:"weight"`
}

// Tooltip is the text attached to the highlight. Details is nil unless
// station details are visible.
type Tooltip struct {
	Title   string   `json:"title"`
	Details *Details `json:"details,omitempty"`
}

// Details is the extended station description.
type Details struct {
	Address       string `json:"address"`
	Lines         string `json:"lines"`
	Accessibility string `json:"accessibility"`
}

// Highlight is the circle drawn on the current station.
type Highlight struct {
	Index       int      `json:"index"`
	StationID   string   `json:"station_id"`
	Position    Position `json:"position"`
	Radius      int      `json:"radius"`
	Stroke      string   `json:"stroke"`
	Weight      int      `json:"weight"`
	FillColor   string   `json:"fill_color"`
	FillOpacity float64  `json:"fill_opacity"`
	Tooltip     Tooltip  `json:"tooltip"`
}

// RenderPlan is everything the map draws for one state.
type RenderPlan struct {
	Markers   []Marker   `json:"markers"`
	Polylines []Polyline `json:"polylines"`
	Highlight *Highlight `json:"highlight"`
	Status    string     `json:"status"`
}

// Project builds the render plan for a directory with the highlight on
// station index highlight. It has no side effects; equal inputs give equal
// plans. An empty directory, or an index outside it, yields no highlight.
func Project(dir *directory.Directory, highlight int, detailsVisible bool) RenderPlan {
	plan := RenderPlan{
		Markers:   make([]Marker, len(dir.Stations)),
		Polylines: make([]Polyline, len(dir.Segments)),
	}

	for i, s := range dir.Stations {
		plan.Markers[i] = Marker{
			Index:     i,
			StationID: s.ID,
			Position:  positionOf(s.Position),
			Icon:      DefaultIcon,
		}
	}

	for i, seg := range dir.Segments {
		plan.Polylines[i] = Polyline{
			Positions: [2]Position{positionOf(seg.From), positionOf(seg.To)},
			Color:     seg.Color,
			Weight:    PolylineWeight,
		}
	}

	s, ok := dir.Station(highlight)
	if !ok {
		return plan
	}

	plan.Highlight = &Highlight{
		Index:       highlight,
		StationID:   s.ID,
		Position:    positionOf(s.Position),
		Radius:      HighlightRadius,
		Stroke:      HighlightStroke,
		Weight:      HighlightWeight,
		FillColor:   dir.Color(s.PrimaryLine),
		FillOpacity: HighlightFillOpacity,
		Tooltip:     tooltip(s, detailsVisible),
	}
	plan.Status = status(s)
	return plan
}

// status is the "Current Station" header text. Route long names from the
// API already name the line ("Green Line B"); bare line ids do not.
func status(s directory.Station) string {
	route := s.RouteName
	if !strings.Contains(route, "Line") {
		route += " Line"
	}
	return fmt.Sprintf("%s (%s)", s.Name, route)
}

func tooltip(s directory.Station, detailsVisible bool) Tooltip {
	t := Tooltip{Title: fmt.Sprintf("%s (%s)", s.Name, s.RouteName)}
	if !detailsVisible {
		return t
	}

	names := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		names[i] = string(l)
	}
	addr := s.Address
	if addr == "" {
		addr = "Address unavailable"
	}
	t.Details = &Details{
		Address:       addr,
		Lines:         strings.Join(names, ", "),
		Accessibility: s.Wheelchair.String(),
	}
	return t
}
