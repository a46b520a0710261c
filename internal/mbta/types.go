package mbta

// stopsDocument is the JSON:API document returned by
// /stops?filter[route]=X&include=route.
type stopsDocument struct {
	Data     []Stop  `json:"data"`
	Included []Route `json:"included"`
}

// Stop is a stop resource from the v3 API.
type Stop struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Attributes StopAttributes `json:"attributes"`
}

// StopAttributes holds the stop fields the viewer reads. Latitude and
// Longitude are null for some stops (entrances, nodes without geometry).
type StopAttributes struct {
	Name               string   `json:"name"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	Address            *string  `json:"address"`
	WheelchairBoarding int      `json:"wheelchair_boarding"` // 0 unknown, 1 accessible, 2 inaccessible
}

// HasPosition reports whether both coordinates are present.
func (s Stop) HasPosition() bool {
	return s.Attributes.Latitude != nil && s.Attributes.Longitude != nil
}

// Route is a route resource, included alongside stops.
type Route struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes RouteAttributes `json:"attributes"`
}

// RouteAttributes holds route display names.
type RouteAttributes struct {
	LongName  string `json:"long_name"`
	ShortName string `json:"short_name"`
	Color     string `json:"color,omitempty"`
}

// RouteStops is one line's stop list in fetch order plus its route descriptor.
type RouteStops struct {
	RouteID  string
	LongName string // empty when the API did not include the route
	Stops    []Stop
}
