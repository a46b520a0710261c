package directory

import (
	"time"

	"github.com/paulmach/orb"

	"mbtamap/internal/lines"
)

// Accessibility is a stop's wheelchair boarding status.
type Accessibility int

const (
	AccessUnknown Accessibility = iota
	AccessAccessible
	AccessInaccessible
)

// String returns the human-readable status shown in station details.
func (a Accessibility) String() string {
	switch a {
	case AccessAccessible:
		return "Wheelchair accessible"
	case AccessInaccessible:
		return "Not wheelchair accessible"
	default:
		return "Accessibility unknown"
	}
}

func accessibilityFromGTFS(v int) Accessibility {
	switch v {
	case 1:
		return AccessAccessible
	case 2:
		return AccessInaccessible
	default:
		return AccessUnknown
	}
}

// Station is a stop merged across every line that serves it.
type Station struct {
	ID          string
	Name        string
	Position    orb.Point // lon, lat
	Lines       []lines.ID
	PrimaryLine lines.ID
	RouteName   string
	Address     string
	Wheelchair  Accessibility
}

// Serves reports whether the station is on line.
func (s Station) Serves(line lines.ID) bool {
	for _, l := range s.Lines {
		if l == line {
			return true
		}
	}
	return false
}

// Segment is track drawn between two adjacent stops of one line.
type Segment struct {
	Line  lines.ID
	From  orb.Point
	To    orb.Point
	Color string
}

// Directory is the station set and track segments built at startup.
// It is never modified after Build returns.
type Directory struct {
	Stations []Station
	Segments []Segment
	Routes   map[lines.ID]string // route long names
	Failures map[lines.ID]error
	BuiltAt  time.Time

	index map[string]int
	table *lines.Table
}
