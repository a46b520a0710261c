package directory

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"mbtamap/internal/lines"
)

// New assembles a Directory from already-merged stations and segments.
// Station ids must be unique.
func New(table *lines.Table, stations []Station, segments []Segment) *Directory {
	d := &Directory{
		Stations: stations,
		Segments: segments,
		Routes:   make(map[lines.ID]string),
		Failures: make(map[lines.ID]error),
		index:    make(map[string]int, len(stations)),
		table:    table,
	}
	for i, s := range stations {
		d.index[s.ID] = i
		if _, ok := d.Routes[s.PrimaryLine]; !ok && s.RouteName != "" {
			d.Routes[s.PrimaryLine] = s.RouteName
		}
	}
	return d
}

// Len returns the number of stations.
func (d *Directory) Len() int {
	return len(d.Stations)
}

// Empty reports whether the directory has no stations.
func (d *Directory) Empty() bool {
	return len(d.Stations) == 0
}

// Station returns the station at index i.
func (d *Directory) Station(i int) (Station, bool) {
	if i < 0 || i >= len(d.Stations) {
		return Station{}, false
	}
	return d.Stations[i], true
}

// IndexOf returns the navigation index of the station with the given id.
func (d *Directory) IndexOf(id string) (int, bool) {
	i, ok := d.index[id]
	return i, ok
}

// Color returns the display color of line.
func (d *Directory) Color(line lines.ID) string {
	if d.table == nil {
		return lines.FallbackColor
	}
	return d.table.Color(line)
}

// Lines returns the configured line ids in display order.
func (d *Directory) Lines() []lines.ID {
	if d.table == nil {
		return nil
	}
	return d.table.IDs()
}

// HasLine reports whether line is in the configured line table.
func (d *Directory) HasLine(line lines.ID) bool {
	return d.table != nil && d.table.Has(line)
}

// RouteName returns the long name of line, or the id if it was never fetched.
func (d *Directory) RouteName(line lines.ID) string {
	if n, ok := d.Routes[line]; ok {
		return n
	}
	return string(line)
}

// StationsOnLine returns the indexes of stations served by line, in
// directory order.
func (d *Directory) StationsOnLine(line lines.ID) []int {
	var out []int
	for i, s := range d.Stations {
		if s.Serves(line) {
			out = append(out, i)
		}
	}
	return out
}

// Nearest returns the index of the station closest to p and its distance
// in meters. ok is false when the directory is empty.
func (d *Directory) Nearest(p orb.Point) (index int, meters float64, ok bool) {
	for i, s := range d.Stations {
		dist := geo.Distance(p, s.Position)
		if !ok || dist < meters {
			index, meters, ok = i, dist, true
		}
	}
	return index, meters, ok
}

// Bound returns the bounding box of all stations. The zero Bound is
// returned for an empty directory.
func (d *Directory) Bound() orb.Bound {
	if len(d.Stations) == 0 {
		return orb.Bound{}
	}
	mp := make(orb.MultiPoint, len(d.Stations))
	for i, s := range d.Stations {
		mp[i] = s.Position
	}
	return mp.Bound()
}
