package projection

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON converts a plan into a FeatureCollection: one Point per marker,
// one LineString per polyline, and a Point with "highlight": true for the
// highlight. Coordinates are lon/lat as GeoJSON requires.
func GeoJSON(plan RenderPlan) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, m := range plan.Markers {
		f := geojson.NewFeature(point(m.Position))
		f.Properties["kind"] = "station"
		f.Properties["index"] = m.Index
		f.Properties["station_id"] = m.StationID
		fc.Append(f)
	}

	for _, p := range plan.Polylines {
		f := geojson.NewFeature(orb.LineString{point(p.Positions[0]), point(p.Positions[1])})
		f.Properties["kind"] = "segment"
		f.Properties["color"] = p.Color
		f.Properties["weight"] = p.Weight
		fc.Append(f)
	}

	if h := plan.Highlight; h != nil {
		f := geojson.NewFeature(point(h.Position))
		f.Properties["kind"] = "station"
		f.Properties["highlight"] = true
		f.Properties["index"] = h.Index
		f.Properties["station_id"] = h.StationID
		f.Properties["fill_color"] = h.FillColor
		f.Properties["radius"] = h.Radius
		f.Properties["title"] = h.Tooltip.Title
		if d := h.Tooltip.Details; d != nil {
			f.Properties["address"] = d.Address
			f.Properties["lines"] = d.Lines
			f.Properties["accessibility"] = d.Accessibility
		}
		fc.Append(f)
	}

	return fc
}

func point(p Position) orb.Point {
	return orb.Point{p[1], p[0]}
}
