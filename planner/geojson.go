package planner

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// RouteLineString converts route cells to their physical centers in mm
func RouteLineString(g Grid, route []Cell) orb.LineString {
	ls := make(orb.LineString, len(route))
	for i, c := range route {
		p := g.GridToGPS(c)
		ls[i] = orb.Point{p.X, p.Y}
	}
	return ls
}

// RouteGeoJSON exports the session's route and endpoints as a
// FeatureCollection in field millimeters. The route feature is omitted when
// there is no route; endpoint markers are always included when set.
func RouteGeoJSON(s *Session) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	g := s.Grid()

	if route := s.Route(); len(route) > 0 {
		ls := RouteLineString(g, route)
		f := geojson.NewFeature(ls)
		f.Properties["kind"] = "route"
		f.Properties["status"] = s.RouteStatus().String()
		f.Properties["cells"] = len(route)
		f.Properties["lengthMm"] = planar.Length(ls)
		fc.Append(f)
	}

	if start, ok := s.Start(); ok {
		fc.Append(markerFeature(g, "start", start, -1))
	}
	for i, wp := range s.Waypoints() {
		fc.Append(markerFeature(g, "waypoint", wp, i))
	}
	if goal, ok := s.Goal(); ok {
		fc.Append(markerFeature(g, "goal", goal, -1))
	}
	return fc
}

func markerFeature(g Grid, kind string, c Cell, order int) *geojson.Feature {
	p := g.GridToGPS(c)
	f := geojson.NewFeature(orb.Point{p.X, p.Y})
	f.Properties["kind"] = kind
	f.Properties["gx"] = c.X
	f.Properties["gy"] = c.Y
	if order >= 0 {
		f.Properties["order"] = order
	}
	return f
}
