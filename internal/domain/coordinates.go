package domain

import (
	"fmt"
	"math"
)

// Geographic position in decimal degrees.
type Position struct {
	Lat float64
	Lon float64
}

// Validate reports an error when the position lies outside the valid
// latitude/longitude ranges.
func (p Position) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return &ValidationError{Field: "lat", Message: fmt.Sprintf("latitude %v outside [-90, 90]", p.Lat)}
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return &ValidationError{Field: "lon", Message: fmt.Sprintf("longitude %v outside [-180, 180]", p.Lon)}
	}
	return nil
}

func (p Position) String() string { return fmt.Sprintf("(%.4f,%.4f)", p.Lat, p.Lon) }

// Named point on a route. The order of waypoints in a route defines its direction.
type Waypoint struct {
	ID   int
	Name string
	Position
}

// Build waypoints with sequential ids for positions supplied without names.
func WaypointsFromPositions(ps []Position) []Waypoint {
	out := make([]Waypoint, 0, len(ps))
	for i, p := range ps {
		out = append(out, Waypoint{
			ID:       i,
			Name:     fmt.Sprintf("WP%d", i+1),
			Position: p,
		})
	}
	return out
}

// Geographic bounding box in degrees.
type BBox struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Smallest box that contains every position.
func BBoxOf(ps ...Position) BBox {
	if len(ps) == 0 {
		return BBox{}
	}
	b := BBox{LatMin: ps[0].Lat, LatMax: ps[0].Lat, LonMin: ps[0].Lon, LonMax: ps[0].Lon}
	for _, p := range ps[1:] {
		b.LatMin = min(b.LatMin, p.Lat)
		b.LatMax = max(b.LatMax, p.Lat)
		b.LonMin = min(b.LonMin, p.Lon)
		b.LonMax = max(b.LonMax, p.Lon)
	}
	return b
}

// RouteBBox is the smallest box holding a route whose consecutive positions
// are joined the short way round. Longitudes are unwrapped along the route,
// so a route crossing the antimeridian gets a LonMax above 180 (or a LonMin
// below -180) rather than a box spanning the whole globe.
func RouteBBox(ps ...Position) BBox {
	if len(ps) == 0 {
		return BBox{}
	}
	unwrapped := make([]Position, len(ps))
	unwrapped[0] = ps[0]
	for i := 1; i < len(ps); i++ {
		unwrapped[i] = Position{Lat: ps[i].Lat, Lon: UnwrapLon(ps[i].Lon, unwrapped[i-1].Lon)}
	}
	b := BBoxOf(unwrapped...)
	if b.LonMax-b.LonMin >= 360 {
		b.LonMin, b.LonMax = -180, 180
	}
	return b
}

// NormalizeLon maps lon into [-180, 180].
func NormalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

// UnwrapLon shifts lon by whole turns so that it lies within 180 degrees
// of ref.
func UnwrapLon(lon, ref float64) float64 {
	for lon-ref > 180 {
		lon -= 360
	}
	for lon-ref < -180 {
		lon += 360
	}
	return lon
}

// Expand grows the box by margin degrees on every side. Latitudes are
// clamped to the poles; longitudes are left unwrapped so a box may reach past
// the antimeridian (see SplitAntimeridian).
func (b BBox) Expand(margin float64) BBox {
	return BBox{
		LatMin: max(-90, b.LatMin-margin),
		LatMax: min(90, b.LatMax+margin),
		LonMin: b.LonMin - margin,
		LonMax: b.LonMax + margin,
	}
}

// Snap widens the box outwards to multiples of step so that nearby requests
// share the same box.
func (b BBox) Snap(step float64) BBox {
	if step <= 0 {
		return b
	}
	return BBox{
		LatMin: max(-90, math.Floor(b.LatMin/step)*step),
		LatMax: min(90, math.Ceil(b.LatMax/step)*step),
		LonMin: max(-180, math.Floor(b.LonMin/step)*step),
		LonMax: min(180, math.Ceil(b.LonMax/step)*step),
	}
}

// Contains reports whether p lies in the box. Longitudes are compared modulo
// 360 so boxes reaching past the antimeridian work.
func (b BBox) Contains(p Position) bool {
	if p.Lat < b.LatMin || p.Lat > b.LatMax {
		return false
	}
	lon := p.Lon
	for lon < b.LonMin {
		lon += 360
	}
	for lon-360 >= b.LonMin {
		lon -= 360
	}
	return lon <= b.LonMax
}

// SplitAntimeridian returns the box as one or two boxes within [-180, 180].
// A box reaching past the antimeridian comes back as its eastern part
// ending at 180 followed by its western part starting at -180. Boxes at
// least 360 degrees wide cover every longitude.
func (b BBox) SplitAntimeridian() []BBox {
	if b.LonMax-b.LonMin >= 360 {
		b.LonMin, b.LonMax = -180, 180
		return []BBox{b}
	}
	shift := NormalizeLon(b.LonMin) - b.LonMin
	if b.LonMin+shift == 180 {
		shift -= 360
	}
	b.LonMin += shift
	b.LonMax += shift
	if b.LonMax <= 180 {
		return []BBox{b}
	}
	east, west := b, b
	east.LonMax = 180
	west.LonMin, west.LonMax = -180, b.LonMax-360
	return []BBox{east, west}
}

func (b BBox) String() string {
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", b.LatMin, b.LatMax, b.LonMin, b.LonMax)
}
