// Package grid holds immutable regular lat/lon weather grids and point
// interpolation over them.
package grid

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"
	"voyage-routing-service/internal/domain"
)

// Grid is an immutable snapshot of one parameter on a regular lat/lon grid
// at a single valid time. Arrays are indexed [lat][lon].
type Grid struct {
	parameter Parameter
	time      time.Time
	lats      []float64
	lons      []float64
	fields    map[Field][][]float64
	mask      *OceanMask
}

// New validates the axes and field shapes and copies the data so the grid
// cannot be changed through the caller's slices.
func New(parameter Parameter, t time.Time, lats, lons []float64, fields map[Field][][]float64) (*Grid, error) {
	if err := checkAxis("lats", lats); err != nil {
		return nil, fmt.Errorf("new grid: %w", err)
	}
	if err := checkAxis("lons", lons); err != nil {
		return nil, fmt.Errorf("new grid: %w", err)
	}
	if len(fields) == 0 {
		return nil, errors.New("new grid: no fields")
	}

	copied := make(map[Field][][]float64, len(fields))
	for f, data := range fields {
		if len(data) != len(lats) {
			return nil, fmt.Errorf("new grid: field %s has %d rows, want %d", f, len(data), len(lats))
		}
		rows := make([][]float64, len(data))
		for i, row := range data {
			if len(row) != len(lons) {
				return nil, fmt.Errorf("new grid: field %s row %d has %d columns, want %d", f, i, len(row), len(lons))
			}
			rows[i] = slices.Clone(row)
		}
		copied[f] = rows
	}

	return &Grid{
		parameter: parameter,
		time:      t.UTC(),
		lats:      slices.Clone(lats),
		lons:      slices.Clone(lons),
		fields:    copied,
	}, nil
}

func checkAxis(name string, axis []float64) error {
	if len(axis) < 2 {
		return fmt.Errorf("%s needs at least 2 points, got %d", name, len(axis))
	}
	for i := 1; i < len(axis); i++ {
		if !(axis[i] > axis[i-1]) {
			return fmt.Errorf("%s not strictly increasing at index %d", name, i)
		}
	}
	return nil
}

func (g *Grid) Parameter() Parameter { return g.parameter }

func (g *Grid) Time() time.Time { return g.time }

func (g *Grid) Lats() []float64 { return slices.Clone(g.lats) }

func (g *Grid) Lons() []float64 { return slices.Clone(g.lons) }

func (g *Grid) Shape() (rows, cols int) { return len(g.lats), len(g.lons) }

func (g *Grid) BBox() domain.BBox {
	return domain.BBox{
		LatMin: g.lats[0],
		LatMax: g.lats[len(g.lats)-1],
		LonMin: g.lons[0],
		LonMax: g.lons[len(g.lons)-1],
	}
}

// Mean spacing of the latitude axis in degrees.
func (g *Grid) Resolution() float64 {
	return (g.lats[len(g.lats)-1] - g.lats[0]) / float64(len(g.lats)-1)
}

// Fields lists the variables present, sorted by name.
func (g *Grid) Fields() []Field {
	out := make([]Field, 0, len(g.fields))
	for f := range g.fields {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

func (g *Grid) Has(f Field) bool {
	_, ok := g.fields[f]
	return ok
}

// WithMask returns a grid sharing this grid's data with an ocean mask attached.
func (g *Grid) WithMask(m *OceanMask) *Grid {
	if m == nil || g.mask == m {
		return g
	}
	cp := *g
	cp.mask = m
	return &cp
}

// Sample interpolates every field at (lat, lon).
func (g *Grid) Sample(lat, lon float64) (domain.WeatherSample, error) {
	v, err := g.Interpolate(lat, lon)
	if err != nil {
		return domain.WeatherSample{}, err
	}
	return v.Sample(), nil
}

// Interpolate performs bilinear interpolation of each field at (lat, lon).
//
// Points outside the axes fail with *domain.OutOfBoundsError. Points the mask
// marks as land, or points whose four surrounding cells hold no data, fail
// with *domain.LandPointError.
func (g *Grid) Interpolate(lat, lon float64) (Values, error) {
	lon = wrapLon(g.lons, lon)
	if math.IsNaN(lat) || math.IsNaN(lon) ||
		lat < g.lats[0] || lat > g.lats[len(g.lats)-1] ||
		lon < g.lons[0] || lon > g.lons[len(g.lons)-1] {
		return nil, &domain.OutOfBoundsError{Lat: lat, Lon: lon, BBox: g.BBox()}
	}
	if g.mask != nil && !g.mask.IsOcean(lat, lon) {
		return nil, &domain.LandPointError{Lat: lat, Lon: lon}
	}

	i, di := locate(g.lats, lat)
	j, dj := locate(g.lons, lon)

	w00 := (1 - di) * (1 - dj)
	w01 := (1 - di) * dj
	w10 := di * (1 - dj)
	w11 := di * dj

	out := make(Values, len(g.fields))
	for f, data := range g.fields {
		corners := [4]float64{data[i][j], data[i][j+1], data[i+1][j], data[i+1][j+1]}
		weights := [4]float64{w00, w01, w10, w11}

		var (
			val float64
			ok  bool
		)
		if f.IsDirection() {
			val, ok = blendDirections(corners[:], weights[:])
		} else {
			val, ok = blendScalars(corners[:], weights[:])
		}
		if !ok {
			return nil, &domain.LandPointError{Lat: lat, Lon: lon}
		}
		out[f] = val
	}
	return out, nil
}

// wrapLon shifts lon by a whole turn when that brings it onto the axis, so
// grids stored in 0..360 and queries in -180..180 still meet.
func wrapLon(axis []float64, lon float64) float64 {
	lo, hi := axis[0], axis[len(axis)-1]
	switch {
	case lon < lo && lon+360 <= hi:
		return lon + 360
	case lon > hi && lon-360 >= lo:
		return lon - 360
	}
	return lon
}

// locate returns the lower index of the cell containing x and the fractional
// offset within it. x must lie inside the axis.
func locate(axis []float64, x float64) (int, float64) {
	i := sort.SearchFloat64s(axis, x)
	switch {
	case i == 0:
		return 0, 0
	case i >= len(axis)-1 && x >= axis[len(axis)-1]:
		i = len(axis) - 2
		return i, 1
	}
	i--
	return i, (x - axis[i]) / (axis[i+1] - axis[i])
}

// Weighted mean over finite corners; NaN corners (no data) are dropped and the
// remaining weights renormalised. ok is false when no weight falls on data.
func blendScalars(v, w []float64) (float64, bool) {
	var sum, wsum float64
	for k := range v {
		if math.IsNaN(v[k]) {
			continue
		}
		sum += w[k] * v[k]
		wsum += w[k]
	}
	if wsum == 0 {
		return 0, false
	}
	if wsum == 1 {
		return sum, true
	}
	return sum / wsum, true
}

func blendDirections(v, w []float64) (float64, bool) {
	var x, y, wsum float64
	first := math.NaN()
	for k := range v {
		if math.IsNaN(v[k]) || w[k] == 0 {
			continue
		}
		if math.IsNaN(first) {
			first = v[k]
		}
		rad := v[k] * math.Pi / 180
		x += w[k] * math.Cos(rad)
		y += w[k] * math.Sin(rad)
		wsum += w[k]
	}
	if wsum == 0 {
		return 0, false
	}
	if x == 0 && y == 0 {
		// Opposing directions cancel; keep the first one.
		return domain.NormalizeDeg(first), true
	}
	return domain.NormalizeDeg(math.Atan2(y, x) * 180 / math.Pi), true
}

// Crop returns the smallest sub-grid whose axes enclose b. The result keeps
// at least two points on each axis.
func (g *Grid) Crop(b domain.BBox) (*Grid, error) {
	i0, i1 := span(g.lats, b.LatMin, b.LatMax)
	j0, j1 := span(g.lons, b.LonMin, b.LonMax)
	if i0 == 0 && j0 == 0 && i1 == len(g.lats)-1 && j1 == len(g.lons)-1 {
		return g, nil
	}

	fields := make(map[Field][][]float64, len(g.fields))
	for f, data := range g.fields {
		rows := make([][]float64, 0, i1-i0+1)
		for i := i0; i <= i1; i++ {
			rows = append(rows, data[i][j0:j1+1])
		}
		fields[f] = rows
	}

	out, err := New(g.parameter, g.time, g.lats[i0:i1+1], g.lons[j0:j1+1], fields)
	if err != nil {
		return nil, fmt.Errorf("crop grid: %w", err)
	}
	out.mask = g.mask
	return out, nil
}

func span(axis []float64, lo, hi float64) (int, int) {
	i0 := sort.SearchFloat64s(axis, lo)
	if i0 > 0 && (i0 == len(axis) || axis[i0] > lo) {
		i0--
	}
	i1 := sort.SearchFloat64s(axis, hi)
	if i1 >= len(axis) {
		i1 = len(axis) - 1
	}
	i0 = min(i0, len(axis)-2)
	i1 = max(i1, i0+1)
	return i0, i1
}
