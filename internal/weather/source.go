package weather

import (
	"maps"
	"math"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/grid"
)

// Source yields weather at a point for one resolved query time.
type Source interface {
	Sample(lat, lon float64) (domain.WeatherSample, error)
}

type valuer interface {
	values(lat, lon float64) (grid.Values, error)
}

// Grids for different parameters valid at the same time.
type layers []*grid.Grid

func (l layers) values(lat, lon float64) (grid.Values, error) {
	out := make(grid.Values)
	for _, g := range l {
		v, err := g.Interpolate(lat, lon)
		if err != nil {
			return nil, err
		}
		maps.Copy(out, v)
	}
	return out, nil
}

func (l layers) Sample(lat, lon float64) (domain.WeatherSample, error) {
	return sample(l, lat, lon)
}

// antimeridian joins the sources either side of the dateline. Longitudes
// from eastMin up to 180 go east, the rest go west.
type antimeridian struct {
	east, west Source
	eastMin    float64
}

func (a antimeridian) Sample(lat, lon float64) (domain.WeatherSample, error) {
	lon = domain.NormalizeLon(lon)
	if lon >= a.eastMin {
		return a.east.Sample(lat, lon)
	}
	return a.west.Sample(lat, lon)
}

// blend weights a by wa and b by 1-wa. It serves both temporal
// interpolation between forecast steps and the forecast/climatology blend.
type blend struct {
	a, b valuer
	wa   float64
}

func (m blend) values(lat, lon float64) (grid.Values, error) {
	va, err := m.a.values(lat, lon)
	if err != nil {
		return nil, err
	}
	vb, err := m.b.values(lat, lon)
	if err != nil {
		return nil, err
	}
	return mixValues(va, vb, m.wa), nil
}

func (m blend) Sample(lat, lon float64) (domain.WeatherSample, error) {
	return sample(m, lat, lon)
}

func sample(v valuer, lat, lon float64) (domain.WeatherSample, error) {
	vals, err := v.values(lat, lon)
	if err != nil {
		return domain.WeatherSample{}, err
	}
	return vals.Sample(), nil
}

// Fields present on one side only are taken as they are.
func mixValues(a, b grid.Values, wa float64) grid.Values {
	out := make(grid.Values, max(len(a), len(b)))
	for f, x := range a {
		y, ok := b[f]
		if !ok {
			out[f] = x
			continue
		}
		out[f] = mix(f, x, y, wa)
	}
	for f, y := range b {
		if _, ok := a[f]; !ok {
			out[f] = y
		}
	}
	return out
}

func mix(f grid.Field, x, y, wa float64) float64 {
	if wa >= 1 {
		return x
	}
	if wa <= 0 {
		return y
	}
	if !f.IsDirection() {
		return wa*x + (1-wa)*y
	}
	sx, cx := math.Sincos(x * math.Pi / 180)
	sy, cy := math.Sincos(y * math.Pi / 180)
	s := wa*sx + (1-wa)*sy
	c := wa*cx + (1-wa)*cy
	if math.Abs(s) < 1e-12 && math.Abs(c) < 1e-12 {
		// Opposite directions with equal weight.
		return x
	}
	return domain.NormalizeDeg(math.Atan2(s, c) * 180 / math.Pi)
}
