package forecast

import (
	"context"
	"fmt"
	"math"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/clock"
	"voyage-routing-service/internal/ports"
)

const (
	SyntheticSource = "synthetic"

	runCycle = 6 * time.Hour
	// Reference position and drift of the travelling low.
	lowLat0, lowLon0 = 42.0, -60.0
	lowDriftDegDay   = 8.0
	lowRadiusDeg     = 8.0
	lowPeakWindMS    = 16.0
)

var lowEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Synthetic is a deterministic forecast and climatology provider for
// development and tests: trade winds and westerlies varying with latitude,
// a low drifting east across the mid-latitudes, sea state derived from the
// wind and a weak zonal current. It has no land; pair it with a land mask.
//
// The same key always yields the same grid.
type Synthetic struct {
	clock        clock.Clock
	stepHours    int
	horizonHours int
}

func NewSynthetic(c clock.Clock, stepHours, horizonHours int) *Synthetic {
	if c == nil {
		c = clock.RealClock{}
	}
	if stepHours <= 0 {
		stepHours = 3
	}
	if horizonHours <= 0 {
		horizonHours = 240
	}
	return &Synthetic{clock: c, stepHours: stepHours, horizonHours: horizonHours}
}

// LatestRun reports a run issued at the last 6-hourly cycle.
func (s *Synthetic) LatestRun(context.Context) (ports.ForecastRun, error) {
	return ports.ForecastRun{
		Source:       SyntheticSource,
		RunTime:      s.clock.Now().UTC().Truncate(runCycle),
		StepHours:    s.stepHours,
		HorizonHours: s.horizonHours,
	}, nil
}

func (s *Synthetic) ForecastGrid(ctx context.Context, key grid.Key) (*grid.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return build(key, func(lat, lon float64) domain.WeatherSample {
		return forecastSample(lat, lon, key.Time)
	})
}

func (s *Synthetic) ClimatologyGrid(ctx context.Context, key grid.Key) (*grid.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	yday := key.Time.YearDay()
	return build(key, func(lat, lon float64) domain.WeatherSample {
		return climatologySample(lat, lon, yday)
	})
}

func forecastSample(lat, lon float64, t time.Time) domain.WeatherSample {
	u, v := zonalWind(lat, 1)

	cLat, cLon := lowCentre(t)
	dy := lat - cLat
	dx := normalizeLon(lon-cLon) * math.Cos(lat*math.Pi/180)
	r := math.Hypot(dx, dy)
	if r > 1e-6 {
		// Rankine-like profile, cyclonic in each hemisphere.
		x := r / lowRadiusDeg
		speed := lowPeakWindMS * x * math.Exp(1-x)
		sign := 1.0
		if cLat < 0 {
			sign = -1
		}
		u += -sign * speed * dy / r
		v += sign * speed * dx / r
	}
	return seaState(lat, u, v)
}

// Centre of the travelling low at t; it wobbles in latitude as it drifts.
func lowCentre(t time.Time) (lat, lon float64) {
	days := t.Sub(lowEpoch).Hours() / 24
	return lowLat0 + 4*math.Sin(2*math.Pi*days/9), normalizeLon(lowLon0 + lowDriftDegDay*days)
}

func climatologySample(lat, lon float64, yday int) domain.WeatherSample {
	// Stronger winds in each hemisphere's winter.
	season := math.Cos(2 * math.Pi * float64(yday-15) / 365)
	if lat < 0 {
		season = -season
	}
	u, v := zonalWind(lat, 1+0.25*season)
	v += 0.5 * math.Sin(lon*math.Pi/90)
	return seaState(lat, u, v)
}

// Easterly trades near the equator, westerlies from about 35 degrees.
func zonalWind(lat, scale float64) (u, v float64) {
	phi := lat * math.Pi / 180
	u = -7 * math.Cos(3*phi) * scale
	v = 1.5 * math.Sin(2*phi) * scale
	return u, v
}

func seaState(lat, u, v float64) domain.WeatherSample {
	s := domain.WeatherSample{WindU: u, WindV: v}
	ws := s.WindSpeedMS()

	h := max(0.5, 0.15*ws)
	s.WaveHeightM = h
	s.WindwaveHeightM = 0.8 * h
	s.WindwaveDirDeg = s.WindDirFromDeg()
	s.WindwavePeriodS = 3.5 + 0.3*ws
	s.SwellHeightM = 0.6 * h
	s.SwellDirDeg = 270
	if lat < 0 {
		s.SwellDirDeg = 240
	}
	s.SwellPeriodS = 10

	phi := lat * math.Pi / 180
	s.CurrentU = 0.3 * math.Cos(3*phi)
	s.CurrentV = 0
	return s
}

// build samples fn over the key box at the key resolution.
func build(key grid.Key, fn func(lat, lon float64) domain.WeatherSample) (*grid.Grid, error) {
	res := key.Resolution
	if !(res > 0) {
		res = 0.5
	}
	lats := axis(key.BBox.LatMin, key.BBox.LatMax, res)
	lons := axis(key.BBox.LonMin, key.BBox.LonMax, res)

	fieldsOf := key.Parameter.Fields()
	if len(fieldsOf) == 0 {
		return nil, fmt.Errorf("synthetic grid: unknown parameter %q", key.Parameter)
	}
	data := make(map[grid.Field][][]float64, len(fieldsOf))
	for _, f := range fieldsOf {
		rows := make([][]float64, len(lats))
		for i := range rows {
			rows[i] = make([]float64, len(lons))
		}
		data[f] = rows
	}

	for i, lat := range lats {
		for j, lon := range lons {
			v := valuesOf(fn(lat, lon))
			for _, f := range fieldsOf {
				data[f][i][j] = v[f]
			}
		}
	}
	return grid.New(key.Parameter, key.Time, lats, lons, data)
}

func valuesOf(s domain.WeatherSample) grid.Values {
	return grid.Values{
		grid.FieldWindU:          s.WindU,
		grid.FieldWindV:          s.WindV,
		grid.FieldWaveHeight:     s.WaveHeightM,
		grid.FieldSwellHeight:    s.SwellHeightM,
		grid.FieldSwellDir:       s.SwellDirDeg,
		grid.FieldSwellPeriod:    s.SwellPeriodS,
		grid.FieldWindwaveHeight: s.WindwaveHeightM,
		grid.FieldWindwaveDir:    s.WindwaveDirDeg,
		grid.FieldWindwavePeriod: s.WindwavePeriodS,
		grid.FieldCurrentU:       s.CurrentU,
		grid.FieldCurrentV:       s.CurrentV,
	}
}

// At least two points from lo to hi inclusive.
func axis(lo, hi, step float64) []float64 {
	n := int(math.Round((hi-lo)/step)) + 1
	if n < 2 {
		n = 2
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
