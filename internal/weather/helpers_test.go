package weather

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/ports"

	"github.com/stretchr/testify/require"
)

var runTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// uniformGrid covers [-10, 10] on both axes at 1 degree with every field of
// the parameter set to v (wind_v to zero).
func uniformGrid(t *testing.T, p grid.Parameter, at time.Time, v float64) *grid.Grid {
	t.Helper()
	axis := make([]float64, 21)
	for i := range axis {
		axis[i] = float64(i - 10)
	}
	return filledGrid(t, p, at, axis, axis, v)
}

func filledGrid(t *testing.T, p grid.Parameter, at time.Time, lats, lons []float64, v float64) *grid.Grid {
	t.Helper()
	fields := make(map[grid.Field][][]float64)
	for _, f := range p.Fields() {
		val := v
		if f == grid.FieldWindV {
			val = 0
		}
		rows := make([][]float64, len(lats))
		for i := range rows {
			rows[i] = make([]float64, len(lons))
			for j := range rows[i] {
				rows[i][j] = val
			}
		}
		fields[f] = rows
	}
	g, err := grid.New(p, at, lats, lons, fields)
	require.NoError(t, err)
	return g
}

// Forecast grids carry the forecast hour as their value so that temporal
// interpolation can be read straight off a sample.
type fakeForecast struct {
	t        *testing.T
	run      ports.ForecastRun
	runErr   error
	runCalls atomic.Int32
	grids    atomic.Int32
}

func (f *fakeForecast) LatestRun(context.Context) (ports.ForecastRun, error) {
	f.runCalls.Add(1)
	if f.runErr != nil {
		return ports.ForecastRun{}, f.runErr
	}
	return f.run, nil
}

func (f *fakeForecast) ForecastGrid(_ context.Context, key grid.Key) (*grid.Grid, error) {
	f.grids.Add(1)
	if key.Parameter == grid.ParameterCurrents {
		return nil, ports.ErrGridNotFound
	}
	return uniformGrid(f.t, key.Parameter, key.Time, float64(key.ForecastHour())), nil
}

type fakeClimatology struct {
	t     *testing.T
	value float64
}

func (c *fakeClimatology) ClimatologyGrid(_ context.Context, key grid.Key) (*grid.Grid, error) {
	return uniformGrid(c.t, key.Parameter, key.Time, c.value), nil
}

// sideClimatology serves exactly the requested box, valued 1 east of the
// antimeridian and 2 west of it.
type sideClimatology struct{ t *testing.T }

func (c *sideClimatology) ClimatologyGrid(_ context.Context, key grid.Key) (*grid.Grid, error) {
	v := 1.0
	if key.BBox.LonMin < 0 {
		v = 2
	}
	b := key.BBox
	return filledGrid(c.t, key.Parameter, key.Time,
		axisOf(b.LatMin, b.LatMax, key.Resolution), axisOf(b.LonMin, b.LonMax, key.Resolution), v), nil
}

func axisOf(lo, hi, step float64) []float64 {
	out := make([]float64, int(math.Round((hi-lo)/step))+1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

func newTestResolver(t *testing.T, fc *fakeForecast, mask *grid.OceanMask) *Resolver {
	t.Helper()
	var fp ports.ForecastProvider
	if fc != nil {
		fc.t = t
		fp = fc
	}
	r, err := NewResolver(Config{HorizonDays: 10, BlendWindowDays: 2, StepHours: 3},
		fp, &fakeClimatology{t: t, value: 100}, nil, mask)
	require.NoError(t, err)
	return r
}

func defaultRun() ports.ForecastRun {
	return ports.ForecastRun{Source: "test", RunTime: runTime, StepHours: 3, HorizonHours: 240}
}
