package voyage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/vessel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var departure = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fixedField returns the same sample everywhere. Provenance switches to
// climatology for queries at or after climatologyFrom, when set.
type fixedField struct {
	sample          domain.WeatherSample
	err             error
	climatologyFrom time.Time

	mu    sync.Mutex
	times []time.Time
}

func (f *fixedField) At(_ context.Context, _ domain.Position, t time.Time) (domain.WeatherSample, domain.Provenance, error) {
	f.mu.Lock()
	f.times = append(f.times, t)
	f.mu.Unlock()
	if f.err != nil {
		return domain.WeatherSample{}, domain.Provenance{}, f.err
	}
	if !f.climatologyFrom.IsZero() && !t.Before(f.climatologyFrom) {
		return f.sample, domain.ClimatologyProvenance(), nil
	}
	return f.sample, domain.ForecastProvenance(), nil
}

func newSimulator(t *testing.T) *Simulator {
	t.Helper()
	m, err := vessel.NewModel(vessel.DefaultSpecs())
	require.NoError(t, err)
	return NewSimulator(NewEvaluator(m), 10)
}

func route() []domain.Waypoint {
	return domain.WaypointsFromPositions([]domain.Position{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 1, Lon: 1},
	})
}

func TestThreeWaypointCalmVoyage(t *testing.T) {
	sim := newSimulator(t)
	set := Settings{CalmSpeedKts: 10, Laden: true}

	res, err := sim.Simulate(context.Background(), "scenario", route(), departure, set, nil)
	require.NoError(t, err)
	require.Len(t, res.Legs, 2)

	for _, l := range res.Legs {
		assert.InDelta(t, 60, l.DistanceNM, 0.05)
		assert.InDelta(t, 6, l.TimeHours, 0.01)
		assert.Equal(t, 10.0, l.STWKts)
		assert.Equal(t, 10.0, l.SOGKts)
		assert.False(t, l.WeatherApplied)
	}

	rate, err := sim.Evaluator().Model().CalmFuelRate(10, true, nil)
	require.NoError(t, err)
	assert.InDelta(t, res.TotalTimeHours*rate, res.TotalFuelMT, 1e-9)

	assert.Equal(t, res.Legs[0].ArrivalTime, res.Legs[1].DepartureTime)
	assert.Equal(t, res.Legs[1].ArrivalTime, res.ArrivalTime)
	assert.WithinDuration(t, departure.Add(12*time.Hour), res.ArrivalTime, time.Minute)
	assert.InDelta(t, 10, res.AvgSOGKts, 1e-9)
	assert.InDelta(t, 10, res.AvgSTWKts, 1e-9)
	assert.Equal(t, 2, res.DataSources.ForecastLegs)
	assert.Zero(t, res.DataSources.BlendedLegs+res.DataSources.ClimatologyLegs)
	assert.Empty(t, res.DataSources.Warning)
	assert.Equal(t, route(), res.Waypoints())
}

func TestNegligibleWeatherKeepsCalmSpeed(t *testing.T) {
	sim := newSimulator(t)
	field := &fixedField{sample: domain.WeatherSample{WindU: 0.3, WaveHeightM: 0.05}}

	res, err := sim.Simulate(context.Background(), "", route(), departure,
		Settings{CalmSpeedKts: 12.5, Laden: true, UseWeather: true}, field)
	require.NoError(t, err)
	for _, l := range res.Legs {
		assert.Equal(t, 12.5, l.STWKts)
		assert.Equal(t, 12.5, l.SOGKts)
		assert.True(t, l.WeatherApplied)
	}
	assert.Equal(t, 2, res.DataSources.ForecastLegs)
}

func TestHeadWeatherSlowsTheVoyage(t *testing.T) {
	sim := newSimulator(t)
	set := Settings{CalmSpeedKts: 12, Laden: true, UseWeather: true}
	// first leg heads east: a 15 m/s easterly and 3 m seas from the east
	field := &fixedField{sample: domain.WeatherSample{WindU: -15, WaveHeightM: 3}}

	wx, err := sim.Simulate(context.Background(), "", route()[:2], departure, set, field)
	require.NoError(t, err)
	calm, err := sim.Simulate(context.Background(), "", route()[:2], departure, Settings{CalmSpeedKts: 12, Laden: true}, nil)
	require.NoError(t, err)

	leg := wx.Legs[0]
	assert.InDelta(t, 90, leg.WindDirDeg, 1e-9)
	assert.Less(t, leg.SOGKts, 12.0)
	assert.Greater(t, leg.SpeedLossPct, 0.0)
	assert.Greater(t, wx.TotalTimeHours, calm.TotalTimeHours)
	assert.Greater(t, wx.TotalFuelMT, calm.TotalFuelMT)
}

func TestSimulationIsDeterministic(t *testing.T) {
	sim := newSimulator(t)
	set := Settings{CalmSpeedKts: 13, Laden: false, UseWeather: true}
	field := &fixedField{sample: domain.WeatherSample{WindU: 8, WindV: -4, SwellHeightM: 2, SwellDirDeg: 200}}

	a, err := sim.Simulate(context.Background(), "r", route(), departure, set, field)
	require.NoError(t, err)
	b, err := sim.Simulate(context.Background(), "r", route(), departure, set, field)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLegsDepartAtPreviousArrival(t *testing.T) {
	sim := newSimulator(t)
	field := &fixedField{climatologyFrom: departure.Add(3 * time.Hour)}

	res, err := sim.Simulate(context.Background(), "", route(), departure,
		Settings{CalmSpeedKts: 10, Laden: true, UseWeather: true}, field)
	require.NoError(t, err)

	require.Len(t, field.times, 2)
	assert.Equal(t, departure, field.times[0])
	assert.Equal(t, res.Legs[0].ArrivalTime, field.times[1])

	ds := res.DataSources
	assert.Equal(t, 1, ds.ForecastLegs)
	assert.Equal(t, 1, ds.ClimatologyLegs)
	assert.Equal(t, 10.0, ds.ForecastHorizonDays)
	assert.Contains(t, ds.Warning, "1 of 2 legs are beyond the forecast horizon")
}

func TestAdverseCurrentStallsTheVoyage(t *testing.T) {
	sim := newSimulator(t)
	// 6 m/s westward set against an eastbound first leg
	field := &fixedField{sample: domain.WeatherSample{CurrentU: -6}}

	res, err := sim.Simulate(context.Background(), "", route(), departure,
		Settings{CalmSpeedKts: 10, Laden: true, UseWeather: true}, field)
	require.ErrorIs(t, err, domain.ErrStalledLeg)
	assert.Nil(t, res)

	var stalled *domain.StalledLegError
	require.ErrorAs(t, err, &stalled)
	assert.Less(t, stalled.SOGKts, 0.0)
}

func TestWeatherErrorsAbortTheVoyage(t *testing.T) {
	sim := newSimulator(t)
	field := &fixedField{err: &domain.LandPointError{Lat: 0, Lon: 0.5}}

	_, err := sim.Simulate(context.Background(), "", route(), departure,
		Settings{CalmSpeedKts: 10, UseWeather: true}, field)
	require.ErrorIs(t, err, domain.ErrLandPoint)
}

func TestInsufficientWaypoints(t *testing.T) {
	sim := newSimulator(t)
	for _, wps := range [][]domain.Waypoint{nil, route()[:1]} {
		_, err := sim.Simulate(context.Background(), "", wps, departure, Settings{CalmSpeedKts: 10}, nil)
		require.ErrorIs(t, err, domain.ErrInsufficientWaypoints)
	}
}

func TestZeroLengthLeg(t *testing.T) {
	sim := newSimulator(t)
	wps := domain.WaypointsFromPositions([]domain.Position{{Lat: 5, Lon: 5}, {Lat: 5, Lon: 5}})

	res, err := sim.Simulate(context.Background(), "", wps, departure, Settings{CalmSpeedKts: 10}, nil)
	require.NoError(t, err)
	assert.Zero(t, res.TotalTimeHours)
	assert.Zero(t, res.TotalFuelMT)
	assert.Equal(t, departure, res.ArrivalTime)
}

func TestCancelledContextStopsSimulation(t *testing.T) {
	sim := newSimulator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Simulate(ctx, "", route(), departure, Settings{CalmSpeedKts: 10}, nil)
	require.True(t, errors.Is(err, context.Canceled))
}
