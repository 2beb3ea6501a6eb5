package forecast

import (
	"context"
	"testing"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var atlantic = domain.BBox{LatMin: 30, LatMax: 50, LonMin: -70, LonMax: -10}

func TestSyntheticRunTracksClock(t *testing.T) {
	c := clock.NewMockClock(time.Date(2024, 3, 5, 14, 25, 0, 0, time.UTC))
	s := NewSynthetic(c, 0, 0)

	run, err := s.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SyntheticSource, run.Source)
	assert.Equal(t, time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC), run.RunTime)
	assert.Equal(t, 3, run.StepHours)
	assert.Equal(t, 240, run.HorizonHours)

	c.Advance(6 * time.Hour)
	run, err = s.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC), run.RunTime)
}

func TestSyntheticGridIsDeterministic(t *testing.T) {
	s := NewSynthetic(clock.NewMockClock(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)), 3, 240)
	key := grid.Key{
		Source:     SyntheticSource,
		Parameter:  grid.ParameterWaves,
		BBox:       atlantic,
		Resolution: 1,
		Time:       time.Date(2024, 3, 6, 3, 0, 0, 0, time.UTC),
		RunTime:    time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}

	a, err := s.ForecastGrid(context.Background(), key)
	require.NoError(t, err)
	b, err := s.ForecastGrid(context.Background(), key)
	require.NoError(t, err)

	rows, cols := a.Shape()
	assert.Equal(t, 21, rows)
	assert.Equal(t, 61, cols)
	assert.Equal(t, key.Time, a.Time())
	assert.ElementsMatch(t, grid.ParameterWaves.Fields(), a.Fields())

	sa, err := a.Sample(40.5, -35.5)
	require.NoError(t, err)
	sb, err := b.Sample(40.5, -35.5)
	require.NoError(t, err)
	assert.Equal(t, sa, sb)
	assert.GreaterOrEqual(t, sa.WaveHeightM, 0.5)
	assert.InDelta(t, 10, sa.SwellPeriodS, 1e-9)
}

func TestSyntheticLowMovesEast(t *testing.T) {
	t1 := lowEpoch.Add(48 * time.Hour)
	lat0, lon0 := lowCentre(lowEpoch)
	lat1, lon1 := lowCentre(t1)
	assert.InDelta(t, lowLat0, lat0, 1e-9)
	assert.InDelta(t, lowLon0, lon0, 1e-9)
	assert.InDelta(t, lowLon0+2*lowDriftDegDay, lon1, 1e-9)

	// One radius north of the centre the low adds its peak wind from the east.
	for _, at := range []struct {
		t        time.Time
		lat, lon float64
	}{{lowEpoch, lat0, lon0}, {t1, lat1, lon1}} {
		s := forecastSample(at.lat+lowRadiusDeg, at.lon, at.t)
		u, v := zonalWind(at.lat+lowRadiusDeg, 1)
		assert.InDelta(t, -lowPeakWindMS, s.WindU-u, 1e-9)
		assert.InDelta(t, 0, s.WindV-v, 1e-9)
	}
}

func TestSyntheticClimatologyHasNoLow(t *testing.T) {
	s := NewSynthetic(clock.RealClock{}, 3, 240)
	key := grid.Key{
		Source:     grid.SourceClimatology,
		Parameter:  grid.ParameterWind,
		BBox:       atlantic,
		Resolution: 0.5,
		Time:       time.Date(2000, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	summer, err := s.ClimatologyGrid(context.Background(), key)
	require.NoError(t, err)
	key.Time = time.Date(2000, 1, 15, 0, 0, 0, 0, time.UTC)
	winter, err := s.ClimatologyGrid(context.Background(), key)
	require.NoError(t, err)

	ws, err := summer.Sample(45, -40)
	require.NoError(t, err)
	ww, err := winter.Sample(45, -40)
	require.NoError(t, err)
	assert.Greater(t, ww.WindSpeedMS(), ws.WindSpeedMS())
}

func TestSyntheticSmallBoxStillTwoPoints(t *testing.T) {
	s := NewSynthetic(clock.RealClock{}, 3, 240)
	g, err := s.ForecastGrid(context.Background(), grid.Key{
		Parameter:  grid.ParameterCurrents,
		BBox:       domain.BBox{LatMin: 10, LatMax: 10, LonMin: 5, LonMax: 5},
		Resolution: 0.5,
		Time:       lowEpoch,
	})
	require.NoError(t, err)
	rows, cols := g.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
}

func TestSyntheticHonoursCancelledContext(t *testing.T) {
	s := NewSynthetic(clock.RealClock{}, 3, 240)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ForecastGrid(ctx, grid.Key{Parameter: grid.ParameterWind, BBox: atlantic, Resolution: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
