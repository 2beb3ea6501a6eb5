package weather

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var area = domain.BBox{LatMin: 0, LatMax: 1, LonMin: 0, LonMax: 1}

func days(d float64) time.Time { return runTime.Add(time.Duration(d * 24 * float64(time.Hour))) }

func TestProvenancePartition(t *testing.T) {
	r := newTestResolver(t, nil, nil)

	for _, d := range []float64{-1, 0, 4, 7.99, 8} {
		assert.Equal(t, domain.SourceForecast, r.Provenance(runTime, days(d)).Source(), "day %v", d)
	}
	for _, d := range []float64{10.01, 11, 30} {
		assert.Equal(t, domain.SourceClimatology, r.Provenance(runTime, days(d)).Source(), "day %v", d)
	}

	prev := 1.0
	for d := 8.05; d <= 10; d += 0.05 {
		p := r.Provenance(runTime, days(d))
		require.Equal(t, domain.SourceBlended, p.Source(), "day %v", d)
		w, ok := p.BlendWeight()
		require.True(t, ok)
		assert.Less(t, w, prev, "weight must fall through the window at day %v", d)
		assert.GreaterOrEqual(t, w, 0.0)
		prev = w
	}

	w, _ := r.Provenance(runTime, days(9)).BlendWeight()
	assert.InDelta(t, 0.5, w, 1e-9)
}

func TestForecastInterpolatesBetweenSteps(t *testing.T) {
	r := newTestResolver(t, &fakeForecast{run: defaultRun()}, nil)
	f, err := r.Field(context.Background(), area)
	require.NoError(t, err)

	s, prov, err := f.At(context.Background(), domain.Position{Lat: 0.5, Lon: 0.5}, runTime.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, domain.SourceForecast, prov.Source())
	assert.InDelta(t, 1.5, s.WindU, 1e-9)

	s, _, err = f.At(context.Background(), domain.Position{Lat: 0.5, Lon: 0.5}, runTime.Add(6*time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 6.0, s.WindU, 1e-9)
}

func TestBlendedMixesForecastAndClimatology(t *testing.T) {
	r := newTestResolver(t, &fakeForecast{run: defaultRun()}, nil)

	src, prov, err := r.Resolve(context.Background(), area, days(9))
	require.NoError(t, err)
	require.Equal(t, domain.SourceBlended, prov.Source())

	s, err := src.Sample(0.5, 0.5)
	require.NoError(t, err)
	// forecast hour 216 and climatology 100, half each
	assert.InDelta(t, 158, s.WindU, 1e-9)
}

func TestClimatologyBeyondHorizon(t *testing.T) {
	fc := &fakeForecast{run: defaultRun()}
	r := newTestResolver(t, fc, nil)
	f, err := r.Field(context.Background(), area)
	require.NoError(t, err)

	s, prov, err := f.At(context.Background(), domain.Position{Lat: 0.2, Lon: 0.8}, days(12))
	require.NoError(t, err)
	assert.Equal(t, domain.SourceClimatology, prov.Source())
	assert.InDelta(t, 100.0, s.WindU, 1e-9)
	assert.Zero(t, fc.grids.Load(), "climatology must not touch the forecast")
}

func TestNoForecastRunFallsBackToClimatology(t *testing.T) {
	r := newTestResolver(t, &fakeForecast{runErr: ports.ErrGridNotFound}, nil)
	f, err := r.Field(context.Background(), area)
	require.NoError(t, err)

	_, ok := f.Run()
	assert.False(t, ok)

	s, prov, err := f.At(context.Background(), domain.Position{Lat: 0.5, Lon: 0.5}, runTime)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceClimatology, prov.Source())
	assert.InDelta(t, 100.0, s.WindU, 1e-9)
}

func TestLatestRunFailurePropagates(t *testing.T) {
	boom := errors.New("ingestion database down")
	r := newTestResolver(t, &fakeForecast{runErr: boom}, nil)
	_, err := r.Field(context.Background(), area)
	require.ErrorIs(t, err, boom)
}

func TestFieldPinsRunAndReusesGrids(t *testing.T) {
	fc := &fakeForecast{run: defaultRun()}
	r := newTestResolver(t, fc, nil)
	f, err := r.Field(context.Background(), area)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, _, err := f.At(context.Background(), domain.Position{Lat: 0.5, Lon: 0.5}, runTime.Add(time.Hour))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), fc.runCalls.Load())
	// currents are disabled, so only wind and waves are fetched
	assert.Equal(t, int32(4), fc.grids.Load(), "two steps of wind and waves")
}

func TestFetchBoxIsExpandedAndSnapped(t *testing.T) {
	r := newTestResolver(t, nil, nil)
	f, err := r.Field(context.Background(), domain.BBox{LatMin: 0.3, LatMax: 1.2, LonMin: -0.1, LonMax: 0.7})
	require.NoError(t, err)
	assert.Equal(t, domain.BBox{LatMin: -2, LatMax: 3.5, LonMin: -2.5, LonMax: 3}, f.BBox())
}

func TestMaskedPointIsLand(t *testing.T) {
	mask, err := grid.NewOceanMask(
		[]float64{-1, 0, 1},
		[]float64{-1, 0, 1},
		[][]bool{{true, true, true}, {true, false, true}, {true, true, true}},
	)
	require.NoError(t, err)
	r := newTestResolver(t, &fakeForecast{run: defaultRun()}, mask)

	f, err := r.Field(context.Background(), area)
	require.NoError(t, err)

	_, _, err = f.At(context.Background(), domain.Position{Lat: 0, Lon: 0}, runTime)
	require.ErrorIs(t, err, domain.ErrLandPoint)

	_, _, err = f.At(context.Background(), domain.Position{Lat: 0.9, Lon: 0.9}, runTime)
	require.NoError(t, err)
}

func TestOutsideFetchedGridIsOutOfBounds(t *testing.T) {
	r := newTestResolver(t, &fakeForecast{run: defaultRun()}, nil)
	f, err := r.Field(context.Background(), area)
	require.NoError(t, err)

	_, _, err = f.At(context.Background(), domain.Position{Lat: 8, Lon: 8}, runTime)
	require.ErrorIs(t, err, domain.ErrOutOfBounds)
}

func TestDirectionsMixOnTheCircle(t *testing.T) {
	got := mix(grid.FieldSwellDir, 350, 10, 0.5)
	assert.InDelta(t, 0, math.Abs(math.Remainder(got, 360)), 1e-9)

	got = mix(grid.FieldSwellDir, 80, 100, 0.75)
	assert.Greater(t, got, 80.0)
	assert.Less(t, got, 90.0)

	assert.Equal(t, 7.0, mix(grid.FieldWaveHeight, 7, 3, 1))
	assert.Equal(t, 3.0, mix(grid.FieldWaveHeight, 7, 3, 0))
	assert.InDelta(t, 4.0, mix(grid.FieldWaveHeight, 7, 3, 0.25), 1e-12)
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.BlendWindowDays = 12
	require.Error(t, cfg.Validate())

	_, err := NewResolver(DefaultConfig(), nil, nil, nil, nil)
	require.Error(t, err)
}

func TestFieldAcrossTheDateline(t *testing.T) {
	r, err := NewResolver(Config{HorizonDays: 10, BlendWindowDays: 2, StepHours: 3},
		nil, &sideClimatology{t: t}, nil, nil)
	require.NoError(t, err)

	route := domain.RouteBBox(domain.Position{Lat: 0, Lon: 177}, domain.Position{Lat: 1, Lon: -177})
	f, err := r.Field(context.Background(), route)
	require.NoError(t, err)
	assert.Equal(t, domain.BBox{LatMin: -2, LatMax: 3, LonMin: 175, LonMax: 180}, f.BBox())

	ctx := context.Background()
	for _, tt := range []struct {
		lon  float64
		want float64
	}{
		{lon: 177, want: 1},
		{lon: 180, want: 1},
		{lon: -180, want: 2},
		{lon: -177, want: 2},
		{lon: 183, want: 2},
	} {
		s, prov, err := f.At(ctx, domain.Position{Lat: 0.5, Lon: tt.lon}, runTime)
		require.NoError(t, err, "lon %v", tt.lon)
		assert.Equal(t, domain.SourceClimatology, prov.Source())
		assert.InDelta(t, tt.want, s.WindU, 1e-9, "lon %v", tt.lon)
	}

	_, _, err = f.At(ctx, domain.Position{Lat: 0.5, Lon: -170}, runTime)
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)
}
