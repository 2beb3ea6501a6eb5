package grid

import (
	"math"
	"testing"
	"time"
	"voyage-routing-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newWindGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := New(ParameterWind, t0, []float64{0, 1, 2}, []float64{10, 11, 12}, map[Field][][]float64{
		FieldWindU: {
			{0, 1, 2},
			{10, 11, 12},
			{20, 21, 22},
		},
		FieldWindV: {
			{5, 5, 5},
			{5, 5, 5},
			{5, 5, 5},
		},
	})
	require.NoError(t, err)
	return g
}

func TestNewRejectsBadShapes(t *testing.T) {
	_, err := New(ParameterWind, t0, []float64{0, 1}, []float64{0, 1}, map[Field][][]float64{
		FieldWindU: {{1, 2}},
	})
	assert.Error(t, err)

	_, err = New(ParameterWind, t0, []float64{0, 0}, []float64{0, 1}, map[Field][][]float64{
		FieldWindU: {{1, 2}, {3, 4}},
	})
	assert.ErrorContains(t, err, "strictly increasing")
}

func TestBilinearInterpolation(t *testing.T) {
	g := newWindGrid(t)

	v, err := g.Interpolate(0.5, 10.5)
	require.NoError(t, err)
	// Corners 0, 1, 10, 11 weighted equally.
	assert.InDelta(t, 5.5, v[FieldWindU], 1e-12)
	assert.InDelta(t, 5.0, v[FieldWindV], 1e-12)

	v, err = g.Interpolate(1.25, 11.0)
	require.NoError(t, err)
	assert.InDelta(t, 13.5, v[FieldWindU], 1e-12)

	// Exact grid nodes, including the far corner, return node values.
	v, err = g.Interpolate(2, 12)
	require.NoError(t, err)
	assert.InDelta(t, 22, v[FieldWindU], 1e-12)

	s, err := g.Sample(0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.WindU)
	assert.Equal(t, 5.0, s.WindV)
}

func TestOutOfBounds(t *testing.T) {
	g := newWindGrid(t)

	_, err := g.Interpolate(2.01, 11)
	var oob *domain.OutOfBoundsError
	require.ErrorAs(t, err, &oob)
	assert.Equal(t, 2.0, oob.BBox.LatMax)

	_, err = g.Interpolate(1, 9.99)
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)
}

func TestDirectionFieldsWrapAroundNorth(t *testing.T) {
	g, err := New(ParameterWaves, t0, []float64{0, 1}, []float64{0, 1}, map[Field][][]float64{
		FieldSwellDir: {{350, 10}, {350, 10}},
	})
	require.NoError(t, err)

	v, err := g.Interpolate(0.5, 0.5)
	require.NoError(t, err)
	d := v[FieldSwellDir]
	assert.True(t, d < 1e-9 || d > 360-1e-9, "got %v", d)
}

func TestMissingCornersAreRenormalised(t *testing.T) {
	nan := math.NaN()
	g, err := New(ParameterWaves, t0, []float64{0, 1}, []float64{0, 1}, map[Field][][]float64{
		FieldWaveHeight: {{2, nan}, {4, nan}},
	})
	require.NoError(t, err)

	v, err := g.Interpolate(0.5, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 3, v[FieldWaveHeight], 1e-12)

	_, err = g.Interpolate(0.5, 1)
	assert.ErrorIs(t, err, domain.ErrLandPoint)
}

func TestOceanMaskNearestNeighbour(t *testing.T) {
	mask, err := NewOceanMask(
		[]float64{0, 0.5, 1, 1.5, 2},
		[]float64{10, 11, 12},
		[][]bool{
			{true, true, true},
			{true, false, true},
			{true, true, true},
			{true, true, true},
			{true, true, true},
		},
	)
	require.NoError(t, err)

	g := newWindGrid(t).WithMask(mask)

	_, err = g.Interpolate(0.6, 11.2)
	var land *domain.LandPointError
	require.ErrorAs(t, err, &land)
	assert.Equal(t, 0.6, land.Lat)

	_, err = g.Interpolate(0.9, 11.2)
	assert.NoError(t, err)

	// The unmasked grid is unchanged.
	_, err = newWindGrid(t).Interpolate(0.6, 11.2)
	assert.NoError(t, err)
}

func TestGridIsImmutable(t *testing.T) {
	lats := []float64{0, 1}
	data := [][]float64{{1, 1}, {1, 1}}
	g, err := New(ParameterWind, t0, lats, []float64{0, 1}, map[Field][][]float64{FieldWindU: data})
	require.NoError(t, err)

	data[0][0] = 100
	lats[1] = 50
	v, err := g.Interpolate(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v[FieldWindU])
	assert.Equal(t, 1.0, g.BBox().LatMax)
}

func TestCrop(t *testing.T) {
	g := newWindGrid(t)

	c, err := g.Crop(domain.BBox{LatMin: 0.2, LatMax: 0.8, LonMin: 11.1, LonMax: 11.9})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, c.Lats())
	assert.Equal(t, []float64{11, 12}, c.Lons())

	want, err := g.Interpolate(0.5, 11.5)
	require.NoError(t, err)
	got, err := c.Interpolate(0.5, 11.5)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	same, err := g.Crop(domain.BBox{LatMin: -5, LatMax: 5, LonMin: 0, LonMax: 20})
	require.NoError(t, err)
	assert.Same(t, g, same)
}

func TestSnapshotRoundTripKeepsNaN(t *testing.T) {
	nan := math.NaN()
	g, err := New(ParameterWaves, t0, []float64{0, 1}, []float64{0, 1}, map[Field][][]float64{
		FieldWaveHeight: {{1, nan}, {2, 3}},
	})
	require.NoError(t, err)

	back, err := FromSnapshot(g.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, g.Fields(), back.Fields())
	assert.True(t, math.IsNaN(back.Snapshot().Fields[FieldWaveHeight][0][1]))
}

func TestKeyString(t *testing.T) {
	k := Key{
		Source:     "gfs",
		Parameter:  ParameterWind,
		BBox:       domain.BBox{LatMin: 0, LatMax: 1, LonMin: 2, LonMax: 3},
		Resolution: 0.25,
		Time:       t0.Add(6 * time.Hour),
		RunTime:    t0,
	}
	assert.Equal(t, 6, k.ForecastHour())
	assert.Equal(t, "gfs|wind|0.0000,1.0000,2.0000,3.0000|0.2500|2024-01-01T06:00:00Z|2024-01-01T00:00:00Z", k.String())
}

func TestLongitudeWrapsOntoTheAxis(t *testing.T) {
	// A grid stored in 0..360 answers queries in -180..180.
	g, err := New(ParameterWind, t0, []float64{0, 1}, []float64{180, 181, 182}, map[Field][][]float64{
		FieldWindU: {{0, 1, 2}, {0, 1, 2}},
		FieldWindV: {{0, 0, 0}, {0, 0, 0}},
	})
	require.NoError(t, err)

	v, err := g.Interpolate(0.5, -178.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, v[FieldWindU], 1e-9)

	_, err = g.Interpolate(0.5, -170)
	assert.ErrorIs(t, err, domain.ErrOutOfBounds)

	mask, err := NewOceanMask([]float64{0, 1}, []float64{-180, -179}, [][]bool{{false, true}, {false, true}})
	require.NoError(t, err)
	assert.False(t, mask.IsOcean(0, 180))
	assert.True(t, mask.IsOcean(0, 181))
}
