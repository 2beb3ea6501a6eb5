package blob

import (
	"math"
	"testing"
	"time"
	"voyage-routing-service/internal/grid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridPayloadRoundTrip(t *testing.T) {
	nan := math.NaN()
	valid := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	g, err := grid.New(grid.ParameterWaves, valid, []float64{40, 40.5, 41}, []float64{-10, -9.5}, map[grid.Field][][]float64{
		grid.FieldWaveHeight: {{1.5, 2}, {nan, 2.5}, {3, 3.25}},
		grid.FieldSwellDir:   {{270, 280}, {nan, 290}, {300, 310}},
	})
	require.NoError(t, err)

	payload, err := EncodeGrid(g)
	require.NoError(t, err)

	back, err := DecodeGrid(payload)
	require.NoError(t, err)

	assert.Equal(t, grid.ParameterWaves, back.Parameter())
	assert.True(t, valid.Equal(back.Time()))
	assert.Equal(t, g.Lats(), back.Lats())
	assert.Equal(t, g.Lons(), back.Lons())

	want, err := g.Interpolate(40.25, -9.75)
	require.NoError(t, err)
	got, err := back.Interpolate(40.25, -9.75)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.True(t, math.IsNaN(back.Snapshot().Fields[grid.FieldWaveHeight][1][0]))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeGrid([]byte("not zstd"))
	assert.Error(t, err)

	enc, _, err := codec()
	require.NoError(t, err)
	_, err = DecodeGrid(enc.EncodeAll([]byte("XXXX\x01\x00\x00\x00\x00"), nil))
	assert.ErrorContains(t, err, "not a grid payload")
}
