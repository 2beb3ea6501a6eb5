package handlers

import (
	"testing"
	"voyage-routing-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositions(t *testing.T) {
	got, err := parsePositions(" 35.5,-40 ; 36,-38.25")
	require.NoError(t, err)
	assert.Equal(t, []domain.Position{{Lat: 35.5, Lon: -40}, {Lat: 36, Lon: -38.25}}, got)

	for _, raw := range []string{"", "  ", "1", "1,2,3", "a,2", "1,b", "1,2;"} {
		_, err := parsePositions(raw)
		assert.Error(t, err, raw)
	}
}

func TestBoolOr(t *testing.T) {
	f := false
	assert.False(t, boolOr(&f, true))
	assert.True(t, boolOr(nil, true))
}
