package charterparty

import (
	"math"
	"testing"
	"time"
	"voyage-routing-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestClassifyBeaufort(t *testing.T) {
	tests := []struct {
		kts  float64
		want int
	}{
		{kts: -3, want: 0},
		{kts: math.NaN(), want: 0},
		{kts: 0, want: 0},
		{kts: 1, want: 0},
		{kts: 2, want: 1},
		{kts: 3.5, want: 2},
		{kts: 16, want: 4},
		{kts: 16.5, want: 5},
		{kts: 40, want: 8},
		{kts: 63.9, want: 12},
		{kts: 120, want: 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyBeaufort(tt.kts), "wind %v kts", tt.kts)
	}

	scale := BeaufortScale()
	require.Len(t, scale, 13)
	scale[0].Description = "changed"
	assert.Equal(t, "Calm", BeaufortScale()[0].Description)
}

func TestCountGoodWeatherDays(t *testing.T) {
	legs := []Leg{
		{WindSpeedKts: 10, WaveHeightM: 1, TimeHours: 24},
		{WindSpeedKts: 25, WaveHeightM: 3, TimeHours: 12},
		{WindSpeedKts: 14, WaveHeightM: 2.5, CurrentKts: 0.5, TimeHours: 12},
	}

	res, err := CountGoodWeatherDays(legs, DefaultGoodWeather())
	require.NoError(t, err)
	assert.InDelta(t, 2, res.TotalDays, 1e-9)
	assert.InDelta(t, 1.5, res.GoodWeatherDays, 1e-9)
	assert.InDelta(t, 0.5, res.BadWeatherDays, 1e-9)
	assert.InDelta(t, 75, res.GoodWeatherPct, 1e-9)
	require.Len(t, res.Legs, 3)
	assert.Equal(t, 6, res.Legs[1].Beaufort)
	assert.False(t, res.Legs[1].GoodWeather)

	// A wave limit disqualifies the third leg.
	res, err = CountGoodWeatherDays(legs, GoodWeather{MaxBeaufort: 4, MaxWaveHeightM: ptr(2)})
	require.NoError(t, err)
	assert.InDelta(t, 1, res.GoodWeatherDays, 1e-9)

	res, err = CountGoodWeatherDays(legs, GoodWeather{MaxBeaufort: 4, MaxCurrentKts: ptr(0.4)})
	require.NoError(t, err)
	assert.InDelta(t, 1, res.GoodWeatherDays, 1e-9)

	res, err = CountGoodWeatherDays(nil, DefaultGoodWeather())
	require.NoError(t, err)
	assert.Zero(t, res.TotalDays)
	assert.Zero(t, res.GoodWeatherPct)

	_, err = CountGoodWeatherDays(legs, GoodWeather{MaxBeaufort: 13})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = CountGoodWeatherDays(legs, GoodWeather{MaxBeaufort: 4, MaxWaveHeightM: ptr(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestVerifyWarranty(t *testing.T) {
	legs := []Leg{
		{WindSpeedKts: 8, TimeHours: 24, DistanceNM: 300, FuelMT: 26},
		{WindSpeedKts: 12, TimeHours: 24, DistanceNM: 276, FuelMT: 28},
		{WindSpeedKts: 35, TimeHours: 24, DistanceNM: 200, FuelMT: 40},
	}

	res, err := VerifyWarranty(legs, Warranty{SpeedKts: 12.5, ConsumptionMTDay: 26, MaxBeaufort: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, res.LegsAssessed)
	assert.Equal(t, 2, res.LegsGoodWeather)
	assert.InDelta(t, 48, res.GoodWeatherHours, 1e-9)
	assert.InDelta(t, 72, res.TotalHours, 1e-9)
	assert.InDelta(t, 12, res.AchievedSpeedKts, 1e-9)
	assert.InDelta(t, -0.5, res.SpeedMarginKts, 1e-9)
	assert.False(t, res.SpeedCompliant)
	assert.InDelta(t, 27, res.AchievedConsumptionMTDay, 1e-9)
	assert.InDelta(t, -1, res.ConsumptionMarginMT, 1e-9)
	assert.False(t, res.ConsumptionCompliant)

	// About 5 % on both figures covers the shortfall.
	res, err = VerifyWarranty(legs, Warranty{SpeedKts: 12.5, ConsumptionMTDay: 26, MaxBeaufort: 4, SpeedTolerancePct: 5, ConsumptionTolerancePct: 5})
	require.NoError(t, err)
	assert.True(t, res.SpeedCompliant)
	assert.True(t, res.ConsumptionCompliant)

	// No good-weather legs: nothing achieved, consumption cannot be breached.
	res, err = VerifyWarranty(legs[2:], Warranty{SpeedKts: 12.5, ConsumptionMTDay: 26, MaxBeaufort: 4})
	require.NoError(t, err)
	assert.Zero(t, res.AchievedSpeedKts)
	assert.False(t, res.SpeedCompliant)
	assert.True(t, res.ConsumptionCompliant)

	for _, w := range []Warranty{
		{SpeedKts: 0, ConsumptionMTDay: 26, MaxBeaufort: 4},
		{SpeedKts: 12, ConsumptionMTDay: 0, MaxBeaufort: 4},
		{SpeedKts: 12, ConsumptionMTDay: 26, MaxBeaufort: -1},
		{SpeedKts: 12, ConsumptionMTDay: 26, MaxBeaufort: 4, SpeedTolerancePct: 25},
		{SpeedKts: 12, ConsumptionMTDay: 26, MaxBeaufort: 4, ConsumptionTolerancePct: -1},
	} {
		_, err := VerifyWarranty(legs, w)
		assert.ErrorIs(t, err, domain.ErrValidation, "%+v", w)
	}
}

func TestLegsFromVoyage(t *testing.T) {
	v := &domain.VoyageResult{Legs: []domain.LegResult{
		{WindSpeedKts: 18, WaveHeightM: 2, STWKts: 12, SOGKts: 11.2, TimeHours: 10, DistanceNM: 112, FuelMT: 9},
	}}
	legs := LegsFromVoyage(v)
	require.Len(t, legs, 1)
	assert.InDelta(t, 0.8, legs[0].CurrentKts, 1e-9)
	assert.Equal(t, 112.0, legs[0].DistanceNM)
	assert.Equal(t, 11.2, legs[0].SOGKts)
	assert.Nil(t, LegsFromVoyage(nil))
}

func TestDetectOffHire(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	at := func(h float64) time.Time { return t0.Add(time.Duration(h * float64(time.Hour))) }

	entries := []LogEntry{
		{Timestamp: at(0), RPM: 80, SpeedSTW: 12},
		{Timestamp: at(2), RPM: 80, SpeedSTW: 12},
		{Timestamp: at(4), RPM: 0, SpeedSTW: 0},
		{Timestamp: at(5), RPM: 0, SpeedSTW: 0},
		{Timestamp: at(6), RPM: 60, SpeedSTW: 0.5},
		{Timestamp: at(7), RPM: 70, SpeedSTW: 11, Place: "Rotterdam Anchorage"},
		{Timestamp: at(8), RPM: 70, SpeedSTW: 11},
		{Timestamp: at(20), RPM: 70, SpeedSTW: 11, Event: "Arrived port"},
		{Timestamp: at(22), RPM: 70, SpeedSTW: 11},
	}
	// Log order does not matter.
	entries[1], entries[5] = entries[5], entries[1]

	res, err := DetectOffHire(entries, DefaultOffHireRules())
	require.NoError(t, err)
	require.Len(t, res.Events, 5)

	assert.Equal(t, ReasonEngineStopped, res.Events[0].Reason)
	assert.Equal(t, at(4), res.Events[0].Start)
	assert.Equal(t, at(6), res.Events[0].End, "adjacent stopped intervals merge")
	assert.Equal(t, ReasonDrifting, res.Events[1].Reason)
	assert.Equal(t, 0.5, res.Events[1].AvgSpeedKts)
	assert.Equal(t, ReasonAnchor, res.Events[2].Reason)
	assert.Equal(t, ReasonGap, res.Events[3].Reason)
	assert.InDelta(t, 12, res.Events[3].Hours(), 1e-9)
	assert.Equal(t, ReasonPort, res.Events[4].Reason)

	assert.InDelta(t, 22, res.TotalHours, 1e-9)
	assert.InDelta(t, 18, res.OffHireHours, 1e-9)
	assert.InDelta(t, 4, res.OnHireHours, 1e-9)
	assert.InDelta(t, 18.0/22*100, res.OffHirePct, 1e-9)

	res, err = DetectOffHire(entries[:1], DefaultOffHireRules())
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.Zero(t, res.TotalHours)

	_, err = DetectOffHire(entries, OffHireRules{MinRPM: 10, MinSpeedKts: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
