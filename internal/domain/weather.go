package domain

import "math"

// Knots per metre-per-second.
const MSToKnots = 1.94384

// Point weather conditions.
//
// Wind components are in m/s. Swell and windwave directions follow the
// meteorological "from" convention. Current components are in m/s and
// describe where the water flows towards.
type WeatherSample struct {
	WindU float64
	WindV float64

	WaveHeightM float64

	SwellHeightM float64
	SwellDirDeg  float64
	SwellPeriodS float64

	WindwaveHeightM float64
	WindwaveDirDeg  float64
	WindwavePeriodS float64

	CurrentU float64
	CurrentV float64
}

func (s WeatherSample) WindSpeedMS() float64 { return math.Hypot(s.WindU, s.WindV) }

func (s WeatherSample) WindSpeedKts() float64 { return s.WindSpeedMS() * MSToKnots }

// Direction the wind blows from, in degrees clockwise from north.
func (s WeatherSample) WindDirFromDeg() float64 {
	return NormalizeDeg(270 - math.Atan2(s.WindV, s.WindU)*180/math.Pi)
}

// Significant wave height. Falls back to combining swell and windwave
// heights when no total is present.
func (s WeatherSample) TotalWaveHeightM() float64 {
	if s.WaveHeightM > 0 {
		return s.WaveHeightM
	}
	return math.Hypot(s.SwellHeightM, s.WindwaveHeightM)
}

// Direction of the dominant wave system. Windwaves without a direction are
// assumed aligned with the wind.
func (s WeatherSample) WaveDirDeg() float64 {
	if s.SwellHeightM > s.WindwaveHeightM {
		return NormalizeDeg(s.SwellDirDeg)
	}
	if s.WindwaveHeightM > 0 {
		return NormalizeDeg(s.WindwaveDirDeg)
	}
	return s.WindDirFromDeg()
}

// Current speed component along a course, in knots. Positive values push
// the vessel forward.
func (s WeatherSample) CurrentAlongKts(bearingDeg float64) float64 {
	rad := bearingDeg * math.Pi / 180
	return (s.CurrentU*math.Sin(rad) + s.CurrentV*math.Cos(rad)) * MSToKnots
}

// NormalizeDeg maps any angle to [0, 360).
func NormalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}
