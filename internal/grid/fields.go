package grid

import (
	"fmt"
	"strings"
	"time"
	"voyage-routing-service/internal/domain"
)

// Field names one gridded variable.
type Field string

const (
	FieldWindU          Field = "wind_u"
	FieldWindV          Field = "wind_v"
	FieldWaveHeight     Field = "wave_height"
	FieldSwellHeight    Field = "swell_height"
	FieldSwellDir       Field = "swell_dir"
	FieldSwellPeriod    Field = "swell_period"
	FieldWindwaveHeight Field = "windwave_height"
	FieldWindwaveDir    Field = "windwave_dir"
	FieldWindwavePeriod Field = "windwave_period"
	FieldCurrentU       Field = "current_u"
	FieldCurrentV       Field = "current_v"
)

// Direction fields are interpolated on the unit circle.
func (f Field) IsDirection() bool { return f == FieldSwellDir || f == FieldWindwaveDir }

// Parameter names a product that is ingested and cached as one grid.
type Parameter string

const (
	ParameterWind     Parameter = "wind"
	ParameterWaves    Parameter = "waves"
	ParameterCurrents Parameter = "currents"
)

func (p Parameter) Fields() []Field {
	switch p {
	case ParameterWind:
		return []Field{FieldWindU, FieldWindV}
	case ParameterWaves:
		return []Field{
			FieldWaveHeight,
			FieldSwellHeight, FieldSwellDir, FieldSwellPeriod,
			FieldWindwaveHeight, FieldWindwaveDir, FieldWindwavePeriod,
		}
	case ParameterCurrents:
		return []Field{FieldCurrentU, FieldCurrentV}
	default:
		return nil
	}
}

// Interpolated field values at one point.
type Values map[Field]float64

// Sample converts values into a weather sample; missing fields read as zero.
func (v Values) Sample() domain.WeatherSample {
	return domain.WeatherSample{
		WindU:           v[FieldWindU],
		WindV:           v[FieldWindV],
		WaveHeightM:     v[FieldWaveHeight],
		SwellHeightM:    v[FieldSwellHeight],
		SwellDirDeg:     v[FieldSwellDir],
		SwellPeriodS:    v[FieldSwellPeriod],
		WindwaveHeightM: v[FieldWindwaveHeight],
		WindwaveDirDeg:  v[FieldWindwaveDir],
		WindwavePeriodS: v[FieldWindwavePeriod],
		CurrentU:        v[FieldCurrentU],
		CurrentV:        v[FieldCurrentV],
	}
}

// Source values used to build a grid key.
const (
	SourceClimatology = "climatology"
)

// Key identifies one cached grid build.
type Key struct {
	Source     string
	Parameter  Parameter
	BBox       domain.BBox
	Resolution float64
	// Valid time of the grid. For climatology only the day of year matters.
	Time time.Time
	// Reference time of the forecast run; zero for climatology.
	RunTime time.Time
}

// ForecastHour is the offset of the valid time from the run reference time.
func (k Key) ForecastHour() int {
	return int(k.Time.Sub(k.RunTime) / time.Hour)
}

func (k Key) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%.4f|%s", k.Source, k.Parameter, k.BBox, k.Resolution, k.Time.UTC().Format(time.RFC3339))
	if !k.RunTime.IsZero() {
		fmt.Fprintf(&b, "|%s", k.RunTime.UTC().Format(time.RFC3339))
	}
	return b.String()
}
