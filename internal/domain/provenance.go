package domain

import "fmt"

// Weather tier a sample was drawn from.
type DataSource int

const (
	SourceForecast DataSource = iota
	SourceBlended
	SourceClimatology
)

func (d DataSource) String() string {
	switch d {
	case SourceForecast:
		return "forecast"
	case SourceBlended:
		return "blended"
	case SourceClimatology:
		return "climatology"
	default:
		return fmt.Sprintf("DataSource(%d)", int(d))
	}
}

// Provenance tags where a weather sample came from. Only blended samples
// carry a forecast weight.
type Provenance struct {
	source DataSource
	weight float64
}

func ForecastProvenance() Provenance { return Provenance{source: SourceForecast} }

func ClimatologyProvenance() Provenance { return Provenance{source: SourceClimatology} }

// BlendedProvenance clamps w to [0, 1].
func BlendedProvenance(w float64) Provenance {
	return Provenance{source: SourceBlended, weight: min(1, max(0, w))}
}

func (p Provenance) Source() DataSource { return p.source }

// Forecast weight of a blended sample. ok is false for the other tiers.
func (p Provenance) BlendWeight() (w float64, ok bool) {
	if p.source != SourceBlended {
		return 0, false
	}
	return p.weight, true
}

// Share of the sample that came from the forecast: 1 for forecast,
// 0 for climatology.
func (p Provenance) ForecastWeight() float64 {
	switch p.source {
	case SourceForecast:
		return 1
	case SourceBlended:
		return p.weight
	default:
		return 0
	}
}

func (p Provenance) String() string {
	if p.source == SourceBlended {
		return fmt.Sprintf("blended(%.3f)", p.weight)
	}
	return p.source.String()
}
