// Package voyage evaluates voyages leg by leg against the vessel model and
// the weather met along the way.
package voyage

import (
	"context"
	"fmt"
	"math"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/geo"
	"voyage-routing-service/internal/vessel"
)

// Settings shared by every leg of one voyage.
type Settings struct {
	CalmSpeedKts float64
	Laden        bool
	UseWeather   bool
	// Optional; nil means the theoretical curves.
	Calibration *vessel.Calibration
}

// WeatherField supplies the weather at a point and time together with the
// tier it came from. *weather.Field satisfies it.
type WeatherField interface {
	At(ctx context.Context, p domain.Position, t time.Time) (domain.WeatherSample, domain.Provenance, error)
}

// Evaluator turns one leg into distance, speeds, time and fuel. It holds no
// mutable state and is safe for concurrent use.
type Evaluator struct {
	model *vessel.Model
}

func NewEvaluator(model *vessel.Model) *Evaluator {
	return &Evaluator{model: model}
}

func (e *Evaluator) Model() *vessel.Model { return e.model }

// EvaluateLeg computes the passage from one waypoint to the next starting at
// departure. Weather is taken at the great-circle midpoint at the departure
// time; field is ignored when s.UseWeather is false.
//
// Weather lookups fail with *domain.OutOfBoundsError or *domain.LandPointError
// and a leg that makes no forward progress fails with *domain.StalledLegError.
func (e *Evaluator) EvaluateLeg(
	ctx context.Context,
	index int,
	from, to domain.Waypoint,
	departure time.Time,
	s Settings,
	field WeatherField,
) (domain.LegResult, error) {
	dist := geo.DistanceNM(from.Position, to.Position)
	bearing := geo.InitialBearing(from.Position, to.Position)

	leg := domain.LegResult{
		LegIndex:      index,
		From:          from,
		To:            to,
		DistanceNM:    dist,
		BearingDeg:    bearing,
		CalmSpeedKts:  s.CalmSpeedKts,
		DepartureTime: departure,
	}

	in := vessel.Input{
		CalmSpeedKts: s.CalmSpeedKts,
		Laden:        s.Laden,
		Calibration:  s.Calibration,
	}

	if s.UseWeather && field != nil {
		mid := geo.Midpoint(from.Position, to.Position)
		w, prov, err := field.At(ctx, mid, departure)
		if err != nil {
			return domain.LegResult{}, fmt.Errorf("leg %d weather at %s: %w", index, mid, err)
		}

		leg.WeatherApplied = true
		leg.Provenance = prov
		leg.WindSpeedKts = w.WindSpeedKts()
		leg.WindDirDeg = w.WindDirFromDeg()
		leg.WaveHeightM = w.TotalWaveHeightM()
		leg.WaveDirDeg = w.WaveDirDeg()

		in.WindSpeedKts = leg.WindSpeedKts
		in.WindRelativeDeg = geo.RelativeDeg(leg.WindDirDeg, bearing)
		in.WaveHeightM = leg.WaveHeightM
		in.WaveRelativeDeg = geo.RelativeDeg(leg.WaveDirDeg, bearing)
		in.WaveComponents = waveComponents(w, bearing)
		in.CurrentAlongKts = w.CurrentAlongKts(bearing)
	}

	perf, err := e.model.Evaluate(in)
	if err != nil {
		return domain.LegResult{}, fmt.Errorf("leg %d: %w", index, err)
	}

	leg.STWKts = perf.STWKts
	leg.SOGKts = perf.SOGKts
	leg.SpeedLossPct = perf.SpeedLossPct
	leg.PowerKW = perf.PowerKW

	if dist > 0 {
		if !(perf.SOGKts > 0) || math.IsInf(perf.SOGKts, 0) {
			return domain.LegResult{}, &domain.StalledLegError{
				From:   from.Position,
				To:     to.Position,
				SOGKts: perf.SOGKts,
				STWKts: perf.STWKts,
			}
		}
		leg.TimeHours = dist / perf.SOGKts
		leg.FuelMT = perf.FuelRateMTPerHr * leg.TimeHours
	}
	leg.ArrivalTime = departure.Add(domain.Hours(leg.TimeHours))
	return leg, nil
}

// Separate swell and windwave systems when the grid has them.
func waveComponents(w domain.WeatherSample, bearing float64) []vessel.WaveComponent {
	var out []vessel.WaveComponent
	if w.SwellHeightM > 0 {
		out = append(out, vessel.WaveComponent{
			HeightM:     w.SwellHeightM,
			RelativeDeg: geo.RelativeDeg(w.SwellDirDeg, bearing),
		})
	}
	if w.WindwaveHeightM > 0 {
		dir := w.WindwaveDirDeg
		if w.WindwaveDirDeg == 0 && w.WindwavePeriodS == 0 {
			dir = w.WindDirFromDeg()
		}
		out = append(out, vessel.WaveComponent{
			HeightM:     w.WindwaveHeightM,
			RelativeDeg: geo.RelativeDeg(dir, bearing),
		})
	}
	return out
}
