package voyage

import (
	"context"
	"fmt"
	"strings"
	"time"
	"voyage-routing-service/internal/domain"
)

// Simulator walks a route leg by leg, departing each leg at the arrival
// time of the previous one so that every leg meets the weather of the time
// the vessel actually gets there.
type Simulator struct {
	eval        *Evaluator
	horizonDays float64
}

// horizonDays is reported in the data-source summary.
func NewSimulator(eval *Evaluator, horizonDays float64) *Simulator {
	return &Simulator{eval: eval, horizonDays: horizonDays}
}

func (s *Simulator) Evaluator() *Evaluator { return s.eval }

// Simulate evaluates every leg of waypoints in order. Any leg error aborts
// the whole voyage; no partial result is returned.
func (s *Simulator) Simulate(
	ctx context.Context,
	name string,
	waypoints []domain.Waypoint,
	departure time.Time,
	set Settings,
	field WeatherField,
) (*domain.VoyageResult, error) {
	if len(waypoints) < 2 {
		return nil, &domain.InsufficientWaypointsError{Got: len(waypoints)}
	}

	res := &domain.VoyageResult{
		RouteName:     name,
		DepartureTime: departure,
		CalmSpeedKts:  set.CalmSpeedKts,
		IsLaden:       set.Laden,
		UseWeather:    set.UseWeather,
		Legs:          make([]domain.LegResult, 0, len(waypoints)-1),
	}

	var stwHours float64
	clock := departure
	for i := 1; i < len(waypoints); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		leg, err := s.eval.EvaluateLeg(ctx, i-1, waypoints[i-1], waypoints[i], clock, set, field)
		if err != nil {
			return nil, fmt.Errorf("simulate voyage: %w", err)
		}
		clock = leg.ArrivalTime

		res.Legs = append(res.Legs, leg)
		res.TotalDistanceNM += leg.DistanceNM
		res.TotalTimeHours += leg.TimeHours
		res.TotalFuelMT += leg.FuelMT
		stwHours += leg.STWKts * leg.TimeHours
	}

	res.ArrivalTime = clock
	if res.TotalTimeHours > 0 {
		res.AvgSOGKts = res.TotalDistanceNM / res.TotalTimeHours
		res.AvgSTWKts = stwHours / res.TotalTimeHours
	}
	res.DataSources = summarize(res.Legs, s.horizonDays)
	return res, nil
}

func summarize(legs []domain.LegResult, horizonDays float64) domain.DataSourceSummary {
	sum := domain.DataSourceSummary{ForecastHorizonDays: horizonDays}
	for _, l := range legs {
		// Calm-water legs keep the zero provenance, which is forecast.
		switch l.Provenance.Source() {
		case domain.SourceForecast:
			sum.ForecastLegs++
		case domain.SourceBlended:
			sum.BlendedLegs++
		case domain.SourceClimatology:
			sum.ClimatologyLegs++
		}
	}
	sum.Warning = degradationWarning(sum, len(legs))
	return sum
}

// Empty when every leg used the live forecast.
func degradationWarning(sum domain.DataSourceSummary, legs int) string {
	if sum.BlendedLegs == 0 && sum.ClimatologyLegs == 0 {
		return ""
	}
	var parts []string
	if sum.BlendedLegs > 0 {
		parts = append(parts, fmt.Sprintf(
			"%d of %d legs fall near the end of the %.0f-day forecast and blend it with climatology",
			sum.BlendedLegs, legs, sum.ForecastHorizonDays))
	}
	if sum.ClimatologyLegs > 0 {
		parts = append(parts, fmt.Sprintf(
			"%d of %d legs are beyond the forecast horizon and use climatology only",
			sum.ClimatologyLegs, legs))
	}
	return strings.Join(parts, "; ") + ". Estimates for these legs are less certain."
}
