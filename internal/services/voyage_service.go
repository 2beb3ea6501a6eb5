package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/platform/clock"
	"voyage-routing-service/internal/platform/metrics"
	"voyage-routing-service/internal/platform/obs"
	"voyage-routing-service/internal/ports"
	"voyage-routing-service/internal/routing"
	"voyage-routing-service/internal/vessel"
	"voyage-routing-service/internal/voyage"
	"voyage-routing-service/internal/weather"
)

// VoyageService exposes voyage calculation, route optimization and weather
// lookups. Its dependencies are fixed at construction and it is safe for
// concurrent use.
type VoyageService struct {
	resolver     *weather.Resolver
	simulator    *voyage.Simulator
	searcher     *routing.Searcher
	calibrations ports.CalibrationRepository
	clock        clock.Clock
	metrics      *metrics.Collector
	parallelism  int
}

type Options struct {
	// Optional store of per-vessel calibration factors.
	Calibrations ports.CalibrationRepository
	Clock        clock.Clock
	Metrics      *metrics.Collector
	// Searches run at once during one optimization; zero runs all six.
	Parallelism int
}

func NewVoyageService(
	resolver *weather.Resolver,
	simulator *voyage.Simulator,
	searcher *routing.Searcher,
	opts Options,
) (*VoyageService, error) {
	if resolver == nil || simulator == nil || searcher == nil {
		return nil, errors.New("new voyage service: resolver, simulator and searcher are required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = len(domain.Algorithms()) * len(domain.Weightings())
	}
	return &VoyageService{
		resolver:     resolver,
		simulator:    simulator,
		searcher:     searcher,
		calibrations: opts.Calibrations,
		clock:        opts.Clock,
		metrics:      opts.Metrics,
		parallelism:  opts.Parallelism,
	}, nil
}

func (s *VoyageService) VesselSpecs() vessel.Specs {
	return s.simulator.Evaluator().Model().Specs()
}

type CalculateVoyageRequest struct {
	RouteName    string
	Waypoints    []domain.Waypoint
	CalmSpeedKts float64
	IsLaden      bool
	// Nil departs now.
	DepartureTime *time.Time
	UseWeather    bool
	// Looks up stored calibration factors when set.
	VesselID string
	// Overrides any stored factors.
	Calibration *vessel.Calibration
}

// CalculateVoyage simulates the route leg by leg. Any leg failure aborts the
// whole calculation with the specific domain error.
func (s *VoyageService) CalculateVoyage(ctx context.Context, req CalculateVoyageRequest) (res *domain.VoyageResult, err error) {
	defer obs.Time(ctx, "calculate_voyage")(&err)
	defer func() { s.metrics.Voyage(resultLabel(err)) }()

	if err := validateRoute(req.Waypoints, req.CalmSpeedKts); err != nil {
		return nil, err
	}
	cal, err := s.calibration(ctx, req.VesselID, req.Calibration)
	if err != nil {
		return nil, err
	}

	departure := s.clock.Now()
	if req.DepartureTime != nil {
		departure = req.DepartureTime.UTC()
	}

	set := voyage.Settings{
		CalmSpeedKts: req.CalmSpeedKts,
		Laden:        req.IsLaden,
		UseWeather:   req.UseWeather,
		Calibration:  cal,
	}

	var field voyage.WeatherField
	if req.UseWeather {
		f, err := s.resolver.Field(ctx, routeBBox(req.Waypoints))
		if err != nil {
			return nil, fmt.Errorf("calculate voyage: %w", err)
		}
		field = f
	}

	res, err = s.simulator.Simulate(ctx, req.RouteName, req.Waypoints, departure, set, field)
	if err != nil {
		return nil, fmt.Errorf("calculate voyage: %w", err)
	}
	return res, nil
}

// calibration picks the request override, then the stored factors, then none.
func (s *VoyageService) calibration(ctx context.Context, vesselID string, override *vessel.Calibration) (*vessel.Calibration, error) {
	if override != nil {
		if err := override.Validate(); err != nil {
			return nil, &domain.ValidationError{Field: "calibration", Message: err.Error()}
		}
		return override, nil
	}
	if vesselID == "" || s.calibrations == nil {
		return nil, nil
	}
	cal, ok, err := s.calibrations.GetCalibration(ctx, vesselID)
	if err != nil {
		return nil, fmt.Errorf("load calibration for %q: %w", vesselID, err)
	}
	if !ok {
		return nil, nil
	}
	return &cal, nil
}

// routeBBox follows the route across the antimeridian; see domain.RouteBBox.
func routeBBox(wps []domain.Waypoint) domain.BBox {
	ps := make([]domain.Position, len(wps))
	for i, wp := range wps {
		ps[i] = wp.Position
	}
	return domain.RouteBBox(ps...)
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInsufficientWaypoints):
		return "invalid"
	case errors.Is(err, domain.ErrStalledLeg):
		return "stalled"
	case errors.Is(err, domain.ErrOutOfBounds), errors.Is(err, domain.ErrLandPoint):
		return "no_weather"
	default:
		return "error"
	}
}
