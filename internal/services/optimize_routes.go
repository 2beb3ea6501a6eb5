package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/platform/obs"
	"voyage-routing-service/internal/routing"
	"voyage-routing-service/internal/vessel"
	"voyage-routing-service/internal/voyage"

	"github.com/rs/zerolog/log"
)

type OptimizeRoutesRequest struct {
	// Route the baseline was computed on. Empty takes it from Baseline.
	Waypoints []domain.Waypoint
	Baseline  *domain.VoyageResult

	Weightings []domain.Weighting
	Algorithms []domain.Algorithm

	VesselID    string
	Calibration *vessel.Calibration
}

type searchOutcome struct {
	key    domain.OptimizationKey
	result *domain.OptimizationResult
}

// OptimizeRoutes searches for an alternative route for every requested
// (algorithm, weighting) pair concurrently. Each pair maps to its result, or
// to nil when its search was exhausted or failed; one failed pair never
// affects the others. An empty algorithm or weighting set yields an empty
// map.
func (s *VoyageService) OptimizeRoutes(
	ctx context.Context,
	req OptimizeRoutesRequest,
) (out map[domain.OptimizationKey]*domain.OptimizationResult, err error) {
	defer obs.Time(ctx, "optimize_routes")(&err)

	keys, err := optimizationKeys(req.Algorithms, req.Weightings)
	if err != nil {
		return nil, err
	}
	out = make(map[domain.OptimizationKey]*domain.OptimizationResult, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	base := req.Baseline
	if base == nil {
		return nil, &domain.ValidationError{Field: "baseline", Message: "baseline voyage is required"}
	}
	wps := req.Waypoints
	if len(wps) == 0 {
		wps = base.Waypoints()
	}
	if err := validateRoute(wps, base.CalmSpeedKts); err != nil {
		return nil, err
	}
	cal, err := s.calibration(ctx, req.VesselID, req.Calibration)
	if err != nil {
		return nil, err
	}

	set := voyage.Settings{
		CalmSpeedKts: base.CalmSpeedKts,
		Laden:        base.IsLaden,
		UseWeather:   base.UseWeather,
		Calibration:  cal,
	}

	// One weather view shared by every search so they all see the same run.
	var field voyage.WeatherField
	if set.UseWeather {
		area := routeBBox(wps).Expand(s.searcher.Config().MarginDeg)
		f, err := s.resolver.Field(ctx, area)
		if err != nil {
			return nil, fmt.Errorf("optimize routes: %w", err)
		}
		field = f
	}

	sem := make(chan struct{}, s.parallelism)
	resultsCh := make(chan searchOutcome, len(keys))
	var wg sync.WaitGroup

	for _, key := range keys {
		wg.Add(1)
		go func(k domain.OptimizationKey) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			req := routing.Request{
				Key:       k,
				Start:     wps[0],
				Goal:      wps[len(wps)-1],
				Departure: base.DepartureTime,
				Settings:  set,
				Field:     field,
			}
			resultsCh <- searchOutcome{key: k, result: s.optimizeOne(ctx, req, base)}
		}(key)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	for r := range resultsCh {
		out[r.key] = r.result
	}
	return out, nil
}

// optimizeOne runs one search and evaluates its route. It returns nil when
// there is nothing usable to report.
func (s *VoyageService) optimizeOne(ctx context.Context, req routing.Request, base *domain.VoyageResult) *domain.OptimizationResult {
	logger := log.With().
		Str("req_id", obs.RequestID(ctx)).
		Str("search", req.Key.String()).
		Logger()

	res, err := s.searcher.Search(ctx, req)
	if err != nil {
		logger.Warn().Err(err).Msg("route search failed")
		return nil
	}
	s.metrics.Search(string(req.Key.Algorithm), string(req.Key.Weighting), string(res.Outcome), res.NodesExpanded, res.Duration)

	logger.Debug().
		Str("outcome", string(res.Outcome)).
		Int("expanded", res.NodesExpanded).
		Dur("dur", res.Duration).
		Msg("route search finished")

	if res.Outcome == domain.OutcomeExhausted || len(res.Waypoints) < 2 {
		return nil
	}

	name := fmt.Sprintf("%s (%s)", base.RouteName, req.Key)
	v, err := s.simulator.Simulate(ctx, name, res.Waypoints, req.Departure, req.Settings, req.Field)
	if err != nil {
		logger.Warn().Err(err).Msg("optimized route could not be simulated")
		return nil
	}

	verdict := s.searcher.Config().Classify(v)
	if req.Key.Weighting == domain.WeightingSafety && verdict.Status == domain.SafetyDangerous {
		// The search only admits safe edges; a dangerous simulation means
		// the route cannot be offered under this weighting.
		logger.Warn().Ints("legs", verdict.DangerousLegs).Msg("safety route exceeds danger thresholds")
		return nil
	}

	reaches := res.Waypoints[len(res.Waypoints)-1].Position == req.Goal.Position
	if !reaches {
		logger.Debug().Msg("partial route stops short of the goal")
	}

	return &domain.OptimizationResult{
		VoyageResult:       *v,
		Key:                req.Key,
		Outcome:            res.Outcome,
		Partial:            res.Partial,
		ReachesGoal:        reaches,
		NodesExpanded:      res.NodesExpanded,
		BaselineFuelMT:     base.TotalFuelMT,
		BaselineDistanceNM: base.TotalDistanceNM,
		BaselineTimeHours:  base.TotalTimeHours,
		Safety:             verdict,
	}
}

// optimizationKeys expands the request into (algorithm, weighting) pairs,
// rejecting unknown names and dropping duplicates.
func optimizationKeys(algs []domain.Algorithm, ws []domain.Weighting) ([]domain.OptimizationKey, error) {
	for _, a := range algs {
		if !a.Valid() {
			return nil, &domain.ValidationError{Field: "algorithms", Message: fmt.Sprintf("unknown algorithm %q", a)}
		}
	}
	for _, w := range ws {
		if !w.Valid() {
			return nil, &domain.ValidationError{Field: "weightings", Message: fmt.Sprintf("unknown weighting %q", w)}
		}
	}

	var keys []domain.OptimizationKey
	for _, a := range algs {
		for _, w := range ws {
			k := domain.OptimizationKey{Algorithm: a, Weighting: w}
			if !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	return keys, nil
}
