package handlers

import (
	"context"
	"net/http"
	"time"
	"voyage-routing-service/internal/api/dto"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/services"
	"voyage-routing-service/internal/vessel"
)

// Operations the HTTP layer needs from the voyage service.
type VoyageService interface {
	CalculateVoyage(ctx context.Context, req services.CalculateVoyageRequest) (*domain.VoyageResult, error)
	OptimizeRoutes(ctx context.Context, req services.OptimizeRoutesRequest) (map[domain.OptimizationKey]*domain.OptimizationResult, error)
	WeatherAlongRoute(ctx context.Context, wps []domain.Waypoint, at *time.Time) ([]services.PointWeather, error)
	WeatherAtPoint(ctx context.Context, p domain.Position, at *time.Time) (services.PointWeather, error)
	VesselSpecs() vessel.Specs
	CharterPartyService
}

type VoyageHandler struct {
	Service VoyageService
}

func toCalculateRequest(req dto.CalculateVoyageRequest) services.CalculateVoyageRequest {
	name := req.RouteName
	if name == "" {
		name = "Voyage Route"
	}
	return services.CalculateVoyageRequest{
		RouteName:     name,
		Waypoints:     dto.ToWaypoints(req.Waypoints),
		CalmSpeedKts:  req.CalmSpeedKts,
		IsLaden:       boolOr(req.IsLaden, true),
		DepartureTime: req.DepartureTime,
		UseWeather:    boolOr(req.UseWeather, true),
		VesselID:      req.VesselID,
		Calibration:   req.Calibration,
	}
}

// Calculate simulates the submitted route leg by leg.
func (h *VoyageHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req dto.CalculateVoyageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.Service.CalculateVoyage(r.Context(), toCalculateRequest(req))
	if err != nil {
		writeDomainError(w, r, "calculate voyage", err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.FromVoyage(res))
}

// Optimize computes the baseline voyage and then searches for alternative
// routes for each requested algorithm and weighting.
func (h *VoyageHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req dto.OptimizeVoyageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	calc := toCalculateRequest(req.CalculateVoyageRequest)
	base, err := h.Service.CalculateVoyage(r.Context(), calc)
	if err != nil {
		writeDomainError(w, r, "optimize voyage: baseline", err)
		return
	}

	algs := domain.Algorithms()
	if len(req.Algorithms) > 0 {
		algs = make([]domain.Algorithm, len(req.Algorithms))
		for i, a := range req.Algorithms {
			algs[i] = domain.Algorithm(a)
		}
	}
	ws := domain.Weightings()
	if len(req.Weightings) > 0 {
		ws = make([]domain.Weighting, len(req.Weightings))
		for i, wt := range req.Weightings {
			ws[i] = domain.Weighting(wt)
		}
	}

	results, err := h.Service.OptimizeRoutes(r.Context(), services.OptimizeRoutesRequest{
		Waypoints:   calc.Waypoints,
		Baseline:    base,
		Algorithms:  algs,
		Weightings:  ws,
		VesselID:    calc.VesselID,
		Calibration: calc.Calibration,
	})
	if err != nil {
		writeDomainError(w, r, "optimize voyage", err)
		return
	}

	res := dto.OptimizeVoyageResponse{
		Baseline: dto.FromVoyage(base),
		Results:  make(map[string]*dto.OptimizationResponse, len(results)),
	}
	for k, v := range results {
		res.Results[k.String()] = dto.FromOptimization(v)
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *VoyageHandler) VesselSpecs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.FromSpecs(h.Service.VesselSpecs()))
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}
