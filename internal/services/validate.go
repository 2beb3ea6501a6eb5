package services

import (
	"fmt"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/geo"
)

const (
	MaxCalmSpeedKts = 30
	MaxRouteNM      = 20_000
)

// validateRoute checks a waypoint list and calm speed before any weather is
// fetched.
func validateRoute(wps []domain.Waypoint, calmSpeedKts float64) error {
	if len(wps) < 2 {
		return &domain.InsufficientWaypointsError{Got: len(wps)}
	}
	for i, wp := range wps {
		if err := wp.Position.Validate(); err != nil {
			return &domain.ValidationError{
				Field:   fmt.Sprintf("waypoints[%d]", i),
				Message: err.Error(),
			}
		}
	}
	if !(calmSpeedKts > 0) || calmSpeedKts >= MaxCalmSpeedKts {
		return &domain.ValidationError{
			Field:   "calm_speed_kts",
			Message: fmt.Sprintf("must be greater than 0 and less than %d", MaxCalmSpeedKts),
		}
	}

	var total float64
	for i := 1; i < len(wps); i++ {
		total += geo.DistanceNM(wps[i-1].Position, wps[i].Position)
	}
	if total > MaxRouteNM {
		return &domain.ValidationError{
			Field:   "waypoints",
			Message: fmt.Sprintf("route is %.0f nm, longer than the %d nm limit", total, MaxRouteNM),
		}
	}
	return nil
}
