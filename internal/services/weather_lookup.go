package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/platform/obs"
)

// Weather at one point of a route. Err is set instead of Sample when the
// point has no usable weather (outside coverage or on land).
type PointWeather struct {
	Waypoint   domain.Waypoint
	Time       time.Time
	Sample     domain.WeatherSample
	Provenance domain.Provenance
	Err        error
}

// WeatherAlongRoute samples the weather at every waypoint at time at, or
// now when at is nil. It is a diagnostic view and runs no simulation;
// points without coverage are reported per point rather than failing the
// call.
func (s *VoyageService) WeatherAlongRoute(ctx context.Context, wps []domain.Waypoint, at *time.Time) (out []PointWeather, err error) {
	defer obs.Time(ctx, "weather_along_route")(&err)

	if len(wps) == 0 {
		return nil, &domain.InsufficientWaypointsError{Got: 0}
	}
	for i, wp := range wps {
		if err := wp.Position.Validate(); err != nil {
			return nil, &domain.ValidationError{Field: fmt.Sprintf("waypoints[%d]", i), Message: err.Error()}
		}
	}

	t := s.at(at)
	field, err := s.resolver.Field(ctx, routeBBox(wps))
	if err != nil {
		return nil, fmt.Errorf("weather along route: %w", err)
	}

	out = make([]PointWeather, 0, len(wps))
	for _, wp := range wps {
		sample, prov, err := field.At(ctx, wp.Position, t)
		pw := PointWeather{Waypoint: wp, Time: t, Sample: sample, Provenance: prov}
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrOutOfBounds), errors.Is(err, domain.ErrLandPoint):
			pw.Err = err
		default:
			return nil, fmt.Errorf("weather along route: %w", err)
		}
		out = append(out, pw)
	}
	return out, nil
}

// WeatherAtPoint samples the weather at one position.
func (s *VoyageService) WeatherAtPoint(ctx context.Context, p domain.Position, at *time.Time) (pw PointWeather, err error) {
	defer obs.Time(ctx, "weather_at_point")(&err)

	if err := p.Validate(); err != nil {
		return PointWeather{}, err
	}
	t := s.at(at)
	field, err := s.resolver.Field(ctx, domain.BBoxOf(p))
	if err != nil {
		return PointWeather{}, fmt.Errorf("weather at point: %w", err)
	}
	sample, prov, err := field.At(ctx, p, t)
	if err != nil {
		return PointWeather{}, fmt.Errorf("weather at point: %w", err)
	}
	return PointWeather{
		Waypoint:   domain.Waypoint{Position: p},
		Time:       t,
		Sample:     sample,
		Provenance: prov,
	}, nil
}

func (s *VoyageService) at(t *time.Time) time.Time {
	if t == nil {
		return s.clock.Now()
	}
	return t.UTC()
}
