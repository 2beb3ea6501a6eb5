package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientWaypoints = errors.New("insufficient waypoints")
	ErrOutOfBounds           = errors.New("weather query outside grid coverage")
	ErrLandPoint             = errors.New("weather query on land")
	ErrStalledLeg            = errors.New("stalled leg")
	ErrValidation            = errors.New("invalid input")
)

type InsufficientWaypointsError struct {
	Got int
}

func (e *InsufficientWaypointsError) Error() string {
	return fmt.Sprintf("at least 2 waypoints required, got %d", e.Got)
}

func (e *InsufficientWaypointsError) Is(target error) bool { return target == ErrInsufficientWaypoints }

// Query point falls outside the area covered by a weather grid.
type OutOfBoundsError struct {
	Lat  float64
	Lon  float64
	BBox BBox
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf(
		"position (%.4f,%.4f) outside weather coverage lat [%.4f, %.4f] lon [%.4f, %.4f]",
		e.Lat, e.Lon, e.BBox.LatMin, e.BBox.LatMax, e.BBox.LonMin, e.BBox.LonMax,
	)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }

// Query point is masked as land.
type LandPointError struct {
	Lat float64
	Lon float64
}

func (e *LandPointError) Error() string {
	return fmt.Sprintf("position (%.4f,%.4f) is on land", e.Lat, e.Lon)
}

func (e *LandPointError) Is(target error) bool { return target == ErrLandPoint }

// The performance model produced no forward progress for a leg.
type StalledLegError struct {
	From   Position
	To     Position
	SOGKts float64
	STWKts float64
}

func (e *StalledLegError) Error() string {
	return fmt.Sprintf(
		"vessel stalled between %s and %s: sog=%.3f kts stw=%.3f kts",
		e.From, e.To, e.SOGKts, e.STWKts,
	)
}

func (e *StalledLegError) Is(target error) bool { return target == ErrStalledLeg }

// Rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
