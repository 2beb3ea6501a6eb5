package ports

import (
	"context"
	"voyage-routing-service/internal/vessel"
)

// Port: a boundary for per-vessel calibration factors fitted from noon reports.
type CalibrationRepository interface {
	// Return the stored factors; ok is false when the vessel has none.
	GetCalibration(ctx context.Context, vesselID string) (cal vessel.Calibration, ok bool, err error)
	// Insert or replace the factors for a vessel.
	SaveCalibration(ctx context.Context, vesselID string, cal vessel.Calibration) error
}
