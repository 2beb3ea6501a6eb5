package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"voyage-routing-service/internal/platform/obs"
	"voyage-routing-service/internal/vessel"
)

// SQLCalibrationRepository is the Postgres implementation of the
// CalibrationRepository port.
type SQLCalibrationRepository struct{ DB *sql.DB }

func NewSQLCalibrationRepository(db *sql.DB) *SQLCalibrationRepository {
	return &SQLCalibrationRepository{DB: db}
}

func (s *SQLCalibrationRepository) GetCalibration(
	ctx context.Context,
	vesselID string,
) (_ vessel.Calibration, _ bool, err error) {
	defer obs.Time(ctx, "calibration.sql.Get")(&err)

	if s.DB == nil {
		return vessel.Calibration{}, false, errors.New("calibration repository: DB is nil")
	}

	query := `
	SELECT hull_fouling, wind_factor, wave_factor, sfoc_factor
	FROM vessel_calibration
	WHERE vessel_id = $1;
	`
	var c vessel.Calibration
	err = s.DB.QueryRowContext(ctx, query, vesselID).Scan(&c.HullFouling, &c.Wind, &c.Waves, &c.SFOC)
	if errors.Is(err, sql.ErrNoRows) {
		return vessel.Calibration{}, false, nil
	}
	if err != nil {
		return vessel.Calibration{}, false, fmt.Errorf("get calibration: query vessel_calibration table: %w", err)
	}
	return c, true, nil
}

func (s *SQLCalibrationRepository) SaveCalibration(
	ctx context.Context,
	vesselID string,
	cal vessel.Calibration,
) (err error) {
	defer obs.Time(ctx, "calibration.sql.Save")(&err)

	if s.DB == nil {
		return errors.New("calibration repository: DB is nil")
	}
	if vesselID == "" {
		return errors.New("save calibration: vessel id must not be empty")
	}
	if err := cal.Validate(); err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}
	cal = cal.Normalized()

	query := `
	INSERT INTO vessel_calibration (
		vessel_id, hull_fouling, wind_factor, wave_factor, sfoc_factor, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (vessel_id) DO UPDATE SET
		hull_fouling = EXCLUDED.hull_fouling,
		wind_factor = EXCLUDED.wind_factor,
		wave_factor = EXCLUDED.wave_factor,
		sfoc_factor = EXCLUDED.sfoc_factor,
		updated_at = now();
	`
	if _, err := s.DB.ExecContext(ctx, query, vesselID, cal.HullFouling, cal.Wind, cal.Waves, cal.SFOC); err != nil {
		return fmt.Errorf("save calibration: upsert vessel_id=%s: %w", vesselID, err)
	}
	return nil
}
