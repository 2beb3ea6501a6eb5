package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"voyage-routing-service/internal/platform/obs"
	"voyage-routing-service/internal/vessel"
)

// SQLite-backed implementation of the CalibrationRepository port.
type SqliteCalibrationRepository struct{ DB *sql.DB }

func NewSqliteCalibrationRepository(db *sql.DB) *SqliteCalibrationRepository {
	return &SqliteCalibrationRepository{DB: db}
}

func (s *SqliteCalibrationRepository) GetCalibration(
	ctx context.Context,
	vesselID string,
) (_ vessel.Calibration, _ bool, err error) {
	defer obs.Time(ctx, "calibration.sqlite.Get")(&err)

	if s.DB == nil {
		return vessel.Calibration{}, false, errors.New("sqlite calibration repository: DB is nil")
	}

	query := `
	SELECT hull_fouling, wind_factor, wave_factor, sfoc_factor
	FROM vessel_calibration
	WHERE vessel_id = ?;
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

func (s *SqliteCalibrationRepository) SaveCalibration(
	ctx context.Context,
	vesselID string,
	cal vessel.Calibration,
) (err error) {
	defer obs.Time(ctx, "calibration.sqlite.Save")(&err)

	if s.DB == nil {
		return errors.New("sqlite calibration repository: DB is nil")
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
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(vessel_id) DO UPDATE SET
		hull_fouling = excluded.hull_fouling,
		wind_factor = excluded.wind_factor,
		wave_factor = excluded.wave_factor,
		sfoc_factor = excluded.sfoc_factor,
		updated_at = excluded.updated_at;
	`
	_, err = s.DB.ExecContext(ctx, query,
		vesselID, cal.HullFouling, cal.Wind, cal.Waves, cal.SFOC, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save calibration: upsert vessel_id=%s: %w", vesselID, err)
	}
	return nil
}
