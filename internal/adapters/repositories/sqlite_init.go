package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"voyage-routing-service/internal/platform/db"
	"voyage-routing-service/internal/ports"
	"voyage-routing-service/internal/vessel"
)

var sqliteSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS vessel_calibration (
		vessel_id TEXT PRIMARY KEY,
		hull_fouling REAL NOT NULL,
		wind_factor REAL NOT NULL,
		wave_factor REAL NOT NULL,
		sfoc_factor REAL NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS weather_forecast_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		run_time INTEGER NOT NULL,
		step_hours INTEGER NOT NULL,
		horizon_hours INTEGER NOT NULL,
		status TEXT NOT NULL,
		grid_resolution REAL NOT NULL,
		bbox TEXT NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS weather_grid_data (
		run_id TEXT NOT NULL REFERENCES weather_forecast_runs(id) ON DELETE CASCADE,
		forecast_hour INTEGER NOT NULL,
		parameter TEXT NOT NULL,
		payload BLOB NOT NULL,
		lat_count INTEGER NOT NULL,
		lon_count INTEGER NOT NULL,
		PRIMARY KEY (run_id, forecast_hour, parameter)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS climatology_grid_data (
		day_of_year INTEGER NOT NULL,
		parameter TEXT NOT NULL,
		payload BLOB NOT NULL,
		lat_count INTEGER NOT NULL,
		lon_count INTEGER NOT NULL,
		PRIMARY KEY (day_of_year, parameter)
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_weather_forecast_runs_status_time
	ON weather_forecast_runs(status, run_time);
	`,
}

var postgresSchema = []string{
	`
	CREATE TABLE IF NOT EXISTS vessel_calibration (
		vessel_id TEXT PRIMARY KEY,
		hull_fouling DOUBLE PRECISION NOT NULL,
		wind_factor DOUBLE PRECISION NOT NULL,
		wave_factor DOUBLE PRECISION NOT NULL,
		sfoc_factor DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS weather_forecast_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		run_time TIMESTAMPTZ NOT NULL,
		step_hours INTEGER NOT NULL,
		horizon_hours INTEGER NOT NULL,
		status TEXT NOT NULL,
		grid_resolution DOUBLE PRECISION NOT NULL,
		bbox TEXT NOT NULL
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS weather_grid_data (
		run_id TEXT NOT NULL REFERENCES weather_forecast_runs(id) ON DELETE CASCADE,
		forecast_hour INTEGER NOT NULL,
		parameter TEXT NOT NULL,
		payload BYTEA NOT NULL,
		lat_count INTEGER NOT NULL,
		lon_count INTEGER NOT NULL,
		PRIMARY KEY (run_id, forecast_hour, parameter)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS climatology_grid_data (
		day_of_year INTEGER NOT NULL,
		parameter TEXT NOT NULL,
		payload BYTEA NOT NULL,
		lat_count INTEGER NOT NULL,
		lon_count INTEGER NOT NULL,
		PRIMARY KEY (day_of_year, parameter)
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_weather_forecast_runs_status_time
	ON weather_forecast_runs(status, run_time DESC);
	`,
}

// Initialize the database schema for the given driver.
func InitSchema(conn *sql.DB, driver string) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	var statements []string
	switch driver {
	case db.DriverSQLite:
		statements = sqliteSchema
	case db.DriverPostgres:
		statements = postgresSchema
	default:
		return fmt.Errorf("init schema: unsupported driver %q", driver)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// NewCalibrationRepository picks the implementation for driver.
func NewCalibrationRepository(conn *sql.DB, driver string) (ports.CalibrationRepository, error) {
	switch driver {
	case db.DriverSQLite:
		return NewSqliteCalibrationRepository(conn), nil
	case db.DriverPostgres:
		return NewSQLCalibrationRepository(conn), nil
	default:
		return nil, fmt.Errorf("calibration repository: unsupported driver %q", driver)
	}
}

type CalibrationSeed struct {
	VesselID string `json:"vessel_id"`
	vessel.Calibration
}

// Populate the calibration store from a JSON file holding a list of
// CalibrationSeed objects.
func SeedCalibrationFromJSON(ctx context.Context, repo ports.CalibrationRepository, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed calibration: read %q: %w", jsonPath, err)
	}

	var data []CalibrationSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed calibration: parse json: %w", err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.VesselID) == "" {
			return 0, fmt.Errorf("seed calibration: item at index %d: vessel_id cannot be empty", i+1)
		}
		if err := item.Calibration.Validate(); err != nil {
			return 0, fmt.Errorf("seed calibration: item at index %d: %w", i+1, err)
		}
	}

	for _, item := range data {
		if err := repo.SaveCalibration(ctx, strings.TrimSpace(item.VesselID), item.Calibration); err != nil {
			return 0, fmt.Errorf("seed calibration: %w", err)
		}
	}
	return len(data), nil
}
