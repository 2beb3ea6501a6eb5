package gridstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/obs"
	"voyage-routing-service/internal/ports"
)

// SQLGridStore is the Postgres implementation of the forecast and
// climatology provider ports.
type SQLGridStore struct {
	DB *sql.DB
}

func NewSQLGridStore(db *sql.DB) *SQLGridStore {
	return &SQLGridStore{DB: db}
}

func (s *SQLGridStore) LatestRun(ctx context.Context) (_ ports.ForecastRun, err error) {
	defer obs.Time(ctx, "gridstore.sql.LatestRun")(&err)

	if s.DB == nil {
		return ports.ForecastRun{}, errors.New("grid store: db is nil")
	}

	query := `
	SELECT source, run_time, step_hours, horizon_hours
	FROM weather_forecast_runs
	WHERE status = $1
	ORDER BY run_time DESC
	LIMIT 1;
	`
	var run ports.ForecastRun
	err = s.DB.QueryRowContext(ctx, query, StatusComplete).
		Scan(&run.Source, &run.RunTime, &run.StepHours, &run.HorizonHours)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ForecastRun{}, fmt.Errorf("latest run: %w", ports.ErrGridNotFound)
	}
	if err != nil {
		return ports.ForecastRun{}, fmt.Errorf("latest run: query weather_forecast_runs table: %w", err)
	}
	run.RunTime = run.RunTime.UTC()
	return run, nil
}

func (s *SQLGridStore) ForecastGrid(ctx context.Context, key grid.Key) (_ *grid.Grid, err error) {
	defer obs.Time(ctx, "gridstore.sql.ForecastGrid")(&err)

	if s.DB == nil {
		return nil, errors.New("grid store: db is nil")
	}

	query := `
	SELECT d.payload, d.lat_count, d.lon_count
	FROM weather_grid_data d
	JOIN weather_forecast_runs r ON r.id = d.run_id
	WHERE r.status = $1
		AND r.run_time = $2
		AND d.forecast_hour = $3
		AND d.parameter = $4
	ORDER BY r.id
	LIMIT 1;
	`
	var (
		payload    []byte
		rows, cols int
	)
	err = s.DB.QueryRowContext(ctx, query,
		StatusComplete, key.RunTime.UTC(), key.ForecastHour(), string(key.Parameter),
	).Scan(&payload, &rows, &cols)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("forecast grid %s: %w", key, ports.ErrGridNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("forecast grid: query weather_grid_data table: %w", err)
	}

	g, err := decode(payload, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("forecast grid %s: %w", key, err)
	}
	return g, nil
}

func (s *SQLGridStore) ClimatologyGrid(ctx context.Context, key grid.Key) (_ *grid.Grid, err error) {
	defer obs.Time(ctx, "gridstore.sql.ClimatologyGrid")(&err)

	if s.DB == nil {
		return nil, errors.New("grid store: db is nil")
	}

	query := `
	SELECT payload, lat_count, lon_count
	FROM climatology_grid_data
	WHERE day_of_year = $1 AND parameter = $2;
	`
	var (
		payload    []byte
		rows, cols int
	)
	err = s.DB.QueryRowContext(ctx, query, dayOfYear(key.Time), string(key.Parameter)).
		Scan(&payload, &rows, &cols)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("climatology grid %s: %w", key, ports.ErrGridNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("climatology grid: query climatology_grid_data table: %w", err)
	}

	g, err := decode(payload, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("climatology grid %s: %w", key, err)
	}
	return g, nil
}

func (s *SQLGridStore) CreateRun(ctx context.Context, run Run) (err error) {
	defer obs.Time(ctx, "gridstore.sql.CreateRun")(&err)

	if err := run.validate(); err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	query := `
	INSERT INTO weather_forecast_runs (
		id, source, run_time, step_hours, horizon_hours, status, grid_resolution, bbox
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err = s.DB.ExecContext(ctx, query,
		run.ID, run.Forecast.Source, run.Forecast.RunTime.UTC(), run.Forecast.StepHours,
		run.Forecast.HorizonHours, StatusPending, run.GridResolution, run.BBox.String(),
	)
	if err != nil {
		return fmt.Errorf("create run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SQLGridStore) SaveForecastGrid(ctx context.Context, runID string, hour int, g *grid.Grid) (err error) {
	defer obs.Time(ctx, "gridstore.sql.SaveForecastGrid")(&err)

	payload, rows, cols, err := encode(g)
	if err != nil {
		return fmt.Errorf("save forecast grid: %w", err)
	}

	query := `
	INSERT INTO weather_grid_data (
		run_id, forecast_hour, parameter, payload, lat_count, lon_count
	)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (run_id, forecast_hour, parameter)
	DO UPDATE SET
		payload = EXCLUDED.payload,
		lat_count = EXCLUDED.lat_count,
		lon_count = EXCLUDED.lon_count;
	`
	if _, err := s.DB.ExecContext(ctx, query, runID, hour, string(g.Parameter()), payload, rows, cols); err != nil {
		return fmt.Errorf("save forecast grid run=%s hour=%d: %w", runID, hour, err)
	}
	return nil
}

func (s *SQLGridStore) CompleteRun(ctx context.Context, runID string) (err error) {
	defer obs.Time(ctx, "gridstore.sql.CompleteRun")(&err)

	res, err := s.DB.ExecContext(ctx, `UPDATE weather_forecast_runs SET status = $1 WHERE id = $2;`, StatusComplete, runID)
	if err != nil {
		return fmt.Errorf("complete run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete run %s: no such run", runID)
	}
	return nil
}

func (s *SQLGridStore) SaveClimatologyGrid(ctx context.Context, g *grid.Grid) (err error) {
	defer obs.Time(ctx, "gridstore.sql.SaveClimatologyGrid")(&err)

	payload, rows, cols, err := encode(g)
	if err != nil {
		return fmt.Errorf("save climatology grid: %w", err)
	}

	query := `
	INSERT INTO climatology_grid_data (
		day_of_year, parameter, payload, lat_count, lon_count
	)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (day_of_year, parameter)
	DO UPDATE SET
		payload = EXCLUDED.payload,
		lat_count = EXCLUDED.lat_count,
		lon_count = EXCLUDED.lon_count;
	`
	day := dayOfYear(g.Time())
	if _, err := s.DB.ExecContext(ctx, query, day, string(g.Parameter()), payload, rows, cols); err != nil {
		return fmt.Errorf("save climatology grid day=%d: %w", day, err)
	}
	return nil
}
