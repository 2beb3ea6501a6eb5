package gridstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/obs"
	"voyage-routing-service/internal/ports"
)

// SqliteGridStore is the SQLite implementation of the forecast and
// climatology provider ports. Run times are stored as unix seconds.
type SqliteGridStore struct {
	DB *sql.DB
}

func NewSqliteGridStore(db *sql.DB) *SqliteGridStore {
	return &SqliteGridStore{DB: db}
}

func (s *SqliteGridStore) LatestRun(ctx context.Context) (_ ports.ForecastRun, err error) {
	defer obs.Time(ctx, "gridstore.sqlite.LatestRun")(&err)

	if s.DB == nil {
		return ports.ForecastRun{}, errors.New("sqlite grid store: DB is nil")
	}

	query := `
	SELECT source, run_time, step_hours, horizon_hours
	FROM weather_forecast_runs
	WHERE status = ?
	ORDER BY run_time DESC
	LIMIT 1;
	`
	var (
		run     ports.ForecastRun
		runUnix int64
	)
	err = s.DB.QueryRowContext(ctx, query, StatusComplete).
		Scan(&run.Source, &runUnix, &run.StepHours, &run.HorizonHours)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ForecastRun{}, fmt.Errorf("latest run: %w", ports.ErrGridNotFound)
	}
	if err != nil {
		return ports.ForecastRun{}, fmt.Errorf("latest run: query weather_forecast_runs table: %w", err)
	}
	run.RunTime = time.Unix(runUnix, 0).UTC()
	return run, nil
}

func (s *SqliteGridStore) ForecastGrid(ctx context.Context, key grid.Key) (_ *grid.Grid, err error) {
	defer obs.Time(ctx, "gridstore.sqlite.ForecastGrid")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite grid store: DB is nil")
	}

	query := `
	SELECT d.payload, d.lat_count, d.lon_count
	FROM weather_grid_data d
	JOIN weather_forecast_runs r ON r.id = d.run_id
	WHERE r.status = ?
		AND r.run_time = ?
		AND d.forecast_hour = ?
		AND d.parameter = ?
	ORDER BY r.id
	LIMIT 1;
	`
	var (
		payload    []byte
		rows, cols int
	)
	err = s.DB.QueryRowContext(ctx, query,
		StatusComplete, key.RunTime.Unix(), key.ForecastHour(), string(key.Parameter),
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

func (s *SqliteGridStore) ClimatologyGrid(ctx context.Context, key grid.Key) (_ *grid.Grid, err error) {
	defer obs.Time(ctx, "gridstore.sqlite.ClimatologyGrid")(&err)

	if s.DB == nil {
		return nil, errors.New("sqlite grid store: DB is nil")
	}

	query := `
	SELECT payload, lat_count, lon_count
	FROM climatology_grid_data
	WHERE day_of_year = ? AND parameter = ?;
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

// CreateRun registers a pending run. Its grids stay invisible until
// CompleteRun.
func (s *SqliteGridStore) CreateRun(ctx context.Context, run Run) (err error) {
	defer obs.Time(ctx, "gridstore.sqlite.CreateRun")(&err)

	if err := run.validate(); err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	query := `
	INSERT INTO weather_forecast_runs (
		id, source, run_time, step_hours, horizon_hours, status, grid_resolution, bbox
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err = s.DB.ExecContext(ctx, query,
		run.ID, run.Forecast.Source, run.Forecast.RunTime.Unix(), run.Forecast.StepHours,
		run.Forecast.HorizonHours, StatusPending, run.GridResolution, run.BBox.String(),
	)
	if err != nil {
		return fmt.Errorf("create run %s: %w", run.ID, err)
	}
	return nil
}

func (s *SqliteGridStore) SaveForecastGrid(ctx context.Context, runID string, hour int, g *grid.Grid) (err error) {
	defer obs.Time(ctx, "gridstore.sqlite.SaveForecastGrid")(&err)

	payload, rows, cols, err := encode(g)
	if err != nil {
		return fmt.Errorf("save forecast grid: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO weather_grid_data (
		run_id, forecast_hour, parameter, payload, lat_count, lon_count
	)
	VALUES (?, ?, ?, ?, ?, ?);
	`
	if _, err := s.DB.ExecContext(ctx, query, runID, hour, string(g.Parameter()), payload, rows, cols); err != nil {
		return fmt.Errorf("save forecast grid run=%s hour=%d: %w", runID, hour, err)
	}
	return nil
}

func (s *SqliteGridStore) CompleteRun(ctx context.Context, runID string) (err error) {
	defer obs.Time(ctx, "gridstore.sqlite.CompleteRun")(&err)

	res, err := s.DB.ExecContext(ctx, `UPDATE weather_forecast_runs SET status = ? WHERE id = ?;`, StatusComplete, runID)
	if err != nil {
		return fmt.Errorf("complete run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete run %s: no such run", runID)
	}
	return nil
}

func (s *SqliteGridStore) SaveClimatologyGrid(ctx context.Context, g *grid.Grid) (err error) {
	defer obs.Time(ctx, "gridstore.sqlite.SaveClimatologyGrid")(&err)

	payload, rows, cols, err := encode(g)
	if err != nil {
		return fmt.Errorf("save climatology grid: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO climatology_grid_data (
		day_of_year, parameter, payload, lat_count, lon_count
	)
	VALUES (?, ?, ?, ?, ?);
	`
	day := dayOfYear(g.Time())
	if _, err := s.DB.ExecContext(ctx, query, day, string(g.Parameter()), payload, rows, cols); err != nil {
		return fmt.Errorf("save climatology grid day=%d: %w", day, err)
	}
	return nil
}
