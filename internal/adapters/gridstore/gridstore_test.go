package gridstore

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"
	"voyage-routing-service/internal/adapters/forecast"
	"voyage-routing-service/internal/adapters/repositories"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/clock"
	"voyage-routing-service/internal/platform/db"
	"voyage-routing-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	runTime = time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC)
	box     = domain.BBox{LatMin: 30, LatMax: 40, LonMin: -50, LonMax: -40}
)

func openStore(t *testing.T, driver string) Store {
	t.Helper()
	var (
		conn *sql.DB
		err  error
	)
	switch driver {
	case db.DriverSQLite:
		conn, err = db.OpenSQLite(":memory:")
	case db.DriverPostgres:
		url := os.Getenv("TEST_DATABASE_URL")
		if url == "" {
			t.Skip("TEST_DATABASE_URL not set")
		}
		conn, err = db.OpenPostgres(url)
	}
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, repositories.InitSchema(conn, driver))
	if driver == db.DriverPostgres {
		for _, table := range []string{"weather_grid_data", "weather_forecast_runs", "climatology_grid_data"} {
			_, err := conn.Exec("DELETE FROM " + table)
			require.NoError(t, err)
		}
	}

	s, err := New(conn, driver)
	require.NoError(t, err)
	return s
}

func forecastKey(p grid.Parameter, hour int) grid.Key {
	return grid.Key{
		Source:     forecast.SyntheticSource,
		Parameter:  p,
		BBox:       box,
		Resolution: 1,
		Time:       runTime.Add(time.Duration(hour) * time.Hour),
		RunTime:    runTime,
	}
}

func testStore(t *testing.T, driver string) {
	s := openStore(t, driver)
	ctx := context.Background()
	synth := forecast.NewSynthetic(clock.NewMockClock(runTime), 3, 240)

	_, err := s.LatestRun(ctx)
	require.ErrorIs(t, err, ports.ErrGridNotFound)

	run := Run{
		ID:             "run-1",
		Forecast:       ports.ForecastRun{Source: forecast.SyntheticSource, RunTime: runTime, StepHours: 3, HorizonHours: 6},
		GridResolution: 1,
		BBox:           box,
	}
	require.NoError(t, s.CreateRun(ctx, run))

	key := forecastKey(grid.ParameterWind, 3)
	want, err := synth.ForecastGrid(ctx, key)
	require.NoError(t, err)
	require.NoError(t, s.SaveForecastGrid(ctx, run.ID, 3, want))

	// Pending runs are invisible.
	_, err = s.LatestRun(ctx)
	require.ErrorIs(t, err, ports.ErrGridNotFound)
	_, err = s.ForecastGrid(ctx, key)
	require.ErrorIs(t, err, ports.ErrGridNotFound)

	require.NoError(t, s.CompleteRun(ctx, run.ID))
	assert.Error(t, s.CompleteRun(ctx, "nope"))

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, run.Forecast, latest)

	got, err := s.ForecastGrid(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want.Snapshot(), got.Snapshot())

	_, err = s.ForecastGrid(ctx, forecastKey(grid.ParameterWaves, 3))
	assert.ErrorIs(t, err, ports.ErrGridNotFound)
	_, err = s.ForecastGrid(ctx, forecastKey(grid.ParameterWind, 6))
	assert.ErrorIs(t, err, ports.ErrGridNotFound)

	older := run
	older.ID = "run-0"
	older.Forecast.RunTime = runTime.Add(-6 * time.Hour)
	require.NoError(t, s.CreateRun(ctx, older))
	require.NoError(t, s.CompleteRun(ctx, older.ID))
	latest, err = s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, runTime, latest.RunTime)
}

func testClimatology(t *testing.T, driver string) {
	s := openStore(t, driver)
	ctx := context.Background()
	synth := forecast.NewSynthetic(clock.RealClock{}, 3, 240)

	key := grid.Key{
		Source:     grid.SourceClimatology,
		Parameter:  grid.ParameterWaves,
		BBox:       box,
		Resolution: 1,
		Time:       time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC),
	}
	want, err := synth.ClimatologyGrid(ctx, key)
	require.NoError(t, err)
	require.NoError(t, s.SaveClimatologyGrid(ctx, want))
	require.NoError(t, s.SaveClimatologyGrid(ctx, want))

	got, err := s.ClimatologyGrid(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, want.Snapshot(), got.Snapshot())

	key.Time = key.Time.AddDate(0, 0, 1)
	_, err = s.ClimatologyGrid(ctx, key)
	assert.ErrorIs(t, err, ports.ErrGridNotFound)
}

func TestSqliteGridStore(t *testing.T) { testStore(t, db.DriverSQLite) }
func TestSqliteClimatology(t *testing.T) { testClimatology(t, db.DriverSQLite) }
func TestPostgresGridStore(t *testing.T) { testStore(t, db.DriverPostgres) }
func TestPostgresClimatology(t *testing.T) { testClimatology(t, db.DriverPostgres) }

func TestCreateRunValidates(t *testing.T) {
	s := openStore(t, db.DriverSQLite)
	err := s.CreateRun(context.Background(), Run{ID: "x", Forecast: ports.ForecastRun{RunTime: runTime}})
	assert.Error(t, err)
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(nil, "oracle")
	assert.Error(t, err)
}
