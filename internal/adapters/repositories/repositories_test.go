package repositories

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"voyage-routing-service/internal/platform/db"
	"voyage-routing-service/internal/ports"
	"voyage-routing-service/internal/vessel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, InitSchema(conn, db.DriverSQLite))
	return conn
}

// Postgres tests need a scratch database.
func openPostgres(t *testing.T) *sql.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	conn, err := db.OpenPostgres(url)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, InitSchema(conn, db.DriverPostgres))
	_, err = conn.Exec(`DELETE FROM vessel_calibration`)
	require.NoError(t, err)
	return conn
}

func testCalibrationRepository(t *testing.T, repo ports.CalibrationRepository) {
	ctx := context.Background()

	_, ok, err := repo.GetCalibration(ctx, "MT-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SaveCalibration(ctx, "MT-1", vessel.Calibration{HullFouling: 1.2, SFOC: 1.05}))
	got, ok, err := repo.GetCalibration(ctx, "MT-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vessel.Calibration{HullFouling: 1.2, Wind: 1, Waves: 1, SFOC: 1.05}, got)

	require.NoError(t, repo.SaveCalibration(ctx, "MT-1", vessel.Calibration{HullFouling: 1.4}))
	got, _, err = repo.GetCalibration(ctx, "MT-1")
	require.NoError(t, err)
	assert.InDelta(t, 1.4, got.HullFouling, 1e-12)
	assert.InDelta(t, 1, got.SFOC, 1e-12)

	assert.Error(t, repo.SaveCalibration(ctx, "MT-1", vessel.Calibration{Wind: 4}))
	assert.Error(t, repo.SaveCalibration(ctx, "", vessel.DefaultCalibration()))
}

func TestSqliteCalibrationRepository(t *testing.T) {
	testCalibrationRepository(t, NewSqliteCalibrationRepository(openSQLite(t)))
}

func TestSQLCalibrationRepository(t *testing.T) {
	testCalibrationRepository(t, NewSQLCalibrationRepository(openPostgres(t)))
}

func TestNewCalibrationRepositoryByDriver(t *testing.T) {
	repo, err := NewCalibrationRepository(nil, db.DriverSQLite)
	require.NoError(t, err)
	assert.IsType(t, &SqliteCalibrationRepository{}, repo)

	repo, err = NewCalibrationRepository(nil, db.DriverPostgres)
	require.NoError(t, err)
	assert.IsType(t, &SQLCalibrationRepository{}, repo)

	_, err = NewCalibrationRepository(nil, "mysql")
	assert.Error(t, err)
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	conn := openSQLite(t)
	assert.NoError(t, InitSchema(conn, db.DriverSQLite))
	assert.Error(t, InitSchema(conn, "mysql"))
	assert.Error(t, InitSchema(nil, db.DriverSQLite))
}

func TestSeedCalibrationFromJSON(t *testing.T) {
	repo := NewSqliteCalibrationRepository(openSQLite(t))
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`[
		{"vessel_id": "MT-1", "hull_fouling": 1.1},
		{"vessel_id": "MT-2", "wind": 1.3, "waves": 0.9}
	]`), 0o600))

	n, err := SeedCalibrationFromJSON(context.Background(), repo, good)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, ok, err := repo.GetCalibration(context.Background(), "MT-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 1.3, got.Wind, 1e-12)
	assert.InDelta(t, 0.9, got.Waves, 1e-12)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"vessel_id": "MT-3", "sfoc": 9}]`), 0o600))
	_, err = SeedCalibrationFromJSON(context.Background(), repo, bad)
	assert.Error(t, err)
	_, ok, err = repo.GetCalibration(context.Background(), "MT-3")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = SeedCalibrationFromJSON(context.Background(), repo, filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
