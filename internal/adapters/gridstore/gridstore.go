// Package gridstore keeps ingested forecast runs and climatology grids in a
// SQL database and serves them through the weather provider ports.
//
// Grids are stored whole as compressed blobs, one row per run, forecast
// hour and parameter. A run becomes visible to readers only once it is
// marked complete, so a half-ingested run never shadows the previous one.
package gridstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/grid"
	"voyage-routing-service/internal/platform/blob"
	"voyage-routing-service/internal/platform/db"
	"voyage-routing-service/internal/ports"
)

// Run status values.
const (
	StatusPending  = "pending"
	StatusComplete = "complete"
)

// Store reads and writes weather grids in one SQL dialect.
type Store interface {
	ports.ForecastProvider
	ports.ClimatologyProvider

	CreateRun(ctx context.Context, run Run) error
	SaveForecastGrid(ctx context.Context, runID string, hour int, g *grid.Grid) error
	CompleteRun(ctx context.Context, runID string) error
	SaveClimatologyGrid(ctx context.Context, g *grid.Grid) error
}

// New picks the implementation for driver.
func New(conn *sql.DB, driver string) (Store, error) {
	switch driver {
	case db.DriverPostgres:
		return NewSQLGridStore(conn), nil
	case db.DriverSQLite:
		return NewSqliteGridStore(conn), nil
	default:
		return nil, fmt.Errorf("grid store: unsupported driver %q", driver)
	}
}

// Run describes one ingested forecast run.
type Run struct {
	ID             string
	Forecast       ports.ForecastRun
	GridResolution float64
	BBox           domain.BBox
}

func (r Run) validate() error {
	switch {
	case r.ID == "":
		return errors.New("run id is empty")
	case r.Forecast.RunTime.IsZero():
		return errors.New("run time is zero")
	case r.Forecast.StepHours <= 0 || r.Forecast.HorizonHours <= 0:
		return fmt.Errorf("step %dh and horizon %dh must be positive", r.Forecast.StepHours, r.Forecast.HorizonHours)
	}
	return nil
}

func encode(g *grid.Grid) (payload []byte, rows, cols int, err error) {
	if g == nil {
		return nil, 0, 0, errors.New("grid is nil")
	}
	payload, err = blob.EncodeGrid(g)
	if err != nil {
		return nil, 0, 0, err
	}
	rows, cols = g.Shape()
	return payload, rows, cols, nil
}

func decode(payload []byte, rows, cols int) (*grid.Grid, error) {
	g, err := blob.DecodeGrid(payload)
	if err != nil {
		return nil, err
	}
	if r, c := g.Shape(); r != rows || c != cols {
		return nil, fmt.Errorf("stored shape %dx%d does not match payload %dx%d", rows, cols, r, c)
	}
	return g, nil
}

func dayOfYear(t time.Time) int { return t.UTC().YearDay() }
