package ports

import (
	"context"
	"errors"
	"time"
	"voyage-routing-service/internal/grid"
)

// Returned by providers when a requested grid does not exist.
var ErrGridNotFound = errors.New("weather grid not found")

// Metadata for one forecast run published by weather ingestion.
type ForecastRun struct {
	Source       string
	RunTime      time.Time
	StepHours    int
	HorizonHours int
}

// Contract for reading forecast grids produced by weather ingestion.
type ForecastProvider interface {
	// Return the most recent complete run.
	LatestRun(ctx context.Context) (ForecastRun, error)
	// Return the grid for key.Parameter valid at key.Time from the run
	// starting at key.RunTime, covering at least key.BBox.
	ForecastGrid(ctx context.Context, key grid.Key) (*grid.Grid, error)
}

// Contract for reading climatological mean grids. Only the day of year of
// key.Time is significant.
type ClimatologyProvider interface {
	ClimatologyGrid(ctx context.Context, key grid.Key) (*grid.Grid, error)
}

// Shared second-level store for built grids, keyed by grid.Key.String().
// A miss is reported as (nil, false, nil).
type GridSnapshotStore interface {
	GetGrid(ctx context.Context, key string) (*grid.Grid, bool, error)
	PutGrid(ctx context.Context, key string, g *grid.Grid) error
}
