package grid

import (
	"fmt"
	"time"
)

// Snapshot is the serialisable form of a Grid used by the storage and
// cache adapters. Field arrays may hold NaN for cells without data. The
// ocean mask is not part of it.
type Snapshot struct {
	Parameter Parameter
	Time      time.Time
	Lats      []float64
	Lons      []float64
	Fields    map[Field][][]float64
}

func (g *Grid) Snapshot() Snapshot {
	return Snapshot{
		Parameter: g.parameter,
		Time:      g.time,
		Lats:      g.lats,
		Lons:      g.lons,
		Fields:    g.fields,
	}
}

func FromSnapshot(s Snapshot) (*Grid, error) {
	g, err := New(s.Parameter, s.Time, s.Lats, s.Lons, s.Fields)
	if err != nil {
		return nil, fmt.Errorf("grid from snapshot: %w", err)
	}
	return g, nil
}
