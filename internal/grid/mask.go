package grid

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// OceanMask marks grid cells as ocean or land. It may use a different
// (usually finer) resolution than the weather grids it is attached to.
type OceanMask struct {
	lats  []float64
	lons  []float64
	ocean [][]bool
}

func NewOceanMask(lats, lons []float64, ocean [][]bool) (*OceanMask, error) {
	if err := checkAxis("mask lats", lats); err != nil {
		return nil, fmt.Errorf("new ocean mask: %w", err)
	}
	if err := checkAxis("mask lons", lons); err != nil {
		return nil, fmt.Errorf("new ocean mask: %w", err)
	}
	if len(ocean) != len(lats) {
		return nil, errors.New("new ocean mask: row count does not match lats")
	}
	rows := make([][]bool, len(ocean))
	for i, row := range ocean {
		if len(row) != len(lons) {
			return nil, fmt.Errorf("new ocean mask: row %d has %d columns, want %d", i, len(row), len(lons))
		}
		rows[i] = slices.Clone(row)
	}
	return &OceanMask{lats: slices.Clone(lats), lons: slices.Clone(lons), ocean: rows}, nil
}

// IsOcean looks up the nearest mask cell. Points beyond the mask extent are
// treated as ocean since the mask has nothing to say about them.
func (m *OceanMask) IsOcean(lat, lon float64) bool {
	lon = wrapLon(m.lons, lon)
	if lat < m.lats[0] || lat > m.lats[len(m.lats)-1] || lon < m.lons[0] || lon > m.lons[len(m.lons)-1] {
		return true
	}
	return m.ocean[nearest(m.lats, lat)][nearest(m.lons, lon)]
}

// Share of ocean cells, mostly useful in logs.
func (m *OceanMask) OceanFraction() float64 {
	total, wet := 0, 0
	for _, row := range m.ocean {
		for _, o := range row {
			total++
			if o {
				wet++
			}
		}
	}
	return float64(wet) / float64(total)
}

func nearest(axis []float64, x float64) int {
	i := sort.SearchFloat64s(axis, x)
	if i == 0 {
		return 0
	}
	if i == len(axis) {
		return len(axis) - 1
	}
	if x-axis[i-1] <= axis[i]-x {
		return i - 1
	}
	return i
}
