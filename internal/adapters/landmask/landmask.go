// Package landmask rasterises land polygons from an ESRI shapefile into an
// ocean mask.
package landmask

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/grid"

	"github.com/jonas-p/go-shp"
	"github.com/rs/zerolog/log"
)

// Ring of polygon vertices as lon/lat pairs.
type ring []shp.Point

// polygon is one shapefile record. Inner rings (lakes, holes) are handled
// with the even-odd rule together with the outer ring.
type polygon struct {
	rings []ring
	box   shp.Box
}

// Load reads every polygon in the shapefile at path and marks the mask
// points that fall inside any of them as land. The mask covers area
// at the given resolution in degrees; records of other shape types are
// skipped.
func Load(path string, area domain.BBox, resolution float64) (*grid.OceanMask, error) {
	if !(resolution > 0) {
		return nil, fmt.Errorf("load land mask: resolution %v must be positive", resolution)
	}
	if area.LatMax <= area.LatMin || area.LonMax <= area.LonMin {
		return nil, fmt.Errorf("load land mask: empty area %s", area)
	}

	polys, err := readPolygons(path)
	if err != nil {
		return nil, fmt.Errorf("load land mask: %w", err)
	}
	m, err := rasterize(polys, area, resolution)
	if err != nil {
		return nil, fmt.Errorf("load land mask: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("polygons", len(polys)).
		Float64("resolution", resolution).
		Float64("ocean_fraction", m.OceanFraction()).
		Msg("land mask loaded")
	return m, nil
}

func readPolygons(path string) ([]polygon, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	var out []polygon
	for r.Next() {
		_, s := r.Shape()
		p, ok := s.(*shp.Polygon)
		if !ok || len(p.Points) == 0 {
			continue
		}
		out = append(out, polygon{rings: splitParts(p), box: p.BBox()})
	}
	if len(out) == 0 {
		return nil, errors.New("shapefile holds no polygons")
	}
	return out, nil
}

func splitParts(p *shp.Polygon) []ring {
	rings := make([]ring, 0, len(p.Parts))
	for i := range p.Parts {
		start := int(p.Parts[i])
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}
		if end-start >= 3 {
			rings = append(rings, ring(p.Points[start:end]))
		}
	}
	return rings
}

// rasterize builds the mask by scanning each row of mask points and filling
// between successive polygon edge crossings.
func rasterize(polys []polygon, area domain.BBox, resolution float64) (*grid.OceanMask, error) {
	lats := axis(area.LatMin, area.LatMax, resolution)
	lons := axis(area.LonMin, area.LonMax, resolution)

	ocean := make([][]bool, len(lats))
	for i := range ocean {
		row := make([]bool, len(lons))
		for j := range row {
			row[j] = true
		}
		ocean[i] = row
	}

	var xs []float64
	for i, lat := range lats {
		for _, p := range polys {
			if lat < p.box.MinY || lat > p.box.MaxY {
				continue
			}
			xs = crossings(xs[:0], p.rings, lat)
			for k := 0; k+1 < len(xs); k += 2 {
				fill(ocean[i], lons, xs[k], xs[k+1])
			}
		}
	}
	return grid.NewOceanMask(lats, lons, ocean)
}

// crossings appends the longitudes where the horizontal line at lat crosses
// any ring edge, sorted ascending.
func crossings(xs []float64, rings []ring, lat float64) []float64 {
	for _, r := range rings {
		n := len(r)
		for k := 0; k < n; k++ {
			a, b := r[k], r[(k+1)%n]
			// Half-open rule so shared vertices are counted once.
			if (a.Y <= lat) == (b.Y <= lat) {
				continue
			}
			xs = append(xs, a.X+(lat-a.Y)*(b.X-a.X)/(b.Y-a.Y))
		}
	}
	sort.Float64s(xs)
	return xs
}

func fill(row []bool, lons []float64, x0, x1 float64) {
	j := sort.SearchFloat64s(lons, x0)
	for ; j < len(lons) && lons[j] <= x1; j++ {
		row[j] = false
	}
}

// Points from lo to hi inclusive, at least two.
func axis(lo, hi, step float64) []float64 {
	n := max(2, int(math.Round((hi-lo)/step))+1)
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
