package routing

import (
	"fmt"
	"math"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/geo"
)

// Land reports whether a point is at sea. *grid.OceanMask satisfies it.
type Land interface {
	IsOcean(lat, lon float64) bool
}

// Graph is a regular lat/lon lattice over the start/goal box grown by a
// margin, plus the start and goal themselves. Lattice node ids are
// row*cols+col; the start and goal follow them. Edges are generated on
// demand and never stored.
//
// The lattice is laid out in longitudes unwrapped from the start, so a
// crossing of the antimeridian is a contiguous band of columns. Positions
// handed out are always normalized to [-180, 180].
type Graph struct {
	bbox       domain.BBox
	resolution float64
	rows, cols int
	maxLeg     float64
	offsets    [][2]int
	land       Land

	start, goal domain.Position
}

// NewGraph builds the lattice for a start/goal pair. The resolution is
// doubled until the lattice fits within cfg.MaxNodes.
func NewGraph(cfg Config, start, goal domain.Position, land Land) (*Graph, error) {
	if err := start.Validate(); err != nil {
		return nil, fmt.Errorf("new search graph: start: %w", err)
	}
	if err := goal.Validate(); err != nil {
		return nil, fmt.Errorf("new search graph: goal: %w", err)
	}

	res := cfg.ResolutionDeg
	var bbox domain.BBox
	var rows, cols int
	for {
		bbox = latticeBox(start, goal, cfg.MarginDeg, res)
		rows = int(math.Round((bbox.LatMax-bbox.LatMin)/res)) + 1
		cols = int(math.Round((bbox.LonMax-bbox.LonMin)/res)) + 1
		if rows*cols <= cfg.MaxNodes {
			break
		}
		res *= 2
	}

	g := &Graph{
		bbox:       bbox,
		resolution: res,
		rows:       max(rows, 1),
		cols:       max(cols, 1),
		maxLeg:     cfg.maxLeg(res),
		offsets:    neighborOffsets(cfg.NeighborRadius),
		land:       land,
		start:      start,
		goal:       goal,
	}
	return g, nil
}

// Latitudes are snapped and clamped to the poles; longitudes are snapped in
// the unwrapped frame.
func latticeBox(start, goal domain.Position, margin, res float64) domain.BBox {
	b := domain.RouteBBox(start, goal).Expand(margin)
	out := b.Snap(res)
	out.LonMin = math.Floor(b.LonMin/res) * res
	out.LonMax = math.Ceil(b.LonMax/res) * res
	return out
}

// Cell offsets within radius r whose steps are not multiples of a shorter
// offset, ordered by row then column.
func neighborOffsets(r int) [][2]int {
	var out [][2]int
	for di := -r; di <= r; di++ {
		for dj := -r; dj <= r; dj++ {
			if (di == 0 && dj == 0) || gcd(abs(di), abs(dj)) != 1 {
				continue
			}
			out = append(out, [2]int{di, dj})
		}
	}
	return out
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (g *Graph) Len() int { return g.rows*g.cols + 2 }

func (g *Graph) Start() int { return g.rows * g.cols }

func (g *Graph) Goal() int { return g.rows*g.cols + 1 }

// BBox is the lattice extent in the unwrapped frame; LonMax may exceed 180.
func (g *Graph) BBox() domain.BBox { return g.bbox }

func (g *Graph) Resolution() float64 { return g.resolution }

func (g *Graph) MaxLegNM() float64 { return g.maxLeg }

func (g *Graph) Position(id int) domain.Position {
	switch id {
	case g.Start():
		return g.start
	case g.Goal():
		return g.goal
	}
	i, j := id/g.cols, id%g.cols
	return domain.Position{
		Lat: g.bbox.LatMin + float64(i)*g.resolution,
		Lon: domain.NormalizeLon(g.bbox.LonMin + float64(j)*g.resolution),
	}
}

// Neighbors lists the nodes reachable from id in one edge, in a fixed order.
// Lattice nodes on land are left out; the goal has no successors.
func (g *Graph) Neighbors(id int) []int {
	if id == g.Goal() {
		return nil
	}
	from := g.Position(id)
	var out []int

	if id == g.Start() {
		i0, j0 := g.cellOf(from)
		reach := int(math.Ceil(g.maxLeg/(g.resolution*60))) + 1
		for i := max(0, i0-reach); i <= min(g.rows-1, i0+reach); i++ {
			for j := max(0, j0-reach); j <= min(g.cols-1, j0+reach); j++ {
				n := i*g.cols + j
				if g.usable(from, n) {
					out = append(out, n)
				}
			}
		}
	} else {
		i0, j0 := id/g.cols, id%g.cols
		for _, off := range g.offsets {
			i, j := i0+off[0], j0+off[1]
			if i < 0 || i >= g.rows || j < 0 || j >= g.cols {
				continue
			}
			n := i*g.cols + j
			if g.usable(from, n) {
				out = append(out, n)
			}
		}
	}

	if geo.DistanceNM(from, g.goal) <= g.maxLeg {
		out = append(out, g.Goal())
	}
	return out
}

func (g *Graph) usable(from domain.Position, n int) bool {
	to := g.Position(n)
	if geo.DistanceNM(from, to) > g.maxLeg {
		return false
	}
	return g.land == nil || g.land.IsOcean(to.Lat, to.Lon)
}

func (g *Graph) cellOf(p domain.Position) (int, int) {
	i := int(math.Round((p.Lat - g.bbox.LatMin) / g.resolution))
	lon := domain.UnwrapLon(p.Lon, (g.bbox.LonMin+g.bbox.LonMax)/2)
	j := int(math.Round((lon - g.bbox.LonMin) / g.resolution))
	return min(max(i, 0), g.rows-1), min(max(j, 0), g.cols-1)
}

// Path converts node ids into waypoints. The start and goal keep the
// caller's waypoints; lattice nodes are named after their position. A
// lattice node sitting exactly on the start or goal is folded into it.
func (g *Graph) Path(ids []int, start, goal domain.Waypoint) []domain.Waypoint {
	out := make([]domain.Waypoint, 0, len(ids))
	for _, id := range ids {
		var wp domain.Waypoint
		switch id {
		case g.Start():
			wp = start
		case g.Goal():
			wp = goal
		default:
			p := g.Position(id)
			wp = domain.Waypoint{
				ID:       len(out) + 1,
				Name:     fmt.Sprintf("N%.2f/%.2f", p.Lat, p.Lon),
				Position: p,
			}
		}

		if n := len(out); n > 0 && out[n-1].Position == wp.Position {
			if id == g.Start() || id == g.Goal() {
				out[n-1] = wp
			}
			continue
		}
		out = append(out, wp)
	}
	return out
}
