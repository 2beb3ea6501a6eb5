// Package routing searches for cheaper passages between the ends of a
// baseline route over a weather-dependent lattice graph.
package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/geo"
	"voyage-routing-service/internal/voyage"
)

// ErrUnknownAlgorithm is returned for an algorithm or weighting outside the
// supported set.
var ErrUnknownAlgorithm = errors.New("unknown search algorithm or weighting")

// Request describes one search. Start and Goal are the first and last
// waypoints of the baseline route.
type Request struct {
	Key       domain.OptimizationKey
	Start     domain.Waypoint
	Goal      domain.Waypoint
	Departure time.Time
	Settings  voyage.Settings
	Field     voyage.WeatherField
}

// Result of one search. Waypoints is nil when the search was exhausted.
// A timed-out search returns the best partial path found, ending at the
// goal when the last reached node connects to it.
type Result struct {
	Key           domain.OptimizationKey
	Outcome       domain.SearchOutcome
	Waypoints     []domain.Waypoint
	Partial       bool
	NodesExpanded int
	Duration      time.Duration
}

// Searcher runs A* and VISIR searches. It holds only immutable
// configuration and is safe for concurrent use; all search state lives in
// the individual call.
type Searcher struct {
	cfg  Config
	eval *voyage.Evaluator
	land Land
}

// land may be nil.
func NewSearcher(cfg Config, eval *voyage.Evaluator, land Land) (*Searcher, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new searcher: %w", err)
	}
	if eval == nil {
		return nil, errors.New("new searcher: evaluator is required")
	}
	return &Searcher{cfg: cfg, eval: eval, land: land}, nil
}

func (s *Searcher) Config() Config { return s.cfg }

// Search runs the algorithm named by req.Key. Exhaustion and budget
// overruns are reported through Result.Outcome; an error means the search
// could not run at all.
func (s *Searcher) Search(ctx context.Context, req Request) (*Result, error) {
	if !req.Key.Algorithm.Valid() || !req.Key.Weighting.Valid() {
		return nil, fmt.Errorf("search %s: %w", req.Key, ErrUnknownAlgorithm)
	}

	g, err := NewGraph(s.cfg, req.Start.Position, req.Goal.Position, s.land)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Key, err)
	}

	calmRate, err := s.eval.Model().CalmFuelRate(req.Settings.CalmSpeedKts, req.Settings.Laden, req.Settings.Calibration)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TimeLimit)
	defer cancel()

	r := &run{
		s:        s,
		req:      req,
		g:        g,
		ctx:      ctx,
		calmRate: calmRate,
		started:  time.Now(),
	}

	var res *Result
	switch req.Key.Algorithm {
	case domain.AlgorithmAStar:
		res, err = r.astar()
	default:
		res, err = r.visir()
	}
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", req.Key, err)
	}
	res.Key = req.Key
	res.NodesExpanded = r.expanded
	res.Duration = time.Since(r.started)
	return res, nil
}

// run is the private state of one search.
type run struct {
	s        *Searcher
	req      Request
	g        *Graph
	ctx      context.Context
	calmRate float64
	started  time.Time
	expanded int
}

// label is the best known way of reaching a node.
type label struct {
	node   int
	parent int
	cost   float64
	at     time.Time
	// Hours since departure, for ordering.
	hours float64
	// Smallest safety margin along the path; 1 means no weather at all.
	margin float64
}

// edge is one evaluated lattice edge.
type edge struct {
	cost    float64
	arrival time.Time
	margin  float64
}

var errBudget = errors.New("search budget exhausted")

// overBudget reports whether the expansion or time budget has run out.
func (r *run) overBudget() bool {
	return r.expanded >= r.s.cfg.MaxExpansions || r.ctx.Err() != nil
}

// evaluate costs the edge from a to b departing at dep. ok is false for
// edges that cannot be sailed: out of weather coverage, over land, stalled,
// or beyond the danger thresholds under the safety weighting.
func (r *run) evaluate(a, b int, dep time.Time) (e edge, ok bool, err error) {
	from := domain.Waypoint{Position: r.g.Position(a)}
	to := domain.Waypoint{Position: r.g.Position(b)}

	leg, err := r.s.eval.EvaluateLeg(r.ctx, 0, from, to, dep, r.req.Settings, r.req.Field)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrOutOfBounds), errors.Is(err, domain.ErrLandPoint), errors.Is(err, domain.ErrStalledLeg):
		return edge{}, false, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return edge{}, false, errBudget
	default:
		return edge{}, false, err
	}

	if r.s.land != nil && !r.landSafe(from.Position, to.Position) {
		return edge{}, false, nil
	}

	margin := r.s.cfg.margin(leg)
	if r.req.Key.Weighting == domain.WeightingSafety && margin < 0 {
		return edge{}, false, nil
	}

	cost := leg.FuelMT
	if r.req.Key.Weighting == domain.WeightingBalanced {
		cost += r.s.cfg.Lambda * leg.TimeHours
	}
	return edge{cost: cost, arrival: leg.ArrivalTime, margin: margin}, true, nil
}

// The midpoint must be at sea even when weather is not in use.
func (r *run) landSafe(a, b domain.Position) bool {
	m := geo.Midpoint(a, b)
	return r.s.land.IsOcean(m.Lat, m.Lon)
}

// heuristic never overestimates: the vessel cannot beat its calm speed plus
// the current allowance, and weather only raises the fuel rate.
func (r *run) heuristic(n int) float64 {
	d := geo.DistanceNM(r.g.Position(n), r.g.Position(r.g.Goal()))
	hours := d / (r.req.Settings.CalmSpeedKts + r.s.cfg.CurrentAllowanceKts)
	rate := r.calmRate
	if r.req.Key.Weighting == domain.WeightingBalanced {
		rate += r.s.cfg.Lambda
	}
	return hours * rate
}

// Follow parents back to the start.
func (r *run) path(labels map[int]*label, end int) []int {
	var ids []int
	for n := end; ; {
		ids = append(ids, n)
		l := labels[n]
		if l == nil || n == r.g.Start() {
			break
		}
		n = l.parent
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids
}

func (r *run) succeeded(labels map[int]*label) *Result {
	return &Result{
		Outcome:   domain.OutcomeSucceeded,
		Waypoints: r.g.Path(r.path(labels, r.g.Goal()), r.req.Start, r.req.Goal),
	}
}

// partial builds the best-so-far result: the path to the labelled node
// closest to the goal, continued to the goal itself when the two are
// within one edge of each other.
func (r *run) partial(labels map[int]*label) *Result {
	res := &Result{Outcome: domain.OutcomeTimedOut, Partial: true}
	best, bestD := -1, math.Inf(1)
	goal := r.g.Position(r.g.Goal())
	for n := range labels {
		d := geo.DistanceNM(r.g.Position(n), goal)
		if d < bestD || (d == bestD && n < best) {
			best, bestD = n, d
		}
	}
	if best < 0 {
		return res
	}
	ids := r.path(labels, best)
	if best != r.g.Goal() && bestD <= r.g.MaxLegNM() {
		ids = append(ids, r.g.Goal())
	}
	if wps := r.g.Path(ids, r.req.Start, r.req.Goal); len(wps) >= 2 {
		res.Waypoints = wps
	}
	return res
}

func exhausted() *Result {
	return &Result{Outcome: domain.OutcomeExhausted}
}

// extend builds the label for reaching n from cur over e.
func (r *run) extend(cur *label, n int, e edge) *label {
	return &label{
		node:   n,
		parent: cur.node,
		cost:   cur.cost + e.cost,
		at:     e.arrival,
		hours:  e.arrival.Sub(r.req.Departure).Hours(),
		margin: min(cur.margin, e.margin),
	}
}

func (r *run) startLabel() *label {
	return &label{node: r.g.Start(), parent: -1, at: r.req.Departure, margin: 1}
}
