package routing

import (
	"container/heap"
	"math"
	"voyage-routing-service/internal/domain"
	"voyage-routing-service/internal/geo"
)

// frontier orders labels by the time step they fall in, then by cost and
// node id, so that each step is swept before the next one starts.
type frontier struct {
	items []*label
	step  float64
}

func (q *frontier) bucket(l *label) int { return int(math.Floor(l.hours / q.step)) }

func (q *frontier) Len() int { return len(q.items) }

func (q *frontier) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if ba, bb := q.bucket(a), q.bucket(b); ba != bb {
		return ba < bb
	}
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	return a.node < b.node
}

func (q *frontier) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *frontier) Push(x any) { q.items = append(q.items, x.(*label)) }

func (q *frontier) Pop() any {
	n := len(q.items)
	it := q.items[n-1]
	q.items = q.items[:n-1]
	return it
}

// visir advances an isochrone frontier in fixed time steps. Every label
// reached within a step is propagated one edge further; each node keeps
// only its lowest-cost label, and a node whose label improves is
// propagated again. The search stops at the end of the first step in which
// the goal has been reached.
func (r *run) visir() (*Result, error) {
	start := r.g.Start()
	labels := map[int]*label{start: r.startLabel()}
	safety := r.req.Key.Weighting == domain.WeightingSafety

	q := &frontier{step: r.s.cfg.VisirStepHours}
	heap.Push(q, labels[start])
	maxSteps := r.maxVisirSteps()

	for q.Len() > 0 {
		cur := heap.Pop(q).(*label)
		step := q.bucket(cur)

		if _, reached := labels[r.g.Goal()]; reached {
			goalStep := q.bucket(labels[r.g.Goal()])
			if step > goalStep {
				return r.succeeded(labels), nil
			}
		}
		if labels[cur.node] != cur || cur.node == r.g.Goal() {
			continue
		}
		if step >= maxSteps || r.overBudget() {
			return r.partial(labels), nil
		}
		r.expanded++

		for _, n := range r.g.Neighbors(cur.node) {
			e, ok, err := r.evaluate(cur.node, n, cur.at)
			if err == errBudget {
				return r.partial(labels), nil
			}
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}

			next := r.extend(cur, n, e)
			if old := labels[n]; old != nil && !better(next, old, safety) {
				continue
			}
			if r.onPath(labels, cur.node, n) {
				continue
			}
			labels[n] = next
			heap.Push(q, next)
		}
	}

	if _, reached := labels[r.g.Goal()]; reached {
		return r.succeeded(labels), nil
	}
	return exhausted(), nil
}

// onPath reports whether n already lies on the path ending at tail, which
// would turn the parent chain into a loop.
func (r *run) onPath(labels map[int]*label, tail, n int) bool {
	for m := tail; m >= 0; {
		if m == n {
			return true
		}
		l := labels[m]
		if l == nil {
			return false
		}
		m = l.parent
	}
	return false
}

// Three times the direct passage at calm speed when not configured.
func (r *run) maxVisirSteps() int {
	if r.s.cfg.MaxVisirSteps > 0 {
		return r.s.cfg.MaxVisirSteps
	}
	d := geo.DistanceNM(r.g.Position(r.g.Start()), r.g.Position(r.g.Goal()))
	hours := 3 * d / r.req.Settings.CalmSpeedKts
	return int(math.Ceil(hours/r.s.cfg.VisirStepHours)) + 2
}
