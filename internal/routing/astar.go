package routing

import (
	"container/heap"
	"voyage-routing-service/internal/domain"
)

type entry struct {
	label *label
	f     float64
}

// openSet orders by f, then (for the safety weighting) by the larger
// safety margin, then by earlier arrival, then by node id.
type openSet struct {
	items  []entry
	safety bool
}

func (o *openSet) Len() int { return len(o.items) }

func (o *openSet) Less(i, j int) bool {
	a, b := o.items[i], o.items[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if o.safety && a.label.margin != b.label.margin {
		return a.label.margin > b.label.margin
	}
	if a.label.hours != b.label.hours {
		return a.label.hours < b.label.hours
	}
	return a.label.node < b.label.node
}

func (o *openSet) Swap(i, j int) { o.items[i], o.items[j] = o.items[j], o.items[i] }

func (o *openSet) Push(x any) { o.items = append(o.items, x.(entry)) }

func (o *openSet) Pop() any {
	n := len(o.items)
	it := o.items[n-1]
	o.items = o.items[:n-1]
	return it
}

// astar expands nodes in order of accumulated cost plus the heuristic.
// Edge costs depend on the time a node is reached, so a node is expanded
// once, at the first label popped for it.
func (r *run) astar() (*Result, error) {
	start := r.g.Start()
	labels := map[int]*label{start: r.startLabel()}
	closed := make(map[int]bool)

	open := &openSet{safety: r.req.Key.Weighting == domain.WeightingSafety}
	heap.Push(open, entry{label: labels[start], f: r.heuristic(start)})

	for open.Len() > 0 {
		cur := heap.Pop(open).(entry).label
		if closed[cur.node] || labels[cur.node] != cur {
			continue
		}
		if cur.node == r.g.Goal() {
			return r.succeeded(labels), nil
		}
		if r.overBudget() {
			return r.partial(labels), nil
		}
		closed[cur.node] = true
		r.expanded++

		for _, n := range r.g.Neighbors(cur.node) {
			if closed[n] {
				continue
			}
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
			if old := labels[n]; old != nil && !better(next, old, open.safety) {
				continue
			}
			labels[n] = next
			heap.Push(open, entry{label: next, f: next.cost + r.heuristic(n)})
		}
	}
	return exhausted(), nil
}

// better compares two labels for the same node.
func better(a, b *label, safety bool) bool {
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if safety && a.margin != b.margin {
		return a.margin > b.margin
	}
	return a.hours < b.hours
}
