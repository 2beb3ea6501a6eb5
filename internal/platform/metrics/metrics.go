// Package metrics defines the Prometheus collectors exported by the service.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voyage"

type Collector struct {
	VoyageCalculations *prometheus.CounterVec
	SearchOutcomes     *prometheus.CounterVec
	SearchExpansions   *prometheus.HistogramVec
	SearchDuration     *prometheus.HistogramVec
	GridCacheRequests  *prometheus.CounterVec
}

// New builds the collectors and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		VoyageCalculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Voyage simulations by result.",
		}, []string{"result"}),
		SearchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "outcomes_total",
			Help:      "Route searches by algorithm, weighting and final state.",
		}, []string{"algorithm", "weighting", "outcome"}),
		SearchExpansions: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "expanded_nodes",
			Help:      "Nodes expanded per route search.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}, []string{"algorithm", "weighting"}),
		SearchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Wall-clock time per route search.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"algorithm", "weighting"}),
		GridCacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "grid_cache",
			Name:      "requests_total",
			Help:      "Weather grid cache lookups by result (hit, store_hit, miss, shared, error).",
		}, []string{"result"}),
	}

	if reg != nil {
		reg.MustRegister(
			c.VoyageCalculations,
			c.SearchOutcomes,
			c.SearchExpansions,
			c.SearchDuration,
			c.GridCacheRequests,
		)
	}
	return c
}

func (c *Collector) Voyage(result string) {
	if c == nil {
		return
	}
	c.VoyageCalculations.WithLabelValues(result).Inc()
}

func (c *Collector) Search(algorithm, weighting, outcome string, expanded int, dur time.Duration) {
	if c == nil {
		return
	}
	c.SearchOutcomes.WithLabelValues(algorithm, weighting, outcome).Inc()
	c.SearchExpansions.WithLabelValues(algorithm, weighting).Observe(float64(expanded))
	c.SearchDuration.WithLabelValues(algorithm, weighting).Observe(dur.Seconds())
}

func (c *Collector) GridCache(result string) {
	if c == nil {
		return
	}
	c.GridCacheRequests.WithLabelValues(result).Inc()
}
