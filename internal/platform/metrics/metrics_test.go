package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.Voyage("ok")
	c.Voyage("ok")
	c.GridCache("hit")
	c.Search("astar", "fuel", "succeeded", 120, 50*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.VoyageCalculations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.GridCacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SearchOutcomes.WithLabelValues("astar", "fuel", "succeeded")))

	n, err := testutil.GatherAndCount(reg, "voyage_search_expanded_nodes")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Voyage("ok")
		c.GridCache("miss")
		c.Search("visir", "safety", "exhausted", 0, time.Second)
	})
}
