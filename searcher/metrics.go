package searcher

import (
	"sync/atomic"
	"time"
)

// SearchMetric summarizes one FindBestMove call.
type SearchMetric struct {
	Trees        int           // independent trees searched
	Iterations   int           // iterations completed across all trees
	FullPlayouts int           // rollouts played by the policy to a terminal state
	Duration     time.Duration // wall time of the whole search
	TreeReused   bool          // root shifted into the previous tree instead of starting fresh
}

// collector gathers counters that parallel trees update concurrently.
type collector struct {
	trees        int
	start        time.Time
	iterations   atomic.Int64
	fullPlayouts atomic.Int64
	reused       bool
}

func newCollector(trees int, reused bool) *collector {
	return &collector{trees: trees, start: time.Now(), reused: reused}
}

func (c *collector) addIteration() {
	c.iterations.Add(1)
}

func (c *collector) addFullPlayout() {
	c.fullPlayouts.Add(1)
}

func (c *collector) complete() SearchMetric {
	return SearchMetric{
		Trees:        c.trees,
		Iterations:   int(c.iterations.Load()),
		FullPlayouts: int(c.fullPlayouts.Load()),
		Duration:     time.Since(c.start),
		TreeReused:   c.reused,
	}
}
