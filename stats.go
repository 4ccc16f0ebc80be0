package grabcache

import "sync/atomic"

// Outcome classifies how a GetOrSet call was satisfied, distinguishing an
// ordinary miss from the CacheFull condition the spec calls out separately.
type Outcome int

const (
	OutcomeHit Outcome = iota
	OutcomeFresh
	OutcomeConcurrentHit
	OutcomeCacheFull
)

func (o Outcome) String() string {
	switch o {
	case OutcomeHit:
		return "hit"
	case OutcomeFresh:
		return "fresh"
	case OutcomeConcurrentHit:
		return "concurrent-hit"
	default:
		return "cache-full"
	}
}

// Stats is a point-in-time snapshot of cache counters, mirroring the shape
// of the teacher's Status/CacheStatus types but counting chunks/regions
// instead of keyspace item counts.
type Stats struct {
	Chunks        int
	Regions       int
	FreeRegions   int
	UnusedRegions int
	UsedRegions   int

	ChunksSize      int
	AllocatedSize   int
	InUseSize       int
	InitializedSize int

	Hits               int64
	Misses             int64
	ConcurrentHits     int64
	Allocations        int64
	Evictions          int64
	SecondaryEvictions int64
	EvictedBytes       int64
	AllocFailures      int64
}

// counters holds the atomic, hot-path-incremented fields; a Stats snapshot
// is materialized from these plus a walk of the live indices.
type counters struct {
	hits               atomic.Int64
	misses             atomic.Int64
	concurrentHits     atomic.Int64
	allocations        atomic.Int64
	evictions          atomic.Int64
	secondaryEvictions atomic.Int64
	evictedBytes       atomic.Int64
	allocFailures      atomic.Int64
}

func (c *counters) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.concurrentHits.Store(0)
	c.allocations.Store(0)
	c.evictions.Store(0)
	c.secondaryEvictions.Store(0)
	c.evictedBytes.Store(0)
	c.allocFailures.Store(0)
}

func (c *counters) snapshot(s *Stats) {
	s.Hits = c.hits.Load()
	s.Misses = c.misses.Load()
	s.ConcurrentHits = c.concurrentHits.Load()
	s.Allocations = c.allocations.Load()
	s.Evictions = c.evictions.Load()
	s.SecondaryEvictions = c.secondaryEvictions.Load()
	s.EvictedBytes = c.evictedBytes.Load()
	s.AllocFailures = c.allocFailures.Load()
}
