package grabcache

import "sync"

// regionState records which of the three index groups a regionMetadata
// currently belongs to, on top of its always-present all-regions linkage.
// The transition functions set it as they move a region between indices;
// coalescing and secondary eviction read a neighbor's state, ShrinkToFit
// switches on it, and tests assert on it.
type regionState int

const (
	regionFree regionState = iota
	regionUnused
	regionUsed
)

func (s regionState) String() string {
	switch s {
	case regionFree:
		return "free"
	case regionUsed:
		return "used"
	default:
		return "unused"
	}
}

// regionMetadata is the heap-allocated header for one contiguous span of a
// chunk: the unit of allocation. It is always linked into the all-regions
// list (ordered by address within its chunk, for neighbor lookup during
// coalescing) and, depending on state, into exactly one of the free-by-size
// index, the used-by-key map or the LRU list — Unused regions are linked
// into both all-regions and LRU simultaneously, which is why list.go's
// dlist is generalized over a hook selector rather than requiring a type to
// implement a single fixed interface.
type regionMetadata[K comparable, V any] struct {
	owner *chunk

	// off and size describe the span within owner.data this region covers.
	off, size int

	state regionState

	// key and value are populated once the region transitions out of Free.
	// value is stored in the header itself; the chunk span backing it holds
	// only the indirected payload (e.g. a slice's backing array), per the
	// data model.
	key   K
	value V

	// mu guards refCount transitions (onSharedValueCreate/onValueDelete),
	// held together with the owning Cache's global mutex for the whole
	// promotion/demotion, used-regions index update included.
	mu       sync.Mutex
	refCount int

	allRegions link[regionMetadata[K, V]]
	lru        link[regionMetadata[K, V]]
}

func allRegionsHook[K comparable, V any](r *regionMetadata[K, V]) *link[regionMetadata[K, V]] {
	return &r.allRegions
}

func lruHook[K comparable, V any](r *regionMetadata[K, V]) *link[regionMetadata[K, V]] {
	return &r.lru
}

// payload returns the byte span of the chunk this region covers.
func (r *regionMetadata[K, V]) payload() []byte {
	return r.owner.data[r.off : r.off+r.size]
}

// valueAddr returns a pointer to the region header itself, an identity
// that differs for every region. It is not the key of the cache's value ->
// region map, which is keyed by the address of the region's value field.
func (r *regionMetadata[K, V]) valueAddr() *regionMetadata[K, V] {
	return r
}
