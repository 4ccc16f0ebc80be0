package grabcache

import "sort"

// freeIndex is the free-by-size multiset: a size-ordered slice supporting
// lower_bound(size) for best-fit search. A slice scan is adequate here the
// same way the teacher's segment lookups scan small buckets directly
// (segment.go) rather than reaching for a balanced tree: chunk counts stay
// small relative to key counts, so the free list rarely grows large enough
// for O(log n) insertion to matter over O(n) with a cheap constant.
type freeIndex[K comparable, V any] struct {
	bySize []*regionMetadata[K, V]
}

func newFreeIndex[K comparable, V any]() *freeIndex[K, V] {
	return &freeIndex[K, V]{}
}

// lowerBound returns the smallest free region whose size is >= size, or nil
// if none qualifies. Ties are broken by slice position: insert places a
// region before any others of the same size, so among equal sizes the most
// recently inserted region is returned.
func (f *freeIndex[K, V]) lowerBound(size int) *regionMetadata[K, V] {
	i := sort.Search(len(f.bySize), func(i int) bool {
		return f.bySize[i].size >= size
	})

	if i == len(f.bySize) {
		return nil
	}

	return f.bySize[i]
}

// insert adds r to the index, keeping bySize sorted by size.
func (f *freeIndex[K, V]) insert(r *regionMetadata[K, V]) {
	i := sort.Search(len(f.bySize), func(i int) bool {
		return f.bySize[i].size >= r.size
	})

	f.bySize = append(f.bySize, nil)
	copy(f.bySize[i+1:], f.bySize[i:])
	f.bySize[i] = r
}

// remove erases r from the index. r must currently be linked (the caller
// is responsible for that invariant); it is a no-op if not found.
func (f *freeIndex[K, V]) remove(r *regionMetadata[K, V]) {
	for i, c := range f.bySize {
		if c == r {
			f.bySize = append(f.bySize[:i], f.bySize[i+1:]...)
			return
		}
	}
}

func (f *freeIndex[K, V]) len() int { return len(f.bySize) }
