package grabcache

import "sync"

// usedIndex is the used-by-key set: a plain Go map keyed directly by K
// rather than the ordered-set-with-comparator the source used, since the
// source's requirement was only ever "lookup by key" (the spec explicitly
// calls out "key hash" as a recognized type parameter) — a map gives O(1)
// average lookup directly, so K here is constrained to comparable instead
// of carrying a Less method or injected comparator.
//
// Guarded by its own mutex. lookup's plain Get path takes only this
// mutex; a region's promotion/demotion (onSharedValueCreate,
// onValueDelete) takes it nested inside both the global and per-region
// mutexes, so it is always innermost, never held together with either
// of the other two in reverse order.
type usedIndex[K comparable, V any] struct {
	mu    sync.Mutex
	byKey map[K]*regionMetadata[K, V]
}

func newUsedIndex[K comparable, V any]() *usedIndex[K, V] {
	return &usedIndex[K, V]{byKey: make(map[K]*regionMetadata[K, V])}
}

func (u *usedIndex[K, V]) get(key K) (*regionMetadata[K, V], bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	r, ok := u.byKey[key]
	return r, ok
}

func (u *usedIndex[K, V]) insert(r *regionMetadata[K, V]) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.byKey[r.key] = r
}

func (u *usedIndex[K, V]) remove(r *regionMetadata[K, V]) {
	u.mu.Lock()
	defer u.mu.Unlock()

	delete(u.byKey, r.key)
}

func (u *usedIndex[K, V]) len() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return len(u.byKey)
}
