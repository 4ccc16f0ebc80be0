package grabcache

import "sync"

// Handle is a shared, reference-counted view onto a cached value. Multiple
// Handles may reference the same region; the region becomes eligible for
// eviction only once every Handle referencing it has been released,
// demoting it from Used to Unused.
type Handle[V any] struct {
	value   *V
	once    sync.Once
	release func()
}

// Value returns a pointer to the handle's referenced value. The pointer
// remains valid until Release is called, and in fact stays readable even
// after (the region is merely demoted to Unused, not wiped), but a caller
// that has released its handle has no claim on that continued validity.
func (h *Handle[V]) Value() *V { return h.value }

// Release drops this handle's reference to its region. Safe to call more
// than once or from multiple goroutines; only the first call has effect.
func (h *Handle[V]) Release() {
	h.once.Do(func() {
		if h.release != nil {
			h.release()
		}
	})
}
