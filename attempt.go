package grabcache

import "sync"

// insertionAttempt coordinates every goroutine racing a miss on the same
// key: at most one of them runs the size/init functors (the producer); the
// rest observe its result. mu serializes waiters for this key (step 2 of
// the miss protocol); waiters, guarded by the owning Cache's attemptsMu,
// counts outstanding references so the attempt can be erased from the
// attempts map once the last one is done with it.
type insertionAttempt[K comparable, V any] struct {
	mu      sync.Mutex
	key     K
	waiters int

	// region is set only on a successful production. A nil region after mu
	// has been acquired means no producer has yet succeeded: the acquiring
	// goroutine becomes the producer (or the next retrier, if a previous
	// producer failed). Concurrent waiters mint their own Handle off this
	// region rather than sharing the producer's, so each gets an
	// independent reference count and release.
	region *regionMetadata[K, V]
}

// acquireAttempt returns the attempt object for key, creating one if this
// is the first goroutine to observe a miss on it, and registers the
// caller as a waiter. The caller must eventually call disposeAttempt
// exactly once for this acquisition.
func (c *Cache[K, V]) acquireAttempt(key K) *insertionAttempt[K, V] {
	c.attemptsMu.Lock()
	defer c.attemptsMu.Unlock()

	a, ok := c.attempts[key]
	if !ok {
		a = &insertionAttempt[K, V]{key: key}
		c.attempts[key] = a
	}

	a.waiters++
	return a
}

// disposeAttempt releases this waiter's reference to a. Once the last
// waiter disposes, the attempt is erased from the attempts map; disposal
// is idempotent only with respect to this invariant (erase-once), not
// against being called twice for the same acquisition, which callers must
// not do.
func (c *Cache[K, V]) disposeAttempt(a *insertionAttempt[K, V]) {
	c.attemptsMu.Lock()
	defer c.attemptsMu.Unlock()

	a.waiters--
	if a.waiters == 0 {
		if cur, ok := c.attempts[a.key]; ok && cur == a {
			delete(c.attempts, a.key)
		}
	}
}
