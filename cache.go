package grabcache

import (
	"sync"
	"unsafe"
)

// Cache is a memory-bounded, reference-counted cache of values keyed by K.
// Payloads live in a small number of large mmap-backed chunks managed by
// an internal region allocator; key and value headers live in ordinary
// heap-allocated regionMetadata records. A zero Cache is not usable: build
// one with New.
type Cache[K comparable, V any] struct {
	cfg Config

	// mu is the global mutex: guards chunks, the all-regions list, the
	// free-by-size index, the LRU list, the unused-by-key map, the
	// value-address map and the chunk/allocation accounting fields. A
	// region's Used/Unused promotion and demotion (onSharedValueCreate,
	// onValueDelete) hold mu for the entire transition, including the
	// used.mu-guarded index update, so the two can never interleave on the
	// same region. attemptsMu is never held together with mu.
	mu         sync.Mutex
	chunks     []*chunk
	allRegions *dlist[regionMetadata[K, V]]
	free       *freeIndex[K, V]
	lru        *dlist[regionMetadata[K, V]]

	// unusedByKey lets Get resurrect a region whose last handle was
	// released without re-running the init functor, so long as it has not
	// yet been evicted. Guarded by mu, not used.mu: Unused regions are a
	// global-mutex concern, not a used-regions one.
	unusedByKey map[K]*regionMetadata[K, V]

	// valueToRegion maps a value's address back to its owning region. It is
	// kept up to date on every promotion and demotion; a Handle's release
	// closure does not consult it, since the closure captures its region.
	valueToRegion map[unsafe.Pointer]*regionMetadata[K, V]

	used *usedIndex[K, V]

	attemptsMu sync.Mutex
	attempts   map[K]*insertionAttempt[K, V]

	chunksSize      int
	allocatedSize   int
	inUseSize       int
	initializedSize int

	counters counters
	notify   *notifier
}

// New constructs a Cache. cfg is validated and given its zero-value
// defaults (see Config); New fails with an InvalidArgument error under the
// same conditions Config.Validate does.
func New[K comparable, V any](cfg Config) (*Cache[K, V], error) {
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Cache[K, V]{
		cfg:           cfg,
		allRegions:    newDList(allRegionsHook[K, V]),
		free:          newFreeIndex[K, V](),
		lru:           newDList(lruHook[K, V]),
		unusedByKey:   make(map[K]*regionMetadata[K, V]),
		valueToRegion: make(map[unsafe.Pointer]*regionMetadata[K, V]),
		used:          newUsedIndex[K, V](),
		attempts:      make(map[K]*insertionAttempt[K, V]),
		notify:        newNotifier(cfg.Notify, cfg.NotificationLevel),
	}

	return c, nil
}

// lookup finds key among the Used and not-yet-evicted Unused regions
// without touching any counter or notification, mirroring the original's
// uncounted getImpl helper: Get and GetOrSet each account for the result
// themselves, so a single logical lookup is never counted twice.
func (c *Cache[K, V]) lookup(key K) (r *regionMetadata[K, V], mayBeInUnused bool, ok bool) {
	if r, ok := c.used.get(key); ok {
		return r, false, true
	}

	c.mu.Lock()
	r, ok = c.unusedByKey[key]
	c.mu.Unlock()

	return r, true, ok
}

// Get looks a key up without running any producer. A hit against a
// currently Used region is the common path; a hit against a not-yet-
// evicted Unused region (one whose last handle was released) resurrects
// it instead of forcing the caller to reproduce it.
func (c *Cache[K, V]) Get(key K) (*Handle[V], bool) {
	r, mayBeInUnused, ok := c.lookup(key)
	if !ok {
		c.counters.misses.Add(1)
		return nil, false
	}

	h := c.onSharedValueCreate(r, mayBeInUnused)
	c.counters.hits.Add(1)
	c.notify.send(&Notification{Type: Hit, Key: key})
	return h, true
}

// GetOrSet looks key up, and on miss coordinates with any concurrent
// callers racing the same key so that sizeFn/initFn run at most once. See
// package documentation for the full miss protocol. Exactly one miss is
// counted per miss against the cache, however that miss is ultimately
// resolved (concurrent hit, fresh production, cache-full, or functor
// failure) — mirroring the original's single ++misses at entry.
func (c *Cache[K, V]) GetOrSet(key K, sizeFn func() (int, error), initFn func([]byte) (V, error)) (*Handle[V], Outcome, error) {
	if r, mayBeInUnused, ok := c.lookup(key); ok {
		h := c.onSharedValueCreate(r, mayBeInUnused)
		c.counters.hits.Add(1)
		c.notify.send(&Notification{Type: Hit, Key: key})
		return h, OutcomeHit, nil
	}

	c.counters.misses.Add(1)

	a := c.acquireAttempt(key)
	defer c.disposeAttempt(a)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.region != nil {
		h := c.onSharedValueCreate(a.region, false)
		c.counters.concurrentHits.Add(1)
		c.notify.send(&Notification{Type: ConcurrentHit, Key: key})
		return h, OutcomeConcurrentHit, nil
	}

	size, err := sizeFn()
	if err != nil {
		return nil, 0, newError(UserFunctorFailure, "size functor", err)
	}

	c.mu.Lock()
	r, ok := c.allocate(size)
	c.mu.Unlock()

	if !ok {
		c.notify.send(&Notification{Type: AllocFailed, Key: key})
		c.cfg.Logger.Warn("grabcache is full and used, failed to allocate memory", "key", key, "size", size)
		return nil, OutcomeCacheFull, nil
	}

	r.key = key

	c.mu.Lock()
	c.initializedSize += r.size
	c.mu.Unlock()

	value, err := initFn(r.payload())
	if err != nil {
		c.mu.Lock()
		c.initializedSize -= r.size
		c.freeRegion(r)
		c.mu.Unlock()

		return nil, 0, newError(UserFunctorFailure, "init functor", err)
	}

	r.value = value

	h := c.onSharedValueCreate(r, false)
	a.region = r

	c.notify.send(&Notification{Type: Miss, Key: key})

	return h, OutcomeFresh, nil
}

// onSharedValueCreate increments r's refcount, promoting it to Used and
// wiring the value-address map the first time the count leaves zero.
// mayBeInUnused must be true when r was found via unusedByKey, so the
// promotion also unlinks it from the LRU list and that map. mu and r.mu
// are held across the entire promotion, including the used-index insert,
// so a concurrent onValueDelete on the same region can never interleave
// with it.
func (c *Cache[K, V]) onSharedValueCreate(r *regionMetadata[K, V], mayBeInUnused bool) *Handle[V] {
	c.mu.Lock()
	r.mu.Lock()

	r.refCount++

	if r.refCount == 1 {
		if mayBeInUnused {
			c.lru.remove(r)
			delete(c.unusedByKey, r.key)
		}

		r.state = regionUsed
		c.valueToRegion[unsafe.Pointer(&r.value)] = r
		c.inUseSize += r.size

		c.used.insert(r)
		r.owner.liveCount.Add(1)
	}

	r.mu.Unlock()
	c.mu.Unlock()

	return &Handle[V]{value: &r.value, release: func() { c.onValueDelete(r) }}
}

// onValueDelete is a Handle's release closure: it decrements r's refcount
// and, when it reaches zero, demotes r from Used to Unused. mu and r.mu
// are held across the entire demotion, including the used-index removal,
// the mirror image of onSharedValueCreate's lock scope.
func (c *Cache[K, V]) onValueDelete(r *regionMetadata[K, V]) {
	c.mu.Lock()
	r.mu.Lock()

	r.refCount--

	if r.refCount == 0 {
		delete(c.valueToRegion, unsafe.Pointer(&r.value))
		r.state = regionUnused
		c.lru.append(r)
		c.unusedByKey[r.key] = r
		c.inUseSize -= r.size

		c.used.remove(r)
		r.owner.liveCount.Add(-1)
	}

	r.mu.Unlock()
	c.mu.Unlock()
}

// Stats returns a point-in-time snapshot of cache counters and occupancy.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s Stats
	c.counters.snapshot(&s)

	s.Chunks = len(c.chunks)
	s.ChunksSize = c.chunksSize
	s.AllocatedSize = c.allocatedSize
	s.InUseSize = c.inUseSize
	s.InitializedSize = c.initializedSize
	s.FreeRegions = c.free.len()
	s.UnusedRegions = len(c.unusedByKey)
	s.UsedRegions = c.used.len()
	s.Regions = s.FreeRegions + s.UnusedRegions + s.UsedRegions

	return s
}

// ShrinkToFit discards every pending insertion attempt and every Free or
// Unused region, then unmaps any chunk left with no Used region. Live
// handles are unaffected: their regions stay Used and are never touched
// here. If clearCounters is true, every Stats counter is reset to zero.
func (c *Cache[K, V]) ShrinkToFit(clearCounters bool) {
	c.attemptsMu.Lock()
	c.attempts = make(map[K]*insertionAttempt[K, V])
	c.attemptsMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	for r := c.allRegions.first; r != nil; {
		next := r.allRegions.next

		switch r.state {
		case regionUnused:
			delete(c.unusedByKey, r.key)
			c.lru.remove(r)
			c.allocatedSize -= r.size
			c.allRegions.remove(r)
		case regionFree:
			c.free.remove(r)
			c.allRegions.remove(r)
		}

		r = next
	}

	kept := c.chunks[:0]
	for _, ch := range c.chunks {
		if ch.liveCount.Load() != 0 {
			kept = append(kept, ch)
			continue
		}

		size := len(ch.data)
		if err := ch.release(c.cfg.Tracker); err != nil {
			kept = append(kept, ch)
			continue
		}

		c.chunksSize -= size
		c.notify.send(&Notification{Type: ChunkUnmapped, SizeChange: size})
	}
	c.chunks = kept

	if clearCounters {
		c.counters.reset()
	}
}

// Reset is currently a synonym for ShrinkToFit(true): it does not
// invalidate handles already issued. A future version that actually
// invalidates live entries would need a generation counter on Handle,
// which the spec this package follows does not call for.
func (c *Cache[K, V]) Reset() {
	c.ShrinkToFit(true)
}
