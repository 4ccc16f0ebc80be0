package grabcache

// allocate produces a region of exactly size bytes (after alignment
// rounding), trying in order: best-fit from the free list, a freshly
// mapped chunk, or eviction. Must be called with c.mu held. The returned
// region is unlinked from every index and already accounted for in
// allocatedSize; ok is false if none of the three strategies succeeded:
// the cache is full, or mapping a new chunk failed.
func (c *Cache[K, V]) allocate(size int) (r *regionMetadata[K, V], ok bool) {
	if size <= 0 {
		return nil, false
	}

	size = roundUp(size, c.cfg.ValueAlignment)

	donor := c.free.lowerBound(size)

	if donor != nil {
		c.free.remove(donor)
	} else if req := maxInt(roundUpPage(size), c.cfg.MinChunkSize); c.chunksSize+req <= c.cfg.CapBytes {
		d, err := c.addChunk(req)
		if err != nil {
			c.counters.allocFailures.Add(1)
			c.cfg.Logger.Warn("grabcache failed to map a new chunk", "requested", req, "err", err)
			return nil, false
		}

		donor = d
		c.free.remove(donor)
	} else {
		donor = c.evictUntil(size)
		if donor == nil {
			c.counters.allocFailures.Add(1)
			c.cfg.Logger.Warn("grabcache is full and used, failed to allocate memory", "size", size)
			return nil, false
		}
	}

	r = c.split(donor, size)
	c.allocatedSize += r.size
	c.counters.allocations.Add(1)

	return r, true
}

// addChunk maps a new chunk of exactly size bytes (already page- and
// MinChunkSize-rounded by the caller) and inserts a single Free region
// spanning it.
func (c *Cache[K, V]) addChunk(size int) (*regionMetadata[K, V], error) {
	ch, err := newChunk(size, c.cfg.Tracker, c.cfg.ASLR, c.cfg.Logger)
	if err != nil {
		return nil, err
	}

	c.chunks = append(c.chunks, ch)
	c.chunksSize += size

	r := &regionMetadata[K, V]{owner: ch, off: 0, size: size, state: regionFree}
	c.allRegions.append(r)
	c.free.insert(r)

	c.notify.send(&Notification{Type: ChunkMapped, SizeChange: size})

	return r, nil
}

// split carves exactly size bytes off the front of donor, which must
// already be unlinked from free-by-size. If donor's whole span is
// consumed it is reused as the returned region; otherwise a new record
// describes the carved-off head and donor shrinks in place to describe
// the remainder, reinserted into free-by-size.
func (c *Cache[K, V]) split(donor *regionMetadata[K, V], size int) *regionMetadata[K, V] {
	if donor.size == size {
		donor.state = regionUsed
		return donor
	}

	head := &regionMetadata[K, V]{owner: donor.owner, off: donor.off, size: size, state: regionUsed}

	donor.off += size
	donor.size -= size

	c.allRegions.insert(head, donor)
	c.free.insert(donor)

	return head
}

// freeAndCoalesce absorbs any Free neighbors of r — which must already be
// marked Free and unlinked from every index — within the same chunk,
// merging their bytes into r and discarding their metadata records. It
// does not reinsert r into free-by-size: callers decide whether r is at
// rest (and should be inserted) or is about to absorb more neighbors
// (secondary eviction).
func (c *Cache[K, V]) freeAndCoalesce(r *regionMetadata[K, V]) *regionMetadata[K, V] {
	if prev := r.allRegions.prev; prev != nil && prev.owner == r.owner && prev.state == regionFree {
		c.free.remove(prev)
		c.allRegions.remove(prev)
		r.off = prev.off
		r.size += prev.size
	}

	if next := r.allRegions.next; next != nil && next.owner == r.owner && next.state == regionFree {
		c.free.remove(next)
		c.allRegions.remove(next)
		r.size += next.size
	}

	return r
}

// freeRegion transitions r — currently unlinked from every index, in
// state Used or Unused — back to Free, coalesces it with any Free
// neighbors, and inserts the result into free-by-size. Used for the
// init-functor-failure rollback path, where a region was just allocated
// but never got as far as being issued a handle.
func (c *Cache[K, V]) freeRegion(r *regionMetadata[K, V]) {
	c.allocatedSize -= r.size
	r.state = regionFree

	merged := c.freeAndCoalesce(r)
	c.free.insert(merged)
}

// evictUntil evicts Unused regions, LRU front first, until a coalesced Free
// region of at least size bytes is produced, returning it unlinked from
// every index. Each LRU victim is followed by secondary eviction of its
// Unused neighbors in the same chunk; when that chain reaches a chunk
// boundary or a non-Unused neighbor before size is met, the merged region
// goes back into free-by-size and the next LRU front is evicted. Returns
// nil once no Unused regions remain and size is still not met.
func (c *Cache[K, V]) evictUntil(size int) *regionMetadata[K, V] {
	for victim := c.lru.first; victim != nil; victim = c.lru.first {
		victimKey, victimSize := victim.key, victim.size
		c.evictOne(victim)
		c.notify.send(&Notification{Type: Eviction, Key: victimKey, SizeChange: victimSize})
		merged := c.freeAndCoalesce(victim)

		for merged.size < size {
			neighbor := adjacentUnused(merged)
			if neighbor == nil {
				break
			}

			neighborKey, neighborSize := neighbor.key, neighbor.size
			c.evictOne(neighbor)
			c.counters.secondaryEvictions.Add(1)
			c.notify.send(&Notification{Type: SecondaryEviction, Key: neighborKey, SizeChange: neighborSize})

			// Absorb the evicted neighbor, then any Free region beyond it.
			c.allRegions.remove(neighbor)
			merged.size += neighbor.size
			merged = c.freeAndCoalesce(merged)
		}

		if merged.size >= size {
			return merged
		}

		c.free.insert(merged)
	}

	return nil
}

// evictOne unlinks r (currently Unused) from the LRU list and the
// unused-by-key map, and accounts for its eviction. The caller is
// responsible for transitioning r to Free and coalescing it.
func (c *Cache[K, V]) evictOne(r *regionMetadata[K, V]) {
	c.lru.remove(r)
	delete(c.unusedByKey, r.key)

	c.allocatedSize -= r.size
	c.counters.evictions.Add(1)
	c.counters.evictedBytes.Add(int64(r.size))

	r.state = regionFree
}

// adjacentUnused returns r's neighbor to the right in the all-regions
// list if it is Unused and in the same chunk, or nil at a chunk boundary
// or if that neighbor is not Unused. Secondary eviction only ever
// advances rightward, never back over regions it has already passed.
func adjacentUnused[K comparable, V any](r *regionMetadata[K, V]) *regionMetadata[K, V] {
	if next := r.allRegions.next; next != nil && next.owner == r.owner && next.state == regionUnused {
		return next
	}

	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
