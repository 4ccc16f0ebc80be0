package grabcache

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

const pageSize = 4096

// chunk is one mmap-backed, anonymous, private mapping: the unit of growth
// for the cache. Chunks are never split once mapped; a chunk is only
// unmapped in full, by ShrinkToFit, once every region rooted in it is Free
// or Unused (liveCount reaches zero).
type chunk struct {
	data []byte

	// liveCount counts Used regions currently rooted in this chunk. Bumped
	// in onSharedValueCreate, dropped in onValueDelete; both run under the
	// cache's global mutex, as does ShrinkToFit's read of it.
	liveCount atomic.Int32
}

// roundUpPage rounds size up to the next multiple of pageSize, a fixed
// 4 KiB that is not queried from the system.
func roundUpPage(size int) int {
	return roundUp(size, pageSize)
}

// roundUp rounds size up to the next multiple of align. align must be a
// power of two.
func roundUp(size, align int) int {
	return (size + align - 1) &^ (align - 1)
}

// newChunk mmaps an anonymous, private region of the given size (already
// page-rounded by the caller) and reports the allocation to tracker.
// aslr is consulted only for its diagnostic value: the portable mmap
// wrapper this package uses has no placement-hint parameter, so, unlike the
// allocator this package is modeled on, the hint cannot steer where the
// kernel actually places the mapping (documented in DESIGN.md).
func newChunk(size int, tracker MemoryTracker, aslr ASLRHint, log Logger) (*chunk, error) {
	if aslr != nil {
		log.Debug("mapping chunk", "size", size, "aslr_hint", aslr())
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, newError(CannotAllocate, "mmap", err)
	}

	tracker.OnAlloc(size)
	return &chunk{data: data}, nil
}

// release munmaps the chunk's backing memory. The caller must ensure
// liveCount is 0 before calling release.
func (c *chunk) release(tracker MemoryTracker) error {
	size := len(c.data)
	if err := unix.Munmap(c.data); err != nil {
		return newError(CannotRelease, "munmap", err)
	}

	c.data = nil
	tracker.OnFree(size)
	return nil
}
