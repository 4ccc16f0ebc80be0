package grabcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, capBytes, minChunkSize int) *Cache[string, []byte] {
	t.Helper()

	cfg := Config{
		CapBytes:       capBytes,
		MinChunkSize:   minChunkSize,
		ValueAlignment: 16,
	}

	c, err := New[string, []byte](cfg)
	require.NoError(t, err)

	return c
}

func TestAllocateSplitsDonorRegion(t *testing.T) {
	c := newTestCache(t, 64<<10, 8<<10)

	c.mu.Lock()
	r1, ok := c.allocate(128)
	c.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, 128, r1.size)
	assert.Equal(t, regionUsed, r1.state)

	// The chunk's remaining bytes should now sit in free-by-size as one
	// donor region, not the full chunk span.
	c.mu.Lock()
	donor := c.free.lowerBound(1)
	c.mu.Unlock()
	require.NotNil(t, donor)
	assert.Equal(t, 8<<10-128, donor.size)
}

func TestAllocateExactFitConsumesDonorWhole(t *testing.T) {
	c := newTestCache(t, 64<<10, 4<<10)

	c.mu.Lock()
	r, ok := c.allocate(4 << 10)
	c.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, 4<<10, r.size)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, 0, c.free.len())
}

func TestAllocateGrowsChunkWhenNoDonorFits(t *testing.T) {
	c := newTestCache(t, 64<<10, 4<<10)

	c.mu.Lock()
	_, ok := c.allocate(4 << 10)
	require.True(t, ok)
	assert.Equal(t, 1, len(c.chunks))

	_, ok = c.allocate(64)
	require.True(t, ok)
	assert.Equal(t, 2, len(c.chunks))
	c.mu.Unlock()
}

func TestAllocateFailsAboveCap(t *testing.T) {
	c := newTestCache(t, 4<<10, 4<<10)

	c.mu.Lock()
	_, ok := c.allocate(8 << 10)
	c.mu.Unlock()

	assert.False(t, ok)
}

func TestFreeRegionCoalescesWithNeighbors(t *testing.T) {
	c := newTestCache(t, 64<<10, 4<<10)

	c.mu.Lock()
	a, ok := c.allocate(1024)
	require.True(t, ok)
	b, ok := c.allocate(1024)
	require.True(t, ok)
	d, ok := c.allocate(1024)
	require.True(t, ok)

	c.freeRegion(a)
	c.freeRegion(d)
	c.mu.Unlock()

	// a and d are not adjacent to each other (b sits between them), so
	// each should be its own free region, and b must remain Used.
	assert.Equal(t, regionUsed, b.state)

	c.mu.Lock()
	c.freeRegion(b)
	merged := c.free.lowerBound(1)
	c.mu.Unlock()

	require.NotNil(t, merged)
	assert.GreaterOrEqual(t, merged.size, 3*1024)
}

func TestEvictUntilReclaimsLRUFront(t *testing.T) {
	c := newTestCache(t, 8<<10, 8<<10)

	c.mu.Lock()
	r, ok := c.allocate(8 << 10)
	require.True(t, ok)
	c.mu.Unlock()

	r.key = "only"
	h := c.onSharedValueCreate(r, false)
	h.Release()

	c.mu.Lock()
	defer c.mu.Unlock()

	assert.False(t, c.lru.empty())

	victim := c.evictUntil(8 << 10)
	require.NotNil(t, victim)
	assert.Equal(t, 8<<10, victim.size)
	assert.True(t, c.lru.empty())
}

func TestEvictUntilReturnsNilWhenNothingUnused(t *testing.T) {
	c := newTestCache(t, 8<<10, 8<<10)

	c.mu.Lock()
	defer c.mu.Unlock()

	assert.Nil(t, c.evictUntil(1024))
}
