/*
Package grabcache provides a memory-bounded, reference-counted cache backed by a
region allocator over a small number of large mmap'd chunks.

Motivation

The cache is meant for heterogeneous, heap-indirecting values (decoded blocks,
compiled expressions, dictionaries) whose payload is a slice-like structure: a
handful of pointers and lengths held in ordinary Go memory, while the bytes they
point at live in one of the cache's mmap'd chunks. Bounding the chunks bounds the
cache's total footprint, including allocator fragmentation, which a plain
map[K]V cache with a byte-count budget cannot do.

Regions and chunks

Chunks are anonymous, private mmap mappings, allocated in MinChunkSize-or-larger
multiples of the page size and never split once mapped. A chunk is carved into
regions: contiguous byte spans each either Free, Unused (holds a key and value
but has no outstanding handle) or Used (has at least one outstanding handle).
Adjacent Free regions are always coalesced, and eviction works from the least
recently used Unused region outward, absorbing adjacent Unused neighbors in the
same chunk if the first eviction doesn't free enough space.

Stampede prevention

GetOrSet deduplicates concurrent misses for the same key: the first caller to
observe a miss becomes the producer and runs the caller-supplied size and init
functions; every other concurrent caller for that key blocks and receives the
producer's result instead of recomputing it.

Handles

Values are returned wrapped in a Handle, a reference-counted view over a region.
Releasing the last handle to a region demotes it from Used to Unused — it stays
in the cache, payload intact, until evicted to make room for something else.

Monitoring

Stats reports chunk footprint, allocation/eviction counters and hit/miss/
concurrent-hit counts. An optional Notify channel, filtered by a
NotificationLevel, mirrors the same events as they happen.
*/
package grabcache
