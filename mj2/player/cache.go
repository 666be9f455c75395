// Package player implements the MJ2 playback engine: a single-threaded,
// cooperative frame cursor over a parsed sample table plus an external
// Codec, with an LRU decode cache bounded by both an entry count and a
// memory budget. There is no internal timer thread — advancing playback is
// always the caller's own call, and prefetch runs synchronously inside the
// method that triggered it so memory-limit eviction stays atomic with
// respect to insertion.
package player

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mrjoshuak/go-j2kbox/codec"
)

// decodedFrame is one cache entry: the decode result plus the frame's
// duration-derived timestamp, so a cache hit doesn't need a second
// sample-table lookup to report where the frame sits on the timeline.
type decodedFrame struct {
	result    *codec.DecodeResult
	timestamp uint64
}

// byteSize estimates a cache entry's memory footprint as the sum of each
// component's width*height*4 (one RGBA-sized slot per pixel), falling back
// to the raw pixel buffer length when a Codec doesn't populate component
// summaries on decode.
func (d *decodedFrame) byteSize() int {
	if d == nil || d.result == nil {
		return 0
	}
	total := 0
	for _, c := range d.result.Summary.Components {
		total += int(c.Width) * int(c.Height) * 4
	}
	if total == 0 {
		total = len(d.result.PixelData)
	}
	return total
}

// decodeCache is an LRU cache of decoded frames. The underlying
// hashicorp/golang-lru cache enforces the entry-count bound and fires
// onEvicted for every eviction it performs on its own (including automatic
// capacity evictions during Add), which is how usedBytes stays accurate
// without this package duplicating the library's own LRU bookkeeping.
type decodeCache struct {
	mu        sync.Mutex
	lru       *lru.Cache[int, *decodedFrame]
	maxBytes  int
	usedBytes int
}

// newDecodeCache builds a cache holding at most maxEntries frames, evicting
// further least-recently-used entries beyond that whenever usedBytes would
// exceed maxBytes (0 disables the byte budget).
func newDecodeCache(maxEntries, maxBytes int) (*decodeCache, error) {
	dc := &decodeCache{maxBytes: maxBytes}
	c, err := lru.NewWithEvict[int, *decodedFrame](maxEntries, func(_ int, v *decodedFrame) {
		dc.usedBytes -= v.byteSize()
	})
	if err != nil {
		return nil, err
	}
	dc.lru = c
	return dc, nil
}

func (c *decodeCache) get(k int) (*decodedFrame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(k)
}

// add inserts a decoded frame, then evicts least-recently-used entries
// (beyond the one just inserted) until usedBytes is back under maxBytes.
// The entry-count bound is enforced by the underlying cache itself.
func (c *decodeCache) add(k int, v *decodedFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.lru.Peek(k); ok {
		c.usedBytes -= old.byteSize()
	}
	c.lru.Add(k, v)
	c.usedBytes += v.byteSize()
	if c.maxBytes <= 0 {
		return
	}
	for c.usedBytes > c.maxBytes && c.lru.Len() > 1 {
		oldest := c.lru.Keys()[0] // oldest to most recently used
		if oldest == k {
			break
		}
		c.lru.Remove(oldest)
	}
}

func (c *decodeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *decodeCache) memoryUsage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usedBytes
}
