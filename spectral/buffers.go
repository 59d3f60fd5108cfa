package spectral

import (
	"sync"
	"time"
)

// bufferCache retains scratch transform buffers per length for a bounded
// keep-alive window, so repeated execute calls on the same tile shape do
// not reallocate. Idle buffers past the window are dropped on the next
// access; there is no background janitor.
type bufferCache struct {
	mu        sync.Mutex
	keepAlive time.Duration
	idle      map[int][]idleBuffer
	now       func() time.Time
}

type idleBuffer struct {
	buf  []complex128
	last time.Time
}

func newBufferCache(keepAlive time.Duration) *bufferCache {
	return &bufferCache{
		keepAlive: keepAlive,
		idle:      make(map[int][]idleBuffer),
		now:       time.Now,
	}
}

// get returns a zero-filled buffer of length n.
func (c *bufferCache) get(n int) []complex128 {
	c.mu.Lock()
	c.evictStale()
	bufs := c.idle[n]
	if len(bufs) > 0 {
		buf := bufs[len(bufs)-1].buf
		c.idle[n] = bufs[:len(bufs)-1]
		c.mu.Unlock()
		for i := range buf {
			buf[i] = 0
		}
		return buf
	}
	c.mu.Unlock()
	return make([]complex128, n)
}

// put returns a buffer to the cache.
func (c *bufferCache) put(buf []complex128) {
	c.mu.Lock()
	c.idle[len(buf)] = append(c.idle[len(buf)], idleBuffer{buf: buf, last: c.now()})
	c.evictStale()
	c.mu.Unlock()
}

// evictStale drops buffers idle longer than the keep-alive window.
// Callers hold c.mu.
func (c *bufferCache) evictStale() {
	cutoff := c.now().Add(-c.keepAlive)
	for n, bufs := range c.idle {
		kept := bufs[:0]
		for _, b := range bufs {
			if b.last.After(cutoff) {
				kept = append(kept, b)
			}
		}
		if len(kept) == 0 {
			delete(c.idle, n)
		} else {
			c.idle[n] = kept
		}
	}
}
