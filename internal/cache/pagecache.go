// Package cache is the in-memory page cache the pager consults before
// going to disk. Eviction and the key->slot map are delegated to
// github.com/elastic/go-freelru; this package layers pin-counting and
// dirty tracking on top, since freelru itself doesn't know a page can be
// pinned by an open cursor.
package cache

import (
	"container/list"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"

	"ordkv/internal/base"
)

// entry is what the LRU actually stores: the decoded node plus the
// pin/dirty bookkeeping freelru has no notion of.
type entry struct {
	node   *base.Node
	pinned int
	dirty  bool
	// elem links this entry into the pinned list, so the set of currently
	// pinned pages can be inspected in O(1) without walking the whole
	// freelru table.
	elem *list.Element
}

func hashPageID(id base.PageID) uint32 {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(id >> (8 * i))
	}
	return uint32(xxhash.Sum64(buf[:]))
}

// Cache is a fixed-capacity page cache with pin bookkeeping layered on
// freelru's plain LRU eviction. Pin counts are advisory: freelru.Add picks
// its eviction victim with no pin check, so they don't block an eviction by
// themselves. See DESIGN.md for why this is safe despite that.
type Cache struct {
	mu     sync.Mutex
	lru    *freelru.SyncedLRU[base.PageID, *entry]
	pinned *list.List // entries currently pinned, tracked for diagnostics
}

// New creates a Cache holding up to capacity pages.
func New(capacity uint32) (*Cache, error) {
	lru, err := freelru.NewSynced[base.PageID, *entry](capacity, hashPageID)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: lru, pinned: list.New()}, nil
}

// Get returns the cached node for id, or (nil, false) on a miss.
func (c *Cache) Get(id base.PageID) (*base.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(id)
	if !ok {
		return nil, false
	}
	return e.node, true
}

// Put inserts or replaces the cached node for id.
func (c *Cache) Put(id base.PageID, n *base.Node) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(id, &entry{node: n})
}

// Pin records one more use of id by a cursor. The count is bookkeeping
// only: eviction does not consult it, so a pinned page can still be
// evicted. Pinning a page that is not resident has no effect.
func (c *Cache) Pin(id base.PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.lru.Get(id); ok {
		e.pinned++
		if e.elem == nil {
			e.elem = c.pinned.PushBack(id)
		}
	}
}

// Unpin releases one pin on id.
func (c *Cache) Unpin(id base.PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.lru.Get(id); ok && e.pinned > 0 {
		e.pinned--
		if e.pinned == 0 && e.elem != nil {
			c.pinned.Remove(e.elem)
			e.elem = nil
		}
	}
}

// MarkDirty records that id's cached node has been mutated and must be
// flushed before eviction or close.
func (c *Cache) MarkDirty(id base.PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.lru.Get(id); ok {
		e.dirty = true
	}
}

// Dirty returns every page id currently marked dirty, for flushing.
func (c *Cache) Dirty() []base.PageID {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []base.PageID
	for _, id := range c.lru.Keys() {
		if e, ok := c.lru.Peek(id); ok && e.dirty {
			ids = append(ids, id)
		}
	}
	return ids
}

// ClearDirty unmarks id after it has been flushed to disk.
func (c *Cache) ClearDirty(id base.PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.lru.Get(id); ok {
		e.dirty = false
	}
}

// Remove drops id from the cache unconditionally (used when a page is
// freed back to the allocator).
func (c *Cache) Remove(id base.PageID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(id)
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
