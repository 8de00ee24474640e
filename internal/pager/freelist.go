package pager

import (
	"encoding/binary"
	"sync"

	"ordkv/internal/base"
)

// FreeList tracks page ids available for reuse. The environment is
// single-writer (spec §5 excludes multi-writer MVCC), so unlike the
// teacher's pending-by-transaction bucketing and VersionMap relocation
// tracking, a freed page is immediately reusable by the next Allocate:
// there is no concurrent reader that could still be looking at its old
// contents once the single writer has moved past it.
type FreeList struct {
	mu   sync.Mutex
	free []base.PageID
}

// NewFreeList returns an empty free list.
func NewFreeList() *FreeList {
	return &FreeList{}
}

// Allocate pops a reusable page id, or reports false if the free list is
// empty and the caller must grow the file instead.
func (f *FreeList) Allocate() (base.PageID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.free) == 0 {
		return 0, false
	}
	id := f.free[len(f.free)-1]
	f.free = f.free[:len(f.free)-1]
	return id, true
}

// Free returns id to the pool.
func (f *FreeList) Free(id base.PageID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.free = append(f.free, id)
}

// Len reports how many pages are currently free.
func (f *FreeList) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.free)
}

// Snapshot returns a copy of the free page ids, for serialization.
func (f *FreeList) Snapshot() []base.PageID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]base.PageID(nil), f.free...)
}

// Restore replaces the free list's contents, used when loading from disk.
func (f *FreeList) Restore(ids []base.PageID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.free = append([]base.PageID(nil), ids...)
}

// idsPerFreelistPage returns how many page ids fit in one freelist page's
// payload, 8 bytes each.
func idsPerFreelistPage(pageSize int) int {
	return (pageSize - base.PageHeaderSize) / 8
}

// PagesNeeded reports how many freelist pages are needed to hold n ids.
func PagesNeeded(n, pageSize int) int {
	if n == 0 {
		return 0
	}
	perPage := idsPerFreelistPage(pageSize)
	return (n + perPage - 1) / perPage
}

// EncodePages splits ids across len(pageIDs) freelist pages, chaining each
// to the next via its header's Right field (0 terminates the chain). The
// caller reserves pageIDs first (the pager takes them from file growth,
// not from this free list) and supplies them here for the actual page
// bytes.
func EncodePages(ids []base.PageID, pageIDs []base.PageID, pageSize int) []*base.Page {
	perPage := idsPerFreelistPage(pageSize)
	pages := make([]*base.Page, len(pageIDs))
	for i := range pageIDs {
		page := base.NewPage(pageSize)
		lo := i * perPage
		hi := lo + perPage
		if hi > len(ids) {
			hi = len(ids)
		}
		chunk := ids[lo:hi]

		var next base.PageID
		if i+1 < len(pageIDs) {
			next = pageIDs[i+1]
		}
		page.WriteHeader(base.PageHeader{
			PageID:  pageIDs[i],
			Type:    base.FreelistPageType,
			NumKeys: uint16(len(chunk)),
			Right:   next,
			Magic:   base.MagicNumber,
		})
		payload := page.Payload()
		for j, id := range chunk {
			binary.LittleEndian.PutUint64(payload[j*8:], uint64(id))
		}
		pages[i] = page
	}
	return pages
}

// DecodeChain walks a freelist page chain starting at start, fetching each
// page's raw bytes with fetch, and returns every page id it stored.
func DecodeChain(start base.PageID, fetch func(base.PageID) (*base.Page, error)) ([]base.PageID, error) {
	var ids []base.PageID
	id := start
	for id != 0 {
		page, err := fetch(id)
		if err != nil {
			return nil, err
		}
		h := page.Header()
		payload := page.Payload()
		for j := 0; j < int(h.NumKeys); j++ {
			ids = append(ids, base.PageID(binary.LittleEndian.Uint64(payload[j*8:])))
		}
		id = h.Right
	}
	return ids, nil
}
