// Package pager implements the PageManager collaborator: page allocation,
// the page cache, and write-ahead logging for one open environment file.
// Every read or mutation a B+tree operation makes goes through a Pager.
package pager

import (
	"fmt"
	"sync"
	"sync/atomic"

	"ordkv/internal/base"
	"ordkv/internal/cache"
	"ordkv/internal/keylist"
	"ordkv/internal/storage"
	"ordkv/internal/wal"
)

// metaPageID and mirrorPageID are the two fixed slots the bootstrap
// meta page is written to and mirrored at, so a crash mid-write to one
// leaves the other intact (spec §6).
const (
	metaPageID   base.PageID = 0
	mirrorPageID base.PageID = 1
	firstDataID  base.PageID = 2
)

// Config configures how a Pager opens its backing store.
type Config struct {
	PageSize     int
	Encoding     base.KeyEncoding
	CacheSize    uint32
	SyncMode     wal.SyncMode
	BytesPerSync int
	UseDirectIO  bool
}

// Pager owns page allocation, the page cache, and the write-ahead log for
// one open environment file.
type Pager struct {
	mu sync.Mutex

	backend  storage.Backend
	wal      *wal.WAL
	cache    *cache.Cache
	free     *FreeList
	encoding base.KeyEncoding
	pageSize int

	meta   base.MetaPage
	txnID  atomic.Uint64
	closed bool
}

// Open opens or creates the environment file at path.
func Open(path string, cfg Config) (*Pager, error) {
	if !base.ValidPageSize(cfg.PageSize) {
		return nil, base.ErrInvalidPageSize
	}

	var backend storage.Backend
	var err error
	if cfg.UseDirectIO {
		backend, err = storage.NewDirectIO(path, cfg.PageSize)
	} else {
		backend, err = storage.NewMMap(path)
	}
	if err != nil {
		return nil, err
	}

	w, err := wal.Open(path+".wal", cfg.SyncMode, cfg.BytesPerSync)
	if err != nil {
		backend.Close()
		return nil, err
	}

	c, err := cache.New(cfg.CacheSize)
	if err != nil {
		backend.Close()
		w.Close()
		return nil, err
	}

	p := &Pager{
		backend:  backend,
		wal:      w,
		cache:    c,
		free:     NewFreeList(),
		encoding: cfg.Encoding,
		pageSize: cfg.PageSize,
	}

	empty, err := backend.Empty()
	if err != nil {
		return nil, err
	}
	if empty {
		if err := p.bootstrap(); err != nil {
			return nil, err
		}
	} else {
		if err := p.loadMeta(); err != nil {
			return nil, err
		}
		if err := w.Replay(p.applyWALPage); err != nil {
			return nil, err
		}
		if err := p.loadFreeList(); err != nil {
			return nil, err
		}
	}
	p.txnID.Store(p.meta.TxnID)
	return p, nil
}

func (p *Pager) bootstrap() error {
	p.meta = base.MetaPage{
		Magic:      base.MagicNumber,
		Version:    base.FormatVersion,
		PageSize:   uint16(p.pageSize),
		RootPageID: 0, // no root yet; the index creates the initial empty leaf
		FreelistID: 0,
		NumPages:   uint64(firstDataID),
	}
	return p.writeMeta()
}

func (p *Pager) writeMeta() error {
	buf := p.meta.Encode()
	page := make([]byte, p.pageSize)
	copy(page, buf)

	if err := p.backend.WritePage(metaPageID, page); err != nil {
		return err
	}
	if err := p.backend.WritePage(mirrorPageID, page); err != nil {
		return err
	}
	return p.backend.Sync()
}

func (p *Pager) loadMeta() error {
	primary, errPrimary := p.readMeta(metaPageID)
	mirror, errMirror := p.readMeta(mirrorPageID)

	switch {
	case errPrimary == nil && errMirror == nil:
		if mirror.TxnID > primary.TxnID {
			p.meta = *mirror
		} else {
			p.meta = *primary
		}
	case errPrimary == nil:
		p.meta = *primary
	case errMirror == nil:
		p.meta = *mirror
	default:
		return fmt.Errorf("pager: both meta pages invalid: %w / %w", errPrimary, errMirror)
	}
	p.pageSize = int(p.meta.PageSize)
	return nil
}

func (p *Pager) readMeta(id base.PageID) (*base.MetaPage, error) {
	buf, err := p.backend.ReadPage(id, p.pageSize)
	if err != nil {
		return nil, err
	}
	return base.DecodeMetaPage(buf)
}

func (p *Pager) loadFreeList() error {
	if p.meta.FreelistID == 0 {
		return nil
	}
	ids, err := DecodeChain(p.meta.FreelistID, p.rawPage)
	if err != nil {
		return err
	}
	p.free.Restore(ids)
	return nil
}

func (p *Pager) rawPage(id base.PageID) (*base.Page, error) {
	buf, err := p.backend.ReadPage(id, p.pageSize)
	if err != nil {
		return nil, err
	}
	return &base.Page{Data: buf}, nil
}

func (p *Pager) applyWALPage(id base.PageID, data []byte) error {
	return p.backend.WritePage(id, data)
}

// PageSize returns the environment's configured page size.
func (p *Pager) PageSize() int { return p.pageSize }

// RootPageID returns the current root page, or 0 if the tree is empty.
func (p *Pager) RootPageID() base.PageID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.meta.RootPageID
}

// SetRootPageID updates the root page id, taking effect at the next Flush.
func (p *Pager) SetRootPageID(id base.PageID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.meta.RootPageID = id
}

// Fetch loads the node stored at id, decoding from disk on a cache miss.
func (p *Pager) Fetch(id base.PageID) (*base.Node, error) {
	if n, ok := p.cache.Get(id); ok {
		return n, nil
	}

	buf, err := p.backend.ReadPage(id, p.pageSize)
	if err != nil {
		return nil, err
	}
	page := &base.Page{Data: buf}
	n, err := decodeNode(page, p.encoding)
	if err != nil {
		return nil, err
	}
	p.cache.Put(id, n)
	return n, nil
}

// FetchCached returns the node for id only if already resident, without
// touching disk. Used by the fast-track statistics hint (spec §4.1) to
// avoid a disk read when probing a remembered leaf.
func (p *Pager) FetchCached(id base.PageID) (*base.Node, bool) {
	return p.cache.Get(id)
}

// Allocate reserves a fresh page id, reusing a freed one when available.
func (p *Pager) Allocate() base.PageID {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id, ok := p.free.Allocate(); ok {
		return id
	}
	id := base.PageID(p.meta.NumPages)
	p.meta.NumPages++
	return id
}

// Fits reports whether n would serialize within one page at the pager's
// configured page size, without persisting anything. Callers use this to
// decide "has room" vs. "must split" (spec §4.2) instead of a fixed
// logical key-count threshold, since actual capacity depends on key/value
// sizes.
func (p *Pager) Fits(n *base.Node) bool {
	_, err := encodeNode(n, p.pageSize)
	return err == nil
}

// Put installs n into the cache and marks it dirty, so it will be encoded
// and written on the next Flush.
func (p *Pager) Put(n *base.Node) {
	n.Dirty = true
	p.cache.Put(n.PageID, n)
	p.cache.MarkDirty(n.PageID)
}

// Free returns id to the free list and drops it from the cache.
func (p *Pager) Free(id base.PageID) {
	p.mu.Lock()
	p.free.Free(id)
	p.mu.Unlock()
	p.cache.Remove(id)
}

// Pin/Unpin maintain the cache's per-page pin count for cursors; the cache
// does not skip pinned pages when it evicts.
func (p *Pager) Pin(id base.PageID)   { p.cache.Pin(id) }
func (p *Pager) Unpin(id base.PageID) { p.cache.Unpin(id) }

// Flush encodes every dirty page, appends WAL records, writes them to the
// backend, and commits: WAL commit marker, backend sync, then a durable
// meta page update. Single-writer, so Flush doubles as the commit path
// (spec §5 excludes concurrent-writer transaction isolation).
func (p *Pager) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	txnID := p.txnID.Add(1)
	dirty := p.cache.Dirty()

	freeSnapshot := p.free.Snapshot()
	freelistPageIDs := p.reserveFreelistPages(len(freeSnapshot))
	freelistPages := EncodePages(freeSnapshot, freelistPageIDs, p.pageSize)
	if len(freelistPageIDs) > 0 {
		p.meta.FreelistID = freelistPageIDs[0]
		p.meta.FreelistPages = uint64(len(freelistPageIDs))
	} else {
		p.meta.FreelistID = 0
		p.meta.FreelistPages = 0
	}

	for _, id := range dirty {
		n, ok := p.cache.Get(id)
		if !ok {
			continue
		}
		page, err := encodeNode(n, p.pageSize)
		if err != nil {
			return fmt.Errorf("pager: flush encode page %d: %w", id, err)
		}
		if err := p.wal.AppendPage(txnID, id, page.Data); err != nil {
			return err
		}
	}
	for _, page := range freelistPages {
		if err := p.wal.AppendPage(txnID, page.Header().PageID, page.Data); err != nil {
			return err
		}
	}
	if err := p.wal.AppendCommit(txnID); err != nil {
		return err
	}
	if err := p.wal.Sync(); err != nil {
		return err
	}

	for _, id := range dirty {
		n, ok := p.cache.Get(id)
		if !ok {
			continue
		}
		page, err := encodeNode(n, p.pageSize)
		if err != nil {
			return err
		}
		if err := p.backend.WritePage(id, page.Data); err != nil {
			return err
		}
		n.Dirty = false
		p.cache.ClearDirty(id)
	}
	for _, page := range freelistPages {
		if err := p.backend.WritePage(page.Header().PageID, page.Data); err != nil {
			return err
		}
	}
	if err := p.backend.Sync(); err != nil {
		return err
	}

	p.meta.TxnID = txnID
	if err := p.writeMeta(); err != nil {
		return err
	}
	return p.wal.Truncate()
}

// reserveFreelistPages allocates n page ids to hold the free list snapshot
// itself. These come from meta.NumPages growth rather than the free list
// being serialized, avoiding the chicken-and-egg problem of a free list
// page needing to be freed into the list it is being written from.
func (p *Pager) reserveFreelistPages(freeCount int) []base.PageID {
	n := PagesNeeded(freeCount, p.pageSize)
	ids := make([]base.PageID, n)
	for i := range ids {
		ids[i] = base.PageID(p.meta.NumPages)
		p.meta.NumPages++
	}
	return ids
}

// WriteRaw durably writes a pre-built page that isn't a tree node — blob
// overflow chunks — bypassing the node
// cache and dirty tracking Flush uses for leaf/branch pages.
func (p *Pager) WriteRaw(page *base.Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	txnID := p.txnID.Add(1)
	id := page.Header().PageID
	if err := p.wal.AppendPage(txnID, id, page.Data); err != nil {
		return err
	}
	if err := p.wal.AppendCommit(txnID); err != nil {
		return err
	}
	if err := p.wal.Sync(); err != nil {
		return err
	}
	if err := p.backend.WritePage(id, page.Data); err != nil {
		return err
	}
	return p.backend.Sync()
}

// ReadRaw reads a page's bytes directly from the backend without
// decoding it as a tree node.
func (p *Pager) ReadRaw(id base.PageID) (*base.Page, error) {
	return p.rawPage(id)
}

// Stats returns the backend's cumulative I/O counters.
func (p *Pager) Stats() storage.Stats { return p.backend.Stats() }

// Close flushes pending WAL state and closes the backend and WAL file.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	if err := p.wal.ForceSync(); err != nil {
		return err
	}
	if err := p.wal.Close(); err != nil {
		return err
	}
	return p.backend.Close()
}

// encodeNode serializes n into a fresh page, dispatching to the key list
// strategy that matches n's encoding.
func encodeNode(n *base.Node, pageSize int) (*base.Page, error) {
	page := base.NewPage(pageSize)
	h := base.PageHeader{
		PageID:  n.PageID,
		NumKeys: n.NumKeys,
		Magic:   base.MagicNumber,
	}

	if n.Leaf {
		h.Type = base.LeafPageType
		h.Left = n.Left
		h.Right = n.Right
		if n.Recno {
			h.NodeFlags |= base.FlagRecno
		}
		if n.Encoding == base.EncodingCompressedU32 {
			h.NodeFlags |= base.FlagCompressedBlock
		}
		page.WriteHeader(h)

		var err error
		if n.Encoding == base.EncodingCompressedU32 {
			err = keylist.SerializeCompressedLeaf(n, page)
		} else {
			err = keylist.SerializeLeaf(n, page)
		}
		if err != nil {
			return nil, err
		}
		return page, nil
	}

	h.Type = base.BranchPageType
	page.WriteHeader(h)
	if err := base.SerializeBranch(n, page); err != nil {
		return nil, err
	}
	return page, nil
}

// decodeNode decodes a page into a Node, dispatching on the page's stored
// type and flags. encoding supplies the environment-wide leaf encoding for
// non-compressed leaves, since that choice isn't recorded per-page.
func decodeNode(page *base.Page, encoding base.KeyEncoding) (*base.Node, error) {
	h := page.Header()
	if h.Magic != base.MagicNumber {
		return nil, base.ErrInvalidMagicNumber
	}

	n := &base.Node{PageID: h.PageID}
	switch h.Type {
	case base.BranchPageType:
		base.DeserializeBranch(page, n)
	case base.LeafPageType:
		n.Leaf = true
		n.Left = h.Left
		n.Right = h.Right
		n.Recno = h.NodeFlags&base.FlagRecno != 0
		if h.NodeFlags&base.FlagCompressedBlock != 0 {
			keylist.DeserializeCompressedLeaf(page, n)
		} else {
			keylist.DeserializeLeaf(page, n)
			n.Encoding = encoding
		}
	default:
		return nil, fmt.Errorf("pager: unknown page type %d for page %d", h.Type, h.PageID)
	}
	return n, nil
}
