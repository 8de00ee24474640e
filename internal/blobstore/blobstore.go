// Package blobstore holds byte strings too large for a leaf slot, chained
// across one or more overflow pages (spec §4.4, "EXTENDED-key overflow").
// The B+tree stores only oversized var-binary keys here; record values
// always stay inline in the leaf. It implements the
// keylist.BlobStore interface the var-binary key list depends on.
package blobstore

import (
	"fmt"

	"ordkv/internal/base"
	"ordkv/internal/pager"
)

// Store allocates and reads back oversized values via the pager.
type Store struct {
	pager *pager.Pager
}

// New returns a Store backed by p.
func New(p *pager.Pager) *Store {
	return &Store{pager: p}
}

// capacity returns how many payload bytes one blob page can hold.
func (s *Store) capacity() int {
	return s.pager.PageSize() - base.PageHeaderSize
}

// Put writes data across as many chained blob pages as needed and
// returns the id of the first page in the chain.
func (s *Store) Put(data []byte) (base.PageID, error) {
	pageCap := s.capacity()
	if pageCap <= 0 {
		return 0, fmt.Errorf("blobstore: page too small to hold overflow data")
	}

	n := (len(data) + pageCap - 1) / pageCap
	if n == 0 {
		n = 1
	}
	ids := make([]base.PageID, n)
	for i := range ids {
		ids[i] = s.pager.Allocate()
	}

	for i := 0; i < n; i++ {
		lo := i * pageCap
		hi := lo + pageCap
		if hi > len(data) {
			hi = len(data)
		}
		chunk := data[lo:hi]

		var next base.PageID
		if i+1 < n {
			next = ids[i+1]
		}
		page := base.NewPage(s.pager.PageSize())
		page.WriteHeader(base.PageHeader{
			PageID:  ids[i],
			Type:    base.BlobPageType,
			NumKeys: uint16(len(chunk)),
			Right:   next,
			Magic:   base.MagicNumber,
		})
		copy(page.Payload(), chunk)
		if err := s.pager.WriteRaw(page); err != nil {
			return 0, err
		}
	}
	return ids[0], nil
}

// Get reassembles the full value stored under id.
func (s *Store) Get(id base.PageID) ([]byte, error) {
	var out []byte
	for id != 0 {
		page, err := s.pager.ReadRaw(id)
		if err != nil {
			return nil, err
		}
		h := page.Header()
		if h.Type != base.BlobPageType {
			return nil, fmt.Errorf("blobstore: page %d is not a blob page", id)
		}
		out = append(out, page.Payload()[:h.NumKeys]...)
		id = h.Right
	}
	return out, nil
}

// Free releases every page in the chain rooted at id back to the pager's
// free list.
func (s *Store) Free(id base.PageID) error {
	for id != 0 {
		page, err := s.pager.ReadRaw(id)
		if err != nil {
			return err
		}
		next := page.Header().Right
		s.pager.Free(id)
		id = next
	}
	return nil
}
