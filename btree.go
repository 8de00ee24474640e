// Package ordkv implements the B+tree index, cursor, and statistics
// modules of an embedded key/value storage engine: search, insertion with
// node splits, erase, and ordered scans over disk-backed pages managed by
// internal/pager.
package ordkv

import (
	"bytes"
	"sync"

	"ordkv/internal/algo"
	"ordkv/internal/base"
	"ordkv/internal/blobstore"
	"ordkv/internal/keylist"
	"ordkv/internal/pager"
)

// FindFlags controls approximate-match behavior for BTree.Find.
type FindFlags uint8

const (
	// FindExact requires an exact key match; anything else is KEY_NOT_FOUND.
	FindExact FindFlags = 0
	// FindLT accepts the predecessor of a non-existent key.
	FindLT FindFlags = 1 << iota
	// FindGT accepts the successor of a non-existent key.
	FindGT
)

// InsertFlags controls how BTree.Insert handles an already-present key.
type InsertFlags uint8

const (
	// InsertOverwrite replaces an existing key's record.
	InsertOverwrite InsertFlags = 1 << iota
	// InsertDuplicate is accepted for API completeness (spec §6) but this
	// encoding does not model duplicate chains; see DESIGN.md.
	InsertDuplicate
	// InsertRecno marks the leaf being created as a record-number index,
	// biasing split points per spec §4.2. Only meaningful on the very
	// first insert into an empty tree.
	InsertRecno
)

// Approx reports whether Find returned an exact hit or a neighbor.
type Approx int

const (
	ApproxNone Approx = iota
	ApproxLower
	ApproxGreater
)

// BTree owns the root page id and provides find/insert/erase/lower_bound
// over one on-disk index (spec §2 module BTreeIndex).
type BTree struct {
	pager    *pager.Pager
	blobs    *blobstore.Store
	encoding base.KeyEncoding
	keysize  int
	logger   Logger

	stats Statistics

	mu      sync.Mutex
	cursors map[base.PageID][]*Cursor
}

// newBTree wires a BTree over an already-open pager and blob store.
func newBTree(p *pager.Pager, blobs *blobstore.Store, encoding base.KeyEncoding, keysize int, logger Logger) *BTree {
	if logger == nil {
		logger = DiscardLogger{}
	}
	return &BTree{
		pager:    p,
		blobs:    blobs,
		encoding: encoding,
		keysize:  keysize,
		logger:   logger,
		cursors:  make(map[base.PageID][]*Cursor),
	}
}

func (t *BTree) registerCursor(pageID base.PageID, c *Cursor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursors[pageID] = append(t.cursors[pageID], c)
}

func (t *BTree) unregisterCursor(pageID base.PageID, c *Cursor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	list := t.cursors[pageID]
	for i, existing := range list {
		if existing == c {
			t.cursors[pageID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(t.cursors[pageID]) == 0 {
		delete(t.cursors, pageID)
	}
}

// uncoupleFrom uncouples every cursor coupled to pageID at slot >= minSlot,
// called before a shift or split makes those slots stale (spec §4.5).
func (t *BTree) uncoupleFrom(pageID base.PageID, minSlot int) error {
	t.mu.Lock()
	list := append([]*Cursor(nil), t.cursors[pageID]...)
	t.mu.Unlock()

	if len(list) == 0 {
		return nil
	}
	n, err := t.pager.Fetch(pageID)
	if err != nil {
		return err
	}
	for _, c := range list {
		if c.slot >= minSlot {
			if err := c.uncoupleAt(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// NewCursor returns a nil cursor bound to this tree.
func (t *BTree) NewCursor() *Cursor {
	return newCursor(t)
}

// fullKey resolves the true key bytes at slot in n, following the blob
// store for extended keys (var-binary encoding) or decoding the fixed
// bytes back to their memcmp-ordered form for other encodings (the caller
// gets the same bytes it inserted since fixed-width keys round-trip
// through their encoder byte-for-byte).
func (t *BTree) fullKey(n *base.Node, slot int) ([]byte, error) {
	if n.Encoding == base.EncodingCompressedU32 {
		var cbl keylist.CompressedBlockKeyList
		return keylist.EncodeUint32Key(cbl.Select(n.Compressed, slot)), nil
	}
	if n.ExtendedBlob != nil && n.ExtendedBlob[slot] != 0 {
		return keylist.FullKey(t.blobs, n.Keys[slot], n.ExtendedBlob[slot], true)
	}
	return n.Keys[slot], nil
}

// prepareKey decides how a candidate key should be stored inline,
// offloading to the blob store only for var-binary indexes whose key
// exceeds keysize (spec §4.4).
func (t *BTree) prepareKey(key []byte) (inline []byte, blobID base.PageID, extended bool, err error) {
	if t.encoding != base.EncodingVarBinary {
		return key, 0, false, nil
	}
	return keylist.PrepareKeyForInsert(t.blobs, key, t.keysize)
}

// descendToLeaf walks from the root to the leaf that would hold key,
// returning the leaf's page id, the slot FindLowerBound identified there,
// and the three-way comparison at that slot.
func (t *BTree) descendToLeaf(key []byte) (base.PageID, int, int, error) {
	pageID := t.pager.RootPageID()
	if pageID == 0 {
		return 0, 0, -1, ErrKeyNotFound
	}
	for {
		n, err := t.pager.Fetch(pageID)
		if err != nil {
			return 0, 0, 0, err
		}
		if n.IsLeaf() {
			if n.Encoding == base.EncodingCompressedU32 {
				if len(key) != 4 {
					return 0, 0, 0, ErrInvalidParameter
				}
				var cbl keylist.CompressedBlockKeyList
				slot, _, exact := cbl.FindLowerBound(n.Compressed, keylist.DecodeUint32Key(key))
				cmp := 1
				if exact {
					cmp = 0
				} else if slot >= n.Compressed.TotalKeys() {
					cmp = -1
				}
				return pageID, slot, cmp, nil
			}
			slot, cmp := algo.FindLowerBound(n, key)
			return pageID, slot, cmp, nil
		}
		pageID = n.Children[algo.FindChildIndex(n, key)]
	}
}

// Find implements spec §4.1: an optional fast-track cache-only attempt,
// then a full root-to-leaf descent with approximate-match tie-breaking.
func (t *BTree) Find(key []byte, flags FindFlags) ([]byte, []byte, Approx, base.Status, error) {
	if hint := t.stats.findHint(); hint != 0 {
		if n, ok := t.pager.FetchCached(hint); ok && n.IsLeaf() && n.Encoding != base.EncodingCompressedU32 {
			slot, cmp := algo.FindLowerBound(n, key)
			if cmp == 0 && slot > 0 && slot < int(n.NumKeys)-1 {
				fk, err := t.fullKey(n, slot)
				if err == nil {
					t.stats.recordFind(hint)
					return fk, n.Values[slot], ApproxNone, base.OK, nil
				}
			}
		}
		t.logger.Warn("fast-track hint miss, falling back to full descent", "hint", hint)
	}

	pageID, slot, cmp, err := t.descendToLeaf(key)
	if err != nil {
		return nil, nil, ApproxNone, base.KeyNotFound, err
	}
	t.stats.recordFind(pageID)

	n, err := t.pager.Fetch(pageID)
	if err != nil {
		t.logger.Error("internal error fetching leaf", "page", pageID, "err", err)
		return nil, nil, ApproxNone, base.InternalError, err
	}

	numKeys := int(n.NumKeys)
	if n.Encoding == base.EncodingCompressedU32 {
		numKeys = n.Compressed.TotalKeys()
	}

	if cmp == 0 {
		fk, ferr := t.fullKey(n, slot)
		if ferr != nil {
			return nil, nil, ApproxNone, base.InternalError, ferr
		}
		return fk, t.valueAt(n, slot), ApproxNone, base.OK, nil
	}

	switch {
	case flags&FindLT != 0 && flags&FindGT != 0:
		// Either neighbor acceptable and there's no exact hit at slot:
		// prefer the successor if present, else the predecessor.
		if slot < numKeys {
			fk, _ := t.fullKey(n, slot)
			return fk, t.valueAt(n, slot), ApproxGreater, base.OK, nil
		}
		return t.stepLeft(n, slot)
	case flags&FindGT != 0:
		if slot < numKeys {
			fk, _ := t.fullKey(n, slot)
			return fk, t.valueAt(n, slot), ApproxGreater, base.OK, nil
		}
		return t.stepRightSibling(n)
	case flags&FindLT != 0:
		return t.stepLeft(n, slot)
	default:
		return nil, nil, ApproxNone, base.KeyNotFound, ErrKeyNotFound
	}
}

func (t *BTree) valueAt(n *base.Node, slot int) []byte {
	if n.Encoding == base.EncodingCompressedU32 {
		var cbl keylist.CompressedBlockKeyList
		return cbl.Value(n.Compressed, slot)
	}
	return n.Values[slot]
}

// stepLeft returns the predecessor of the lower-bound slot in n, stepping
// to the left sibling's last slot if slot-1 < 0.
func (t *BTree) stepLeft(n *base.Node, slot int) ([]byte, []byte, Approx, base.Status, error) {
	pred := slot - 1
	if pred >= 0 {
		fk, _ := t.fullKey(n, pred)
		return fk, t.valueAt(n, pred), ApproxLower, base.OK, nil
	}
	if n.Left == 0 {
		return nil, nil, ApproxNone, base.KeyNotFound, ErrKeyNotFound
	}
	left, err := t.pager.Fetch(n.Left)
	if err != nil {
		return nil, nil, ApproxNone, base.InternalError, err
	}
	lastSlot := int(left.NumKeys) - 1
	if left.Encoding == base.EncodingCompressedU32 {
		lastSlot = left.Compressed.TotalKeys() - 1
	}
	if lastSlot < 0 {
		return nil, nil, ApproxNone, base.KeyNotFound, ErrKeyNotFound
	}
	fk, _ := t.fullKey(left, lastSlot)
	return fk, t.valueAt(left, lastSlot), ApproxLower, base.OK, nil
}

// stepRightSibling returns the first key of n's right sibling, used when
// the lower-bound slot fell off the end of n.
func (t *BTree) stepRightSibling(n *base.Node) ([]byte, []byte, Approx, base.Status, error) {
	if n.Right == 0 {
		return nil, nil, ApproxNone, base.KeyNotFound, ErrKeyNotFound
	}
	right, err := t.pager.Fetch(n.Right)
	if err != nil {
		return nil, nil, ApproxNone, base.InternalError, err
	}
	numKeys := int(right.NumKeys)
	if right.Encoding == base.EncodingCompressedU32 {
		numKeys = right.Compressed.TotalKeys()
	}
	if numKeys == 0 {
		return nil, nil, ApproxNone, base.KeyNotFound, ErrKeyNotFound
	}
	fk, _ := t.fullKey(right, 0)
	return fk, t.valueAt(right, 0), ApproxGreater, base.OK, nil
}

// LowerBound returns a cursor coupled to the first key >= key.
func (t *BTree) LowerBound(key []byte) (*Cursor, base.Status, error) {
	pageID, slot, cmp, err := t.descendToLeaf(key)
	if err != nil {
		return nil, base.KeyNotFound, err
	}
	n, err := t.pager.Fetch(pageID)
	if err != nil {
		return nil, base.InternalError, err
	}
	numKeys := int(n.NumKeys)
	if n.Encoding == base.EncodingCompressedU32 {
		numKeys = n.Compressed.TotalKeys()
	}
	if cmp == -1 || slot >= numKeys {
		if n.Right == 0 {
			return nil, base.KeyNotFound, ErrKeyNotFound
		}
		c := t.NewCursor()
		c.couple(n.Right, 0)
		return c, base.OK, nil
	}
	c := t.NewCursor()
	c.couple(pageID, slot)
	return c, base.OK, nil
}

// First returns a cursor coupled to the smallest key in the tree, or
// KeyNotFound if the tree is empty. Used to seed a full ascending scan
// (spec §4.6).
func (t *BTree) First() (*Cursor, base.Status, error) {
	pageID := t.pager.RootPageID()
	if pageID == 0 {
		return nil, base.KeyNotFound, ErrKeyNotFound
	}
	for {
		n, err := t.pager.Fetch(pageID)
		if err != nil {
			return nil, base.InternalError, err
		}
		if n.IsLeaf() {
			numKeys := int(n.NumKeys)
			if n.Encoding == base.EncodingCompressedU32 {
				numKeys = n.Compressed.TotalKeys()
			}
			if numKeys == 0 {
				return nil, base.KeyNotFound, ErrKeyNotFound
			}
			c := t.NewCursor()
			c.couple(pageID, 0)
			return c, base.OK, nil
		}
		pageID = n.Children[0]
	}
}

// splitInfo is the tagged Split arm of the recursive insert's return
// value (spec §9: "return a tagged sum Ok | DuplicateKey | Split").
type splitInfo struct {
	pivot    []byte
	newRight base.PageID
}

// tryInsertHint attempts spec §4.7's fast-track insert: if the last-insert
// hint leaf is still resident and key can be placed there without touching
// a parent separator, the insert completes without a root-to-leaf descent.
// handled reports whether the hint applied at all (true means status/err is
// the caller's answer, false means the caller must fall back to Insert's
// normal recursive descent).
func (t *BTree) tryInsertHint(hint base.PageID, key, value []byte, flags InsertFlags) (status base.Status, err error, handled bool) {
	n, cached := t.pager.FetchCached(hint)
	if !cached || !n.IsLeaf() || n.Encoding == base.EncodingCompressedU32 {
		return 0, nil, false
	}

	idx := algo.FindKeyInLeaf(n, key)
	if idx >= 0 {
		if flags&InsertOverwrite == 0 {
			return base.DuplicateKey, ErrDuplicateKey, true
		}
		n.Values[idx] = append([]byte(nil), value...)
		n.Dirty = true
		t.pager.Put(n)
		if ferr := t.pager.Flush(); ferr != nil {
			return base.InternalError, ferr, true
		}
		t.stats.recordInsert(n.PageID)
		return base.OK, nil, true
	}

	// A new key can only be placed here without consulting the parent if
	// it lands strictly inside the leaf's existing key range: a key that
	// would land at either boundary might actually belong to a neighbor
	// once separators are taken into account, which only the full descent
	// can confirm.
	pos := algo.FindInsertPosition(n, key)
	if pos <= 0 || pos >= int(n.NumKeys) {
		return 0, nil, false
	}

	inline, blobID, extended, perr := t.prepareKey(key)
	if perr != nil {
		return base.InternalError, perr, true
	}

	trial := n.Clone()
	trial.PageID = n.PageID
	trial.Left, trial.Right = n.Left, n.Right
	trial.Keys = algo.InsertAt(trial.Keys, pos, inline)
	trial.Values = algo.InsertAt(trial.Values, pos, value)
	if trial.ExtendedBlob == nil {
		trial.ExtendedBlob = make([]base.PageID, len(n.Keys))
	}
	trial.ExtendedBlob = algo.InsertPageIDAt(trial.ExtendedBlob, pos, blobID)
	_ = extended
	trial.NumKeys++

	if !t.pager.Fits(trial) {
		// A split here would need to push a new separator up into the
		// parent, which the fast path doesn't have in hand.
		return 0, nil, false
	}

	if uerr := t.uncoupleFrom(n.PageID, pos); uerr != nil {
		return base.InternalError, uerr, true
	}
	t.pager.Put(trial)
	if ferr := t.pager.Flush(); ferr != nil {
		return base.InternalError, ferr, true
	}
	t.stats.recordInsert(trial.PageID)
	return base.OK, nil, true
}

// Insert implements spec §4.2: recursive descent with split propagation.
// Each call is its own transaction, flushed durably before returning.
func (t *BTree) Insert(key, value []byte, flags InsertFlags) (base.Status, error) {
	root := t.pager.RootPageID()
	if root == 0 {
		id := t.pager.Allocate()
		n := &base.Node{
			PageID:   id,
			Leaf:     true,
			Recno:    flags&InsertRecno != 0,
			Encoding: t.encoding,
			Dirty:    true,
		}
		t.pager.Put(n)
		t.pager.SetRootPageID(id)
		root = id
	}

	if hint := t.stats.insertHint(); hint != 0 {
		if status, herr, handled := t.tryInsertHint(hint, key, value, flags); handled {
			if herr != nil && status == base.InternalError {
				t.logger.Error("internal error during fast-track insert", "err", herr)
			}
			return status, herr
		}
		t.logger.Warn("fast-track insert hint miss, falling back to full descent", "hint", hint)
	}

	leafID, split, status, err := t.insert(root, key, value, flags)
	if err != nil {
		if status == base.InternalError {
			t.logger.Error("internal error during insert", "err", err)
		}
		return status, err
	}
	if status != base.OK {
		return status, err
	}

	if split != nil {
		newRootID := t.pager.Allocate()
		newRoot := &base.Node{
			PageID:   newRootID,
			Leaf:     false,
			Children: []base.PageID{root, split.newRight},
			Keys:     [][]byte{split.pivot},
			NumKeys:  1,
			Dirty:    true,
		}
		t.pager.Put(newRoot)
		t.pager.SetRootPageID(newRootID)
		t.stats.bumpGeneration()
	}
	t.stats.recordInsert(leafID)

	if err := t.pager.Flush(); err != nil {
		return base.InternalError, err
	}
	return base.OK, nil
}

func (t *BTree) insert(pageID base.PageID, key, value []byte, flags InsertFlags) (leafID base.PageID, split *splitInfo, status base.Status, err error) {
	n, err := t.pager.Fetch(pageID)
	if err != nil {
		return 0, nil, base.InternalError, err
	}

	if n.IsLeaf() {
		return t.insertLeaf(n, key, value, flags)
	}

	childIdx := algo.FindChildIndex(n, key)
	childID := n.Children[childIdx]
	childLeaf, childSplit, childStatus, err := t.insert(childID, key, value, flags)
	if err != nil || childStatus != base.OK {
		return childLeaf, nil, childStatus, err
	}
	if childSplit == nil {
		return childLeaf, nil, base.OK, nil
	}

	trial := n.Clone()
	trial.PageID = n.PageID
	trial.Keys = algo.InsertAt(trial.Keys, childIdx, childSplit.pivot)
	trial.Children = algo.InsertPageIDAt(trial.Children, childIdx+1, childSplit.newRight)
	trial.NumKeys++

	if t.pager.Fits(trial) {
		t.pager.Put(trial)
		return childLeaf, nil, base.OK, nil
	}

	sp := algo.CalculateSplitPointWithHint(trial)
	right := algo.ExtractRightPortion(trial, sp)
	rightID := t.pager.Allocate()
	right.PageID = rightID
	t.pager.Put(trial)
	t.pager.Put(right)
	t.stats.bumpGeneration()
	return childLeaf, &splitInfo{pivot: sp.SeparatorKey, newRight: rightID}, base.OK, nil
}

func (t *BTree) insertLeaf(n *base.Node, key, value []byte, flags InsertFlags) (base.PageID, *splitInfo, base.Status, error) {
	if n.Encoding == base.EncodingCompressedU32 {
		return t.insertCompressedLeaf(n, key, value, flags)
	}

	idx := algo.FindKeyInLeaf(n, key)
	if idx >= 0 {
		if flags&InsertOverwrite != 0 {
			n.Values[idx] = append([]byte(nil), value...)
			n.Dirty = true
			t.pager.Put(n)
			return n.PageID, nil, base.OK, nil
		}
		return n.PageID, nil, base.DuplicateKey, ErrDuplicateKey
	}

	pos := algo.FindInsertPosition(n, key)
	if err := t.uncoupleFrom(n.PageID, pos); err != nil {
		return n.PageID, nil, base.InternalError, err
	}

	inline, blobID, extended, err := t.prepareKey(key)
	if err != nil {
		return n.PageID, nil, base.InternalError, err
	}

	trial := n.Clone()
	trial.PageID = n.PageID
	trial.Left, trial.Right = n.Left, n.Right
	trial.Keys = algo.InsertAt(trial.Keys, pos, inline)
	trial.Values = algo.InsertAt(trial.Values, pos, value)
	if trial.ExtendedBlob == nil {
		trial.ExtendedBlob = make([]base.PageID, len(n.Keys))
	}
	trial.ExtendedBlob = algo.InsertPageIDAt(trial.ExtendedBlob, pos, blobID)
	_ = extended
	trial.NumKeys++

	if t.pager.Fits(trial) {
		t.pager.Put(trial)
		return n.PageID, nil, base.OK, nil
	}

	sp := algo.CalculateSplitPointWithHint(trial)

	// The first uncouple above only covers cursors at slot >= pos, using
	// n's pre-insertion indexing. A cursor at slot < pos survives that call
	// unaffected by the insertion shift, but ExtractRightPortion below can
	// still move it into the new right page if its slot lands at or past
	// the split point; uncouple those too before the move happens.
	if err := t.uncoupleFrom(n.PageID, sp.Mid); err != nil {
		return n.PageID, nil, base.InternalError, err
	}

	right := algo.ExtractRightPortion(trial, sp)
	rightID := t.pager.Allocate()
	right.PageID = rightID
	right.Left = trial.PageID

	if trial.Right != 0 {
		if oldRight, ferr := t.pager.Fetch(trial.Right); ferr == nil {
			oldRight.Left = rightID
			oldRight.Dirty = true
			t.pager.Put(oldRight)
		}
	}
	trial.Right = rightID
	t.pager.Put(trial)
	t.pager.Put(right)
	t.stats.bumpGeneration()

	leafForStats := trial.PageID
	if bytes.Compare(key, sp.SeparatorKey) >= 0 {
		leafForStats = rightID
	}
	return leafForStats, &splitInfo{pivot: append([]byte(nil), sp.SeparatorKey...), newRight: rightID}, base.OK, nil
}

func (t *BTree) insertCompressedLeaf(n *base.Node, key, value []byte, flags InsertFlags) (base.PageID, *splitInfo, base.Status, error) {
	if len(key) != 4 {
		return n.PageID, nil, base.InvParameter, ErrInvalidParameter
	}
	k := keylist.DecodeUint32Key(key)
	if n.Compressed == nil {
		n.Compressed = &base.CompressedLeaf{}
	}

	var cbl keylist.CompressedBlockKeyList
	inserted, err := cbl.Insert(n.Compressed, k, append([]byte(nil), value...))
	if err != nil {
		return n.PageID, nil, base.InternalError, err
	}
	if !inserted {
		if flags&InsertOverwrite == 0 {
			return n.PageID, nil, base.DuplicateKey, ErrDuplicateKey
		}
		slot, _, exact := cbl.FindLowerBound(n.Compressed, k)
		if !exact {
			return n.PageID, nil, base.InternalError, ErrInternal
		}
		off := 0
		for _, blk := range n.Compressed.Blocks {
			if slot < off+blk.KeyCount {
				blk.Values[slot-off] = append([]byte(nil), value...)
				break
			}
			off += blk.KeyCount
		}
	}
	n.NumKeys = uint16(n.Compressed.TotalKeys())
	n.Dirty = true

	if t.pager.Fits(n) {
		t.pager.Put(n)
		return n.PageID, nil, base.OK, nil
	}

	mid := len(n.Compressed.Blocks) / 2
	if mid == 0 {
		mid = 1
	}

	splitAtSlot := 0
	for _, blk := range n.Compressed.Blocks[:mid] {
		splitAtSlot += blk.KeyCount
	}
	if err := t.uncoupleFrom(n.PageID, splitAtSlot); err != nil {
		return n.PageID, nil, base.InternalError, err
	}

	rightBlocks := n.Compressed.Blocks[mid:]
	n.Compressed.Blocks = n.Compressed.Blocks[:mid]
	n.NumKeys = uint16(n.Compressed.TotalKeys())
	n.Dirty = true

	rightID := t.pager.Allocate()
	right := &base.Node{
		PageID:     rightID,
		Leaf:       true,
		Encoding:   base.EncodingCompressedU32,
		Compressed: &base.CompressedLeaf{Blocks: rightBlocks},
		Left:       n.PageID,
		Right:      n.Right,
		Dirty:      true,
	}
	right.NumKeys = uint16(right.Compressed.TotalKeys())

	if n.Right != 0 {
		if oldRight, ferr := t.pager.Fetch(n.Right); ferr == nil {
			oldRight.Left = rightID
			oldRight.Dirty = true
			t.pager.Put(oldRight)
		}
	}
	n.Right = rightID
	t.pager.Put(n)
	t.pager.Put(right)
	t.stats.bumpGeneration()

	pivotAnchor := right.Compressed.Blocks[0].Anchor
	pivot := keylist.EncodeUint32Key(pivotAnchor)
	leafForStats := n.PageID
	if k >= pivotAnchor {
		leafForStats = rightID
	}
	return leafForStats, &splitInfo{pivot: pivot, newRight: rightID}, base.OK, nil
}

// Erase removes key from the tree. Underflow rebalancing is not performed
// (see DESIGN.md): nodes are allowed to fall below MinKeysPerNode, which
// only affects fan-out, never correctness of ordering or lookups.
func (t *BTree) Erase(key []byte) (base.Status, error) {
	pageID, slot, cmp, err := t.descendToLeaf(key)
	if err != nil {
		return base.KeyNotFound, err
	}
	if cmp != 0 {
		return base.KeyNotFound, ErrKeyNotFound
	}

	n, err := t.pager.Fetch(pageID)
	if err != nil {
		return base.InternalError, err
	}

	if n.Encoding == base.EncodingCompressedU32 {
		return base.InternalError, ErrInternal // compressed-block erase: see DESIGN.md
	}

	if err := t.uncoupleFrom(pageID, slot); err != nil {
		return base.InternalError, err
	}
	if n.ExtendedBlob != nil && n.ExtendedBlob[slot] != 0 {
		if err := t.blobs.Free(n.ExtendedBlob[slot]); err != nil {
			return base.InternalError, err
		}
	}

	n.Keys = algo.RemoveAt(n.Keys, slot)
	n.Values = algo.RemoveAt(n.Values, slot)
	if n.ExtendedBlob != nil {
		n.ExtendedBlob = algo.RemovePageIDAt(n.ExtendedBlob, slot)
	}
	n.NumKeys--
	n.Dirty = true
	t.pager.Put(n)

	if err := t.pager.Flush(); err != nil {
		return base.InternalError, err
	}
	return base.OK, nil
}
