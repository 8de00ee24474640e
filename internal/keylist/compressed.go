package keylist

import "ordkv/internal/base"

// CompressedBlockKeyList is the leaf-level directory manager for the
// group-varint compressed key list (spec §3, §4.3): it owns the ordered
// list of blocks inside a leaf and decides which block a key belongs to,
// splitting a block once it reaches MaxKeysPerBlock.
type CompressedBlockKeyList struct{}

// blockIndexFor returns the index of the block that should contain key:
// the last block whose anchor is <= key, or 0 if key is smaller than every
// anchor (including the empty-leaf case, handled by the caller).
func blockIndexFor(cl *base.CompressedLeaf, key uint32) int {
	lo, hi := 0, len(cl.Blocks)-1
	idx := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if cl.Blocks[mid].Anchor <= key {
			idx = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return idx
}

// Insert adds key/value to the leaf's compressed block directory in
// ascending order. Returns (false, nil) if key already exists anywhere in
// the directory (spec §4.3 duplicate rule).
func (CompressedBlockKeyList) Insert(cl *base.CompressedLeaf, key uint32, value []byte) (bool, error) {
	if len(cl.Blocks) == 0 {
		cl.Blocks = append(cl.Blocks, EncodeBlock([]uint32{key}))
		cl.Blocks[0].Values[0] = value
		return true, nil
	}

	idx := blockIndexFor(cl, key)
	blk := cl.Blocks[idx]

	// Case: key smaller than every block's anchor (only possible for the
	// leftmost block, idx==0 and key < blk.Anchor) -- decompress and
	// prepend, making key the new anchor (spec §4.3 case 1). A full block
	// is split first, below, so the prepend never exceeds MaxKeysPerBlock.
	if key < blk.Anchor && blk.KeyCount < MaxKeysPerBlock {
		vals := DecodeBlock(blk)
		newVals := append([]uint32{key}, vals...)
		newValues := append([][]byte{value}, blk.Values...)
		rebuilt := EncodeBlock(newVals)
		rebuilt.Values = newValues
		cl.Blocks[idx] = rebuilt
		return true, nil
	}

	inserted, _, err := InsertIntoBlock(blk, key, value)
	if err == ErrBlockFull {
		splitBlock(cl, idx)
		// Re-resolve which half now owns key and retry once.
		idx = blockIndexFor(cl, key)
		blk = cl.Blocks[idx]
		if key < blk.Anchor {
			vals := DecodeBlock(blk)
			newVals := append([]uint32{key}, vals...)
			newValues := append([][]byte{value}, blk.Values...)
			rebuilt := EncodeBlock(newVals)
			rebuilt.Values = newValues
			cl.Blocks[idx] = rebuilt
			return true, nil
		}
		inserted, _, err = InsertIntoBlock(blk, key, value)
	}
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// splitBlock divides the block at idx into two roughly equal blocks,
// inserting the new right block immediately after it in cl.Blocks.
func splitBlock(cl *base.CompressedLeaf, idx int) {
	blk := cl.Blocks[idx]
	vals := DecodeBlock(blk)
	mid := len(vals) / 2

	left := Compress(vals[:mid], blk.Values[:mid])
	right := Compress(vals[mid:], blk.Values[mid:])

	blocks := make([]*base.Block, 0, len(cl.Blocks)+1)
	blocks = append(blocks, cl.Blocks[:idx]...)
	blocks = append(blocks, left, right)
	blocks = append(blocks, cl.Blocks[idx+1:]...)
	cl.Blocks = blocks
}

// FindLowerBound returns the leaf-global slot of the first key >= key
// across every block, the key found there, and whether it is an exact
// match. If key is greater than every key in the leaf, slot ==
// cl.TotalKeys() is returned.
func (CompressedBlockKeyList) FindLowerBound(cl *base.CompressedLeaf, key uint32) (slot int, value uint32, exact bool) {
	off := 0
	for _, blk := range cl.Blocks {
		if key <= DecodeBlock(blk)[blk.KeyCount-1] {
			s, v, ex := FindLowerBound(blk, key)
			return off + s, v, ex
		}
		off += blk.KeyCount
	}
	return off, 0, false
}

// Select returns the key at leaf-global slot idx.
func (CompressedBlockKeyList) Select(cl *base.CompressedLeaf, idx int) uint32 {
	off := 0
	for _, blk := range cl.Blocks {
		if idx < off+blk.KeyCount {
			return Select(blk, idx-off)
		}
		off += blk.KeyCount
	}
	panic("keylist: slot out of range")
}

// Value returns the record bytes stored at leaf-global slot idx.
func (CompressedBlockKeyList) Value(cl *base.CompressedLeaf, idx int) []byte {
	off := 0
	for _, blk := range cl.Blocks {
		if idx < off+blk.KeyCount {
			return blk.Values[idx-off]
		}
		off += blk.KeyCount
	}
	panic("keylist: slot out of range")
}
