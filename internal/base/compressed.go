package base

// Block is one compressed, group-varint-delta-encoded run of ascending
// uint32 keys inside a leaf page (spec §4.3). Encoded/decoded by
// internal/keylist; this struct only carries the data.
type Block struct {
	Anchor    uint32 // first (smallest) key in the block
	KeyCount  int    // number of keys in the block, including the anchor: 1..32
	BlockSize int    // capacity in bytes of Encoded, <= 255
	UsedSize  int    // bytes of Encoded actually holding data
	Encoded   []byte // BlockSize bytes of group-varint-delta payload

	// Values holds this block's record refs, one per key in Encoded order.
	// The compressed key list only compresses keys; values remain a plain
	// parallel slice indexed the same way an uncompressed leaf would be.
	Values [][]byte
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	c := &Block{
		Anchor:    b.Anchor,
		KeyCount:  b.KeyCount,
		BlockSize: b.BlockSize,
		UsedSize:  b.UsedSize,
	}
	c.Encoded = append([]byte(nil), b.Encoded...)
	c.Values = make([][]byte, len(b.Values))
	for i, v := range b.Values {
		c.Values[i] = append([]byte(nil), v...)
	}
	return c
}

// CompressedLeaf is the decoded directory of blocks backing a leaf page
// that uses the group-varint compressed key list.
type CompressedLeaf struct {
	Blocks []*Block
}

// Clone returns a deep copy of the leaf's block directory.
func (c *CompressedLeaf) Clone() *CompressedLeaf {
	out := &CompressedLeaf{Blocks: make([]*Block, len(c.Blocks))}
	for i, b := range c.Blocks {
		out.Blocks[i] = b.Clone()
	}
	return out
}

// TotalKeys returns the number of keys across every block.
func (c *CompressedLeaf) TotalKeys() int {
	n := 0
	for _, b := range c.Blocks {
		n += b.KeyCount
	}
	return n
}
