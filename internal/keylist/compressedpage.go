package keylist

import (
	"encoding/binary"

	"ordkv/internal/base"
)

// SerializeCompressedLeaf packs a compressed-block leaf's block directory
// and record values into page's payload.
//
// Layout after the page header:
//
//	[blockCount:2]
//	[block 0: Anchor:4 KeyCount:2 BlockSize:2 UsedSize:2 Reserved:2 Encoded:BlockSize]
//	[block 1: ...]
//	...
//	[numKeys:2]
//	[valueLen[0]:2] [valueLen[1]:2] ... [valueLen[numKeys-1]:2]
//	                                        (free space)
//	... values packed backward from the end of the page, in key order ...
func SerializeCompressedLeaf(n *base.Node, page *base.Page) error {
	cl := n.Compressed
	pos := base.PageHeaderSize
	binary.LittleEndian.PutUint16(page.Data[pos:], uint16(len(cl.Blocks)))
	pos += 2

	totalKeys := 0
	for _, blk := range cl.Blocks {
		if pos+12+blk.BlockSize > page.Size() {
			return base.ErrPageOverflow
		}
		binary.LittleEndian.PutUint32(page.Data[pos:], blk.Anchor)
		binary.LittleEndian.PutUint16(page.Data[pos+4:], uint16(blk.KeyCount))
		binary.LittleEndian.PutUint16(page.Data[pos+6:], uint16(blk.BlockSize))
		binary.LittleEndian.PutUint16(page.Data[pos+8:], uint16(blk.UsedSize))
		copy(page.Data[pos+12:pos+12+blk.BlockSize], blk.Encoded)
		pos += 12 + blk.BlockSize
		totalKeys += blk.KeyCount
	}

	binary.LittleEndian.PutUint16(page.Data[pos:], uint16(totalKeys))
	lenTableOffset := pos + 2
	pos = lenTableOffset + totalKeys*2

	valueEnd := page.Size()
	idx := 0
	for _, blk := range cl.Blocks {
		for _, v := range blk.Values {
			valueEnd -= len(v)
			if valueEnd < pos {
				return base.ErrPageOverflow
			}
			copy(page.Data[valueEnd:], v)
			binary.LittleEndian.PutUint16(page.Data[lenTableOffset+idx*2:], uint16(len(v)))
			idx++
		}
	}
	return nil
}

// DeserializeCompressedLeaf decodes a compressed-block leaf page's payload
// into n, populating n.Compressed.
func DeserializeCompressedLeaf(page *base.Page, n *base.Node) {
	pos := base.PageHeaderSize
	blockCount := int(binary.LittleEndian.Uint16(page.Data[pos:]))
	pos += 2

	cl := &base.CompressedLeaf{Blocks: make([]*base.Block, blockCount)}
	for i := 0; i < blockCount; i++ {
		anchor := binary.LittleEndian.Uint32(page.Data[pos:])
		keyCount := int(binary.LittleEndian.Uint16(page.Data[pos+4:]))
		blockSize := int(binary.LittleEndian.Uint16(page.Data[pos+6:]))
		usedSize := int(binary.LittleEndian.Uint16(page.Data[pos+8:]))
		encoded := append([]byte(nil), page.Data[pos+12:pos+12+blockSize]...)
		cl.Blocks[i] = &base.Block{
			Anchor:    anchor,
			KeyCount:  keyCount,
			BlockSize: blockSize,
			UsedSize:  usedSize,
			Encoded:   encoded,
			Values:    make([][]byte, keyCount),
		}
		pos += 12 + blockSize
	}

	totalKeys := int(binary.LittleEndian.Uint16(page.Data[pos:]))
	lenTableOffset := pos + 2

	valueEnd := page.Size()
	idx := 0
	for _, blk := range cl.Blocks {
		for k := 0; k < blk.KeyCount; k++ {
			vlen := int(binary.LittleEndian.Uint16(page.Data[lenTableOffset+idx*2:]))
			valueEnd -= vlen
			blk.Values[k] = append([]byte(nil), page.Data[valueEnd:valueEnd+vlen]...)
			idx++
		}
	}

	n.Compressed = cl
	n.NumKeys = uint16(totalKeys)
	n.Leaf = true
	n.Encoding = base.EncodingCompressedU32
}
