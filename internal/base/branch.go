package base

import "encoding/binary"

// branchElement is the decoded form of one branch slot: a separator key
// and the child to its right. The leftmost child (with no separator of
// its own) is stored at a fixed offset at the end of the page instead of
// as element -1, so every element has a uniform 16-byte layout:
// KeyOffset(2) KeySize(2) Reserved(4) ChildID(8).
type branchElement struct {
	KeyOffset uint16
	KeySize   uint16
	ChildID   PageID
}

func encodeBranchElement(e branchElement) []byte {
	buf := make([]byte, BranchElementSize)
	binary.LittleEndian.PutUint16(buf[0:2], e.KeyOffset)
	binary.LittleEndian.PutUint16(buf[2:4], e.KeySize)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.ChildID))
	return buf
}

func decodeBranchElement(buf []byte) branchElement {
	return branchElement{
		KeyOffset: binary.LittleEndian.Uint16(buf[0:2]),
		KeySize:   binary.LittleEndian.Uint16(buf[2:4]),
		ChildID:   PageID(binary.LittleEndian.Uint64(buf[8:16])),
	}
}

// SerializeBranch packs a branch node's separator keys and child pointers
// into page's payload. The leftmost child occupies the fixed last 8 bytes
// of the page; keys are packed from the end of the remaining space
// backward, same convention as the leaf codec.
func SerializeBranch(n *Node, page *Page) error {
	elemAreaSize := int(n.NumKeys) * BranchElementSize
	firstChildOffset := page.Size() - 8
	binary.LittleEndian.PutUint64(page.Data[firstChildOffset:], uint64(n.Children[0]))

	dataOffset := firstChildOffset
	for i := int(n.NumKeys) - 1; i >= 0; i-- {
		key := n.Keys[i]

		dataOffset -= len(key)
		if dataOffset < PageHeaderSize+elemAreaSize {
			return ErrPageOverflow
		}
		copy(page.Data[dataOffset:], key)

		elem := branchElement{
			KeyOffset: uint16(dataOffset),
			KeySize:   uint16(len(key)),
			ChildID:   n.Children[i+1],
		}
		copy(page.Data[PageHeaderSize+i*BranchElementSize:], encodeBranchElement(elem))
	}
	return nil
}

// DeserializeBranch decodes a branch page's payload into n.
func DeserializeBranch(page *Page, n *Node) {
	h := page.Header()
	n.NumKeys = h.NumKeys
	n.Leaf = false
	n.Keys = make([][]byte, h.NumKeys)
	n.Children = make([]PageID, h.NumKeys+1)

	firstChildOffset := page.Size() - 8
	n.Children[0] = PageID(binary.LittleEndian.Uint64(page.Data[firstChildOffset:]))

	for i := 0; i < int(h.NumKeys); i++ {
		buf := page.Data[PageHeaderSize+i*BranchElementSize:]
		e := decodeBranchElement(buf)
		n.Keys[i] = append([]byte(nil), page.Data[e.KeyOffset:e.KeyOffset+e.KeySize]...)
		n.Children[i+1] = e.ChildID
	}
}
