// Package algo contains algorithms used for traversing and editing a b+ tree.
package algo

import (
	"bytes"
	"sort"

	"ordkv/internal/base"
)

// searchThreshold is the key count above which binary search beats a
// linear scan for these small, cache-resident nodes.
const searchThreshold = 32

// FindChildIndex returns the index of the child pointer to follow for key
// in a branch node: the number of separator keys <= key (left-separator
// convention, spec §3).
func FindChildIndex(n *base.Node, key []byte) int {
	numKeys := int(n.NumKeys)
	if numKeys < searchThreshold {
		i := 0
		for i < numKeys && bytes.Compare(key, n.Keys[i]) >= 0 {
			i++
		}
		return i
	}
	return sort.Search(numKeys, func(i int) bool {
		return bytes.Compare(key, n.Keys[i]) < 0
	})
}

// FindKeyInLeaf returns the index of key in a leaf's Keys, or -1 if absent.
func FindKeyInLeaf(n *base.Node, key []byte) int {
	numKeys := int(n.NumKeys)
	if numKeys < searchThreshold {
		for i := 0; i < numKeys; i++ {
			if bytes.Equal(key, n.Keys[i]) {
				return i
			}
		}
		return -1
	}
	idx := sort.Search(numKeys, func(i int) bool {
		return bytes.Compare(n.Keys[i], key) >= 0
	})
	if idx < numKeys && bytes.Equal(n.Keys[idx], key) {
		return idx
	}
	return -1
}

// FindLowerBound returns the slot of the first key >= key in a leaf, and a
// three-way comparison result at that slot: 0 if equal (exact hit), -1 if
// every key is < key (slot == numKeys), +1 if the returned slot's key is
// strictly greater than key. This is the leaf-level primitive behind
// find(..., approximate flags) in spec §4.1.
func FindLowerBound(n *base.Node, key []byte) (slot int, cmp int) {
	numKeys := int(n.NumKeys)
	pos := sort.Search(numKeys, func(i int) bool {
		return bytes.Compare(n.Keys[i], key) >= 0
	})
	if pos == numKeys {
		return pos, -1
	}
	if bytes.Equal(n.Keys[pos], key) {
		return pos, 0
	}
	return pos, 1
}

// FindInsertPosition returns the position at which key should be inserted
// to keep a leaf's Keys strictly ascending.
func FindInsertPosition(n *base.Node, key []byte) int {
	numKeys := int(n.NumKeys)
	if numKeys < searchThreshold {
		pos := 0
		for pos < numKeys && bytes.Compare(key, n.Keys[pos]) > 0 {
			pos++
		}
		return pos
	}
	return sort.Search(numKeys, func(i int) bool {
		return bytes.Compare(key, n.Keys[i]) <= 0
	})
}

// FindDeleteChildIndex locates the child index to descend into while
// erasing key from a branch subtree; identical convention to
// FindChildIndex, split out so callers documenting delete-path descent
// don't have to explain why a find-path helper is reused.
func FindDeleteChildIndex(n *base.Node, key []byte) int {
	return FindChildIndex(n, key)
}

// SplitPoint describes where a full node should be divided.
type SplitPoint struct {
	// Mid is the pivot index: for a leaf, the first key kept on the right
	// side; for a branch, the entry promoted to the parent and removed
	// from both halves.
	Mid int
	// SeparatorKey is the key promoted to the parent.
	SeparatorKey []byte
}

// CalculateSplitPointWithHint picks the pivot index for a full node (spec
// §4.2): floor(count/2) in general, or count-4 for a record-number index
// with more than 8 keys so sequential appends keep the left leaf mostly
// full instead of half-splitting on every insert.
func CalculateSplitPointWithHint(n *base.Node) SplitPoint {
	count := int(n.NumKeys)
	if count == 0 {
		panic("algo: cannot split an empty node")
	}

	var mid int
	if n.Recno && count > 8 {
		mid = count - 4
	} else {
		mid = count / 2
	}
	if mid < 1 {
		mid = 1
	}
	if mid > count-1 {
		mid = count - 1
	}

	sep := append([]byte(nil), n.Keys[mid]...)
	return SplitPoint{Mid: mid, SeparatorKey: sep}
}

// ExtractRightPortion splits n's Keys/Values (or Children, for a branch)
// at sp.Mid, returning the elements that move to the new right sibling and
// truncating n in place to keep only the left portion. Keys moved to the
// right node are copied, so it shares no key bytes with n.
//
// For a leaf, [0,Mid) stays left and [Mid,count) moves right; the
// separator promoted to the parent is the first right key (Keys[Mid],
// still present in the right node -- leaf separators are inclusive
// copies, spec §3). For a branch, [0,Mid) stays left, the entry at Mid is
// the promoted separator and is dropped from both halves, and
// [Mid+1,count) moves right; Children keeps one more entry than Keys on
// each side.
func ExtractRightPortion(n *base.Node, sp SplitPoint) *base.Node {
	right := &base.Node{
		Leaf:     n.Leaf,
		Recno:    n.Recno,
		Encoding: n.Encoding,
		Dirty:    true,
	}

	if n.IsLeaf() {
		right.Keys = make([][]byte, 0, len(n.Keys)-sp.Mid)
		for _, k := range n.Keys[sp.Mid:] {
			right.Keys = append(right.Keys, append([]byte(nil), k...))
		}
		right.Values = append([][]byte(nil), n.Values[sp.Mid:]...)
		if n.ExtendedBlob != nil {
			right.ExtendedBlob = append([]base.PageID(nil), n.ExtendedBlob[sp.Mid:]...)
		}
		right.NumKeys = uint16(len(right.Keys))
		right.Right = n.Right
		right.Left = n.PageID // caller assigns the real new PageID and rewires

		n.Keys = n.Keys[:sp.Mid]
		n.Values = n.Values[:sp.Mid]
		if n.ExtendedBlob != nil {
			n.ExtendedBlob = n.ExtendedBlob[:sp.Mid]
		}
		n.NumKeys = uint16(len(n.Keys))
		n.Dirty = true
		return right
	}

	right.Keys = make([][]byte, 0, len(n.Keys)-sp.Mid-1)
	for _, k := range n.Keys[sp.Mid+1:] {
		right.Keys = append(right.Keys, append([]byte(nil), k...))
	}
	right.Children = append([]base.PageID(nil), n.Children[sp.Mid+1:]...)
	right.NumKeys = uint16(len(right.Keys))

	n.Keys = n.Keys[:sp.Mid]
	n.Children = n.Children[:sp.Mid+1]
	n.NumKeys = uint16(len(n.Keys))
	n.Dirty = true
	return right
}

// InsertAt inserts value at index in a [][]byte slice, deep-copying value
// so the caller's buffer can't alias node storage.
func InsertAt(slice [][]byte, index int, value []byte) [][]byte {
	cp := append([]byte(nil), value...)
	slice = append(slice, nil)
	copy(slice[index+1:], slice[index:])
	slice[index] = cp
	return slice
}

// RemoveAt removes the element at index from a [][]byte slice.
func RemoveAt(slice [][]byte, index int) [][]byte {
	return append(slice[:index], slice[index+1:]...)
}

// InsertPageIDAt inserts id at index in a []base.PageID slice.
func InsertPageIDAt(slice []base.PageID, index int, id base.PageID) []base.PageID {
	slice = append(slice, 0)
	copy(slice[index+1:], slice[index:])
	slice[index] = id
	return slice
}

// RemovePageIDAt removes the element at index from a []base.PageID slice.
func RemovePageIDAt(slice []base.PageID, index int) []base.PageID {
	return append(slice[:index], slice[index+1:]...)
}
