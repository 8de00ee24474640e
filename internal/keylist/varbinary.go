package keylist

import (
	"encoding/binary"

	"ordkv/internal/base"
)

// ExtendedFlag marks a slot whose key is only a prefix; the full key lives
// in the blob store under the id trailing the slot (spec §4.4).
const ExtendedFlag uint8 = 0x01

// BlobStore is the minimal capability the var-binary key list needs from
// the (out-of-scope) blob store: allocate space for an oversized key or
// value and read it back by id. The B+tree package supplies a concrete
// implementation; keylist only depends on this interface.
type BlobStore interface {
	Put(data []byte) (base.PageID, error)
	Get(id base.PageID) ([]byte, error)
	Free(id base.PageID) error
}

// VarBinaryElement is the decoded form of one leaf slot's key/value
// descriptor for the uncompressed binary-with-offset-table key list.
type VarBinaryElement struct {
	KeyOffset   uint16
	KeySize     uint16
	ValueOffset uint16
	ValueSize   uint16
	Flags       uint8
}

// EncodeElement packs a VarBinaryElement into base.LeafElementSize bytes.
func EncodeElement(e VarBinaryElement) []byte {
	buf := make([]byte, base.LeafElementSize)
	binary.LittleEndian.PutUint16(buf[0:2], e.KeyOffset)
	binary.LittleEndian.PutUint16(buf[2:4], e.KeySize)
	binary.LittleEndian.PutUint16(buf[4:6], e.ValueOffset)
	binary.LittleEndian.PutUint16(buf[6:8], e.ValueSize)
	buf[8] = e.Flags
	return buf
}

// DecodeElement unpacks a VarBinaryElement from base.LeafElementSize bytes.
func DecodeElement(buf []byte) VarBinaryElement {
	return VarBinaryElement{
		KeyOffset:   binary.LittleEndian.Uint16(buf[0:2]),
		KeySize:     binary.LittleEndian.Uint16(buf[2:4]),
		ValueOffset: binary.LittleEndian.Uint16(buf[4:6]),
		ValueSize:   binary.LittleEndian.Uint16(buf[6:8]),
		Flags:       buf[8],
	}
}

// PrepareKeyForInsert decides how a candidate key should be stored inline
// given keysize, allocating a blob for the full key when it is too large.
//
// Error-handling rule (spec §7): the blob is allocated and the key is
// validated *before* the caller shifts any slots to make room, so a blob
// allocation failure aborts the insert with the leaf untouched.
func PrepareKeyForInsert(store BlobStore, key []byte, keysize int) (inline []byte, blobID base.PageID, extended bool, err error) {
	if len(key) <= keysize {
		return key, 0, false, nil
	}
	id, err := store.Put(key)
	if err != nil {
		return nil, 0, false, err
	}
	prefix := append([]byte(nil), key[:keysize]...)
	return prefix, id, true, nil
}

// FullKey resolves the true key bytes for a slot, following the blob
// reference when the slot is extended.
func FullKey(store BlobStore, inline []byte, blobID base.PageID, extended bool) ([]byte, error) {
	if !extended {
		return inline, nil
	}
	return store.Get(blobID)
}

// SerializeLeaf packs a var-binary-encoded leaf node's keys and values
// into page's payload, from the end backward, matching the teacher's
// pack-from-end layout (spec §6: "grown append-only" data area).
func SerializeLeaf(n *base.Node, page *base.Page) error {
	elemAreaSize := int(n.NumKeys) * base.LeafElementSize
	dataOffset := page.Size()

	for i := int(n.NumKeys) - 1; i >= 0; i-- {
		key := n.Keys[i]
		val := n.Values[i]

		dataOffset -= len(val)
		if dataOffset < base.PageHeaderSize+elemAreaSize {
			return base.ErrPageOverflow
		}
		copy(page.Data[dataOffset:], val)
		valOff := dataOffset

		dataOffset -= len(key)
		if dataOffset < base.PageHeaderSize+elemAreaSize {
			return base.ErrPageOverflow
		}
		copy(page.Data[dataOffset:], key)
		keyOff := dataOffset

		var flags uint8
		if n.ExtendedBlob != nil && n.ExtendedBlob[i] != 0 {
			flags = ExtendedFlag
			dataOffset -= 8
			if dataOffset < base.PageHeaderSize+elemAreaSize {
				return base.ErrPageOverflow
			}
			binary.LittleEndian.PutUint64(page.Data[dataOffset:], uint64(n.ExtendedBlob[i]))
		}
		elem := VarBinaryElement{
			KeyOffset:   uint16(keyOff),
			KeySize:     uint16(len(key)),
			ValueOffset: uint16(valOff),
			ValueSize:   uint16(len(val)),
			Flags:       flags,
		}
		copy(page.Data[base.PageHeaderSize+i*base.LeafElementSize:], EncodeElement(elem))
	}
	return nil
}

// DeserializeLeaf decodes a var-binary-encoded leaf page's payload into n.
func DeserializeLeaf(page *base.Page, n *base.Node) {
	h := page.Header()
	n.NumKeys = h.NumKeys
	n.Leaf = true
	n.Keys = make([][]byte, h.NumKeys)
	n.Values = make([][]byte, h.NumKeys)
	n.ExtendedBlob = make([]base.PageID, h.NumKeys)

	for i := 0; i < int(h.NumKeys); i++ {
		buf := page.Data[base.PageHeaderSize+i*base.LeafElementSize:]
		e := DecodeElement(buf)
		n.Keys[i] = append([]byte(nil), page.Data[e.KeyOffset:e.KeyOffset+e.KeySize]...)
		n.Values[i] = append([]byte(nil), page.Data[e.ValueOffset:e.ValueOffset+e.ValueSize]...)
		if e.Flags&ExtendedFlag != 0 {
			// The blob id for an extended key is packed immediately
			// before the key's inline prefix bytes (spec §4.4).
			blobBuf := page.Data[e.KeyOffset-8 : e.KeyOffset]
			n.ExtendedBlob[i] = base.PageID(binary.LittleEndian.Uint64(blobBuf))
		}
	}
}
