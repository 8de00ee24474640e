// Package keylist implements the key-list strategies a leaf page's payload
// can be encoded with: uncompressed fixed-width keys, uncompressed binary
// keys with an offset table, and the group-varint compressed block codec
// for 32-bit unsigned integer keys (spec §4.3).
package keylist

import "ordkv/internal/base"

// Per-block constants for the group-varint codec, carried verbatim from
// the original implementation this codec is grounded on (see
// SPEC_FULL.md §12): a block holds at most 8 groups of 4 keys each.
const (
	MaxGroupVarintsPerBlock = 8
	MaxKeysPerBlock         = MaxGroupVarintsPerBlock * 4 // 32
	InitialBlockSize        = 17                          // 1 selector + 4*4 max bytes
	GrowFactor              = 17
)

// varintgbMask masks a little-endian read down to 1..4 significant bytes.
var varintgbMask = [4]uint32{0xFF, 0xFFFF, 0xFFFFFF, 0xFFFFFFFF}

// encodeArray group-varint-delta encodes length values from in, relative to
// a running delta base of initial, into out. Returns the number of bytes
// written. Mirrors the reference encodeArray: groups of 4 share one
// selector byte whose bit pairs (2i,2i+1) hold size_i-1 for the i-th value.
func encodeArray(initial uint32, in []uint32, out []byte) int {
	length := len(in)
	pos := 0
	k := 0
	for k+3 < length {
		selIdx := pos
		out[selIdx] = 0
		pos++
		for j := 0; j < 8 && k < length; j += 2 {
			val := in[k] - initial
			initial = in[k]
			pos += writeVarint(out[pos:], val, out, selIdx, j)
			k++
		}
	}
	if k < length {
		selIdx := pos
		out[selIdx] = 0
		pos++
		for j := 0; j < 8 && k < length; j += 2 {
			val := in[k] - initial
			initial = in[k]
			pos += writeVarint(out[pos:], val, out, selIdx, j)
			k++
		}
	}
	return pos
}

// writeVarint writes val in the fewest bytes needed (1..4) at out[0:],
// setting the (j,j+1) bit pair of out selector byte selIdx accordingly.
// Returns the number of payload bytes written.
func writeVarint(out []byte, val uint32, sel []byte, selIdx, j int) int {
	switch {
	case val < 1<<8:
		out[0] = byte(val)
		return 1
	case val < 1<<16:
		out[0] = byte(val)
		out[1] = byte(val >> 8)
		sel[selIdx] |= byte(1 << uint(j))
		return 2
	case val < 1<<24:
		out[0] = byte(val)
		out[1] = byte(val >> 8)
		out[2] = byte(val >> 16)
		sel[selIdx] |= byte(2 << uint(j))
		return 3
	default:
		out[0] = byte(val)
		out[1] = byte(val >> 8)
		out[2] = byte(val >> 16)
		out[3] = byte(val >> 24)
		sel[selIdx] |= byte(3 << uint(j))
		return 4
	}
}

// maxEncodedSize returns a safe upper bound on the number of bytes needed
// to group-varint encode n values (worst case: every value 4 bytes).
func maxEncodedSize(n int) int {
	groups := (n + 3) / 4
	return groups + n*4
}

// decodeGroupVarIntDelta decodes one full group of 4 deltas from in,
// updating the running value *val and writing 4 decoded absolute values to
// out. Returns the number of input bytes consumed (1 selector + payloads).
func decodeGroupVarIntDelta(in []byte, val *uint32, out []uint32) int {
	sel := in[0]
	consumed := 1
	for i := 0; i < 4; i++ {
		size := (sel >> uint(i*2)) & 3
		v := readLE(in[consumed:], int(size)+1) & varintgbMask[size]
		*val += v
		out[i] = *val
		consumed += int(size) + 1
	}
	return consumed
}

// decodeCarefully decodes min(count, 4) deltas from one group, typically a
// trailing partial group, using the same selector-byte format and reading
// only as many of the four slots as are meaningful. count may exceed 4
// (callers pass every value still remaining). Returns bytes consumed and
// the number of values actually decoded (min(count, 4)).
func decodeCarefully(in []byte, val *uint32, out []uint32, count int) (consumed, decoded int) {
	sel := in[0]
	consumed = 1
	for i := 0; i < count && i < 4; i++ {
		size := (sel >> uint(i*2)) & 3
		v := readLE(in[consumed:], int(size)+1) & varintgbMask[size]
		*val += v
		out[i] = *val
		consumed += int(size) + 1
	}
	decoded = count
	if decoded > 4 {
		decoded = 4
	}
	return consumed, decoded
}

func readLE(b []byte, n int) uint32 {
	var v uint32
	for i := 0; i < n && i < len(b); i++ {
		v |= uint32(b[i]) << uint(i*8)
	}
	return v
}

// DecodeSequence fully decodes nvalue deltas (relative to initial) from
// encoded[:usedSize], returning the absolute values. This is the codec's
// round-trip entry point used by the property tests in spec §8.
func DecodeSequence(initial uint32, encoded []byte, usedSize, nvalue int) []uint32 {
	out := make([]uint32, nvalue)
	pos := 0
	i := 0
	tmp := make([]uint32, 4)
	for usedSize-pos > 1+4*4 && i+4 <= nvalue {
		n := decodeGroupVarIntDelta(encoded[pos:usedSize], &initial, tmp)
		copy(out[i:i+4], tmp)
		pos += n
		i += 4
	}
	for pos < usedSize && i < nvalue {
		remaining := nvalue - i
		n, decoded := decodeCarefully(encoded[pos:usedSize], &initial, tmp, remaining)
		copy(out[i:i+decoded], tmp[:decoded])
		pos += n
		i += decoded
	}
	return out
}

// EncodeSequence encodes vals[1:] (vals[0] is the anchor, stored separately
// by the caller) as deltas from vals[0], returning the encoded byte slice
// sized exactly to the bytes used.
func EncodeSequence(vals []uint32) []byte {
	if len(vals) <= 1 {
		return nil
	}
	rest := vals[1:]
	buf := make([]byte, maxEncodedSize(len(rest)))
	n := encodeArray(vals[0], rest, buf)
	return buf[:n]
}

// EncodeBlock builds a fresh Block from an ascending sequence of keys
// (vals[0] is the anchor) with block-directory bookkeeping matching the
// per-block constraints in spec §4.3.
func EncodeBlock(vals []uint32) *base.Block {
	enc := EncodeSequence(vals)
	size := InitialBlockSize
	for size < len(enc) {
		size += GrowFactor
	}
	encoded := make([]byte, size)
	copy(encoded, enc)
	return &base.Block{
		Anchor:    vals[0],
		KeyCount:  len(vals),
		BlockSize: size,
		UsedSize:  len(enc),
		Encoded:   encoded,
		Values:    make([][]byte, len(vals)),
	}
}

// DecodeBlock returns the full ascending key sequence stored in b,
// including the anchor.
func DecodeBlock(b *base.Block) []uint32 {
	out := make([]uint32, b.KeyCount)
	out[0] = b.Anchor
	if b.KeyCount > 1 {
		rest := DecodeSequence(b.Anchor, b.Encoded, b.UsedSize, b.KeyCount-1)
		copy(out[1:], rest)
	}
	return out
}
