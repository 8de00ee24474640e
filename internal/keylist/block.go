package keylist

import (
	"errors"

	"ordkv/internal/base"
)

// ErrBlockFull is returned by InsertIntoBlock when the block already holds
// MaxKeysPerBlock keys; the caller (CompressedBlockKeyList) must split the
// block before retrying.
var ErrBlockFull = errors.New("keylist: block is at capacity")

// Select returns the key at the given slot within a single block (slot 0
// is always the anchor). Decodes group-by-group; CompressedBlockKeyList.Select
// walks the block directory to turn a leaf-global slot into a block-local one.
func Select(b *base.Block, slot int) uint32 {
	if slot == 0 {
		return b.Anchor
	}
	target := slot - 1 // index into the delta-encoded tail
	total := b.KeyCount - 1
	initial := b.Anchor
	pos := 0
	i := 0
	tmp := make([]uint32, 4)

	for b.UsedSize-pos > 1+4*4 && i+4 <= total {
		n := decodeGroupVarIntDelta(b.Encoded[pos:b.UsedSize], &initial, tmp)
		if target < i+4 {
			return tmp[target-i]
		}
		pos += n
		i += 4
	}
	// The tail may hold more than one partial group; keep decoding group by
	// group, same as DecodeSequence, until target falls inside the one just
	// decoded.
	for pos < b.UsedSize && i <= target {
		remaining := total - i
		n, decoded := decodeCarefully(b.Encoded[pos:b.UsedSize], &initial, tmp, remaining)
		if target < i+decoded {
			return tmp[target-i]
		}
		pos += n
		i += decoded
	}
	return 0
}

// FindLowerBound returns the block-local slot of the first key >= key,
// together with that key's value, and whether it is an exact match.
// If every key in the block is < key, slot == b.KeyCount is returned.
func FindLowerBound(b *base.Block, key uint32) (slot int, value uint32, exact bool) {
	if key <= b.Anchor {
		return 0, b.Anchor, key == b.Anchor
	}

	total := b.KeyCount - 1
	initial := b.Anchor
	pos := 0
	i := 1 // slot 0 is the anchor; tail values start at slot 1
	tmp := make([]uint32, 4)

	for b.UsedSize-pos > 1+4*4 && (i-1)+4 <= total {
		n := decodeGroupVarIntDelta(b.Encoded[pos:b.UsedSize], &initial, tmp)
		if key <= tmp[3] {
			for j := 0; j < 4; j++ {
				if key <= tmp[j] {
					return i + j, tmp[j], key == tmp[j]
				}
			}
		}
		pos += n
		i += 4
	}

	// The tail may hold more than one partial group; keep decoding group by
	// group, same as DecodeSequence, until every remaining value is checked.
	for pos < b.UsedSize && (i-1) < total {
		remaining := total - (i - 1)
		n, decoded := decodeCarefully(b.Encoded[pos:b.UsedSize], &initial, tmp, remaining)
		for j := 0; j < decoded; j++ {
			if key <= tmp[j] {
				return i + j, tmp[j], key == tmp[j]
			}
		}
		pos += n
		i += decoded
	}

	return b.KeyCount, 0, false
}

// InsertIntoBlock inserts key (with its associated record value) into b in
// ascending order. Returns (false, 0, nil) if key is already present
// (spec §4.3 duplicate rule: no modification). Returns ErrBlockFull if the
// block is already at MaxKeysPerBlock and must be split by the caller.
//
// The reference codec threads this through four cases (key<anchor;
// key beyond a group; key inside a decoded quad; key in the trailing
// partial group) to avoid re-encoding groups that don't change. This
// implementation decodes the whole block, splices the key into the
// ordered position, and re-encodes from the anchor -- functionally
// identical postconditions (ascending order, key_count+1, used_size
// reflects the re-encode) without needing to reason about a group that
// straddles the splice point. See DESIGN.md for the open-question
// resolution this simplification implies for a trailing group of exactly
// four entries.
func InsertIntoBlock(b *base.Block, key uint32, value []byte) (inserted bool, slot int, err error) {
	if b.KeyCount >= MaxKeysPerBlock {
		return false, 0, ErrBlockFull
	}

	vals := DecodeBlock(b)
	pos := 0
	for pos < len(vals) && vals[pos] < key {
		pos++
	}
	if pos < len(vals) && vals[pos] == key {
		return false, 0, nil
	}

	newVals := make([]uint32, len(vals)+1)
	copy(newVals, vals[:pos])
	newVals[pos] = key
	copy(newVals[pos+1:], vals[pos:])

	newValues := make([][]byte, len(b.Values)+1)
	copy(newValues, b.Values[:pos])
	newValues[pos] = value
	copy(newValues[pos+1:], b.Values[pos:])

	rebuilt := EncodeBlock(newVals)
	rebuilt.Values = newValues
	*b = *rebuilt

	return true, pos, nil
}

// Compress rebuilds a block's encoded byte region from its currently
// decoded key sequence. Exposed for callers (anchor replacement, block
// merges) that already have the plaintext sequence in hand.
func Compress(vals []uint32, values [][]byte) *base.Block {
	blk := EncodeBlock(vals)
	blk.Values = values
	return blk
}

// Uncompress is an alias for DecodeBlock kept for symmetry with Compress,
// matching the compress_block/uncompress_block naming in spec §4.3.
func Uncompress(b *base.Block) []uint32 {
	return DecodeBlock(b)
}
