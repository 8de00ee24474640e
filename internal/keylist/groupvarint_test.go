package keylist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeBlockDecodeBlockRoundTrip(t *testing.T) {
	t.Parallel()

	cases := [][]uint32{
		{10},
		{10, 20, 30},
		{0, 1, 2, 3, 4, 5},
		{100, 5000, 5001, 90000, 90001, 4294967295},
	}

	for _, vals := range cases {
		blk := EncodeBlock(vals)
		got := DecodeBlock(blk)
		assert.Equal(t, vals, got)
	}
}

func TestEncodeSequenceEmptyForSingleValue(t *testing.T) {
	t.Parallel()
	assert.Nil(t, EncodeSequence([]uint32{42}))
}

func TestDecodeSequenceRoundTrip(t *testing.T) {
	t.Parallel()

	vals := []uint32{10, 15, 15000, 15001, 70000}
	encoded := EncodeSequence(vals)

	got := DecodeSequence(vals[0], encoded, len(encoded), len(vals)-1)
	assert.Equal(t, vals[1:], got)
}

// TestDecodeSequenceExactlyFourValueTrailingGroup covers the trailing
// partial group holding exactly 4 values (spec §9): the whole tail is one
// group with no remainder, below the fast-loop's read-ahead threshold, so
// it must go through decodeCarefully's count==4 path rather than the fast
// loop's unconditional 4-at-a-time decode.
func TestDecodeSequenceExactlyFourValueTrailingGroup(t *testing.T) {
	t.Parallel()

	vals := []uint32{0, 1, 2, 3, 4}
	blk := EncodeBlock(vals)
	assert.Equal(t, vals, DecodeBlock(blk))

	got := DecodeSequence(vals[0], blk.Encoded, blk.UsedSize, len(vals)-1)
	assert.Equal(t, vals[1:], got)
}

// TestDecodeSequenceTwoExactFourValueGroups covers a tail made of two
// back-to-back exactly-4-value groups, small enough in bytes that the fast
// loop's read-ahead threshold is still never crossed, so both groups are
// decoded by the careful loop.
func TestDecodeSequenceTwoExactFourValueGroups(t *testing.T) {
	t.Parallel()

	vals := []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8}
	blk := EncodeBlock(vals)
	assert.Equal(t, vals, DecodeBlock(blk))

	got := DecodeSequence(vals[0], blk.Encoded, blk.UsedSize, len(vals)-1)
	assert.Equal(t, vals[1:], got)
}
