package keylist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordkv/internal/base"
)

// TestInsertBelowAnchorReplacesAnchor exercises the anchor-replacement case
// (spec §4.3 case 1): inserting a key smaller than a block's anchor makes
// the new key the anchor and grows key_count by one.
func TestInsertBelowAnchorReplacesAnchor(t *testing.T) {
	t.Parallel()

	cl := &base.CompressedLeaf{}
	var cbl CompressedBlockKeyList

	for _, k := range []uint32{100, 200, 300} {
		inserted, err := cbl.Insert(cl, k, []byte("v"))
		require.NoError(t, err)
		require.True(t, inserted)
	}
	require.Equal(t, uint32(100), cl.Blocks[0].Anchor)
	require.Equal(t, 3, cl.Blocks[0].KeyCount)

	inserted, err := cbl.Insert(cl, 50, []byte("v-50"))
	require.NoError(t, err)
	require.True(t, inserted)

	assert.Equal(t, uint32(50), cl.Blocks[0].Anchor)
	assert.Equal(t, 4, cl.Blocks[0].KeyCount)

	got := DecodeBlock(cl.Blocks[0])
	assert.Equal(t, []uint32{50, 100, 200, 300}, got)

	slot, val, exact := cbl.FindLowerBound(cl, 50)
	assert.Equal(t, 0, slot)
	assert.Equal(t, uint32(50), val)
	assert.True(t, exact)
	assert.Equal(t, []byte("v-50"), cbl.Value(cl, 0))
}

// TestInsertBelowAnchorAfterBlockSplit confirms the anchor-replacement path
// still applies correctly once a leaf holds more than one block: a key
// below the leftmost block's anchor becomes that block's new anchor, and
// the other blocks are untouched.
func TestInsertBelowAnchorAfterBlockSplit(t *testing.T) {
	t.Parallel()

	cl := &base.CompressedLeaf{}
	var cbl CompressedBlockKeyList

	for k := uint32(1000); k < uint32(1000+MaxKeysPerBlock); k++ {
		inserted, err := cbl.Insert(cl, k, []byte("v"))
		require.NoError(t, err)
		require.True(t, inserted)
	}
	require.Len(t, cl.Blocks, 1)

	// One more insert overflows the block and forces a split.
	inserted, err := cbl.Insert(cl, uint32(1000+MaxKeysPerBlock), []byte("v"))
	require.NoError(t, err)
	require.True(t, inserted)
	require.Len(t, cl.Blocks, 2)
	rightAnchor := cl.Blocks[1].Anchor

	inserted, err = cbl.Insert(cl, 0, []byte("v-0"))
	require.NoError(t, err)
	require.True(t, inserted)

	assert.Equal(t, uint32(0), cl.Blocks[0].Anchor)
	assert.Equal(t, rightAnchor, cl.Blocks[1].Anchor)

	slot, val, exact := cbl.FindLowerBound(cl, 0)
	assert.Equal(t, 0, slot)
	assert.Equal(t, uint32(0), val)
	assert.True(t, exact)
}

// TestOutOfOrderInsertRoundTrip inserts keys in a scrambled, non-ascending
// order across several blocks and confirms every key/value pair is still
// reachable in ascending slot order afterward.
func TestOutOfOrderInsertRoundTrip(t *testing.T) {
	t.Parallel()

	cl := &base.CompressedLeaf{}
	var cbl CompressedBlockKeyList

	order := []uint32{500, 100, 900, 50, 700, 10, 800, 20, 600, 5}
	values := map[uint32][]byte{}
	for _, k := range order {
		v := []byte("val-" + string(rune('a'+k%26)))
		values[k] = v
		inserted, err := cbl.Insert(cl, k, v)
		require.NoError(t, err)
		require.True(t, inserted)
	}

	sorted := append([]uint32(nil), order...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}

	for i, k := range sorted {
		assert.Equal(t, k, cbl.Select(cl, i), "slot %d", i)
		assert.Equal(t, values[k], cbl.Value(cl, i), "slot %d", i)
	}

	dup, err := cbl.Insert(cl, sorted[0], []byte("ignored"))
	require.NoError(t, err)
	assert.False(t, dup)
}
