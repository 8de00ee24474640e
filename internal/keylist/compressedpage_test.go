package keylist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordkv/internal/base"
)

func TestCompressedLeafPageRoundTrip(t *testing.T) {
	t.Parallel()

	n := &base.Node{Leaf: true, Encoding: base.EncodingCompressedU32, Compressed: &base.CompressedLeaf{}}
	var cbl CompressedBlockKeyList

	keys := []uint32{10, 20, 30, 5000, 5001, 5002, 90000}
	for _, k := range keys {
		inserted, err := cbl.Insert(n.Compressed, k, []byte("v-"+string(rune('a'+k%26))))
		require.NoError(t, err)
		require.True(t, inserted)
	}
	n.NumKeys = uint16(n.Compressed.TotalKeys())

	page := base.NewPage(base.DefaultPageSize)
	require.NoError(t, SerializeCompressedLeaf(n, page))

	var out base.Node
	DeserializeCompressedLeaf(page, &out)

	assert.Equal(t, base.EncodingCompressedU32, out.Encoding)
	assert.Equal(t, len(keys), out.Compressed.TotalKeys())

	for i, k := range keys {
		got := cbl.Select(out.Compressed, i)
		assert.Equal(t, k, got, "key at slot %d", i)
		wantVal := "v-" + string(rune('a'+k%26))
		assert.Equal(t, wantVal, string(cbl.Value(out.Compressed, i)))
	}
}

func TestCompressedLeafPageOverflow(t *testing.T) {
	t.Parallel()

	n := &base.Node{Leaf: true, Encoding: base.EncodingCompressedU32, Compressed: &base.CompressedLeaf{}}
	var cbl CompressedBlockKeyList

	// Use a tiny page so a modest number of keys overflows it.
	page := base.NewPage(64)
	for i := uint32(0); i < 20; i++ {
		inserted, err := cbl.Insert(n.Compressed, i, []byte("value-with-some-length"))
		require.NoError(t, err)
		require.True(t, inserted)
	}
	n.NumKeys = uint16(n.Compressed.TotalKeys())

	err := SerializeCompressedLeaf(n, page)
	assert.ErrorIs(t, err, base.ErrPageOverflow)
}
