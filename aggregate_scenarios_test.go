package ordkv

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"ordkv/internal/base"
	"ordkv/internal/keylist"
	"ordkv/internal/txstage"
)

func u32Key(v uint32) []byte { return keylist.EncodeUint32Key(v) }

func projectU32(key []byte) int64 { return int64(binary.BigEndian.Uint32(key)) }

// TestAggregateSumOverCommittedTree exercises spec §8 scenario 1: SUM over
// u32 keys 0..9 inserted directly into the tree, read back through
// DB.MergeScan with no staged entries.
func TestAggregateSumOverCommittedTree(t *testing.T) {
	t.Parallel()
	db := setup(t, WithKeyEncoding(base.EncodingCompressedU32))

	for i := uint32(0); i < 10; i++ {
		status, err := db.Insert(u32Key(i), []byte("v"), 0)
		require.NoError(t, err)
		require.Equal(t, base.OK, status)
	}

	reader, err := db.MergeScan()
	require.NoError(t, err)

	sum := &txstage.SumAggregator{Project: projectU32}
	total, err := txstage.Run(reader, sum)
	require.NoError(t, err)
	require.Equal(t, int64(45), total)
}

// TestAggregateCountAcrossCommittedAndStaged exercises spec §8 scenario 2:
// COUNT over a 0..99 committed stripe merged with a staged 100..119 stripe,
// then a further 120..299 committed stripe, for a total of 300 keys.
func TestAggregateCountAcrossCommittedAndStaged(t *testing.T) {
	t.Parallel()
	db := setup(t, WithKeyEncoding(base.EncodingCompressedU32))

	for i := uint32(0); i < 100; i++ {
		status, err := db.Insert(u32Key(i), []byte("v"), 0)
		require.NoError(t, err)
		require.Equal(t, base.OK, status)
	}
	for i := uint32(120); i < 300; i++ {
		status, err := db.Insert(u32Key(i), []byte("v"), 0)
		require.NoError(t, err)
		require.Equal(t, base.OK, status)
	}
	for i := uint32(100); i < 120; i++ {
		db.Stage(u32Key(i), []byte("v"))
	}
	require.Equal(t, 20, db.StagedLen())

	reader, err := db.MergeScan()
	require.NoError(t, err)

	count, err := txstage.Run(reader, &txstage.CountAggregator{})
	require.NoError(t, err)
	require.Equal(t, int64(300), count)
}

// TestAggregatePredicateEvenSumOverCommittedTree exercises spec §8 scenario
// 3: sum of the even keys among 0..9, via a PredicateAggregator wrapping a
// SumAggregator over a real MergeScan.
func TestAggregatePredicateEvenSumOverCommittedTree(t *testing.T) {
	t.Parallel()
	db := setup(t, WithKeyEncoding(base.EncodingCompressedU32))

	for i := uint32(0); i < 10; i++ {
		status, err := db.Insert(u32Key(i), []byte("v"), 0)
		require.NoError(t, err)
		require.Equal(t, base.OK, status)
	}

	reader, err := db.MergeScan()
	require.NoError(t, err)

	even := &txstage.PredicateAggregator{
		Predicate: func(key []byte) bool { return binary.BigEndian.Uint32(key)%2 == 0 },
		Inner:     &txstage.SumAggregator{Project: projectU32},
	}
	total, err := txstage.Run(reader, even)
	require.NoError(t, err)
	require.Equal(t, int64(20), total)
}
