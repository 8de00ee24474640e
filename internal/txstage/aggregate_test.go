package txstage

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u32key(n uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n)
	return b
}

func TestRunSumAggregator(t *testing.T) {
	t.Parallel()

	tree := &sliceSource{pairs: [][2]string{}}
	staged := []Entry{
		{Key: u32key(1), Value: []byte("1")},
		{Key: u32key(2), Value: []byte("2")},
		{Key: u32key(3), Value: []byte("3")},
	}
	r := NewMergeReader(tree, staged)

	sum := &SumAggregator{Project: func(key []byte) int64 { return int64(binary.BigEndian.Uint32(key)) }}
	total, err := Run(r, sum)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
}

func TestRunCountAggregator(t *testing.T) {
	t.Parallel()

	tree := &sliceSource{pairs: [][2]string{{"a", "1"}, {"b", "2"}}}
	r := NewMergeReader(tree, nil)

	count, err := Run(r, &CountAggregator{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRunPredicateAggregatorFiltersRecords(t *testing.T) {
	t.Parallel()

	tree := &sliceSource{}
	staged := []Entry{
		{Key: u32key(1), Value: []byte("1")},
		{Key: u32key(2), Value: []byte("2")},
		{Key: u32key(3), Value: []byte("3")},
		{Key: u32key(4), Value: []byte("4")},
	}
	r := NewMergeReader(tree, staged)

	even := &PredicateAggregator{
		Predicate: func(key []byte) bool { return binary.BigEndian.Uint32(key)%2 == 0 },
		Inner:     &CountAggregator{},
	}
	count, err := Run(r, even)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
