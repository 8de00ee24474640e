package txstage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource is a LeafSource over an in-memory, pre-sorted slice, used to
// exercise MergeReader without a real B+tree.
type sliceSource struct {
	pairs [][2]string
	i     int
}

func (s *sliceSource) Next() ([]byte, []byte, bool, error) {
	if s.i >= len(s.pairs) {
		return nil, nil, false, nil
	}
	p := s.pairs[s.i]
	s.i++
	return []byte(p[0]), []byte(p[1]), true, nil
}

func drain(t *testing.T, r *MergeReader) []string {
	t.Helper()
	var got []string
	for {
		k, v, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, string(k)+"="+string(v))
	}
	return got
}

func TestMergeReaderInterleavesBothSources(t *testing.T) {
	t.Parallel()

	tree := &sliceSource{pairs: [][2]string{{"a", "tree-a"}, {"c", "tree-c"}, {"e", "tree-e"}}}
	staged := []Entry{
		{Key: []byte("b"), Value: []byte("staged-b")},
		{Key: []byte("d"), Value: []byte("staged-d")},
	}

	r := NewMergeReader(tree, staged)
	got := drain(t, r)
	assert.Equal(t, []string{"a=tree-a", "b=staged-b", "c=tree-c", "d=staged-d", "e=tree-e"}, got)
}

func TestMergeReaderStagedWinsTie(t *testing.T) {
	t.Parallel()

	tree := &sliceSource{pairs: [][2]string{{"a", "tree-a"}, {"b", "tree-b"}}}
	staged := []Entry{{Key: []byte("a"), Value: []byte("staged-a")}}

	r := NewMergeReader(tree, staged)
	got := drain(t, r)
	assert.Equal(t, []string{"a=staged-a", "b=tree-b"}, got)
}

func TestMergeReaderTombstoneDropsKey(t *testing.T) {
	t.Parallel()

	tree := &sliceSource{pairs: [][2]string{{"a", "tree-a"}, {"b", "tree-b"}}}
	staged := []Entry{{Key: []byte("a"), Deleted: true}}

	r := NewMergeReader(tree, staged)
	got := drain(t, r)
	assert.Equal(t, []string{"b=tree-b"}, got)
}

func TestMergeReaderTombstoneOfNonExistentKey(t *testing.T) {
	t.Parallel()

	tree := &sliceSource{pairs: [][2]string{{"a", "tree-a"}}}
	staged := []Entry{{Key: []byte("zz"), Deleted: true}}

	r := NewMergeReader(tree, staged)
	got := drain(t, r)
	assert.Equal(t, []string{"a=tree-a"}, got)
}

func TestMergeReaderEmptyBothSides(t *testing.T) {
	t.Parallel()

	r := NewMergeReader(&sliceSource{}, nil)
	got := drain(t, r)
	assert.Empty(t, got)
}
