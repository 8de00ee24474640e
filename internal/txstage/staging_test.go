package txstage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStagingPutOrdersByKey(t *testing.T) {
	t.Parallel()

	s := New()
	s.Put([]byte("c"), []byte("3"))
	s.Put([]byte("a"), []byte("1"))
	s.Put([]byte("b"), []byte("2"))

	snap := s.Snapshot()
	assert.Equal(t, 3, len(snap))
	assert.Equal(t, "a", string(snap[0].Key))
	assert.Equal(t, "b", string(snap[1].Key))
	assert.Equal(t, "c", string(snap[2].Key))
}

func TestStagingPutOverwritesExisting(t *testing.T) {
	t.Parallel()

	s := New()
	s.Put([]byte("a"), []byte("1"))
	s.Put([]byte("a"), []byte("2"))

	snap := s.Snapshot()
	assert.Equal(t, 1, len(snap))
	assert.Equal(t, "2", string(snap[0].Value))
}

func TestStagingDeleteRecordsTombstone(t *testing.T) {
	t.Parallel()

	s := New()
	s.Put([]byte("a"), []byte("1"))
	s.Delete([]byte("a"))

	snap := s.Snapshot()
	assert.Equal(t, 1, len(snap))
	assert.True(t, snap[0].Deleted)
}

func TestStagingClear(t *testing.T) {
	t.Parallel()

	s := New()
	s.Put([]byte("a"), []byte("1"))
	assert.Equal(t, 1, s.Len())
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Snapshot())
}
