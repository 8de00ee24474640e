package pager

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordkv/internal/base"
	"ordkv/internal/wal"
)

func TestPagerAllocateGrowsFile(t *testing.T) {
	t.Parallel()
	p := mustOpen(t, Config{SyncMode: wal.SyncOff})

	first := p.Allocate()
	second := p.Allocate()
	assert.NotEqual(t, first, second)
}

func TestPagerPutFetchRoundTrip(t *testing.T) {
	t.Parallel()
	p := mustOpen(t, Config{SyncMode: wal.SyncOff, Encoding: base.EncodingVarBinary})

	id := p.Allocate()
	n := &base.Node{
		PageID:  id,
		Leaf:    true,
		Keys:    [][]byte{[]byte("a"), []byte("b")},
		Values:  [][]byte{[]byte("1"), []byte("2")},
		NumKeys: 2,
		Dirty:   true,
	}
	p.Put(n)

	got, err := p.Fetch(id)
	require.NoError(t, err)
	assert.Equal(t, n.Keys, got.Keys)
	assert.Equal(t, n.Values, got.Values)
}

func TestPagerFlushSurvivesReopen(t *testing.T) {
	t.Parallel()

	path := fmt.Sprintf("%s/reopen.db", t.TempDir())
	p, err := Open(path, Config{PageSize: base.DefaultPageSize, CacheSize: 64, SyncMode: wal.SyncOff, Encoding: base.EncodingVarBinary})
	require.NoError(t, err)

	id := p.Allocate()
	n := &base.Node{PageID: id, Leaf: true, Keys: [][]byte{[]byte("k")}, Values: [][]byte{[]byte("v")}, NumKeys: 1, Dirty: true}
	p.Put(n)
	p.SetRootPageID(id)
	require.NoError(t, p.Flush())
	require.NoError(t, p.Close())

	p2, err := Open(path, Config{PageSize: base.DefaultPageSize, CacheSize: 64, SyncMode: wal.SyncOff, Encoding: base.EncodingVarBinary})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p2.Close() })

	assert.Equal(t, id, p2.RootPageID())
	got, err := p2.Fetch(id)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("k")}, got.Keys)
}

func TestPagerFitsDetectsOverflow(t *testing.T) {
	t.Parallel()
	p := mustOpen(t, Config{PageSize: 1024, SyncMode: wal.SyncOff, Encoding: base.EncodingVarBinary})

	small := &base.Node{Leaf: true, Keys: [][]byte{[]byte("k")}, Values: [][]byte{[]byte("v")}, NumKeys: 1}
	assert.True(t, p.Fits(small))

	big := &base.Node{Leaf: true}
	for i := 0; i < 200; i++ {
		big.Keys = append(big.Keys, []byte(fmt.Sprintf("key-%04d", i)))
		big.Values = append(big.Values, []byte("some reasonably sized value payload"))
		big.NumKeys++
	}
	assert.False(t, p.Fits(big))
}

func mustOpen(t *testing.T, cfg Config) *Pager {
	t.Helper()
	if cfg.PageSize == 0 {
		cfg.PageSize = base.DefaultPageSize
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 64
	}
	path := fmt.Sprintf("%s/%s.db", t.TempDir(), t.Name())
	p, err := Open(path, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}
