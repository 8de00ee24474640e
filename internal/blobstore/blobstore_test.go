package blobstore

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordkv/internal/base"
	"ordkv/internal/pager"
	"ordkv/internal/wal"
)

func openTestPager(t *testing.T, pageSize int) *pager.Pager {
	t.Helper()
	path := fmt.Sprintf("%s/%s.db", t.TempDir(), t.Name())
	p, err := pager.Open(path, pager.Config{
		PageSize:     pageSize,
		Encoding:     base.EncodingVarBinary,
		CacheSize:    64,
		SyncMode:     wal.SyncOff,
		BytesPerSync: 1 << 20,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestBlobStorePutGetSmall(t *testing.T) {
	t.Parallel()
	p := openTestPager(t, 4096)
	s := New(p)

	data := []byte("a short value")
	id, err := s.Put(data)
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestBlobStorePutGetSpansMultiplePages(t *testing.T) {
	t.Parallel()
	p := openTestPager(t, 1024)
	s := New(p)

	data := []byte(strings.Repeat("x", 5000))
	id, err := s.Put(data)
	require.NoError(t, err)

	got, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestBlobStoreFreeReleasesChain(t *testing.T) {
	t.Parallel()
	p := openTestPager(t, 1024)
	s := New(p)

	data := []byte(strings.Repeat("y", 3000))
	id, err := s.Put(data)
	require.NoError(t, err)

	chainLen := 0
	for cur := id; cur != 0; {
		page, ferr := p.ReadRaw(cur)
		require.NoError(t, ferr)
		chainLen++
		cur = page.Header().Right
	}
	require.Greater(t, chainLen, 1)

	require.NoError(t, s.Free(id))

	// Every page in the freed chain should be reusable, in whatever order
	// the free list happens to hand them back.
	reused := make(map[base.PageID]bool, chainLen)
	for i := 0; i < chainLen; i++ {
		reused[p.Allocate()] = true
	}
	assert.True(t, reused[id])
	assert.Equal(t, chainLen, len(reused))
}
