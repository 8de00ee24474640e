package ordkv

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ordkv/internal/base"
)

// setup opens a fresh environment in a temp file, cleaned up automatically.
func setup(t *testing.T, opts ...DBOption) *DB {
	t.Helper()
	path := fmt.Sprintf("%s/%s.db", t.TempDir(), t.Name())
	db, err := Open(path, opts...)
	require.NoError(t, err, "Failed to open DB")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestInsertFindRoundTrip(t *testing.T) {
	t.Parallel()
	db := setup(t)

	status, err := db.Insert([]byte("hello"), []byte("world"), 0)
	require.NoError(t, err)
	assert.Equal(t, base.OK, status)

	key, val, approx, status, err := db.Find([]byte("hello"), FindExact)
	require.NoError(t, err)
	assert.Equal(t, base.OK, status)
	assert.Equal(t, ApproxNone, approx)
	assert.Equal(t, []byte("hello"), key)
	assert.Equal(t, []byte("world"), val)
}

func TestFindMissingKeyExact(t *testing.T) {
	t.Parallel()
	db := setup(t)

	_, err := db.Insert([]byte("a"), []byte("1"), 0)
	require.NoError(t, err)

	_, _, _, status, err := db.Find([]byte("z"), FindExact)
	assert.Equal(t, base.KeyNotFound, status)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestDuplicateKeyRejectedWithoutOverwrite(t *testing.T) {
	t.Parallel()
	db := setup(t)

	_, err := db.Insert([]byte("k"), []byte("v1"), 0)
	require.NoError(t, err)

	status, err := db.Insert([]byte("k"), []byte("v2"), 0)
	assert.Equal(t, base.DuplicateKey, status)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, val, _, _, err := db.Find([]byte("k"), FindExact)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), val)
}

func TestInsertOverwrite(t *testing.T) {
	t.Parallel()
	db := setup(t)

	_, err := db.Insert([]byte("k"), []byte("v1"), 0)
	require.NoError(t, err)

	status, err := db.Insert([]byte("k"), []byte("v2"), InsertOverwrite)
	require.NoError(t, err)
	assert.Equal(t, base.OK, status)

	_, val, _, _, err := db.Find([]byte("k"), FindExact)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), val)
}

func TestEraseRemovesKey(t *testing.T) {
	t.Parallel()
	db := setup(t)

	_, err := db.Insert([]byte("k"), []byte("v"), 0)
	require.NoError(t, err)

	status, err := db.Erase([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, base.OK, status)

	_, _, _, status, err = db.Find([]byte("k"), FindExact)
	assert.Equal(t, base.KeyNotFound, status)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestEraseMissingKey(t *testing.T) {
	t.Parallel()
	db := setup(t)

	status, err := db.Erase([]byte("nope"))
	assert.Equal(t, base.KeyNotFound, status)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

// TestSplitPreservesContents inserts enough keys to force at least one leaf
// split and verifies every key is still findable afterward.
func TestSplitPreservesContents(t *testing.T) {
	t.Parallel()
	db := setup(t, WithPageSize(1024))

	const n = 500
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%05d", i))
		val := []byte(fmt.Sprintf("value-%05d", i))
		status, err := db.Insert(key, val, 0)
		require.NoError(t, err)
		require.Equal(t, base.OK, status)
	}

	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%05d", i))
		want := []byte(fmt.Sprintf("value-%05d", i))
		_, val, _, status, err := db.Find(key, FindExact)
		require.NoError(t, err, "key %s", key)
		require.Equal(t, base.OK, status)
		assert.Equal(t, want, val)
	}
}

func TestFindApproximateNeighbors(t *testing.T) {
	t.Parallel()
	db := setup(t)

	for _, k := range []string{"b", "d", "f"} {
		_, err := db.Insert([]byte(k), []byte(k+"-val"), 0)
		require.NoError(t, err)
	}

	// "c" doesn't exist; FindGT should land on "d".
	key, _, approx, status, err := db.Find([]byte("c"), FindGT)
	require.NoError(t, err)
	assert.Equal(t, base.OK, status)
	assert.Equal(t, ApproxGreater, approx)
	assert.Equal(t, []byte("d"), key)

	// FindLT should land on "b".
	key, _, approx, status, err = db.Find([]byte("c"), FindLT)
	require.NoError(t, err)
	assert.Equal(t, base.OK, status)
	assert.Equal(t, ApproxLower, approx)
	assert.Equal(t, []byte("b"), key)
}

func TestLowerBoundScan(t *testing.T) {
	t.Parallel()
	db := setup(t)

	for _, k := range []string{"a", "c", "e", "g"} {
		_, err := db.Insert([]byte(k), []byte(k), 0)
		require.NoError(t, err)
	}

	c, status, err := db.LowerBound([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, base.OK, status)
	defer c.Close()

	var got []string
	key, err := c.CurrentKey()
	require.NoError(t, err)
	got = append(got, string(key))
	for {
		status, err := c.MoveNext()
		if status == base.KeyNotFound {
			break
		}
		require.NoError(t, err)
		key, err := c.CurrentKey()
		require.NoError(t, err)
		got = append(got, string(key))
	}

	assert.Equal(t, []string{"c", "e", "g"}, got)
}

// TestInsertFastPathForInteriorKey drives the last-insert hint fast path
// (spec §4.7): once a leaf holds "a" and "z", inserting "m" lands strictly
// inside that leaf's range and should be served without a fresh
// root-to-leaf descent.
func TestInsertFastPathForInteriorKey(t *testing.T) {
	t.Parallel()
	db := setup(t)

	for _, k := range []string{"a", "z"} {
		status, err := db.Insert([]byte(k), []byte(k+"-val"), 0)
		require.NoError(t, err)
		require.Equal(t, base.OK, status)
	}

	status, err := db.Insert([]byte("m"), []byte("m-val"), 0)
	require.NoError(t, err)
	require.Equal(t, base.OK, status)

	for _, k := range []string{"a", "m", "z"} {
		_, val, _, status, err := db.Find([]byte(k), FindExact)
		require.NoError(t, err)
		require.Equal(t, base.OK, status)
		assert.Equal(t, []byte(k+"-val"), val)
	}
}

// TestInsertFastPathDuplicateRejected confirms a duplicate key caught by
// the fast path behaves identically to the full-descent path: rejected
// without InsertOverwrite, applied with it.
func TestInsertFastPathDuplicateRejected(t *testing.T) {
	t.Parallel()
	db := setup(t)

	for _, k := range []string{"a", "m", "z"} {
		status, err := db.Insert([]byte(k), []byte(k+"-val"), 0)
		require.NoError(t, err)
		require.Equal(t, base.OK, status)
	}

	// The hint now points at the leaf holding a/m/z; re-inserting "m"
	// (interior, so eligible for the fast path) without InsertOverwrite
	// must still be rejected.
	status, err := db.Insert([]byte("m"), []byte("ignored"), 0)
	assert.Equal(t, base.DuplicateKey, status)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	status, err = db.Insert([]byte("m"), []byte("m-val2"), InsertOverwrite)
	require.NoError(t, err)
	assert.Equal(t, base.OK, status)

	_, val, _, status, err := db.Find([]byte("m"), FindExact)
	require.NoError(t, err)
	assert.Equal(t, base.OK, status)
	assert.Equal(t, []byte("m-val2"), val)
}

func TestStageAndCommit(t *testing.T) {
	t.Parallel()
	db := setup(t)

	_, err := db.Insert([]byte("committed"), []byte("1"), 0)
	require.NoError(t, err)

	db.Stage([]byte("staged"), []byte("2"))
	db.StageDelete([]byte("committed"))
	assert.Equal(t, 2, db.StagedLen())

	// Not yet visible to a direct Find, only through MergeScan.
	_, _, _, status, _ := db.Find([]byte("staged"), FindExact)
	assert.Equal(t, base.KeyNotFound, status)

	require.NoError(t, db.Commit())
	assert.Equal(t, 0, db.StagedLen())

	_, val, _, status, err := db.Find([]byte("staged"), FindExact)
	require.NoError(t, err)
	assert.Equal(t, base.OK, status)
	assert.Equal(t, []byte("2"), val)

	_, _, _, status, _ = db.Find([]byte("committed"), FindExact)
	assert.Equal(t, base.KeyNotFound, status)
}
