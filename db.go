package ordkv

import (
	"ordkv/internal/base"
	"ordkv/internal/blobstore"
	"ordkv/internal/pager"
	"ordkv/internal/txstage"
)

// DB is one open environment: a B+tree index over a pager-managed file,
// plus the transaction staging area layered on top of it (spec §1, §2).
// Insert and Erase each commit directly to the tree in their own
// transaction; Stage/StageDelete/Commit instead buffer writes in Staging
// until Commit applies them as a batch, and MergeScan lets a reader
// observe staged writes without committing them first.
type DB struct {
	pager   *pager.Pager
	blobs   *blobstore.Store
	tree    *BTree
	staging *txstage.Staging
	opts    DBOptions
}

// Open opens or creates the environment file at path.
func Open(path string, opts ...DBOption) (*DB, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p, err := pager.Open(path, pager.Config{
		PageSize:     o.PageSize,
		Encoding:     o.Encoding,
		CacheSize:    o.CacheSize,
		SyncMode:     o.SyncMode,
		BytesPerSync: o.BytesPerSync,
		UseDirectIO:  o.UseDirectIO,
	})
	if err != nil {
		return nil, err
	}

	blobs := blobstore.New(p)
	tree := newBTree(p, blobs, o.Encoding, o.KeySize, o.Logger)

	return &DB{
		pager:   p,
		blobs:   blobs,
		tree:    tree,
		staging: txstage.New(),
		opts:    o,
	}, nil
}

// Close syncs the WAL and closes the environment's WAL and database files.
func (db *DB) Close() error {
	return db.pager.Close()
}

// Find looks up key, honoring flags for approximate-match behavior
// (spec §4.1).
func (db *DB) Find(key []byte, flags FindFlags) ([]byte, []byte, Approx, base.Status, error) {
	return db.tree.Find(key, flags)
}

// Insert writes key/value directly to the tree as its own transaction
// (spec §4.2).
func (db *DB) Insert(key, value []byte, flags InsertFlags) (base.Status, error) {
	return db.tree.Insert(key, value, flags)
}

// Erase removes key directly from the tree as its own transaction
// (spec §6).
func (db *DB) Erase(key []byte) (base.Status, error) {
	return db.tree.Erase(key)
}

// LowerBound returns a cursor coupled to the first key >= key.
func (db *DB) LowerBound(key []byte) (*Cursor, base.Status, error) {
	return db.tree.LowerBound(key)
}

// NewCursor returns a nil cursor over this environment's tree.
func (db *DB) NewCursor() *Cursor {
	return db.tree.NewCursor()
}

// Stats returns the fast-track lookup hints currently held, mainly for
// tests and diagnostics.
func (db *DB) Stats() Statistics {
	return db.tree.stats
}

// Stage records a pending Put in the staging area without touching the
// tree (spec §2 module TransactionStaging).
func (db *DB) Stage(key, value []byte) {
	db.staging.Put(key, value)
}

// StageDelete records a pending tombstone in the staging area.
func (db *DB) StageDelete(key []byte) {
	db.staging.Delete(key)
}

// StagedLen reports how many keys are currently staged.
func (db *DB) StagedLen() int {
	return db.staging.Len()
}

// Commit applies every staged entry to the tree, in staged order, then
// clears the staging area. A failed entry aborts the commit with the
// staging area left holding only the entries not yet applied.
func (db *DB) Commit() error {
	pending := db.staging.Snapshot()
	for i, e := range pending {
		if e.Deleted {
			if _, err := db.tree.Erase(e.Key); err != nil && err != ErrKeyNotFound {
				db.requeue(pending[i:])
				return err
			}
			continue
		}
		if _, err := db.tree.Insert(e.Key, e.Value, InsertOverwrite); err != nil {
			db.requeue(pending[i:])
			return err
		}
	}
	db.staging.Clear()
	return nil
}

func (db *DB) requeue(remaining []txstage.Entry) {
	db.staging.Clear()
	for _, e := range remaining {
		if e.Deleted {
			db.staging.Delete(e.Key)
			continue
		}
		db.staging.Put(e.Key, e.Value)
	}
}
