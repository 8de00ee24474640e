package ordkv

import (
	"ordkv/internal/base"
	"ordkv/internal/txstage"
)

// cursorSource adapts a Cursor's ascending walk into the txstage.LeafSource
// interface, so the merge protocol never has to know about pages, nodes,
// or key encodings (spec §4.6).
type cursorSource struct {
	cursor  *Cursor
	started bool
	done    bool
}

func (s *cursorSource) Next() (key, record []byte, ok bool, err error) {
	if s.done {
		return nil, nil, false, nil
	}
	if !s.started {
		s.started = true
	} else if status, merr := s.cursor.MoveNext(); merr != nil {
		s.done = true
		if status == base.KeyNotFound {
			return nil, nil, false, nil
		}
		return nil, nil, false, merr
	}

	key, err = s.cursor.CurrentKey()
	if err != nil {
		s.done = true
		if err == ErrCursorNil {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	record, err = s.cursor.CurrentValue()
	if err != nil {
		return nil, nil, false, err
	}
	return key, record, true, nil
}

// emptySource is a txstage.LeafSource over an empty tree.
type emptySource struct{}

func (emptySource) Next() ([]byte, []byte, bool, error) { return nil, nil, false, nil }

// MergeScan returns a reader walking the committed tree merged with a
// snapshot of the current staging area, staged entries winning ties
// (spec §4.6).
func (db *DB) MergeScan() (*txstage.MergeReader, error) {
	c, status, err := db.tree.First()
	if err != nil {
		if status == base.KeyNotFound {
			return txstage.NewMergeReader(emptySource{}, db.staging.Snapshot()), nil
		}
		return nil, err
	}
	return txstage.NewMergeReader(&cursorSource{cursor: c}, db.staging.Snapshot()), nil
}
