package txstage

import "bytes"

// LeafSource is the core-side ordered stream the merge reader consumes: a
// forward walk over B+tree (key, record) pairs (spec §4.6).
type LeafSource interface {
	// Next returns the next (key, record) pair in ascending order, or
	// ok=false once the walk is exhausted.
	Next() (key, record []byte, ok bool, err error)
}

// MergeReader merges a B+tree leaf walk with a staged snapshot into one
// ordered (key, record) stream. Tombstones are dropped; on a key present
// in both sources the staged entry wins (spec §4.6: "peek both heads,
// emit the smaller; on a tie the staged entry wins").
type MergeReader struct {
	tree   LeafSource
	staged []Entry
	si     int

	treeKey, treeVal []byte
	treeOK           bool
	treeErr          error
	treePrimed       bool
}

// NewMergeReader returns a reader over tree merged with a staged snapshot.
// staged must already be sorted by Key, as returned by Staging.Snapshot.
func NewMergeReader(tree LeafSource, staged []Entry) *MergeReader {
	return &MergeReader{tree: tree, staged: staged}
}

func (m *MergeReader) primeTree() {
	if m.treePrimed {
		return
	}
	m.treeKey, m.treeVal, m.treeOK, m.treeErr = m.tree.Next()
	m.treePrimed = true
}

// Next returns the next merged (key, record) pair, or ok=false when both
// sources are exhausted.
func (m *MergeReader) Next() (key, record []byte, ok bool, err error) {
	for {
		m.primeTree()
		if m.treeErr != nil {
			return nil, nil, false, m.treeErr
		}

		var s Entry
		stagedOK := m.si < len(m.staged)
		if stagedOK {
			s = m.staged[m.si]
		}

		switch {
		case !m.treeOK && !stagedOK:
			return nil, nil, false, nil

		case !m.treeOK:
			m.si++
			if s.Deleted {
				continue
			}
			return s.Key, s.Value, true, nil

		case !stagedOK:
			k, v := m.treeKey, m.treeVal
			m.treePrimed = false
			return k, v, true, nil

		default:
			cmp := bytes.Compare(m.treeKey, s.Key)
			switch {
			case cmp < 0:
				k, v := m.treeKey, m.treeVal
				m.treePrimed = false
				return k, v, true, nil
			case cmp > 0:
				m.si++
				if s.Deleted {
					continue
				}
				return s.Key, s.Value, true, nil
			default: // equal: staged entry shadows the committed one
				m.treePrimed = false
				m.si++
				if s.Deleted {
					continue
				}
				return s.Key, s.Value, true, nil
			}
		}
	}
}
