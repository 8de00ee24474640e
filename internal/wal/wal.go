// Package wal implements write-ahead logging for crash recovery: page
// writes and commit markers are appended before the corresponding pages
// are written in place, so a crash mid-write can be replayed forward.
package wal

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"

	"ordkv/internal/base"
)

// SyncMode controls when the WAL is fsynced to disk.
type SyncMode int

const (
	// SyncEveryCommit fsyncs on every transaction commit.
	SyncEveryCommit SyncMode = iota
	// SyncBytes fsyncs once bytesPerSync bytes have been written.
	SyncBytes
	// SyncOff never fsyncs; only appropriate for tests and bulk loads.
	SyncOff
)

// Record types.
const (
	RecordPage   uint8 = 1
	RecordCommit uint8 = 2
)

// recordHeaderSize is [Type:1][TxnID:8][PageID:8][DataLen:4][Checksum:8].
const recordHeaderSize = 1 + 8 + 8 + 4 + 8

// WAL appends page and commit records to a single append-only file.
type WAL struct {
	file *os.File
	mu   sync.Mutex

	syncMode       SyncMode
	bytesPerSync   int
	bytesSinceSync int
}

// Open opens or creates the WAL file at path.
func Open(path string, mode SyncMode, bytesPerSync int) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}
	return &WAL{file: file, syncMode: mode, bytesPerSync: bytesPerSync}, nil
}

// AppendPage writes a page record: header, checksum, then the raw page
// bytes. The checksum covers the page bytes only (xxhash64, spec.md §11
// wiring: WAL records use xxhash rather than the meta page's CRC32).
func (w *WAL) AppendPage(txnID uint64, pageID base.PageID, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	header := make([]byte, recordHeaderSize)
	header[0] = RecordPage
	binary.LittleEndian.PutUint64(header[1:9], txnID)
	binary.LittleEndian.PutUint64(header[9:17], uint64(pageID))
	binary.LittleEndian.PutUint32(header[17:21], uint32(len(data)))
	binary.LittleEndian.PutUint64(header[21:29], xxhash.Sum64(data))

	if _, err := w.file.Write(header); err != nil {
		return err
	}
	if _, err := w.file.Write(data); err != nil {
		return err
	}

	written := len(header) + len(data)
	w.bytesSinceSync += written
	return nil
}

// AppendCommit writes a commit marker for txnID.
func (w *WAL) AppendCommit(txnID uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	header := make([]byte, recordHeaderSize)
	header[0] = RecordCommit
	binary.LittleEndian.PutUint64(header[1:9], txnID)

	if _, err := w.file.Write(header); err != nil {
		return err
	}
	w.bytesSinceSync += len(header)
	return nil
}

// Sync fsyncs the WAL if the configured sync mode calls for it now.
func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.syncMode {
	case SyncEveryCommit:
		return w.syncLocked()
	case SyncBytes:
		if w.bytesSinceSync >= w.bytesPerSync {
			return w.syncLocked()
		}
		return nil
	case SyncOff:
		return nil
	default:
		return fmt.Errorf("wal: unknown sync mode %d", w.syncMode)
	}
}

// ForceSync fsyncs unconditionally, used on Close.
func (w *WAL) ForceSync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncLocked()
}

func (w *WAL) syncLocked() error {
	if err := w.file.Sync(); err != nil {
		return err
	}
	w.bytesSinceSync = 0
	return nil
}

// pendingRecord is one buffered page write awaiting its transaction's
// commit marker during Replay.
type pendingRecord struct {
	pageID base.PageID
	data   []byte
}

// Replay reads every committed transaction and calls apply for each page
// write in a transaction whose commit marker was found.
func (w *WAL) Replay(apply func(base.PageID, []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	uncommitted := make(map[uint64][]pendingRecord)
	header := make([]byte, recordHeaderSize)

	for {
		n, err := io.ReadFull(w.file, header)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return fmt.Errorf("wal: replay read header: %w", err)
		}
		if n != recordHeaderSize {
			break
		}

		recordType := header[0]
		txnID := binary.LittleEndian.Uint64(header[1:9])
		pageID := base.PageID(binary.LittleEndian.Uint64(header[9:17]))
		dataLen := binary.LittleEndian.Uint32(header[17:21])
		checksum := binary.LittleEndian.Uint64(header[21:29])

		switch recordType {
		case RecordPage:
			data := make([]byte, dataLen)
			if _, err := io.ReadFull(w.file, data); err != nil {
				return fmt.Errorf("wal: replay read page %d: %w", pageID, err)
			}
			if xxhash.Sum64(data) != checksum {
				return fmt.Errorf("wal: replay checksum mismatch for page %d, txn %d", pageID, txnID)
			}
			uncommitted[txnID] = append(uncommitted[txnID], pendingRecord{pageID: pageID, data: data})

		case RecordCommit:
			for _, rec := range uncommitted[txnID] {
				if err := apply(rec.pageID, rec.data); err != nil {
					return fmt.Errorf("wal: replay apply page %d: %w", rec.pageID, err)
				}
			}
			delete(uncommitted, txnID)

		default:
			return fmt.Errorf("wal: replay unknown record type %d", recordType)
		}
	}

	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	return nil
}

// Truncate discards the WAL contents, called after a checkpoint has made
// every record durable in the main file.
func (w *WAL) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Truncate(0); err != nil {
		return err
	}
	_, err := w.file.Seek(0, io.SeekStart)
	return err
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
