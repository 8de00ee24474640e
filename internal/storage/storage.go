// Package storage implements the on-disk page I/O backends: a portable
// pread/pwrite implementation and a memory-mapped implementation on
// platforms that support it, both operating on the fixed-size pages (size
// set per environment) described by internal/base.
package storage

import (
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"ordkv/internal/base"
)

// Stats holds cumulative I/O counters, exposed for diagnostics.
type Stats struct {
	Reads   uint64
	Writes  uint64
	Read    uint64
	Written uint64
}

// Backend is the boundary-only collaborator the pager depends on: raw,
// fixed-size page I/O against a single file. Every method is safe to call
// concurrently with reads; writes are serialized by the caller (single
// writer, spec §5).
type Backend interface {
	ReadPage(id base.PageID, pageSize int) ([]byte, error)
	WritePage(id base.PageID, data []byte) error
	Sync() error
	Empty() (bool, error)
	Stats() Stats
	Close() error
}

// File is the pread/pwrite Backend via golang.org/x/sys/unix, needing no
// mmap; on platforms without an mmap implementation, MMap wraps it.
type File struct {
	file *os.File

	reads   atomic.Uint64
	writes  atomic.Uint64
	read    atomic.Uint64
	written atomic.Uint64
}

// NewFile opens or creates the database file at path for pread/pwrite I/O.
func NewFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	return &File{file: f}, nil
}

func (f *File) ReadPage(id base.PageID, pageSize int) ([]byte, error) {
	buf := make([]byte, pageSize)
	offset := int64(id) * int64(pageSize)
	n, err := unix.Pread(int(f.file.Fd()), buf, offset)
	if err != nil {
		return nil, err
	}
	f.reads.Add(1)
	f.read.Add(uint64(n))
	if n != pageSize {
		return nil, fmt.Errorf("storage: short read of page %d: got %d bytes, want %d", id, n, pageSize)
	}
	return buf, nil
}

func (f *File) WritePage(id base.PageID, data []byte) error {
	offset := int64(id) * int64(len(data))
	n, err := unix.Pwrite(int(f.file.Fd()), data, offset)
	if err != nil {
		return err
	}
	f.writes.Add(1)
	f.written.Add(uint64(n))
	if n != len(data) {
		return fmt.Errorf("storage: short write of page %d: wrote %d bytes, want %d", id, n, len(data))
	}
	return nil
}

func (f *File) Sync() error { return f.file.Sync() }

func (f *File) Empty() (bool, error) {
	info, err := f.file.Stat()
	if err != nil {
		return false, err
	}
	return info.Size() == 0, nil
}

func (f *File) Stats() Stats {
	return Stats{
		Reads:   f.reads.Load(),
		Writes:  f.writes.Load(),
		Read:    f.read.Load(),
		Written: f.written.Load(),
	}
}

func (f *File) Close() error { return f.file.Close() }
