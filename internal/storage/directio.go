package storage

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"ordkv/internal/base"
	"ordkv/internal/directio"
)

// DirectIO is a Backend that bypasses the OS page cache, trading kernel
// read-ahead/write-back for direct control over when pages hit disk.
type DirectIO struct {
	file    *os.File
	bufPool sync.Pool

	reads   atomic.Uint64
	writes  atomic.Uint64
	read    atomic.Uint64
	written atomic.Uint64
}

// NewDirectIO opens path for direct, unbuffered I/O at the given page size.
func NewDirectIO(path string, pageSize int) (*DirectIO, error) {
	file, err := directio.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	return &DirectIO{
		file: file,
		bufPool: sync.Pool{
			New: func() any { return directio.AlignedBlock(pageSize) },
		},
	}, nil
}

func (d *DirectIO) ReadPage(id base.PageID, pageSize int) ([]byte, error) {
	buf := d.bufPool.Get().([]byte)
	offset := int64(id) * int64(pageSize)

	n, err := d.file.ReadAt(buf, offset)
	if err != nil {
		d.bufPool.Put(buf)
		return nil, err
	}
	d.reads.Add(1)
	d.read.Add(uint64(n))
	if n != pageSize {
		d.bufPool.Put(buf)
		return nil, fmt.Errorf("directio: short read of page %d: got %d bytes, want %d", id, n, pageSize)
	}

	out := make([]byte, pageSize)
	copy(out, buf)
	d.bufPool.Put(buf)
	return out, nil
}

func (d *DirectIO) WritePage(id base.PageID, data []byte) error {
	buf := data
	if !directio.IsAligned(buf) {
		aligned := directio.AlignedBlock(len(data))
		copy(aligned, data)
		buf = aligned
	}

	offset := int64(id) * int64(len(data))
	n, err := d.file.WriteAt(buf, offset)
	if err != nil {
		return err
	}
	d.writes.Add(1)
	d.written.Add(uint64(n))
	if n != len(data) {
		return fmt.Errorf("directio: short write of page %d: wrote %d bytes, want %d", id, n, len(data))
	}
	return nil
}

func (d *DirectIO) Sync() error { return d.file.Sync() }

func (d *DirectIO) Empty() (bool, error) {
	info, err := d.file.Stat()
	if err != nil {
		return false, err
	}
	return info.Size() == 0, nil
}

func (d *DirectIO) Stats() Stats {
	return Stats{
		Reads:   d.reads.Load(),
		Writes:  d.writes.Load(),
		Read:    d.read.Load(),
		Written: d.written.Load(),
	}
}

func (d *DirectIO) Close() error { return d.file.Close() }
