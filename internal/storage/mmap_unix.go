//go:build linux || darwin

package storage

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"ordkv/internal/base"
)

// growthSize is the chunk the mapped region grows by, to reduce remap
// frequency under sequential page allocation.
const growthSize = 1 << 30 // 1GB

// MMap is a Backend backed by a memory-mapped file, grown in growthSize
// chunks as pages are allocated beyond the current mapping.
type MMap struct {
	mu       sync.Mutex
	file     *os.File
	data     []byte
	size     int64
	wasEmpty bool

	reads   atomic.Uint64
	writes  atomic.Uint64
	read    atomic.Uint64
	written atomic.Uint64
}

// NewMMap opens or creates path and maps it PROT_READ|PROT_WRITE, MAP_SHARED.
func NewMMap(path string) (*MMap, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	wasEmpty := info.Size() == 0
	size := info.Size()
	if size == 0 {
		size = growthSize
		if err := file.Truncate(size); err != nil {
			file.Close()
			return nil, err
		}
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, err
	}

	return &MMap{file: file, data: data, size: size, wasEmpty: wasEmpty}, nil
}

func (m *MMap) ReadPage(id base.PageID, pageSize int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	offset := int64(id) * int64(pageSize)
	if offset+int64(pageSize) > m.size {
		return nil, fmt.Errorf("storage: page %d beyond mapped region", id)
	}

	buf := make([]byte, pageSize)
	copy(buf, m.data[offset:offset+int64(pageSize)])
	m.reads.Add(1)
	m.read.Add(uint64(pageSize))
	return buf, nil
}

func (m *MMap) WritePage(id base.PageID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	offset := int64(id) * int64(len(data))
	if offset+int64(len(data)) > m.size {
		if err := m.growLocked(offset + int64(len(data))); err != nil {
			return err
		}
	}

	copy(m.data[offset:], data)
	m.writes.Add(1)
	m.written.Add(uint64(len(data)))
	return nil
}

// growLocked remaps the file to hold at least minSize bytes. Caller holds m.mu.
func (m *MMap) growLocked(minSize int64) error {
	newSize := ((minSize + growthSize - 1) / growthSize) * growthSize

	_ = unix.Msync(m.data, unix.MS_ASYNC)
	if err := unix.Munmap(m.data); err != nil {
		return err
	}
	if err := m.file.Truncate(newSize); err != nil {
		return err
	}
	data, err := unix.Mmap(int(m.file.Fd()), 0, int(newSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return err
	}
	m.data = data
	m.size = newSize
	return nil
}

func (m *MMap) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return err
	}
	return m.file.Sync()
}

func (m *MMap) Empty() (bool, error) { return m.wasEmpty, nil }

func (m *MMap) Stats() Stats {
	return Stats{
		Reads:   m.reads.Load(),
		Writes:  m.writes.Load(),
		Read:    m.read.Load(),
		Written: m.written.Load(),
	}
}

func (m *MMap) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return err
		}
		m.data = nil
	}
	return m.file.Close()
}
