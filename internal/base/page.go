package base

import (
	"encoding/binary"
	"hash/crc32"
)

// PageHeaderSize is the fixed 40-byte header every page carries, regardless
// of page size. Bit layout, little-endian:
//
//	[0:8]   PageID     u64
//	[8]     Type       u8   (Leaf/Branch/Blob/Meta/Freelist)
//	[9]     NodeFlags  u8   (FlagCompressedBlock, FlagRecno, ...)
//	[10:12] NumKeys    u16
//	[12:20] Left       u64  (left sibling page id, leaves only; 0 = none)
//	[20:28] Right      u64  (right sibling page id, leaves only; 0 = none)
//	[28:32] Magic      u32  (per-page corruption tag)
//	[32:40] Reserved   u64
const PageHeaderSize = 40

// MagicNumber identifies pages belonging to this environment ("ordk" in hex).
const MagicNumber uint32 = 0x6f72646b

// FormatVersion is the on-disk format version written into every meta page.
const FormatVersion uint16 = 1

// DefaultPageSize is used when an environment does not configure one.
const DefaultPageSize = 4096

// PageHeader is the decoded form of a page's fixed header.
type PageHeader struct {
	PageID    PageID
	Type      uint8
	NodeFlags uint8
	NumKeys   uint16
	Left      PageID
	Right     PageID
	Magic     uint32
	Reserved  uint64
}

// Page is a raw, fixed-size page buffer. Callers are typed views (Node,
// KeyList strategies) over the byte slice; there is no pointer aliasing
// across mutations, only ordinary offsets and lengths into Data.
type Page struct {
	Data []byte
}

// NewPage allocates a zeroed page of the given size.
func NewPage(size int) *Page {
	return &Page{Data: make([]byte, size)}
}

// Size returns the page's total size in bytes.
func (p *Page) Size() int {
	return len(p.Data)
}

// Header decodes the fixed header from the start of the page.
func (p *Page) Header() PageHeader {
	d := p.Data
	return PageHeader{
		PageID:    PageID(binary.LittleEndian.Uint64(d[0:8])),
		Type:      d[8],
		NodeFlags: d[9],
		NumKeys:   binary.LittleEndian.Uint16(d[10:12]),
		Left:      PageID(binary.LittleEndian.Uint64(d[12:20])),
		Right:     PageID(binary.LittleEndian.Uint64(d[20:28])),
		Magic:     binary.LittleEndian.Uint32(d[28:32]),
		Reserved:  binary.LittleEndian.Uint64(d[32:40]),
	}
}

// WriteHeader encodes h into the start of the page.
func (p *Page) WriteHeader(h PageHeader) {
	d := p.Data
	binary.LittleEndian.PutUint64(d[0:8], uint64(h.PageID))
	d[8] = h.Type
	d[9] = h.NodeFlags
	binary.LittleEndian.PutUint16(d[10:12], h.NumKeys)
	binary.LittleEndian.PutUint64(d[12:20], uint64(h.Left))
	binary.LittleEndian.PutUint64(d[20:28], uint64(h.Right))
	binary.LittleEndian.PutUint32(d[28:32], h.Magic)
	binary.LittleEndian.PutUint64(d[32:40], h.Reserved)
}

// Payload returns the mutable region of the page past the fixed header.
func (p *Page) Payload() []byte {
	return p.Data[PageHeaderSize:]
}

// MetaPage is the environment's bootstrap record, stored at page 0 (and
// mirrored at page 1 for torn-write resilience by the page manager).
// Layout: Magic(4) Version(2) PageSize(2) RootPageID(8) FreelistID(8)
// FreelistPages(8) TxnID(8) NumPages(8) Checksum(4) = 52 bytes.
type MetaPage struct {
	Magic         uint32
	Version       uint16
	PageSize      uint16
	RootPageID    PageID
	FreelistID    PageID
	FreelistPages uint64
	TxnID         uint64
	NumPages      uint64
	Checksum      uint32
}

// Encode serializes the meta page into a 52-byte buffer with a fresh checksum.
func (m *MetaPage) Encode() []byte {
	buf := make([]byte, 56)
	binary.LittleEndian.PutUint32(buf[0:4], m.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], m.Version)
	binary.LittleEndian.PutUint16(buf[6:8], m.PageSize)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(m.RootPageID))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(m.FreelistID))
	binary.LittleEndian.PutUint64(buf[24:32], m.FreelistPages)
	binary.LittleEndian.PutUint64(buf[32:40], m.TxnID)
	binary.LittleEndian.PutUint64(buf[40:48], m.NumPages)
	m.Checksum = crc32.ChecksumIEEE(buf[:48])
	binary.LittleEndian.PutUint32(buf[48:52], m.Checksum)
	return buf[:52]
}

// DecodeMetaPage reads a MetaPage from buf and validates it.
func DecodeMetaPage(buf []byte) (*MetaPage, error) {
	if len(buf) < 52 {
		return nil, ErrInvalidMagicNumber
	}
	m := &MetaPage{
		Magic:         binary.LittleEndian.Uint32(buf[0:4]),
		Version:       binary.LittleEndian.Uint16(buf[4:6]),
		PageSize:      binary.LittleEndian.Uint16(buf[6:8]),
		RootPageID:    PageID(binary.LittleEndian.Uint64(buf[8:16])),
		FreelistID:    PageID(binary.LittleEndian.Uint64(buf[16:24])),
		FreelistPages: binary.LittleEndian.Uint64(buf[24:32]),
		TxnID:         binary.LittleEndian.Uint64(buf[32:40]),
		NumPages:      binary.LittleEndian.Uint64(buf[40:48]),
		Checksum:      binary.LittleEndian.Uint32(buf[48:52]),
	}
	if m.Magic != MagicNumber {
		return nil, ErrInvalidMagicNumber
	}
	if m.Version != FormatVersion {
		return nil, ErrInvalidVersion
	}
	want := crc32.ChecksumIEEE(buf[:48])
	if m.Checksum != want {
		return nil, ErrInvalidChecksum
	}
	return m, nil
}

// ValidPageSize reports whether size is a power of two in [1KiB, 64KiB],
// per the environment's configurable page size (spec §6).
func ValidPageSize(size int) bool {
	if size < 1024 || size > 65536 {
		return false
	}
	return size&(size-1) == 0
}
