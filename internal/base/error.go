package base

import "errors"

// Corruption and page-format errors. These unwind unchanged from wherever
// they are detected; the index that raised one is no longer usable.
var (
	ErrPageOverflow       = errors.New("page overflow: node does not fit in a page")
	ErrInvalidOffset      = errors.New("invalid offset into page data area")
	ErrInvalidMagicNumber = errors.New("invalid magic number in meta page")
	ErrInvalidVersion     = errors.New("unsupported on-disk format version")
	ErrInvalidPageSize    = errors.New("page size does not match environment")
	ErrInvalidChecksum    = errors.New("meta page checksum mismatch")
	ErrCorruptBlock       = errors.New("compressed block decoder found residual count at end of block")
	ErrLowerBoundOvershot = errors.New("lower bound search overshot node bounds")
)
