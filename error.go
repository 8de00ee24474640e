package ordkv

import (
	"errors"

	"ordkv/internal/base"
)

// Caller-facing sentinel errors, mirroring the status codes in spec §6.
var (
	ErrKeyNotFound      = errors.New("ordkv: key not found")
	ErrDuplicateKey     = errors.New("ordkv: duplicate key")
	ErrCursorNil        = errors.New("ordkv: cursor is nil")
	ErrInvalidParameter = errors.New("ordkv: invalid parameter")
	ErrPluginNotFound   = errors.New("ordkv: plugin not found")
	ErrParserError      = errors.New("ordkv: parser error")
	ErrInternal         = errors.New("ordkv: internal error, index unusable")
)

// Re-exported page-level sentinels, so callers never need to import an
// internal package to errors.Is against them.
var (
	ErrPageOverflow       = base.ErrPageOverflow
	ErrInvalidOffset      = base.ErrInvalidOffset
	ErrInvalidMagicNumber = base.ErrInvalidMagicNumber
	ErrInvalidVersion     = base.ErrInvalidVersion
	ErrInvalidPageSize    = base.ErrInvalidPageSize
	ErrInvalidChecksum    = base.ErrInvalidChecksum
	ErrCorruptBlock       = base.ErrCorruptBlock
	ErrLowerBoundOvershot = base.ErrLowerBoundOvershot
)
