package ordkv

import (
	"ordkv/internal/base"
	"ordkv/internal/wal"
)

// DBOptions configures a new environment. Built up via DBOption functions
// passed to Open, following the teacher's functional-option pattern.
type DBOptions struct {
	PageSize     int
	Encoding     base.KeyEncoding
	KeySize      int
	CacheSize    uint32
	SyncMode     wal.SyncMode
	BytesPerSync int
	UseDirectIO  bool
	Logger       Logger
}

// DBOption mutates a DBOptions during Open.
type DBOption func(*DBOptions)

func defaultOptions() DBOptions {
	return DBOptions{
		PageSize:     base.DefaultPageSize,
		Encoding:     base.EncodingVarBinary,
		KeySize:      16,
		CacheSize:    1024,
		SyncMode:     wal.SyncEveryCommit,
		BytesPerSync: 1 << 20,
		Logger:       DiscardLogger{},
	}
}

// WithPageSize sets the on-disk page size; must be a power of two in
// [1KiB, 64KiB] (spec §6).
func WithPageSize(size int) DBOption {
	return func(o *DBOptions) { o.PageSize = size }
}

// WithKeyEncoding selects the KeyList strategy new leaves are created
// with: fixed-width int32/int64/float64, var-binary, or compressed-block.
func WithKeyEncoding(enc base.KeyEncoding) DBOption {
	return func(o *DBOptions) { o.Encoding = enc }
}

// WithKeySize sets the inline prefix length var-binary keys keep before
// overflowing to the blob store (spec §4.4). Ignored for other encodings.
func WithKeySize(n int) DBOption {
	return func(o *DBOptions) { o.KeySize = n }
}

// WithLogger installs a custom Logger, replacing the default DiscardLogger.
func WithLogger(l Logger) DBOption {
	return func(o *DBOptions) { o.Logger = l }
}

// WithMaxCacheSizeMB sizes the page cache in resident pages, derived from
// the requested megabytes and the configured page size.
func WithMaxCacheSizeMB(mb int) DBOption {
	return func(o *DBOptions) {
		bytes := mb * 1024 * 1024
		if o.PageSize > 0 {
			o.CacheSize = uint32(bytes / o.PageSize)
		}
	}
}

// WithSyncEveryCommit fsyncs the WAL on every commit (the default).
func WithSyncEveryCommit() DBOption {
	return func(o *DBOptions) { o.SyncMode = wal.SyncEveryCommit }
}

// WithSyncBytes fsyncs the WAL once bytesPerSync bytes have accumulated.
func WithSyncBytes(bytesPerSync int) DBOption {
	return func(o *DBOptions) {
		o.SyncMode = wal.SyncBytes
		o.BytesPerSync = bytesPerSync
	}
}

// WithSyncOff disables WAL fsyncing entirely, for tests and bulk loads.
func WithSyncOff() DBOption {
	return func(o *DBOptions) { o.SyncMode = wal.SyncOff }
}

// WithDirectIO opens the environment file with O_DIRECT where supported,
// bypassing the OS page cache.
func WithDirectIO() DBOption {
	return func(o *DBOptions) { o.UseDirectIO = true }
}
