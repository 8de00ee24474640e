package base

// PageID addresses a page in the environment. Zero is reserved to mean
// "no page" (nil sibling, empty freelist, empty tree).
type PageID uint64

// Page type tags, stored in the header's Type byte.
const (
	LeafPageType     uint8 = 0x01
	BranchPageType   uint8 = 0x02
	BlobPageType     uint8 = 0x03
	MetaPageType     uint8 = 0x04
	FreelistPageType uint8 = 0x05
)

// Node-level flags, stored in the header's NodeFlags byte.
const (
	// FlagCompressedBlock marks a leaf whose payload uses the group-varint
	// compressed block key list (§4.3) instead of an uncompressed key list.
	FlagCompressedBlock uint8 = 0x01
	// FlagRecno marks an index whose keys are a monotonically increasing
	// record-number sequence, biasing split points to favor sequential
	// append (§4.2).
	FlagRecno uint8 = 0x02
)

// Key encoding selects the KeyList strategy a leaf is serialized with.
// Chosen once per index at creation time (§9: "strategy chosen once per
// node at page-load time").
type KeyEncoding uint8

const (
	// EncodingVarBinary stores arbitrary-length binary keys inline (with
	// EXTENDED-key overflow to the blob store past keysize bytes) plus an
	// offset table.
	EncodingVarBinary KeyEncoding = iota
	// EncodingFixedInt32 stores 4-byte big-endian integers, memcmp-ordered.
	EncodingFixedInt32
	// EncodingFixedInt64 stores 8-byte big-endian integers, memcmp-ordered.
	EncodingFixedInt64
	// EncodingFixedFloat64 stores 8-byte keys using an order-preserving
	// bit transform of a float64.
	EncodingFixedFloat64
	// EncodingCompressedU32 stores 32-bit unsigned integer keys using the
	// group-varint delta block codec (§4.3). Only valid for leaves.
	EncodingCompressedU32
)
