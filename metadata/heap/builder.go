package heap

import "github.com/dotmeta-dev/dotmeta/metadata/mderr"

// StringsBuilder constructs a strings heap for the write path. Identical
// strings are deduplicated; the empty string is always offset 0.
type StringsBuilder struct {
	buf     []byte
	offsets map[string]uint32
}

// NewStringsBuilder returns a builder holding only the leading NUL that
// backs the empty string.
func NewStringsBuilder() *StringsBuilder {
	return &StringsBuilder{
		buf:     []byte{0},
		offsets: map[string]uint32{"": 0},
	}
}

// Add appends s (if new) and returns its heap offset.
func (b *StringsBuilder) Add(s string) uint32 {
	if off, ok := b.offsets[s]; ok {
		return off
	}
	off := uint32(len(b.buf))
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0)
	b.offsets[s] = off
	return off
}

// Size returns the current heap length in bytes.
func (b *StringsBuilder) Size() int { return len(b.buf) }

// Bytes returns the heap contents.
func (b *StringsBuilder) Bytes() []byte { return b.buf }

// BlobsBuilder constructs a blob heap. The empty blob is offset 0; other
// entries are stored with their compressed length prefix. Identical blobs
// are deduplicated.
type BlobsBuilder struct {
	buf     []byte
	offsets map[string]uint32
}

// NewBlobsBuilder returns a builder holding the single zero byte that
// backs the empty blob.
func NewBlobsBuilder() *BlobsBuilder {
	return &BlobsBuilder{
		buf:     []byte{0},
		offsets: map[string]uint32{"": 0},
	}
}

// Add appends blob (if new) and returns its heap offset. Blobs longer than
// the 29-bit length prefix limit are out of range.
func (b *BlobsBuilder) Add(blob []byte) (uint32, error) {
	if len(blob) == 0 {
		return 0, nil
	}
	key := string(blob)
	if off, ok := b.offsets[key]; ok {
		return off, nil
	}
	off := uint32(len(b.buf))
	prefix, err := encodeBlobLength(uint32(len(blob)))
	if err != nil {
		return 0, err
	}
	b.buf = append(b.buf, prefix...)
	b.buf = append(b.buf, blob...)
	b.offsets[key] = off
	return off, nil
}

func encodeBlobLength(n uint32) ([]byte, error) {
	switch {
	case n < 0x80:
		return []byte{byte(n)}, nil
	case n < 0x4000:
		return []byte{byte(n>>8) | 0x80, byte(n)}, nil
	case n < 0x2000_0000:
		return []byte{byte(n>>24) | 0xC0, byte(n >> 16), byte(n >> 8), byte(n)}, nil
	default:
		return nil, mderr.OutOfRangef("blob of %d bytes exceeds the maximum encodable length", n)
	}
}

// Size returns the current heap length in bytes.
func (b *BlobsBuilder) Size() int { return len(b.buf) }

// Bytes returns the heap contents.
func (b *BlobsBuilder) Bytes() []byte { return b.buf }

// GUIDsBuilder constructs a GUID heap of 16-byte entries addressed by
// 1-based index. Duplicate GUIDs share an index; the nil GUID maps to 0.
type GUIDsBuilder struct {
	buf     []byte
	indexes map[GUID]uint32
}

// NewGUIDsBuilder returns an empty builder.
func NewGUIDsBuilder() *GUIDsBuilder {
	return &GUIDsBuilder{indexes: make(map[GUID]uint32)}
}

// Add appends g (if new) and returns its 1-based index. The nil GUID is
// represented by index 0 and occupies no heap space.
func (b *GUIDsBuilder) Add(g GUID) uint32 {
	if g.IsNil() {
		return 0
	}
	if idx, ok := b.indexes[g]; ok {
		return idx
	}
	b.buf = append(b.buf, g[:]...)
	idx := uint32(len(b.buf) / 16)
	b.indexes[g] = idx
	return idx
}

// Size returns the current heap length in bytes.
func (b *GUIDsBuilder) Size() int { return len(b.buf) }

// Bytes returns the heap contents.
func (b *GUIDsBuilder) Bytes() []byte { return b.buf }
