// Package heap implements the append-only binary regions referenced by
// metadata rows: the strings heap (NUL-terminated UTF-8), the blob heap
// (length-prefixed byte runs) and the GUID heap (16-byte entries addressed
// by 1-based index). Heaps are read-only during loading; the builder types
// construct fresh heaps for the write path.
package heap

import (
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
)

// Strings is a read-only view of the strings heap. Offset 0 is always the
// empty string.
type Strings struct {
	data []byte
}

// NewStrings wraps a strings heap region.
func NewStrings(data []byte) *Strings {
	return &Strings{data: data}
}

// Size returns the heap length in bytes.
func (s *Strings) Size() int { return len(s.data) }

// Get returns the NUL-terminated string starting at offset.
func (s *Strings) Get(offset uint32) (string, error) {
	if offset == 0 {
		return "", nil
	}
	if int(offset) >= len(s.data) {
		return "", mderr.OutOfRangef("string heap offset 0x%X beyond heap size 0x%X", offset, len(s.data))
	}
	end := int(offset)
	for end < len(s.data) && s.data[end] != 0 {
		end++
	}
	if end == len(s.data) {
		return "", mderr.Truncatedf(uint64(offset), "string heap entry is not NUL-terminated")
	}
	return string(s.data[offset:end]), nil
}

// Blobs is a read-only view of the blob heap. Each entry starts with a
// compressed length prefix: values below 0x80 occupy one byte, two-byte
// prefixes start with 0b10, four-byte prefixes with 0b110.
type Blobs struct {
	data []byte
}

// NewBlobs wraps a blob heap region.
func NewBlobs(data []byte) *Blobs {
	return &Blobs{data: data}
}

// Size returns the heap length in bytes.
func (b *Blobs) Size() int { return len(b.data) }

// Get returns the blob starting at offset. Offset 0 is the empty blob.
func (b *Blobs) Get(offset uint32) ([]byte, error) {
	if offset == 0 {
		return nil, nil
	}
	if int(offset) >= len(b.data) {
		return nil, mderr.OutOfRangef("blob heap offset 0x%X beyond heap size 0x%X", offset, len(b.data))
	}
	length, headerLen, err := decodeBlobLength(b.data[offset:], uint64(offset))
	if err != nil {
		return nil, err
	}
	start := int(offset) + headerLen
	if start+int(length) > len(b.data) {
		return nil, mderr.Truncatedf(uint64(offset), "blob of %d bytes runs past heap end", length)
	}
	return b.data[start : start+int(length)], nil
}

func decodeBlobLength(data []byte, offset uint64) (uint32, int, error) {
	b0 := data[0]
	switch {
	case b0&0x80 == 0:
		return uint32(b0), 1, nil
	case b0&0xC0 == 0x80:
		if len(data) < 2 {
			return 0, 0, mderr.Truncatedf(offset, "two-byte blob length prefix is cut short")
		}
		return uint32(b0&0x3F)<<8 | uint32(data[1]), 2, nil
	case b0&0xE0 == 0xC0:
		if len(data) < 4 {
			return 0, 0, mderr.Truncatedf(offset, "four-byte blob length prefix is cut short")
		}
		return uint32(b0&0x1F)<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3]), 4, nil
	default:
		return 0, 0, mderr.Malformedf("invalid blob length prefix byte 0x%02X", b0)
	}
}

// GUID is a 16-byte unique identifier.
type GUID [16]byte

// IsNil reports whether the GUID is all zero.
func (g GUID) IsNil() bool {
	return g == GUID{}
}

// GUIDs is a read-only view of the GUID heap: a packed array of 16-byte
// entries addressed by 1-based index. Index 0 means "no GUID".
type GUIDs struct {
	data []byte
}

// NewGUIDs wraps a GUID heap region.
func NewGUIDs(data []byte) *GUIDs {
	return &GUIDs{data: data}
}

// Size returns the heap length in bytes.
func (g *GUIDs) Size() int { return len(g.data) }

// Count returns the number of complete GUID entries.
func (g *GUIDs) Count() int { return len(g.data) / 16 }

// Get returns the GUID at the 1-based index. Index 0 yields the nil GUID.
func (g *GUIDs) Get(index uint32) (GUID, error) {
	if index == 0 {
		return GUID{}, nil
	}
	start := int(index-1) * 16
	if start+16 > len(g.data) {
		return GUID{}, mderr.OutOfRangef("GUID heap index %d beyond %d entries", index, g.Count())
	}
	var out GUID
	copy(out[:], g.data[start:start+16])
	return out, nil
}

// Heaps bundles the three heap views shared by every loader.
type Heaps struct {
	Strings *Strings
	Blobs   *Blobs
	GUIDs   *GUIDs
}
