// Package layout models the physical shape of the metadata region: the
// root stream directory, the table-stream header, the table size model
// that decides narrow versus wide index widths, and the coded index codec.
package layout

import (
	"math/bits"

	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// wideThreshold is the largest value a narrow (2-byte) index can hold.
const wideThreshold = 0xFFFF

// TableSizes is the size model computed once per file from every table's
// row count and every heap's size. It answers, for this particular file,
// whether each index field occupies 2 or 4 bytes. Immutable after
// construction and safe to share across goroutines.
type TableSizes struct {
	rows       map[token.TableID]uint32
	wideString bool
	wideGUID   bool
	wideBlob   bool
}

// NewTableSizes builds a size model from explicit row counts and heap
// width flags, as decoded from a table-stream header.
func NewTableSizes(rows map[token.TableID]uint32, wideString, wideGUID, wideBlob bool) *TableSizes {
	copied := make(map[token.TableID]uint32, len(rows))
	for id, n := range rows {
		copied[id] = n
	}
	return &TableSizes{
		rows:       copied,
		wideString: wideString,
		wideGUID:   wideGUID,
		wideBlob:   wideBlob,
	}
}

// SizesForWrite derives the size model for a file about to be serialized:
// heap indexes go wide as soon as the heap outgrows 64KiB.
func SizesForWrite(rows map[token.TableID]uint32, stringsSize, guidSize, blobSize int) *TableSizes {
	return NewTableSizes(rows,
		stringsSize > wideThreshold,
		guidSize > wideThreshold,
		blobSize > wideThreshold,
	)
}

// RowCount returns the number of rows declared for a table, zero when the
// table is absent.
func (s *TableSizes) RowCount(id token.TableID) uint32 {
	return s.rows[id]
}

// TableIndexWide reports whether plain indexes into the given table need
// 4 bytes, which happens once the table has more rows than fit in 16 bits.
func (s *TableSizes) TableIndexWide(id token.TableID) bool {
	return s.rows[id] > wideThreshold
}

// TableIndexBytes returns the byte width of a plain index into id.
func (s *TableSizes) TableIndexBytes(id token.TableID) int {
	if s.TableIndexWide(id) {
		return 4
	}
	return 2
}

// StringWide reports whether strings heap offsets occupy 4 bytes.
func (s *TableSizes) StringWide() bool { return s.wideString }

// GUIDWide reports whether GUID heap indexes occupy 4 bytes.
func (s *TableSizes) GUIDWide() bool { return s.wideGUID }

// BlobWide reports whether blob heap offsets occupy 4 bytes.
func (s *TableSizes) BlobWide() bool { return s.wideBlob }

// StringBytes returns the byte width of a strings heap offset field.
func (s *TableSizes) StringBytes() int {
	if s.wideString {
		return 4
	}
	return 2
}

// GUIDBytes returns the byte width of a GUID heap index field.
func (s *TableSizes) GUIDBytes() int {
	if s.wideGUID {
		return 4
	}
	return 2
}

// BlobBytes returns the byte width of a blob heap offset field.
func (s *TableSizes) BlobBytes() int {
	if s.wideBlob {
		return 4
	}
	return 2
}

// indexBits returns the number of bits needed to represent any row index
// of the given table (at least 1, even for empty tables).
func (s *TableSizes) indexBits(id token.TableID) int {
	n := s.rows[id]
	if n == 0 {
		return 1
	}
	return bits.Len32(n)
}

// CodedIndexWide reports whether a coded index of kind k needs 4 bytes in
// this file: wide when the largest candidate table's row index, shifted up
// by the tag bits, no longer fits in 16 bits.
func (s *TableSizes) CodedIndexWide(k CodedIndexKind) bool {
	maxBits := 1
	for _, id := range k.Candidates() {
		if b := s.indexBits(id); b > maxBits {
			maxBits = b
		}
	}
	return maxBits+k.TagBits() > 16
}

// CodedIndexBytes returns the byte width of a coded index field of kind k.
func (s *TableSizes) CodedIndexBytes(k CodedIndexKind) int {
	if s.CodedIndexWide(k) {
		return 4
	}
	return 2
}
