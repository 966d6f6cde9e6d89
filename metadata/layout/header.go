package layout

import (
	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// Heap width flags carried in the table-stream header.
const (
	HeapFlagWideStrings = 1 << 0
	HeapFlagWideGUIDs   = 1 << 1
	HeapFlagWideBlobs   = 1 << 2
)

// Header is the decoded table-stream header: format version, heap width
// flags, the presence bitmask and the per-table row counts. It is read
// once, up front, and drives the TableSizes model for the whole file.
type Header struct {
	Major     uint8
	Minor     uint8
	HeapFlags uint8
	Valid     uint64
	Sorted    uint64
	Rows      map[token.TableID]uint32
}

// ParseHeader decodes the header at the reader's current position,
// leaving the cursor at the first row of the first present table.
//
// Layout: reserved u32, major u8, minor u8, heap flags u8, reserved u8,
// valid bitmask u64, sorted bitmask u64, then one u32 row count per set
// bit of the valid mask, in ascending table order.
func ParseHeader(r *buffer.Reader) (*Header, error) {
	if _, err := r.Uint32(); err != nil {
		return nil, err
	}
	major, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	minor, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	heapFlags, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	if _, err := r.Uint8(); err != nil {
		return nil, err
	}
	valid, err := r.Uint64()
	if err != nil {
		return nil, err
	}
	sorted, err := r.Uint64()
	if err != nil {
		return nil, err
	}

	h := &Header{
		Major:     major,
		Minor:     minor,
		HeapFlags: heapFlags,
		Valid:     valid,
		Sorted:    sorted,
		Rows:      make(map[token.TableID]uint32),
	}

	// Row counts follow in ascending bit order. A set bit for an
	// unrecognized table is a recognized-but-not-implemented condition:
	// without its row size the rest of the stream cannot be located.
	for bit := 0; bit < 64; bit++ {
		if valid&(1<<bit) == 0 {
			continue
		}
		id := token.TableID(bit)
		if !id.Valid() {
			return nil, mderr.Unsupportedf("table 0x%02X is present but not supported", bit)
		}
		count, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		h.Rows[id] = count
	}
	return h, nil
}

// Sizes derives the table size model from the decoded header.
func (h *Header) Sizes() *TableSizes {
	return NewTableSizes(h.Rows,
		h.HeapFlags&HeapFlagWideStrings != 0,
		h.HeapFlags&HeapFlagWideGUIDs != 0,
		h.HeapFlags&HeapFlagWideBlobs != 0,
	)
}

// WriteHeader serializes the header. The valid bitmask and the row count
// sequence are derived from h.Rows, ignoring any stale Valid value, so a
// header built from fresh counts is always self-consistent.
func WriteHeader(w *buffer.Writer, h *Header) {
	var valid uint64
	for _, id := range token.AllTables() {
		if h.Rows[id] > 0 {
			valid |= 1 << uint(id)
		}
	}
	w.Uint32(0)
	w.Uint8(h.Major)
	w.Uint8(h.Minor)
	w.Uint8(h.HeapFlags)
	w.Uint8(1)
	w.Uint64(valid)
	w.Uint64(h.Sorted)
	for _, id := range token.AllTables() {
		if n := h.Rows[id]; n > 0 {
			w.Uint32(n)
		}
	}
}
