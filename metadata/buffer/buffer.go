// Package buffer provides the offset-tracked little-endian cursors used to
// decode and encode metadata rows. Reading past the end of the data is a
// truncation error; no partial value is ever returned.
package buffer

import (
	"encoding/binary"

	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
)

// Reader decodes little-endian values from a byte slice at a tracked
// offset. The underlying slice is shared, never copied, and must be
// treated as read-only for the Reader's lifetime.
type Reader struct {
	data []byte
	off  int
}

// NewReader returns a cursor positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// NewReaderAt returns a cursor positioned at off within data.
func NewReaderAt(data []byte, off int) *Reader {
	return &Reader{data: data, off: off}
}

// Offset returns the current byte position.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.off }

func (r *Reader) need(n int) error {
	if r.off+n > len(r.data) {
		return mderr.Truncatedf(uint64(r.off), "need %d bytes, %d remain", n, len(r.data)-r.off)
	}
	return nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

// Uint16 reads a little-endian 16-bit value.
func (r *Reader) Uint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

// Uint32 reads a little-endian 32-bit value.
func (r *Reader) Uint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

// Uint64 reads a little-endian 64-bit value.
func (r *Reader) Uint64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.off:])
	r.off += 8
	return v, nil
}

// Index reads a table or heap index whose width depends on the size model:
// 4 bytes when wide, otherwise 2.
func (r *Reader) Index(wide bool) (uint32, error) {
	if wide {
		return r.Uint32()
	}
	v, err := r.Uint16()
	return uint32(v), err
}

// Bytes returns a subslice of n bytes without copying.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.off += n
	return nil
}

// Writer encodes little-endian values into a growing byte slice. It is the
// structural inverse of Reader: a Write of a value followed by the matching
// Read reproduces the value bit for bit.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// NewWriterSize returns a writer with capacity preallocated.
func NewWriterSize(n int) *Writer {
	return &Writer{buf: make([]byte, 0, n)}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the accumulated buffer. The slice aliases the writer's
// internal storage and must not be written to after further appends.
func (w *Writer) Bytes() []byte { return w.buf }

// Uint8 appends one byte.
func (w *Writer) Uint8(v uint8) {
	w.buf = append(w.buf, v)
}

// Uint16 appends a little-endian 16-bit value.
func (w *Writer) Uint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// Uint32 appends a little-endian 32-bit value.
func (w *Writer) Uint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// Uint64 appends a little-endian 64-bit value.
func (w *Writer) Uint64(v uint64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
}

// Index appends a table or heap index at the width the size model demands.
// Writing a value that does not fit the narrow width is an out-of-range
// error: it means the size model and the data disagree.
func (w *Writer) Index(v uint32, wide bool) error {
	if wide {
		w.Uint32(v)
		return nil
	}
	if v > 0xFFFF {
		return mderr.OutOfRangef("index value 0x%X does not fit a narrow (2-byte) index", v)
	}
	w.Uint16(uint16(v))
	return nil
}

// Raw appends b verbatim.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Pad appends n zero bytes.
func (w *Writer) Pad(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}
