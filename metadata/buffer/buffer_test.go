package buffer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
)

func TestReaderLittleEndian(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F})

	v8, err := r.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), v8)

	v16, err := r.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0302), v16)

	v32, err := r.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x07060504), v32)

	v64, err := r.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0F0E0D0C0B0A0908), v64)

	assert.Equal(t, 15, r.Offset())
	assert.Equal(t, 0, r.Remaining())
}

func TestReaderTruncation(t *testing.T) {
	tests := []struct {
		name string
		read func(r *Reader) error
		data []byte
	}{
		{"uint16 short", func(r *Reader) error { _, err := r.Uint16(); return err }, []byte{0xAA}},
		{"uint32 short", func(r *Reader) error { _, err := r.Uint32(); return err }, []byte{1, 2, 3}},
		{"uint64 short", func(r *Reader) error { _, err := r.Uint64(); return err }, []byte{1, 2, 3, 4, 5, 6, 7}},
		{"bytes past end", func(r *Reader) error { _, err := r.Bytes(4); return err }, []byte{1, 2}},
		{"skip past end", func(r *Reader) error { return r.Skip(3) }, []byte{1}},
		{"empty uint8", func(r *Reader) error { _, err := r.Uint8(); return err }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewReader(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, mderr.ErrTruncation), "want truncation, got %v", err)
		})
	}
}

func TestReaderTruncationCarriesOffset(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4, 5})
	_, err := r.Uint32()
	require.NoError(t, err)
	_, err = r.Uint32()
	require.Error(t, err)

	var me *mderr.Error
	require.True(t, errors.As(err, &me))
	assert.Equal(t, uint64(4), me.Offset)
}

func TestIndexWidth(t *testing.T) {
	r := NewReader([]byte{0x34, 0x12, 0x78, 0x56, 0x34, 0x12})

	narrow, err := r.Index(false)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), narrow)

	wide, err := r.Index(true)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), wide)
}

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Uint8(0xAB)
	w.Uint16(0xCDEF)
	w.Uint32(0xDEADBEEF)
	w.Uint64(0x0123456789ABCDEF)
	require.NoError(t, w.Index(0x42, false))
	require.NoError(t, w.Index(0x12345, true))
	w.Raw([]byte{9, 8, 7})
	w.Pad(2)

	r := NewReader(w.Bytes())

	v8, _ := r.Uint8()
	assert.Equal(t, uint8(0xAB), v8)
	v16, _ := r.Uint16()
	assert.Equal(t, uint16(0xCDEF), v16)
	v32, _ := r.Uint32()
	assert.Equal(t, uint32(0xDEADBEEF), v32)
	v64, _ := r.Uint64()
	assert.Equal(t, uint64(0x0123456789ABCDEF), v64)
	narrow, _ := r.Index(false)
	assert.Equal(t, uint32(0x42), narrow)
	wide, _ := r.Index(true)
	assert.Equal(t, uint32(0x12345), wide)
	raw, _ := r.Bytes(3)
	assert.Equal(t, []byte{9, 8, 7}, raw)
	pad, _ := r.Bytes(2)
	assert.Equal(t, []byte{0, 0}, pad)
	assert.Equal(t, 0, r.Remaining())
}

func TestWriterNarrowIndexOverflow(t *testing.T) {
	w := NewWriter()
	err := w.Index(0x10000, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mderr.ErrOutOfRange))

	// Boundary value still fits.
	require.NoError(t, w.Index(0xFFFF, false))
}

func TestNewReaderAt(t *testing.T) {
	r := NewReaderAt([]byte{0, 0, 0x2A}, 2)
	v, err := r.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x2A), v)
}
