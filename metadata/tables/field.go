package tables

import (
	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// FieldRow is the raw Field record: attribute flags, a name in the strings
// heap and a type signature in the blob heap.
type FieldRow struct {
	Offset    uint64
	Flags     uint16
	Name      uint32
	Signature uint32
}

// FieldCodec encodes and decodes FieldRow.
type FieldCodec struct{}

func (FieldCodec) Size(sizes *layout.TableSizes) int {
	return 2 + sizes.StringBytes() + sizes.BlobBytes()
}

func (FieldCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (FieldRow, error) {
	row := FieldRow{Offset: uint64(r.Offset())}
	var err error
	if row.Flags, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Name, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	if row.Signature, err = readBlobIndex(r, sizes); err != nil {
		return row, err
	}
	return row, nil
}

func (FieldCodec) Write(w *buffer.Writer, row FieldRow, sizes *layout.TableSizes) error {
	w.Uint16(row.Flags)
	if err := writeStringIndex(w, row.Name, sizes); err != nil {
		return err
	}
	return writeBlobIndex(w, row.Signature, sizes)
}

// FieldPtrRow is the raw FieldPtr record: one level of indirection that
// remaps logical field positions onto physical Field rows. When the table
// is present, TypeDef field ranges index FieldPtr rather than Field.
type FieldPtrRow struct {
	Offset uint64
	Field  uint32
}

// FieldPtrCodec encodes and decodes FieldPtrRow.
type FieldPtrCodec struct{}

func (FieldPtrCodec) Size(sizes *layout.TableSizes) int {
	return sizes.TableIndexBytes(token.Field)
}

func (FieldPtrCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (FieldPtrRow, error) {
	row := FieldPtrRow{Offset: uint64(r.Offset())}
	var err error
	row.Field, err = readTableIndex(r, sizes, token.Field)
	return row, err
}

func (FieldPtrCodec) Write(w *buffer.Writer, row FieldPtrRow, sizes *layout.TableSizes) error {
	return writeTableIndex(w, row.Field, sizes, token.Field)
}

// FieldLayoutRow is the raw FieldLayout record: an explicit byte offset
// applied onto an already-loaded Field.
type FieldLayoutRow struct {
	Offset     uint64
	ByteOffset uint32
	Field      uint32
}

// FieldLayoutCodec encodes and decodes FieldLayoutRow.
type FieldLayoutCodec struct{}

func (FieldLayoutCodec) Size(sizes *layout.TableSizes) int {
	return 4 + sizes.TableIndexBytes(token.Field)
}

func (FieldLayoutCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (FieldLayoutRow, error) {
	row := FieldLayoutRow{Offset: uint64(r.Offset())}
	var err error
	if row.ByteOffset, err = r.Uint32(); err != nil {
		return row, err
	}
	if row.Field, err = readTableIndex(r, sizes, token.Field); err != nil {
		return row, err
	}
	return row, nil
}

func (FieldLayoutCodec) Write(w *buffer.Writer, row FieldLayoutRow, sizes *layout.TableSizes) error {
	w.Uint32(row.ByteOffset)
	return writeTableIndex(w, row.Field, sizes, token.Field)
}
