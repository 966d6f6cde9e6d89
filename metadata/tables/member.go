package tables

import (
	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
)

// ParamRow is the raw Param record: attribute flags, the parameter's
// position in its method signature, and a name in the strings heap.
type ParamRow struct {
	Offset   uint64
	Flags    uint16
	Sequence uint16
	Name     uint32
}

// ParamCodec encodes and decodes ParamRow.
type ParamCodec struct{}

func (ParamCodec) Size(sizes *layout.TableSizes) int {
	return 4 + sizes.StringBytes()
}

func (ParamCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (ParamRow, error) {
	row := ParamRow{Offset: uint64(r.Offset())}
	var err error
	if row.Flags, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Sequence, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Name, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	return row, nil
}

func (ParamCodec) Write(w *buffer.Writer, row ParamRow, sizes *layout.TableSizes) error {
	w.Uint16(row.Flags)
	w.Uint16(row.Sequence)
	return writeStringIndex(w, row.Name, sizes)
}

// PropertyRow is the raw Property record: attribute flags, a name in the
// strings heap and a property type signature in the blob heap.
type PropertyRow struct {
	Offset uint64
	Flags  uint16
	Name   uint32
	Type   uint32
}

// PropertyCodec encodes and decodes PropertyRow.
type PropertyCodec struct{}

func (PropertyCodec) Size(sizes *layout.TableSizes) int {
	return 2 + sizes.StringBytes() + sizes.BlobBytes()
}

func (PropertyCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (PropertyRow, error) {
	row := PropertyRow{Offset: uint64(r.Offset())}
	var err error
	if row.Flags, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.Name, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	if row.Type, err = readBlobIndex(r, sizes); err != nil {
		return row, err
	}
	return row, nil
}

func (PropertyCodec) Write(w *buffer.Writer, row PropertyRow, sizes *layout.TableSizes) error {
	w.Uint16(row.Flags)
	if err := writeStringIndex(w, row.Name, sizes); err != nil {
		return err
	}
	return writeBlobIndex(w, row.Type, sizes)
}

// ConstantRow is the raw Constant record: an element type tag, a reserved
// padding byte, a HasConstant coded index naming the field, parameter or
// property the value belongs to, and the value bytes in the blob heap.
type ConstantRow struct {
	Offset uint64
	Type   uint8
	Parent layout.CodedIndex
	Value  uint32
}

// ConstantCodec encodes and decodes ConstantRow.
type ConstantCodec struct{}

func (ConstantCodec) Size(sizes *layout.TableSizes) int {
	return 2 + sizes.CodedIndexBytes(layout.HasConstant) + sizes.BlobBytes()
}

func (ConstantCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (ConstantRow, error) {
	row := ConstantRow{Offset: uint64(r.Offset())}
	var err error
	if row.Type, err = r.Uint8(); err != nil {
		return row, err
	}
	if _, err = r.Uint8(); err != nil { // padding
		return row, err
	}
	if row.Parent, err = layout.HasConstant.Read(r, sizes); err != nil {
		return row, err
	}
	if row.Value, err = readBlobIndex(r, sizes); err != nil {
		return row, err
	}
	return row, nil
}

func (ConstantCodec) Write(w *buffer.Writer, row ConstantRow, sizes *layout.TableSizes) error {
	w.Uint8(row.Type)
	w.Uint8(0)
	if err := layout.HasConstant.Write(w, row.Parent, sizes); err != nil {
		return err
	}
	return writeBlobIndex(w, row.Value, sizes)
}
