package tables

import (
	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// TypeRefRow is the raw TypeRef record: a ResolutionScope coded index
// (module, module ref, assembly ref, or an enclosing type ref for nested
// types) plus name and namespace in the strings heap.
type TypeRefRow struct {
	Offset    uint64
	Scope     layout.CodedIndex
	Name      uint32
	Namespace uint32
}

// TypeRefCodec encodes and decodes TypeRefRow.
type TypeRefCodec struct{}

func (TypeRefCodec) Size(sizes *layout.TableSizes) int {
	return sizes.CodedIndexBytes(layout.ResolutionScope) + 2*sizes.StringBytes()
}

func (TypeRefCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (TypeRefRow, error) {
	row := TypeRefRow{Offset: uint64(r.Offset())}
	var err error
	if row.Scope, err = layout.ResolutionScope.Read(r, sizes); err != nil {
		return row, err
	}
	if row.Name, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	if row.Namespace, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	return row, nil
}

func (TypeRefCodec) Write(w *buffer.Writer, row TypeRefRow, sizes *layout.TableSizes) error {
	if err := layout.ResolutionScope.Write(w, row.Scope, sizes); err != nil {
		return err
	}
	if err := writeStringIndex(w, row.Name, sizes); err != nil {
		return err
	}
	return writeStringIndex(w, row.Namespace, sizes)
}

// TypeDefRow is the raw TypeDef record. FieldList is the 1-based index of
// the first Field row owned by this type; the owned range runs until the
// next TypeDef's FieldList (or the end of the Field table), which makes
// field ownership a lazily chained range rather than an explicit list.
type TypeDefRow struct {
	Offset    uint64
	Flags     uint32
	Name      uint32
	Namespace uint32
	Extends   layout.CodedIndex
	FieldList uint32
}

// TypeDefCodec encodes and decodes TypeDefRow.
type TypeDefCodec struct{}

func (TypeDefCodec) Size(sizes *layout.TableSizes) int {
	return 4 + 2*sizes.StringBytes() +
		sizes.CodedIndexBytes(layout.TypeDefOrRef) +
		sizes.TableIndexBytes(token.Field)
}

func (TypeDefCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (TypeDefRow, error) {
	row := TypeDefRow{Offset: uint64(r.Offset())}
	var err error
	if row.Flags, err = r.Uint32(); err != nil {
		return row, err
	}
	if row.Name, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	if row.Namespace, err = readStringIndex(r, sizes); err != nil {
		return row, err
	}
	if row.Extends, err = layout.TypeDefOrRef.Read(r, sizes); err != nil {
		return row, err
	}
	if row.FieldList, err = readTableIndex(r, sizes, token.Field); err != nil {
		return row, err
	}
	return row, nil
}

func (TypeDefCodec) Write(w *buffer.Writer, row TypeDefRow, sizes *layout.TableSizes) error {
	w.Uint32(row.Flags)
	if err := writeStringIndex(w, row.Name, sizes); err != nil {
		return err
	}
	if err := writeStringIndex(w, row.Namespace, sizes); err != nil {
		return err
	}
	if err := layout.TypeDefOrRef.Write(w, row.Extends, sizes); err != nil {
		return err
	}
	return writeTableIndex(w, row.FieldList, sizes, token.Field)
}

// TypeSpecRow is the raw TypeSpec record: a signature blob. The table is
// recognized so its rows can be sized and skipped, but it has no loader.
type TypeSpecRow struct {
	Offset    uint64
	Signature uint32
}

// TypeSpecCodec encodes and decodes TypeSpecRow.
type TypeSpecCodec struct{}

func (TypeSpecCodec) Size(sizes *layout.TableSizes) int {
	return sizes.BlobBytes()
}

func (TypeSpecCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (TypeSpecRow, error) {
	row := TypeSpecRow{Offset: uint64(r.Offset())}
	var err error
	row.Signature, err = readBlobIndex(r, sizes)
	return row, err
}

func (TypeSpecCodec) Write(w *buffer.Writer, row TypeSpecRow, sizes *layout.TableSizes) error {
	return writeBlobIndex(w, row.Signature, sizes)
}

// NestedClassRow is the raw NestedClass record: both columns are plain
// indexes into TypeDef, pairing a nested type with its enclosing type.
type NestedClassRow struct {
	Offset         uint64
	NestedClass    uint32
	EnclosingClass uint32
}

// NestedClassCodec encodes and decodes NestedClassRow.
type NestedClassCodec struct{}

func (NestedClassCodec) Size(sizes *layout.TableSizes) int {
	return 2 * sizes.TableIndexBytes(token.TypeDef)
}

func (NestedClassCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (NestedClassRow, error) {
	row := NestedClassRow{Offset: uint64(r.Offset())}
	var err error
	if row.NestedClass, err = readTableIndex(r, sizes, token.TypeDef); err != nil {
		return row, err
	}
	if row.EnclosingClass, err = readTableIndex(r, sizes, token.TypeDef); err != nil {
		return row, err
	}
	return row, nil
}

func (NestedClassCodec) Write(w *buffer.Writer, row NestedClassRow, sizes *layout.TableSizes) error {
	if err := writeTableIndex(w, row.NestedClass, sizes, token.TypeDef); err != nil {
		return err
	}
	return writeTableIndex(w, row.EnclosingClass, sizes, token.TypeDef)
}

// ClassLayoutRow is the raw ClassLayout record: explicit packing and size
// information applied onto an already-loaded TypeDef.
type ClassLayoutRow struct {
	Offset      uint64
	PackingSize uint16
	ClassSize   uint32
	Parent      uint32
}

// ClassLayoutCodec encodes and decodes ClassLayoutRow.
type ClassLayoutCodec struct{}

func (ClassLayoutCodec) Size(sizes *layout.TableSizes) int {
	return 6 + sizes.TableIndexBytes(token.TypeDef)
}

func (ClassLayoutCodec) Read(r *buffer.Reader, _ uint32, sizes *layout.TableSizes) (ClassLayoutRow, error) {
	row := ClassLayoutRow{Offset: uint64(r.Offset())}
	var err error
	if row.PackingSize, err = r.Uint16(); err != nil {
		return row, err
	}
	if row.ClassSize, err = r.Uint32(); err != nil {
		return row, err
	}
	if row.Parent, err = readTableIndex(r, sizes, token.TypeDef); err != nil {
		return row, err
	}
	return row, nil
}

func (ClassLayoutCodec) Write(w *buffer.Writer, row ClassLayoutRow, sizes *layout.TableSizes) error {
	w.Uint16(row.PackingSize)
	w.Uint32(row.ClassSize)
	return writeTableIndex(w, row.Parent, sizes, token.TypeDef)
}
