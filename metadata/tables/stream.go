package tables

import (
	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// Stream is the fully sliced table stream: the decoded header, the size
// model it implies, and one raw Table per recognized table kind. Absent
// tables are present with zero rows so callers never nil-check.
type Stream struct {
	Header *layout.Header
	Sizes  *layout.TableSizes

	Modules       *Table[ModuleRow]
	TypeRefs      *Table[TypeRefRow]
	TypeDefs      *Table[TypeDefRow]
	FieldPtrs     *Table[FieldPtrRow]
	Fields        *Table[FieldRow]
	Params        *Table[ParamRow]
	Constants     *Table[ConstantRow]
	ClassLayouts  *Table[ClassLayoutRow]
	FieldLayouts  *Table[FieldLayoutRow]
	Properties    *Table[PropertyRow]
	ModuleRefs    *Table[ModuleRefRow]
	TypeSpecs     *Table[TypeSpecRow]
	Assemblies    *Table[AssemblyRow]
	AssemblyRefs  *Table[AssemblyRefRow]
	NestedClasses *Table[NestedClassRow]
}

// ParseStream decodes the table-stream header and slices every declared
// table out of data, in ascending table order. Any mismatch between the
// declared row counts and the buffer length surfaces here, before any
// table is loaded.
func ParseStream(data []byte) (*Stream, error) {
	r := buffer.NewReader(data)
	header, err := layout.ParseHeader(r)
	if err != nil {
		return nil, err
	}
	sizes := header.Sizes()

	s := &Stream{Header: header, Sizes: sizes}
	base := r.Offset()

	if s.Modules, err = sliceTable(s, data, base, token.Module, ModuleCodec{}); err != nil {
		return nil, err
	}
	base = s.Modules.End()
	if s.TypeRefs, err = sliceTable(s, data, base, token.TypeRef, TypeRefCodec{}); err != nil {
		return nil, err
	}
	base = s.TypeRefs.End()
	if s.TypeDefs, err = sliceTable(s, data, base, token.TypeDef, TypeDefCodec{}); err != nil {
		return nil, err
	}
	base = s.TypeDefs.End()
	if s.FieldPtrs, err = sliceTable(s, data, base, token.FieldPtr, FieldPtrCodec{}); err != nil {
		return nil, err
	}
	base = s.FieldPtrs.End()
	if s.Fields, err = sliceTable(s, data, base, token.Field, FieldCodec{}); err != nil {
		return nil, err
	}
	base = s.Fields.End()
	if s.Params, err = sliceTable(s, data, base, token.Param, ParamCodec{}); err != nil {
		return nil, err
	}
	base = s.Params.End()
	if s.Constants, err = sliceTable(s, data, base, token.Constant, ConstantCodec{}); err != nil {
		return nil, err
	}
	base = s.Constants.End()
	if s.ClassLayouts, err = sliceTable(s, data, base, token.ClassLayout, ClassLayoutCodec{}); err != nil {
		return nil, err
	}
	base = s.ClassLayouts.End()
	if s.FieldLayouts, err = sliceTable(s, data, base, token.FieldLayout, FieldLayoutCodec{}); err != nil {
		return nil, err
	}
	base = s.FieldLayouts.End()
	if s.Properties, err = sliceTable(s, data, base, token.Property, PropertyCodec{}); err != nil {
		return nil, err
	}
	base = s.Properties.End()
	if s.ModuleRefs, err = sliceTable(s, data, base, token.ModuleRef, ModuleRefCodec{}); err != nil {
		return nil, err
	}
	base = s.ModuleRefs.End()
	if s.TypeSpecs, err = sliceTable(s, data, base, token.TypeSpec, TypeSpecCodec{}); err != nil {
		return nil, err
	}
	base = s.TypeSpecs.End()
	if s.Assemblies, err = sliceTable(s, data, base, token.Assembly, AssemblyCodec{}); err != nil {
		return nil, err
	}
	base = s.Assemblies.End()
	if s.AssemblyRefs, err = sliceTable(s, data, base, token.AssemblyRef, AssemblyRefCodec{}); err != nil {
		return nil, err
	}
	base = s.AssemblyRefs.End()
	if s.NestedClasses, err = sliceTable(s, data, base, token.NestedClass, NestedClassCodec{}); err != nil {
		return nil, err
	}
	return s, nil
}

func sliceTable[T any](s *Stream, data []byte, base int, id token.TableID, codec RowCodec[T]) (*Table[T], error) {
	return New(id, codec, s.Sizes, data, base, s.Sizes.RowCount(id))
}

// End returns the offset one past the last declared row, relative to the
// start of the table stream.
func (s *Stream) End() int {
	return s.NestedClasses.End()
}

// Present returns every table kind that declares at least one row, in
// ascending table order.
func (s *Stream) Present() []token.TableID {
	var out []token.TableID
	for _, id := range token.AllTables() {
		if s.Sizes.RowCount(id) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// RowCount returns the declared row count for a table kind.
func (s *Stream) RowCount(id token.TableID) uint32 {
	return s.Sizes.RowCount(id)
}
