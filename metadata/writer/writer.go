package writer

import (
	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/heap"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// DefaultVersion is the root container version string used when the source
// does not set one.
const DefaultVersion = "v4.0.30319"

// Write validates the source graph and serializes it into a complete
// metadata region: root container, table stream, and the three heaps. The
// output is deterministic for a given source.
func Write(src *Source) ([]byte, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	strings := heap.NewStringsBuilder()
	guids := heap.NewGUIDsBuilder()
	blobs := heap.NewBlobsBuilder()

	starts, err := src.fieldListStarts()
	if err != nil {
		return nil, err
	}

	// Heap population and row construction happen together, table by
	// table in ascending id order, row by row: offsets are deterministic.
	var (
		moduleRows      []tables.ModuleRow
		typeRefRows     []tables.TypeRefRow
		typeDefRows     []tables.TypeDefRow
		fieldPtrRows    []tables.FieldPtrRow
		fieldRows       []tables.FieldRow
		paramRows       []tables.ParamRow
		constantRows    []tables.ConstantRow
		classLayoutRows []tables.ClassLayoutRow
		fieldLayoutRows []tables.FieldLayoutRow
		propertyRows    []tables.PropertyRow
		moduleRefRows   []tables.ModuleRefRow
		assemblyRows    []tables.AssemblyRow
		assemblyRefRows []tables.AssemblyRefRow
		nestedClassRows []tables.NestedClassRow
	)

	for _, m := range src.Modules {
		moduleRows = append(moduleRows, tables.ModuleRow{
			Generation: m.Generation,
			Name:       strings.Add(m.Name),
			Mvid:       guids.Add(m.Mvid),
			EncID:      guids.Add(m.EncID),
			EncBaseID:  guids.Add(m.EncBaseID),
		})
	}

	for _, ref := range src.TypeRefs {
		typeRefRows = append(typeRefRows, tables.TypeRefRow{
			Scope:     codedIndex(typeRefScope(ref)),
			Name:      strings.Add(ref.Name),
			Namespace: strings.Add(ref.Namespace),
		})
	}

	for _, td := range src.TypeDefs {
		typeDefRows = append(typeDefRows, tables.TypeDefRow{
			Flags:     td.Flags,
			Name:      strings.Add(td.Name),
			Namespace: strings.Add(td.Namespace),
			Extends:   codedIndex(typeDefExtends(td)),
			FieldList: starts[td.RID],
		})
	}

	for _, fp := range src.FieldPtrs {
		fieldPtrRows = append(fieldPtrRows, tables.FieldPtrRow{Field: fp.Target.RID})
	}

	for _, f := range src.Fields {
		sig, err := blobs.Add(f.Signature)
		if err != nil {
			return nil, err
		}
		fieldRows = append(fieldRows, tables.FieldRow{
			Flags:     f.Flags,
			Name:      strings.Add(f.Name),
			Signature: sig,
		})
	}

	for _, p := range src.Params {
		paramRows = append(paramRows, tables.ParamRow{
			Flags:    p.Flags,
			Sequence: p.Sequence,
			Name:     strings.Add(p.Name),
		})
	}

	for _, c := range src.Constants {
		value, err := blobs.Add(c.Value.Raw)
		if err != nil {
			return nil, err
		}
		constantRows = append(constantRows, tables.ConstantRow{
			Type:   c.Value.Type,
			Parent: codedIndex(constantParent(c)),
			Value:  value,
		})
	}

	for _, cl := range src.ClassLayouts {
		classLayoutRows = append(classLayoutRows, tables.ClassLayoutRow{
			PackingSize: cl.Info.PackingSize,
			ClassSize:   cl.Info.ClassSize,
			Parent:      cl.Parent.RID,
		})
	}

	for _, fl := range src.FieldLayouts {
		fieldLayoutRows = append(fieldLayoutRows, tables.FieldLayoutRow{
			ByteOffset: fl.ByteOffset,
			Field:      fl.Field.RID,
		})
	}

	for _, p := range src.Properties {
		sig, err := blobs.Add(p.Signature)
		if err != nil {
			return nil, err
		}
		propertyRows = append(propertyRows, tables.PropertyRow{
			Flags: p.Flags,
			Name:  strings.Add(p.Name),
			Type:  sig,
		})
	}

	for _, m := range src.ModuleRefs {
		moduleRefRows = append(moduleRefRows, tables.ModuleRefRow{Name: strings.Add(m.Name)})
	}

	for _, a := range src.Assemblies {
		key, err := blobs.Add(a.PublicKey)
		if err != nil {
			return nil, err
		}
		assemblyRows = append(assemblyRows, tables.AssemblyRow{
			HashAlgID: a.HashAlgID,
			Major:     a.Major,
			Minor:     a.Minor,
			Build:     a.Build,
			Revision:  a.Revision,
			Flags:     a.Flags,
			PublicKey: key,
			Name:      strings.Add(a.Name),
			Culture:   strings.Add(a.Culture),
		})
	}

	for _, a := range src.AssemblyRefs {
		key, err := blobs.Add(a.PublicKeyOrToken)
		if err != nil {
			return nil, err
		}
		hash, err := blobs.Add(a.HashValue)
		if err != nil {
			return nil, err
		}
		assemblyRefRows = append(assemblyRefRows, tables.AssemblyRefRow{
			Major:            a.Major,
			Minor:            a.Minor,
			Build:            a.Build,
			Revision:         a.Revision,
			Flags:            a.Flags,
			PublicKeyOrToken: key,
			Name:             strings.Add(a.Name),
			Culture:          strings.Add(a.Culture),
			HashValue:        hash,
		})
	}

	for _, nc := range src.NestedClasses {
		nestedClassRows = append(nestedClassRows, tables.NestedClassRow{
			NestedClass:    nc.Nested.RID,
			EnclosingClass: nc.Enclosing.RID,
		})
	}

	rows := src.rowCounts()
	sizes := layout.SizesForWrite(rows, strings.Size(), guids.Size(), blobs.Size())

	var heapFlags uint8
	if sizes.StringWide() {
		heapFlags |= layout.HeapFlagWideStrings
	}
	if sizes.GUIDWide() {
		heapFlags |= layout.HeapFlagWideGUIDs
	}
	if sizes.BlobWide() {
		heapFlags |= layout.HeapFlagWideBlobs
	}

	w := buffer.NewWriter()
	layout.WriteHeader(w, &layout.Header{
		Major:     2,
		Minor:     0,
		HeapFlags: heapFlags,
		Rows:      rows,
	})

	if err := tables.WriteAll(w, tables.ModuleCodec{}, sizes, moduleRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.TypeRefCodec{}, sizes, typeRefRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.TypeDefCodec{}, sizes, typeDefRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.FieldPtrCodec{}, sizes, fieldPtrRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.FieldCodec{}, sizes, fieldRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.ParamCodec{}, sizes, paramRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.ConstantCodec{}, sizes, constantRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.ClassLayoutCodec{}, sizes, classLayoutRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.FieldLayoutCodec{}, sizes, fieldLayoutRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.PropertyCodec{}, sizes, propertyRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.ModuleRefCodec{}, sizes, moduleRefRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.AssemblyCodec{}, sizes, assemblyRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.AssemblyRefCodec{}, sizes, assemblyRefRows); err != nil {
		return nil, err
	}
	if err := tables.WriteAll(w, tables.NestedClassCodec{}, sizes, nestedClassRows); err != nil {
		return nil, err
	}

	version := src.Version
	if version == "" {
		version = DefaultVersion
	}
	return layout.BuildRoot(version, []layout.NamedStream{
		{Name: layout.StreamTables, Data: w.Bytes()},
		{Name: layout.StreamStrings, Data: strings.Bytes()},
		{Name: layout.StreamGUIDs, Data: guids.Bytes()},
		{Name: layout.StreamBlobs, Data: blobs.Bytes()},
	}), nil
}

func codedIndex(tok token.Token) layout.CodedIndex {
	if tok.IsNull() {
		return layout.CodedIndex{}
	}
	return layout.CodedIndex{Table: tok.Table(), Row: tok.Row()}
}
