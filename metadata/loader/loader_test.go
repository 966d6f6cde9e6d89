package loader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/heap"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// streamBuilder assembles a table stream and its heaps for load tests.
type streamBuilder struct {
	t       *testing.T
	strings *heap.StringsBuilder
	blobs   *heap.BlobsBuilder
	guids   *heap.GUIDsBuilder

	modules       []tables.ModuleRow
	typeRefs      []tables.TypeRefRow
	typeDefs      []tables.TypeDefRow
	fieldPtrs     []tables.FieldPtrRow
	fields        []tables.FieldRow
	params        []tables.ParamRow
	constants     []tables.ConstantRow
	classLayouts  []tables.ClassLayoutRow
	fieldLayouts  []tables.FieldLayoutRow
	properties    []tables.PropertyRow
	moduleRefs    []tables.ModuleRefRow
	assemblies    []tables.AssemblyRow
	assemblyRefs  []tables.AssemblyRefRow
	nestedClasses []tables.NestedClassRow
}

func newStreamBuilder(t *testing.T) *streamBuilder {
	return &streamBuilder{
		t:       t,
		strings: heap.NewStringsBuilder(),
		blobs:   heap.NewBlobsBuilder(),
		guids:   heap.NewGUIDsBuilder(),
	}
}

func (b *streamBuilder) str(s string) uint32 { return b.strings.Add(s) }

func (b *streamBuilder) blob(data []byte) uint32 {
	off, err := b.blobs.Add(data)
	require.NoError(b.t, err)
	return off
}

func (b *streamBuilder) build() (*tables.Stream, *heap.Heaps) {
	rows := map[token.TableID]uint32{}
	count := func(id token.TableID, n int) {
		if n > 0 {
			rows[id] = uint32(n)
		}
	}
	count(token.Module, len(b.modules))
	count(token.TypeRef, len(b.typeRefs))
	count(token.TypeDef, len(b.typeDefs))
	count(token.FieldPtr, len(b.fieldPtrs))
	count(token.Field, len(b.fields))
	count(token.Param, len(b.params))
	count(token.Constant, len(b.constants))
	count(token.ClassLayout, len(b.classLayouts))
	count(token.FieldLayout, len(b.fieldLayouts))
	count(token.Property, len(b.properties))
	count(token.ModuleRef, len(b.moduleRefs))
	count(token.Assembly, len(b.assemblies))
	count(token.AssemblyRef, len(b.assemblyRefs))
	count(token.NestedClass, len(b.nestedClasses))

	sizes := layout.NewTableSizes(rows, false, false, false)
	w := buffer.NewWriter()
	layout.WriteHeader(w, &layout.Header{Major: 2, Rows: rows})

	require.NoError(b.t, tables.WriteAll(w, tables.ModuleCodec{}, sizes, b.modules))
	require.NoError(b.t, tables.WriteAll(w, tables.TypeRefCodec{}, sizes, b.typeRefs))
	require.NoError(b.t, tables.WriteAll(w, tables.TypeDefCodec{}, sizes, b.typeDefs))
	require.NoError(b.t, tables.WriteAll(w, tables.FieldPtrCodec{}, sizes, b.fieldPtrs))
	require.NoError(b.t, tables.WriteAll(w, tables.FieldCodec{}, sizes, b.fields))
	require.NoError(b.t, tables.WriteAll(w, tables.ParamCodec{}, sizes, b.params))
	require.NoError(b.t, tables.WriteAll(w, tables.ConstantCodec{}, sizes, b.constants))
	require.NoError(b.t, tables.WriteAll(w, tables.ClassLayoutCodec{}, sizes, b.classLayouts))
	require.NoError(b.t, tables.WriteAll(w, tables.FieldLayoutCodec{}, sizes, b.fieldLayouts))
	require.NoError(b.t, tables.WriteAll(w, tables.PropertyCodec{}, sizes, b.properties))
	require.NoError(b.t, tables.WriteAll(w, tables.ModuleRefCodec{}, sizes, b.moduleRefs))
	require.NoError(b.t, tables.WriteAll(w, tables.AssemblyCodec{}, sizes, b.assemblies))
	require.NoError(b.t, tables.WriteAll(w, tables.AssemblyRefCodec{}, sizes, b.assemblyRefs))
	require.NoError(b.t, tables.WriteAll(w, tables.NestedClassCodec{}, sizes, b.nestedClasses))

	stream, err := tables.ParseStream(w.Bytes())
	require.NoError(b.t, err)

	heaps := &heap.Heaps{
		Strings: heap.NewStrings(b.strings.Bytes()),
		Blobs:   heap.NewBlobs(b.blobs.Bytes()),
		GUIDs:   heap.NewGUIDs(b.guids.Bytes()),
	}
	return stream, heaps
}

func (b *streamBuilder) load() (*Context, error) {
	stream, heaps := b.build()
	ctx := NewContext(stream, heaps, 4, nil)
	sched, err := NewScheduler(DefaultLoaders(), 4, nil)
	require.NoError(b.t, err)
	return ctx, sched.Run(ctx)
}

// fullScenario wires every supported table into one module: two type refs
// (one nested), three type defs covering eager, deferred and absent base
// types, chained field ranges, constants on a field, a param and nothing
// else, explicit layouts and one nesting relationship.
func fullScenario(t *testing.T) *streamBuilder {
	b := newStreamBuilder(t)

	var mvid heap.GUID
	mvid[0] = 0x42

	b.modules = []tables.ModuleRow{{Name: b.str("app.dll"), Mvid: b.guids.Add(mvid)}}
	b.assemblies = []tables.AssemblyRow{{
		HashAlgID: 0x8004, Major: 1, Minor: 2, Build: 3, Revision: 4,
		Name: b.str("app"), Culture: b.str(""),
	}}
	b.assemblyRefs = []tables.AssemblyRefRow{{
		Major: 4, Name: b.str("corlib"), PublicKeyOrToken: b.blob([]byte{0xB7, 0x7A}),
	}}
	b.moduleRefs = []tables.ModuleRefRow{{Name: b.str("native")}}

	b.typeRefs = []tables.TypeRefRow{
		{Scope: layout.CodedIndex{Table: token.AssemblyRef, Row: 1}, Name: b.str("Object"), Namespace: b.str("System")},
		// Nested reference: scoped by the previous type ref.
		{Scope: layout.CodedIndex{Table: token.TypeRef, Row: 1}, Name: b.str("Nested"), Namespace: b.str("")},
	}

	b.fields = []tables.FieldRow{
		{Flags: 1, Name: b.str("A"), Signature: b.blob([]byte{0x06, 0x08})},
		{Flags: 2, Name: b.str("B"), Signature: b.blob([]byte{0x06, 0x0E})},
		{Flags: 3, Name: b.str("C"), Signature: b.blob([]byte{0x06, 0x02})},
	}

	b.typeDefs = []tables.TypeDefRow{
		{Name: b.str("Base"), Namespace: b.str("App"),
			Extends:   layout.CodedIndex{Table: token.TypeRef, Row: 1},
			FieldList: 1},
		{Name: b.str("Derived"), Namespace: b.str("App"),
			Extends:   layout.CodedIndex{Table: token.TypeDef, Row: 1},
			FieldList: 3},
		{Name: b.str("Inner"), Namespace: b.str("App"), FieldList: 4},
	}

	b.params = []tables.ParamRow{{Sequence: 1, Name: b.str("arg")}}
	b.properties = []tables.PropertyRow{{Name: b.str("Prop"), Type: b.blob([]byte{0x28, 0x00})}}

	b.constants = []tables.ConstantRow{
		{Type: 0x08, Parent: layout.CodedIndex{Table: token.Field, Row: 2}, Value: b.blob([]byte{7, 0, 0, 0})},
		{Type: 0x0E, Parent: layout.CodedIndex{Table: token.Param, Row: 1}, Value: b.blob([]byte{0x68, 0x69})},
	}

	b.classLayouts = []tables.ClassLayoutRow{{PackingSize: 4, ClassSize: 16, Parent: 1}}
	b.fieldLayouts = []tables.FieldLayoutRow{{ByteOffset: 8, Field: 1}}
	b.nestedClasses = []tables.NestedClassRow{{NestedClass: 3, EnclosingClass: 1}}

	return b
}

func TestLoadFullScenario(t *testing.T) {
	ctx, err := fullScenario(t).load()
	require.NoError(t, err)
	reg := ctx.Registry

	mod := reg.Table(token.Module)[0].(*Module)
	assert.Equal(t, "app.dll", mod.Name)
	assert.Equal(t, byte(0x42), mod.Mvid[0])

	refs := reg.Table(token.TypeRef)
	require.Len(t, refs, 2)
	outer := refs[0].(*TypeRef)
	nested := refs[1].(*TypeRef)
	assert.Equal(t, "Object", outer.Name)
	assert.Equal(t, "System", outer.Namespace)
	if asm, ok := outer.Scope.(*AssemblyRef); assert.True(t, ok) {
		assert.Equal(t, "corlib", asm.Name)
	}
	// The nested scope resolved in the second pass.
	assert.Same(t, outer, nested.Scope)

	defs := reg.Table(token.TypeDef)
	require.Len(t, defs, 3)
	base := defs[0].(*TypeDef)
	derived := defs[1].(*TypeDef)
	inner := defs[2].(*TypeDef)

	assert.Same(t, outer, base.Extends)
	assert.Same(t, base, derived.Extends)
	assert.Nil(t, inner.Extends)

	// Chained field ranges: Base owns A and B, Derived owns C.
	require.Len(t, base.Fields, 2)
	assert.Equal(t, "A", base.Fields[0].Name)
	assert.Equal(t, "B", base.Fields[1].Name)
	require.Len(t, derived.Fields, 1)
	assert.Equal(t, "C", derived.Fields[0].Name)
	assert.Empty(t, inner.Fields)

	// Constants applied to their parents, and only theirs.
	def, ok := base.Fields[1].Default.Get()
	require.True(t, ok)
	assert.Equal(t, uint8(0x08), def.Type)
	assert.Equal(t, []byte{7, 0, 0, 0}, def.Raw)
	assert.False(t, base.Fields[0].Default.IsSet())

	param := reg.Table(token.Param)[0].(*Param)
	pdef, ok := param.Default.Get()
	require.True(t, ok)
	assert.Equal(t, []byte{0x68, 0x69}, pdef.Raw)

	prop := reg.Table(token.Property)[0].(*Property)
	assert.False(t, prop.Default.IsSet())

	// Layout annotations.
	info, ok := base.Layout.Get()
	require.True(t, ok)
	assert.Equal(t, ClassLayoutInfo{PackingSize: 4, ClassSize: 16}, info)
	off, ok := base.Fields[0].LayoutOffset.Get()
	require.True(t, ok)
	assert.Equal(t, uint32(8), off)
	assert.False(t, base.Fields[1].LayoutOffset.IsSet())

	// Nesting.
	enc, ok := inner.Enclosing.Get()
	require.True(t, ok)
	assert.Same(t, base, enc)
}

func TestLoadFieldPtrIndirection(t *testing.T) {
	b := newStreamBuilder(t)
	b.fields = []tables.FieldRow{
		{Name: b.str("A"), Signature: b.blob([]byte{0x06})},
		{Name: b.str("B"), Signature: b.blob([]byte{0x06})},
	}
	// Logical order B, A.
	b.fieldPtrs = []tables.FieldPtrRow{{Field: 2}, {Field: 1}}
	b.typeDefs = []tables.TypeDefRow{
		{Name: b.str("T"), FieldList: 1},
	}

	ctx, err := b.load()
	require.NoError(t, err)

	td := ctx.Registry.Table(token.TypeDef)[0].(*TypeDef)
	require.Len(t, td.Fields, 2)
	assert.Equal(t, "B", td.Fields[0].Name)
	assert.Equal(t, "A", td.Fields[1].Name)
}

func TestLoadUnresolvedConstantParent(t *testing.T) {
	b := newStreamBuilder(t)
	b.fields = []tables.FieldRow{{Name: b.str("A"), Signature: b.blob([]byte{0x06})}}
	b.constants = []tables.ConstantRow{
		{Type: 0x08, Parent: layout.CodedIndex{Table: token.Field, Row: 9}, Value: b.blob([]byte{1})},
	}

	_, err := b.load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, mderr.ErrMalformed))

	var me *mderr.Error
	require.True(t, errors.As(err, &me))
	assert.Equal(t, token.Constant, me.Table)
	assert.Equal(t, uint32(1), me.Row)
}

func TestLoadDuplicateConstant(t *testing.T) {
	b := newStreamBuilder(t)
	b.fields = []tables.FieldRow{{Name: b.str("A"), Signature: b.blob([]byte{0x06})}}
	b.constants = []tables.ConstantRow{
		{Type: 0x08, Parent: layout.CodedIndex{Table: token.Field, Row: 1}, Value: b.blob([]byte{1})},
		{Type: 0x08, Parent: layout.CodedIndex{Table: token.Field, Row: 1}, Value: b.blob([]byte{2})},
	}

	_, err := b.load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, mderr.ErrMalformed))
	assert.Contains(t, err.Error(), "duplicate default value")
}

func TestLoadInvalidFieldRange(t *testing.T) {
	b := newStreamBuilder(t)
	b.fields = []tables.FieldRow{{Name: b.str("A"), Signature: b.blob([]byte{0x06})}}
	b.typeDefs = []tables.TypeDefRow{{Name: b.str("T"), FieldList: 5}}

	_, err := b.load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, mderr.ErrMalformed))
}

func TestLoadUnsupportedBaseTypeTable(t *testing.T) {
	b := newStreamBuilder(t)
	b.typeDefs = []tables.TypeDefRow{{
		Name:    b.str("T"),
		Extends: layout.CodedIndex{Table: token.TypeSpec, Row: 1},
		// An empty module still needs a coherent field list.
		FieldList: 1,
	}}

	_, err := b.load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, mderr.ErrUnsupported))
}

func TestLoadSelfEnclosingType(t *testing.T) {
	b := newStreamBuilder(t)
	b.typeDefs = []tables.TypeDefRow{{Name: b.str("T"), FieldList: 1}}
	b.nestedClasses = []tables.NestedClassRow{{NestedClass: 1, EnclosingClass: 1}}

	_, err := b.load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, mderr.ErrMalformed))
	assert.Contains(t, err.Error(), "encloses itself")
}

func TestEnsureCovered(t *testing.T) {
	b := newStreamBuilder(t)
	b.fields = []tables.FieldRow{{Name: b.str("A"), Signature: b.blob([]byte{0x06})}}
	stream, _ := b.build()

	require.NoError(t, EnsureCovered(stream, DefaultLoaders()))

	// Remove the field loader: a present table with no loader must fail
	// as unsupported.
	var without []Loader
	for _, l := range DefaultLoaders() {
		if l.Table() != token.Field {
			without = append(without, l)
		}
	}
	err := EnsureCovered(stream, without)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mderr.ErrUnsupported))
}
