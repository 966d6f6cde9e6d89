package writer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmeta-dev/dotmeta/metadata/heap"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
	"github.com/dotmeta-dev/dotmeta/metadata/loader"
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/tables"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// smallSource builds a graph with one of everything that exercises a
// reference: a module, a type ref scoped by an assembly ref, a type def
// extending it and owning both fields, and a constant on the second field.
func smallSource() *Source {
	var mvid heap.GUID
	mvid[15] = 0x01

	f1 := &loader.Field{RID: 1, Flags: 1, Name: "A", Signature: []byte{0x06, 0x08}}
	f2 := &loader.Field{RID: 2, Flags: 2, Name: "B", Signature: []byte{0x06, 0x0E}}
	asmRef := &loader.AssemblyRef{RID: 1, Major: 4, Name: "corlib"}
	ref := &loader.TypeRef{RID: 1, Name: "Object", Namespace: "System", Scope: asmRef}
	td := &loader.TypeDef{
		RID: 1, Name: "Base", Namespace: "App",
		Extends: ref,
		Fields:  []*loader.Field{f1, f2},
	}

	return &Source{
		Modules:  []*loader.Module{{RID: 1, Name: "app.dll", Mvid: mvid}},
		TypeRefs: []*loader.TypeRef{ref},
		TypeDefs: []*loader.TypeDef{td},
		Fields:   []*loader.Field{f1, f2},
		Constants: []*loader.Constant{{
			RID:    1,
			Value:  loader.ConstantValue{Type: 0x08, Raw: []byte{7, 0, 0, 0}},
			Parent: f2,
		}},
		AssemblyRefs: []*loader.AssemblyRef{asmRef},
	}
}

// parseRegion splits written bytes back into a table stream and heaps.
func parseRegion(t *testing.T, data []byte) (*layout.Root, *tables.Stream, *heap.Heaps) {
	root, err := layout.ParseRoot(data)
	require.NoError(t, err)

	tbl, err := root.StreamData(data, layout.StreamTables)
	require.NoError(t, err)
	require.NotNil(t, tbl)
	stream, err := tables.ParseStream(tbl)
	require.NoError(t, err)

	str, err := root.StreamData(data, layout.StreamStrings)
	require.NoError(t, err)
	blb, err := root.StreamData(data, layout.StreamBlobs)
	require.NoError(t, err)
	gid, err := root.StreamData(data, layout.StreamGUIDs)
	require.NoError(t, err)

	return root, stream, &heap.Heaps{
		Strings: heap.NewStrings(str),
		Blobs:   heap.NewBlobs(blb),
		GUIDs:   heap.NewGUIDs(gid),
	}
}

func TestWriteRoundTripsRows(t *testing.T) {
	data, err := Write(smallSource())
	require.NoError(t, err)

	root, stream, heaps := parseRegion(t, data)
	assert.Equal(t, DefaultVersion, root.Version)

	require.Equal(t, uint32(1), stream.RowCount(token.Module))
	require.Equal(t, uint32(1), stream.RowCount(token.TypeRef))
	require.Equal(t, uint32(1), stream.RowCount(token.TypeDef))
	require.Equal(t, uint32(2), stream.RowCount(token.Field))
	require.Equal(t, uint32(1), stream.RowCount(token.Constant))
	require.Equal(t, uint32(1), stream.RowCount(token.AssemblyRef))
	assert.Equal(t, uint32(0), stream.RowCount(token.Property))

	mod, err := stream.Modules.Row(1)
	require.NoError(t, err)
	name, err := heaps.Strings.Get(mod.Name)
	require.NoError(t, err)
	assert.Equal(t, "app.dll", name)
	g, err := heaps.GUIDs.Get(mod.Mvid)
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), g[15])

	ref, err := stream.TypeRefs.Row(1)
	require.NoError(t, err)
	assert.Equal(t, layout.CodedIndex{Table: token.AssemblyRef, Row: 1}, ref.Scope)

	td, err := stream.TypeDefs.Row(1)
	require.NoError(t, err)
	assert.Equal(t, layout.CodedIndex{Table: token.TypeRef, Row: 1}, td.Extends)
	assert.Equal(t, uint32(1), td.FieldList)

	c, err := stream.Constants.Row(1)
	require.NoError(t, err)
	assert.Equal(t, layout.CodedIndex{Table: token.Field, Row: 2}, c.Parent)
	raw, err := heaps.Blobs.Get(c.Value)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 0, 0, 0}, raw)
}

func TestWriteIsDeterministic(t *testing.T) {
	a, err := Write(smallSource())
	require.NoError(t, err)
	b, err := Write(smallSource())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriteChainedFieldLists(t *testing.T) {
	f1 := &loader.Field{RID: 1, Name: "A", Signature: []byte{0x06}}
	f2 := &loader.Field{RID: 2, Name: "B", Signature: []byte{0x06}}
	f3 := &loader.Field{RID: 3, Name: "C", Signature: []byte{0x06}}
	src := &Source{
		TypeDefs: []*loader.TypeDef{
			{RID: 1, Name: "First", Fields: []*loader.Field{f1, f2}},
			{RID: 2, Name: "Second", Fields: []*loader.Field{f3}},
			{RID: 3, Name: "Empty"},
		},
		Fields: []*loader.Field{f1, f2, f3},
	}

	data, err := Write(src)
	require.NoError(t, err)
	_, stream, _ := parseRegion(t, data)

	lists := make([]uint32, 0, 3)
	for rid := uint32(1); rid <= 3; rid++ {
		row, err := stream.TypeDefs.Row(rid)
		require.NoError(t, err)
		lists = append(lists, row.FieldList)
	}
	assert.Equal(t, []uint32{1, 3, 4}, lists)
}

func TestWriteFieldPtrPermutation(t *testing.T) {
	f1 := &loader.Field{RID: 1, Name: "A", Signature: []byte{0x06}}
	f2 := &loader.Field{RID: 2, Name: "B", Signature: []byte{0x06}}
	src := &Source{
		// Logical order is f2 then f1, so the type owns them in that order.
		TypeDefs:  []*loader.TypeDef{{RID: 1, Name: "T", Fields: []*loader.Field{f2, f1}}},
		FieldPtrs: []*loader.FieldPtr{{RID: 1, Target: f2}, {RID: 2, Target: f1}},
		Fields:    []*loader.Field{f1, f2},
	}

	data, err := Write(src)
	require.NoError(t, err)
	_, stream, _ := parseRegion(t, data)

	p1, err := stream.FieldPtrs.Row(1)
	require.NoError(t, err)
	p2, err := stream.FieldPtrs.Row(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), p1.Field)
	assert.Equal(t, uint32(1), p2.Field)
}

func TestValidateRejectsBadSources(t *testing.T) {
	f1 := &loader.Field{RID: 1, Name: "A", Signature: []byte{0x06}}
	f2 := &loader.Field{RID: 2, Name: "B", Signature: []byte{0x06}}
	td := func(fields ...*loader.Field) *loader.TypeDef {
		return &loader.TypeDef{RID: 1, Name: "T", Fields: fields}
	}

	cases := []struct {
		name string
		src  *Source
		want string
	}{
		{
			name: "two modules",
			src: &Source{Modules: []*loader.Module{
				{RID: 1, Name: "a"}, {RID: 2, Name: "b"},
			}},
			want: "at most one",
		},
		{
			name: "gap in row ids",
			src:  &Source{Fields: []*loader.Field{f1, {RID: 3, Name: "C"}}},
			want: "contiguous",
		},
		{
			name: "constant without parent",
			src: &Source{Constants: []*loader.Constant{
				{RID: 1, Value: loader.ConstantValue{Type: 0x08, Raw: []byte{1}}},
			}},
			want: "no parent",
		},
		{
			name: "constant parent past the table",
			src: &Source{
				Fields: []*loader.Field{f1},
				Constants: []*loader.Constant{{
					RID:         1,
					Value:       loader.ConstantValue{Type: 0x08, Raw: []byte{1}},
					ParentToken: token.New(token.Field, 9),
				}},
				TypeDefs: []*loader.TypeDef{td(f1)},
			},
			want: "past the table",
		},
		{
			name: "constant parent not a candidate",
			src: &Source{
				Modules: []*loader.Module{{RID: 1, Name: "m"}},
				Constants: []*loader.Constant{{
					RID:         1,
					Value:       loader.ConstantValue{Type: 0x08, Raw: []byte{1}},
					ParentToken: token.New(token.Module, 1),
				}},
			},
			want: "not a candidate",
		},
		{
			name: "indirection slot without target",
			src: &Source{
				Fields:    []*loader.Field{f1},
				FieldPtrs: []*loader.FieldPtr{{RID: 1}},
				TypeDefs:  []*loader.TypeDef{td(f1)},
			},
			want: "no valid field target",
		},
		{
			name: "type encloses itself",
			src: &Source{
				TypeDefs: []*loader.TypeDef{td()},
				NestedClasses: []*loader.NestedClass{{
					RID:       1,
					Nested:    td(),
					Enclosing: td(),
				}},
			},
			want: "encloses itself",
		},
		{
			name: "unowned fields",
			src: &Source{
				Fields:   []*loader.Field{f1, f2},
				TypeDefs: []*loader.TypeDef{td(f1)},
			},
			want: "not owned by any type",
		},
		{
			name: "non-contiguous ownership",
			src: &Source{
				Fields:   []*loader.Field{f1, f2},
				TypeDefs: []*loader.TypeDef{td(f2, f1)},
			},
			want: "not contiguous",
		},
		{
			name: "duplicate indirection target",
			src: &Source{
				Fields:    []*loader.Field{f1, f2},
				FieldPtrs: []*loader.FieldPtr{{RID: 1, Target: f1}, {RID: 2, Target: f1}},
				TypeDefs:  []*loader.TypeDef{td(f1, f1)},
			},
			want: "appears twice",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.src.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, mderr.ErrMalformed) || errors.Is(err, mderr.ErrOutOfRange))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestWritePrefersResolvedReferences(t *testing.T) {
	// The stored token points at row 2, the resolved entity at row 1: the
	// entity wins.
	ref1 := &loader.AssemblyRef{RID: 1, Name: "one"}
	ref2 := &loader.AssemblyRef{RID: 2, Name: "two"}
	tr := &loader.TypeRef{
		RID:        1,
		Name:       "T",
		Scope:      ref1,
		ScopeToken: token.New(token.AssemblyRef, 2),
	}
	src := &Source{
		TypeRefs:     []*loader.TypeRef{tr},
		AssemblyRefs: []*loader.AssemblyRef{ref1, ref2},
	}

	data, err := Write(src)
	require.NoError(t, err)
	_, stream, _ := parseRegion(t, data)

	row, err := stream.TypeRefs.Row(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), row.Scope.Row)
}
