package tables

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/layout"
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// buildStream serializes a header plus rows for a module, two type defs
// and three fields, in physical table order.
func buildStream(t *testing.T) []byte {
	t.Helper()
	rows := map[token.TableID]uint32{
		token.Module:  1,
		token.TypeDef: 2,
		token.Field:   3,
	}
	sizes := layout.NewTableSizes(rows, false, false, false)

	w := buffer.NewWriter()
	layout.WriteHeader(w, &layout.Header{Major: 2, Rows: rows})

	require.NoError(t, WriteAll(w, ModuleCodec{}, sizes, []ModuleRow{
		{Generation: 0, Name: 1, Mvid: 1},
	}))
	require.NoError(t, WriteAll(w, TypeDefCodec{}, sizes, []TypeDefRow{
		{Flags: 0, Name: 10, FieldList: 1},
		{Flags: 1, Name: 20, FieldList: 3},
	}))
	require.NoError(t, WriteAll(w, FieldCodec{}, sizes, []FieldRow{
		{Flags: 1, Name: 30, Signature: 2},
		{Flags: 2, Name: 40, Signature: 4},
		{Flags: 3, Name: 50, Signature: 6},
	}))
	return w.Bytes()
}

func TestParseStream(t *testing.T) {
	s, err := ParseStream(buildStream(t))
	require.NoError(t, err)

	assert.Equal(t, []token.TableID{token.Module, token.TypeDef, token.Field}, s.Present())
	assert.Equal(t, uint32(1), s.Modules.RowCount())
	assert.Equal(t, uint32(2), s.TypeDefs.RowCount())
	assert.Equal(t, uint32(3), s.Fields.RowCount())
	assert.Equal(t, uint32(0), s.Params.RowCount())

	// Tables are sliced back to back in ascending id order.
	assert.Equal(t, s.Modules.End(), s.TypeDefs.End()-2*s.TypeDefs.RowSize())

	td, err := s.TypeDefs.Row(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), td.Name)
	assert.Equal(t, uint32(3), td.FieldList)

	f, err := s.Fields.Row(3)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), f.Flags)
	assert.Equal(t, uint32(50), f.Name)
}

func TestParseStreamTruncatedRows(t *testing.T) {
	data := buildStream(t)
	_, err := ParseStream(data[:len(data)-4])
	require.Error(t, err)
	assert.True(t, errors.Is(err, mderr.ErrTruncation))
}

func TestParseStreamEmptyTablesStillAddressable(t *testing.T) {
	s, err := ParseStream(buildStream(t))
	require.NoError(t, err)

	// Absent tables expose zero rows, not nil containers.
	require.NotNil(t, s.NestedClasses)
	_, err = s.NestedClasses.Row(1)
	assert.True(t, errors.Is(err, mderr.ErrOutOfRange))
}
