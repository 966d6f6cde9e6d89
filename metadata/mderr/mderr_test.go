package mderr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

func TestKindSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"truncation", Truncatedf(8, "need 4 bytes"), ErrTruncation},
		{"out of range", OutOfRangef("row 9 of 3"), ErrOutOfRange},
		{"malformed", Malformedf("bad tag"), ErrMalformed},
		{"unsupported", Unsupportedf("table 0x1B"), ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			for _, other := range []error{ErrTruncation, ErrOutOfRange, ErrMalformed, ErrUnsupported} {
				if other != tt.sentinel {
					assert.False(t, errors.Is(tt.err, other))
				}
			}
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	err := Malformedf("coded index tag 3 has no candidate table")
	assert.Equal(t, "malformed: coded index tag 3 has no candidate table", err.Error())

	err = err.At(token.TypeDef, 4)
	assert.Equal(t, "TypeDef[4]: malformed: coded index tag 3 has no candidate table", err.Error())

	err = err.AtOffset(0x1C)
	assert.Equal(t, "TypeDef[4] @0x1C: malformed: coded index tag 3 has no candidate table", err.Error())
}

func TestFirstLocationWins(t *testing.T) {
	err := Malformedf("x").At(token.Field, 2)
	err.At(token.TypeDef, 9)
	assert.Equal(t, token.Field, err.Table)
	assert.Equal(t, uint32(2), err.Row)
}

func TestLocateAttachesOnce(t *testing.T) {
	inner := OutOfRangef("heap offset past end")
	err := Locate(inner, token.Field, 3)

	var me *Error
	require.True(t, errors.As(err, &me))
	assert.Equal(t, token.Field, me.Table)
	assert.Equal(t, uint32(3), me.Row)

	// A wrapping layer must not overwrite the original location.
	err = Locate(err, token.TypeDef, 1)
	require.True(t, errors.As(err, &me))
	assert.Equal(t, token.Field, me.Table)
}

func TestLocateThroughWrapping(t *testing.T) {
	inner := Truncatedf(16, "need 2 bytes, 1 remaining")
	wrapped := fmt.Errorf("decoding row: %w", inner)

	err := Locate(wrapped, token.Param, 7)
	assert.True(t, errors.Is(err, ErrTruncation))

	var me *Error
	require.True(t, errors.As(err, &me))
	assert.Equal(t, token.Param, me.Table)
	assert.Equal(t, uint32(7), me.Row)
}

func TestLocatePassesThroughForeignErrors(t *testing.T) {
	plain := errors.New("disk on fire")
	assert.Equal(t, plain, Locate(plain, token.Module, 1))
}
