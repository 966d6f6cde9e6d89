// Package mderr defines the error taxonomy shared by every decode, resolve
// and apply step of the metadata engine. Errors carry the offending table,
// row id and byte offset where known so corrupt input can be located.
package mderr

import (
	"errors"
	"fmt"

	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// Kind classifies a metadata error.
type Kind int

const (
	// Truncation means the buffer is shorter than a row or field requires.
	Truncation Kind = iota
	// OutOfRange means a table index, heap offset or coded-index tag
	// exceeds its valid domain.
	OutOfRange
	// Malformed means the data is structurally present but semantically
	// invalid: duplicate binding, unresolved cross-reference, dependency
	// cycle, duplicate token.
	Malformed
	// Unsupported means a recognized but not implemented table or
	// encoding variant was encountered.
	Unsupported
)

// String returns the lower-case taxonomy name.
func (k Kind) String() string {
	switch k {
	case Truncation:
		return "truncation"
	case OutOfRange:
		return "out of range"
	case Malformed:
		return "malformed"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against a Kind.
var (
	ErrTruncation  = errors.New("truncation")
	ErrOutOfRange  = errors.New("out of range")
	ErrMalformed   = errors.New("malformed")
	ErrUnsupported = errors.New("unsupported")
)

func (k Kind) sentinel() error {
	switch k {
	case Truncation:
		return ErrTruncation
	case OutOfRange:
		return ErrOutOfRange
	case Malformed:
		return ErrMalformed
	case Unsupported:
		return ErrUnsupported
	default:
		return nil
	}
}

// Error is a structured metadata error. Table, Row and Offset are filled
// in as the error propagates outward through layers that know them.
type Error struct {
	Kind    Kind
	Table   token.TableID
	Row     uint32
	Offset  uint64
	Message string

	hasLocation bool
	hasOffset   bool
}

// Error formats "TableName[row] @0xOFF: kind: message", omitting the parts
// that were never attached.
func (e *Error) Error() string {
	switch {
	case e.hasLocation && e.hasOffset:
		return fmt.Sprintf("%s[%d] @0x%X: %s: %s", e.Table, e.Row, e.Offset, e.Kind, e.Message)
	case e.hasLocation:
		return fmt.Sprintf("%s[%d]: %s: %s", e.Table, e.Row, e.Kind, e.Message)
	case e.hasOffset:
		return fmt.Sprintf("@0x%X: %s: %s", e.Offset, e.Kind, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// Unwrap exposes the kind sentinel so callers can use errors.Is.
func (e *Error) Unwrap() error {
	return e.Kind.sentinel()
}

// At attaches a table and row location, returning the error for chaining.
// The first attached location wins; wrapping layers never overwrite it.
func (e *Error) At(table token.TableID, row uint32) *Error {
	if !e.hasLocation {
		e.Table = table
		e.Row = row
		e.hasLocation = true
	}
	return e
}

// AtOffset attaches the byte offset where decoding failed.
func (e *Error) AtOffset(offset uint64) *Error {
	if !e.hasOffset {
		e.Offset = offset
		e.hasOffset = true
	}
	return e
}

// HasLocation reports whether a table/row location has been attached.
func (e *Error) HasLocation() bool { return e.hasLocation }

// Newf builds an error of the given kind.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Truncatedf builds a Truncation error located at a byte offset.
func Truncatedf(offset uint64, format string, args ...any) *Error {
	return Newf(Truncation, format, args...).AtOffset(offset)
}

// OutOfRangef builds an OutOfRange error.
func OutOfRangef(format string, args ...any) *Error {
	return Newf(OutOfRange, format, args...)
}

// Malformedf builds a Malformed error.
func Malformedf(format string, args ...any) *Error {
	return Newf(Malformed, format, args...)
}

// Unsupportedf builds an Unsupported error.
func Unsupportedf(format string, args ...any) *Error {
	return Newf(Unsupported, format, args...)
}

// Locate attaches a table/row location to err when it is (or wraps) an
// *Error that has none yet. Unknown error types pass through unchanged.
func Locate(err error, table token.TableID, row uint32) error {
	var me *Error
	if errors.As(err, &me) {
		me.At(table, row)
		return err
	}
	return err
}
