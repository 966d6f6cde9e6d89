// Package token defines the stable 32-bit identity used to address every
// resolved metadata entity: the upper byte selects the table, the lower
// three bytes hold the 1-based row id within that table.
package token

import (
	"fmt"
	"strconv"
	"strings"
)

// TableID identifies one metadata table kind. The numeric values are the
// table numbers used in the binary stream header bitmask and in token
// prefixes, so they must never be renumbered.
type TableID uint8

const (
	Module      TableID = 0x00
	TypeRef     TableID = 0x01
	TypeDef     TableID = 0x02
	FieldPtr    TableID = 0x03
	Field       TableID = 0x04
	Param       TableID = 0x08
	Constant    TableID = 0x0B
	ClassLayout TableID = 0x0F
	FieldLayout TableID = 0x10
	Property    TableID = 0x17
	ModuleRef   TableID = 0x1A
	TypeSpec    TableID = 0x1B
	Assembly    TableID = 0x20
	AssemblyRef TableID = 0x23
	NestedClass TableID = 0x29
)

var tableNames = map[TableID]string{
	Module:      "Module",
	TypeRef:     "TypeRef",
	TypeDef:     "TypeDef",
	FieldPtr:    "FieldPtr",
	Field:       "Field",
	Param:       "Param",
	Constant:    "Constant",
	ClassLayout: "ClassLayout",
	FieldLayout: "FieldLayout",
	Property:    "Property",
	ModuleRef:   "ModuleRef",
	TypeSpec:    "TypeSpec",
	Assembly:    "Assembly",
	AssemblyRef: "AssemblyRef",
	NestedClass: "NestedClass",
}

// allTables is kept in ascending numeric order; stream parsing walks tables
// in this order because that is the physical order of the table stream.
var allTables = []TableID{
	Module, TypeRef, TypeDef, FieldPtr, Field, Param, Constant,
	ClassLayout, FieldLayout, Property, ModuleRef, TypeSpec,
	Assembly, AssemblyRef, NestedClass,
}

// AllTables returns every recognized table kind in ascending numeric order.
func AllTables() []TableID {
	out := make([]TableID, len(allTables))
	copy(out, allTables)
	return out
}

// Valid reports whether the table id is one of the recognized table kinds.
func (t TableID) Valid() bool {
	_, ok := tableNames[t]
	return ok
}

// String returns the table name, or a hex placeholder for unknown ids.
func (t TableID) String() string {
	if name, ok := tableNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Table(0x%02X)", uint8(t))
}

// ParseTableID resolves a table name (case-insensitive) to its id.
func ParseTableID(name string) (TableID, bool) {
	for id, n := range tableNames {
		if strings.EqualFold(n, name) {
			return id, true
		}
	}
	return 0, false
}

// Token is the opaque 32-bit identity of one resolved entity. Row ids are
// 1-based; a token with row 0 is the null token for its table.
type Token uint32

// New builds a token from a table kind and 1-based row id. Row ids above
// 24 bits cannot occur in well-formed metadata and are masked.
func New(table TableID, row uint32) Token {
	return Token(uint32(table)<<24 | row&0x00FFFFFF)
}

// Table returns the table kind encoded in the upper byte.
func (t Token) Table() TableID {
	return TableID(uint32(t) >> 24)
}

// Row returns the 1-based row id encoded in the lower three bytes.
func (t Token) Row() uint32 {
	return uint32(t) & 0x00FFFFFF
}

// IsNull reports whether the token carries no row reference.
func (t Token) IsNull() bool {
	return t.Row() == 0
}

// String formats the token as the conventional 8-digit hex form.
func (t Token) String() string {
	return fmt.Sprintf("0x%08X", uint32(t))
}

// Parse accepts the forms produced by String ("0x02000001") as well as
// bare hex ("02000001") and decimal strings.
func Parse(s string) (Token, error) {
	str := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	v, err := strconv.ParseUint(str, 16, 32)
	if err != nil {
		if dv, derr := strconv.ParseUint(s, 10, 32); derr == nil {
			return Token(dv), nil
		}
		return 0, fmt.Errorf("invalid token %q: %w", s, err)
	}
	return Token(v), nil
}
