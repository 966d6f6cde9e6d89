package loader

import (
	"github.com/dotmeta-dev/dotmeta/metadata/heap"
	"github.com/dotmeta-dev/dotmeta/metadata/lazy"
	"github.com/dotmeta-dev/dotmeta/metadata/registry"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// Owned entity types. Each wraps one resolved row: heap indexes replaced by
// their values, coded indexes replaced by references to other entities, and
// annotations from dependent tables landing in write-once cells. RID and
// RowOffset tie every entity back to its raw row for diagnostics.

// ConstantValue is a default value applied onto a field, parameter or
// property from the constant table.
type ConstantValue struct {
	// Type is the element type code of the raw value bytes.
	Type uint8
	Raw  []byte
}

// ClassLayoutInfo is the explicit layout applied onto a type.
type ClassLayoutInfo struct {
	PackingSize uint16
	ClassSize   uint32
}

// Module is the single row describing the current module.
type Module struct {
	RID        uint32
	RowOffset  uint64
	Generation uint16
	Name       string
	Mvid       heap.GUID
	EncID      heap.GUID
	EncBaseID  heap.GUID
}

func (m *Module) Token() token.Token { return token.New(token.Module, m.RID) }

// ModuleRef names an external module.
type ModuleRef struct {
	RID       uint32
	RowOffset uint64
	Name      string
}

func (m *ModuleRef) Token() token.Token { return token.New(token.ModuleRef, m.RID) }

// Assembly describes the current assembly.
type Assembly struct {
	RID       uint32
	RowOffset uint64
	HashAlgID uint32
	Major     uint16
	Minor     uint16
	Build     uint16
	Revision  uint16
	Flags     uint32
	PublicKey []byte
	Name      string
	Culture   string
}

func (a *Assembly) Token() token.Token { return token.New(token.Assembly, a.RID) }

// AssemblyRef names an external assembly dependency.
type AssemblyRef struct {
	RID              uint32
	RowOffset        uint64
	Major            uint16
	Minor            uint16
	Build            uint16
	Revision         uint16
	Flags            uint32
	PublicKeyOrToken []byte
	Name             string
	Culture          string
	HashValue        []byte
}

func (a *AssemblyRef) Token() token.Token { return token.New(token.AssemblyRef, a.RID) }

// TypeRef names a type defined elsewhere. Scope is the resolved resolution
// scope entity: a *Module, *ModuleRef, *AssemblyRef, or (for a type nested
// inside another reference) a *TypeRef. A nil Scope with a null ScopeToken
// means the reference carries no scope.
type TypeRef struct {
	RID       uint32
	RowOffset uint64
	Name      string
	Namespace string

	ScopeToken token.Token
	Scope      registry.Entity
}

func (t *TypeRef) Token() token.Token { return token.New(token.TypeRef, t.RID) }

// TypeDef is a type defined in this module. Extends is nil for types with
// no base; otherwise it is a *TypeDef or *TypeRef. Fields holds the owned
// field range in logical order, Layout and Enclosing are filled by the
// class-layout and nested-class loaders respectively.
type TypeDef struct {
	RID       uint32
	RowOffset uint64
	Flags     uint32
	Name      string
	Namespace string

	ExtendsToken token.Token
	Extends      registry.Entity

	Fields []*Field

	Layout    lazy.Cell[ClassLayoutInfo]
	Enclosing lazy.Cell[*TypeDef]
}

func (t *TypeDef) Token() token.Token { return token.New(token.TypeDef, t.RID) }

// Field is a field row. Default and LayoutOffset are applied by the
// constant and field-layout loaders.
type Field struct {
	RID       uint32
	RowOffset uint64
	Flags     uint16
	Name      string
	Signature []byte

	Default      lazy.Cell[ConstantValue]
	LayoutOffset lazy.Cell[uint32]
}

func (f *Field) Token() token.Token { return token.New(token.Field, f.RID) }

// FieldPtr is one indirection slot: logical field position to physical
// field row.
type FieldPtr struct {
	RID       uint32
	RowOffset uint64
	Target    *Field
}

func (f *FieldPtr) Token() token.Token { return token.New(token.FieldPtr, f.RID) }

// Param is a parameter row.
type Param struct {
	RID       uint32
	RowOffset uint64
	Flags     uint16
	Sequence  uint16
	Name      string

	Default lazy.Cell[ConstantValue]
}

func (p *Param) Token() token.Token { return token.New(token.Param, p.RID) }

// Property is a property row.
type Property struct {
	RID       uint32
	RowOffset uint64
	Flags     uint16
	Name      string
	Signature []byte

	Default lazy.Cell[ConstantValue]
}

func (p *Property) Token() token.Token { return token.New(token.Property, p.RID) }

// Constant records one default-value row; the value itself lands in the
// parent entity's Default cell, this entity preserves the row for callers
// walking the table directly.
type Constant struct {
	RID       uint32
	RowOffset uint64
	Value     ConstantValue

	ParentToken token.Token
	Parent      registry.Entity
}

func (c *Constant) Token() token.Token { return token.New(token.Constant, c.RID) }

// ClassLayout records one explicit-layout row.
type ClassLayout struct {
	RID       uint32
	RowOffset uint64
	Info      ClassLayoutInfo

	Parent *TypeDef
}

func (c *ClassLayout) Token() token.Token { return token.New(token.ClassLayout, c.RID) }

// FieldLayout records one field-offset row.
type FieldLayout struct {
	RID        uint32
	RowOffset  uint64
	ByteOffset uint32

	Field *Field
}

func (f *FieldLayout) Token() token.Token { return token.New(token.FieldLayout, f.RID) }

// NestedClass records one nesting relationship.
type NestedClass struct {
	RID       uint32
	RowOffset uint64

	Nested    *TypeDef
	Enclosing *TypeDef
}

func (n *NestedClass) Token() token.Token { return token.New(token.NestedClass, n.RID) }
