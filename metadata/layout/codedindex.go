package layout

import (
	"math/bits"

	"github.com/dotmeta-dev/dotmeta/metadata/buffer"
	"github.com/dotmeta-dev/dotmeta/metadata/mderr"
	"github.com/dotmeta-dev/dotmeta/metadata/token"
)

// CodedIndexKind identifies one family of polymorphic cross-table
// references. Each kind has a fixed, ordered candidate table set; the
// order defines the tag values and must never change.
type CodedIndexKind int

const (
	// ResolutionScope selects where a type reference is resolved.
	ResolutionScope CodedIndexKind = iota
	// TypeDefOrRef selects a type definition, reference or specification.
	TypeDefOrRef
	// HasConstant selects the entity a constant value is attached to.
	HasConstant
)

var codedIndexCandidates = map[CodedIndexKind][]token.TableID{
	ResolutionScope: {token.Module, token.ModuleRef, token.AssemblyRef, token.TypeRef},
	TypeDefOrRef:    {token.TypeDef, token.TypeRef, token.TypeSpec},
	HasConstant:     {token.Field, token.Param, token.Property},
}

var codedIndexNames = map[CodedIndexKind]string{
	ResolutionScope: "ResolutionScope",
	TypeDefOrRef:    "TypeDefOrRef",
	HasConstant:     "HasConstant",
}

// String returns the kind name.
func (k CodedIndexKind) String() string {
	if n, ok := codedIndexNames[k]; ok {
		return n
	}
	return "CodedIndex(?)"
}

// Candidates returns the ordered candidate table set for this kind. The
// returned slice is shared and must not be modified.
func (k CodedIndexKind) Candidates() []token.TableID {
	return codedIndexCandidates[k]
}

// TagBits returns the number of low bits consumed by the candidate tag:
// ceil(log2(len(candidates))).
func (k CodedIndexKind) TagBits() int {
	return bits.Len(uint(len(codedIndexCandidates[k]) - 1))
}

// CodedIndex is a decoded polymorphic reference: a candidate table plus a
// 1-based row id. The zero value is the null reference.
type CodedIndex struct {
	Table token.TableID
	Row   uint32
}

// IsNull reports whether the reference points at nothing.
func (c CodedIndex) IsNull() bool { return c.Row == 0 }

// Token returns the token form of the reference.
func (c CodedIndex) Token() token.Token {
	return token.New(c.Table, c.Row)
}

// Decode splits a raw coded index payload into its candidate table and row
// id. The zero payload is the null reference; a nonzero payload whose row
// index is zero would not survive re-encoding and is rejected. A tag
// outside the candidate set is a malformed-metadata error, never a panic.
func (k CodedIndexKind) Decode(raw uint32) (CodedIndex, error) {
	if raw == 0 {
		return CodedIndex{}, nil
	}
	candidates := codedIndexCandidates[k]
	tagBits := k.TagBits()
	tag := raw & (1<<tagBits - 1)
	row := raw >> tagBits
	if int(tag) >= len(candidates) {
		return CodedIndex{}, mderr.Malformedf("%s tag %d is outside its %d-table candidate set", k, tag, len(candidates))
	}
	if row == 0 {
		return CodedIndex{}, mderr.Malformedf("%s payload 0x%X has tag %d but no row index", k, raw, tag)
	}
	return CodedIndex{Table: candidates[tag], Row: row}, nil
}

// Encode packs a reference into its raw payload: row shifted above the tag
// bits, tag in the low bits. The null reference encodes to zero. A table
// outside the candidate set is an out-of-range error.
func (k CodedIndexKind) Encode(ci CodedIndex) (uint32, error) {
	if ci.IsNull() {
		return 0, nil
	}
	candidates := codedIndexCandidates[k]
	tagBits := k.TagBits()
	for tag, id := range candidates {
		if id == ci.Table {
			if ci.Row >= 1<<(32-tagBits) {
				return 0, mderr.OutOfRangef("%s row index 0x%X overflows %d available bits", k, ci.Row, 32-tagBits)
			}
			return ci.Row<<tagBits | uint32(tag), nil
		}
	}
	return 0, mderr.OutOfRangef("table %s is not a %s candidate", ci.Table, k)
}

// Read decodes a coded index field at the width the size model dictates.
func (k CodedIndexKind) Read(r *buffer.Reader, sizes *TableSizes) (CodedIndex, error) {
	raw, err := r.Index(sizes.CodedIndexWide(k))
	if err != nil {
		return CodedIndex{}, err
	}
	return k.Decode(raw)
}

// Write encodes a coded index field at the width the size model dictates.
func (k CodedIndexKind) Write(w *buffer.Writer, ci CodedIndex, sizes *TableSizes) error {
	raw, err := k.Encode(ci)
	if err != nil {
		return err
	}
	return w.Index(raw, sizes.CodedIndexWide(k))
}
